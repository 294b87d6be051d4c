package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/moveng/internal/graph"
	"github.com/roach88/moveng/internal/model"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// writeTestSnapshot archives snap with its graph and a file index derived
// from the movements/<id>/... layout.
func writeTestSnapshot(t *testing.T, s *Store, snap *model.Snapshot) Summary {
	t.Helper()
	g, err := graph.Build(snap, graph.Options{})
	if err != nil {
		t.Fatalf("graph.Build() failed: %v", err)
	}
	index := model.FileIndex{}
	for _, c := range model.Collections {
		for _, r := range snap.Records(c) {
			index.Set(c, r.RecordID(), "movements/"+r.Scope()+"/"+c.Key()+"/"+r.RecordID()+".md")
		}
	}
	sum, _, err := s.WriteSnapshot(context.Background(), snap, index, g)
	if err != nil {
		t.Fatalf("WriteSnapshot() failed: %v", err)
	}
	return sum
}
