package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/roach88/moveng/internal/model"
)

// Change kinds reported by Diff.
const (
	ChangeAdded    = "added"
	ChangeRemoved  = "removed"
	ChangeModified = "modified"
)

// Change is one record that differs between two archived snapshots.
type Change struct {
	Kind       string           `json:"kind"`
	Collection model.Collection `json:"collection"`
	RecordID   string           `json:"recordId"`
	MovementID string           `json:"movementId"`
}

// Diff compares two archived snapshots by record content hash. Changes are
// ordered by collection, then record id. An empty movementID compares every
// movement.
func (s *Store) Diff(ctx context.Context, fromRef, toRef, movementID string) ([]Change, error) {
	from, err := s.Resolve(ctx, fromRef)
	if err != nil {
		return nil, err
	}
	to, err := s.Resolve(ctx, toRef)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT collection, record_id, movement_id, kind FROM (
			SELECT a.collection, a.record_id, a.movement_id,
			       CASE WHEN b.record_id IS NULL THEN 'removed' ELSE 'modified' END AS kind
			FROM records a
			LEFT JOIN records b
			  ON b.snapshot_id = ? AND b.collection = a.collection AND b.record_id = a.record_id
			WHERE a.snapshot_id = ? AND (b.record_id IS NULL OR b.hash != a.hash)
			UNION ALL
			SELECT b.collection, b.record_id, b.movement_id, 'added'
			FROM records b
			LEFT JOIN records a
			  ON a.snapshot_id = ? AND a.collection = b.collection AND a.record_id = b.record_id
			WHERE b.snapshot_id = ? AND a.record_id IS NULL
		)
		WHERE ? = '' OR movement_id = ?
	`, to.ID, from.ID, from.ID, to.ID, movementID, movementID)
	if err != nil {
		return nil, fmt.Errorf("diff snapshots: %w", err)
	}
	defer rows.Close()

	changes := []Change{}
	for rows.Next() {
		var ch Change
		var key string
		if err := rows.Scan(&key, &ch.RecordID, &ch.MovementID, &ch.Kind); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		c, ok := model.ParseCollection(key)
		if !ok {
			return nil, fmt.Errorf("archived record %s has unknown collection %q", ch.RecordID, key)
		}
		ch.Collection = c
		changes = append(changes, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changes: %w", err)
	}

	sortChanges(changes)
	return changes, nil
}

func sortChanges(changes []Change) {
	slices.SortFunc(changes, func(a, b Change) int {
		if c := cmp.Compare(a.Collection, b.Collection); c != 0 {
			return c
		}
		return cmp.Compare(a.RecordID, b.RecordID)
	})
}
