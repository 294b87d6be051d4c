package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/moveng/internal/graph"
	"github.com/roach88/moveng/internal/model"
)

// LatestRef resolves to the most recently archived snapshot.
const LatestRef = "latest"

const summarySelect = `
	SELECT id, fingerprint, spec_version, generated_at,
	       source_kind, source_root, source_ref, source_commit,
	       record_count, edge_count
	FROM snapshots`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (Summary, error) {
	var sum Summary
	err := row.Scan(
		&sum.ID,
		&sum.Fingerprint,
		&sum.SpecVersion,
		&sum.GeneratedAt,
		&sum.Source.Kind,
		&sum.Source.Root,
		&sum.Source.Ref,
		&sum.Source.Commit,
		&sum.Records,
		&sum.Edges,
	)
	if err != nil {
		return Summary{}, err
	}
	return sum, nil
}

// ListSnapshots returns every archived snapshot, oldest first.
//
// Returns an empty slice (not nil) if the archive is empty.
func (s *Store) ListSnapshots(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, summarySelect+` ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return out, nil
}

// Resolve finds the archived snapshot named by ref: LatestRef (or ""), a
// full fingerprint, or a unique fingerprint prefix.
func (s *Store) Resolve(ctx context.Context, ref string) (Summary, error) {
	if ref == "" || ref == LatestRef {
		sum, err := scanSummary(s.db.QueryRowContext(ctx, summarySelect+` ORDER BY id DESC LIMIT 1`))
		if errors.Is(err, sql.ErrNoRows) {
			return Summary{}, fmt.Errorf("%w: archive is empty", ErrNotFound)
		}
		if err != nil {
			return Summary{}, fmt.Errorf("resolve %s: %w", ref, err)
		}
		return sum, nil
	}

	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(ref)
	rows, err := s.db.QueryContext(ctx, summarySelect+` WHERE fingerprint LIKE ? ESCAPE '\' ORDER BY id ASC LIMIT 2`, escaped+"%")
	if err != nil {
		return Summary{}, fmt.Errorf("resolve %s: %w", ref, err)
	}
	defer rows.Close()

	var matches []Summary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return Summary{}, fmt.Errorf("resolve %s: %w", ref, err)
		}
		matches = append(matches, sum)
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("resolve %s: %w", ref, err)
	}

	switch len(matches) {
	case 0:
		return Summary{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return Summary{}, fmt.Errorf("snapshot reference %s is ambiguous", ref)
	}
}

// ReadSnapshot returns the archived snapshot and file index for ref (see
// Resolve). The snapshot's Meta is rebuilt from the archived columns.
func (s *Store) ReadSnapshot(ctx context.Context, ref string) (*model.Snapshot, model.FileIndex, error) {
	sum, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, nil, err
	}

	var body string
	if err := s.db.QueryRowContext(ctx, `SELECT body FROM snapshots WHERE id = ?`, sum.ID).Scan(&body); err != nil {
		return nil, nil, fmt.Errorf("read snapshot body: %w", err)
	}
	snap, err := unmarshalBody(body)
	if err != nil {
		return nil, nil, err
	}
	source := sum.Source
	snap.Meta = &model.Meta{
		SpecVersion: sum.SpecVersion,
		GeneratedAt: sum.GeneratedAt,
		Source:      &source,
		Fingerprint: sum.Fingerprint,
	}
	if source == (model.SourceInfo{}) {
		snap.Meta.Source = nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT collection, record_id, path
		FROM records
		WHERE snapshot_id = ? AND path != ''
		ORDER BY seq ASC
	`, sum.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	index := model.FileIndex{}
	for rows.Next() {
		var key, id, path string
		if err := rows.Scan(&key, &id, &path); err != nil {
			return nil, nil, fmt.Errorf("scan record: %w", err)
		}
		c, ok := model.ParseCollection(key)
		if !ok {
			return nil, nil, fmt.Errorf("archived record %s has unknown collection %q", id, key)
		}
		index.Set(c, id, path)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate records: %w", err)
	}
	return snap, index, nil
}

// EdgesFrom returns the archived edges leaving recordID in snapshot ref.
func (s *Store) EdgesFrom(ctx context.Context, ref, recordID string) ([]graph.Edge, error) {
	return s.readEdges(ctx, ref, "from_id", recordID)
}

// EdgesTo returns the archived edges entering recordID in snapshot ref.
func (s *Store) EdgesTo(ctx context.Context, ref, recordID string) ([]graph.Edge, error) {
	return s.readEdges(ctx, ref, "to_id", recordID)
}

// readEdges returns edges in graph order. column is one of the two
// constant endpoint columns, never caller input.
func (s *Store) readEdges(ctx context.Context, ref, column, recordID string) ([]graph.Edge, error) {
	sum, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT edge_id, from_id, to_id, relation_type,
		       source_collection, source_record_id, source_field, source_index
		FROM edges
		WHERE snapshot_id = ? AND `+column+` = ?
		ORDER BY seq ASC, edge_id COLLATE BINARY ASC
	`, sum.ID, recordID)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	edges := []graph.Edge{}
	for rows.Next() {
		var e graph.Edge
		var key string
		if err := rows.Scan(&e.ID, &e.From, &e.To, &e.RelationType,
			&key, &e.Source.RecordID, &e.Source.Field, &e.Source.Index); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		c, ok := model.ParseCollection(key)
		if !ok {
			return nil, fmt.Errorf("archived edge %s has unknown collection %q", e.ID, key)
		}
		e.Source.Collection = c
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}
	return edges, nil
}
