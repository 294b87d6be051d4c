package store

import (
	"context"
	"fmt"

	"github.com/roach88/moveng/internal/graph"
	"github.com/roach88/moveng/internal/model"
)

// Summary describes one archived snapshot.
type Summary struct {
	ID          int64            `json:"id"`
	Fingerprint string           `json:"fingerprint"`
	SpecVersion string           `json:"specVersion"`
	GeneratedAt string           `json:"generatedAt,omitempty"`
	Source      model.SourceInfo `json:"source"`
	Records     int              `json:"records"`
	Edges       int              `json:"edges"`
}

// WriteSnapshot archives s together with its file index and derived graph.
// Returns the archived summary and whether a new row was inserted.
//
// Uses ON CONFLICT(fingerprint) DO NOTHING for idempotency: a snapshot whose
// content is already archived returns the existing summary and inserted=false,
// and its records and edges are not written again. The fingerprint is taken
// from s.Meta when present and computed otherwise.
func (s *Store) WriteSnapshot(ctx context.Context, snap *model.Snapshot, index model.FileIndex, g *graph.Graph) (sum Summary, inserted bool, err error) {
	sum, err = summarize(snap, g)
	if err != nil {
		return Summary{}, false, fmt.Errorf("write snapshot: %w", err)
	}
	body, err := marshalBody(snap)
	if err != nil {
		return Summary{}, false, fmt.Errorf("write snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, false, fmt.Errorf("write snapshot: begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots
		(fingerprint, spec_version, generated_at, source_kind, source_root, source_ref, source_commit,
		 record_count, edge_count, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`,
		sum.Fingerprint,
		sum.SpecVersion,
		sum.GeneratedAt,
		sum.Source.Kind,
		sum.Source.Root,
		sum.Source.Ref,
		sum.Source.Commit,
		sum.Records,
		sum.Edges,
		body,
	)
	if err != nil {
		return Summary{}, false, fmt.Errorf("write snapshot: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return Summary{}, false, fmt.Errorf("write snapshot: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		existing, err := scanSummary(tx.QueryRowContext(ctx, summarySelect+` WHERE fingerprint = ?`, sum.Fingerprint))
		if err != nil {
			return Summary{}, false, fmt.Errorf("write snapshot: select existing: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return Summary{}, false, fmt.Errorf("write snapshot: commit (existing): %w", err)
		}
		return existing, false, nil
	}

	sum.ID, err = result.LastInsertId()
	if err != nil {
		return Summary{}, false, fmt.Errorf("write snapshot: last insert id: %w", err)
	}

	recordStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records
		(snapshot_id, collection, record_id, movement_id, path, hash, seq, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Summary{}, false, fmt.Errorf("write snapshot: prepare records: %w", err)
	}
	defer recordStmt.Close()

	seq := 0
	for _, c := range model.Collections {
		for _, r := range snap.Records(c) {
			hash, err := model.RecordHash(r)
			if err != nil {
				return Summary{}, false, fmt.Errorf("write snapshot: %w", err)
			}
			recordJSON, err := model.MarshalCanonical(r)
			if err != nil {
				return Summary{}, false, fmt.Errorf("write snapshot: record %s/%s: %w", c.Key(), r.RecordID(), err)
			}
			if _, err := recordStmt.ExecContext(ctx,
				sum.ID, c.Key(), r.RecordID(), r.Scope(), index.Path(c, r.RecordID()), hash, seq, string(recordJSON),
			); err != nil {
				return Summary{}, false, fmt.Errorf("write snapshot: record %s/%s: %w", c.Key(), r.RecordID(), err)
			}
			seq++
		}
	}

	if g != nil {
		edgeStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO edges
			(snapshot_id, edge_id, from_id, to_id, relation_type,
			 source_collection, source_record_id, source_field, source_index, seq)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return Summary{}, false, fmt.Errorf("write snapshot: prepare edges: %w", err)
		}
		defer edgeStmt.Close()

		for i, e := range g.Edges {
			if _, err := edgeStmt.ExecContext(ctx,
				sum.ID, e.ID, e.From, e.To, e.RelationType,
				e.Source.Collection.Key(), e.Source.RecordID, e.Source.Field, e.Source.Index, i,
			); err != nil {
				return Summary{}, false, fmt.Errorf("write snapshot: edge %s: %w", e.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Summary{}, false, fmt.Errorf("write snapshot: commit: %w", err)
	}

	return sum, true, nil
}

func summarize(snap *model.Snapshot, g *graph.Graph) (Summary, error) {
	sum := Summary{SpecVersion: model.SpecVersion, Records: snap.Len()}
	if g != nil {
		sum.Edges = len(g.Edges)
	}
	if m := snap.Meta; m != nil {
		sum.Fingerprint = m.Fingerprint
		sum.GeneratedAt = m.GeneratedAt
		if m.SpecVersion != "" {
			sum.SpecVersion = m.SpecVersion
		}
		if m.Source != nil {
			sum.Source = *m.Source
		}
	}
	if sum.Fingerprint == "" {
		fp, err := model.Fingerprint(snap)
		if err != nil {
			return Summary{}, err
		}
		sum.Fingerprint = fp
	}
	return sum, nil
}

// DeleteSnapshot removes an archived snapshot with its records and edges.
// Deleting an unknown fingerprint returns ErrNotFound.
func (s *Store) DeleteSnapshot(ctx context.Context, fingerprint string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE fingerprint = ?`, fingerprint)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete snapshot: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, fingerprint)
	}
	return nil
}
