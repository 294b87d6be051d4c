package store

import (
	"context"
	"fmt"

	"github.com/roach88/moveng/internal/model"
	"github.com/roach88/moveng/internal/queryir"
	"github.com/roach88/moveng/internal/querysql"
)

// Match is one archived record selected by a query.
type Match struct {
	Collection model.Collection `json:"collection"`
	RecordID   string           `json:"recordId"`
	MovementID string           `json:"movementId"`
	Path       string           `json:"path,omitempty"`
}

// Query runs q against the snapshot named by ref. Matches are in snapshot
// order; an empty result is an empty slice.
func (s *Store) Query(ctx context.Context, ref string, q queryir.Query) ([]Match, error) {
	sum, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	sqlText, params, err := querysql.Compile(q, sum.ID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	out := []Match{}
	for rows.Next() {
		var m Match
		var key string
		if err := rows.Scan(&key, &m.RecordID, &m.MovementID, &m.Path); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		c, ok := model.ParseCollection(key)
		if !ok {
			return nil, fmt.Errorf("archived record %s has unknown collection %q", m.RecordID, key)
		}
		m.Collection = c
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return out, nil
}
