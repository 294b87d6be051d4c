// Package querysql compiles record queries to SQLite over the snapshot
// archive's records table.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/moveng/internal/model"
	"github.com/roach88/moveng/internal/queryir"
)

// Columns lists the result columns of every compiled query, in order.
var Columns = []string{"collection", "record_id", "movement_id", "path"}

// Compile converts q to parameterized SQL over the records of one archived
// snapshot. Returns (sql, params, error). The query is validated first.
//
// Results are ordered by the record's position in the snapshot, so output
// is deterministic. Values and JSON paths are always parameters.
func Compile(q queryir.Query, snapshotID int64) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, fmt.Errorf("invalid query: %w", err)
	}

	c := &compiler{collections: q.Selected()}
	where := []string{"snapshot_id = ?"}
	params := []any{snapshotID}

	if len(q.Collections) > 0 {
		marks := make([]string, len(c.collections))
		for i, col := range c.collections {
			marks[i] = "?"
			params = append(params, col.Key())
		}
		where = append(where, "collection IN ("+strings.Join(marks, ", ")+")")
	}
	if q.MovementID != "" {
		where = append(where, "movement_id = ?")
		params = append(params, q.MovementID)
	}
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		where = append(where, filterSQL)
		params = append(params, filterParams...)
	}

	sql := fmt.Sprintf("SELECT %s FROM records WHERE %s ORDER BY seq ASC",
		strings.Join(Columns, ", "),
		strings.Join(where, " AND "))
	return sql, params, nil
}

type compiler struct {
	collections []model.Collection
}

func (c *compiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return "json_extract(body, ?) = ?", []any{jsonPath(pred.Field), pred.Value}, nil
	case queryir.Contains:
		return "EXISTS (SELECT 1 FROM json_each(records.body, ?) WHERE json_each.value = ?)",
			[]any{jsonPath(pred.Field), pred.Value}, nil
	case queryir.Present:
		return c.compilePresent(pred)
	case queryir.And:
		return c.compileAnd(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *compiler) compilePresent(p queryir.Present) (string, []any, error) {
	shape, err := queryir.FieldShape(c.collections, p.Field)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", p.Field, err)
	}
	switch shape {
	case queryir.ShapeText:
		return "COALESCE(json_extract(body, ?), '') != ''", []any{jsonPath(p.Field)}, nil
	case queryir.ShapeList:
		return "COALESCE(json_array_length(body, ?), 0) > 0", []any{jsonPath(p.Field)}, nil
	}
	return "", nil, fmt.Errorf("%s: presence is not defined for %s fields", p.Field, shape)
}

// compileAnd wraps the conjunction in parentheses.
func (c *compiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, ps, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	return "(" + strings.Join(parts, " AND ") + ")", params, nil
}

func jsonPath(field string) string {
	return "$." + field
}
