package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/moveng/internal/model"
	"github.com/roach88/moveng/internal/queryir"
)

const selectPrefix = "SELECT collection, record_id, movement_id, path FROM records WHERE snapshot_id = ?"

func TestCompile_Scope(t *testing.T) {
	sql, params, err := Compile(queryir.Query{}, 7)
	require.NoError(t, err)
	assert.Equal(t, selectPrefix+" ORDER BY seq ASC", sql)
	assert.Equal(t, []any{int64(7)}, params)

	sql, params, err = Compile(queryir.Query{
		Collections: []model.Collection{model.Notes, model.Entities},
		MovementID:  "mov-a",
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, selectPrefix+" AND collection IN (?, ?) AND movement_id = ? ORDER BY seq ASC", sql)
	assert.Equal(t, []any{int64(1), "entities", "notes", "mov-a"}, params, "collections in snapshot order")
}

func TestCompile_Predicates(t *testing.T) {
	tests := []struct {
		name       string
		filter     queryir.Predicate
		wantWhere  string
		wantParams []any
	}{
		{
			name:       "equals",
			filter:     queryir.Equals{Field: "kind", Value: "person"},
			wantWhere:  "json_extract(body, ?) = ?",
			wantParams: []any{"$.kind", "person"},
		},
		{
			name:       "contains",
			filter:     queryir.Contains{Field: "tags", Value: "verse"},
			wantWhere:  "EXISTS (SELECT 1 FROM json_each(records.body, ?) WHERE json_each.value = ?)",
			wantParams: []any{"$.tags", "verse"},
		},
		{
			name:       "present text",
			filter:     queryir.Present{Field: "parentId"},
			wantWhere:  "COALESCE(json_extract(body, ?), '') != ''",
			wantParams: []any{"$.parentId"},
		},
		{
			name:       "present list",
			filter:     queryir.Present{Field: "tags"},
			wantWhere:  "COALESCE(json_array_length(body, ?), 0) > 0",
			wantParams: []any{"$.tags"},
		},
		{
			name:      "empty and",
			filter:    queryir.And{},
			wantWhere: "1 = 1",
		},
		{
			name: "and",
			filter: queryir.And{Predicates: []queryir.Predicate{
				queryir.Equals{Field: "kind", Value: "person"},
				queryir.Present{Field: "tags"},
			}},
			wantWhere:  "(json_extract(body, ?) = ? AND COALESCE(json_array_length(body, ?), 0) > 0)",
			wantParams: []any{"$.kind", "person", "$.tags"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := Compile(queryir.Query{Filter: tt.filter}, 3)
			require.NoError(t, err)
			assert.Equal(t, selectPrefix+" AND "+tt.wantWhere+" ORDER BY seq ASC", sql)
			assert.Equal(t, append([]any{int64(3)}, tt.wantParams...), params)
		})
	}
}

// TestCompile_ValuesNeverInterpolated tests that hostile values only ever
// reach the parameter list.
func TestCompile_ValuesNeverInterpolated(t *testing.T) {
	hostile := "x'; DROP TABLE records; --"
	sql, params, err := Compile(queryir.Query{Filter: queryir.Equals{Field: "name", Value: hostile}}, 1)
	require.NoError(t, err)
	assert.NotContains(t, sql, "DROP")
	assert.Contains(t, params, hostile)
}

func TestCompile_Invalid(t *testing.T) {
	_, _, err := Compile(queryir.Query{Filter: queryir.Contains{Field: "name", Value: "x"}}, 1)
	assert.ErrorContains(t, err, "invalid query")
}
