package queryir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/moveng/internal/model"
)

func TestFields(t *testing.T) {
	entities := Fields(model.Entities)
	assert.Equal(t, ShapeText, entities["id"])
	assert.Equal(t, ShapeText, entities["kind"], "nullable strings are text")
	assert.Equal(t, ShapeList, entities["sourceEntityIds"])
	assert.Equal(t, ShapeNumber, entities["order"])

	texts := Fields(model.Texts)
	assert.Equal(t, ShapeText, texts["parentId"])
	assert.Equal(t, ShapeText, texts["label"], "JSON names, not Go names")
	_, hasGoName := texts["DisplayLabel"]
	assert.False(t, hasGoName)

	for _, c := range model.Collections {
		assert.NotEmpty(t, Fields(c), "fields of %s", c.Key())
	}
}

func TestFieldShape(t *testing.T) {
	shape, err := FieldShape(model.Collections, "tags")
	require.NoError(t, err)
	assert.Equal(t, ShapeList, shape)

	shape, err = FieldShape([]model.Collection{model.Movements, model.Entities}, "kind")
	require.NoError(t, err, "collections without the field are skipped")
	assert.Equal(t, ShapeText, shape)

	_, err = FieldShape([]model.Collection{model.Movements}, "kind")
	assert.Error(t, err)
}

func TestSelected(t *testing.T) {
	assert.Equal(t, model.Collections, Query{}.Selected())

	q := Query{Collections: []model.Collection{model.Notes, model.Texts, model.Notes}}
	assert.Equal(t, []model.Collection{model.Texts, model.Notes}, q.Selected())
}

func TestValidate_Valid(t *testing.T) {
	tests := []struct {
		name  string
		query Query
	}{
		{"no filter", Query{}},
		{"equals", Query{Filter: Equals{Field: "kind", Value: "person"}}},
		{"contains", Query{Collections: []model.Collection{model.Practices}, Filter: Contains{Field: "involvedEntityIds", Value: "ent-a"}}},
		{"present text", Query{Filter: Present{Field: "parentId"}}},
		{"present list", Query{Filter: Present{Field: "tags"}}},
		{"empty and", Query{Filter: And{}}},
		{"nested and", Query{Filter: And{Predicates: []Predicate{
			Equals{Field: "movementId", Value: "mov-a"},
			And{Predicates: []Predicate{Contains{Field: "tags", Value: "x"}}},
		}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, Validate(tt.query))
		})
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		query     Query
		wantField string
	}{
		{"unknown field", Query{Filter: Equals{Field: "colour", Value: "red"}}, "colour"},
		{"field outside collection", Query{Collections: []model.Collection{model.Notes}, Filter: Equals{Field: "kind", Value: "x"}}, "kind"},
		{"equals on list", Query{Filter: Equals{Field: "tags", Value: "x"}}, "tags"},
		{"contains on text", Query{Filter: Contains{Field: "name", Value: "x"}}, "name"},
		{"present on number", Query{Filter: Present{Field: "order"}}, "order"},
		{"empty field", Query{Filter: Present{}}, ""},
		{"nested", Query{Filter: And{Predicates: []Predicate{Equals{Field: "id", Value: "a"}, Contains{Field: "id", Value: "a"}}}}, "id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.query)
			require.Error(t, err)
			var verr ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	err := Validate(Query{Filter: And{Predicates: []Predicate{
		Equals{Field: "tags", Value: "x"},
		Contains{Field: "colour", Value: "red"},
	}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tags: equality needs a text field, field is list")
	assert.Contains(t, err.Error(), "colour: no selected collection has this field")
}

func TestValidate_InvalidCollection(t *testing.T) {
	err := Validate(Query{Collections: []model.Collection{model.Collection(42)}})
	assert.ErrorContains(t, err, "unknown collection 42")
}
