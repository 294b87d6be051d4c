package queryir

import "github.com/roach88/moveng/internal/model"

// Query selects archived records.
type Query struct {
	// Collections restricts the result to these collections. Empty means
	// every collection.
	Collections []model.Collection
	// MovementID restricts the result to one movement's records.
	MovementID string
	// Filter is applied to each record (nil = no filter).
	Filter Predicate
}

// Predicate is a filter condition over one record.
type Predicate interface {
	predicateNode()
}

// Equals holds when the text field Field equals Value. A null field never
// matches.
type Equals struct {
	Field string
	Value string
}

func (Equals) predicateNode() {}

// Contains holds when the list field Field has an element equal to Value.
//
//	Contains{Field: "tags", Value: "verse"}
type Contains struct {
	Field string
	Value string
}

func (Contains) predicateNode() {}

// Present holds when Field is set: a non-empty string for text fields, at
// least one element for list fields.
type Present struct {
	Field string
}

func (Present) predicateNode() {}

// And holds when every predicate holds. An empty And always holds.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Selected returns the collections q covers, in snapshot order.
func (q Query) Selected() []model.Collection {
	if len(q.Collections) == 0 {
		return model.Collections
	}
	var out []model.Collection
	for _, c := range model.Collections {
		for _, want := range q.Collections {
			if c == want {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
