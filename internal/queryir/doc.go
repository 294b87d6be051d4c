// Package queryir describes record queries over an archived snapshot.
//
// A Query selects records by collection and movement and filters them with
// predicates over the records' own fields:
//
//	Query{
//	  Collections: []model.Collection{model.Practices},
//	  MovementID:  "mov-lantern",
//	  Filter: And{Predicates: []Predicate{
//	    Equals{Field: "kind", Value: "ritual"},
//	    Contains{Field: "involvedEntityIds", Value: "ent-council"},
//	  }},
//	}
//
// Query and Predicate are sealed: only this package implements them, so
// backends can switch over them exhaustively. Field names are the JSON
// names of the snapshot record types. Validate checks every field against
// the selected collections before a backend compiles the query.
//
// Predicates:
//   - Equals: a text field equals a value
//   - Contains: a list field contains a value
//   - Present: a field is set (non-empty text or non-empty list)
//   - And: all predicates hold (empty = always true)
//
// There is no OR and no negation.
package queryir
