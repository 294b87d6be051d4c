package queryir

import (
	"errors"
	"fmt"
)

// ValidationError is one problem found in a query.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks q against the record fields of the collections it
// selects. It returns every problem found, joined, or nil.
//
// Validate is a pure function with no side effects.
func Validate(q Query) error {
	v := &validator{}
	for _, c := range q.Collections {
		if !c.Valid() {
			v.add("", "unknown collection %d", int(c))
		}
	}
	if len(v.errs) == 0 {
		v.validatePredicate(q, q.Filter)
	}
	return errors.Join(v.errs...)
}

type validator struct {
	errs []error
}

func (v *validator) add(field, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) validatePredicate(q Query, p Predicate) {
	switch pred := p.(type) {
	case nil:
	case Equals:
		v.expect(q, pred.Field, ShapeText, "equality needs a text field")
	case Contains:
		v.expect(q, pred.Field, ShapeList, "contains needs a list field")
	case Present:
		shape := v.shape(q, pred.Field)
		if shape == ShapeNumber {
			v.add(pred.Field, "presence is only defined for text and list fields")
		}
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(q, sub)
		}
	default:
		v.add("", "unsupported predicate type %T", p)
	}
}

func (v *validator) shape(q Query, field string) Shape {
	if field == "" {
		v.add("", "predicate has no field")
		return ShapeUnknown
	}
	shape, err := FieldShape(q.Selected(), field)
	if err != nil {
		v.add(field, "%s", err.Error())
	}
	return shape
}

func (v *validator) expect(q Query, field string, want Shape, message string) {
	shape := v.shape(q, field)
	if shape != ShapeUnknown && shape != want {
		v.add(field, "%s, field is %s", message, shape)
	}
}
