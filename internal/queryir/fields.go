package queryir

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/moveng/internal/model"
)

// Shape is how a record field is stored in archived record JSON. Nullable
// strings are text.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeText
	ShapeList
	ShapeNumber
)

func (s Shape) String() string {
	switch s {
	case ShapeText:
		return "text"
	case ShapeList:
		return "list"
	case ShapeNumber:
		return "number"
	}
	return "unknown"
}

// fieldShapes maps each collection's JSON field names to their shape. It is
// derived from the snapshot record types so it cannot drift from them.
var fieldShapes = buildShapes()

func buildShapes() map[model.Collection]map[string]Shape {
	out := make(map[model.Collection]map[string]Shape)
	st := reflect.TypeOf(model.Snapshot{})
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		c, ok := model.ParseCollection(jsonName(f))
		if !ok || f.Type.Kind() != reflect.Slice {
			continue
		}
		rt := f.Type.Elem()
		shapes := make(map[string]Shape, rt.NumField())
		for j := 0; j < rt.NumField(); j++ {
			if name := jsonName(rt.Field(j)); name != "" {
				shapes[name] = shapeOf(rt.Field(j).Type)
			}
		}
		out[c] = shapes
	}
	return out
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func shapeOf(t reflect.Type) Shape {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return ShapeText
	case reflect.Slice:
		return ShapeList
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int64:
		return ShapeNumber
	}
	return ShapeUnknown
}

// Fields returns the field shapes of collection c.
func Fields(c model.Collection) map[string]Shape {
	return fieldShapes[c]
}

// FieldShape returns the shape of field across cs. Collections without the
// field are skipped; it is an error when none has it or when two disagree.
func FieldShape(cs []model.Collection, field string) (Shape, error) {
	shape := ShapeUnknown
	var first model.Collection
	for _, c := range cs {
		s, ok := fieldShapes[c][field]
		if !ok {
			continue
		}
		if shape == ShapeUnknown {
			shape, first = s, c
			continue
		}
		if s != shape {
			return ShapeUnknown, fmt.Errorf("%s in %s but %s in %s", shape, first.Key(), s, c.Key())
		}
	}
	if shape == ShapeUnknown {
		return ShapeUnknown, fmt.Errorf("no selected collection has this field")
	}
	return shape, nil
}
