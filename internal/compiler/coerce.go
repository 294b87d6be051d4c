package compiler

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/moveng/internal/model"
)

// header wraps one record file's decoded YAML header with typed accessors.
// Accessors never fail on absent fields; required fields go through require.
type header struct {
	path            string
	collection      model.Collection
	values          map[string]any
	body            string
	defaultMovement string
}

// require returns a non-empty string field or a SchemaError.
func (h *header) require(field string) (string, error) {
	if s, ok := stringOf(h.values[field]); ok && strings.TrimSpace(s) != "" {
		return s, nil
	}
	return "", h.missing(field)
}

// requireID returns a cleaned, non-empty id field or a SchemaError.
func (h *header) requireID(field string) (string, error) {
	if id := CleanID(h.values[field]); id != "" {
		return id, nil
	}
	return "", h.missing(field)
}

// movementID returns the header movementId, the default inferred from the
// file location, or a SchemaError when neither is available.
func (h *header) movementID() (string, error) {
	if id := CleanID(h.values["movementId"]); id != "" {
		return id, nil
	}
	if h.defaultMovement != "" {
		return h.defaultMovement, nil
	}
	return "", &model.SchemaError{
		Path:       h.path,
		Collection: h.collection,
		Field:      "movementId",
		Message:    "missing required field and no movement could be inferred from the file location",
	}
}

func (h *header) missing(field string) error {
	return &model.SchemaError{Path: h.path, Collection: h.collection, Field: field}
}

func (h *header) optString(field string) *string {
	s, ok := stringOf(h.values[field])
	if !ok {
		return nil
	}
	return &s
}

func (h *header) optID(field string) *string {
	id := CleanID(h.values[field])
	if id == "" {
		return nil
	}
	return &id
}

func (h *header) ids(field string) []string {
	return CleanIDs(h.values[field])
}

func (h *header) list(field string) []string {
	return stringList(h.values[field])
}

func (h *header) order() *float64 {
	return numberOrNull(h.values["order"])
}

// longText returns the record's long-form text: the header field when it is
// non-empty, otherwise the trimmed body.
func (h *header) longText(field string) string {
	if s, ok := stringOf(h.values[field]); ok {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return strings.TrimSpace(h.body)
}

// stringOf renders a scalar header value as a string. YAML may decode
// unquoted values such as 1984 or true into non-string types.
func stringOf(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case []any, map[string]any:
		return "", false
	default:
		return fmt.Sprint(val), true
	}
}

// CleanID trims an id, strips a leading "[[" and a trailing "]]" (each on its
// own), drops the |alias suffix of a wrapped link and NFC normalises the
// result. Non-scalar and empty
// values yield "".
func CleanID(v any) string {
	s, ok := stringOf(v)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	wrapped := strings.HasPrefix(s, "[[")
	s = strings.TrimPrefix(s, "[[")
	s = strings.TrimSuffix(s, "]]")
	if wrapped {
		if target, _, found := strings.Cut(s, "|"); found {
			s = target
		}
	}
	return norm.NFC.String(strings.TrimSpace(s))
}

// CleanIDs cleans every entry of a list field, dropping entries that clean
// to "". A scalar is treated as a one-element list.
func CleanIDs(v any) []string {
	out := []string{}
	for _, item := range listOf(v) {
		if id := CleanID(item); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func stringList(v any) []string {
	out := []string{}
	for _, item := range listOf(v) {
		if s, ok := stringOf(item); ok {
			out = append(out, s)
		}
	}
	return out
}

func listOf(v any) []any {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		return val
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	default:
		return []any{val}
	}
}

// numberOrNull accepts YAML numbers and numeric strings. Anything else,
// including NaN and infinities, yields nil.
func numberOrNull(v any) *float64 {
	var f float64
	switch val := v.(type) {
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case uint64:
		f = float64(val)
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
