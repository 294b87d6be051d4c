package model

import (
	"errors"
	"fmt"
)

// Dataset error codes (E200-E299).
const (
	ErrCodeParse       = "E201" // malformed header or body
	ErrCodeSchema      = "E202" // missing or invalid required field
	ErrCodeReference   = "E203" // dangling or cross-scope reference
	ErrCodeDuplicateID = "E204" // id reused within a collection
	ErrCodeSource      = "E205" // reader failure
	ErrCodeNoRecords   = "E206" // no record files under the source root
	ErrCodeImport      = "E207" // external snapshot has the wrong shape
)

// Coded is implemented by every dataset error.
type Coded interface {
	error
	Code() string
}

// ErrorCode returns the dataset error code carried by err, or "" if none.
func ErrorCode(err error) string {
	var coded Coded
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}

// ParseError reports a record file whose header block cannot be split or decoded.
type ParseError struct {
	Path    string
	Line    int // 1-based line within the file, 0 when unknown
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	loc := e.Path
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", ErrCodeParse, loc, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", ErrCodeParse, loc, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }
func (e *ParseError) Code() string  { return ErrCodeParse }

// SchemaError reports a missing or invalid field while compiling a record.
type SchemaError struct {
	Path       string
	Collection Collection
	Field      string
	Message    string
}

func (e *SchemaError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "missing required field"
	}
	return fmt.Sprintf("%s: %s: %s %q: %s", ErrCodeSchema, e.Path, e.Collection.Kind(), e.Field, msg)
}

func (e *SchemaError) Code() string { return ErrCodeSchema }

// Reasons a reference fails validation.
const (
	ReasonMissing         = "missing"          // target id does not exist
	ReasonMissingMovement = "missing_movement" // movementId names no declared movement
	ReasonCrossMovement   = "cross_movement"   // target belongs to another movement
	ReasonForeignMovement = "foreign_movement" // movement note targets another movement
	ReasonTargetType      = "target_type"      // note targetType is not recognised
	ReasonMovementID      = "movement_id"      // movement whose movementId differs from id
	ReasonEmptyID         = "empty_id"         // record without an id
)

// ReferenceError reports a structural or referential violation.
type ReferenceError struct {
	Collection Collection
	RecordID   string
	Field      string
	Value      string
	Path       string // originating file, "" when unknown
	Reason     string
}

func (e *ReferenceError) Error() string {
	var msg string
	ref := fmt.Sprintf("%s/%s", e.Collection.Key(), e.RecordID)
	switch e.Reason {
	case ReasonMissingMovement:
		msg = fmt.Sprintf("%s references unknown movementId %s (missing movement)", ref, e.Value)
	case ReasonCrossMovement:
		msg = fmt.Sprintf("Invalid reference: %s %s -> %s belongs to a different movement", ref, e.Field, e.Value)
	case ReasonForeignMovement:
		msg = fmt.Sprintf("Invalid reference: %s %s -> %s must target its own movement", ref, e.Field, e.Value)
	case ReasonTargetType:
		msg = fmt.Sprintf("Invalid reference: %s %s %q is not a recognised target type", ref, e.Field, e.Value)
	case ReasonMovementID:
		msg = fmt.Sprintf("Movement %s must set movementId equal to id (got %s)", e.RecordID, e.Value)
	case ReasonEmptyID:
		msg = fmt.Sprintf("%s record has an empty %s", e.Collection.Key(), e.Field)
	default:
		msg = fmt.Sprintf("Missing reference: %s %s -> %s", ref, e.Field, e.Value)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" (source: %s)", e.Path)
	}
	return fmt.Sprintf("%s: %s", ErrCodeReference, msg)
}

func (e *ReferenceError) Code() string { return ErrCodeReference }

// DuplicateIDError reports an id that appears twice within one collection.
type DuplicateIDError struct {
	Collection Collection
	ID         string
	FirstPath  string
	SecondPath string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%s: duplicate id detected in %s: %s (sources: %s, %s)",
		ErrCodeDuplicateID, e.Collection.Key(), e.ID, orUnknown(e.FirstPath), orUnknown(e.SecondPath))
}

func (e *DuplicateIDError) Code() string { return ErrCodeDuplicateID }

// SourceError wraps a reader failure. The underlying error is kept intact
// and is reachable through errors.Is and errors.As.
type SourceError struct {
	Op   string // "open", "list" or "read"
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrCodeSource, e.Op, e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
func (e *SourceError) Code() string  { return ErrCodeSource }

// ErrNoRecords is returned when a source holds no recognised record files.
var ErrNoRecords = &noRecordsError{}

type noRecordsError struct{}

func (*noRecordsError) Error() string {
	return ErrCodeNoRecords + ": no markdown records were found under the expected data/ or movements/ folders"
}

func (*noRecordsError) Code() string { return ErrCodeNoRecords }

// ImportError reports an externally supplied snapshot with the wrong shape.
type ImportError struct {
	Message string
	Err     error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrCodeImport, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrCodeImport, e.Message)
}

func (e *ImportError) Unwrap() error { return e.Err }
func (e *ImportError) Code() string  { return ErrCodeImport }

// IsParseError reports whether err is or wraps a ParseError.
func IsParseError(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

// IsSchemaError reports whether err is or wraps a SchemaError.
func IsSchemaError(err error) bool {
	var target *SchemaError
	return errors.As(err, &target)
}

// IsReferenceError reports whether err is or wraps a ReferenceError.
func IsReferenceError(err error) bool {
	var target *ReferenceError
	return errors.As(err, &target)
}

// IsDuplicateIDError reports whether err is or wraps a DuplicateIDError.
func IsDuplicateIDError(err error) bool {
	var target *DuplicateIDError
	return errors.As(err, &target)
}

// IsSourceError reports whether err is or wraps a SourceError.
func IsSourceError(err error) bool {
	var target *SourceError
	return errors.As(err, &target)
}

func orUnknown(path string) string {
	if path == "" {
		return "<unknown>"
	}
	return path
}
