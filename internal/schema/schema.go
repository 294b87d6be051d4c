// Package schema checks the shape of externally supplied snapshot JSON
// against an embedded CUE definition before it is decoded.
package schema

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/moveng/internal/model"
)

//go:embed snapshot.cue
var snapshotSchema string

// Issue is one shape violation.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Check verifies that data is a JSON object whose collection arrays hold
// records of the right shape. It returns a *model.ImportError listing every
// violation found.
func Check(data []byte) error {
	issues, err := Issues(data)
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		return nil
	}
	lines := make([]string, len(issues))
	for i, issue := range issues {
		lines[i] = issue.String()
	}
	return &model.ImportError{
		Message: fmt.Sprintf("snapshot does not match the expected shape (%d issue(s))", len(issues)),
		Err:     fmt.Errorf("%s", strings.Join(lines, "; ")),
	}
}

// Issues returns every shape violation in data. The error is non-nil only
// when data is not parseable at all.
func Issues(data []byte) ([]Issue, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(snapshotSchema, cue.Filename("snapshot.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile snapshot schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Snapshot"))

	value := ctx.CompileBytes(data, cue.Filename("snapshot.json"))
	if err := value.Err(); err != nil {
		return nil, &model.ImportError{Message: "snapshot is not valid JSON", Err: err}
	}
	if value.IncompleteKind() != cue.StructKind {
		return []Issue{{Message: "snapshot must be a JSON object"}}, nil
	}

	err := def.Unify(value).Validate(cue.Concrete(true))
	if err == nil {
		return nil, nil
	}
	var issues []Issue
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		path := e.Path()
		if len(path) > 0 && path[0] == "#Snapshot" {
			path = path[1:]
		}
		issues = append(issues, Issue{
			Path:    strings.Join(path, "."),
			Message: fmt.Sprintf(format, args...),
		})
	}
	return issues, nil
}
