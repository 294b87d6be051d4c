package compiler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/roach88/moveng/internal/frontmatter"
	"github.com/roach88/moveng/internal/model"
)

// layout lists, per collection, the header fields written in order and the
// field carried by the markdown body.
type layout struct {
	fields []string
	body   string
}

var layouts = map[model.Collection]layout{
	model.Movements: {
		fields: []string{"id", "movementId", "name", "shortName", "tags", "status", "order"},
		body:   "summary",
	},
	model.TextCollections: {
		fields: []string{"id", "movementId", "name", "rootTextIds", "tags", "order"},
		body:   "description",
	},
	model.Texts: {
		fields: []string{"id", "movementId", "title", "label", "parentId", "mainFunction", "tags", "mentionsEntityIds", "order"},
		body:   "content",
	},
	model.Entities: {
		fields: []string{"id", "movementId", "name", "kind", "tags", "sourceEntityIds", "sourcesOfTruth", "order"},
		body:   "summary",
	},
	model.Practices: {
		fields: []string{"id", "movementId", "name", "kind", "frequency", "tags", "involvedEntityIds",
			"instructionsTextIds", "supportingClaimIds", "sourceEntityIds", "sourcesOfTruth", "order"},
		body: "description",
	},
	model.Events: {
		fields: []string{"id", "movementId", "name", "recurrence", "timingRule", "tags", "mainPracticeIds",
			"mainEntityIds", "readingTextIds", "supportingClaimIds", "order"},
		body: "description",
	},
	model.Rules: {
		fields: []string{"id", "movementId", "shortText", "kind", "appliesTo", "domain", "tags", "supportingTextIds",
			"supportingClaimIds", "relatedPracticeIds", "sourceEntityIds", "sourcesOfTruth", "order"},
		body: "details",
	},
	model.Claims: {
		fields: []string{"id", "movementId", "category", "tags", "aboutEntityIds", "sourceTextIds",
			"sourceEntityIds", "sourcesOfTruth", "order"},
		body: "text",
	},
	model.Media: {
		fields: []string{"id", "movementId", "kind", "uri", "title", "tags", "linkedEntityIds",
			"linkedPracticeIds", "linkedEventIds", "linkedTextIds", "order"},
		body: "description",
	},
	model.Notes: {
		fields: []string{"id", "movementId", "targetType", "targetId", "author", "context", "tags", "order"},
		body:   "body",
	},
}

// Render writes r back out as a record file. Compiling the result yields
// a record equal to r.
func Render(r model.Record) ([]byte, error) {
	l, ok := layouts[r.Collection()]
	if !ok {
		return nil, fmt.Errorf("render: no layout for collection %s", r.Collection())
	}

	values, err := recordValues(r)
	if err != nil {
		return nil, fmt.Errorf("render %s/%s: %w", r.Collection(), r.RecordID(), err)
	}

	fields := make([]frontmatter.Field, 0, len(l.fields))
	for _, name := range l.fields {
		fields = append(fields, frontmatter.Field{Key: name, Value: values[name]})
	}

	var body string
	if s, ok := values[l.body].(string); ok {
		body = s
	}
	return frontmatter.Write(fields, body)
}

// recordValues flattens a record into its JSON field map.
func recordValues(r model.Record) (map[string]any, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	var values map[string]any
	if err := dec.Decode(&values); err != nil {
		return nil, err
	}
	return values, nil
}

// ErrUnsafePath is returned by RecordPath when a record's id or movement id
// cannot be used as a single file name.
var ErrUnsafePath = errors.New("record id is not a safe path segment")

// RecordPath returns the repository-relative path a record is written to:
// movements/<movementId>/movement.md for movements and
// movements/<movementId>/<collection>/<id>.md for everything else. Ids that
// are empty, contain a path separator, or are "." or ".." are rejected, so
// the result always stays inside the repository.
func RecordPath(r model.Record) (string, error) {
	segments := []string{r.Scope()}
	if r.Collection() != model.Movements {
		segments = append(segments, r.RecordID()+".md")
	}
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." || strings.ContainsAny(seg, `/\`) {
			return "", fmt.Errorf("%w: %s/%s %q", ErrUnsafePath, r.Collection().Key(), r.RecordID(), seg)
		}
	}

	var rel string
	if r.Collection() == model.Movements {
		rel = path.Join("movements", r.Scope(), "movement.md")
	} else {
		rel = path.Join("movements", r.Scope(), r.Collection().Key(), r.RecordID()+".md")
	}
	if !filepath.IsLocal(filepath.FromSlash(rel)) {
		return "", fmt.Errorf("%w: %s/%s", ErrUnsafePath, r.Collection().Key(), r.RecordID())
	}
	return rel, nil
}
