// Package source provides the repository readers the dataset assembler
// consumes: a local filesystem tree, a zip archive (from disk or over HTTP)
// and an in-memory map used in tests.
//
// Readers deal in slash-separated paths relative to the repository root.
// ListFiles returns every file below a root directory; ReadText returns the
// raw text of one file. Readers never interpret file contents.
package source

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/moveng/internal/model"
)

// Reader kinds recorded in snapshot provenance.
const (
	KindLocal   = "local"
	KindArchive = "archive"
	KindMemory  = "memory"
)

// Listing is the result of ListFiles.
type Listing struct {
	// Files are repository-relative, slash-separated and sorted.
	Files  []string
	Ref    string // branch or tag, "" when unknown
	Commit string // commit sha, "" when unknown
}

// Reader is the read-only capability the assembler needs from a repository.
type Reader interface {
	// Kind names the reader for provenance ("local", "archive", "memory").
	Kind() string
	// Location is the directory, archive path or URL the reader serves.
	Location() string
	// ListFiles lists every file at or below root ("" or "." for the whole
	// repository). Paths in the listing include the root prefix.
	ListFiles(ctx context.Context, root string) (Listing, error)
	// ReadText returns the content of one file as listed by ListFiles.
	ReadText(ctx context.Context, path string) (string, error)
}

// Filter restricts listings with doublestar include and exclude patterns.
// An empty include list admits every file; exclude always wins.
type Filter struct {
	Include []string
	Exclude []string
}

// Validate reports the first malformed pattern.
func (f Filter) Validate() error {
	for _, p := range append(append([]string{}, f.Include...), f.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return nil
}

// Match reports whether the repository-relative path passes the filter.
func (f Filter) Match(name string) bool {
	for _, p := range f.Exclude {
		if ok, _ := doublestar.Match(p, name); ok {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, p := range f.Include {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// CleanRoot normalises a listing root. It returns "" for the repository root
// and an error when root escapes the repository.
func CleanRoot(root string) (string, error) {
	root = strings.TrimSpace(strings.ReplaceAll(root, "\\", "/"))
	if root == "" {
		return "", nil
	}
	cleaned := path.Clean(root)
	if cleaned == "." {
		return "", nil
	}
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("path traversal detected: %q", root)
	}
	return cleaned, nil
}

// underRoot reports whether name lies at or below root.
func underRoot(name, root string) bool {
	return root == "" || name == root || strings.HasPrefix(name, root+"/")
}

// DetectCollection maps a repository-relative path to the collection its
// record belongs to. Only .md files are records. Recognised layouts:
//
//	data/<collection>/<file>.md
//	movements/<slug>/movement.md
//	movements/<slug>/<collection>/<file>.md
func DetectCollection(name string) (model.Collection, bool) {
	parts := splitPath(name)
	if len(parts) < 3 {
		return 0, false
	}
	file := parts[len(parts)-1]
	if !strings.EqualFold(path.Ext(file), ".md") {
		return 0, false
	}
	switch parts[0] {
	case "data":
		return model.ParseCollection(parts[1])
	case "movements":
		if file == "movement.md" {
			return model.Movements, true
		}
		return model.ParseCollection(parts[2])
	}
	return 0, false
}

// MovementBase returns the movements/<slug> subtree a path belongs to and
// the slug, or ok=false for paths outside a movement subtree.
func MovementBase(name string) (base, slug string, ok bool) {
	parts := splitPath(name)
	if len(parts) < 3 || parts[0] != "movements" {
		return "", "", false
	}
	return parts[0] + "/" + parts[1], parts[1], true
}

func splitPath(name string) []string {
	var parts []string
	for _, p := range strings.Split(strings.ReplaceAll(name, "\\", "/"), "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
