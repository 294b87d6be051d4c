package source

import (
	"context"
	"io/fs"
	"path"
	"slices"
)

// MemReader serves files from a map keyed by repository-relative path.
type MemReader struct {
	Files  map[string]string
	Ref    string
	Commit string
}

// NewMemReader returns a reader over files.
func NewMemReader(files map[string]string) *MemReader {
	return &MemReader{Files: files}
}

func (r *MemReader) Kind() string     { return KindMemory }
func (r *MemReader) Location() string { return "memory" }

func (r *MemReader) ListFiles(ctx context.Context, root string) (Listing, error) {
	if err := ctx.Err(); err != nil {
		return Listing{}, err
	}
	root, err := CleanRoot(root)
	if err != nil {
		return Listing{}, err
	}
	var files []string
	for name := range r.Files {
		if underRoot(name, root) {
			files = append(files, name)
		}
	}
	slices.Sort(files)
	return Listing{Files: files, Ref: r.Ref, Commit: r.Commit}, nil
}

func (r *MemReader) ReadText(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, ok := r.Files[path.Clean(name)]
	if !ok {
		return "", &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return text, nil
}
