package source

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"slices"
	"strings"
	"time"
)

// DefaultArchiveLimit caps the size of a downloaded archive.
const DefaultArchiveLimit = 256 << 20

// ArchiveOptions configures OpenArchive.
type ArchiveOptions struct {
	Client   *http.Client // nil uses a client with a 60s timeout
	Filter   Filter
	Ref      string // recorded in listings, e.g. the branch the archive was cut from
	Commit   string
	MaxBytes int64 // 0 uses DefaultArchiveLimit
}

// ArchiveReader serves a zip archive of a repository held in memory. When
// every entry shares one top-level directory (as in forge-generated
// archives such as repo-main/...) that directory is stripped.
type ArchiveReader struct {
	location string
	files    map[string]*zip.File
	names    []string
	ref      string
	commit   string
}

// OpenArchive loads a zip archive from a local path or an http(s) URL.
func OpenArchive(ctx context.Context, location string, opts ArchiveOptions) (*ArchiveReader, error) {
	if err := opts.Filter.Validate(); err != nil {
		return nil, err
	}
	limit := opts.MaxBytes
	if limit <= 0 {
		limit = DefaultArchiveLimit
	}

	var data []byte
	var err error
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		client := opts.Client
		if client == nil {
			client = &http.Client{Timeout: 60 * time.Second}
		}
		data, err = fetchArchive(ctx, client, location, limit)
	} else {
		data, err = os.ReadFile(location)
	}
	if err != nil {
		return nil, err
	}

	r, err := NewArchiveReader(data, opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", location, err)
	}
	r.location = location
	r.ref = opts.Ref
	r.commit = opts.Commit
	return r, nil
}

// NewArchiveReader indexes an in-memory zip archive.
func NewArchiveReader(data []byte, filter Filter) (*ArchiveReader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	var entries []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entries = append(entries, f)
	}
	prefix := commonTopDir(entries)

	r := &ArchiveReader{files: make(map[string]*zip.File, len(entries))}
	for _, f := range entries {
		name := strings.TrimPrefix(f.Name, prefix)
		clean := path.Clean(name)
		if name == "" || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
			continue
		}
		if !filter.Match(clean) {
			continue
		}
		r.files[clean] = f
		r.names = append(r.names, clean)
	}
	slices.Sort(r.names)
	return r, nil
}

func (r *ArchiveReader) Kind() string     { return KindArchive }
func (r *ArchiveReader) Location() string { return r.location }

func (r *ArchiveReader) ListFiles(ctx context.Context, root string) (Listing, error) {
	if err := ctx.Err(); err != nil {
		return Listing{}, err
	}
	root, err := CleanRoot(root)
	if err != nil {
		return Listing{}, err
	}
	var files []string
	for _, name := range r.names {
		if underRoot(name, root) {
			files = append(files, name)
		}
	}
	return Listing{Files: files, Ref: r.ref, Commit: r.commit}, nil
}

func (r *ArchiveReader) ReadText(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, ok := r.files[path.Clean(name)]
	if !ok {
		return "", &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func fetchArchive(ctx context.Context, client *http.Client, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch archive: HTTP %d from %s", resp.StatusCode, url)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("archive exceeds %d bytes", limit)
	}
	return data, nil
}

// commonTopDir returns "dir/" when every entry lives below the same
// top-level directory, "" otherwise. The layout roots data/ and movements/
// are never stripped, nor is any directory when the entries already hold
// detectable records.
func commonTopDir(entries []*zip.File) string {
	var top string
	for _, f := range entries {
		if _, ok := DetectCollection(path.Clean(f.Name)); ok {
			return ""
		}
		first, _, ok := strings.Cut(f.Name, "/")
		if !ok {
			return ""
		}
		if top == "" {
			top = first
		} else if first != top {
			return ""
		}
	}
	if top == "" || top == "data" || top == "movements" {
		return ""
	}
	return top + "/"
}
