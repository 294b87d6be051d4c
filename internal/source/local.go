package source

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// LocalReader reads a repository checked out on the local filesystem.
type LocalReader struct {
	dir    string
	filter Filter
}

// NewLocalReader returns a reader rooted at dir.
func NewLocalReader(dir string, filter Filter) (*LocalReader, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return &LocalReader{dir: abs, filter: filter}, nil
}

func (r *LocalReader) Kind() string     { return KindLocal }
func (r *LocalReader) Location() string { return r.dir }

// ListFiles walks root and returns every regular file that passes the
// filter. Dot-directories such as .git are skipped.
func (r *LocalReader) ListFiles(ctx context.Context, root string) (Listing, error) {
	root, err := CleanRoot(root)
	if err != nil {
		return Listing{}, err
	}

	var files []string
	start := filepath.Join(r.dir, filepath.FromSlash(root))
	err = filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != start && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(r.dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if r.filter.Match(rel) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return Listing{}, err
	}

	slices.Sort(files)
	listing := Listing{Files: files}
	listing.Ref, listing.Commit = readGitHead(r.dir)
	return listing, nil
}

// ReadText reads one file. Paths that escape the repository are rejected.
func (r *LocalReader) ReadText(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rel := filepath.FromSlash(path.Clean(strings.ReplaceAll(name, "\\", "/")))
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("path traversal detected: %q", name)
	}
	data, err := os.ReadFile(filepath.Join(r.dir, rel))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// readGitHead returns the checked-out branch and commit of a git work tree,
// or empty strings when dir is not one.
func readGitHead(dir string) (ref, commit string) {
	gitDir := filepath.Join(dir, ".git")
	head, err := os.ReadFile(filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return "", ""
	}
	line := strings.TrimSpace(string(head))
	target, ok := strings.CutPrefix(line, "ref: ")
	if !ok {
		return "", line
	}
	ref = strings.TrimPrefix(target, "refs/heads/")
	if data, err := os.ReadFile(filepath.Join(gitDir, filepath.FromSlash(target))); err == nil {
		return ref, strings.TrimSpace(string(data))
	}
	return ref, packedRef(filepath.Join(gitDir, "packed-refs"), target)
}

func packedRef(file, target string) string {
	f, err := os.Open(file)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		sha, name, ok := strings.Cut(scanner.Text(), " ")
		if ok && name == target {
			return sha
		}
	}
	return ""
}
