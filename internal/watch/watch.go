// Package watch recompiles a local repository when its record files change.
//
// A Watcher collects filesystem events for .md files below a directory and,
// once no event has arrived for the debounce period, hands the batch of
// changed repository paths to a Rebuild callback. Rebuilds run one at a time
// on the goroutine that called Run.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/roach88/moveng/internal/source"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 300 * time.Millisecond

// Rebuild is called with the sorted, slash-separated repository paths that
// changed since the previous call. An error is logged and watching continues.
type Rebuild func(ctx context.Context, changed []string) error

// Watcher watches a repository directory tree.
type Watcher struct {
	dir      string
	debounce time.Duration
	filter   source.Filter
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a rebuild.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithFilter limits which record files trigger a rebuild.
func WithFilter(f source.Filter) Option {
	return func(w *Watcher) { w.filter = f }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New starts watching every non-hidden directory below dir. Events are
// buffered by fsnotify until Run is called.
func New(dir string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		dir:      abs,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		fsw:      fsw,
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.addRecursive(abs); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops watching. Run returns once its event channels are closed.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		w.logger.Debug("watching directory", "path", path)
		return nil
	})
}

// Run processes events until the watcher is closed (returning nil) or ctx
// is cancelled (returning ctx.Err()).
func (w *Watcher) Run(ctx context.Context, rebuild Rebuild) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	pending := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if changed := w.relevant(event); len(changed) > 0 {
				for _, rel := range changed {
					pending[rel] = true
				}
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := slices.Sorted(maps.Keys(pending))
			clear(pending)
			w.logger.Info("rebuilding", "changed", len(changed))
			if err := rebuild(ctx, changed); err != nil {
				w.logger.Error("rebuild failed", "error", err)
			}
		}
	}
}

// relevant returns the repository paths of record files touched by event.
// A new directory is watched and its existing record files are reported.
func (w *Watcher) relevant(event fsnotify.Event) []string {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") {
				return nil
			}
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
			return w.recordFilesIn(event.Name)
		}
	}
	rel, ok := w.recordPath(event.Name)
	if !ok {
		return nil
	}
	w.logger.Debug("record file changed", "path", rel, "op", event.Op.String())
	return []string{rel}
}

// recordPath maps an absolute path to its repository path when it names a
// visible, unfiltered .md file.
func (w *Watcher) recordPath(path string) (string, bool) {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if part == ".." || strings.HasPrefix(part, ".") {
			return "", false
		}
	}
	if !strings.EqualFold(filepath.Ext(rel), ".md") || !w.filter.Match(rel) {
		return "", false
	}
	return rel, true
}

func (w *Watcher) recordFilesIn(dir string) []string {
	var out []string
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if rel, ok := w.recordPath(path); ok {
			out = append(out, rel)
		}
		return nil
	})
	return out
}
