// Package dataset assembles record files from one or more repository
// sources into a single validated snapshot.
//
// Assembly runs in fixed stages: list and read every record file, parse
// headers, compile records (movement files first so that files under a
// movements/<slug>/ subtree can inherit their movement id), reject duplicate
// ids, sort, validate once over the whole snapshot and stamp metadata. Any
// failure aborts the whole pass; nothing is retried.
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/moveng/internal/compiler"
	"github.com/roach88/moveng/internal/frontmatter"
	"github.com/roach88/moveng/internal/model"
	"github.com/roach88/moveng/internal/source"
	"github.com/roach88/moveng/internal/validate"
)

// Source is one repository reader and the root directory to read below.
type Source struct {
	Reader source.Reader
	Root   string
}

// Dataset is the result of a successful assembly.
type Dataset struct {
	Snapshot  *model.Snapshot
	FileIndex model.FileIndex
	Warnings  []validate.Warning
}

// Assembler compiles sources into datasets.
type Assembler struct {
	clock  func() time.Time
	logger *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithClock sets the time source used for snapshot metadata.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		a.clock = now
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// New returns an Assembler.
func New(opts ...Option) *Assembler {
	a := &Assembler{clock: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// recordFile is one parsed record file awaiting compilation.
type recordFile struct {
	source     int
	collection model.Collection
	doc        *frontmatter.Document
}

// Assemble reads, compiles and validates every record file in sources.
func (a *Assembler) Assemble(ctx context.Context, sources ...Source) (*Dataset, error) {
	files, listings, err := a.read(ctx, sources)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, model.ErrNoRecords
	}

	s := &model.Snapshot{}
	index := model.FileIndex{}
	add := func(r model.Record, path string) error {
		if first := index.Path(r.Collection(), r.RecordID()); first != "" {
			return &model.DuplicateIDError{
				Collection: r.Collection(),
				ID:         r.RecordID(),
				FirstPath:  first,
				SecondPath: path,
			}
		}
		index.Set(r.Collection(), r.RecordID(), path)
		return s.Add(r)
	}

	// Movements first: their ids become the default movementId of every
	// other file in the same movements/<slug>/ subtree.
	subtrees := make(map[string]string)
	for _, f := range files {
		if f.collection != model.Movements {
			continue
		}
		rec, err := compiler.Compile(compiler.Input{Collection: model.Movements, Doc: f.doc})
		if err != nil {
			return nil, err
		}
		if err := add(rec, f.doc.Path); err != nil {
			return nil, err
		}
		if base, _, ok := source.MovementBase(f.doc.Path); ok {
			subtrees[subtreeKey(f.source, base)] = rec.RecordID()
		}
	}

	for _, f := range files {
		if f.collection == model.Movements {
			continue
		}
		in := compiler.Input{Collection: f.collection, Doc: f.doc}
		if base, slug, ok := source.MovementBase(f.doc.Path); ok {
			in.DefaultMovementID = slug
			if id, known := subtrees[subtreeKey(f.source, base)]; known {
				in.DefaultMovementID = id
			}
		}
		rec, err := compiler.Compile(in)
		if err != nil {
			return nil, err
		}
		if err := add(rec, f.doc.Path); err != nil {
			return nil, err
		}
	}

	s.Sort()
	validated, warnings, err := validate.Snapshot(s, index)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		a.logger.Warn("dataset warning", "code", w.Code, "record", w.RecordID, "message", w.Message)
	}

	fingerprint, err := model.Fingerprint(validated)
	if err != nil {
		return nil, fmt.Errorf("fingerprint snapshot: %w", err)
	}
	validated.Meta = &model.Meta{
		SpecVersion: model.SpecVersion,
		GeneratedAt: a.clock().UTC().Format(time.RFC3339),
		Source:      sourceInfo(sources, listings),
		Fingerprint: fingerprint,
	}

	a.logger.Info("dataset assembled",
		"records", validated.Len(),
		"movements", len(validated.Movements),
		"files", len(files),
		"fingerprint", fingerprint)

	return &Dataset{Snapshot: validated, FileIndex: index, Warnings: warnings}, nil
}

// read lists every source and parses the files that hold records.
func (a *Assembler) read(ctx context.Context, sources []Source) ([]recordFile, []source.Listing, error) {
	var files []recordFile
	listings := make([]source.Listing, len(sources))
	for i, src := range sources {
		listing, err := src.Reader.ListFiles(ctx, src.Root)
		if err != nil {
			return nil, nil, &model.SourceError{Op: "list", Path: listingPath(src), Err: err}
		}
		listings[i] = listing

		for _, name := range listing.Files {
			c, ok := source.DetectCollection(name)
			if !ok {
				continue
			}
			text, err := src.Reader.ReadText(ctx, name)
			if err != nil {
				return nil, nil, &model.SourceError{Op: "read", Path: name, Err: err}
			}
			doc, err := frontmatter.Parse(name, text)
			if err != nil {
				return nil, nil, err
			}
			files = append(files, recordFile{source: i, collection: c, doc: doc})
		}
		a.logger.Debug("source read", "kind", src.Reader.Kind(), "location", src.Reader.Location(),
			"root", src.Root, "files", len(listing.Files))
	}
	return files, listings, nil
}

func subtreeKey(source int, base string) string {
	return fmt.Sprintf("%d:%s", source, base)
}

func listingPath(src Source) string {
	if src.Root == "" {
		return src.Reader.Location()
	}
	return src.Reader.Location() + ":" + src.Root
}

// sourceInfo describes where the snapshot came from. Several sources are
// recorded as one entry listing every location.
func sourceInfo(sources []Source, listings []source.Listing) *model.SourceInfo {
	if len(sources) == 1 {
		return &model.SourceInfo{
			Kind:   sources[0].Reader.Kind(),
			Root:   listingPath(sources[0]),
			Ref:    listings[0].Ref,
			Commit: listings[0].Commit,
		}
	}
	roots := make([]string, len(sources))
	for i, src := range sources {
		roots[i] = listingPath(src)
	}
	return &model.SourceInfo{Kind: "multiple", Root: strings.Join(roots, ", ")}
}
