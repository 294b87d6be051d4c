package cli

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/moveng/internal/config"
	"github.com/roach88/moveng/internal/dataset"
	"github.com/roach88/moveng/internal/graph"
	"github.com/roach88/moveng/internal/model"
	"github.com/roach88/moveng/internal/source"
)

// env is what every dataset command starts from: the effective config, a
// logger and the formatter for the command's output.
type env struct {
	opts   *RootOptions
	cfg    *config.Config
	logger *slog.Logger
	out    *OutputFormatter
}

// newEnv loads the layered config and applies --repo. A config failure is
// reported through the formatter and returned as a command error.
func newEnv(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	e := &env{opts: opts, logger: opts.logger(cmd), out: opts.formatter(cmd)}

	cfg, err := config.NewLoader(e.logger).Load(opts.ConfigPath)
	if err != nil {
		_ = e.out.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, ErrCodeConfig, err)
	}
	if opts.Repo != "" {
		applyRepo(cfg, opts.Repo)
	}
	e.cfg = cfg
	return e, nil
}

// applyRepo points the source config at location, choosing the reader kind
// from its shape.
func applyRepo(cfg *config.Config, location string) {
	switch {
	case isURL(location):
		cfg.Source.Kind = source.KindArchive
		cfg.Source.URL = location
		cfg.Source.Path = ""
	case strings.HasSuffix(strings.ToLower(location), ".zip"):
		cfg.Source.Kind = source.KindArchive
		cfg.Source.URL = ""
		cfg.Source.Path = location
	default:
		cfg.Source.Kind = source.KindLocal
		cfg.Source.Path = location
	}
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// reader opens the configured repository. Failures are source errors.
func (e *env) reader(ctx context.Context) (source.Reader, error) {
	sc := e.cfg.Source
	if sc.Kind == source.KindLocal {
		r, err := source.NewLocalReader(sc.Path, e.cfg.Filter())
		if err != nil {
			return nil, &model.SourceError{Op: "open", Path: sc.Path, Err: err}
		}
		return r, nil
	}

	location := sc.URL
	if location == "" {
		location = sc.Path
	}
	r, err := source.OpenArchive(ctx, location, source.ArchiveOptions{
		Client:   &http.Client{Timeout: sc.Timeout},
		Filter:   e.cfg.Filter(),
		MaxBytes: sc.MaxBytes,
	})
	if err != nil {
		return nil, &model.SourceError{Op: "open", Path: location, Err: err}
	}
	return r, nil
}

// assemble compiles the configured repository into a dataset.
func (e *env) assemble(ctx context.Context) (*dataset.Dataset, error) {
	r, err := e.reader(ctx)
	if err != nil {
		return nil, err
	}
	e.out.VerboseLog("Reading %s repository at %s", r.Kind(), r.Location())
	return dataset.New(dataset.WithLogger(e.logger)).
		Assemble(ctx, dataset.Source{Reader: r, Root: e.cfg.Source.Root})
}

// buildGraph derives the graph of ds, scoped to movementID when set.
func (e *env) buildGraph(ds *dataset.Dataset, movementID string) (*graph.Graph, error) {
	g, err := graph.Build(ds.Snapshot, graph.Options{MovementID: movementID, Strict: e.cfg.Graph.Strict})
	if err != nil {
		return nil, err
	}
	if g.Dropped > 0 {
		e.logger.Warn("dropped dangling edges", "count", g.Dropped)
	}
	return g, nil
}

// fingerprint returns the snapshot fingerprint stamped by the assembler.
func fingerprint(s *model.Snapshot) string {
	if s.Meta == nil {
		return ""
	}
	return s.Meta.Fingerprint
}
