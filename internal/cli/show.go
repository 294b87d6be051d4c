package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/moveng/internal/compiler"
	"github.com/roach88/moveng/internal/dataset"
	"github.com/roach88/moveng/internal/graph"
	"github.com/roach88/moveng/internal/model"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Collection string
}

// ShowResult is the JSON payload of the show command.
type ShowResult struct {
	Collection  model.Collection   `json:"collection"`
	Path        string             `json:"path"`
	Record      model.Record       `json:"record"`
	Connections []graph.Connection `json:"connections"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <record-id>",
		Short: "Print one record in source form with its connections",
		Long: `Print a record as a record file (header and body) followed by every
edge that touches it. Use --collection when the id exists in more than
one collection.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Collection, "collection", "", "collection key, e.g. entities")

	return cmd
}

func runShow(opts *ShowOptions, id string, cmd *cobra.Command) error {
	e, err := newEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	var only *model.Collection
	if opts.Collection != "" {
		c, ok := model.ParseCollection(opts.Collection)
		if !ok {
			_ = e.out.Error(ErrCodeGeneric, fmt.Sprintf("unknown collection %q", opts.Collection), nil)
			return NewExitError(ExitCommandError, "unknown collection "+opts.Collection)
		}
		only = &c
	}

	ds, err := e.assemble(cmd.Context())
	if err != nil {
		return outputCompileFailure(e.out, err)
	}

	r, err := findRecord(ds.Snapshot, id, only)
	if err != nil {
		return e.out.Fail(err)
	}

	conns, err := connections(e, ds, id)
	if err != nil {
		return e.out.Fail(err)
	}

	if e.out.Format == "json" {
		return e.out.SuccessFor(fingerprint(ds.Snapshot), ShowResult{
			Collection:  r.Collection(),
			Path:        ds.FileIndex.Path(r.Collection(), id),
			Record:      r,
			Connections: conns,
		})
	}

	data, err := compiler.Render(r)
	if err != nil {
		return e.out.Fail(err)
	}
	w := e.out.Writer
	fmt.Fprintf(w, "# %s\n", ds.FileIndex.Path(r.Collection(), id))
	w.Write(data)
	if len(conns) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Connections:")
		for _, c := range conns {
			arrow := "->"
			if c.Direction == graph.Incoming {
				arrow = "<-"
			}
			fmt.Fprintf(w, "  %s %s %s [%s] %s\n", arrow, c.Edge.RelationType, c.Node.ID, nodeType(c.Node), c.Node.Label)
		}
	}
	return nil
}

// connections lists the edges touching id. Ids shared across collections
// cannot be graph nodes, so such records are shown without connections.
func connections(e *env, ds *dataset.Dataset, id string) ([]graph.Connection, error) {
	g, err := e.buildGraph(ds, "")
	var ambiguous *graph.AmbiguousNodeError
	if errors.As(err, &ambiguous) {
		e.logger.Warn("graph unavailable", "error", err)
		return []graph.Connection{}, nil
	}
	if err != nil {
		return nil, err
	}
	conns, err := g.Connections(id)
	if err != nil {
		return nil, err
	}
	if conns == nil {
		conns = []graph.Connection{}
	}
	return conns, nil
}

// findRecord looks id up in one collection, or in all of them when only is
// nil. An id found in several collections must be disambiguated.
func findRecord(s *model.Snapshot, id string, only *model.Collection) (model.Record, error) {
	if only != nil {
		if r, ok := s.Find(*only, id); ok {
			return r, nil
		}
		return nil, fmt.Errorf("%w: %s/%s", graph.ErrUnknownNode, only.Key(), id)
	}

	var found []model.Record
	for _, c := range model.Collections {
		if r, ok := s.Find(c, id); ok {
			found = append(found, r)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", graph.ErrUnknownNode, id)
	case 1:
		return found[0], nil
	default:
		return nil, &graph.AmbiguousNodeError{ID: id, First: found[0].Collection(), Other: found[1].Collection()}
	}
}
