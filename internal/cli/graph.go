package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/moveng/internal/graph"
)

// GraphOptions holds flags for the graph command.
type GraphOptions struct {
	*RootOptions
	Center    string
	Depth     int
	Relations []string
	Types     []string
	Movement  string
	Strict    bool
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the reference graph or the neighborhood of one record",
		Long: `Derive the node/edge graph of the compiled dataset.

With --center, only records within --depth hops of the center are printed.
Edges are followed in both directions; --relation restricts which edges
are followed and --type restricts which node types are kept (the center
is always kept).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Center, "center", "", "record id to center the neighborhood on")
	cmd.Flags().IntVarP(&opts.Depth, "depth", "d", 1, "neighborhood depth in hops (default from config)")
	cmd.Flags().StringSliceVar(&opts.Relations, "relation", nil, "follow only these relation types")
	cmd.Flags().StringSliceVar(&opts.Types, "type", nil, "keep only these node types, e.g. Entity,Practice")
	cmd.Flags().StringVarP(&opts.Movement, "movement", "m", "", "limit the graph to one movement")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on dangling edges instead of dropping them")

	return cmd
}

func runGraph(opts *GraphOptions, cmd *cobra.Command) error {
	e, err := newEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("strict") {
		e.cfg.Graph.Strict = opts.Strict
	}
	depth := e.cfg.Graph.Depth
	if cmd.Flags().Changed("depth") {
		depth = opts.Depth
	}

	ds, err := e.assemble(cmd.Context())
	if err != nil {
		return outputCompileFailure(e.out, err)
	}
	g, err := e.buildGraph(ds, opts.Movement)
	if err != nil {
		return e.out.Fail(err)
	}

	title := fmt.Sprintf("Graph: %d node(s), %d edge(s), %d dropped", len(g.Nodes), len(g.Edges), g.Dropped)
	if opts.Center != "" {
		g, err = graph.Neighborhood(g, graph.Query{
			Center:        opts.Center,
			Depth:         depth,
			RelationTypes: opts.Relations,
			NodeTypes:     opts.Types,
		})
		if err != nil {
			return e.out.Fail(err)
		}
		title = fmt.Sprintf("Neighborhood of %s (depth %d): %d node(s), %d edge(s)",
			opts.Center, depth, len(g.Nodes), len(g.Edges))
	}

	if e.out.Format == "json" {
		return e.out.SuccessFor(fingerprint(ds.Snapshot), g)
	}
	fmt.Fprintln(e.out.Writer, title)
	writeGraph(e.out.Writer, g)
	return nil
}

// writeGraph prints nodes then edges, one per line.
func writeGraph(w io.Writer, g *graph.Graph) {
	if len(g.Nodes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Nodes:")
		for _, n := range g.Nodes {
			fmt.Fprintf(w, "  %s [%s] %s\n", n.ID, nodeType(n), n.Label)
		}
	}
	if len(g.Edges) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Edges:")
		for _, e := range g.Edges {
			fmt.Fprintf(w, "  %s -[%s]-> %s\n", e.From, e.RelationType, e.To)
		}
	}
}

func nodeType(n graph.Node) string {
	if n.SubKind == "" {
		return n.Type
	}
	return n.Type + "/" + n.SubKind
}
