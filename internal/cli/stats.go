package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/moveng/internal/graph"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stats <movement-id>",
		Short:         "Summarise one movement's records",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runStats(opts *RootOptions, movementID string, cmd *cobra.Command) error {
	e, err := newEnv(opts, cmd)
	if err != nil {
		return err
	}
	ds, err := e.assemble(cmd.Context())
	if err != nil {
		return outputCompileFailure(e.out, err)
	}

	d, err := graph.Stats(ds.Snapshot, movementID)
	if err != nil {
		return e.out.Fail(err)
	}

	if e.out.Format == "json" {
		return e.out.SuccessFor(fingerprint(ds.Snapshot), d)
	}
	writeDashboard(e.out, d)
	return nil
}

func writeDashboard(formatter *OutputFormatter, d *graph.Dashboard) {
	w := formatter.Writer
	fmt.Fprintf(w, "%s [%s]\n\n", d.Movement.Name, d.Movement.ID)

	fmt.Fprintf(w, "Texts: %d", d.Texts.Total)
	if d.Texts.MaxDepth != nil {
		fmt.Fprintf(w, " (roots %d, max depth %d)", d.Texts.RootCount, *d.Texts.MaxDepth)
	}
	fmt.Fprintln(w)
	for _, depth := range slices.Sorted(maps.Keys(d.Texts.ByDepth)) {
		fmt.Fprintf(w, "  depth %d: %d\n", depth, d.Texts.ByDepth[depth])
	}
	if len(d.TextCollections) > 0 {
		fmt.Fprintf(w, "Text collections: %s\n", strings.Join(d.TextCollections, ", "))
	}

	fmt.Fprintf(w, "Entities: %s\n", kindSummary(d.Entities))
	fmt.Fprintf(w, "Practices: %s\n", kindSummary(d.Practices))
	fmt.Fprintf(w, "Events: %s\n", kindSummary(d.Events))
	fmt.Fprintf(w, "Rules: %d\n", d.RuleCount)
	fmt.Fprintf(w, "Claims: %d\n", d.ClaimCount)
	fmt.Fprintf(w, "Media: %d\n", d.MediaCount)
	fmt.Fprintf(w, "Notes: %d\n", d.NoteCount)

	for _, key := range []struct {
		label string
		ids   []string
	}{
		{"Key entities", d.KeyEntities},
		{"Key practices", d.KeyPractices},
		{"Key events", d.KeyEvents},
	} {
		if len(key.ids) > 0 {
			fmt.Fprintf(w, "%s: %s\n", key.label, strings.Join(key.ids, ", "))
		}
	}
}

// kindSummary renders "3 (group 1, person 2)", kinds in name order.
func kindSummary(kc graph.KindCount) string {
	if kc.Total == 0 {
		return "0"
	}
	parts := make([]string, 0, len(kc.ByKind))
	for _, kind := range slices.Sorted(maps.Keys(kc.ByKind)) {
		parts = append(parts, fmt.Sprintf("%s %d", kind, kc.ByKind[kind]))
	}
	return fmt.Sprintf("%d (%s)", kc.Total, strings.Join(parts, ", "))
}
