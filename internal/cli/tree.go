package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/moveng/internal/graph"
	"github.com/roach88/moveng/internal/hierarchy"
	"github.com/roach88/moveng/internal/model"
)

// TreeEntry is one text in a printed tree.
type TreeEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Level int    `json:"level"` // indentation below the section root
	Depth int    `json:"depth"` // depth in the movement's forest
}

// TreeSection is one text collection, or the texts no collection reaches.
type TreeSection struct {
	ID      string      `json:"id,omitempty"`
	Name    string      `json:"name"`
	Entries []TreeEntry `json:"entries"`
}

// TreeResult is the JSON payload of the tree command.
type TreeResult struct {
	MovementID string            `json:"movementId"`
	Sections   []TreeSection     `json:"sections"`
	Cycles     []hierarchy.Cycle `json:"cycles"`
}

// uncollectedSection names the texts no text collection reaches.
const uncollectedSection = "Uncollected texts"

// NewTreeCommand creates the tree command.
func NewTreeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree <movement-id>",
		Short: "Print a movement's text hierarchy",
		Long: `Print the texts of one movement as a tree, one section per text
collection. Texts no collection reaches are listed last. Parent cycles
do not stop the walk; each text is printed once.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runTree(opts *RootOptions, movementID string, cmd *cobra.Command) error {
	e, err := newEnv(opts, cmd)
	if err != nil {
		return err
	}
	ds, err := e.assemble(cmd.Context())
	if err != nil {
		return outputCompileFailure(e.out, err)
	}

	result, err := buildTree(ds.Snapshot, movementID)
	if err != nil {
		return e.out.Fail(err)
	}

	if e.out.Format == "json" {
		return e.out.SuccessFor(fingerprint(ds.Snapshot), result)
	}
	writeTree(e.out, result)
	return nil
}

// buildTree walks each text collection of movementID, then the forest roots
// that no collection reached.
func buildTree(s *model.Snapshot, movementID string) (*TreeResult, error) {
	if _, ok := s.Find(model.Movements, movementID); !ok {
		return nil, fmt.Errorf("%w: movement %s", graph.ErrUnknownNode, movementID)
	}
	scoped := s.ForMovement(movementID)
	f := hierarchy.Build(scoped.Texts, movementID)

	result := &TreeResult{MovementID: movementID, Sections: []TreeSection{}, Cycles: f.Cycles}
	if result.Cycles == nil {
		result.Cycles = []hierarchy.Cycle{}
	}
	seen := make(map[string]bool)

	walk := func(roots []string) []TreeEntry {
		entries := []TreeEntry{}
		_ = f.Walk(roots, func(t model.TextNode, level int) error {
			seen[t.ID] = true
			entries = append(entries, TreeEntry{ID: t.ID, Title: t.Label(), Level: level, Depth: f.Depth[t.ID]})
			return nil
		})
		return entries
	}

	for _, tc := range scoped.TextCollections {
		result.Sections = append(result.Sections, TreeSection{
			ID:      tc.ID,
			Name:    tc.Label(),
			Entries: walk(f.CanonRoots(tc)),
		})
	}

	var rest []string
	for _, id := range f.Roots {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	if len(rest) > 0 {
		result.Sections = append(result.Sections, TreeSection{Name: uncollectedSection, Entries: walk(rest)})
	}
	return result, nil
}

func writeTree(formatter *OutputFormatter, result *TreeResult) {
	w := formatter.Writer
	for i, section := range result.Sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if section.ID != "" {
			fmt.Fprintf(w, "%s [%s]\n", section.Name, section.ID)
		} else {
			fmt.Fprintln(w, section.Name)
		}
		for _, entry := range section.Entries {
			fmt.Fprintf(w, "%s%s [%s]\n", strings.Repeat("  ", entry.Level+1), entry.Title, entry.ID)
		}
	}
	if len(result.Sections) == 0 {
		fmt.Fprintf(w, "Movement %s has no texts\n", result.MovementID)
	}
	if len(result.Cycles) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Warnings:")
		for _, c := range result.Cycles {
			fmt.Fprintf(w, "  %s\n", c.Message())
		}
	}
}
