package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/moveng/internal/dataset"
	"github.com/roach88/moveng/internal/graph"
	"github.com/roach88/moveng/internal/store"
)

// ArchiveOptions holds flags shared by the archive subcommands.
type ArchiveOptions struct {
	*RootOptions
	DB string // archive database path, overrides archive.path
}

// ArchiveWriteResult is the JSON payload of archive write.
type ArchiveWriteResult struct {
	Summary  store.Summary `json:"summary"`
	Inserted bool          `json:"inserted"`
}

// EdgesResult is the JSON payload of archive edges.
type EdgesResult struct {
	RecordID string       `json:"recordId"`
	Outgoing []graph.Edge `json:"outgoing"`
	Incoming []graph.Edge `json:"incoming"`
}

// NewArchiveCommand creates the archive command and its subcommands.
func NewArchiveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ArchiveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Store compiled snapshots in a SQLite archive and query them",
		Long: `Manage the snapshot archive. Snapshots are keyed by content fingerprint;
archiving unchanged content again is a no-op. A snapshot reference is
"latest" or a unique fingerprint prefix.`,
	}

	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "archive database path (default from config)")

	cmd.AddCommand(newArchiveWriteCommand(opts))
	cmd.AddCommand(newArchiveListCommand(opts))
	cmd.AddCommand(newArchiveGetCommand(opts))
	cmd.AddCommand(newArchiveEdgesCommand(opts))
	cmd.AddCommand(newArchiveDiffCommand(opts))
	cmd.AddCommand(newArchiveDeleteCommand(opts))
	cmd.AddCommand(newArchiveFindCommand(opts))

	return cmd
}

// openArchive loads the config and opens the archive database, creating its
// directory when needed.
func openArchive(opts *ArchiveOptions, cmd *cobra.Command) (*env, *store.Store, error) {
	e, err := newEnv(opts.RootOptions, cmd)
	if err != nil {
		return nil, nil, err
	}
	path := e.cfg.Archive.Path
	if opts.DB != "" {
		path = opts.DB
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, archiveFailure(e.out, err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, archiveFailure(e.out, err)
	}
	e.out.VerboseLog("Opened archive %s", path)
	return e, st, nil
}

func archiveFailure(formatter *OutputFormatter, err error) error {
	_ = formatter.Error(ErrCodeArchive, err.Error(), nil)
	return WrapExitError(ExitCommandError, ErrCodeArchive, err)
}

// archiveDataset writes ds and its graph to st.
func archiveDataset(ctx context.Context, e *env, st *store.Store, ds *dataset.Dataset) (store.Summary, bool, error) {
	g, err := e.buildGraph(ds, "")
	if err != nil {
		return store.Summary{}, false, err
	}
	return st.WriteSnapshot(ctx, ds.Snapshot, ds.FileIndex, g)
}

func newArchiveWriteCommand(opts *ArchiveOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "write [repo]",
		Short:         "Compile a repository and archive the snapshot",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Repo = args[0]
			}
			e, st, err := openArchive(opts, cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			ds, err := e.assemble(cmd.Context())
			if err != nil {
				return outputCompileFailure(e.out, err)
			}
			sum, inserted, err := archiveDataset(cmd.Context(), e, st, ds)
			if err != nil {
				return e.out.Fail(err)
			}

			if e.out.Format == "json" {
				return e.out.SuccessFor(sum.Fingerprint, ArchiveWriteResult{Summary: sum, Inserted: inserted})
			}
			if inserted {
				fmt.Fprintf(e.out.Writer, "✓ Archived snapshot %s (%d records, %d edges)\n", sum.Fingerprint, sum.Records, sum.Edges)
			} else {
				fmt.Fprintf(e.out.Writer, "Snapshot %s already archived as #%d\n", sum.Fingerprint, sum.ID)
			}
			return nil
		},
	}
}

func newArchiveListCommand(opts *ArchiveOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List archived snapshots, oldest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, st, err := openArchive(opts, cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			list, err := st.ListSnapshots(cmd.Context())
			if err != nil {
				return archiveFailure(e.out, err)
			}
			if e.out.Format == "json" {
				return e.out.Success(list)
			}
			if len(list) == 0 {
				fmt.Fprintln(e.out.Writer, "No archived snapshots")
				return nil
			}
			for _, sum := range list {
				fmt.Fprintf(e.out.Writer, "#%d %s %s %d records %d edges", sum.ID, shortFingerprint(sum.Fingerprint),
					sum.GeneratedAt, sum.Records, sum.Edges)
				if sum.Source.Root != "" {
					fmt.Fprintf(e.out.Writer, " (%s %s)", sum.Source.Kind, sum.Source.Root)
				}
				fmt.Fprintln(e.out.Writer)
			}
			return nil
		},
	}
}

func newArchiveGetCommand(opts *ArchiveOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:           "get [ref]",
		Short:         "Read an archived snapshot back",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := store.LatestRef
			if len(args) == 1 {
				ref = args[0]
			}
			e, st, err := openArchive(opts, cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			snap, _, err := st.ReadSnapshot(cmd.Context(), ref)
			if err != nil {
				return e.out.Fail(err)
			}
			if output != "" {
				if err := writeSnapshotFile(snap, output); err != nil {
					_ = e.out.Error(ErrCodeWriteFailed, err.Error(), nil)
					return WrapExitError(ExitCommandError, ErrCodeWriteFailed, err)
				}
			}
			if e.out.Format == "json" {
				return e.out.SuccessFor(fingerprint(snap), snap)
			}
			fmt.Fprintf(e.out.Writer, "Snapshot %s: %d record(s) across %d movement(s)\n",
				fingerprint(snap), snap.Len(), len(snap.Movements))
			if output != "" {
				fmt.Fprintf(e.out.Writer, "Wrote snapshot to %s\n", output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the snapshot JSON to this file")
	return cmd
}

func newArchiveEdgesCommand(opts *ArchiveOptions) *cobra.Command {
	var ref string
	cmd := &cobra.Command{
		Use:           "edges <record-id>",
		Short:         "List archived edges from and to a record",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, st, err := openArchive(opts, cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			id := args[0]
			out, err := st.EdgesFrom(cmd.Context(), ref, id)
			if err != nil {
				return e.out.Fail(err)
			}
			in, err := st.EdgesTo(cmd.Context(), ref, id)
			if err != nil {
				return e.out.Fail(err)
			}

			if e.out.Format == "json" {
				return e.out.Success(EdgesResult{RecordID: id, Outgoing: out, Incoming: in})
			}
			w := e.out.Writer
			fmt.Fprintf(w, "%s: %d outgoing, %d incoming\n", id, len(out), len(in))
			for _, edge := range out {
				fmt.Fprintf(w, "  -> %s %s (%s.%s)\n", edge.RelationType, edge.To, edge.Source.RecordID, edge.Source.Field)
			}
			for _, edge := range in {
				fmt.Fprintf(w, "  <- %s %s (%s.%s)\n", edge.RelationType, edge.From, edge.Source.RecordID, edge.Source.Field)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ref, "ref", store.LatestRef, "snapshot reference")
	return cmd
}

func newArchiveDiffCommand(opts *ArchiveOptions) *cobra.Command {
	var movement string
	cmd := &cobra.Command{
		Use:           "diff <from-ref> <to-ref>",
		Short:         "List records added, removed or modified between two snapshots",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, st, err := openArchive(opts, cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			changes, err := st.Diff(cmd.Context(), args[0], args[1], movement)
			if err != nil {
				return e.out.Fail(err)
			}
			if e.out.Format == "json" {
				return e.out.Success(changes)
			}
			if len(changes) == 0 {
				fmt.Fprintln(e.out.Writer, "No changes")
				return nil
			}
			for _, c := range changes {
				fmt.Fprintf(e.out.Writer, "%-8s %s/%s\n", c.Kind, c.Collection.Key(), c.RecordID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&movement, "movement", "m", "", "compare only this movement's records")
	return cmd
}

func newArchiveDeleteCommand(opts *ArchiveOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <fingerprint>",
		Short:         "Remove one archived snapshot",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, st, err := openArchive(opts, cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteSnapshot(cmd.Context(), args[0]); err != nil {
				return e.out.Fail(err)
			}
			if e.out.Format == "json" {
				return e.out.Success(map[string]string{"deleted": args[0]})
			}
			fmt.Fprintf(e.out.Writer, "✓ Deleted snapshot %s\n", args[0])
			return nil
		},
	}
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
