package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/moveng/internal/dataset"
	"github.com/roach88/moveng/internal/model"
	"github.com/roach88/moveng/internal/validate"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the JSON payload of a successful compile.
type CompilationResult struct {
	Snapshot *model.Snapshot    `json:"snapshot"`
	Warnings []validate.Warning `json:"warnings"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [repo]",
		Short: "Compile record files into a snapshot",
		Long: `Compile every record file of a repository into one validated snapshot.

Record files live under data/<collection>/ or movements/<slug>/. The
snapshot is written as JSON with --output; the command fails on the first
parse, schema or reference error.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Repo = args[0]
			}
			return runCompile(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, cmd *cobra.Command) error {
	e, err := newEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	ds, err := e.assemble(cmd.Context())
	if err != nil {
		return outputCompileFailure(e.out, err)
	}

	if opts.Output != "" {
		if err := writeSnapshotFile(ds.Snapshot, opts.Output); err != nil {
			_ = e.out.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, ErrCodeWriteFailed, err)
		}
	}

	return outputCompileSuccess(e.out, ds, opts.Output)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, ds *dataset.Dataset, outputFile string) error {
	s := ds.Snapshot
	if formatter.Format == "json" {
		return formatter.SuccessFor(fingerprint(s), CompilationResult{Snapshot: s, Warnings: orNoWarnings(ds.Warnings)})
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d record(s) across %d movement(s)\n\n", s.Len(), len(s.Movements))

	fmt.Fprintln(formatter.Writer, "Collections:")
	for _, c := range model.Collections {
		if n := len(s.Records(c)); n > 0 {
			fmt.Fprintf(formatter.Writer, "  %s: %d\n", c.Key(), n)
		}
	}
	fmt.Fprintln(formatter.Writer)

	printWarnings(formatter, ds.Warnings)

	fmt.Fprintf(formatter.Writer, "Fingerprint: %s\n", fingerprint(s))
	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote snapshot to %s\n", outputFile)
	}
	return nil
}

// outputCompileFailure reports an assembly error. Rejected datasets exit 1,
// unreadable sources exit 2.
func outputCompileFailure(formatter *OutputFormatter, err error) error {
	code, exit := classify(err)
	if formatter.Format == "json" || exit == ExitCommandError {
		return formatter.Fail(err)
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	fmt.Fprintf(formatter.Writer, "  %s: %s\n", code, strings.TrimPrefix(err.Error(), code+": "))
	return WrapExitError(exit, code, err)
}

func printWarnings(formatter *OutputFormatter, warnings []validate.Warning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(formatter.Writer, "Warnings:")
	for _, w := range warnings {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", w.Code, w.RecordID, w.Message)
	}
	fmt.Fprintln(formatter.Writer)
}

func orNoWarnings(warnings []validate.Warning) []validate.Warning {
	if warnings == nil {
		return []validate.Warning{}
	}
	return warnings
}

// writeSnapshotFile writes the snapshot, metadata included, as indented JSON.
func writeSnapshotFile(s *model.Snapshot, filename string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
