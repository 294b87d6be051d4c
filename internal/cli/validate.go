package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/moveng/internal/model"
	"github.com/roach88/moveng/internal/validate"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Import string // snapshot JSON file to validate instead of a repository
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool               `json:"valid"`
	Records  int                `json:"records"`
	Warnings []validate.Warning `json:"warnings"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [repo]",
		Short: "Check a repository or snapshot file without writing output",
		Long: `Compile and validate a repository, or validate a snapshot JSON file
produced elsewhere with --import.

Imported snapshots are checked against the snapshot schema before their
references are resolved. Parent cycles among texts are reported as
warnings and do not fail validation.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Repo = args[0]
			}
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Import, "import", "", "validate a snapshot JSON file instead of a repository")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	if opts.Import != "" {
		return runValidateImport(opts, cmd)
	}

	e, err := newEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	ds, err := e.assemble(cmd.Context())
	if err != nil {
		return outputValidationFailure(e.out, err)
	}
	return outputValidateSuccess(e.out, ds.Snapshot, ds.Warnings)
}

func runValidateImport(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	data, err := os.ReadFile(opts.Import)
	if err != nil {
		return formatter.Fail(&model.SourceError{Op: "read", Path: opts.Import, Err: err})
	}
	formatter.VerboseLog("Validating snapshot file %s (%d bytes)", opts.Import, len(data))

	s, warnings, err := validate.ImportJSON(data)
	if err != nil {
		return outputValidationFailure(formatter, err)
	}
	return outputValidateSuccess(formatter, s, warnings)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, s *model.Snapshot, warnings []validate.Warning) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Records: s.Len(), Warnings: orNoWarnings(warnings)})
	}

	fmt.Fprintf(formatter.Writer, "✓ Dataset valid: %d record(s) across %d movement(s)\n", s.Len(), len(s.Movements))
	if len(warnings) > 0 {
		fmt.Fprintln(formatter.Writer)
		printWarnings(formatter, warnings)
	}
	return nil
}

// outputValidationFailure reports the first violation. Source errors are
// command errors; anything the dataset itself got wrong exits 1.
func outputValidationFailure(formatter *OutputFormatter, err error) error {
	code, exit := classify(err)
	if exit == ExitCommandError {
		return formatter.Fail(err)
	}
	message := strings.TrimPrefix(err.Error(), code+": ")

	if formatter.Format == "json" {
		_ = formatter.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Warnings: []validate.Warning{}},
			Error:  &CLIError{Code: code, Message: message},
		})
		return WrapExitError(exit, code, err)
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	fmt.Fprintf(formatter.Writer, "  %s: %s\n", code, message)
	return WrapExitError(exit, code, err)
}
