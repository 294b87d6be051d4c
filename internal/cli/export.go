package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/moveng/internal/dataset"
)

// ExportResult is the JSON payload of the export command.
type ExportResult struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var movement string

	cmd := &cobra.Command{
		Use:   "export <dir>",
		Short: "Write the compiled records back out as record files",
		Long: `Compile the repository and write every record to <dir> in the
movements/<movement-id>/<collection>/<id>.md layout. Compiling <dir>
again yields the same records.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			ds, err := e.assemble(cmd.Context())
			if err != nil {
				return outputCompileFailure(e.out, err)
			}

			dir := args[0]
			var files []string
			if movement != "" {
				files, err = dataset.ExportMovement(ds.Snapshot, movement, dir)
			} else {
				files, err = dataset.Export(ds.Snapshot, dir)
			}
			if err != nil {
				_ = e.out.Error(ErrCodeWriteFailed, err.Error(), nil)
				return WrapExitError(ExitCommandError, ErrCodeWriteFailed, err)
			}

			if e.out.Format == "json" {
				return e.out.SuccessFor(fingerprint(ds.Snapshot), ExportResult{Dir: dir, Files: files})
			}
			fmt.Fprintf(e.out.Writer, "✓ Exported %d record file(s) to %s\n", len(files), dir)
			for _, f := range files {
				e.out.VerboseLog("  %s", f)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&movement, "movement", "m", "", "export only this movement")

	return cmd
}
