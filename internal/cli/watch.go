package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/moveng/internal/source"
	"github.com/roach88/moveng/internal/store"
	"github.com/roach88/moveng/internal/watch"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Archive bool
	DB      string
}

// RebuildResult is the JSON payload printed after each recompilation.
type RebuildResult struct {
	Changed  []string  `json:"changed"`
	Records  int       `json:"records"`
	Archived bool      `json:"archived"`
	Error    *CLIError `json:"error,omitempty"`
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch [repo]",
		Short: "Recompile a local repository whenever its record files change",
		Long: `Compile a local repository, then recompile it each time record files
change. Changes are batched until no file has changed for the debounce
period. Failed recompilations are reported and watching continues.

Example:
  moveng watch ./movements-repo
  moveng watch --archive --db ./archive.db`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Repo = args[0]
			}
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Archive, "archive", false, "archive every successful recompilation")
	cmd.Flags().StringVar(&opts.DB, "db", "", "archive database path (default from config)")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	e, err := newEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	if e.cfg.Source.Kind != source.KindLocal {
		err := fmt.Errorf("watch needs a local repository, source is %s", e.cfg.Source.Kind)
		_ = e.out.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeGeneric, err)
	}

	var st *store.Store
	if opts.Archive || e.cfg.Watch.Archive {
		_, st, err = openArchive(&ArchiveOptions{RootOptions: opts.RootOptions, DB: opts.DB}, cmd)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				e.logger.Error("error closing archive", "error", closeErr)
			}
		}()
	}

	w, err := watch.New(e.cfg.Source.Path,
		watch.WithDebounce(e.cfg.Watch.Debounce),
		watch.WithFilter(e.cfg.Filter()),
		watch.WithLogger(e.logger))
	if err != nil {
		return e.out.Fail(fmt.Errorf("watch %s: %w", e.cfg.Source.Path, err))
	}
	defer w.Close()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			e.logger.Info("received signal, stopping watch", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	rebuild := func(ctx context.Context, changed []string) error {
		return reportRebuild(ctx, e, st, changed)
	}

	// Initial compile; a broken repository is reported and watched anyway.
	_ = rebuild(ctx, []string{})
	if e.out.Format == "text" {
		fmt.Fprintf(e.out.Writer, "Watching %s. Press Ctrl-C to stop.\n", e.cfg.Source.Path)
	}

	if err := w.Run(ctx, rebuild); err != nil && !errors.Is(err, context.Canceled) {
		return e.out.Fail(err)
	}
	return nil
}

// reportRebuild recompiles, optionally archives, and prints one result.
func reportRebuild(ctx context.Context, e *env, st *store.Store, changed []string) error {
	result := RebuildResult{Changed: changed}

	ds, err := e.assemble(ctx)
	if err == nil {
		result.Records = ds.Snapshot.Len()
		if st != nil {
			_, result.Archived, err = archiveDataset(ctx, e, st, ds)
		}
	}
	if err != nil {
		code, _ := classify(err)
		result.Error = &CLIError{Code: code, Message: strings.TrimPrefix(err.Error(), code+": ")}
	}

	if e.out.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if result.Error != nil {
			resp = CLIResponse{Status: "error", Data: result, Error: result.Error}
		} else {
			resp.Fingerprint = fingerprint(ds.Snapshot)
		}
		_ = e.out.encode(resp)
		return err
	}

	w := e.out.Writer
	if len(changed) > 0 {
		fmt.Fprintf(w, "Changed: %s\n", strings.Join(changed, ", "))
	}
	if result.Error != nil {
		fmt.Fprintf(w, "✗ %s: %s\n", result.Error.Code, result.Error.Message)
		return err
	}
	fmt.Fprintf(w, "✓ Compiled %d record(s), fingerprint %s", result.Records, shortFingerprint(fingerprint(ds.Snapshot)))
	if result.Archived {
		fmt.Fprint(w, " (archived)")
	}
	fmt.Fprintln(w)
	return nil
}
