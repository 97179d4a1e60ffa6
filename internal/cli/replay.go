package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/transitions/internal/actionlog"
	"github.com/roach88/transitions/internal/ir"
	"github.com/roach88/transitions/internal/replay"
	"github.com/roach88/transitions/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Logs   string
	Into   string
	Verify bool
}

// ReplayResult is the JSON payload of the replay command.
type ReplayResult struct {
	Logs        string              `json:"logs"`
	Into        string              `json:"into,omitempty"`
	Applied     int                 `json:"applied"`
	Differences []replay.Difference `json:"differences,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay (--into DB | --verify)",
		Short: "Rebuild a store from its action log",
		Long: `Re-run every action record in creation order.

With --into, the records are applied to the store at DB, which must be
empty or not exist yet. The new store gets its own action log.

With --verify, the records are applied to a scratch store and the result
is compared with the store selected by --db or --project.

Exit codes:
  0 - Replayed (and, with --verify, the stores match)
  1 - Invalid log, a record was rejected, or the stores differ
  2 - Command error

Examples:
  transitions replay --into ./rebuilt.db
  transitions replay --verify
  transitions replay --logs ./backup/logs --into ./restored.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Logs, "logs", "", "log directory (default: logs/ next to the store)")
	cmd.Flags().StringVar(&opts.Into, "into", "", "empty store to replay into")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "replay into a scratch store and compare with the current store")
	cmd.MarkFlagsMutuallyExclusive("into", "verify")
	cmd.MarkFlagsOneRequired("into", "verify")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := context.Background()

	dir := logDir(opts.RootOptions, opts.Logs)
	records, err := replay.LoadDir(dir)
	if err != nil {
		return reportError(f, ExitFailure, "invalid_log", err)
	}
	f.VerboseLog("loaded %d records from %s", len(records), dir)

	if opts.Verify {
		return runVerify(ctx, opts, f, dir, records)
	}

	if err := checkReplayTarget(ctx, opts.Into, dir); err != nil {
		return err
	}

	ws, err := openWorkspace(opts.Into, true)
	if err != nil {
		return err
	}
	defer ws.Close()

	applied, err := replay.Replay(ctx, ws.engine, records)
	if errors.Is(err, replay.ErrInvalidLog) {
		return reportError(f, ExitFailure, "invalid_log", err)
	}
	if err != nil {
		return reportOperationError(f, err)
	}

	result := ReplayResult{Logs: dir, Into: opts.Into, Applied: applied}
	if f.JSON() {
		return f.Success(result)
	}
	f.Printf("%s replayed %d records into %s\n", okMark, applied, opts.Into)
	return nil
}

func runVerify(ctx context.Context, opts *ReplayOptions, f *OutputFormatter, dir string, records []ir.ActionRecord) error {
	ws, err := openWorkspace(opts.DBPath(), false)
	if err != nil {
		return err
	}
	defer ws.Close()

	diffs, err := replay.Verify(ctx, ws.store, records)
	if err != nil {
		return reportOperationError(f, err)
	}

	result := ReplayResult{Logs: dir, Applied: len(records), Differences: diffs}
	if len(diffs) == 0 {
		if f.JSON() {
			return f.Success(result)
		}
		f.Printf("%s log reproduces %s (%d records)\n", okMark, opts.DBPath(), len(records))
		return nil
	}

	const msg = "replayed log does not reproduce the store"
	if f.JSON() {
		if err := f.Failure(result, "mismatch", msg); err != nil {
			return err
		}
		return &ExitError{Code: ExitFailure, Message: msg, Reported: true}
	}
	f.Printf("%s %s\n", failMark, msg)
	for _, d := range diffs {
		f.Printf("  %s: store %s, replayed %s\n", d.Name, stateOrAbsent(d.Source), stateOrAbsent(d.Replayed))
	}
	return &ExitError{Code: ExitFailure, Message: msg, Reported: true}
}

// checkReplayTarget refuses a target that is not empty or that shares the
// source log. It runs before anything is created at the target.
func checkReplayTarget(ctx context.Context, into, source string) error {
	targetLogs := filepath.Join(filepath.Dir(into), actionlog.DirName)
	if sameDir(targetLogs, source) {
		return NewExitError(ExitCommandError, "refusing to replay a log into its own store")
	}

	if _, err := os.Stat(targetLogs); err == nil {
		paths, err := actionlog.ListDir(targetLogs)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read target log", err)
		}
		if len(paths) > 0 {
			return NewExitError(ExitCommandError, fmt.Sprintf("target log is not empty: %s holds %d records", targetLogs, len(paths)))
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return WrapExitError(ExitCommandError, "failed to inspect target log", err)
	}

	if _, err := os.Stat(into); errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return WrapExitError(ExitCommandError, "failed to inspect target store", err)
	}

	st, err := store.Open(into)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open target store", err)
	}
	defer st.Close()

	n, err := st.Count(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read target store", err)
	}
	if n > 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("target store is not empty: %s holds %d items", into, n))
	}
	return nil
}

func stateOrAbsent(s string) string {
	if s == "" {
		return "(absent)"
	}
	return fmt.Sprintf("%q", s)
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
