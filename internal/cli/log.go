package cli

import (
	"path/filepath"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/transitions/internal/actionlog"
	"github.com/roach88/transitions/internal/ir"
	"github.com/roach88/transitions/internal/replay"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Logs   string // log directory, defaults to the store's
	Action string // optional - filter to one action
	Limit  int    // show only the newest N records
}

// LogResult is the JSON payload of the log command.
type LogResult struct {
	Dir     string            `json:"dir"`
	Records []ir.ActionRecord `json:"records"`
	Total   int               `json:"total"`
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the action log",
		Long: `Show the action records of a store in creation order.

Examples:
  transitions log
  transitions log --action transition --limit 10
  transitions log --logs ./backup/logs --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Logs, "logs", "", "log directory (default: logs/ next to the store)")
	cmd.Flags().StringVar(&opts.Action, "action", "", "only records of this action (add|transition|remove)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show only the newest N records (0 = all)")

	return cmd
}

// logDir resolves --logs, defaulting to the directory next to the store.
func logDir(opts *RootOptions, flag string) string {
	if flag != "" {
		return flag
	}
	return filepath.Join(filepath.Dir(opts.DBPath()), actionlog.DirName)
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if opts.Action != "" && !ir.ActionKind(opts.Action).Valid() {
		return NewExitError(ExitCommandError, "invalid --action: must be add, transition or remove")
	}
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "invalid --limit: must be non-negative")
	}

	dir := logDir(opts.RootOptions, opts.Logs)
	records, err := replay.LoadDir(dir)
	if err != nil {
		return reportError(f, ExitFailure, "invalid_log", err)
	}

	if opts.Action != "" {
		records = slices.DeleteFunc(records, func(r ir.ActionRecord) bool {
			return string(r.Action) != opts.Action
		})
	}
	total := len(records)
	if opts.Limit > 0 && len(records) > opts.Limit {
		records = records[len(records)-opts.Limit:]
	}

	if f.JSON() {
		return f.Success(LogResult{Dir: dir, Records: records, Total: total})
	}

	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	for _, rec := range records {
		seq, at := "-", "-"
		if rec.Seq != 0 {
			seq = dim.Sprint(rec.Seq)
		}
		if !rec.RecordedAt.IsZero() {
			at = rec.RecordedAt.Format(time.RFC3339)
		}
		_, _ = tw.Write([]byte(seq + "\t" + at + "\t" + string(rec.Action) + "\t" + describeRecord(rec) + "\n"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	f.Printf("%s\n", dim.Sprintf("%d of %d records", len(records), total))
	return nil
}
