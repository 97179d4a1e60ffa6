package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/transitions/internal/export"
)

// BackupResult is the JSON payload of the backup command.
type BackupResult struct {
	Source string `json:"source"`
	Path   string `json:"path"`
	Bytes  int64  `json:"bytes"`
}

// NewBackupCommand creates the backup command.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "backup [--out FILE]",
		Short: "Copy the store file",
		Long: `Write a consistent copy of the store file. The copy replaces FILE
atomically. The action log is not copied.

Examples:
  transitions backup
  transitions backup --out /tmp/states-2026-01-01.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(rootOpts, out, cmd)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "backup file (default: <store>.backup)")

	return cmd
}

func runBackup(opts *RootOptions, out string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	src := opts.DBPath()
	if out == "" {
		out = src + ".backup"
	}

	ws, err := openWorkspace(src, false)
	if err != nil {
		return err
	}
	defer ws.Close()

	n, err := export.Backup(context.Background(), ws.store, out)
	if errors.Is(err, export.ErrSamePath) {
		return NewExitError(ExitCommandError, "backup file must differ from the store")
	}
	if err != nil {
		return reportError(f, ExitCommandError, "io", err)
	}

	if f.JSON() {
		return f.Success(BackupResult{Source: src, Path: out, Bytes: n})
	}
	f.Printf("%s backed up %s to %s (%d bytes)\n", okMark, src, out, n)
	return nil
}
