package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/transitions/internal/export"
)

// ExportResult is the JSON payload of the export command.
type ExportResult struct {
	Path   string        `json:"path"`
	Format export.Format `json:"format"`
	Count  int           `json:"count"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	filter := &FilterOptions{}
	var out string

	cmd := &cobra.Command{
		Use:   "export --out FILE",
		Short: "Write tracked items to a file",
		Long: `Write tracked items to FILE. The extension picks the format:
.json and .yaml/.yml write the items with summary counts, anything else
writes CSV with a name,state header.

Examples:
  transitions export --out states.csv
  transitions export --out done.json --state done`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, filter, out, cmd)
		},
	}
	filter.bind(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (required)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runExport(opts *RootOptions, filter *FilterOptions, out string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ws, err := openWorkspace(opts.DBPath(), false)
	if err != nil {
		return err
	}
	defer ws.Close()

	items, err := ws.store.Query(context.Background(), filter.filter())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to query store", err)
	}

	format, err := export.WriteFile(out, items)
	if err != nil {
		return reportError(f, ExitCommandError, "io", err)
	}

	if f.JSON() {
		return f.Success(ExportResult{Path: out, Format: format, Count: len(items)})
	}
	f.Printf("%s exported %d items to %s (%s)\n", okMark, len(items), out, format)
	return nil
}
