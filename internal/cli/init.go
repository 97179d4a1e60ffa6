package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// InitResult is the JSON payload of the init command.
type InitResult struct {
	Path  string `json:"path"`
	Logs  string `json:"logs"`
	Items int    `json:"items"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the store for a project",
		Long: `Create the store file and its logs directory, or upgrade an existing
store to the current schema. Running it again is harmless.

Examples:
  transitions init --project films
  transitions init --db ./states.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, cmd)
		},
	}
}

func runInit(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ws, err := openWorkspace(opts.DBPath(), true)
	if err != nil {
		return err
	}
	defer ws.Close()

	count, err := ws.store.Count(context.Background())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read store", err)
	}

	result := InitResult{Path: ws.path, Logs: ws.log.Dir(), Items: count}
	if f.JSON() {
		return f.Success(result)
	}
	f.Printf("%s store ready: %s\n", okMark, result.Path)
	f.Printf("  logs: %s\n", result.Logs)
	f.Printf("  items: %d\n", result.Items)
	return nil
}
