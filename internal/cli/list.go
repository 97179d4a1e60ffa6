package cli

import (
	"context"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/transitions/internal/ir"
	"github.com/roach88/transitions/internal/store"
)

// FilterOptions holds the name and state filters shared by list and export.
type FilterOptions struct {
	Names  []string
	States []string
}

func (o *FilterOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&o.Names, "name", "n", nil, "only these names (repeatable, comma separated)")
	cmd.Flags().StringSliceVarP(&o.States, "state", "s", nil, "only these states (repeatable, comma separated)")
}

func (o *FilterOptions) filter() store.Filter {
	return store.Filter{Names: o.Names, States: o.States}
}

// ListResult is the JSON payload of the list command.
type ListResult struct {
	Items []ir.Item `json:"items"`
	Count int       `json:"count"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	filter := &FilterOptions{}

	cmd := &cobra.Command{
		Use:   "list [--name NAME]... [--state STATE]...",
		Short: "List tracked items",
		Long: `List tracked items ordered by name.

Names and states each match any of the given values; both filters must
hold when both are given.

Examples:
  transitions list
  transitions list --state todo,doing
  transitions list --name 1 --name 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, filter, cmd)
		},
	}
	filter.bind(cmd)

	return cmd
}

func runList(opts *RootOptions, filter *FilterOptions, cmd *cobra.Command) error {
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

	if f.JSON() {
		return f.Success(ListResult{Items: items, Count: len(items)})
	}

	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	for _, it := range items {
		_, _ = tw.Write([]byte(it.Name + "\t" + it.State + "\n"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	f.Printf("%s\n", dim.Sprintf("%d items", len(items)))
	return nil
}
