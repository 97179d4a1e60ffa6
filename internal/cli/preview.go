package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/transitions/internal/engine"
)

// NewPreviewCommand creates the preview command and its subcommands.
//
// A preview partitions the names of a prospective unforced operation into
// those it would accept and those it would reject, without writing.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show which names an operation would accept",
		Long: `Show which names an unforced operation would accept and which it would
reject, without changing the store or writing a record.`,
	}

	var state string
	add := &cobra.Command{
		Use:   "add NAME=STATE... | add --state STATE NAME...",
		Short: "Preview an add",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			content, err := parseAssignments(args, state)
			if err != nil {
				return reportError(f, ExitFailure, engine.KindInvalidInput, err)
			}
			return runPreview(rootOpts, cmd, func(ctx context.Context, e *engine.Engine) (engine.Selection, error) {
				return e.SelectForAddition(ctx, content)
			})
		},
	}
	add.Flags().StringVarP(&state, "state", "s", "", "state for NAME arguments given without =STATE")

	var from string
	transition := &cobra.Command{
		Use:   "transition --from STATE NAME...",
		Short: "Preview a transition",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(rootOpts, cmd, func(ctx context.Context, e *engine.Engine) (engine.Selection, error) {
				return e.SelectForTransition(ctx, args, from)
			})
		},
	}
	transition.Flags().StringVar(&from, "from", "", "state the names must currently hold (required)")
	_ = transition.MarkFlagRequired("from")

	remove := &cobra.Command{
		Use:   "remove NAME...",
		Short: "Preview a removal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(rootOpts, cmd, func(ctx context.Context, e *engine.Engine) (engine.Selection, error) {
				return e.SelectForRemoval(ctx, args)
			})
		},
	}

	cmd.AddCommand(add, transition, remove)
	return cmd
}

func runPreview(opts *RootOptions, cmd *cobra.Command, sel func(context.Context, *engine.Engine) (engine.Selection, error)) error {
	f := opts.formatter(cmd)

	ws, err := openWorkspace(opts.DBPath(), false)
	if err != nil {
		return err
	}
	defer ws.Close()

	selection, err := sel(context.Background(), ws.engine)
	if err != nil {
		return reportOperationError(f, err)
	}

	if f.JSON() {
		return f.Success(selection)
	}
	f.Printf("%s accepted (%d): %s\n", okMark, len(selection.Accepted), strings.Join(selection.Accepted, " "))
	f.Printf("%s rejected (%d): %s\n", failMark, len(selection.Rejected), strings.Join(selection.Rejected, " "))
	return nil
}
