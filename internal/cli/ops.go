package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/transitions/internal/ir"
)

// OperationOptions holds flags shared by add, transition and remove.
type OperationOptions struct {
	*RootOptions
	Forced bool
}

// AddOptions holds flags for the add command.
type AddOptions struct {
	OperationOptions
	State string // state for every bare NAME argument
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{OperationOptions: OperationOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "add NAME=STATE... | add --state STATE NAME...",
		Short: "Start tracking items",
		Long: `Start tracking items at the given states.

A name already tracked at a different state is a conflict and rejects the
whole call. With --forced, conflicting names are overwritten and listed in
the record's reset field. Names already at their state are left as is.

Exit codes:
  0 - Added
  1 - Rejected (conflict or invalid input)
  2 - Command error (store not found, I/O failure)

Examples:
  transitions add 1=todo 2=todo
  transitions add --state todo 1 2 3
  transitions add --forced 3=done`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Forced, "forced", "f", false, "overwrite conflicting states")
	cmd.Flags().StringVarP(&opts.State, "state", "s", "", "state for NAME arguments given without =STATE")

	return cmd
}

func runAdd(opts *AddOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	content, err := parseAssignments(args, opts.State)
	if err != nil {
		return reportError(f, ExitFailure, "invalid_input", err)
	}

	ws, err := openWorkspace(opts.DBPath(), false)
	if err != nil {
		return err
	}
	defer ws.Close()

	rec, err := ws.engine.Add(context.Background(), content, opts.Forced)
	if err != nil {
		return reportOperationError(f, err)
	}
	return outputRecord(f, rec)
}

// parseAssignments turns NAME=STATE arguments into a mapping. A bare NAME
// takes defaultState. A name given twice must carry the same state both
// times.
func parseAssignments(args []string, defaultState string) (map[string]string, error) {
	content := make(map[string]string, len(args))
	for _, arg := range args {
		name, state, ok := strings.Cut(arg, "=")
		if !ok {
			if defaultState == "" {
				return nil, fmt.Errorf("%q: expected NAME=STATE or --state", arg)
			}
			state = defaultState
		}
		if prev, seen := content[name]; seen && prev != state {
			return nil, fmt.Errorf("%q given twice with states %q and %q", name, prev, state)
		}
		content[name] = state
	}
	return content, nil
}

// TransitionOptions holds flags for the transition command.
type TransitionOptions struct {
	OperationOptions
	From string
	To   string
}

// NewTransitionCommand creates the transition command.
func NewTransitionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TransitionOptions{OperationOptions: OperationOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "transition --from STATE --to STATE NAME...",
		Short: "Move tracked items to another state",
		Long: `Move tracked items from one state to another.

Every name must be tracked. Unless --forced, every name must currently be
at --from. With --forced, --from may be omitted and the record lists the
states the names held before.

Examples:
  transitions transition --from todo --to done 1 2
  transitions transition --forced --to todo 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Forced, "forced", "f", false, "skip the --from check")
	cmd.Flags().StringVar(&opts.From, "from", "", "state every name must currently hold")
	cmd.Flags().StringVar(&opts.To, "to", "", "target state (required)")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runTransition(opts *TransitionOptions, names []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ws, err := openWorkspace(opts.DBPath(), false)
	if err != nil {
		return err
	}
	defer ws.Close()

	rec, err := ws.engine.Transition(context.Background(), names, opts.From, opts.To, opts.Forced)
	if err != nil {
		return reportOperationError(f, err)
	}
	return outputRecord(f, rec)
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OperationOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "remove NAME...",
		Short: "Stop tracking items",
		Long: `Stop tracking items.

Unless --forced, every name must be tracked. With --forced, untracked
names are skipped and listed in the record.

Examples:
  transitions remove 1 2
  transitions remove --forced 1 9`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Forced, "forced", "f", false, "skip untracked names")

	return cmd
}

func runRemove(opts *OperationOptions, names []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ws, err := openWorkspace(opts.DBPath(), false)
	if err != nil {
		return err
	}
	defer ws.Close()

	rec, err := ws.engine.Remove(context.Background(), names, opts.Forced)
	if err != nil {
		return reportOperationError(f, err)
	}
	return outputRecord(f, rec)
}

// outputRecord reports a committed record.
func outputRecord(f *OutputFormatter, rec ir.ActionRecord) error {
	if f.JSON() {
		return f.Success(rec)
	}

	f.Printf("%s %s %s\n", okMark, rec.Action, describeRecord(rec))
	if rec.Forced {
		switch rec.Action {
		case ir.ActionAdd:
			f.Printf("  reset: %s\n", listOrNone(rec.Reset))
		case ir.ActionTransition:
			f.Printf("  original states: %s\n", listOrNone(rec.OriginalStates))
		case ir.ActionRemove:
			f.Printf("  skipped: %s\n", listOrNone(rec.Skipped))
		}
	}
	f.Printf("  %s\n", dim.Sprint("record ", rec.ID))
	return nil
}

// describeRecord summarizes a record's parameters on one line.
func describeRecord(rec ir.ActionRecord) string {
	var b strings.Builder
	switch rec.Action {
	case ir.ActionAdd:
		names := rec.ContentNames()
		parts := make([]string, len(names))
		for i, n := range names {
			parts[i] = n + "=" + rec.Content[n]
		}
		b.WriteString(strings.Join(parts, " "))
	case ir.ActionTransition, ir.ActionTransit:
		from := rec.FromState
		if from == "" {
			from = "*"
		}
		fmt.Fprintf(&b, "%s: %s -> %s", strings.Join(rec.Names, " "), from, rec.ToState)
	case ir.ActionRemove:
		b.WriteString(strings.Join(rec.Names, " "))
	}
	if rec.Forced {
		b.WriteString(" (forced)")
	}
	return b.String()
}

func listOrNone(s []string) string {
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, ", ")
}
