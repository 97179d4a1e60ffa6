package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/transitions/internal/config"
)

// RootOptions holds global flags for all commands. Their defaults come from
// the environment (see config.Config).
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	DB      string // explicit store path
	Project string // project under Home, used when DB is empty
	Home    string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{config.FormatText, config.FormatJSON}

// Config returns the effective configuration after flag overrides.
func (o *RootOptions) Config() config.Config {
	return config.Config{
		Home:    o.Home,
		DB:      o.DB,
		Project: o.Project,
		Format:  o.Format,
		Verbose: o.Verbose,
	}
}

// DBPath returns the store the command operates on.
func (o *RootOptions) DBPath() string {
	return o.Config().DBPath()
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// NewRootCommand creates the root command with flag defaults taken from cfg.
func NewRootCommand(cfg config.Config) *cobra.Command {
	opts := &RootOptions{Home: cfg.Home}

	cmd := &cobra.Command{
		Use:   "transitions",
		Short: "Track named items through states",
		Long: `Track uniquely named items, each holding one state label.

Items are added, moved between states and removed under conflict checks.
Every successful change is written to an append-only action log next to
the store, and replaying the log into an empty store reproduces it.

Stores live under $TRANSITIONS_HOME/projects/<project>/states.db unless
--db names one directly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.DB == "" {
				if err := config.ValidateProjectName(opts.Project); err != nil {
					return WrapExitError(ExitCommandError, "invalid --project", err)
				}
			}
			setupLogging(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", cfg.Verbose, "verbose output and debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", cfg.Format, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", cfg.DB, "path to the store file (overrides --project)")
	cmd.PersistentFlags().StringVarP(&opts.Project, "project", "p", cfg.Project, "project name under $TRANSITIONS_HOME/projects")

	// Add subcommands
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewTransitionCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewPreviewCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))
	cmd.AddCommand(NewProjectsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setupLogging installs the default slog logger. Operation logs are
// diagnostics, so they stay quiet unless --verbose is given.
func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// Execute runs the CLI with args and returns the process exit code.
// Errors not already reported by the command are printed to stderr.
func Execute(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "%s %v\n", failMark, err)
		return ExitCommandError
	}

	cmd := NewRootCommand(cfg)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err = cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || !exitErr.Reported {
		fmt.Fprintf(stderr, "%s %v\n", failMark, err)
	}
	if exitErr == nil {
		// Flag and argument errors from cobra itself.
		return ExitCommandError
	}
	return exitErr.Code
}

// Main is the entry point used by cmd/transitions.
func Main() {
	os.Exit(Execute(os.Args[1:], os.Stdout, os.Stderr))
}
