package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/transitions/internal/actionlog"
	"github.com/roach88/transitions/internal/replay"
)

// InvalidRecord names a record file that failed validation.
type InvalidRecord struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// ValidateResult is the JSON payload of the validate command.
type ValidateResult struct {
	Dir     string          `json:"dir"`
	Total   int             `json:"total"`
	Valid   int             `json:"valid"`
	Invalid []InvalidRecord `json:"invalid"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var logs string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check every action record against the record schema",
		Long: `Check every record file of an action log against the record schema,
including the digest of records that carry one. Every file is checked;
all problems are reported.

Exit codes:
  0 - All records are valid
  1 - One or more records are invalid
  2 - Command error (log directory unreadable)

Examples:
  transitions validate
  transitions validate --logs ./old-project/logs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, logDir(rootOpts, logs), cmd)
		},
	}

	cmd.Flags().StringVar(&logs, "logs", "", "log directory (default: logs/ next to the store)")

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	paths, err := actionlog.ListDir(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read log directory", err)
	}

	result := ValidateResult{Dir: dir, Total: len(paths), Invalid: []InvalidRecord{}}
	for _, p := range paths {
		data, err := actionlog.Read(p)
		if err == nil {
			_, err = replay.Decode(p, data)
		}
		if err != nil {
			result.Invalid = append(result.Invalid, InvalidRecord{File: p, Reason: err.Error()})
			f.VerboseLog("invalid: %s", p)
			continue
		}
		result.Valid++
	}

	failed := len(result.Invalid) > 0
	if f.JSON() {
		if failed {
			if err := f.Failure(result, "invalid_log", "action log has invalid records"); err != nil {
				return err
			}
			return &ExitError{Code: ExitFailure, Message: "action log has invalid records", Reported: true}
		}
		return f.Success(result)
	}

	for _, inv := range result.Invalid {
		f.Printf("%s %s\n", failMark, inv.Reason)
	}
	if failed {
		f.Printf("%d of %d records invalid\n", len(result.Invalid), result.Total)
		return &ExitError{Code: ExitFailure, Message: "action log has invalid records", Reported: true}
	}
	f.Printf("%s %d records valid in %s\n", okMark, result.Valid, dir)
	return nil
}
