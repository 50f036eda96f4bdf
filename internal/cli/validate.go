package cli

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/roach88/tabula/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Tables   int      `json:"tables"`
	Problems []string `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Validate a table configuration file",
		Long: `Validate a YAML or CUE table configuration file.

CUE files are checked against the built-in schema first. Every problem
found is reported, not just the first one.

Example:
  tabula validate tables.yaml
  tabula validate --format json tables.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	f, err := config.Load(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfigLoad, "cannot load config", err)
	}
	formatter.VerboseLog("Loaded %s: %d table(s)", path, len(f.Tables))

	result := ValidationResult{Valid: true, Tables: len(f.Tables)}
	if err := f.Validate(); err != nil {
		result.Valid = false
		result.Problems = problems(err)
	}

	if !result.Valid {
		if formatter.Format == "json" {
			_ = formatter.Error(ErrCodeConfigInvalid, "config has problems", result)
		} else {
			fmt.Fprintln(formatter.Writer, "✗ Validation failed")
			for _, p := range result.Problems {
				fmt.Fprintf(formatter.Writer, "  %s\n", p)
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d problem(s)", len(result.Problems)))
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Config valid (%d table(s))\n", result.Tables)
	return nil
}

func problems(err error) []string {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		out := make([]string, len(merr.Errors))
		for i, e := range merr.Errors {
			out[i] = e.Error()
		}
		return out
	}
	return []string{err.Error()}
}
