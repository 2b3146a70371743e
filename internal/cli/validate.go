package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/marginalia/internal/bundle"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidationFinding is one schema or semantic violation, as reported.
type ValidationFinding struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds the overall validation result for one bundle.
type ValidationResult struct {
	File     string              `json:"file"`
	Valid    bool                `json:"valid"`
	Findings []ValidationFinding `json:"findings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <bundle>",
		Short: "Validate a bundle file",
		Long: `Validate an annotated document bundle without rendering it.

Checks YAML shape against the bundle schema, then the semantic rules:
span ordering, the unanchored memo form, id uniqueness, and document
resolution. Every finding carries an error code (E100-E129) and all
findings are collected in one pass.

Exit codes:
  0 - Bundle is valid
  1 - Validation findings
  2 - Command error (file missing or unreadable)

Examples:
  marginalia validate study.yaml
  marginalia validate study.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, bundlePath string, cmd *cobra.Command) error {
	f := formatterFor(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	data, err := os.ReadFile(bundlePath)
	if err != nil {
		msg := fmt.Sprintf("bundle not found: %s", bundlePath)
		if !os.IsNotExist(err) {
			msg = fmt.Sprintf("failed to read %s: %v", bundlePath, err)
		}
		_ = f.Error(errCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("[%s] %s", errCodeNotFound, msg))
	}

	f.VerboseLog("Validating %s (%d bytes)", bundlePath, len(data))

	result := ValidationResult{File: bundlePath}
	_, err = bundle.Parse(data, bundle.WithBaseDir(filepath.Dir(bundlePath)))
	switch {
	case err == nil:
		result.Valid = true
	default:
		var verrs bundle.ValidationErrors
		if errors.As(err, &verrs) {
			for _, v := range verrs {
				result.Findings = append(result.Findings, ValidationFinding{
					Field:   v.Field,
					Message: v.Message,
					Code:    v.Code,
					Line:    v.Line,
				})
			}
		} else {
			// YAML that does not decode is still a verdict about the
			// file, not about the command invocation.
			result.Findings = append(result.Findings, ValidationFinding{
				Field:   "bundle",
				Message: err.Error(),
				Code:    errCodeParse,
			})
		}
	}

	if opts.Format == "json" {
		if result.Valid {
			return f.Success(result)
		}
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    result.Findings[0].Code,
				Message: fmt.Sprintf("%d finding(s)", len(result.Findings)),
			},
		}
		if err := writeJSON(cmd, response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "validation failed")
	}

	return outputValidateText(cmd, result)
}

func outputValidateText(cmd *cobra.Command, result ValidationResult) error {
	w := cmd.OutOrStdout()

	if result.Valid {
		fmt.Fprintf(w, "✓ %s is valid\n", result.File)
		return nil
	}

	fmt.Fprintf(w, "✗ %s: %d finding(s)\n", result.File, len(result.Findings))
	for _, v := range result.Findings {
		if v.Line > 0 {
			fmt.Fprintf(w, "  [%s] line %d: %s: %s\n", v.Code, v.Line, v.Field, v.Message)
			continue
		}
		fmt.Fprintf(w, "  [%s] %s: %s\n", v.Code, v.Field, v.Message)
	}
	return NewExitError(ExitFailure, "validation failed")
}
