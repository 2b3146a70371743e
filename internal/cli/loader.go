package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/marginalia/internal/bundle"
)

// loadBundle reads a bundle file for commands that need a valid
// document to work on. Any failure, unreadable file or validation
// findings alike, is a command error here; the validate command is the
// one place findings are the result rather than a prerequisite.
func loadBundle(path string) (*bundle.Bundle, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("bundle not found: %s", path))
	}

	b, err := bundle.Load(path)
	if err != nil {
		var verrs bundle.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("invalid bundle %s", path), err)
		}
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to load bundle %s", path), err)
	}
	return b, nil
}

// formatterFor builds the standard output formatter from a command's
// configured writers.
func formatterFor(opts *RootOptions, out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   opts.Verbose,
	}
}

// writeJSON emits one indented response on the command's stdout.
func writeJSON(cmd *cobra.Command, response CLIResponse) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}
