package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/render"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	To  string // output surface: "html" | "text"
	Out string // output file, stdout when empty
}

// Render surfaces.
var validSurfaces = []string{"text", "html"}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <bundle>",
		Short: "Render a bundle once",
		Long: `Render an annotated document bundle through the full pipeline and
print the result.

The --to flag picks the surface: "text" is the terminal rendering
(colorized only for a terminal, or when --color=always), "html" is the
static markup rendering. With --format json the resolved layout is
emitted as JSON instead and --to is ignored.

Exit codes:
  0 - Rendered successfully
  2 - Command error (missing bundle, invalid bundle, bad flags)

Examples:
  marginalia render study.yaml
  marginalia render study.yaml --to html --out study.html
  marginalia render study.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.To, "to", "text", "output surface (text|html)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "write output to file instead of stdout")

	return cmd
}

func runRender(opts *RenderOptions, bundlePath string, cmd *cobra.Command) error {
	if !isValidSurface(opts.To) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid surface %q: must be one of %v", opts.To, validSurfaces))
	}

	b, err := loadBundle(bundlePath)
	if err != nil {
		return err
	}

	layout, err := engine.New().Render(b.Text(), b.Codebook, b.Collections(), b.View)
	if err != nil {
		return WrapExitError(ExitCommandError, "render failed", err)
	}

	f := formatterFor(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	f.VerboseLog("Rendered %d fragment(s), mode %s", len(layout.Fragments), layout.Mode)

	var data []byte
	switch {
	case opts.Format == "json":
		data, err = json.MarshalIndent(CLIResponse{Status: "ok", Data: layout}, "", "  ")
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to encode layout", err)
		}
		data = append(data, '\n')
	case opts.To == "html":
		data = []byte(render.HTML(layout))
	default:
		out := render.NewTerminal().Render(layout)
		text := out.Text + "\n"
		// Escapes survive only when stdout is the destination and color
		// is on for it; files get plain text unless forced.
		keep := opts.Color == "always" ||
			(opts.Out == "" && colorEnabled(cmd.OutOrStdout(), opts.Color))
		if !keep {
			text = ansi.Strip(text)
		}
		data = []byte(text)
	}

	if opts.Out != "" {
		if err := os.WriteFile(opts.Out, data, 0644); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to write %s", opts.Out), err)
		}
		f.VerboseLog("Wrote %d byte(s) to %s", len(data), opts.Out)
		return nil
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// isValidSurface checks if the surface is one of the allowed values.
func isValidSurface(surface string) bool {
	for _, s := range validSurfaces {
		if s == surface {
			return true
		}
	}
	return false
}
