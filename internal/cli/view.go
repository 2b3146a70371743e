package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/marginalia/internal/viewer"
)

// ViewOptions holds flags for the view command.
type ViewOptions struct {
	*RootOptions
	Watch bool // reload the bundle when its files change
}

// NewViewCommand creates the view command.
func NewViewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ViewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "view <bundle>",
		Short: "Open the interactive viewer",
		Long: `Open an annotated document bundle in the interactive terminal
viewer.

The viewer renders the document with code chips, highlights, and memo
icons. Hover a chip for its toolbar, click a memo icon for its popover,
search with /, and toggle code colors with c. Press ? inside the viewer
for the full key reference.

With --watch the viewer reloads automatically when the bundle file or
its referenced document changes on disk.

Exit codes:
  0 - Viewer exited normally
  2 - Command error (missing bundle, invalid bundle, terminal failure)

Examples:
  marginalia view study.yaml
  marginalia view study.yaml --watch`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "reload when the bundle changes on disk")

	return cmd
}

func runView(opts *ViewOptions, bundlePath string) error {
	// Surface load problems with the usual exit discipline before the
	// terminal goes into the alternate screen.
	if _, err := loadBundle(bundlePath); err != nil {
		return err
	}

	if err := viewer.Run(bundlePath, viewer.Options{Watch: opts.Watch}); err != nil {
		return WrapExitError(ExitCommandError, "viewer failed", err)
	}
	return nil
}
