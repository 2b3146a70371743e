package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/marginalia/internal/annotation"
	"github.com/roach88/marginalia/internal/engine"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
}

// FragmentInfo is one row of the fragment table.
type FragmentInfo struct {
	Index    int      `json:"index"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Preview  string   `json:"preview"`
	Covering []string `json:"covering,omitempty"`
	Starting []string `json:"starting,omitempty"`
}

// CodeCount is the span tally for one codebook entry.
type CodeCount struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// InspectResult holds the overall inspection report.
type InspectResult struct {
	File       string         `json:"file"`
	Mode       string         `json:"mode"`
	Length     int            `json:"length"`
	Blocks     int            `json:"blocks,omitempty"`
	Fragments  []FragmentInfo `json:"fragments"`
	Codes      []CodeCount    `json:"codes,omitempty"`
	Highlights int            `json:"highlights"`
	Memos      int            `json:"memos"`
	Unanchored int            `json:"unanchored"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <bundle>",
		Short: "Show the resolved layout structure",
		Long: `Render an annotated document bundle and report its resolved
structure: the document classification, the fragment table with rune
offsets and the annotations covering or starting at each fragment, and
per-code span tallies.

Exit codes:
  0 - Inspection succeeded
  2 - Command error (missing bundle, invalid bundle)

Examples:
  marginalia inspect study.yaml
  marginalia inspect study.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	return cmd
}

const previewRunes = 32

func runInspect(opts *InspectOptions, bundlePath string, cmd *cobra.Command) error {
	b, err := loadBundle(bundlePath)
	if err != nil {
		return err
	}

	layout, err := engine.New().Render(b.Text(), b.Codebook, b.Collections(), b.View)
	if err != nil {
		return WrapExitError(ExitCommandError, "render failed", err)
	}

	result := buildInspectResult(bundlePath, b.Codebook, layout)
	result.Highlights = len(b.Highlights)
	result.Memos = len(b.Memos)

	f := formatterFor(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if opts.Format == "json" {
		return f.Success(result)
	}
	outputInspectText(cmd.OutOrStdout(), result)
	return nil
}

func buildInspectResult(file string, cb annotation.Codebook, layout *engine.Layout) InspectResult {
	result := InspectResult{
		File:       file,
		Mode:       layout.Mode.String(),
		Length:     layout.Length,
		Blocks:     len(layout.Blocks),
		Fragments:  make([]FragmentInfo, 0, len(layout.Fragments)),
		Unanchored: len(layout.Unanchored),
	}

	codeCounts := make(map[string]int)
	for _, frag := range layout.Fragments {
		info := FragmentInfo{
			Index:   len(result.Fragments),
			Start:   frag.Start,
			End:     frag.End,
			Preview: preview(frag.Text),
		}
		for _, a := range frag.Covering {
			info.Covering = append(info.Covering, annotationRef(a))
		}
		for _, a := range frag.Starting {
			info.Starting = append(info.Starting, annotationRef(a))
			if a.Kind == annotation.KindCode {
				codeCounts[a.Code.CodeID]++
			}
		}
		result.Fragments = append(result.Fragments, info)
	}

	// Stable tally order so successive runs diff cleanly.
	ids := make([]string, 0, len(codeCounts))
	for id := range codeCounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		result.Codes = append(result.Codes, CodeCount{
			Code:  id,
			Name:  cb.Resolve(id).Name,
			Count: codeCounts[id],
		})
	}

	return result
}

// annotationRef formats one covering or starting annotation as
// "kind:id" for the table.
func annotationRef(a annotation.Annotation) string {
	return a.Kind.String() + ":" + a.ID()
}

// preview truncates fragment text to a single displayable line.
func preview(text string) string {
	runes := []rune(flatten(text))
	if len(runes) > previewRunes {
		return string(runes[:previewRunes-1]) + "…"
	}
	return string(runes)
}

func outputInspectText(w io.Writer, result InspectResult) {
	fmt.Fprintf(w, "%s: %s, %d rune(s)", result.File, result.Mode, result.Length)
	if result.Blocks > 0 {
		fmt.Fprintf(w, ", %d block(s)", result.Blocks)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fragments:")
	for _, frag := range result.Fragments {
		var refs []string
		if len(frag.Covering) > 0 {
			refs = append(refs, "covering="+strings.Join(frag.Covering, ","))
		}
		if len(frag.Starting) > 0 {
			refs = append(refs, "starting="+strings.Join(frag.Starting, ","))
		}
		fmt.Fprintf(w, "  %3d  [%d,%d)  %-34q  %s\n",
			frag.Index, frag.Start, frag.End, frag.Preview, strings.Join(refs, " "))
	}

	if len(result.Codes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Codes:")
		for _, c := range result.Codes {
			name := c.Name
			if name == "" {
				name = "-"
			}
			fmt.Fprintf(w, "  %-16s %-20s %d span(s)\n", c.Code, name, c.Count)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d highlight(s), %d memo(s), %d unanchored\n",
		result.Highlights, result.Memos, result.Unanchored)
}
