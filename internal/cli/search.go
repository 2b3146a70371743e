package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/roach88/marginalia/internal/search"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Case    bool // case sensitive matching
	Word    bool // whole word matching
	Context int  // context runes shown around each match
}

// MatchResult is one match with its context snippet.
type MatchResult struct {
	Index   int    `json:"index"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Snippet string `json:"snippet"`
}

// SearchResult holds the overall search result.
type SearchResult struct {
	Query   string        `json:"query"`
	Matches []MatchResult `json:"matches"`
	Total   int           `json:"total"`
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <bundle> <query>",
		Short: "Find text in a document",
		Long: `Search an annotated document bundle for literal text and print every
match with its rune offsets and surrounding context.

Matching folds case unless --case is given. --word restricts matches
to word boundaries, so "cat" stops matching "concatenate".

Exit codes:
  0 - Search ran (matches found or not)
  2 - Command error (missing bundle, invalid bundle)

Examples:
  marginalia search study.yaml "trust"
  marginalia search study.yaml cat --word
  marginalia search study.yaml "the" --context 40 --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Case, "case", false, "case sensitive matching")
	cmd.Flags().BoolVar(&opts.Word, "word", false, "whole word matching")
	cmd.Flags().IntVar(&opts.Context, "context", 20, "context runes around each match")

	return cmd
}

func runSearch(opts *SearchOptions, bundlePath, query string, cmd *cobra.Command) error {
	if opts.Context < 0 {
		return NewExitError(ExitCommandError, "context must be non-negative")
	}

	b, err := loadBundle(bundlePath)
	if err != nil {
		return err
	}

	text := b.Text()
	matches := search.Find(text, query, search.Options{
		CaseSensitive: opts.Case,
		WholeWord:     opts.Word,
	})

	runes := []rune(text)
	result := SearchResult{
		Query:   query,
		Matches: make([]MatchResult, 0, len(matches)),
		Total:   len(matches),
	}
	for _, m := range matches {
		result.Matches = append(result.Matches, MatchResult{
			Index:   m.Index,
			Start:   m.Start,
			End:     m.End,
			Snippet: snippet(runes, m.Start, m.End, opts.Context),
		})
	}

	f := formatterFor(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if opts.Format == "json" {
		return f.Success(result)
	}
	return outputSearchText(cmd.OutOrStdout(), result, runes, opts)
}

// snippet cuts the context window around one match, flattening line
// breaks so every match prints on one line.
func snippet(runes []rune, start, end, context int) string {
	lo := start - context
	if lo < 0 {
		lo = 0
	}
	hi := end + context
	if hi > len(runes) {
		hi = len(runes)
	}
	return flatten(string(runes[lo:hi]))
}

func flatten(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r == '\n' || r == '\r' || r == '\t' {
			out[i] = ' '
		}
	}
	return string(out)
}

func outputSearchText(w io.Writer, result SearchResult, runes []rune, opts *SearchOptions) error {
	if result.Total == 0 {
		fmt.Fprintf(w, "no matches for %q\n", result.Query)
		return nil
	}

	// The styled snippet highlights the matched runes in place;
	// recompute the window so the match boundary is known.
	var hl lipgloss.Style
	useColor := colorEnabled(w, opts.Color)
	if useColor {
		r := lipgloss.NewRenderer(io.Discard)
		r.SetColorProfile(termenv.TrueColor)
		hl = r.NewStyle().Reverse(true)
	}

	fmt.Fprintf(w, "%d match(es) for %q\n", result.Total, result.Query)
	for _, m := range result.Matches {
		line := m.Snippet
		if useColor {
			lo := m.Start - opts.Context
			if lo < 0 {
				lo = 0
			}
			hi := m.End + opts.Context
			if hi > len(runes) {
				hi = len(runes)
			}
			prefix := flatten(string(runes[lo:m.Start]))
			match := flatten(string(runes[m.Start:m.End]))
			suffix := flatten(string(runes[m.End:hi]))
			line = prefix + hl.Render(match) + suffix
		}
		fmt.Fprintf(w, "%4d  [%d,%d)  %s\n", m.Index+1, m.Start, m.End, line)
	}
	return nil
}
