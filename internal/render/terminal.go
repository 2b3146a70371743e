package render

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/roach88/marginalia/internal/annotation"
	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/transcript"
)

// Theme declares the colors the terminal surface composites against.
type Theme struct {
	// Background is the opaque backdrop translucent tints blend over.
	Background string
	// Header colors transcript turn headers.
	Header string
	// MemoIcon colors the memo marker glyph.
	MemoIcon string
	// MatchText colors text on solid search backgrounds, which are
	// light enough to drown the default foreground.
	MatchText string
}

// DefaultTheme suits a dark terminal.
func DefaultTheme() Theme {
	return Theme{
		Background: "#1e1e1e",
		Header:     "#7aa2f7",
		MemoIcon:   "#ffd54f",
		MatchText:  "#1f1f1f",
	}
}

const (
	chipPrefix = "▎"
	memoIcon   = "◆"
)

// Segment maps a run of screen cells on one line back to the document.
// Marker runs carry the marker and a zero-length rune span at its
// anchor; text runs carry the half-open rune range they display.
type Segment struct {
	Cols   annotation.Span
	Runes  annotation.Span
	Marker *engine.Marker
}

// LineSpans holds one rendered line's segments in ascending column
// order. It is the viewer's hit-testing input: a mouse cell resolves
// to the segment whose Cols contain it.
type LineSpans []Segment

// Output couples the styled text with the hit-testing line map.
type Output struct {
	Text  string
	Lines []LineSpans
}

// TerminalRenderer renders layouts for a terminal viewport.
type TerminalRenderer struct {
	theme Theme
	lg    *lipgloss.Renderer
}

// TerminalOption configures a TerminalRenderer.
type TerminalOption func(*TerminalRenderer)

// WithTheme replaces the default theme.
func WithTheme(t Theme) TerminalOption {
	return func(r *TerminalRenderer) { r.theme = t }
}

// WithLipgloss renders through the given lipgloss renderer. The viewer
// passes its profile-detecting one so colors degrade with the terminal.
func WithLipgloss(lg *lipgloss.Renderer) TerminalOption {
	return func(r *TerminalRenderer) { r.lg = lg }
}

// NewTerminal creates a renderer. The default lipgloss renderer is
// pinned to true color so exports and golden files are byte-stable
// regardless of the environment the process runs in.
func NewTerminal(opts ...TerminalOption) *TerminalRenderer {
	lg := lipgloss.NewRenderer(io.Discard)
	lg.SetColorProfile(termenv.TrueColor)

	r := &TerminalRenderer{theme: DefaultTheme(), lg: lg}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render walks the fragment sequence once, emitting markers at their
// anchors and fragment text split at newlines and header edges. The
// emitted text is the document verbatim plus inline marker glyphs;
// the line map records which is which.
func (r *TerminalRenderer) Render(layout *engine.Layout) *Output {
	w := &termWriter{lines: []LineSpans{nil}}
	headers := headerSpans(layout.Blocks)

	for _, f := range layout.Fragments {
		for i := range f.Markers {
			r.marker(w, f.Markers[i])
		}
		r.fragmentText(w, f, headers)
	}
	return &Output{Text: w.b.String(), Lines: w.lines}
}

func headerSpans(blocks []transcript.Block) []annotation.Span {
	if len(blocks) == 0 {
		return nil
	}
	spans := make([]annotation.Span, len(blocks))
	for i, blk := range blocks {
		spans[i] = blk.Header
	}
	return spans
}

func (r *TerminalRenderer) marker(w *termWriter, m engine.Marker) {
	var styled string
	switch m.Kind {
	case engine.MarkerCode:
		st := r.lg.NewStyle().
			Foreground(lipgloss.Color(ParseHex(m.Color).Hex())).
			Bold(true)
		if m.Active {
			st = st.Reverse(true)
		}
		styled = st.Render(chipPrefix + m.Label)

	case engine.MarkerMemo:
		st := r.lg.NewStyle().Foreground(lipgloss.Color(r.theme.MemoIcon))
		if m.Active {
			st = st.Reverse(true)
		}
		styled = st.Render(memoIcon)

	default:
		return
	}

	mm := m
	w.run(styled, lipgloss.Width(styled), Segment{
		Runes:  annotation.NewSpan(m.Span.Start, m.Span.Start),
		Marker: &mm,
	})
}

// fragmentText emits one fragment's text, split so each piece sits
// uniformly inside or outside a header span.
func (r *TerminalRenderer) fragmentText(w *termWriter, f engine.StyledFragment, headers []annotation.Span) {
	runes := []rune(f.Text)

	pos := f.Start
	for pos < f.End {
		end := f.End
		for _, h := range headers {
			if h.Start > pos && h.Start < end {
				end = h.Start
			}
			if h.End > pos && h.End < end {
				end = h.End
			}
		}

		piece := annotation.NewSpan(pos, end)
		inHeader := false
		for _, h := range headers {
			if h.Contains(piece) {
				inHeader = true
				break
			}
		}

		r.piece(w, string(runes[pos-f.Start:end-f.Start]), pos, f.Style, inHeader)
		pos = end
	}
}

func (r *TerminalRenderer) piece(w *termWriter, piece string, start int, st engine.FragmentStyle, inHeader bool) {
	style := r.lg.NewStyle()
	if bg, ok := r.compositeBackground(st); ok {
		style = style.Background(lipgloss.Color(bg))
		if st.Background.Kind == engine.BackgroundSearch {
			style = style.Foreground(lipgloss.Color(r.theme.MatchText))
		}
	}
	if st.Underline != nil {
		style = style.Underline(true)
	}
	if inHeader {
		style = style.Foreground(lipgloss.Color(r.theme.Header)).Bold(true)
	}

	pos := start
	for i, part := range strings.Split(piece, "\n") {
		if i > 0 {
			w.newline()
			pos++ // the newline rune
		}
		if part == "" {
			continue
		}
		n := utf8.RuneCountInString(part)
		styled := style.Render(part)
		w.run(styled, lipgloss.Width(styled), Segment{
			Runes: annotation.NewSpan(pos, pos+n),
		})
		pos += n
	}
}

// compositeBackground flattens the resolved background to one opaque
// color. Terminals have no alpha, so tints composite over the theme
// background; stripe bands composite in covering order. Search
// backgrounds are already solid.
func (r *TerminalRenderer) compositeBackground(st engine.FragmentStyle) (string, bool) {
	bg := st.Background
	switch bg.Kind {
	case engine.BackgroundCode, engine.BackgroundHighlight:
		out := ParseHex(r.theme.Background)
		for _, c := range bg.Colors {
			out = Over(ParseHex(c), bg.Alpha, out)
		}
		return out.Hex(), true
	case engine.BackgroundSearch:
		return ParseHex(bg.Colors[0]).Hex(), true
	default:
		return "", false
	}
}

// termWriter accumulates styled runs and the per-line segment map.
type termWriter struct {
	b     strings.Builder
	lines []LineSpans
	col   int
}

func (w *termWriter) newline() {
	w.b.WriteByte('\n')
	w.lines = append(w.lines, nil)
	w.col = 0
}

func (w *termWriter) run(styled string, width int, seg Segment) {
	w.b.WriteString(styled)
	seg.Cols = annotation.NewSpan(w.col, w.col+width)
	last := len(w.lines) - 1
	w.lines[last] = append(w.lines[last], seg)
	w.col += width
}
