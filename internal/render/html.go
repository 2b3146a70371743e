package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/transcript"
)

// HTML renders a layout as an HTML fragment.
//
// Fragment text nodes are HTML-escaped; plain fragments stay bare so
// ordinary prose produces no wrapper elements. Styled fragments become
// classed spans with inline CSS and a data-span range. Markers render
// as inline spans carrying data-id, so a host page can wire clicks
// back to annotation ids. The article preserves whitespace, which is
// what keeps paragraph breaks visible in plain mode.
//
// Transcript structure is overlaid positionally: turn and header spans
// open and close at their absolute offsets while fragments flow
// through them, splitting a fragment's text across the tag boundary
// when it straddles one.
func HTML(layout *engine.Layout) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<article class="document" data-mode="%s" style="white-space: pre-wrap">`, layout.Mode)

	w := &htmlWriter{b: &b, events: structureEvents(layout.Blocks)}
	for _, f := range layout.Fragments {
		w.fragment(f)
	}
	w.flush(layout.Length)
	b.WriteString(`</article>`)

	if len(layout.Unanchored) > 0 {
		b.WriteString("\n<aside class=\"unanchored-memos\">")
		for _, m := range layout.Unanchored {
			fmt.Fprintf(&b, `<span class="memo-entry" data-id="%s">◆ %s</span>`,
				html.EscapeString(m.ID), html.EscapeString(m.Title))
		}
		b.WriteString(`</aside>`)
	}
	b.WriteString("\n")
	return b.String()
}

type eventKind int

const (
	openBlock eventKind = iota + 1
	closeHeader
	closeBlock
)

// structEvent is one structural tag transition at an absolute offset.
type structEvent struct {
	pos   int
	kind  eventKind
	block transcript.Block
}

// structureEvents flattens the block list into an ordered tag stream:
// per block, the turn plus header open at the block start, the header
// closes at its end, the turn closes at the block end. Blocks are
// ordered and abut, so the slice is position-sorted with each close
// preceding the next open.
func structureEvents(blocks []transcript.Block) []structEvent {
	var evs []structEvent
	for _, blk := range blocks {
		evs = append(evs,
			structEvent{pos: blk.Span.Start, kind: openBlock, block: blk},
			structEvent{pos: blk.Header.End, kind: closeHeader, block: blk},
			structEvent{pos: blk.Span.End, kind: closeBlock, block: blk},
		)
	}
	return evs
}

type htmlWriter struct {
	b      *strings.Builder
	events []structEvent
	next   int
}

// flush fires every structural transition at or before pos.
func (w *htmlWriter) flush(pos int) {
	for w.next < len(w.events) && w.events[w.next].pos <= pos {
		ev := w.events[w.next]
		w.next++
		switch ev.kind {
		case openBlock:
			w.b.WriteString(`<span class="turn">`)
			w.openHeader(ev.block)
		case closeHeader, closeBlock:
			w.b.WriteString(`</span>`)
		}
	}
}

func (w *htmlWriter) openHeader(blk transcript.Block) {
	w.b.WriteString(`<span class="turn-header"`)
	if blk.Speaker != "" {
		fmt.Fprintf(w.b, ` data-speaker="%s"`, html.EscapeString(blk.Speaker))
	}
	if blk.Seconds >= 0 {
		fmt.Fprintf(w.b, ` data-seconds="%d"`, blk.Seconds)
	}
	w.b.WriteString(`>`)
}

func (w *htmlWriter) fragment(f engine.StyledFragment) {
	w.flush(f.Start)
	for _, m := range f.Markers {
		w.marker(m)
	}

	styled := f.Style.Background.Kind != engine.BackgroundNone || f.Style.Underline != nil
	runes := []rune(f.Text)

	// Emit the text in pieces so structural tags land at their exact
	// offsets even mid-fragment. flush keeps the invariant that the
	// next pending event sits strictly past pos.
	pos := f.Start
	for pos < f.End {
		end := f.End
		if w.next < len(w.events) && w.events[w.next].pos < end {
			end = w.events[w.next].pos
		}
		w.text(string(runes[pos-f.Start:end-f.Start]), f, styled)
		pos = end
		w.flush(pos)
	}
}

func (w *htmlWriter) text(piece string, f engine.StyledFragment, styled bool) {
	if piece == "" {
		return
	}
	escaped := html.EscapeString(piece)
	if !styled {
		w.b.WriteString(escaped)
		return
	}

	fmt.Fprintf(w.b, `<span class="fragment" data-span="%d-%d"`, f.Start, f.End)
	if f.Style.ActiveMatch {
		w.b.WriteString(` data-match="active"`)
	}
	if css := fragmentCSS(f.Style); css != "" {
		fmt.Fprintf(w.b, ` style="%s"`, css)
	}
	w.b.WriteString(`>`)
	w.b.WriteString(escaped)
	w.b.WriteString(`</span>`)
}

func (w *htmlWriter) marker(m engine.Marker) {
	switch m.Kind {
	case engine.MarkerCode:
		cls := "marker marker-code"
		if m.Active {
			cls += " marker-active"
		}
		fmt.Fprintf(w.b, `<span class="%s" data-id="%s" style="background: %s">%s</span>`,
			cls, html.EscapeString(m.ID), ParseHex(m.Color).Hex(), html.EscapeString(m.Label))

	case engine.MarkerMemo:
		cls := "marker marker-memo"
		if m.Active {
			cls += " marker-active"
		}
		fmt.Fprintf(w.b, `<span class="%s" data-id="%s" title="%s">◆</span>`,
			cls, html.EscapeString(m.ID), html.EscapeString(m.Label))
	}
}

// fragmentCSS composes the inline rules for a styled fragment. Code
// and highlight tints are translucent rgba fills; a multi-code stack
// becomes a hard-stop gradient; search backgrounds are solid. The
// dashed underline rides along regardless of which background won.
func fragmentCSS(st engine.FragmentStyle) string {
	var rules []string
	bg := st.Background
	switch bg.Kind {
	case engine.BackgroundCode:
		if len(bg.Colors) == 1 {
			rules = append(rules, "background: "+CSSRGBA(bg.Colors[0], bg.Alpha))
		} else {
			rules = append(rules, "background: "+stripeGradient(bg.Colors, bg.Alpha))
		}
	case engine.BackgroundHighlight:
		rules = append(rules, "background: "+CSSRGBA(bg.Colors[0], bg.Alpha))
	case engine.BackgroundSearch:
		rules = append(rules, "background: "+ParseHex(bg.Colors[0]).Hex())
	}
	if st.Underline != nil {
		rules = append(rules, "border-bottom: 2px dashed "+ParseHex(st.Underline.Color).Hex())
	}
	return strings.Join(rules, "; ")
}

// stripeGradient builds the horizontal band gradient, one equal band
// per visible code in covering order, with hard stops between bands.
func stripeGradient(colors []string, alpha float64) string {
	n := len(colors)
	stops := make([]string, 0, 2*n)
	for i, c := range colors {
		rgba := CSSRGBA(c, alpha)
		stops = append(stops,
			fmt.Sprintf("%s %s", rgba, bandPercent(i, n)),
			fmt.Sprintf("%s %s", rgba, bandPercent(i+1, n)),
		)
	}
	return "linear-gradient(to bottom, " + strings.Join(stops, ", ") + ")"
}

func bandPercent(i, n int) string {
	return fmt.Sprintf("%.2f%%", float64(i)*100/float64(n))
}
