// Package render turns a resolved layout into presentable output.
//
// ARCHITECTURE: One Layout, Two Surfaces
//
// Both renderers consume the engine's Layout read-only and walk the
// fragment sequence in document order, so their output preserves the
// round-trip invariant: the visible text is exactly the document.
//
// HTML emits classed inline spans with inline CSS. Plain fragments
// become bare escaped text nodes with no wrapper. Transcript structure
// overlays the fragment stream: block and header tags open and close
// at their absolute offsets even when a fragment straddles them, which
// keeps the fragmenter unaware of blocking.
//
// Terminal emits lipgloss-styled runs plus a line map for hit-testing.
// Terminals have no alpha channel, so translucent tints are composited
// over the theme background with go-colorful; striped multi-code
// backgrounds collapse to the bands composited in covering order. The
// line map records, per rendered line, which screen columns hold which
// rune offsets and which hold markers, so the viewer can translate a
// mouse cell back into the document.
package render
