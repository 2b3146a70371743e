package engine

import (
	"sort"

	"github.com/roach88/marginalia/internal/annotation"
)

// renderSpan clamps an annotation span into [0, n] and reports whether
// the annotation participates in fragmentation at all.
//
// Three cases:
//   - spanned and still non-empty after clamping: participates normally
//   - authored zero-length (marker-only) at a valid offset: participates
//     as a single cut point so a fragment can host its marker
//   - degenerate (collapsed to empty by clamping, or a marker-only point
//     outside the document): does not participate
func renderSpan(s annotation.Span, n int) (annotation.Span, bool) {
	c := s.ClampTo(n)
	if s.IsEmpty() {
		// Marker-only annotations must be authored in range; a clamped
		// point means the author placed it outside the document.
		return c, c == s
	}
	if c.IsEmpty() {
		return c, false
	}
	return c, true
}

// Boundaries derives the ascending cut-point set for a document of n
// runes: {0, n} plus every participating annotation edge clamped into
// [0, n], deduplicated.
//
// Unanchored memos contribute nothing. Marker-only annotations
// contribute their single point and no second edge.
func Boundaries(anns []annotation.Annotation, n int) []int {
	cuts := map[int]struct{}{0: {}, n: {}}
	for _, ann := range anns {
		if !ann.Anchored() {
			continue
		}
		s, ok := renderSpan(ann.Span(), n)
		if !ok {
			continue
		}
		cuts[s.Start] = struct{}{}
		if !s.IsEmpty() {
			cuts[s.End] = struct{}{}
		}
	}

	out := make([]int, 0, len(cuts))
	for c := range cuts {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}
