package engine

import (
	"github.com/roach88/marginalia/internal/annotation"
)

// Fragment is a maximal subrange between two adjacent cut points: the
// atomic unit of rendering. Fragments are derived on every pass and
// carry no identity across passes.
type Fragment struct {
	annotation.Span
	Text string `json:"text"`
	// Covering holds every annotation whose clamped range fully contains
	// the fragment, in normalization order. Drives background styling.
	Covering []annotation.Annotation `json:"covering,omitempty"`
	// Starting holds every annotation anchored exactly at the fragment
	// start. Drives marker placement, never backgrounds.
	Starting []annotation.Annotation `json:"starting,omitempty"`
}

// Plain reports whether the fragment renders as bare text. Plain
// fragments get no interactive wrapper; ordinary prose must not pay for
// annotation machinery it does not use.
func (f Fragment) Plain() bool {
	return len(f.Covering) == 0 && len(f.Starting) == 0
}

// Fragmentize splits doc into fragments between consecutive cut points
// and attaches covering/starting sets by linear filter over anns.
//
// Guarantees, for any input: the fragment list is ordered, contiguous,
// non-overlapping, and concatenating every Text reproduces doc exactly.
// An empty document yields no fragments.
func Fragmentize(doc string, anns []annotation.Annotation) []Fragment {
	runes := []rune(doc)
	n := len(runes)
	cuts := Boundaries(anns, n)

	if len(cuts) < 2 {
		return nil
	}

	frags := make([]Fragment, 0, len(cuts)-1)
	for i := 0; i+1 < len(cuts); i++ {
		f := Fragment{
			Span: annotation.NewSpan(cuts[i], cuts[i+1]),
			Text: string(runes[cuts[i]:cuts[i+1]]),
		}
		attach(&f, anns, n)
		frags = append(frags, f)
	}
	return frags
}

// attach computes the covering and starting sets for one fragment.
// Marker-only annotations never cover anything; they can only start.
func attach(f *Fragment, anns []annotation.Annotation, n int) {
	for _, ann := range anns {
		if !ann.Anchored() {
			continue
		}
		s, ok := renderSpan(ann.Span(), n)
		if !ok {
			continue
		}
		if !s.IsEmpty() && s.Contains(f.Span) {
			f.Covering = append(f.Covering, ann)
		}
		if s.Start == f.Start {
			f.Starting = append(f.Starting, ann)
		}
	}
}
