package annotation

// Collections are the four independently-owned annotation sets consumed
// for one render pass. The engine reads them as a snapshot and never
// mutates them; ownership stays with the caller.
type Collections struct {
	Codes      []CodeSpan    `json:"codes,omitempty"`
	Highlights []Highlight   `json:"highlights,omitempty"`
	Memos      []Memo        `json:"memos,omitempty"`
	Matches    []SearchMatch `json:"matches,omitempty"`
}

// Total returns the combined annotation count across all four sets.
func (c Collections) Total() int {
	return len(c.Codes) + len(c.Highlights) + len(c.Memos) + len(c.Matches)
}

// Normalize flattens the four collections into one uniform slice.
//
// Order is fixed: codes, then highlights, then memos, then search
// matches, input order preserved within each collection. Downstream
// tie-breaks (stripe band order, marker order, narrowest-code ties) all
// key off this order, so it must not change.
//
// No filtering happens here. Unanchored memos are retained so the side
// list can show them; boundary and coverage computation excludes them
// via Annotation.Anchored. Search match indices are restamped from array
// position so the current-match pointer always agrees with the slice.
//
// Pure function: no side effects, inputs are not mutated.
func Normalize(in Collections) []Annotation {
	out := make([]Annotation, 0, in.Total())
	for _, cs := range in.Codes {
		out = append(out, NewCode(cs))
	}
	for _, h := range in.Highlights {
		out = append(out, NewHighlight(h))
	}
	for _, m := range in.Memos {
		out = append(out, NewMemo(m))
	}
	for i, sm := range in.Matches {
		sm.Index = i
		out = append(out, NewSearch(sm))
	}
	return out
}
