package annotation

// Span is a half-open rune range [Start, End) into a document.
//
// All offsets in this package are rune offsets, not byte offsets. The
// bundle loader normalizes text to NFC before any span is interpreted,
// so a given offset always addresses the same rune.
type Span struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Unanchored is the span of a memo that occupies no position in the
// document body. It never contributes boundaries or markers.
var Unanchored = Span{Start: -1, End: -1}

// NewSpan builds a span. Callers are expected to pass start <= end;
// out-of-order input is caught by bundle validation, not here.
func NewSpan(start, end int) Span {
	return Span{Start: start, End: end}
}

// Len returns the number of runes the span covers.
func (s Span) Len() int {
	return s.End - s.Start
}

// IsEmpty reports whether the span covers no runes.
func (s Span) IsEmpty() bool {
	return s.Start == s.End
}

// Contains reports whether other lies fully inside s. This is the
// coverage relation: s.Start <= other.Start && other.End <= s.End.
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// Overlaps reports whether the two spans share at least one rune.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// ClampTo clamps both endpoints into [0, n].
func (s Span) ClampTo(n int) Span {
	return Span{Start: clamp(s.Start, n), End: clamp(s.End, n)}
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v > n {
		return n
	}
	return v
}
