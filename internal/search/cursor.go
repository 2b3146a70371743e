package search

import "github.com/roach88/marginalia/internal/annotation"

// Cursor tracks the current match across a mutable match set.
//
// The index it reports is the CurrentMatch value the engine's view
// flags carry: -1 when there are no matches, otherwise a valid index
// into the match slice. Navigation wraps at both ends. Replacing the
// match set keeps the cursor valid by clamping rather than resetting,
// so refining a query does not throw the user back to the first hit.
type Cursor struct {
	matches []annotation.SearchMatch
	current int
}

// NewCursor returns a cursor positioned on the first match, or an
// empty cursor when there are none.
func NewCursor(matches []annotation.SearchMatch) *Cursor {
	c := &Cursor{current: -1}
	c.SetMatches(matches)
	return c
}

// SetMatches replaces the match set, clamping the current index into
// the new bounds. An empty set parks the cursor at -1; a previously
// empty cursor lands on the first match.
func (c *Cursor) SetMatches(matches []annotation.SearchMatch) {
	c.matches = matches
	switch {
	case len(matches) == 0:
		c.current = -1
	case c.current < 0:
		c.current = 0
	case c.current >= len(matches):
		c.current = len(matches) - 1
	}
}

// Len returns the number of matches.
func (c *Cursor) Len() int {
	return len(c.matches)
}

// Current returns the current match index, -1 when empty.
func (c *Cursor) Current() int {
	return c.current
}

// Match returns the current match, if any.
func (c *Cursor) Match() (annotation.SearchMatch, bool) {
	if c.current < 0 || c.current >= len(c.matches) {
		return annotation.SearchMatch{}, false
	}
	return c.matches[c.current], true
}

// Next advances to the following match, wrapping past the last back
// to the first, and returns the new index.
func (c *Cursor) Next() int {
	if len(c.matches) == 0 {
		return -1
	}
	c.current = (c.current + 1) % len(c.matches)
	return c.current
}

// Prev steps to the preceding match, wrapping past the first back to
// the last, and returns the new index.
func (c *Cursor) Prev() int {
	if len(c.matches) == 0 {
		return -1
	}
	c.current = (c.current - 1 + len(c.matches)) % len(c.matches)
	return c.current
}
