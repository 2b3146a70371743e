package harness

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/roach88/marginalia/internal/interaction"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string               // Assertion type for categorization
	Expected string               // Human-readable expected outcome
	Actual   string               // Human-readable actual outcome
	Trace    []interaction.Intent // Intent trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	// Intent trace for context, when the scenario produced one
	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nIntent trace:\n")
		for i, in := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", i+1, in.Type, in.ID)
		}
	}

	return buf.String()
}

// knownIntentName reports whether s names an intent type.
func knownIntentName(s string) bool {
	_, ok := interaction.ParseIntentType(s)
	return ok
}

// assertRoundTrip checks that concatenating the fragment texts
// reproduces the document exactly.
func assertRoundTrip(r *Result) error {
	expected := r.State.Text
	actual := r.Layout.Text()
	if actual == expected {
		return nil
	}

	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "document",
		ToFile:   "fragments",
		Context:  2,
	})
	return &AssertionError{
		Type:     AssertRoundTrip,
		Expected: "fragment concatenation reproduces the document",
		Actual:   "texts differ:\n" + diff,
	}
}

// assertMode checks the detected layout mode.
func assertMode(r *Result, assertion Assertion) error {
	actual := r.Layout.Mode.String()
	if actual == assertion.Mode {
		return nil
	}
	return &AssertionError{
		Type:     AssertMode,
		Expected: fmt.Sprintf("mode %s", assertion.Mode),
		Actual:   fmt.Sprintf("mode %s", actual),
	}
}

// assertFragmentCount checks the number of fragments.
func assertFragmentCount(r *Result, assertion Assertion) error {
	actual := len(r.Layout.Fragments)
	if actual == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertFragmentCount,
		Expected: fmt.Sprintf("%d fragments", assertion.Count),
		Actual:   fmt.Sprintf("%d fragments", actual),
	}
}

// assertFragmentSpans checks the exact fragment boundary list.
func assertFragmentSpans(r *Result, assertion Assertion) error {
	actual := make([]string, len(r.Layout.Fragments))
	for i, f := range r.Layout.Fragments {
		actual[i] = fmt.Sprintf("%d-%d", f.Start, f.End)
	}

	if fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", assertion.Spans) {
		return nil
	}
	return &AssertionError{
		Type:     AssertFragmentSpans,
		Expected: fmt.Sprintf("fragments %v", assertion.Spans),
		Actual:   fmt.Sprintf("fragments %v", actual),
	}
}

// assertStyleAt checks the resolved style of the fragment covering a
// rune offset. Only the fields the assertion specifies are compared,
// except the focused-match flag which always is.
func assertStyleAt(r *Result, assertion Assertion) error {
	for _, f := range r.Layout.Fragments {
		if assertion.At < f.Start || assertion.At >= f.End {
			continue
		}
		st := f.Style

		if assertion.Background != "" && st.Background.Kind.String() != assertion.Background {
			return &AssertionError{
				Type:     AssertStyleAt,
				Expected: fmt.Sprintf("background %s at offset %d", assertion.Background, assertion.At),
				Actual:   fmt.Sprintf("background %s", st.Background.Kind),
			}
		}

		if len(assertion.Colors) > 0 {
			if fmt.Sprintf("%v", st.Background.Colors) != fmt.Sprintf("%v", assertion.Colors) {
				return &AssertionError{
					Type:     AssertStyleAt,
					Expected: fmt.Sprintf("colors %v at offset %d", assertion.Colors, assertion.At),
					Actual:   fmt.Sprintf("colors %v", st.Background.Colors),
				}
			}
		}

		switch assertion.Underline {
		case "":
			// Not checked.
		case "none":
			if st.Underline != nil {
				return &AssertionError{
					Type:     AssertStyleAt,
					Expected: fmt.Sprintf("no underline at offset %d", assertion.At),
					Actual:   fmt.Sprintf("underline from %s", st.Underline.SpanID),
				}
			}
		default:
			if st.Underline == nil {
				return &AssertionError{
					Type:     AssertStyleAt,
					Expected: fmt.Sprintf("underline from %s at offset %d", assertion.Underline, assertion.At),
					Actual:   "no underline",
				}
			}
			if st.Underline.SpanID != assertion.Underline {
				return &AssertionError{
					Type:     AssertStyleAt,
					Expected: fmt.Sprintf("underline from %s at offset %d", assertion.Underline, assertion.At),
					Actual:   fmt.Sprintf("underline from %s", st.Underline.SpanID),
				}
			}
		}

		if st.ActiveMatch != assertion.ActiveMatch {
			return &AssertionError{
				Type:     AssertStyleAt,
				Expected: fmt.Sprintf("active_match %t at offset %d", assertion.ActiveMatch, assertion.At),
				Actual:   fmt.Sprintf("active_match %t", st.ActiveMatch),
			}
		}

		return nil
	}

	return &AssertionError{
		Type:     AssertStyleAt,
		Expected: fmt.Sprintf("a fragment covering offset %d", assertion.At),
		Actual:   "no fragment covers the offset",
	}
}

// assertMarkerAt checks that a marker of the given kind (and id, when
// specified) anchors at a rune offset.
func assertMarkerAt(r *Result, assertion Assertion) error {
	var at []string
	for _, m := range r.Layout.AllMarkers() {
		if m.Span.Start != assertion.At {
			continue
		}
		if m.Kind.String() == assertion.Kind && (assertion.ID == "" || m.ID == assertion.ID) {
			return nil
		}
		at = append(at, fmt.Sprintf("%s %s", m.Kind, m.ID))
	}

	want := fmt.Sprintf("%s marker at offset %d", assertion.Kind, assertion.At)
	if assertion.ID != "" {
		want = fmt.Sprintf("%s marker %s at offset %d", assertion.Kind, assertion.ID, assertion.At)
	}
	actual := "no markers at the offset"
	if len(at) > 0 {
		actual = fmt.Sprintf("markers at the offset: %s", strings.Join(at, ", "))
	}
	return &AssertionError{
		Type:     AssertMarkerAt,
		Expected: want,
		Actual:   actual,
	}
}

// assertUnanchored checks the unanchored memo side list, in order.
func assertUnanchored(r *Result, assertion Assertion) error {
	actual := make([]string, len(r.Layout.Unanchored))
	for i, m := range r.Layout.Unanchored {
		actual[i] = m.ID
	}

	if fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", assertion.IDs) {
		return nil
	}
	return &AssertionError{
		Type:     AssertUnanchored,
		Expected: fmt.Sprintf("unanchored memos %v", assertion.IDs),
		Actual:   fmt.Sprintf("unanchored memos %v", actual),
	}
}

// assertMatchCount checks the number of search matches.
func assertMatchCount(r *Result, assertion Assertion) error {
	actual := len(r.Layout.Matches)
	if actual == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertMatchCount,
		Expected: fmt.Sprintf("%d matches", assertion.Count),
		Actual:   fmt.Sprintf("%d matches", actual),
	}
}

// assertBlockCount checks the number of transcript blocks.
func assertBlockCount(r *Result, assertion Assertion) error {
	actual := len(r.Layout.Blocks)
	if actual == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertBlockCount,
		Expected: fmt.Sprintf("%d blocks", assertion.Count),
		Actual:   fmt.Sprintf("%d blocks", actual),
	}
}

// assertIntentTrace checks the emitted intent type sequence, exactly
// and in order.
func assertIntentTrace(r *Result, assertion Assertion) error {
	actual := make([]string, len(r.Intents))
	for i, in := range r.Intents {
		actual[i] = in.Type.String()
	}

	if fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", assertion.Intents) {
		return nil
	}
	return &AssertionError{
		Type:     AssertIntentTrace,
		Expected: fmt.Sprintf("intents %v", assertion.Intents),
		Actual:   fmt.Sprintf("intents %v", actual),
		Trace:    r.Intents,
	}
}

// assertFinalView checks selection state after intents applied. Only
// the fields the assertion specifies are compared.
func assertFinalView(r *Result, assertion Assertion) error {
	if assertion.ActiveCode != nil && r.State.View.ActiveCode != *assertion.ActiveCode {
		return &AssertionError{
			Type:     AssertFinalView,
			Expected: fmt.Sprintf("active_code %q", *assertion.ActiveCode),
			Actual:   fmt.Sprintf("active_code %q", r.State.View.ActiveCode),
			Trace:    r.Intents,
		}
	}
	if assertion.ActiveMemo != nil && r.State.View.ActiveMemo != *assertion.ActiveMemo {
		return &AssertionError{
			Type:     AssertFinalView,
			Expected: fmt.Sprintf("active_memo %q", *assertion.ActiveMemo),
			Actual:   fmt.Sprintf("active_memo %q", r.State.View.ActiveMemo),
			Trace:    r.Intents,
		}
	}
	return nil
}

// assertFinalCount checks collection sizes after intents applied.
// Only the fields the assertion specifies are compared.
func assertFinalCount(r *Result, assertion Assertion) error {
	check := func(name string, want *int, got int) error {
		if want == nil || got == *want {
			return nil
		}
		return &AssertionError{
			Type:     AssertFinalCount,
			Expected: fmt.Sprintf("%d %s", *want, name),
			Actual:   fmt.Sprintf("%d %s", got, name),
			Trace:    r.Intents,
		}
	}

	if err := check("code spans", assertion.Codes, len(r.State.Input.Codes)); err != nil {
		return err
	}
	if err := check("highlights", assertion.Highlights, len(r.State.Input.Highlights)); err != nil {
		return err
	}
	return check("memos", assertion.Memos, len(r.State.Input.Memos))
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns failure messages; an empty slice means every assertion held.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertRoundTrip:
			err = assertRoundTrip(result)
		case AssertMode:
			err = assertMode(result, assertion)
		case AssertFragmentCount:
			err = assertFragmentCount(result, assertion)
		case AssertFragmentSpans:
			err = assertFragmentSpans(result, assertion)
		case AssertStyleAt:
			err = assertStyleAt(result, assertion)
		case AssertMarkerAt:
			err = assertMarkerAt(result, assertion)
		case AssertUnanchored:
			err = assertUnanchored(result, assertion)
		case AssertMatchCount:
			err = assertMatchCount(result, assertion)
		case AssertBlockCount:
			err = assertBlockCount(result, assertion)
		case AssertIntentTrace:
			err = assertIntentTrace(result, assertion)
		case AssertFinalView:
			err = assertFinalView(result, assertion)
		case AssertFinalCount:
			err = assertFinalCount(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
