package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/marginalia/internal/bundle"
)

// Scenario defines a conformance test scenario.
// Scenarios validate the pipeline by rendering an annotated document,
// optionally scripting interaction events against the result, and
// asserting on the layout, the intent trace, and the final state.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Bundle is the annotated document under test, inlined: the same
	// document, codebook, code_spans, highlights, memos, and view
	// fields a bundle file carries.
	Bundle bundle.Bundle `yaml:",inline"`

	// Search optionally runs a query before the render pass and moves
	// the match cursor.
	Search *SearchStep `yaml:"search,omitempty"`

	// Events optionally scripts pointer and click traffic against the
	// rendered layout. The resulting intents are recorded and applied.
	Events []EventStep `yaml:"events,omitempty"`

	// Assertions validate the layout, trace, and final state.
	// See doc.go for the supported types.
	Assertions []Assertion `yaml:"assertions"`

	// Golden lists the surfaces golden tests compare: html, text,
	// trace. Empty defaults to trace only.
	Golden []string `yaml:"golden,omitempty"`

	// Session is an optional fixed session token for deterministic
	// traces. If empty, defaults to "test-session" for golden file
	// comparison.
	Session string `yaml:"session,omitempty"`

	// baseDir resolves document file references relative to the
	// scenario file. Set by LoadScenario.
	baseDir string
}

// SearchStep runs a query against the document before rendering.
type SearchStep struct {
	// Query is the literal text to find.
	Query string `yaml:"query"`

	// CaseSensitive matches the query exactly instead of folding case.
	CaseSensitive bool `yaml:"case_sensitive,omitempty"`

	// WholeWord requires matches to sit on word boundaries.
	WholeWord bool `yaml:"whole_word,omitempty"`

	// Current selects the focused match by advancing the cursor this
	// many times from the first match. Navigation wraps.
	Current int `yaml:"current,omitempty"`
}

// EventStep scripts one input against the rendered layout.
type EventStep struct {
	// Do names the event: hover, leave, click, toolbar, header_click,
	// selection, timer, reset.
	Do string `yaml:"do"`

	// Marker names the chip or icon addressed by hover, leave, click,
	// and toolbar steps. Resolved against the rendered layout by id.
	Marker string `yaml:"marker,omitempty"`

	// Action is the toolbar button for toolbar steps:
	// reassign, add_memo, delete.
	Action string `yaml:"action,omitempty"`

	// Seconds is the header timestamp for header_click steps, -1 for
	// a malformed header.
	Seconds int `yaml:"seconds,omitempty"`

	// Modifier holds ctrl/cmd during header_click steps.
	Modifier bool `yaml:"modifier,omitempty"`

	// Selecting is the new drag state for selection steps.
	Selecting bool `yaml:"selecting,omitempty"`
}

// Assertion validates the layout, the intent trace, or final state.
type Assertion struct {
	// Type specifies the assertion type. See doc.go for the list.
	Type string `yaml:"type"`

	// Mode is the expected layout mode (used by mode): plain or
	// transcript.
	Mode string `yaml:"mode,omitempty"`

	// Count is the expected number (used by fragment_count,
	// match_count, block_count).
	Count int `yaml:"count,omitempty"`

	// Spans is the expected "start-end" boundary list (used by
	// fragment_spans).
	Spans []string `yaml:"spans,omitempty"`

	// At is the rune offset addressed (used by style_at, marker_at).
	At int `yaml:"at,omitempty"`

	// Background is the expected winning layer (used by style_at):
	// none, code, highlight, search.
	Background string `yaml:"background,omitempty"`

	// Colors is the expected background band list (used by style_at).
	// Empty skips the check.
	Colors []string `yaml:"colors,omitempty"`

	// Underline is the expected underline span id (used by style_at).
	// "none" requires no underline; empty skips the check.
	Underline string `yaml:"underline,omitempty"`

	// ActiveMatch is the expected focused-match flag (used by
	// style_at).
	ActiveMatch bool `yaml:"active_match,omitempty"`

	// Kind is the expected marker kind (used by marker_at): code or
	// memo.
	Kind string `yaml:"kind,omitempty"`

	// ID is the expected marker id (used by marker_at). Empty matches
	// any marker of the kind at the offset.
	ID string `yaml:"id,omitempty"`

	// IDs is the expected unanchored memo id list (used by
	// unanchored). Order matters; an empty list requires an empty
	// side list.
	IDs []string `yaml:"ids,omitempty"`

	// Intents is the expected intent type sequence (used by
	// intent_trace). Exact match, in order.
	Intents []string `yaml:"intents,omitempty"`

	// ActiveCode / ActiveMemo are the expected selections (used by
	// final_view). Nil skips the check; an explicit "" requires the
	// selection cleared.
	ActiveCode *string `yaml:"active_code,omitempty"`
	ActiveMemo *string `yaml:"active_memo,omitempty"`

	// Codes / Highlights / Memos are the expected collection sizes
	// (used by final_count). Nil skips the check.
	Codes      *int `yaml:"codes,omitempty"`
	Highlights *int `yaml:"highlights,omitempty"`
	Memos      *int `yaml:"memos,omitempty"`
}

// Assertion type constants.
const (
	AssertRoundTrip     = "round_trip"
	AssertMode          = "mode"
	AssertFragmentCount = "fragment_count"
	AssertFragmentSpans = "fragment_spans"
	AssertStyleAt       = "style_at"
	AssertMarkerAt      = "marker_at"
	AssertUnanchored    = "unanchored"
	AssertMatchCount    = "match_count"
	AssertBlockCount    = "block_count"
	AssertIntentTrace   = "intent_trace"
	AssertFinalView     = "final_view"
	AssertFinalCount    = "final_count"
)

// Event step constants.
const (
	StepHover       = "hover"
	StepLeave       = "leave"
	StepClick       = "click"
	StepToolbar     = "toolbar"
	StepHeaderClick = "header_click"
	StepSelection   = "selection"
	StepTimer       = "timer"
	StepReset       = "reset"
)

// Golden surface constants.
const (
	GoldenHTML  = "html"
	GoldenText  = "text"
	GoldenTrace = "trace"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Document file references resolve relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	scenario.baseDir = filepath.Dir(path)
	return scenario, nil
}

// ParseScenario parses scenario YAML from memory. Document file
// references resolve relative to the working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	// CurrentMatch pre-set so an absent view field means "no focused
	// match" rather than match zero, same as bundle loading.
	var scenario Scenario
	scenario.Bundle.View.CurrentMatch = -1

	// Strict field validation catches typos like "assertion:" vs
	// "assertions:".
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Bundle.Document.Text == "" && s.Bundle.Document.File == "" {
		return fmt.Errorf("document text or file is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	// Validate the search step (if present)
	if s.Search != nil {
		if s.Search.Query == "" {
			return fmt.Errorf("search: query is required")
		}
		if s.Search.Current < 0 {
			return fmt.Errorf("search: current must be non-negative")
		}
	}

	// Validate event steps
	for i, step := range s.Events {
		if err := validateEvent(i, &step); err != nil {
			return err
		}
	}

	// Validate assertions
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	// Validate golden surfaces
	for _, surface := range s.Golden {
		switch surface {
		case GoldenHTML, GoldenText, GoldenTrace:
		default:
			return fmt.Errorf("golden: unknown surface %q", surface)
		}
	}

	return nil
}

// validateEvent validates a single event step based on its do verb.
func validateEvent(index int, e *EventStep) error {
	if e.Do == "" {
		return fmt.Errorf("events[%d]: do is required", index)
	}

	switch e.Do {
	case StepHover, StepLeave, StepClick, StepToolbar:
		if e.Marker == "" {
			return fmt.Errorf("events[%d]: marker is required for %s", index, e.Do)
		}
		if e.Do == StepToolbar {
			switch e.Action {
			case "reassign", "add_memo", "delete":
			case "":
				return fmt.Errorf("events[%d]: action is required for toolbar", index)
			default:
				return fmt.Errorf("events[%d]: unknown toolbar action %q", index, e.Action)
			}
		}
	case StepHeaderClick, StepSelection, StepTimer, StepReset:
		// No required fields.
	default:
		return fmt.Errorf("events[%d]: unknown event %q", index, e.Do)
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRoundTrip:
		// No required fields.
	case AssertMode:
		if a.Mode != "plain" && a.Mode != "transcript" {
			return fmt.Errorf("assertions[%d]: mode must be plain or transcript", index)
		}
	case AssertFragmentCount, AssertMatchCount, AssertBlockCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertFragmentSpans:
		if len(a.Spans) == 0 {
			return fmt.Errorf("assertions[%d]: spans list is required for fragment_spans", index)
		}
	case AssertStyleAt:
		if a.At < 0 {
			return fmt.Errorf("assertions[%d]: at must be non-negative for style_at", index)
		}
		switch a.Background {
		case "", "none", "code", "highlight", "search":
		default:
			return fmt.Errorf("assertions[%d]: unknown background %q", index, a.Background)
		}
	case AssertMarkerAt:
		if a.At < 0 {
			return fmt.Errorf("assertions[%d]: at must be non-negative for marker_at", index)
		}
		if a.Kind != "code" && a.Kind != "memo" {
			return fmt.Errorf("assertions[%d]: kind must be code or memo for marker_at", index)
		}
	case AssertUnanchored:
		// An empty ids list is meaningful: it requires no unanchored memos.
	case AssertIntentTrace:
		for _, name := range a.Intents {
			if !knownIntentName(name) {
				return fmt.Errorf("assertions[%d]: unknown intent type %q", index, name)
			}
		}
	case AssertFinalView:
		if a.ActiveCode == nil && a.ActiveMemo == nil {
			return fmt.Errorf("assertions[%d]: active_code or active_memo is required for final_view", index)
		}
	case AssertFinalCount:
		if a.Codes == nil && a.Highlights == nil && a.Memos == nil {
			return fmt.Errorf("assertions[%d]: codes, highlights, or memos is required for final_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
