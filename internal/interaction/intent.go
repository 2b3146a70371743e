package interaction

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/marginalia/internal/annotation"
)

// IntentType distinguishes between intent kinds.
type IntentType int

const (
	// IntentToggleCode flips the active-code selection.
	IntentToggleCode IntentType = iota + 1
	// IntentToggleMemo flips the active-memo selection.
	IntentToggleMemo
	// IntentOpenMemo asks for the memo edit surface near an anchor.
	IntentOpenMemo
	// IntentReassignCode asks for a span's code to be reassigned.
	IntentReassignCode
	// IntentCreateMemo asks for a new memo attached to a span.
	IntentCreateMemo
	// IntentDeleteSpan asks for a span's removal.
	IntentDeleteSpan
	// IntentSeek asks the audio collaborator to seek.
	IntentSeek
)

// String returns the intent type name used in traces.
func (t IntentType) String() string {
	switch t {
	case IntentToggleCode:
		return "toggle_code"
	case IntentToggleMemo:
		return "toggle_memo"
	case IntentOpenMemo:
		return "open_memo"
	case IntentReassignCode:
		return "reassign_code"
	case IntentCreateMemo:
		return "create_memo"
	case IntentDeleteSpan:
		return "delete_span"
	case IntentSeek:
		return "seek"
	default:
		return "unknown"
	}
}

// ParseIntentType maps a wire name back to the type.
func ParseIntentType(s string) (IntentType, bool) {
	switch s {
	case "toggle_code":
		return IntentToggleCode, true
	case "toggle_memo":
		return IntentToggleMemo, true
	case "open_memo":
		return IntentOpenMemo, true
	case "reassign_code":
		return IntentReassignCode, true
	case "create_memo":
		return IntentCreateMemo, true
	case "delete_span":
		return IntentDeleteSpan, true
	case "seek":
		return IntentSeek, true
	default:
		return 0, false
	}
}

// MarshalJSON encodes the type as its wire name.
func (t IntentType) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", t.String())), nil
}

// UnmarshalJSON decodes a wire name. Recorded traces round-trip
// through JSON for replay.
func (t *IntentType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := ParseIntentType(s)
	if !ok {
		return fmt.Errorf("unknown intent type %q", s)
	}
	*t = parsed
	return nil
}

// Intent is a signal emitted to collaborators. Type selects the
// variant; the remaining fields are populated per type. Every intent
// carries the sequence number its emitting step drew from the logical
// clock and the controller's session token, so a recorded trace is
// totally ordered and attributable to one viewer session.
type Intent struct {
	Type    IntentType `json:"type" yaml:"type"`
	Seq     int64      `json:"seq" yaml:"seq"`
	Session string     `json:"session" yaml:"session"`

	// ID names the annotation acted on.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Active is the resulting selection state for toggle intents.
	Active bool `json:"active,omitempty" yaml:"active,omitempty"`

	// Span is the addressed range for reassign and create-memo intents.
	Span annotation.Span `json:"span,omitempty" yaml:"span,omitempty"`

	// Label is the human-readable name for delete confirmation.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	// Seconds is the seek position for IntentSeek.
	Seconds int `json:"seconds,omitempty" yaml:"seconds,omitempty"`

	// Anchor is the clicked marker's rect for IntentOpenMemo. The
	// consumer owns viewport bounds and runs PlacePopover itself.
	Anchor Rect `json:"anchor,omitempty" yaml:"anchor,omitempty"`
}
