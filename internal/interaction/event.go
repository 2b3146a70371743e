package interaction

import (
	"github.com/roach88/marginalia/internal/annotation"
)

// EventType distinguishes between event kinds.
type EventType int

const (
	// EventPointerEnter reports the pointer entering a marker or its toolbar.
	EventPointerEnter EventType = iota + 1
	// EventPointerLeave reports the pointer leaving a marker or its toolbar.
	EventPointerLeave
	// EventMarkerClick reports a click on a code chip or memo icon.
	EventMarkerClick
	// EventToolbarAction reports a click on a toolbar button.
	EventToolbarAction
	// EventHeaderClick reports a click on a transcript block header.
	EventHeaderClick
	// EventSelectionChanged reports a text-selection drag starting or ending.
	EventSelectionChanged
	// EventTimerFired reports the toolbar hide timer elapsing.
	EventTimerFired
	// EventReset reports a document switch or viewer teardown.
	EventReset
)

// String returns the event type name used in traces.
func (t EventType) String() string {
	switch t {
	case EventPointerEnter:
		return "pointer_enter"
	case EventPointerLeave:
		return "pointer_leave"
	case EventMarkerClick:
		return "marker_click"
	case EventToolbarAction:
		return "toolbar_action"
	case EventHeaderClick:
		return "header_click"
	case EventSelectionChanged:
		return "selection_changed"
	case EventTimerFired:
		return "timer_fired"
	case EventReset:
		return "reset"
	default:
		return "unknown"
	}
}

// ToolbarAction identifies a button on the marker toolbar.
type ToolbarAction int

const (
	// ActionReassign asks for the span's code to be reassigned.
	ActionReassign ToolbarAction = iota + 1
	// ActionAddMemo asks for a memo attached to the span.
	ActionAddMemo
	// ActionDelete asks for the span's removal.
	ActionDelete
)

// String returns the action name used in traces.
func (a ToolbarAction) String() string {
	switch a {
	case ActionReassign:
		return "reassign"
	case ActionAddMemo:
		return "add_memo"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// MarkerRef is a snapshot of the marker an event addresses. Events
// carry the snapshot rather than a pointer into render output, so the
// controller never holds live annotation data and a ref outlives the
// render pass that produced it.
type MarkerRef struct {
	Kind  annotation.Kind `json:"kind" yaml:"kind"`
	ID    string          `json:"id" yaml:"id"`
	Span  annotation.Span `json:"span" yaml:"span"`
	Label string          `json:"label,omitempty" yaml:"label,omitempty"`
}

// Event wraps every input the controller consumes. Type selects the
// variant; the remaining fields are populated per type.
type Event struct {
	Type EventType `json:"type" yaml:"type"`

	// Marker addresses the chip or icon for pointer and click events.
	Marker *MarkerRef `json:"marker,omitempty" yaml:"marker,omitempty"`

	// Action is the toolbar button for EventToolbarAction.
	Action ToolbarAction `json:"action,omitempty" yaml:"action,omitempty"`

	// Anchor is the clicked marker's screen rect for EventMarkerClick.
	Anchor Rect `json:"anchor,omitempty" yaml:"anchor,omitempty"`

	// Modifier reports ctrl/cmd held during a click.
	Modifier bool `json:"modifier,omitempty" yaml:"modifier,omitempty"`

	// Seconds is the parsed header timestamp for EventHeaderClick,
	// -1 when the timestamp was malformed.
	Seconds int `json:"seconds,omitempty" yaml:"seconds,omitempty"`

	// Selecting is the new drag state for EventSelectionChanged.
	Selecting bool `json:"selecting,omitempty" yaml:"selecting,omitempty"`

	// Token pairs an EventTimerFired with the schedule that armed it.
	Token int64 `json:"token,omitempty" yaml:"token,omitempty"`
}

// PointerEnter builds the event for the pointer entering a marker.
func PointerEnter(m MarkerRef) Event {
	return Event{Type: EventPointerEnter, Marker: &m}
}

// PointerLeave builds the event for the pointer leaving a marker.
func PointerLeave(m MarkerRef) Event {
	return Event{Type: EventPointerLeave, Marker: &m}
}

// MarkerClick builds the event for a marker click at the given anchor.
func MarkerClick(m MarkerRef, anchor Rect, modifier bool) Event {
	return Event{Type: EventMarkerClick, Marker: &m, Anchor: anchor, Modifier: modifier}
}

// ToolbarClick builds the event for a toolbar button press on a marker.
func ToolbarClick(m MarkerRef, action ToolbarAction) Event {
	return Event{Type: EventToolbarAction, Marker: &m, Action: action}
}

// HeaderClick builds the event for a transcript header click. seconds
// is the block's parsed timestamp, -1 when parsing failed.
func HeaderClick(seconds int, modifier bool) Event {
	return Event{Type: EventHeaderClick, Seconds: seconds, Modifier: modifier}
}

// SelectionChanged builds the event for a selection drag starting or
// ending.
func SelectionChanged(selecting bool) Event {
	return Event{Type: EventSelectionChanged, Selecting: selecting}
}

// Reset builds the event that clears all transient state.
func Reset() Event {
	return Event{Type: EventReset}
}
