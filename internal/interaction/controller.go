package interaction

import (
	"sync"
	"time"

	"github.com/roach88/marginalia/internal/annotation"
)

// DefaultToolbarLinger is how long the marker toolbar survives the
// pointer leaving, so travel between a chip and its toolbar does not
// hide the toolbar mid-flight.
const DefaultToolbarLinger = 180 * time.Millisecond

// State is the hover machine's position.
type State int

const (
	// StateIdle means no toolbar is visible.
	StateIdle State = iota
	// StateHovering means the pointer is on a marker and its toolbar shows.
	StateHovering
	// StateLingering means the pointer left and the hide timer is pending.
	StateLingering
)

// String returns the state name used in traces.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHovering:
		return "hovering"
	case StateLingering:
		return "lingering"
	default:
		return "unknown"
	}
}

// Controller maps UI events to intents.
//
// All events funnel through Dispatch, which enqueues and then drains
// the queue under one mutex, so steps never interleave even when a
// hide timer fires on a scheduler goroutine. The controller holds
// transient UI state only: the hover machine, the active code and
// memo ids, and the selection-drag flag. Annotation data never enters;
// events carry MarkerRef snapshots instead.
//
// The sink runs inside the drain. It must hand intents off (append to
// a slice, send on a channel) and never call back into the controller
// synchronously; Dispatch from inside the sink deadlocks.
type Controller struct {
	queue *eventQueue

	mu      sync.Mutex
	clock   *Clock
	sched   Scheduler
	sink    func(Intent)
	linger  time.Duration
	session string

	state      State
	hovered    *MarkerRef
	activeCode string
	activeMemo string
	selecting  bool

	// timerToken invalidates hide timers that fired after a cancel
	// raced past time.Timer.Stop. Only a fire carrying the current
	// token collapses the toolbar.
	timerToken  int64
	cancelTimer func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithToolbarLinger sets the hide-timer duration.
func WithToolbarLinger(d time.Duration) Option {
	return func(c *Controller) {
		c.linger = d
	}
}

// WithScheduler sets the timer scheduler. Tests and replay pass a
// ManualScheduler to fire linger timers deterministically.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		c.sched = s
	}
}

// WithTokenGenerator mints the session token from g instead of a
// fresh UUIDv7.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(c *Controller) {
		c.session = g.Generate()
	}
}

// WithClockAt starts the logical clock at a specific sequence number.
// Trace replay resumes from the last recorded seq.
func WithClockAt(start int64) Option {
	return func(c *Controller) {
		c.clock = NewClockAt(start)
	}
}

// New creates a controller emitting to sink. A nil sink discards
// intents, which the harness uses when only end state matters.
func New(sink func(Intent), opts ...Option) *Controller {
	c := &Controller{
		queue:  newEventQueue(),
		clock:  NewClock(),
		sched:  systemScheduler{},
		sink:   sink,
		linger: DefaultToolbarLinger,
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.session == "" {
		c.session = UUIDv7Generator{}.Generate()
	}
	return c
}

// Dispatch submits an event and drains the queue. Safe to call from
// any goroutine; steps are serialized under the controller mutex, so
// by the time Dispatch returns the submitted event (and any the drain
// found queued alongside it) has been fully processed.
func (c *Controller) Dispatch(ev Event) {
	if !c.queue.Enqueue(ev) {
		return // closed
	}
	c.drain()
}

// Close drops pending events, cancels any armed timer, and makes
// further Dispatch calls no-ops. Used on viewer teardown.
func (c *Controller) Close() {
	c.queue.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelHideTimer()
	c.state = StateIdle
	c.hovered = nil
}

// State returns the hover machine's position.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Toolbar returns the marker whose toolbar is visible. The toolbar
// shows while Hovering and keeps showing while Lingering.
func (c *Controller) Toolbar() (MarkerRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateIdle || c.hovered == nil {
		return MarkerRef{}, false
	}
	return *c.hovered, true
}

// ActiveCode returns the selected code id, "" when none.
func (c *Controller) ActiveCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeCode
}

// ActiveMemo returns the selected memo id, "" when none.
func (c *Controller) ActiveMemo() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeMemo
}

// Selecting reports whether a text-selection drag is in progress.
func (c *Controller) Selecting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selecting
}

// Session returns the session token stamped on intents.
func (c *Controller) Session() string {
	return c.session
}

// Seq returns the logical clock's current position.
func (c *Controller) Seq() int64 {
	return c.clock.Current()
}

func (c *Controller) drain() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		ev, ok := c.queue.TryDequeue()
		if !ok {
			return
		}
		c.step(ev)
	}
}

// step runs one event against the machine. Caller holds c.mu.
func (c *Controller) step(ev Event) {
	switch ev.Type {
	case EventPointerEnter:
		c.stepPointerEnter(ev)
	case EventPointerLeave:
		c.stepPointerLeave(ev)
	case EventMarkerClick:
		c.stepMarkerClick(ev)
	case EventToolbarAction:
		c.stepToolbarAction(ev)
	case EventHeaderClick:
		c.stepHeaderClick(ev)
	case EventSelectionChanged:
		c.stepSelectionChanged(ev)
	case EventTimerFired:
		c.stepTimerFired(ev)
	case EventReset:
		c.stepReset()
	}
}

func (c *Controller) stepPointerEnter(ev Event) {
	if ev.Marker == nil {
		return
	}
	// Hover is suppressed during a selection drag so sweeping across
	// coded text does not pop toolbars mid-drag.
	if c.selecting {
		return
	}

	// Entering a marker (or re-entering its toolbar) always lands in
	// Hovering; an armed hide timer is stale the moment this happens.
	c.cancelHideTimer()
	m := *ev.Marker
	c.state = StateHovering
	c.hovered = &m
}

func (c *Controller) stepPointerLeave(ev Event) {
	if c.state != StateHovering || c.hovered == nil {
		return
	}
	// A leave for a marker we already moved off is stale.
	if ev.Marker != nil && ev.Marker.ID != c.hovered.ID {
		return
	}

	c.state = StateLingering
	c.armHideTimer()
}

func (c *Controller) stepTimerFired(ev Event) {
	if ev.Token != c.timerToken || c.state != StateLingering {
		return // cancelled or superseded schedule
	}
	c.cancelTimer = nil
	c.state = StateIdle
	c.hovered = nil
}

func (c *Controller) stepMarkerClick(ev Event) {
	if ev.Marker == nil {
		return
	}
	m := *ev.Marker

	switch m.Kind {
	case annotation.KindCode:
		// Single-select idempotent toggle: clicking the active code
		// clears it, clicking any other replaces it.
		active := c.activeCode != m.ID
		if active {
			c.activeCode = m.ID
		} else {
			c.activeCode = ""
		}
		c.emit(Intent{Type: IntentToggleCode, ID: m.ID, Active: active})

	case annotation.KindMemo:
		active := c.activeMemo != m.ID
		if active {
			c.activeMemo = m.ID
		} else {
			c.activeMemo = ""
		}
		c.emit(Intent{Type: IntentToggleMemo, ID: m.ID, Active: active})
		if active {
			// Activation also opens the edit surface near the click.
			c.emit(Intent{Type: IntentOpenMemo, ID: m.ID, Anchor: ev.Anchor})
		}
	}
}

func (c *Controller) stepToolbarAction(ev Event) {
	if ev.Marker == nil {
		return
	}
	// The toolbar only acts while visible and only for the marker
	// that owns it.
	if c.state == StateIdle || c.hovered == nil || c.hovered.ID != ev.Marker.ID {
		return
	}
	m := *ev.Marker

	switch ev.Action {
	case ActionReassign:
		c.emit(Intent{Type: IntentReassignCode, ID: m.ID, Span: m.Span})
	case ActionAddMemo:
		c.emit(Intent{Type: IntentCreateMemo, ID: m.ID, Span: m.Span})
	case ActionDelete:
		c.emit(Intent{Type: IntentDeleteSpan, ID: m.ID, Label: m.Label})
	default:
		return
	}

	// Any action dismisses the toolbar; after a delete the marker no
	// longer exists.
	c.cancelHideTimer()
	c.state = StateIdle
	c.hovered = nil
}

func (c *Controller) stepHeaderClick(ev Event) {
	// Seek requires the modifier; a malformed timestamp (-1) is a
	// silent no-op, never an error.
	if !ev.Modifier || ev.Seconds < 0 {
		return
	}
	c.emit(Intent{Type: IntentSeek, Seconds: ev.Seconds})
}

func (c *Controller) stepSelectionChanged(ev Event) {
	c.selecting = ev.Selecting
	if ev.Selecting && c.state != StateIdle {
		c.cancelHideTimer()
		c.state = StateIdle
		c.hovered = nil
	}
}

func (c *Controller) stepReset() {
	c.cancelHideTimer()
	c.state = StateIdle
	c.hovered = nil
	c.selecting = false
	c.activeCode = ""
	c.activeMemo = ""
}

// armHideTimer schedules the toolbar hide under a fresh token.
// Caller holds c.mu.
func (c *Controller) armHideTimer() {
	c.cancelHideTimer()
	token := c.timerToken
	c.cancelTimer = c.sched.After(c.linger, func() {
		c.Dispatch(Event{Type: EventTimerFired, Token: token})
	})
}

// cancelHideTimer stops any armed timer and bumps the token so an
// already-fired callback stuck behind the mutex lands stale.
// Caller holds c.mu.
func (c *Controller) cancelHideTimer() {
	if c.cancelTimer != nil {
		c.cancelTimer()
		c.cancelTimer = nil
	}
	c.timerToken++
}

// emit stamps and delivers one intent. Caller holds c.mu.
func (c *Controller) emit(in Intent) {
	in.Seq = c.clock.Next()
	in.Session = c.session
	if c.sink != nil {
		c.sink(in)
	}
}
