package interaction

import (
	"sync"
	"time"
)

// Scheduler isolates timer scheduling from wall-clock time. After
// arranges for fn to run once d has elapsed and returns a cancel
// function; cancelling after the timer has fired is a no-op.
type Scheduler interface {
	After(d time.Duration, fn func()) (cancel func())
}

// systemScheduler schedules on the runtime timer wheel. fn runs on a
// timer goroutine, which is safe because the controller re-submits
// timer fires through its own queue.
type systemScheduler struct{}

func (systemScheduler) After(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// ManualScheduler queues callbacks and fires them only when told to.
// Tests and trace replay use it to step toolbar linger deterministically:
//
//	sched := NewManualScheduler()
//	ctrl := New(sink, WithScheduler(sched))
//	ctrl.Dispatch(PointerLeave(marker))
//	sched.Fire() // the hide timer elapses now
type ManualScheduler struct {
	mu      sync.Mutex
	pending []*manualTimer
}

type manualTimer struct {
	fn        func()
	cancelled bool
}

// NewManualScheduler creates a scheduler with no pending timers.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// After queues fn without any real delay. The duration is recorded
// nowhere: manual time has no width, only order.
func (s *ManualScheduler) After(_ time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &manualTimer{fn: fn}
	s.pending = append(s.pending, t)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		t.cancelled = true
	}
}

// Fire runs the oldest pending uncancelled callback. Returns false
// when nothing was runnable.
func (s *ManualScheduler) Fire() bool {
	s.mu.Lock()
	var fn func()
	for len(s.pending) > 0 {
		t := s.pending[0]
		s.pending = s.pending[1:]
		if !t.cancelled {
			fn = t.fn
			break
		}
	}
	s.mu.Unlock()

	// Run outside the lock: the callback re-enters the controller,
	// which may arm another timer on this scheduler.
	if fn == nil {
		return false
	}
	fn()
	return true
}

// FireAll runs pending callbacks until none remain, including timers
// armed by earlier callbacks. Returns the number fired.
func (s *ManualScheduler) FireAll() int {
	n := 0
	for s.Fire() {
		n++
	}
	return n
}

// Pending returns the number of queued uncancelled callbacks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.pending {
		if !t.cancelled {
			n++
		}
	}
	return n
}
