package interaction

import "sync"

// eventQueue is a thread-safe FIFO queue for controller events.
//
// The queue is unbounded: a step may enqueue follow-up events (a
// toolbar action collapsing the hover machine, a timer re-arm) without
// blocking the step that produced them.
//
// Thread-safety covers external enqueuing (viewer goroutine, scheduler
// callbacks) while Dispatch drains. There is no blocking dequeue; the
// controller drains opportunistically after every submission, so the
// queue only ever holds events submitted while a drain is in flight.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

// newEventQueue creates an empty event queue.
func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 16), // Pre-allocate for typical bursts
	}
}

// Enqueue adds an event to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)
	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (Event{}, false) if the queue is empty.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]

	// CRITICAL: Nil out the slot so the Event's MarkerRef pointer is
	// collectable. The underlying array otherwise retains it until
	// reallocation, leaking marker snapshots under steady hover traffic.
	q.events[0] = Event{}

	if len(q.events) == 1 {
		// Last element - reset to empty slice with original capacity
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close signals that no more events will be enqueued. Pending events
// are dropped; a closed controller must not keep stepping.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return // Already closed
	}

	q.closed = true
	q.events = nil
}
