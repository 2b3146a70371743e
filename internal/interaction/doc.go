// Package interaction turns pointer and timer events into intent signals.
//
// ARCHITECTURE: Serialized Events In, Intents Out
//
// The controller is a small state machine driven by discrete events
// (pointer enter/leave, marker clicks, toolbar actions, header clicks,
// selection changes, timer fires). Events are submitted through a
// thread-safe FIFO queue and drained under a single mutex, so a hide
// timer firing on a scheduler goroutine can never interleave with a
// UI event that is mid-step. Each step may emit intents to a sink;
// intents carry everything a collaborator needs (ids, spans, labels,
// seconds, anchor rects) plus a monotonic sequence number and the
// session token, so traces are totally ordered and correlatable.
//
// The controller knows nothing about annotation payloads. Events
// address markers through MarkerRef snapshots taken at dispatch time,
// and the only state held here is transient UI state: the hover
// machine (Idle, Hovering, Lingering), the active code and memo ids,
// and the selection-drag flag. Reset clears all of it, cancelling any
// pending hide timer so a stale callback cannot fire against a marker
// that no longer exists.
//
// Time is isolated behind the Scheduler interface. Production uses
// time.AfterFunc; tests and trace replay use ManualScheduler and fire
// timers explicitly, which makes the toolbar linger behavior fully
// deterministic.
package interaction
