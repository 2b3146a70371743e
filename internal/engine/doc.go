// Package engine implements the annotation rendering pipeline.
//
// A render pass is a pure function of three inputs: the document text,
// a snapshot of the four annotation collections, and the transient view
// state (visibility toggle, active selections, current search match).
// The pass runs Normalize -> Segment -> Boundaries -> Fragmentize ->
// ResolveStyle/Markers and produces a Layout ready for presentation.
//
// ARCHITECTURE:
//
// Snapshot In, Layout Out:
// The pipeline holds no state across passes. Fragments carry no
// identity between renders; hover and selection state are inputs,
// never fields. Re-running a pass over equal inputs yields an equal
// Layout, which is what the conformance harness and the replay command
// verify.
//
// Pass Flow:
//  1. Normalize flattens the four collections into tagged records
//  2. transcript.Segment classifies the document (plain or transcript)
//  3. Boundaries derives the sorted cut-point set
//  4. Fragmentize splits the text between consecutive cut points
//  5. ResolveStyle and Markers compute each fragment's treatment
//
// Invariants every pass preserves, for any input:
//   - fragments are ordered, contiguous, and non-overlapping
//   - concatenating all fragment texts reproduces the document exactly
//   - no fragment straddles an annotation boundary
//   - markers appear only at fragments whose start equals an
//     annotation's clamped start
//
// The engine is designed for correctness, not throughput: coverage is a
// linear filter per fragment, acceptable for expected annotation-set
// sizes, and guarded by a hard annotation cap rather than an interval
// tree.
package engine
