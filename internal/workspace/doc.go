// Package workspace owns the mutable state behind a rendered document:
// the text, the codebook, the annotation collections, the view flags,
// and the search cursor.
//
// # Critical Patterns
//
// Single writer:
//   - Every mutation takes the write lock; surfaces share one
//     workspace and mutate it only through ApplyIntent or the
//     search/view setters.
//
// Snapshot isolation:
//   - Snapshot deep-copies everything a render pass reads, so a pass
//     never observes a half-applied mutation and two passes over the
//     same snapshot return identical output.
//
// Search regeneration:
//   - Matches are recomputed whenever the query or the document
//     changes, and the cursor clamps rather than dangles.
//
// Nothing here persists. A workspace is hydrated from a bundle and
// dies with the process; writing back is deliberately absent.
package workspace
