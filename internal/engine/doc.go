// Package engine implements the workflow progression engine.
//
// The engine tracks, per project, a single current position in the
// three-level hierarchy (Phase → Section → Line Item) and advances it
// when a line item is completed.
//
// ARCHITECTURE:
//
// Completion flow:
//  1. Load the main tracker and the hierarchy snapshot (pure inputs).
//  2. Resolve the next position from the completed item's own location
//     and the full completed-ID set (hierarchy.Next, pure).
//  3. Persist ledger append + tracker advance + progress recompute in
//     one store transaction (store.ApplyCompletion). Either all land
//     or none do.
//  4. After commit: retire the completed item's alert, create one for
//     the next position, emit a structured event. Failures here degrade
//     to warnings on the result - the ledger and tracker are the
//     authoritative state and the alert layer catches up.
//
// Concurrency: completions for one project are serialized by the
// tracker row's optimistic version check; the loser of a race gets a
// retryable conflict error. Different projects never contend beyond the
// SQLite write lock.
//
// Strategies: the full bookkeeping path and a degraded path (ledger and
// tracker only) are both named Completer implementations selected
// explicitly at construction. There is no silent fallback from one to
// the other.
package engine
