// Package store provides SQLite-backed durable storage for the workflow
// progression engine.
//
// Tables:
//   - projects: per-project record carrying the derived progress percentage
//   - phases / sections / line_items: the read-mostly hierarchy catalog
//   - trackers: one cursor per project (current phase/section/line item)
//   - completed_items: the append-only completion ledger
//   - alerts: actionable notifications tied to the current line item
//
// # Consistency rules
//
// Ledger idempotency:
//   - UNIQUE(tracker_id, line_item_id) on completed_items
//   - a line item counts toward progress at most once per tracker
//
// Optimistic tracker concurrency:
//   - trackers.version is checked-and-incremented inside ApplyCompletion
//   - a concurrent writer that loses the race gets ErrVersionConflict
//
// Alert invariant:
//   - partial UNIQUE index on alerts(project_id, line_item_id)
//     WHERE status = 'ACTIVE'
//   - at most one ACTIVE alert per (project, line item)
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
