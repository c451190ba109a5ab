package store

import (
	"context"
	"fmt"
	"time"
)

// CompletionWrite is the full set of row mutations produced by one
// completion: the new ledger entry, the tracker's new position, and the
// recomputed project progress. The engine computes it from pure inputs;
// ApplyCompletion persists it.
type CompletionWrite struct {
	Entry           CompletedItem
	Tracker         Tracker
	ExpectedVersion int64
	Progress        float64
	Now             time.Time
}

// ApplyCompletion atomically persists a completion: ledger append,
// tracker advance, and project progress update in a single transaction.
// Either all three land or none do.
//
// The ledger insert claims the (tracker, line item) slot via its UNIQUE
// constraint; a duplicate returns ErrAlreadyCompleted and nothing is
// written. The tracker update is version-checked; a concurrent writer
// that advanced the tracker first causes ErrVersionConflict and a full
// rollback, leaving the caller to retry with fresh state.
//
// Alert and notification side effects deliberately live outside this
// transaction: the ledger and tracker are the authoritative state, and
// the alert layer is eventually consistent relative to them.
func (s *Store) ApplyCompletion(ctx context.Context, w CompletionWrite) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("apply completion: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Step 1: claim the ledger slot.
	if err := appendLedgerEntry(ctx, tx, w.Entry); err != nil {
		return fmt.Errorf("apply completion: %w", err)
	}

	// Step 2: advance the tracker with optimistic version check.
	if err := advanceTracker(ctx, tx, w.Tracker, w.ExpectedVersion); err != nil {
		return fmt.Errorf("apply completion: %w", err)
	}

	// Step 3: persist the recomputed progress.
	if err := updateProjectProgress(ctx, tx, w.Tracker.ProjectID, w.Progress, w.Now); err != nil {
		return fmt.Errorf("apply completion: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply completion: commit: %w", err)
	}
	return nil
}
