package store

import (
	"context"
	"fmt"
	"time"
)

// CompletedItem is an immutable completion ledger entry.
// OutOfBand marks completions of items that were not the tracker's
// current pointer at the time.
type CompletedItem struct {
	ID          string
	TrackerID   string
	PhaseID     string
	SectionID   string
	LineItemID  string
	CompletedBy string
	CompletedAt time.Time
	Notes       string
	OutOfBand   bool
}

// CompletedIDs returns the set of line item IDs in the tracker's ledger.
// This is the input to next-position resolution and phase queries.
func (s *Store) CompletedIDs(ctx context.Context, trackerID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT line_item_id FROM completed_items
		WHERE tracker_id = ?
	`, trackerID)
	if err != nil {
		return nil, fmt.Errorf("query completed ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan completed id: %w", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed ids: %w", err)
	}
	return ids, nil
}

// CompletedCount returns the number of ledger entries for a tracker.
// This is the numerator for progress computation.
func (s *Store) CompletedCount(ctx context.Context, trackerID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM completed_items
		WHERE tracker_id = ?
	`, trackerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completed items: %w", err)
	}
	return count, nil
}

// ReadCompletion retrieves the ledger entry for a line item under a tracker.
// Returns sql.ErrNoRows if the item has not been completed.
func (s *Store) ReadCompletion(ctx context.Context, trackerID, lineItemID string) (CompletedItem, error) {
	var ci CompletedItem
	err := s.db.QueryRowContext(ctx, `
		SELECT id, tracker_id, phase_id, section_id, line_item_id,
		       completed_by, completed_at, notes, out_of_band
		FROM completed_items
		WHERE tracker_id = ? AND line_item_id = ?
	`, trackerID, lineItemID).Scan(
		&ci.ID, &ci.TrackerID, &ci.PhaseID, &ci.SectionID, &ci.LineItemID,
		&ci.CompletedBy, &ci.CompletedAt, &ci.Notes, &ci.OutOfBand,
	)
	if err != nil {
		return CompletedItem{}, err
	}
	return ci, nil
}

// ReadLedger returns every ledger entry for a tracker in completion order.
// Returns an empty slice (not nil) for a tracker with no completions.
func (s *Store) ReadLedger(ctx context.Context, trackerID string) ([]CompletedItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tracker_id, phase_id, section_id, line_item_id,
		       completed_by, completed_at, notes, out_of_band
		FROM completed_items
		WHERE tracker_id = ?
		ORDER BY completed_at ASC, id ASC
	`, trackerID)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	entries := []CompletedItem{}
	for rows.Next() {
		var ci CompletedItem
		if err := rows.Scan(
			&ci.ID, &ci.TrackerID, &ci.PhaseID, &ci.SectionID, &ci.LineItemID,
			&ci.CompletedBy, &ci.CompletedAt, &ci.Notes, &ci.OutOfBand,
		); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, ci)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger: %w", err)
	}
	return entries, nil
}

// appendLedgerEntry inserts a ledger entry, claiming the
// (tracker, line item) slot via the UNIQUE constraint.
// Returns ErrAlreadyCompleted if the slot is already taken.
//
// Runs on the given execer so it can participate in ApplyCompletion's
// transaction.
func appendLedgerEntry(ctx context.Context, ex execer, ci CompletedItem) error {
	result, err := ex.ExecContext(ctx, `
		INSERT INTO completed_items
		(id, tracker_id, phase_id, section_id, line_item_id, completed_by, completed_at, notes, out_of_band)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tracker_id, line_item_id) DO NOTHING
	`,
		ci.ID,
		ci.TrackerID,
		ci.PhaseID,
		ci.SectionID,
		ci.LineItemID,
		ci.CompletedBy,
		ci.CompletedAt,
		ci.Notes,
		ci.OutOfBand,
	)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("append ledger entry: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("ledger entry for item %s: %w", ci.LineItemID, ErrAlreadyCompleted)
	}
	return nil
}
