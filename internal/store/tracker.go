package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Tracker is the per-project cursor into the hierarchy. All three
// current pointers nil means the workflow is complete.
type Tracker struct {
	ID                  string
	ProjectID           string
	IsMain              bool
	CurrentPhaseID      *string
	CurrentSectionID    *string
	CurrentLineItemID   *string
	LastCompletedItemID *string
	PhaseEnteredAt      *time.Time
	SectionEnteredAt    *time.Time
	LineItemEnteredAt   *time.Time
	Version             int64
	CreatedAt           time.Time
}

// Complete reports whether the tracker has exhausted traversal order.
func (t Tracker) Complete() bool {
	return t.CurrentLineItemID == nil
}

// CreateTracker inserts a tracker record.
// The partial unique index on (project_id) WHERE is_main enforces one
// main tracker per project; inserting a second returns a constraint error.
func (s *Store) CreateTracker(ctx context.Context, t Tracker) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trackers
		(id, project_id, is_main, current_phase_id, current_section_id, current_line_item_id,
		 last_completed_item_id, phase_entered_at, section_entered_at, line_item_entered_at,
		 version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		t.ProjectID,
		t.IsMain,
		nullString(t.CurrentPhaseID),
		nullString(t.CurrentSectionID),
		nullString(t.CurrentLineItemID),
		nullString(t.LastCompletedItemID),
		nullTime(t.PhaseEnteredAt),
		nullTime(t.SectionEnteredAt),
		nullTime(t.LineItemEnteredAt),
		t.Version,
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create tracker: %w", err)
	}
	return nil
}

// ReadMainTracker retrieves the main workflow tracker for a project.
// Returns sql.ErrNoRows if the project has no main tracker.
func (s *Store) ReadMainTracker(ctx context.Context, projectID string) (Tracker, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, is_main, current_phase_id, current_section_id, current_line_item_id,
		       last_completed_item_id, phase_entered_at, section_entered_at, line_item_entered_at,
		       version, created_at
		FROM trackers
		WHERE project_id = ? AND is_main = 1
	`, projectID)

	return scanTracker(row)
}

// ReadTracker retrieves a tracker by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadTracker(ctx context.Context, id string) (Tracker, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, is_main, current_phase_id, current_section_id, current_line_item_id,
		       last_completed_item_id, phase_entered_at, section_entered_at, line_item_entered_at,
		       version, created_at
		FROM trackers
		WHERE id = ?
	`, id)

	return scanTracker(row)
}

func scanTracker(row *sql.Row) (Tracker, error) {
	var t Tracker
	var curPhase, curSection, curItem, lastItem sql.NullString
	var phaseAt, sectionAt, itemAt sql.NullTime
	err := row.Scan(
		&t.ID, &t.ProjectID, &t.IsMain,
		&curPhase, &curSection, &curItem, &lastItem,
		&phaseAt, &sectionAt, &itemAt,
		&t.Version, &t.CreatedAt,
	)
	if err != nil {
		return Tracker{}, err
	}

	t.CurrentPhaseID = strPtr(curPhase)
	t.CurrentSectionID = strPtr(curSection)
	t.CurrentLineItemID = strPtr(curItem)
	t.LastCompletedItemID = strPtr(lastItem)
	t.PhaseEnteredAt = timePtr(phaseAt)
	t.SectionEnteredAt = timePtr(sectionAt)
	t.LineItemEnteredAt = timePtr(itemAt)
	return t, nil
}

// advanceTracker writes the tracker's new position with an optimistic
// version check. Returns ErrVersionConflict if another writer advanced
// the tracker since it was read.
//
// Runs on the given execer so it can participate in ApplyCompletion's
// transaction.
func advanceTracker(ctx context.Context, ex execer, t Tracker, expectedVersion int64) error {
	result, err := ex.ExecContext(ctx, `
		UPDATE trackers
		SET current_phase_id = ?,
		    current_section_id = ?,
		    current_line_item_id = ?,
		    last_completed_item_id = ?,
		    phase_entered_at = ?,
		    section_entered_at = ?,
		    line_item_entered_at = ?,
		    version = version + 1
		WHERE id = ? AND version = ?
	`,
		nullString(t.CurrentPhaseID),
		nullString(t.CurrentSectionID),
		nullString(t.CurrentLineItemID),
		nullString(t.LastCompletedItemID),
		nullTime(t.PhaseEnteredAt),
		nullTime(t.SectionEnteredAt),
		nullTime(t.LineItemEnteredAt),
		t.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("advance tracker: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance tracker: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("advance tracker %s: %w", t.ID, ErrVersionConflict)
	}
	return nil
}
