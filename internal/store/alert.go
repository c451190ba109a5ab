package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Alert statuses. An alert is ACTIVE while its line item is the
// tracker's current position and COMPLETED (or deleted) afterwards.
const (
	AlertStatusActive    = "ACTIVE"
	AlertStatusCompleted = "COMPLETED"
)

// Alert is an actionable notification tied to a line item.
type Alert struct {
	ID         string
	ProjectID  string
	LineItemID string
	Status     string
	AssignedTo string
	DueDate    *time.Time
	Priority   string
	Metadata   string
	CreatedAt  time.Time
}

// CreateActiveAlert inserts an ACTIVE alert for a line item.
// The partial unique index on (project_id, line_item_id) WHERE ACTIVE
// makes this idempotent: if an active alert already exists for the pair,
// the insert is a no-op and inserted=false is returned.
func (s *Store) CreateActiveAlert(ctx context.Context, a Alert) (inserted bool, err error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts
		(id, project_id, line_item_id, status, assigned_to, due_date, priority, metadata, created_at)
		VALUES (?, ?, ?, 'ACTIVE', ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, line_item_id) WHERE status = 'ACTIVE' DO NOTHING
	`,
		a.ID,
		a.ProjectID,
		a.LineItemID,
		a.AssignedTo,
		nullTime(a.DueDate),
		a.Priority,
		a.Metadata,
		a.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("create alert: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create alert: rows affected: %w", err)
	}
	return affected > 0, nil
}

// RetireAlerts removes any ACTIVE alerts for a (project, line item) pair.
// Deletion rather than status flip avoids unique-index collisions if the
// same line item is later reopened. Retiring an item with no active alert
// is a no-op; returns the number of alerts removed.
func (s *Store) RetireAlerts(ctx context.Context, projectID, lineItemID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM alerts
		WHERE project_id = ? AND line_item_id = ? AND status = 'ACTIVE'
	`, projectID, lineItemID)
	if err != nil {
		return 0, fmt.Errorf("retire alerts: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("retire alerts: rows affected: %w", err)
	}
	return affected, nil
}

// ListActiveAlerts returns the ACTIVE alerts for a project, oldest first.
// Returns an empty slice (not nil) when the project has none.
func (s *Store) ListActiveAlerts(ctx context.Context, projectID string) ([]Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, line_item_id, status, assigned_to, due_date, priority, metadata, created_at
		FROM alerts
		WHERE project_id = ? AND status = 'ACTIVE'
		ORDER BY created_at ASC, id ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query active alerts: %w", err)
	}
	defer rows.Close()

	alerts := []Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active alerts: %w", err)
	}
	return alerts, nil
}

// ActiveAlertForItem retrieves the ACTIVE alert for a (project, line item)
// pair. Returns sql.ErrNoRows if none exists.
func (s *Store) ActiveAlertForItem(ctx context.Context, projectID, lineItemID string) (Alert, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, line_item_id, status, assigned_to, due_date, priority, metadata, created_at
		FROM alerts
		WHERE project_id = ? AND line_item_id = ? AND status = 'ACTIVE'
	`, projectID, lineItemID)

	a, err := scanAlert(row)
	if err != nil {
		return Alert{}, err
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (Alert, error) {
	var a Alert
	var due sql.NullTime
	err := row.Scan(&a.ID, &a.ProjectID, &a.LineItemID, &a.Status, &a.AssignedTo, &due, &a.Priority, &a.Metadata, &a.CreatedAt)
	if err != nil {
		return Alert{}, fmt.Errorf("scan alert: %w", err)
	}
	a.DueDate = timePtr(due)
	return a, nil
}
