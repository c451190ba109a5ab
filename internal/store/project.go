package store

import (
	"context"
	"fmt"
	"time"
)

// Project is the per-project record. Progress is a derived value: it is
// recomputed from the ledger on every completion, never patched
// incrementally, so it cannot drift from the source of truth.
type Project struct {
	ID        string
	Name      string
	Progress  float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateProject inserts a project record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) CreateProject(ctx context.Context, p Project) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, progress, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, p.ID, p.Name, p.Progress, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// ReadProject retrieves a project by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadProject(ctx context.Context, id string) (Project, error) {
	var p Project
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, progress, created_at, updated_at
		FROM projects
		WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Progress, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Project{}, err
	}
	return p, nil
}

// updateProjectProgress persists the recomputed progress percentage.
// Runs on the given execer so it can participate in ApplyCompletion's
// transaction.
func updateProjectProgress(ctx context.Context, ex execer, projectID string, progress float64, now time.Time) error {
	_, err := ex.ExecContext(ctx, `
		UPDATE projects
		SET progress = ?, updated_at = ?
		WHERE id = ?
	`, progress, now, projectID)
	if err != nil {
		return fmt.Errorf("update project progress: %w", err)
	}
	return nil
}
