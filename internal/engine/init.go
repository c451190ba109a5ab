package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fieldline/fieldline/internal/hierarchy"
	"github.com/fieldline/fieldline/internal/notify"
	"github.com/fieldline/fieldline/internal/store"
)

// InitResult describes a freshly initialized workflow.
type InitResult struct {
	TrackerID string                `json:"trackerId"`
	FirstItem hierarchy.ItemSummary `json:"firstItem"`
	Progress  Progress              `json:"progress"`
	Warnings  []string              `json:"warnings,omitempty"`
}

// InitializeWorkflow creates the project record (if missing) and its
// main tracker, pointing at the first line item in traversal order, and
// raises the initial alert.
//
// Returns ErrCodeWorkflowExists if the project already has a main
// tracker and ErrCodeEmptyWorkflow if the hierarchy has no active items.
func (e *Engine) InitializeWorkflow(ctx context.Context, projectID, projectName string) (*InitResult, error) {
	if _, err := e.store.ReadMainTracker(ctx, projectID); err == nil {
		return nil, &Error{
			Code:      ErrCodeWorkflowExists,
			Message:   "project already has a main workflow tracker",
			ProjectID: projectID,
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check existing tracker: %w", err)
	}

	h, err := e.store.ReadHierarchy(ctx)
	if err != nil {
		return nil, fmt.Errorf("read hierarchy: %w", err)
	}

	first, ok := h.First()
	if !ok {
		return nil, &Error{
			Code:      ErrCodeEmptyWorkflow,
			Message:   "hierarchy has no active line items",
			ProjectID: projectID,
		}
	}

	now := e.clock.Now()
	if err := e.store.CreateProject(ctx, store.Project{
		ID:        projectID,
		Name:      projectName,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	phaseID, sectionID, itemID := first.Phase.ID, first.Section.ID, first.Item.ID
	tr := store.Tracker{
		ID:                uuid.NewString(),
		ProjectID:         projectID,
		IsMain:            true,
		CurrentPhaseID:    &phaseID,
		CurrentSectionID:  &sectionID,
		CurrentLineItemID: &itemID,
		PhaseEnteredAt:    &now,
		SectionEnteredAt:  &now,
		LineItemEnteredAt: &now,
		CreatedAt:         now,
	}
	if err := e.store.CreateTracker(ctx, tr); err != nil {
		return nil, fmt.Errorf("create tracker: %w", err)
	}

	result := &InitResult{
		TrackerID: tr.ID,
		FirstItem: first.Summary(),
		Progress:  computeProgress(0, h.TotalActive()),
	}

	slog.Info("workflow initialized",
		"project_id", projectID,
		"tracker_id", tr.ID,
		"first_line_item_id", first.Item.ID,
		"total_items", result.Progress.Total,
	)

	// The initial alert and event follow the same eventual-consistency
	// rule as completion side effects.
	if err := e.alerts.Create(ctx, projectID, first); err != nil {
		slog.Warn("initial alert creation failed", "error", err, "project_id", projectID)
		result.Warnings = append(result.Warnings, fmt.Sprintf("create alert: %v", err))
	}

	ref := first.Summary()
	ev := notify.Event{
		ID:         uuid.NewString(),
		Kind:       notify.EventWorkflowStarted,
		ProjectID:  projectID,
		TrackerID:  tr.ID,
		NextItem:   itemRef(&ref),
		Total:      result.Progress.Total,
		OccurredAt: now,
	}
	if err := e.emitter.Emit(ctx, ev); err != nil {
		slog.Warn("workflow started event emission failed", "error", err, "project_id", projectID)
		result.Warnings = append(result.Warnings, fmt.Sprintf("emit event: %v", err))
	}

	return result, nil
}
