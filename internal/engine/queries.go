package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fieldline/fieldline/internal/hierarchy"
	"github.com/fieldline/fieldline/internal/store"
)

// PhaseReadiness reports whether a phase has any incomplete items left.
// BlockerName names the first incomplete item when Ready is false.
type PhaseReadiness struct {
	Ready       bool   `json:"ready"`
	BlockerName string `json:"blockerName,omitempty"`
}

// ProjectStatus is the read-path view of a project's workflow state.
type ProjectStatus struct {
	ProjectID   string                 `json:"projectId"`
	ProjectName string                 `json:"projectName"`
	TrackerID   string                 `json:"trackerId"`
	CurrentItem *hierarchy.ItemSummary `json:"currentItem"`
	Progress    Progress               `json:"progress"`
	Complete    bool                   `json:"complete"`
}

// GetProgress returns {completed, total, percentage} for the project's
// main tracker, derived fresh from the ledger. Never cached, so it
// cannot drift from the source of truth even when the project's stored
// percentage lags.
func (e *Engine) GetProgress(ctx context.Context, projectID string) (Progress, error) {
	tr, h, err := e.trackerAndHierarchy(ctx, projectID)
	if err != nil {
		return Progress{}, err
	}

	count, err := e.store.CompletedCount(ctx, tr.ID)
	if err != nil {
		return Progress{}, fmt.Errorf("count completions: %w", err)
	}
	return computeProgress(count, h.TotalActive()), nil
}

// GetStatus returns the project's tracker position and progress.
func (e *Engine) GetStatus(ctx context.Context, projectID string) (*ProjectStatus, error) {
	tr, h, err := e.trackerAndHierarchy(ctx, projectID)
	if err != nil {
		return nil, err
	}

	p, err := e.store.ReadProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}

	count, err := e.store.CompletedCount(ctx, tr.ID)
	if err != nil {
		return nil, fmt.Errorf("count completions: %w", err)
	}

	status := &ProjectStatus{
		ProjectID:   projectID,
		ProjectName: p.Name,
		TrackerID:   tr.ID,
		Progress:    computeProgress(count, h.TotalActive()),
		Complete:    tr.Complete(),
	}
	if tr.CurrentLineItemID != nil {
		if pos, ok := h.Item(*tr.CurrentLineItemID); ok {
			s := pos.Summary()
			status.CurrentItem = &s
		}
	}
	return status, nil
}

// GetIncompleteItemsInPhase returns the named phase's active line items
// that are not yet in the ledger, in traversal order.
func (e *Engine) GetIncompleteItemsInPhase(ctx context.Context, projectID, phaseName string) ([]hierarchy.ItemSummary, error) {
	tr, h, err := e.trackerAndHierarchy(ctx, projectID)
	if err != nil {
		return nil, err
	}

	completed, err := e.store.CompletedIDs(ctx, tr.ID)
	if err != nil {
		return nil, fmt.Errorf("read completed ids: %w", err)
	}

	items, ok := h.IncompleteInPhase(phaseName, completed)
	if !ok {
		return nil, &Error{
			Code:      ErrCodeLineItemNotFound,
			Message:   fmt.Sprintf("phase %q does not exist in the workflow hierarchy", phaseName),
			ProjectID: projectID,
		}
	}
	return items, nil
}

// FindBlockingItem returns the first incomplete item in the named
// phase, or nil when the phase is fully complete.
func (e *Engine) FindBlockingItem(ctx context.Context, projectID, phaseName string) (*hierarchy.ItemSummary, error) {
	items, err := e.GetIncompleteItemsInPhase(ctx, projectID, phaseName)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// CanAdvancePhase reports whether every item in the named phase is
// complete, naming the first blocker when not.
func (e *Engine) CanAdvancePhase(ctx context.Context, projectID, phaseName string) (PhaseReadiness, error) {
	blocker, err := e.FindBlockingItem(ctx, projectID, phaseName)
	if err != nil {
		return PhaseReadiness{}, err
	}
	if blocker != nil {
		return PhaseReadiness{Ready: false, BlockerName: blocker.Name}, nil
	}
	return PhaseReadiness{Ready: true}, nil
}

// ListActiveAlerts returns the project's ACTIVE alerts, oldest first.
func (e *Engine) ListActiveAlerts(ctx context.Context, projectID string) ([]AlertView, error) {
	alerts, err := e.store.ListActiveAlerts(ctx, projectID)
	if err != nil {
		return nil, err
	}

	h, err := e.store.ReadHierarchy(ctx)
	if err != nil {
		return nil, fmt.Errorf("read hierarchy: %w", err)
	}

	views := []AlertView{}
	for _, a := range alerts {
		v := AlertView{
			ID:         a.ID,
			LineItemID: a.LineItemID,
			AssignedTo: a.AssignedTo,
			Priority:   a.Priority,
		}
		if a.DueDate != nil {
			v.DueDate = a.DueDate.Format("2006-01-02")
		}
		if pos, ok := h.Item(a.LineItemID); ok {
			v.ItemName = pos.Item.ItemName
			v.PhaseName = pos.Phase.PhaseName
		}
		views = append(views, v)
	}
	return views, nil
}

// AlertView is the read-path view of an active alert.
type AlertView struct {
	ID         string `json:"id"`
	LineItemID string `json:"lineItemId"`
	ItemName   string `json:"itemName,omitempty"`
	PhaseName  string `json:"phaseName,omitempty"`
	AssignedTo string `json:"assignedTo"`
	Priority   string `json:"priority"`
	DueDate    string `json:"dueDate,omitempty"`
}

// trackerAndHierarchy loads the main tracker and hierarchy snapshot,
// mapping a missing tracker to the engine error taxonomy.
func (e *Engine) trackerAndHierarchy(ctx context.Context, projectID string) (store.Tracker, *hierarchy.Hierarchy, error) {
	tr, err := e.store.ReadMainTracker(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Tracker{}, nil, NewTrackerNotFound(projectID)
		}
		return store.Tracker{}, nil, fmt.Errorf("read tracker: %w", err)
	}

	h, err := e.store.ReadHierarchy(ctx)
	if err != nil {
		return store.Tracker{}, nil, fmt.Errorf("read hierarchy: %w", err)
	}
	return tr, h, nil
}
