package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fieldline/fieldline/internal/alert"
	"github.com/fieldline/fieldline/internal/hierarchy"
	"github.com/fieldline/fieldline/internal/notify"
	"github.com/fieldline/fieldline/internal/store"
)

// standardCompleter is the full completion strategy: atomic ledger and
// tracker write, then alert resync and event emission.
type standardCompleter struct {
	store   *store.Store
	alerts  *alert.Synchronizer
	emitter notify.Emitter
	clock   Clock
}

func (c *standardCompleter) Complete(ctx context.Context, req CompleteRequest) (*CompletionResult, error) {
	tr, h, pos, completed, err := loadCompletionState(ctx, c.store, req)
	if err != nil {
		return nil, err
	}

	// Idempotent outcome: the ledger already holds this item. Return the
	// existing completion's effect instead of an error.
	if completed[req.LineItemID] {
		return benignResult(h, tr, pos, completed)
	}

	outOfBand := tr.CurrentLineItemID == nil || *tr.CurrentLineItemID != req.LineItemID
	if outOfBand {
		// Business intent is "complete this item", not "complete only what
		// the system thinks is current". Proceed, but flag the anomaly.
		slog.Warn("completing line item that is not the tracker's current position",
			"project_id", req.ProjectID,
			"tracker_id", tr.ID,
			"line_item_id", req.LineItemID,
			"current_line_item_id", tr.CurrentLineItemID,
		)
	}

	completed[req.LineItemID] = true
	next, hasNext := h.Next(pos, completed)

	now := c.clock.Now()
	w := buildCompletionWrite(tr, pos, next, hasNext, req, now, outOfBand, len(completed), h.TotalActive())

	if err := c.store.ApplyCompletion(ctx, w); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyCompleted):
			// Lost a race with an identical completion. Re-read so the
			// benign result reflects the winner's effect, not our stale view.
			return benignResultFresh(ctx, c.store, h, req, pos)
		case errors.Is(err, store.ErrVersionConflict):
			return nil, NewConflict(req.ProjectID, req.LineItemID, err)
		default:
			return nil, fmt.Errorf("complete line item %s: %w", req.LineItemID, err)
		}
	}

	result := &CompletionResult{
		CompletedItem:    pos.Summary(),
		Progress:         computeProgress(len(completed), h.TotalActive()),
		SectionChanged:   hasNext && next.Section.ID != pos.Section.ID,
		PhaseChanged:     hasNext && next.Phase.ID != pos.Phase.ID,
		WorkflowComplete: !hasNext,
		OutOfBand:        outOfBand,
	}
	if hasNext {
		s := next.Summary()
		result.NextItem = &s
	}

	slog.Info("line item completed",
		"project_id", req.ProjectID,
		"tracker_id", tr.ID,
		"line_item_id", req.LineItemID,
		"completed_by", req.UserID,
		"next_line_item_id", nextItemID(result.NextItem),
		"percentage", result.Progress.Percentage,
	)

	// Alert resync and event emission run after the core commit. The
	// ledger and tracker are authoritative; failures here degrade to
	// warnings and the alert layer catches up eventually.
	c.syncSideEffects(ctx, req, tr, result, next, hasNext, now)

	return result, nil
}

// syncSideEffects retires the completed item's alert, creates one for
// the next position, and emits the completion event. Each failure is
// logged and appended to result.Warnings without failing the completion.
func (c *standardCompleter) syncSideEffects(
	ctx context.Context,
	req CompleteRequest,
	tr store.Tracker,
	result *CompletionResult,
	next hierarchy.Position,
	hasNext bool,
	now time.Time,
) {
	if err := c.alerts.Retire(ctx, req.ProjectID, req.LineItemID); err != nil {
		warnDependency(result, "retire alert", err, req)
	}

	if hasNext {
		if err := c.alerts.Create(ctx, req.ProjectID, next); err != nil {
			warnDependency(result, "create alert", err, req)
		}
	}

	kind := notify.EventLineItemCompleted
	if result.WorkflowComplete {
		kind = notify.EventWorkflowCompleted
	}
	ev := notify.Event{
		ID:             uuid.NewString(),
		Kind:           kind,
		ProjectID:      req.ProjectID,
		TrackerID:      tr.ID,
		CompletedItem:  itemRef(&result.CompletedItem),
		NextItem:       itemRef(result.NextItem),
		Completed:      result.Progress.Completed,
		Total:          result.Progress.Total,
		Percentage:     result.Progress.Percentage,
		SectionChanged: result.SectionChanged,
		PhaseChanged:   result.PhaseChanged,
		OccurredAt:     now,
	}
	if err := c.emitter.Emit(ctx, ev); err != nil {
		warnDependency(result, "emit event", err, req)
	}
}

// loadCompletionState reads the pure inputs of a completion: the main
// tracker, the hierarchy snapshot, the completed item's position, and
// the tracker's completed-ID set.
func loadCompletionState(
	ctx context.Context,
	st *store.Store,
	req CompleteRequest,
) (store.Tracker, *hierarchy.Hierarchy, hierarchy.Position, map[string]bool, error) {
	tr, err := st.ReadMainTracker(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Tracker{}, nil, hierarchy.Position{}, nil, NewTrackerNotFound(req.ProjectID)
		}
		return store.Tracker{}, nil, hierarchy.Position{}, nil, fmt.Errorf("read tracker: %w", err)
	}

	h, err := st.ReadHierarchy(ctx)
	if err != nil {
		return store.Tracker{}, nil, hierarchy.Position{}, nil, fmt.Errorf("read hierarchy: %w", err)
	}

	pos, ok := h.Item(req.LineItemID)
	if !ok {
		return store.Tracker{}, nil, hierarchy.Position{}, nil, NewLineItemNotFound(req.ProjectID, req.LineItemID)
	}

	completed, err := st.CompletedIDs(ctx, tr.ID)
	if err != nil {
		return store.Tracker{}, nil, hierarchy.Position{}, nil, fmt.Errorf("read completed ids: %w", err)
	}

	return tr, h, pos, completed, nil
}

// buildCompletionWrite assembles the row mutations for a completion:
// the ledger entry, the advanced tracker (with "entered at" stamps only
// for levels that changed), and the recomputed progress.
func buildCompletionWrite(
	tr store.Tracker,
	pos, next hierarchy.Position,
	hasNext bool,
	req CompleteRequest,
	now time.Time,
	outOfBand bool,
	completedCount, totalActive int,
) store.CompletionWrite {
	advanced := tr
	lastID := pos.Item.ID
	advanced.LastCompletedItemID = &lastID

	if hasNext {
		phaseID, sectionID, itemID := next.Phase.ID, next.Section.ID, next.Item.ID
		advanced.CurrentPhaseID = &phaseID
		advanced.CurrentSectionID = &sectionID
		advanced.CurrentLineItemID = &itemID

		// Stamp "entered at" only for levels whose pointer changed.
		if tr.CurrentPhaseID == nil || *tr.CurrentPhaseID != phaseID {
			advanced.PhaseEnteredAt = &now
		}
		if tr.CurrentSectionID == nil || *tr.CurrentSectionID != sectionID {
			advanced.SectionEnteredAt = &now
		}
		advanced.LineItemEnteredAt = &now
	} else {
		// Traversal exhausted: workflow complete.
		advanced.CurrentPhaseID = nil
		advanced.CurrentSectionID = nil
		advanced.CurrentLineItemID = nil
	}

	return store.CompletionWrite{
		Entry: store.CompletedItem{
			ID:          uuid.NewString(),
			TrackerID:   tr.ID,
			PhaseID:     pos.Phase.ID,
			SectionID:   pos.Section.ID,
			LineItemID:  pos.Item.ID,
			CompletedBy: req.UserID,
			CompletedAt: now,
			Notes:       req.Notes,
			OutOfBand:   outOfBand,
		},
		Tracker:         advanced,
		ExpectedVersion: tr.Version,
		Progress:        computeProgress(completedCount, totalActive).Percentage,
		Now:             now,
	}
}

// benignResultFresh re-reads the tracker and ledger before building the
// idempotent outcome. Used on the lost-race path, where the local state
// predates the winning writer's commit.
func benignResultFresh(ctx context.Context, st *store.Store, h *hierarchy.Hierarchy, req CompleteRequest, pos hierarchy.Position) (*CompletionResult, error) {
	tr, err := st.ReadMainTracker(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("re-read tracker after race: %w", err)
	}
	completed, err := st.CompletedIDs(ctx, tr.ID)
	if err != nil {
		return nil, fmt.Errorf("re-read completed ids after race: %w", err)
	}
	return benignResult(h, tr, pos, completed)
}

// benignResult builds the idempotent outcome for an already-completed
// item: the tracker's current position is the next item, nothing moved.
func benignResult(h *hierarchy.Hierarchy, tr store.Tracker, pos hierarchy.Position, completed map[string]bool) (*CompletionResult, error) {
	result := &CompletionResult{
		CompletedItem:    pos.Summary(),
		Progress:         computeProgress(len(completed), h.TotalActive()),
		AlreadyCompleted: true,
		WorkflowComplete: tr.Complete(),
	}
	if tr.CurrentLineItemID != nil {
		if cur, ok := h.Item(*tr.CurrentLineItemID); ok {
			s := cur.Summary()
			result.NextItem = &s
		}
	}

	slog.Info("line item already completed; returning existing effect",
		"tracker_id", tr.ID,
		"line_item_id", pos.Item.ID,
	)
	return result, nil
}

// computeProgress derives {completed, total, percentage} with the
// percentage clamped to [0, 100].
func computeProgress(completed, total int) Progress {
	p := Progress{Completed: completed, Total: total}
	if total > 0 {
		p.Percentage = float64(completed) / float64(total) * 100
		if p.Percentage > 100 {
			p.Percentage = 100
		}
	}
	return p
}

func warnDependency(result *CompletionResult, op string, err error, req CompleteRequest) {
	slog.Warn("completion side effect failed",
		"op", op,
		"error", err,
		"project_id", req.ProjectID,
		"line_item_id", req.LineItemID,
	)
	result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", op, err))
}

func itemRef(s *hierarchy.ItemSummary) *notify.ItemRef {
	if s == nil {
		return nil
	}
	return &notify.ItemRef{
		ID:              s.ID,
		Name:            s.Name,
		SectionName:     s.SectionName,
		PhaseName:       s.PhaseName,
		ResponsibleRole: s.ResponsibleRole,
	}
}

func nextItemID(s *hierarchy.ItemSummary) string {
	if s == nil {
		return ""
	}
	return s.ID
}
