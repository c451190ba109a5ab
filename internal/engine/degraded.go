package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fieldline/fieldline/internal/store"
)

// degradedCompleter is the reduced completion strategy used when the
// alert layer is unavailable: it keeps the ledger-append and
// tracker-advance atomicity but skips alert resync and event emission.
//
// Selection is explicit (engine.WithDegraded); the standard strategy
// never falls back to this one on error.
type degradedCompleter struct {
	store *store.Store
	clock Clock
}

func (c *degradedCompleter) Complete(ctx context.Context, req CompleteRequest) (*CompletionResult, error) {
	tr, h, pos, completed, err := loadCompletionState(ctx, c.store, req)
	if err != nil {
		return nil, err
	}

	if completed[req.LineItemID] {
		return benignResult(h, tr, pos, completed)
	}

	outOfBand := tr.CurrentLineItemID == nil || *tr.CurrentLineItemID != req.LineItemID
	completed[req.LineItemID] = true
	next, hasNext := h.Next(pos, completed)

	now := c.clock.Now()
	w := buildCompletionWrite(tr, pos, next, hasNext, req, now, outOfBand, len(completed), h.TotalActive())

	if err := c.store.ApplyCompletion(ctx, w); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyCompleted):
			return benignResultFresh(ctx, c.store, h, req, pos)
		case errors.Is(err, store.ErrVersionConflict):
			return nil, NewConflict(req.ProjectID, req.LineItemID, err)
		default:
			return nil, fmt.Errorf("complete line item %s (degraded): %w", req.LineItemID, err)
		}
	}

	result := &CompletionResult{
		CompletedItem:    pos.Summary(),
		Progress:         computeProgress(len(completed), h.TotalActive()),
		SectionChanged:   hasNext && next.Section.ID != pos.Section.ID,
		PhaseChanged:     hasNext && next.Phase.ID != pos.Phase.ID,
		WorkflowComplete: !hasNext,
		OutOfBand:        outOfBand,
		Warnings:         []string{"degraded mode: alert and notification bookkeeping skipped"},
	}
	if hasNext {
		s := next.Summary()
		result.NextItem = &s
	}

	slog.Info("line item completed (degraded)",
		"project_id", req.ProjectID,
		"tracker_id", tr.ID,
		"line_item_id", req.LineItemID,
		"percentage", result.Progress.Percentage,
	)
	return result, nil
}
