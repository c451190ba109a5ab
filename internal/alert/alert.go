// Package alert keeps the alert queue synchronized with a tracker's
// current position.
//
// Invariant: a tracker with a non-null current line item has exactly one
// ACTIVE alert for that (project, line item); alerts for completed items
// do not remain ACTIVE. Both Retire and Create are safe to call
// redundantly - the store's partial unique index absorbs duplicate
// creates, and retiring an already-retired alert is a no-op.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fieldline/fieldline/internal/hierarchy"
	"github.com/fieldline/fieldline/internal/store"
)

// DefaultDueIn is the default window between an alert's creation and
// its due date.
const DefaultDueIn = 48 * time.Hour

// AssigneeResolver maps a line item's responsible role to the user the
// alert is assigned to. Resolution policy lives outside the engine
// (user/role service); tests inject a scripted resolver.
type AssigneeResolver interface {
	Resolve(ctx context.Context, projectID, responsibleRole string) (string, error)
}

// RoleEcho is the fallback resolver: it assigns the alert to the role
// name itself, leaving user resolution to the delivery layer.
type RoleEcho struct{}

// Resolve returns the role unchanged.
func (RoleEcho) Resolve(_ context.Context, _ string, responsibleRole string) (string, error) {
	return responsibleRole, nil
}

// Synchronizer maintains the one-active-alert invariant for trackers.
type Synchronizer struct {
	store    *store.Store
	resolver AssigneeResolver
	now      func() time.Time
	dueIn    time.Duration
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithResolver sets the assignee resolver.
func WithResolver(r AssigneeResolver) Option {
	return func(s *Synchronizer) { s.resolver = r }
}

// WithNow sets the time source. Used by tests.
func WithNow(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

// WithDueIn sets the due-date window for created alerts.
func WithDueIn(d time.Duration) Option {
	return func(s *Synchronizer) { s.dueIn = d }
}

// NewSynchronizer creates a Synchronizer over the given store.
func NewSynchronizer(st *store.Store, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:    st,
		resolver: RoleEcho{},
		now:      time.Now,
		dueIn:    DefaultDueIn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retire removes any ACTIVE alert for the completed line item.
// Idempotent: retiring twice is a no-op.
func (s *Synchronizer) Retire(ctx context.Context, projectID, lineItemID string) error {
	removed, err := s.store.RetireAlerts(ctx, projectID, lineItemID)
	if err != nil {
		return fmt.Errorf("retire alert for item %s: %w", lineItemID, err)
	}
	if removed > 0 {
		slog.Debug("alert retired",
			"project_id", projectID,
			"line_item_id", lineItemID,
			"removed", removed,
		)
	}
	return nil
}

// Create ensures exactly one ACTIVE alert exists for the position,
// assigned per the item's responsible role. Idempotent: if an active
// alert for the pair already exists, nothing is created.
func (s *Synchronizer) Create(ctx context.Context, projectID string, pos hierarchy.Position) error {
	assignee, err := s.resolver.Resolve(ctx, projectID, pos.Item.ResponsibleRole)
	if err != nil {
		return fmt.Errorf("resolve assignee for item %s: %w", pos.Item.ID, err)
	}

	now := s.now()
	due := now.Add(s.dueIn)
	inserted, err := s.store.CreateActiveAlert(ctx, store.Alert{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		LineItemID: pos.Item.ID,
		AssignedTo: assignee,
		DueDate:    &due,
		Priority:   priorityFor(pos),
		Metadata:   "{}",
		CreatedAt:  now,
	})
	if err != nil {
		return fmt.Errorf("create alert for item %s: %w", pos.Item.ID, err)
	}

	if inserted {
		slog.Debug("alert created",
			"project_id", projectID,
			"line_item_id", pos.Item.ID,
			"assigned_to", assignee,
			"phase", pos.Phase.PhaseName,
		)
	}
	return nil
}

// priorityFor derives an alert priority from the item's position.
// Completion-type phases run hot; everything else is routine.
func priorityFor(pos hierarchy.Position) string {
	if pos.Phase.PhaseType == "completion" {
		return "HIGH"
	}
	return "MEDIUM"
}
