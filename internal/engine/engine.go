package engine

import (
	"context"

	"github.com/fieldline/fieldline/internal/alert"
	"github.com/fieldline/fieldline/internal/hierarchy"
	"github.com/fieldline/fieldline/internal/notify"
	"github.com/fieldline/fieldline/internal/store"
)

// CompleteRequest identifies a line item to complete.
type CompleteRequest struct {
	ProjectID  string
	LineItemID string
	UserID     string
	Notes      string
}

// Progress is the derived completion state of a tracker. It is always
// recomputed from the ledger, never patched incrementally.
type Progress struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// CompletionResult describes the outcome of a completion.
//
// NextItem is nil when the workflow is complete. AlreadyCompleted marks
// the benign idempotent outcome: the ledger already held this item, no
// state moved, and the result reflects the existing completion's effect.
// Warnings carry alert/notification failures that occurred after the
// core commit - the completion itself still succeeded.
type CompletionResult struct {
	CompletedItem    hierarchy.ItemSummary  `json:"completedItem"`
	NextItem         *hierarchy.ItemSummary `json:"nextItem"`
	Progress         Progress               `json:"progress"`
	AlreadyCompleted bool                   `json:"alreadyCompleted,omitempty"`
	SectionChanged   bool                   `json:"sectionChanged,omitempty"`
	PhaseChanged     bool                   `json:"phaseChanged,omitempty"`
	WorkflowComplete bool                   `json:"workflowComplete,omitempty"`
	OutOfBand        bool                   `json:"outOfBand,omitempty"`
	Warnings         []string               `json:"warnings,omitempty"`
}

// Completer is a completion strategy. Both the standard path (full
// alert and notification bookkeeping) and the degraded path (ledger and
// tracker only) implement it; the choice is made explicitly at engine
// construction, never by catching an error and falling through.
type Completer interface {
	Complete(ctx context.Context, req CompleteRequest) (*CompletionResult, error)
}

// Engine is the workflow progression engine facade.
type Engine struct {
	store     *store.Store
	alerts    *alert.Synchronizer
	emitter   notify.Emitter
	clock     Clock
	degraded  bool
	completer Completer
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source. Used by tests.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithEmitter sets the notification emitter.
// Default: notify.LogEmitter.
func WithEmitter(em notify.Emitter) Option {
	return func(e *Engine) { e.emitter = em }
}

// WithAlertSynchronizer sets the alert synchronizer.
// Default: alert.NewSynchronizer over the engine's store.
func WithAlertSynchronizer(s *alert.Synchronizer) Option {
	return func(e *Engine) { e.alerts = s }
}

// WithDegraded switches the engine to the degraded completion strategy:
// ledger append and tracker advance keep their atomicity, but alert and
// notification bookkeeping is skipped. Intended for operation while the
// alert layer is unavailable.
func WithDegraded() Option {
	return func(e *Engine) { e.degraded = true }
}

// New creates an Engine over the given store.
func New(st *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   st,
		clock:   SystemClock(),
		emitter: notify.LogEmitter{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.alerts == nil {
		e.alerts = alert.NewSynchronizer(st, alert.WithNow(e.clock.Now))
	}
	if e.degraded {
		e.completer = &degradedCompleter{store: e.store, clock: e.clock}
	} else {
		e.completer = &standardCompleter{
			store:   e.store,
			alerts:  e.alerts,
			emitter: e.emitter,
			clock:   e.clock,
		}
	}
	return e
}

// Complete records a line item completion and advances the tracker.
// See CompletionResult for outcome semantics.
func (e *Engine) Complete(ctx context.Context, req CompleteRequest) (*CompletionResult, error) {
	return e.completer.Complete(ctx, req)
}
