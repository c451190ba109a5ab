// Package notify defines the event boundary between the progression
// engine and whatever fans notifications out to users (push, sockets,
// system messages).
//
// The engine never reaches into process-wide broadcast state: it is
// handed an Emitter and publishes structured events through it. The
// channel-backed emitter is the production wiring; the slog emitter
// serves the CLI and local runs.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// Event kinds published by the engine.
const (
	EventWorkflowStarted   = "workflow_started"
	EventLineItemCompleted = "line_item_completed"
	EventWorkflowCompleted = "workflow_completed"
)

// ItemRef identifies a line item in an event payload.
type ItemRef struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	SectionName     string `json:"sectionName"`
	PhaseName       string `json:"phaseName"`
	ResponsibleRole string `json:"responsibleRole,omitempty"`
}

// Event is the structured payload handed to the notification fan-out.
type Event struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	ProjectID      string    `json:"projectId"`
	TrackerID      string    `json:"trackerId"`
	CompletedItem  *ItemRef  `json:"completedItem,omitempty"`
	NextItem       *ItemRef  `json:"nextItem,omitempty"`
	Completed      int       `json:"completed"`
	Total          int       `json:"total"`
	Percentage     float64   `json:"percentage"`
	SectionChanged bool      `json:"sectionChanged"`
	PhaseChanged   bool      `json:"phaseChanged"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// Emitter receives engine events for fan-out.
//
// Emit is called after the completion transaction has committed; a
// failed emit is logged as a warning by the caller and never rolls the
// completion back.
type Emitter interface {
	Emit(ctx context.Context, ev Event) error
}

// ChannelEmitter publishes events to a Go channel, decoupling the
// engine from the delivery transport.
type ChannelEmitter struct {
	ch chan Event
}

// NewChannelEmitter creates a channel emitter with the given buffer size.
func NewChannelEmitter(buffer int) *ChannelEmitter {
	return &ChannelEmitter{ch: make(chan Event, buffer)}
}

// Events returns the receive side of the emitter.
func (e *ChannelEmitter) Events() <-chan Event {
	return e.ch
}

// Emit publishes the event, blocking until a consumer accepts it or the
// context is cancelled.
func (e *ChannelEmitter) Emit(ctx context.Context, ev Event) error {
	select {
	case e.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogEmitter writes events to structured logs instead of a transport.
type LogEmitter struct{}

// Emit logs the event at info level.
func (LogEmitter) Emit(_ context.Context, ev Event) error {
	slog.Info("workflow event",
		"event_id", ev.ID,
		"kind", ev.Kind,
		"project_id", ev.ProjectID,
		"tracker_id", ev.TrackerID,
		"completed", ev.Completed,
		"total", ev.Total,
		"percentage", ev.Percentage,
		"phase_changed", ev.PhaseChanged,
		"section_changed", ev.SectionChanged,
	)
	return nil
}
