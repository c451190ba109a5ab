package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/fieldline/fieldline/internal/notify"
)

// CollectEmitter records every emitted event for assertions.
// Thread-safe: completion side effects may run from racing goroutines.
type CollectEmitter struct {
	mu     sync.Mutex
	events []notify.Event
}

// Emit records the event.
func (e *CollectEmitter) Emit(_ context.Context, ev notify.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return nil
}

// Events returns a copy of the recorded events.
func (e *CollectEmitter) Events() []notify.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]notify.Event, len(e.events))
	copy(out, e.events)
	return out
}

// FailEmitter fails every emit. Used to exercise the warning path.
type FailEmitter struct{}

// Emit always returns an error.
func (FailEmitter) Emit(context.Context, notify.Event) error {
	return errors.New("emitter unavailable")
}

// StaticResolver resolves assignees from a fixed role → user map,
// falling back to the role name for unmapped roles.
type StaticResolver map[string]string

// Resolve returns the mapped user for the role.
func (r StaticResolver) Resolve(_ context.Context, _ string, responsibleRole string) (string, error) {
	if user, ok := r[responsibleRole]; ok {
		return user, nil
	}
	return responsibleRole, nil
}

// FailResolver fails every resolution. Used to exercise the warning path.
type FailResolver struct{}

// Resolve always returns an error.
func (FailResolver) Resolve(context.Context, string, string) (string, error) {
	return "", errors.New("role service unavailable")
}
