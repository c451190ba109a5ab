package alert

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/fieldline/internal/hierarchy"
	"github.com/fieldline/fieldline/internal/store"
	"github.com/fieldline/fieldline/internal/testutil"
)

func newTestSync(t *testing.T, opts ...Option) (*Synchronizer, *store.Store, *hierarchy.Hierarchy) {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.SeedHierarchy(ctx, testutil.RoofingPhases()))
	require.NoError(t, st.CreateProject(ctx, store.Project{
		ID: "proj-1", Name: "14 Oak St",
		CreatedAt: testutil.BaseTime, UpdatedAt: testutil.BaseTime,
	}))

	h, err := st.ReadHierarchy(ctx)
	require.NoError(t, err)

	all := append([]Option{WithNow(testutil.NewFixedClock().Now)}, opts...)
	return NewSynchronizer(st, all...), st, h
}

func mustPos(t *testing.T, h *hierarchy.Hierarchy, itemID string) hierarchy.Position {
	t.Helper()
	pos, ok := h.Item(itemID)
	require.True(t, ok)
	return pos
}

func TestCreate(t *testing.T) {
	s, st, h := newTestSync(t, WithResolver(testutil.StaticResolver{"OFFICE": "user-pm"}))
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "proj-1", mustPos(t, h, "item-order")))

	alerts, err := st.ListActiveAlerts(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "item-order", alerts[0].LineItemID)
	assert.Equal(t, "user-pm", alerts[0].AssignedTo)
	assert.Equal(t, "MEDIUM", alerts[0].Priority)
	require.NotNil(t, alerts[0].DueDate)
	assert.Equal(t, testutil.BaseTime.Add(DefaultDueIn), alerts[0].DueDate.UTC())
}

func TestCreate_Idempotent(t *testing.T) {
	s, st, h := newTestSync(t)
	ctx := context.Background()
	pos := mustPos(t, h, "item-order")

	require.NoError(t, s.Create(ctx, "proj-1", pos))
	require.NoError(t, s.Create(ctx, "proj-1", pos))

	alerts, err := st.ListActiveAlerts(ctx, "proj-1")
	require.NoError(t, err)
	assert.Len(t, alerts, 1, "duplicate create absorbed by the active-alert index")
}

func TestCreate_CompletionPhaseIsHighPriority(t *testing.T) {
	s, st, h := newTestSync(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "proj-1", mustPos(t, h, "item-inspect")))

	alerts, err := st.ListActiveAlerts(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "HIGH", alerts[0].Priority)
}

func TestCreate_RoleEchoFallback(t *testing.T) {
	s, st, h := newTestSync(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "proj-1", mustPos(t, h, "item-remove")))

	alerts, err := st.ListActiveAlerts(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "FIELD", alerts[0].AssignedTo)
}

func TestCreate_ResolverFailure(t *testing.T) {
	s, st, h := newTestSync(t, WithResolver(testutil.FailResolver{}))
	ctx := context.Background()

	err := s.Create(ctx, "proj-1", mustPos(t, h, "item-order"))
	require.Error(t, err)

	alerts, listErr := st.ListActiveAlerts(ctx, "proj-1")
	require.NoError(t, listErr)
	assert.Empty(t, alerts, "no alert written when the assignee cannot resolve")
}

func TestCreate_DueInOverride(t *testing.T) {
	s, st, h := newTestSync(t, WithDueIn(2*time.Hour))
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "proj-1", mustPos(t, h, "item-order")))

	alerts, err := st.ListActiveAlerts(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.NotNil(t, alerts[0].DueDate)
	assert.Equal(t, testutil.BaseTime.Add(2*time.Hour), alerts[0].DueDate.UTC())
}

func TestRetire(t *testing.T) {
	s, st, h := newTestSync(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "proj-1", mustPos(t, h, "item-order")))
	require.NoError(t, s.Retire(ctx, "proj-1", "item-order"))

	alerts, err := st.ListActiveAlerts(ctx, "proj-1")
	require.NoError(t, err)
	assert.Empty(t, alerts)

	// Retiring again is a no-op, not an error.
	require.NoError(t, s.Retire(ctx, "proj-1", "item-order"))
}

func TestRetireThenCreate_MovesAlert(t *testing.T) {
	s, st, h := newTestSync(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "proj-1", mustPos(t, h, "item-order")))
	require.NoError(t, s.Retire(ctx, "proj-1", "item-order"))
	require.NoError(t, s.Create(ctx, "proj-1", mustPos(t, h, "item-delivery")))

	alerts, err := st.ListActiveAlerts(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "item-delivery", alerts[0].LineItemID)
}
