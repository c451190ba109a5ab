package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/fieldline/internal/alert"
	"github.com/fieldline/fieldline/internal/notify"
	"github.com/fieldline/fieldline/internal/store"
	"github.com/fieldline/fieldline/internal/testutil"
)

// newTestEngine seeds the roofing fixture catalog and initializes the
// workflow for proj-1, returning the engine plus its collaborator fakes.
func newTestEngine(t *testing.T, opts ...Option) (*Engine, *store.Store, *testutil.CollectEmitter, *testutil.FixedClock) {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.SeedHierarchy(ctx, testutil.RoofingPhases()))

	clock := testutil.NewFixedClock()
	emitter := &testutil.CollectEmitter{}
	sync := alert.NewSynchronizer(st,
		alert.WithNow(clock.Now),
		alert.WithResolver(testutil.StaticResolver{"OFFICE": "user-pm", "FIELD": "user-crew", "ADMIN": "user-admin"}),
	)

	all := append([]Option{
		WithClock(clock),
		WithEmitter(emitter),
		WithAlertSynchronizer(sync),
	}, opts...)
	e := New(st, all...)

	_, err = e.InitializeWorkflow(ctx, "proj-1", "14 Oak St")
	require.NoError(t, err)

	return e, st, emitter, clock
}

func TestInitializeWorkflow(t *testing.T) {
	ctx := context.Background()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.SeedHierarchy(ctx, testutil.RoofingPhases()))

	emitter := &testutil.CollectEmitter{}
	e := New(st, WithClock(testutil.NewFixedClock()), WithEmitter(emitter))

	res, err := e.InitializeWorkflow(ctx, "proj-1", "14 Oak St")
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "item-order", res.FirstItem.ID)
	assert.Equal(t, 6, res.Progress.Total)
	assert.Equal(t, 0, res.Progress.Completed)

	// Tracker points at the first line item in traversal order.
	tr, err := st.ReadMainTracker(ctx, "proj-1")
	require.NoError(t, err)
	require.NotNil(t, tr.CurrentLineItemID)
	assert.Equal(t, "item-order", *tr.CurrentLineItemID)
	assert.NotNil(t, tr.PhaseEnteredAt)
	assert.NotNil(t, tr.LineItemEnteredAt)

	// Initial alert raised for the first item.
	alerts, err := st.ListActiveAlerts(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "item-order", alerts[0].LineItemID)

	// Started event emitted.
	events := emitter.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notify.EventWorkflowStarted, events[0].Kind)
	require.NotNil(t, events[0].NextItem)
	assert.Equal(t, "item-order", events[0].NextItem.ID)
}

func TestInitializeWorkflow_AlreadyInitialized(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	_, err := e.InitializeWorkflow(context.Background(), "proj-1", "14 Oak St")
	require.Error(t, err)
	assert.Equal(t, ErrCodeWorkflowExists, CodeOf(err))
}

func TestInitializeWorkflow_EmptyCatalog(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer st.Close()

	e := New(st, WithClock(testutil.NewFixedClock()), WithEmitter(&testutil.CollectEmitter{}))

	_, err = e.InitializeWorkflow(context.Background(), "proj-1", "14 Oak St")
	require.Error(t, err)
	assert.Equal(t, ErrCodeEmptyWorkflow, CodeOf(err))
}
