package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/fieldline/internal/store"
	"github.com/fieldline/fieldline/internal/testutil"
)

func newDegradedEngine(t *testing.T) (*Engine, *store.Store, *testutil.CollectEmitter) {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.SeedHierarchy(ctx, testutil.RoofingPhases()))

	emitter := &testutil.CollectEmitter{}
	e := New(st,
		WithClock(testutil.NewFixedClock()),
		WithEmitter(emitter),
		WithDegraded(),
	)
	_, err = e.InitializeWorkflow(ctx, "proj-1", "14 Oak St")
	require.NoError(t, err)
	return e, st, emitter
}

func TestDegraded_AdvancesTracker(t *testing.T) {
	e, st, _ := newDegradedEngine(t)
	ctx := context.Background()

	res, err := e.Complete(ctx, CompleteRequest{ProjectID: "proj-1", LineItemID: "item-order"})
	require.NoError(t, err)

	require.NotNil(t, res.NextItem)
	assert.Equal(t, "item-delivery", res.NextItem.ID)
	require.Contains(t, res.Warnings, "degraded mode: alert and notification bookkeeping skipped")

	tr, err := st.ReadMainTracker(ctx, "proj-1")
	require.NoError(t, err)
	require.NotNil(t, tr.CurrentLineItemID)
	assert.Equal(t, "item-delivery", *tr.CurrentLineItemID)
}

func TestDegraded_SkipsAlertsAndEvents(t *testing.T) {
	e, st, emitter := newDegradedEngine(t)
	ctx := context.Background()

	before := len(emitter.Events())
	_, err := e.Complete(ctx, CompleteRequest{ProjectID: "proj-1", LineItemID: "item-order"})
	require.NoError(t, err)

	// Completion emitted nothing and left the alert queue untouched:
	// the initial alert for item-order is still the only row.
	assert.Len(t, emitter.Events(), before)

	alerts, err := st.ListActiveAlerts(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "item-order", alerts[0].LineItemID)
}

func TestDegraded_Idempotent(t *testing.T) {
	e, _, _ := newDegradedEngine(t)
	ctx := context.Background()

	_, err := e.Complete(ctx, CompleteRequest{ProjectID: "proj-1", LineItemID: "item-order"})
	require.NoError(t, err)

	res, err := e.Complete(ctx, CompleteRequest{ProjectID: "proj-1", LineItemID: "item-order"})
	require.NoError(t, err)
	assert.True(t, res.AlreadyCompleted)
	require.NotNil(t, res.NextItem)
	assert.Equal(t, "item-delivery", res.NextItem.ID)
}
