package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMainTracker(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedTestWorkflow(t, s)

	tr, err := s.ReadMainTracker(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "tracker-1", tr.ID)
	assert.True(t, tr.IsMain)
	require.NotNil(t, tr.CurrentLineItemID)
	assert.Equal(t, "item-1", *tr.CurrentLineItemID)
	assert.False(t, tr.Complete())
	assert.EqualValues(t, 0, tr.Version)
}

func TestReadMainTracker_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadMainTracker(context.Background(), "no-such-project")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestCreateTracker_SecondMainRejected(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedTestWorkflow(t, s)

	phaseID := "phase-a"
	err := s.CreateTracker(ctx, Tracker{
		ID:             "tracker-2",
		ProjectID:      "proj-1",
		IsMain:         true,
		CurrentPhaseID: &phaseID,
		CreatedAt:      testTime,
	})
	require.Error(t, err, "partial unique index must reject a second main tracker")
}

func TestCreateTracker_AuxiliaryAllowed(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedTestWorkflow(t, s)

	err := s.CreateTracker(ctx, Tracker{
		ID:        "tracker-aux",
		ProjectID: "proj-1",
		IsMain:    false,
		CreatedAt: testTime,
	})
	require.NoError(t, err)

	tr, err := s.ReadTracker(ctx, "tracker-aux")
	require.NoError(t, err)
	assert.False(t, tr.IsMain)
	assert.True(t, tr.Complete(), "auxiliary tracker with no pointer reads back as complete")
}
