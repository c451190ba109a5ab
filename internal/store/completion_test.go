package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCompletionWrite builds the write for completing item-1 on the
// seeded tracker, advancing to item-2.
func testCompletionWrite(tr Tracker) CompletionWrite {
	phaseID := "phase-a"
	sectionID := "section-1"
	nextItem := "item-2"
	lastItem := "item-1"
	enteredAt := testTime.Add(time.Hour)

	next := tr
	next.CurrentPhaseID = &phaseID
	next.CurrentSectionID = &sectionID
	next.CurrentLineItemID = &nextItem
	next.LastCompletedItemID = &lastItem
	next.LineItemEnteredAt = &enteredAt

	return CompletionWrite{
		Entry: CompletedItem{
			ID:          "comp-1",
			TrackerID:   tr.ID,
			PhaseID:     "phase-a",
			SectionID:   "section-1",
			LineItemID:  "item-1",
			CompletedBy: "user-7",
			CompletedAt: enteredAt,
			Notes:       "shingles delivered",
		},
		Tracker:         next,
		ExpectedVersion: tr.Version,
		Progress:        1.0 / 3.0,
		Now:             enteredAt,
	}
}

func TestApplyCompletion(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tr := seedTestWorkflow(t, s)

	require.NoError(t, s.ApplyCompletion(ctx, testCompletionWrite(tr)))

	// Ledger entry landed.
	ci, err := s.ReadCompletion(ctx, tr.ID, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "user-7", ci.CompletedBy)
	assert.Equal(t, "shingles delivered", ci.Notes)
	assert.False(t, ci.OutOfBand)

	// Tracker advanced and version bumped.
	got, err := s.ReadTracker(ctx, tr.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentLineItemID)
	assert.Equal(t, "item-2", *got.CurrentLineItemID)
	require.NotNil(t, got.LastCompletedItemID)
	assert.Equal(t, "item-1", *got.LastCompletedItemID)
	assert.EqualValues(t, 1, got.Version)

	// Progress persisted on the project.
	p, err := s.ReadProject(ctx, "proj-1")
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, p.Progress, 1e-9)
}

func TestApplyCompletion_DuplicateIsRejectedAtomically(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tr := seedTestWorkflow(t, s)

	require.NoError(t, s.ApplyCompletion(ctx, testCompletionWrite(tr)))

	// Second apply for the same line item: ledger slot already claimed.
	fresh, err := s.ReadTracker(ctx, tr.ID)
	require.NoError(t, err)
	w := testCompletionWrite(fresh)
	w.Entry.ID = "comp-1-retry"

	err = s.ApplyCompletion(ctx, w)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyCompleted))

	// Nothing else moved: still exactly one ledger row, version still 1.
	count, err := s.CompletedCount(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := s.ReadTracker(ctx, tr.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Version)
}

func TestApplyCompletion_StaleVersionRollsBack(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tr := seedTestWorkflow(t, s)

	w := testCompletionWrite(tr)
	w.ExpectedVersion = 41 // stale read

	err := s.ApplyCompletion(ctx, w)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVersionConflict))

	// The ledger append from step 1 must have rolled back with the
	// tracker update: no partial state.
	count, err := s.CompletedCount(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	got, err := s.ReadTracker(ctx, tr.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentLineItemID)
	assert.Equal(t, "item-1", *got.CurrentLineItemID)
	assert.EqualValues(t, 0, got.Version)
}

func TestApplyCompletion_TerminalNullsPointers(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tr := seedTestWorkflow(t, s)

	w := testCompletionWrite(tr)
	w.Entry.LineItemID = "item-3"
	w.Entry.PhaseID = "phase-b"
	w.Entry.SectionID = "section-2"
	last := "item-3"
	w.Tracker.CurrentPhaseID = nil
	w.Tracker.CurrentSectionID = nil
	w.Tracker.CurrentLineItemID = nil
	w.Tracker.LastCompletedItemID = &last
	w.Progress = 1.0

	require.NoError(t, s.ApplyCompletion(ctx, w))

	got, err := s.ReadTracker(ctx, tr.ID)
	require.NoError(t, err)
	assert.True(t, got.Complete())
	assert.Nil(t, got.CurrentPhaseID)
	assert.Nil(t, got.CurrentSectionID)
	assert.Nil(t, got.CurrentLineItemID)

	p, err := s.ReadProject(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Progress)
}

func TestCompletedIDs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tr := seedTestWorkflow(t, s)

	ids, err := s.CompletedIDs(ctx, tr.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, s.ApplyCompletion(ctx, testCompletionWrite(tr)))

	ids, err = s.CompletedIDs(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"item-1": true}, ids)
}

func TestReadLedger_Order(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tr := seedTestWorkflow(t, s)

	require.NoError(t, s.ApplyCompletion(ctx, testCompletionWrite(tr)))

	fresh, err := s.ReadTracker(ctx, tr.ID)
	require.NoError(t, err)

	w2 := testCompletionWrite(fresh)
	w2.Entry.ID = "comp-2"
	w2.Entry.LineItemID = "item-2"
	w2.Entry.CompletedAt = testTime.Add(2 * time.Hour)
	w2.ExpectedVersion = fresh.Version
	require.NoError(t, s.ApplyCompletion(ctx, w2))

	entries, err := s.ReadLedger(ctx, tr.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "item-1", entries[0].LineItemID)
	assert.Equal(t, "item-2", entries[1].LineItemID)
}
