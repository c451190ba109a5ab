package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fieldline/fieldline/internal/hierarchy"
)

var testTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// createTestStore creates a new store backed by a temp-dir database.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testPhases returns the standard seed catalog:
//
//	Phase A {Section 1: [item-1, item-2]}
//	Phase B {Section 2: [item-3]}
func testPhases() []hierarchy.Phase {
	return []hierarchy.Phase{
		{
			ID: "phase-a", PhaseName: "Phase A", PhaseType: "execution", DisplayOrder: 1,
			Sections: []hierarchy.Section{{
				ID: "section-1", SectionName: "Section 1", DisplayOrder: 1,
				Items: []hierarchy.LineItem{
					{ID: "item-1", ItemName: "Item 1", ResponsibleRole: "OFFICE", DisplayOrder: 1, Active: true},
					{ID: "item-2", ItemName: "Item 2", ResponsibleRole: "FIELD", DisplayOrder: 2, Active: true},
				},
			}},
		},
		{
			ID: "phase-b", PhaseName: "Phase B", PhaseType: "completion", DisplayOrder: 2,
			Sections: []hierarchy.Section{{
				ID: "section-2", SectionName: "Section 2", DisplayOrder: 1,
				Items: []hierarchy.LineItem{
					{ID: "item-3", ItemName: "Item 3", ResponsibleRole: "ADMIN", DisplayOrder: 1, Active: true},
				},
			}},
		},
	}
}

// seedTestWorkflow seeds the catalog plus a project and its main tracker
// positioned at item-1. Returns the tracker.
func seedTestWorkflow(t *testing.T, s *Store) Tracker {
	t.Helper()
	ctx := context.Background()

	if err := s.SeedHierarchy(ctx, testPhases()); err != nil {
		t.Fatalf("SeedHierarchy() failed: %v", err)
	}

	if err := s.CreateProject(ctx, Project{
		ID: "proj-1", Name: "14 Oak St", CreatedAt: testTime, UpdatedAt: testTime,
	}); err != nil {
		t.Fatalf("CreateProject() failed: %v", err)
	}

	phaseID := "phase-a"
	sectionID := "section-1"
	itemID := "item-1"
	now := testTime
	tr := Tracker{
		ID:                "tracker-1",
		ProjectID:         "proj-1",
		IsMain:            true,
		CurrentPhaseID:    &phaseID,
		CurrentSectionID:  &sectionID,
		CurrentLineItemID: &itemID,
		PhaseEnteredAt:    &now,
		SectionEnteredAt:  &now,
		LineItemEnteredAt: &now,
		CreatedAt:         testTime,
	}
	if err := s.CreateTracker(ctx, tr); err != nil {
		t.Fatalf("CreateTracker() failed: %v", err)
	}
	return tr
}
