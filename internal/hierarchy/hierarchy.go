package hierarchy

import (
	"fmt"
	"sort"

	"golang.org/x/text/cases"
)

// Hierarchy is an immutable, ordered snapshot of the workflow catalog.
//
// Phases, sections, and line items are sorted by display order at
// construction time; the three nested orders induce one total order
// over every line item (the traversal order). The snapshot is safe
// for concurrent use once built.
type Hierarchy struct {
	phases []Phase

	// Lookup indexes, built once in New.
	itemIndex    map[string]Position
	phaseByFold  map[string]*Phase
	sectionIndex map[string]*Section
}

// New builds a hierarchy snapshot from phases.
//
// The input is sorted by display order at every level and validated:
// display orders must be unique per level, IDs must be unique globally,
// and every section/item must reference its owner. The input slice is
// copied; callers may discard it after construction.
func New(phases []Phase) (*Hierarchy, error) {
	cp := make([]Phase, len(phases))
	copy(cp, phases)
	sort.Slice(cp, func(i, j int) bool { return cp[i].DisplayOrder < cp[j].DisplayOrder })

	h := &Hierarchy{
		phases:       cp,
		itemIndex:    make(map[string]Position),
		phaseByFold:  make(map[string]*Phase),
		sectionIndex: make(map[string]*Section),
	}

	folder := cases.Fold()
	seenPhaseOrder := make(map[int]bool)
	for pi := range h.phases {
		ph := &h.phases[pi]
		if seenPhaseOrder[ph.DisplayOrder] {
			return nil, fmt.Errorf("hierarchy: duplicate phase display order %d (phase %q)", ph.DisplayOrder, ph.PhaseName)
		}
		seenPhaseOrder[ph.DisplayOrder] = true

		fold := folder.String(ph.PhaseName)
		if _, dup := h.phaseByFold[fold]; dup {
			return nil, fmt.Errorf("hierarchy: duplicate phase name %q", ph.PhaseName)
		}
		h.phaseByFold[fold] = ph

		sort.Slice(ph.Sections, func(i, j int) bool {
			return ph.Sections[i].DisplayOrder < ph.Sections[j].DisplayOrder
		})
		seenSectionOrder := make(map[int]bool)
		for si := range ph.Sections {
			sec := &ph.Sections[si]
			if seenSectionOrder[sec.DisplayOrder] {
				return nil, fmt.Errorf("hierarchy: duplicate section display order %d in phase %q", sec.DisplayOrder, ph.PhaseName)
			}
			seenSectionOrder[sec.DisplayOrder] = true
			if sec.PhaseID != "" && sec.PhaseID != ph.ID {
				return nil, fmt.Errorf("hierarchy: section %q does not belong to phase %q", sec.SectionName, ph.PhaseName)
			}
			sec.PhaseID = ph.ID
			if _, dup := h.sectionIndex[sec.ID]; dup {
				return nil, fmt.Errorf("hierarchy: duplicate section ID %q", sec.ID)
			}
			h.sectionIndex[sec.ID] = sec

			sort.Slice(sec.Items, func(i, j int) bool {
				return sec.Items[i].DisplayOrder < sec.Items[j].DisplayOrder
			})
			seenItemOrder := make(map[int]bool)
			for ii := range sec.Items {
				item := &sec.Items[ii]
				if seenItemOrder[item.DisplayOrder] {
					return nil, fmt.Errorf("hierarchy: duplicate item display order %d in section %q", item.DisplayOrder, sec.SectionName)
				}
				seenItemOrder[item.DisplayOrder] = true
				if item.SectionID != "" && item.SectionID != sec.ID {
					return nil, fmt.Errorf("hierarchy: item %q does not belong to section %q", item.ItemName, sec.SectionName)
				}
				item.SectionID = sec.ID
				if _, dup := h.itemIndex[item.ID]; dup {
					return nil, fmt.Errorf("hierarchy: duplicate line item ID %q", item.ID)
				}
				h.itemIndex[item.ID] = Position{Phase: ph, Section: sec, Item: item}
			}
		}
	}

	return h, nil
}

// Phases returns the phases in display order.
// The returned slice must not be mutated.
func (h *Hierarchy) Phases() []Phase {
	return h.phases
}

// Item returns the position of a line item by ID, or false if the ID
// is not in the catalog.
func (h *Hierarchy) Item(id string) (Position, bool) {
	pos, ok := h.itemIndex[id]
	return pos, ok
}

// PhaseByName returns a phase by name using Unicode case folding, so
// "approve" matches "Approve". Returns false if no phase matches.
func (h *Hierarchy) PhaseByName(name string) (*Phase, bool) {
	ph, ok := h.phaseByFold[cases.Fold().String(name)]
	return ph, ok
}

// First returns the first active line item in traversal order.
// Returns false for a catalog with no active items.
func (h *Hierarchy) First() (Position, bool) {
	for pi := range h.phases {
		ph := &h.phases[pi]
		for si := range ph.Sections {
			sec := &ph.Sections[si]
			for ii := range sec.Items {
				if sec.Items[ii].Active {
					return Position{Phase: ph, Section: sec, Item: &sec.Items[ii]}, true
				}
			}
		}
	}
	return Position{}, false
}

// TotalActive returns the number of active line items in the catalog.
// This is the denominator for progress computation.
func (h *Hierarchy) TotalActive() int {
	n := 0
	for pi := range h.phases {
		for si := range h.phases[pi].Sections {
			for ii := range h.phases[pi].Sections[si].Items {
				if h.phases[pi].Sections[si].Items[ii].Active {
					n++
				}
			}
		}
	}
	return n
}

// IncompleteInPhase returns the active line items of the named phase
// that are not in the completed set, in traversal order.
//
// Returns an empty slice (not nil) when the phase is fully complete,
// and false when no phase matches the name.
func (h *Hierarchy) IncompleteInPhase(phaseName string, completed map[string]bool) ([]ItemSummary, bool) {
	ph, ok := h.PhaseByName(phaseName)
	if !ok {
		return nil, false
	}

	items := []ItemSummary{}
	for si := range ph.Sections {
		sec := &ph.Sections[si]
		for ii := range sec.Items {
			item := &sec.Items[ii]
			if !item.Active || completed[item.ID] {
				continue
			}
			items = append(items, Position{Phase: ph, Section: sec, Item: item}.Summary())
		}
	}
	return items, true
}
