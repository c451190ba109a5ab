package hierarchy

import "math"

// Next computes the next line item in traversal order after the given
// completed item, skipping inactive items and anything already in the
// completed set. Returns false when traversal order is exhausted, which
// means the workflow is complete.
//
// Resolution precedence, each step short-circuiting on first match:
//  1. Same section: smallest display order strictly greater than the
//     completed item's.
//  2. Same phase: first later section with an incomplete item; its first
//     incomplete item.
//  3. First later phase with an incomplete item; its first incomplete item.
//
// The walk starts from the completed item's own position, not from any
// tracker pointer, so out-of-order completions still advance
// deterministically.
func (h *Hierarchy) Next(from Position, completed map[string]bool) (Position, bool) {
	// Step 1: remainder of the current section.
	if pos, ok := nextInSection(from.Phase, from.Section, from.Item.DisplayOrder, completed); ok {
		return pos, true
	}

	// Step 2: later sections in the current phase.
	if pos, ok := nextInPhase(from.Phase, from.Section.DisplayOrder, completed); ok {
		return pos, true
	}

	// Step 3: later phases.
	for pi := range h.phases {
		ph := &h.phases[pi]
		if ph.DisplayOrder <= from.Phase.DisplayOrder {
			continue
		}
		if pos, ok := nextInPhase(ph, math.MinInt, completed); ok {
			return pos, true
		}
	}

	// Step 4: traversal order exhausted.
	return Position{}, false
}

// nextInSection returns the first incomplete active item in sec with
// display order strictly greater than afterOrder.
func nextInSection(ph *Phase, sec *Section, afterOrder int, completed map[string]bool) (Position, bool) {
	for ii := range sec.Items {
		item := &sec.Items[ii]
		if item.DisplayOrder <= afterOrder {
			continue
		}
		if !item.Active || completed[item.ID] {
			continue
		}
		return Position{Phase: ph, Section: sec, Item: item}, true
	}
	return Position{}, false
}

// nextInPhase returns the first incomplete active item in any section of
// ph with section display order strictly greater than afterSectionOrder.
// Pass math.MinInt to consider every section.
func nextInPhase(ph *Phase, afterSectionOrder int, completed map[string]bool) (Position, bool) {
	for si := range ph.Sections {
		sec := &ph.Sections[si]
		if sec.DisplayOrder <= afterSectionOrder {
			continue
		}
		if pos, ok := nextInSection(ph, sec, math.MinInt, completed); ok {
			return pos, true
		}
	}
	return Position{}, false
}
