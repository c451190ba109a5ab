package testutil

import "github.com/fieldline/fieldline/internal/hierarchy"

// RoofingPhases returns the standard three-phase fixture catalog used
// across engine and CLI tests:
//
//	Preparation {Materials: [Order shingles, Confirm delivery]}
//	Installation {Tear-off: [Remove old roof], Install: [Lay underlayment, Install shingles]}
//	Close-out {Final: [Final inspection]}
func RoofingPhases() []hierarchy.Phase {
	return []hierarchy.Phase{
		{
			ID: "phase-prep", PhaseName: "Preparation", PhaseType: "execution", DisplayOrder: 1,
			Sections: []hierarchy.Section{{
				ID: "sec-materials", SectionName: "Materials", DisplayName: "Materials", DisplayOrder: 1,
				Items: []hierarchy.LineItem{
					{ID: "item-order", ItemName: "Order shingles", ResponsibleRole: "OFFICE", DisplayOrder: 1, Active: true},
					{ID: "item-delivery", ItemName: "Confirm delivery", ResponsibleRole: "OFFICE", DisplayOrder: 2, Active: true},
				},
			}},
		},
		{
			ID: "phase-install", PhaseName: "Installation", PhaseType: "execution", DisplayOrder: 2,
			Sections: []hierarchy.Section{
				{
					ID: "sec-tearoff", SectionName: "Tear-off", DisplayName: "Tear-off", DisplayOrder: 1,
					Items: []hierarchy.LineItem{
						{ID: "item-remove", ItemName: "Remove old roof", ResponsibleRole: "FIELD", DisplayOrder: 1, Active: true},
					},
				},
				{
					ID: "sec-install", SectionName: "Install", DisplayName: "Install", DisplayOrder: 2,
					Items: []hierarchy.LineItem{
						{ID: "item-underlay", ItemName: "Lay underlayment", ResponsibleRole: "FIELD", DisplayOrder: 1, Active: true},
						{ID: "item-shingles", ItemName: "Install shingles", ResponsibleRole: "FIELD", DisplayOrder: 2, Active: true},
					},
				},
			},
		},
		{
			ID: "phase-closeout", PhaseName: "Close-out", PhaseType: "completion", DisplayOrder: 3,
			Sections: []hierarchy.Section{{
				ID: "sec-final", SectionName: "Final", DisplayName: "Final", DisplayOrder: 1,
				Items: []hierarchy.LineItem{
					{ID: "item-inspect", ItemName: "Final inspection", ResponsibleRole: "ADMIN", DisplayOrder: 1, Active: true},
				},
			}},
		},
	}
}

// TraversalOrder lists the fixture's line item IDs in traversal order.
var TraversalOrder = []string{
	"item-order",
	"item-delivery",
	"item-remove",
	"item-underlay",
	"item-shingles",
	"item-inspect",
}
