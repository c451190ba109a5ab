package hierarchy

// Phase is an ordered top-level stage of a workflow.
//
// DisplayOrder is unique and monotonic across all phases. A phase owns
// an ordered set of sections; the catalog is read-only during traversal.
type Phase struct {
	ID           string
	PhaseName    string
	PhaseType    string
	DisplayOrder int
	Sections     []Section
}

// Section is an ordered grouping of line items inside a phase.
//
// DisplayOrder is unique and monotonic within the owning phase.
type Section struct {
	ID           string
	PhaseID      string
	SectionName  string
	DisplayName  string
	DisplayOrder int
	Items        []LineItem
}

// LineItem is the atomic unit of work.
//
// DisplayOrder is unique and monotonic within the owning section.
// Inactive items are skipped by traversal and excluded from progress totals.
type LineItem struct {
	ID              string
	SectionID       string
	ItemName        string
	ResponsibleRole string
	DisplayOrder    int
	Active          bool
}

// Position names a line item together with its section and phase.
// It is the unit the resolver consumes and produces.
type Position struct {
	Phase   *Phase
	Section *Section
	Item    *LineItem
}

// ItemSummary is the flattened view of a line item returned by phase
// queries and embedded in completion results.
type ItemSummary struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	SectionName     string `json:"sectionName"`
	PhaseName       string `json:"phaseName"`
	ResponsibleRole string `json:"responsibleRole,omitempty"`
}

// Summary returns the flattened view of a position.
func (p Position) Summary() ItemSummary {
	return ItemSummary{
		ID:              p.Item.ID,
		Name:            p.Item.ItemName,
		SectionName:     p.Section.SectionName,
		PhaseName:       p.Phase.PhaseName,
		ResponsibleRole: p.Item.ResponsibleRole,
	}
}
