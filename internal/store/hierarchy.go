package store

import (
	"context"
	"fmt"

	"github.com/fieldline/fieldline/internal/hierarchy"
)

// SeedHierarchy inserts a hierarchy catalog into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - re-seeding the same
// template is a no-op, existing rows are never overwritten.
//
// All rows are written in a single transaction: a template either seeds
// completely or not at all.
func (s *Store) SeedHierarchy(ctx context.Context, phases []hierarchy.Phase) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed hierarchy: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, ph := range phases {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO phases (id, phase_name, phase_type, display_order)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, ph.ID, ph.PhaseName, ph.PhaseType, ph.DisplayOrder)
		if err != nil {
			return fmt.Errorf("seed hierarchy: phase %s: %w", ph.ID, err)
		}

		for _, sec := range ph.Sections {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO sections (id, phase_id, section_name, display_name, display_order)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(id) DO NOTHING
			`, sec.ID, ph.ID, sec.SectionName, sec.DisplayName, sec.DisplayOrder)
			if err != nil {
				return fmt.Errorf("seed hierarchy: section %s: %w", sec.ID, err)
			}

			for _, item := range sec.Items {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO line_items (id, section_id, item_name, responsible_role, display_order, is_active)
					VALUES (?, ?, ?, ?, ?, ?)
					ON CONFLICT(id) DO NOTHING
				`, item.ID, sec.ID, item.ItemName, item.ResponsibleRole, item.DisplayOrder, item.Active)
				if err != nil {
					return fmt.Errorf("seed hierarchy: line item %s: %w", item.ID, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed hierarchy: commit: %w", err)
	}
	return nil
}

// ReadHierarchy loads the full hierarchy catalog as an immutable snapshot.
// Rows are read in display order at every level; the snapshot is validated
// by hierarchy.New and safe for concurrent use.
func (s *Store) ReadHierarchy(ctx context.Context) (*hierarchy.Hierarchy, error) {
	phases, err := s.readPhases(ctx)
	if err != nil {
		return nil, err
	}

	for i := range phases {
		sections, err := s.readSections(ctx, phases[i].ID)
		if err != nil {
			return nil, err
		}
		for j := range sections {
			items, err := s.readLineItems(ctx, sections[j].ID)
			if err != nil {
				return nil, err
			}
			sections[j].Items = items
		}
		phases[i].Sections = sections
	}

	h, err := hierarchy.New(phases)
	if err != nil {
		return nil, fmt.Errorf("read hierarchy: %w", err)
	}
	return h, nil
}

func (s *Store) readPhases(ctx context.Context) ([]hierarchy.Phase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, phase_name, phase_type, display_order
		FROM phases
		ORDER BY display_order ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query phases: %w", err)
	}
	defer rows.Close()

	var phases []hierarchy.Phase
	for rows.Next() {
		var ph hierarchy.Phase
		if err := rows.Scan(&ph.ID, &ph.PhaseName, &ph.PhaseType, &ph.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan phase: %w", err)
		}
		phases = append(phases, ph)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate phases: %w", err)
	}
	return phases, nil
}

func (s *Store) readSections(ctx context.Context, phaseID string) ([]hierarchy.Section, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, phase_id, section_name, display_name, display_order
		FROM sections
		WHERE phase_id = ?
		ORDER BY display_order ASC
	`, phaseID)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	var sections []hierarchy.Section
	for rows.Next() {
		var sec hierarchy.Section
		if err := rows.Scan(&sec.ID, &sec.PhaseID, &sec.SectionName, &sec.DisplayName, &sec.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}
	return sections, nil
}

func (s *Store) readLineItems(ctx context.Context, sectionID string) ([]hierarchy.LineItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, section_id, item_name, responsible_role, display_order, is_active
		FROM line_items
		WHERE section_id = ?
		ORDER BY display_order ASC
	`, sectionID)
	if err != nil {
		return nil, fmt.Errorf("query line items: %w", err)
	}
	defer rows.Close()

	var items []hierarchy.LineItem
	for rows.Next() {
		var item hierarchy.LineItem
		if err := rows.Scan(&item.ID, &item.SectionID, &item.ItemName, &item.ResponsibleRole, &item.DisplayOrder, &item.Active); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate line items: %w", err)
	}
	return items, nil
}
