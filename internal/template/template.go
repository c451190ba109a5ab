// Package template loads workflow template files: YAML documents that
// declare the phase / section / line item catalog a project traverses.
//
// Templates are validated against an embedded CUE schema before they
// are decoded, so a malformed file fails with a schema error instead of
// seeding a half-formed hierarchy.
package template

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/fieldline/fieldline/internal/hierarchy"
)

//go:embed schema.cue
var schemaSource string

// Template is a decoded workflow template.
type Template struct {
	Name   string      `yaml:"name"`
	Phases []PhaseSpec `yaml:"phases"`
}

// PhaseSpec declares one phase and its sections.
type PhaseSpec struct {
	ID           string        `yaml:"id"`
	Name         string        `yaml:"name"`
	Type         string        `yaml:"type"`
	DisplayOrder int           `yaml:"displayOrder"`
	Sections     []SectionSpec `yaml:"sections"`
}

// SectionSpec declares one section and its line items.
type SectionSpec struct {
	ID           string         `yaml:"id"`
	Name         string         `yaml:"name"`
	DisplayName  string         `yaml:"displayName"`
	DisplayOrder int            `yaml:"displayOrder"`
	Items        []LineItemSpec `yaml:"items"`
}

// LineItemSpec declares one line item. Active defaults to true when
// the field is omitted.
type LineItemSpec struct {
	ID              string `yaml:"id"`
	Name            string `yaml:"name"`
	ResponsibleRole string `yaml:"responsibleRole"`
	DisplayOrder    int    `yaml:"displayOrder"`
	Active          *bool  `yaml:"active"`
}

// ValidationError reports a template that failed schema validation.
type ValidationError struct {
	File    string
	Details string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("template %s failed schema validation:\n%s", e.File, e.Details)
}

// Load reads, validates, and decodes a template file.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return Parse(path, data)
}

// Parse validates the YAML document against the template schema and
// decodes it. The filename is used only for error reporting.
func Parse(filename string, data []byte) (*Template, error) {
	if err := validateSchema(filename, data); err != nil {
		return nil, err
	}

	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode template %s: %w", filename, err)
	}
	return &t, nil
}

// validateSchema unifies the YAML document with the embedded #Template
// definition and checks the result is concrete.
func validateSchema(filename string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile template schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Template"))
	if !def.Exists() {
		return fmt.Errorf("template schema has no #Template definition")
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return fmt.Errorf("parse template %s: %w", filename, err)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("build template %s: %w", filename, err)
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{File: filename, Details: cueerrors.Details(err, nil)}
	}
	return nil
}

// Hierarchy converts the template to the engine's phase catalog,
// applying the schema defaults the YAML decoder cannot see.
func (t *Template) Hierarchy() []hierarchy.Phase {
	phases := make([]hierarchy.Phase, 0, len(t.Phases))
	for _, p := range t.Phases {
		phaseType := p.Type
		if phaseType == "" {
			phaseType = "execution"
		}

		sections := make([]hierarchy.Section, 0, len(p.Sections))
		for _, s := range p.Sections {
			displayName := s.DisplayName
			if displayName == "" {
				displayName = s.Name
			}

			items := make([]hierarchy.LineItem, 0, len(s.Items))
			for _, it := range s.Items {
				active := true
				if it.Active != nil {
					active = *it.Active
				}
				items = append(items, hierarchy.LineItem{
					ID:              it.ID,
					ItemName:        it.Name,
					ResponsibleRole: it.ResponsibleRole,
					DisplayOrder:    it.DisplayOrder,
					Active:          active,
				})
			}

			sections = append(sections, hierarchy.Section{
				ID:           s.ID,
				SectionName:  s.Name,
				DisplayName:  displayName,
				DisplayOrder: s.DisplayOrder,
				Items:        items,
			})
		}

		phases = append(phases, hierarchy.Phase{
			ID:           p.ID,
			PhaseName:    p.Name,
			PhaseType:    phaseType,
			DisplayOrder: p.DisplayOrder,
			Sections:     sections,
		})
	}
	return phases
}
