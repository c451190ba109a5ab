package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validTemplate = `name: Roof replacement
phases:
  - id: phase-prep
    name: Preparation
    displayOrder: 1
    sections:
      - id: sec-materials
        name: Materials
        displayOrder: 1
        items:
          - id: item-order
            name: Order shingles
            responsibleRole: OFFICE
            displayOrder: 1
          - id: item-retired
            name: Old checklist step
            responsibleRole: OFFICE
            displayOrder: 2
            active: false
  - id: phase-closeout
    name: Close-out
    type: completion
    displayOrder: 2
    sections:
      - id: sec-final
        name: Final
        displayName: Final checks
        displayOrder: 1
        items:
          - id: item-inspect
            name: Final inspection
            responsibleRole: ADMIN
            displayOrder: 1
`

func TestParse(t *testing.T) {
	tpl, err := Parse("roofing.yaml", []byte(validTemplate))
	require.NoError(t, err)

	assert.Equal(t, "Roof replacement", tpl.Name)
	require.Len(t, tpl.Phases, 2)
	assert.Equal(t, "phase-prep", tpl.Phases[0].ID)
	assert.Equal(t, "completion", tpl.Phases[1].Type)
	require.Len(t, tpl.Phases[0].Sections[0].Items, 2)
}

func TestParse_SchemaDefaults(t *testing.T) {
	tpl, err := Parse("roofing.yaml", []byte(validTemplate))
	require.NoError(t, err)

	phases := tpl.Hierarchy()
	require.Len(t, phases, 2)

	// Omitted type defaults to execution.
	assert.Equal(t, "execution", phases[0].PhaseType)
	// Omitted displayName falls back to the section name.
	assert.Equal(t, "Materials", phases[0].Sections[0].DisplayName)
	assert.Equal(t, "Final checks", phases[1].Sections[0].DisplayName)
	// Omitted active defaults to true; explicit false survives.
	assert.True(t, phases[0].Sections[0].Items[0].Active)
	assert.False(t, phases[0].Sections[0].Items[1].Active)
}

func TestParse_MissingRequiredField(t *testing.T) {
	doc := `name: Broken
phases:
  - id: phase-1
    name: Phase
    displayOrder: 1
    sections:
      - id: sec-1
        name: Section
        displayOrder: 1
        items:
          - id: item-1
            name: Item
            displayOrder: 1
`
	_, err := Parse("broken.yaml", []byte(doc))
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "broken.yaml", verr.File)
	assert.Contains(t, verr.Details, "responsibleRole")
}

func TestParse_UnknownField(t *testing.T) {
	doc := `name: Broken
color: red
phases:
  - id: phase-1
    name: Phase
    displayOrder: 1
    sections:
      - id: sec-1
        name: Section
        displayOrder: 1
        items:
          - id: item-1
            name: Item
            responsibleRole: FIELD
            displayOrder: 1
`
	_, err := Parse("broken.yaml", []byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "color")
}

func TestParse_EmptyPhases(t *testing.T) {
	_, err := Parse("broken.yaml", []byte("name: Empty\nphases: []\n"))
	require.Error(t, err)
}

func TestParse_NotYAML(t *testing.T) {
	_, err := Parse("broken.yaml", []byte("{{{"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roofing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validTemplate), 0o644))

	tpl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Roof replacement", tpl.Name)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
