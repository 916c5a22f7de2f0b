package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/adwizard/pkg/catalog"
	"github.com/aretw0/adwizard/pkg/domain"
	contract "github.com/aretw0/adwizard/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin_Contract(t *testing.T) {
	contract.TemplateCatalogContractTest(t, catalog.Builtin(), catalog.Templates())
}

func TestBuiltin_Valid(t *testing.T) {
	for _, tmpl := range catalog.Templates() {
		assert.NoError(t, catalog.Validate(tmpl), tmpl.ID)
	}
}

func TestBuiltin_AvatarVideoShape(t *testing.T) {
	var av domain.Template
	for _, tmpl := range catalog.Templates() {
		if tmpl.ID == "avatar-video" {
			av = tmpl
		}
	}
	require.Equal(t, "avatar-video", av.ID)

	var req, opt []string
	for _, in := range av.RequiredInputs {
		req = append(req, in.ID)
	}
	for _, in := range av.OptionalInputs {
		opt = append(opt, in.ID)
	}
	assert.Equal(t, []string{"product-image", "product-description"}, req)
	assert.Equal(t, []string{"avatar", "script", "duration"}, opt)
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.yaml")
	content := `
templates:
  - id: carousel
    name: Carousel
    description: Swipeable product cards
    required_inputs:
      - id: product-image
        type: image
        label: Product image
    optional_inputs:
      - id: layout
        type: select
        options:
          - id: grid
            label: Grid
          - id: strip
            label: Strip
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	templates, err := catalog.LoadFile(path)
	require.NoError(t, err)
	require.Len(t, templates, 1)

	c := templates[0]
	assert.Equal(t, "carousel", c.ID)
	assert.True(t, c.RequiredInputs[0].Required)
	assert.False(t, c.OptionalInputs[0].Required)
	assert.Equal(t, "layout", c.OptionalInputs[0].Label, "label defaults to id")
	assert.Len(t, c.OptionalInputs[0].Options, 2)
}

func TestLoadFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"templates":[{"id":"story","required_inputs":[{"id":"prompt","type":"text"}]}]}`), 0644))

	c, err := catalog.FromFile(path)
	require.NoError(t, err)
	contract.TemplateCatalogContractTest(t, c, []domain.Template{{
		ID:             "story",
		Name:           "story",
		RequiredInputs: []domain.InputDefinition{{ID: "prompt", Type: domain.InputText}},
	}})
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing id", "templates:\n  - name: Nope\n"},
		{"reserved id", "templates:\n  - id: custom-prompt\n"},
		{"unknown type", "templates:\n  - id: x\n    required_inputs:\n      - id: a\n        type: video\n"},
		{"select without options", "templates:\n  - id: x\n    optional_inputs:\n      - id: a\n        type: select\n"},
		{"no inputs", "templates:\n  - id: quick-ad\n    name: Quick Ad\n"},
		{"duplicate template", "templates:\n  - id: x\n    required_inputs:\n      - id: a\n        type: text\n  - id: x\n    required_inputs:\n      - id: b\n        type: text\n"},
		{"duplicate input", "templates:\n  - id: x\n    required_inputs:\n      - id: a\n        type: text\n    optional_inputs:\n      - id: a\n        type: text\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "t.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			_, err := catalog.LoadFile(path)
			assert.Error(t, err)
		})
	}
}
