package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/adwizard/pkg/adapters/memory"
	"github.com/aretw0/adwizard/pkg/domain"
	"gopkg.in/yaml.v3"
)

// File represents the structure of templates.yaml.
type File struct {
	Templates []domain.Template `yaml:"templates" json:"templates"`
}

// LoadFile reads a template file (YAML or JSON, by extension).
func LoadFile(path string) ([]domain.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates file: %w", err)
	}

	var f File
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	out := make([]domain.Template, 0, len(f.Templates))
	seen := make(map[string]struct{}, len(f.Templates))
	for _, t := range f.Templates {
		if err := Validate(t); err != nil {
			return nil, err
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate template id %s", filepath.Base(path), t.ID)
		}
		seen[t.ID] = struct{}{}
		out = append(out, Normalize(t))
	}
	return out, nil
}

// FromFile builds a catalog from a template file.
func FromFile(path string) (*memory.Catalog, error) {
	templates, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return memory.NewCatalog(templates...), nil
}

// Validate checks that a template is usable by the wizard.
func Validate(t domain.Template) error {
	if t.ID == "" {
		return fmt.Errorf("template missing id")
	}
	if t.ID == domain.FreeformTemplateID {
		return fmt.Errorf("template id %q is reserved", t.ID)
	}
	if len(t.Inputs()) == 0 {
		return fmt.Errorf("template %s: declares no inputs", t.ID)
	}
	seen := make(map[string]struct{})
	for _, in := range t.Inputs() {
		if in.ID == "" {
			return fmt.Errorf("template %s: input missing id", t.ID)
		}
		if _, dup := seen[in.ID]; dup {
			return fmt.Errorf("template %s: duplicate input %s", t.ID, in.ID)
		}
		seen[in.ID] = struct{}{}
		switch in.Type {
		case domain.InputImage, domain.InputText, domain.InputAvatar, domain.InputScript, domain.InputSelect:
		default:
			return fmt.Errorf("template %s: input %s has unknown type %q", t.ID, in.ID, in.Type)
		}
		if in.Type == domain.InputSelect && len(in.Options) == 0 {
			return fmt.Errorf("template %s: select input %s has no options", t.ID, in.ID)
		}
	}
	return nil
}

// Normalize fills derived fields: Required follows list membership and a
// missing name falls back to the id.
func Normalize(t domain.Template) domain.Template {
	if t.Name == "" {
		t.Name = t.ID
	}
	req := make([]domain.InputDefinition, len(t.RequiredInputs))
	for i, in := range t.RequiredInputs {
		in.Required = true
		if in.Label == "" {
			in.Label = in.ID
		}
		req[i] = in
	}
	opt := make([]domain.InputDefinition, len(t.OptionalInputs))
	for i, in := range t.OptionalInputs {
		in.Required = false
		if in.Label == "" {
			in.Label = in.ID
		}
		opt[i] = in
	}
	t.RequiredInputs = req
	t.OptionalInputs = opt
	return t
}
