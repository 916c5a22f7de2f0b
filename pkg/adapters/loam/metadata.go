package loam

import "github.com/aretw0/adwizard/pkg/domain"

// TemplateMetadata is the frontmatter (or JSON/YAML body) of one template document.
// It uses "mapstructure" tags to match the keys of templates.yaml.
type TemplateMetadata struct {
	ID             string                   `json:"id" mapstructure:"id"`
	Name           string                   `json:"name" mapstructure:"name"`
	Description    string                   `json:"description" mapstructure:"description"`
	RequiredInputs []domain.InputDefinition `json:"required_inputs" mapstructure:"required_inputs"`
	OptionalInputs []domain.InputDefinition `json:"optional_inputs" mapstructure:"optional_inputs"`

	// Hidden keeps a draft template out of the catalog.
	Hidden bool `json:"hidden" mapstructure:"hidden"`
}
