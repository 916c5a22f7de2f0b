package domain

// FreeformTemplateID identifies the synthetic template used by the free-form prompt shortcut.
const FreeformTemplateID = "custom-prompt"

// FreeformInputID is the id of the single synthetic input collected by the free-form shortcut.
const FreeformInputID = "prompt"

// Template is a named bundle of required and optional inputs describing one kind of creative.
type Template struct {
	ID             string            `json:"id" yaml:"id" mapstructure:"id"`
	Name           string            `json:"name" yaml:"name" mapstructure:"name"`
	Description    string            `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	RequiredInputs []InputDefinition `json:"required_inputs" yaml:"required_inputs" mapstructure:"required_inputs"`
	OptionalInputs []InputDefinition `json:"optional_inputs,omitempty" yaml:"optional_inputs,omitempty" mapstructure:"optional_inputs"`
}

// Inputs returns required inputs followed by optional ones, in declared order.
func (t *Template) Inputs() []InputDefinition {
	all := make([]InputDefinition, 0, len(t.RequiredInputs)+len(t.OptionalInputs))
	all = append(all, t.RequiredInputs...)
	all = append(all, t.OptionalInputs...)
	return all
}

// Input looks up an input definition by id across required and optional inputs.
func (t *Template) Input(id string) (InputDefinition, bool) {
	for _, in := range t.RequiredInputs {
		if in.ID == id {
			in.Required = true
			return in, true
		}
	}
	for _, in := range t.OptionalInputs {
		if in.ID == id {
			in.Required = false
			return in, true
		}
	}
	return InputDefinition{}, false
}

// AsOption exposes the template as a selectable option of the template question.
func (t *Template) AsOption() Option {
	return Option{ID: t.ID, Label: t.Name, Description: t.Description}
}

// FreeformTemplate builds the synthetic template backing the free-form prompt shortcut.
func FreeformTemplate() *Template {
	return &Template{
		ID:          FreeformTemplateID,
		Name:        "Custom prompt",
		Description: "Describe the creative you want in your own words",
		RequiredInputs: []InputDefinition{
			{ID: FreeformInputID, Type: InputText, Label: "Prompt", Required: true},
		},
	}
}
