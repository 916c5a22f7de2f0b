package domain

// InputType is the kind of data an InputDefinition collects.
type InputType string

const (
	InputImage  InputType = "image"
	InputText   InputType = "text"
	InputAvatar InputType = "avatar"
	InputScript InputType = "script"
	InputSelect InputType = "select"
)

// InputDefinition describes one piece of data the wizard needs.
type InputDefinition struct {
	ID       string    `json:"id" yaml:"id" mapstructure:"id"`
	Type     InputType `json:"type" yaml:"type" mapstructure:"type"`
	Label    string    `json:"label" yaml:"label" mapstructure:"label"`
	Required bool      `json:"required" yaml:"required" mapstructure:"required"`
	Options  []Option  `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`
}

// HasOptions reports whether the input is answered by picking one of its options.
func (d InputDefinition) HasOptions() bool {
	return len(d.Options) > 0
}

// BlobRef points at binary content (an uploaded image, an avatar clip) stored elsewhere.
type BlobRef struct {
	URL      string `json:"url" mapstructure:"url"`
	MimeType string `json:"mime_type,omitempty" mapstructure:"mime_type"`
	Name     string `json:"name,omitempty" mapstructure:"name"`
	Size     int64  `json:"size,omitempty" mapstructure:"size"`
}

// InputValue is either free text or a reference to a binary blob.
type InputValue struct {
	Text string   `json:"text,omitempty" mapstructure:"text"`
	Blob *BlobRef `json:"blob,omitempty" mapstructure:"blob"`
}

// TextValue wraps a string as an InputValue.
func TextValue(s string) InputValue {
	return InputValue{Text: s}
}

// BlobValue wraps a blob reference as an InputValue.
func BlobValue(ref BlobRef) InputValue {
	return InputValue{Blob: &ref}
}

// IsZero reports whether the value carries neither text nor a blob.
func (v InputValue) IsZero() bool {
	return v.Text == "" && v.Blob == nil
}

// CollectedInput records what the user supplied for one input id.
type CollectedInput struct {
	InputID string     `json:"input_id"`
	Type    InputType  `json:"type"`
	Value   InputValue `json:"value"`
}
