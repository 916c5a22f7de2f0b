// Package catalog provides the built-in creative templates and file-based template loading.
package catalog

import (
	"github.com/aretw0/adwizard/pkg/adapters/memory"
	"github.com/aretw0/adwizard/pkg/domain"
)

var (
	productImage = domain.InputDefinition{ID: "product-image", Type: domain.InputImage, Label: "Product image", Required: true}
	productDesc  = domain.InputDefinition{ID: "product-description", Type: domain.InputText, Label: "Product description", Required: true}
	headline     = domain.InputDefinition{ID: "headline", Type: domain.InputText, Label: "Headline"}

	avatar = domain.InputDefinition{
		ID: "avatar", Type: domain.InputAvatar, Label: "Avatar",
		Options: []domain.Option{
			{ID: "emma", Label: "Emma", Description: "Friendly presenter, warm casual tone"},
			{ID: "liam", Label: "Liam", Description: "Energetic presenter for sports and tech"},
			{ID: "sofia", Label: "Sofia", Description: "Elegant presenter for beauty and fashion"},
			{ID: "custom-avatar", Label: "Upload my own"},
		},
	}
	script = domain.InputDefinition{
		ID: "script", Type: domain.InputScript, Label: "Script",
		Options: []domain.Option{
			{ID: "script-a", Label: "Script A", Description: "Problem then solution, short hook"},
			{ID: "script-b", Label: "Script B", Description: "Customer story with social proof"},
			{ID: "custom-script", Label: "Write my own"},
		},
	}
	duration = domain.InputDefinition{
		ID: "duration", Type: domain.InputSelect, Label: "Duration",
		Options: []domain.Option{
			{ID: "15s", Label: "15 seconds"},
			{ID: "30s", Label: "30 seconds"},
			{ID: "60s", Label: "60 seconds"},
		},
	}
	style = domain.InputDefinition{
		ID: "style", Type: domain.InputSelect, Label: "Style",
		Options: []domain.Option{
			{ID: "minimal", Label: "Minimal", Description: "Clean layout with lots of white space"},
			{ID: "bold", Label: "Bold", Description: "Large type and saturated colors"},
			{ID: "playful", Label: "Playful", Description: "Rounded shapes and bright accents"},
		},
	}
)

// Templates returns the built-in templates in presentation order.
func Templates() []domain.Template {
	return []domain.Template{
		{
			ID:             "avatar-video",
			Name:           "Avatar Video",
			Description:    "A presenter talks about your product on camera",
			RequiredInputs: []domain.InputDefinition{productImage, productDesc},
			OptionalInputs: []domain.InputDefinition{avatar, script, duration},
		},
		{
			ID:             "product-showcase",
			Name:           "Product Showcase",
			Description:    "Rotating hero shots with animated captions",
			RequiredInputs: []domain.InputDefinition{productImage},
			OptionalInputs: []domain.InputDefinition{headline, duration},
		},
		{
			ID:             "ugc-testimonial",
			Name:           "UGC Testimonial",
			Description:    "Authentic customer review filmed on a phone",
			RequiredInputs: []domain.InputDefinition{productDesc},
			OptionalInputs: []domain.InputDefinition{avatar, script},
		},
		{
			ID:             "static-banner",
			Name:           "Static Banner",
			Description:    "Single image ad for feeds and display placements",
			RequiredInputs: []domain.InputDefinition{productImage, {ID: "headline", Type: domain.InputText, Label: "Headline", Required: true}},
			OptionalInputs: []domain.InputDefinition{style},
		},
	}
}

// Builtin returns a catalog over Templates.
func Builtin() *memory.Catalog {
	return memory.NewCatalog(Templates()...)
}
