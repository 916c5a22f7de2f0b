package graph

import (
	"testing"

	"github.com/aretw0/adwizard/pkg/catalog"
	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid_States(t *testing.T) {
	out := GenerateMermaid(nil)

	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, `template_selection(("template-selection"))`)
	assert.Contains(t, out, `generating[["generating"]]`)
	assert.Contains(t, out, `input_collection[/"input-collection"/]`)
	assert.Contains(t, out, `generating -- "fail / timeout" --> error`)
	assert.Contains(t, out, `error -. reset .-> template_selection`)
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	templates := catalog.Templates()
	var banner domain.Template
	for _, tpl := range templates {
		if tpl.ID == "static-banner" {
			banner = tpl
		}
	}

	s := domain.NewSession("s1")
	s.CanvasState = domain.StateInputCollection
	s.Template = &banner
	s.Collected = []domain.CollectedInput{{InputID: "product-image"}}
	s.PendingInputID = "headline"

	out := GenerateMermaid(OverlayFor(s))

	assert.Contains(t, out, `subgraph tpl_static_banner["Static Banner"]`)
	assert.Contains(t, out, "in_product_image --> in_headline")
	assert.Contains(t, out, `in_style["Style (optional)"]`)
	assert.Contains(t, out, "class in_product_image visited;")
	assert.Contains(t, out, "class in_headline current;")
	assert.Contains(t, out, "class input_collection current;")
}
