package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/adwizard/pkg/domain"
)

// Catalog implements ports.TemplateCatalog over a fixed list of templates.
type Catalog struct {
	order     []string
	templates map[string]domain.Template
}

// NewCatalog creates a catalog preserving the given presentation order.
// Later templates with a duplicate id replace earlier ones in place.
func NewCatalog(templates ...domain.Template) *Catalog {
	c := &Catalog{templates: make(map[string]domain.Template)}
	for _, t := range templates {
		if _, exists := c.templates[t.ID]; !exists {
			c.order = append(c.order, t.ID)
		}
		c.templates[t.ID] = t
	}
	return c
}

// Get returns a copy of the template with the given id.
func (c *Catalog) Get(ctx context.Context, id string) (*domain.Template, error) {
	t, ok := c.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, id)
	}
	return cloneTemplate(t), nil
}

// List returns all templates in presentation order.
func (c *Catalog) List(ctx context.Context) ([]domain.Template, error) {
	out := make([]domain.Template, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *cloneTemplate(c.templates[id]))
	}
	return out, nil
}

func cloneTemplate(t domain.Template) *domain.Template {
	t.RequiredInputs = cloneInputs(t.RequiredInputs)
	t.OptionalInputs = cloneInputs(t.OptionalInputs)
	return &t
}

func cloneInputs(in []domain.InputDefinition) []domain.InputDefinition {
	if in == nil {
		return nil
	}
	out := make([]domain.InputDefinition, len(in))
	for i, d := range in {
		d.Options = append([]domain.Option(nil), d.Options...)
		out[i] = d
	}
	return out
}
