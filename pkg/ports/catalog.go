package ports

import (
	"context"

	"github.com/aretw0/adwizard/pkg/domain"
)

// TemplateCatalog resolves the templates a user can pick from.
type TemplateCatalog interface {
	// Get returns the template with the given id.
	// Returns domain.ErrTemplateNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Template, error)

	// List returns every template in presentation order.
	List(ctx context.Context) ([]domain.Template, error)
}

// Watchable defines an interface for catalogs that can notify about backend changes.
// This is typically used for hot-reload while editing template files.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying templates change.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
