// Package loam serves the template catalog from a directory of markdown, JSON
// or YAML documents through the Loam library.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/adwizard/pkg/adapters/memory"
	"github.com/aretw0/adwizard/pkg/catalog"
	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/aretw0/loam"
)

// Catalog adapts a Loam repository to ports.TemplateCatalog.
// Documents are read once and cached until Reload or a Watch event.
type Catalog struct {
	Repo *loam.TypedRepository[TemplateMetadata]

	mu    sync.RWMutex
	cache *memory.Catalog
}

// New creates a new Loam catalog.
func New(repo *loam.TypedRepository[TemplateMetadata]) *Catalog {
	return &Catalog{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at dir and wraps it in a Catalog.
func Open(dir string) (*Catalog, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// Strict mode keeps numbers consistent across the JSON and Markdown/YAML adapters.
	// The catalog never writes, so ReadOnly avoids the dev sandbox.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[TemplateMetadata](repo)), nil
}

// Get implements ports.TemplateCatalog.
func (c *Catalog) Get(ctx context.Context, id string) (*domain.Template, error) {
	cache, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return cache.Get(ctx, id)
}

// List implements ports.TemplateCatalog.
// Templates are presented in document path order, so "01-video.md" sorts before "02-banner.md".
func (c *Catalog) List(ctx context.Context) ([]domain.Template, error) {
	cache, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return cache.List(ctx)
}

func (c *Catalog) snapshot(ctx context.Context) (*memory.Catalog, error) {
	c.mu.RLock()
	cache := c.cache
	c.mu.RUnlock()
	if cache != nil {
		return cache, nil
	}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache, nil
}

// Reload re-reads every document. On error the previous snapshot is kept.
func (c *Catalog) Reload(ctx context.Context) error {
	docs, err := c.Repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loam list failed: %w", err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	seen := make(map[string]string)
	templates := make([]domain.Template, 0, len(docs))
	for _, doc := range docs {
		if doc.Data.Hidden {
			continue
		}
		t := domain.Template{
			ID:             doc.Data.ID,
			Name:           doc.Data.Name,
			Description:    doc.Data.Description,
			RequiredInputs: doc.Data.RequiredInputs,
			OptionalInputs: doc.Data.OptionalInputs,
		}
		if t.ID == "" {
			t.ID = trimExtension(filepath.Base(doc.ID))
		}
		if t.Description == "" {
			t.Description = strings.TrimSpace(doc.Content)
		}

		if existingPath, ok := seen[t.ID]; ok {
			return fmt.Errorf("collision detected: template '%s' is defined in both '%s' and '%s'", t.ID, existingPath, doc.ID)
		}
		seen[t.ID] = doc.ID

		if err := catalog.Validate(t); err != nil {
			return fmt.Errorf("%s: %w", doc.ID, err)
		}
		templates = append(templates, catalog.Normalize(t))
	}

	c.mu.Lock()
	c.cache = memory.NewCatalog(templates...)
	c.mu.Unlock()
	return nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable. Each change reloads the catalog before
// the channel is signaled; a change that fails to load is dropped.
func (c *Catalog) Watch(ctx context.Context) (<-chan struct{}, error) {
	events, err := c.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				if err := c.Reload(ctx); err != nil {
					continue
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch, nil
}
