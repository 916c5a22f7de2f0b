package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/aretw0/adwizard/pkg/ports"
)

// TemplateCatalogContractTest is a reusable test suite that verifies if an adapter complies with ports.TemplateCatalog.
// expected lists the templates the catalog was seeded with, in presentation order.
func TemplateCatalogContractTest(t *testing.T, catalog ports.TemplateCatalog, expected []domain.Template) {
	t.Helper()
	ctx := context.Background()

	t.Run("Get_Success", func(t *testing.T) {
		for _, want := range expected {
			got, err := catalog.Get(ctx, want.ID)
			if err != nil {
				t.Fatalf("unexpected error getting template %s: %v", want.ID, err)
			}
			if got.Name != want.Name {
				t.Errorf("name mismatch for %s. got %q, want %q", want.ID, got.Name, want.Name)
			}
			if len(got.RequiredInputs) != len(want.RequiredInputs) {
				t.Errorf("required inputs mismatch for %s. got %d, want %d", want.ID, len(got.RequiredInputs), len(want.RequiredInputs))
			}
			if len(got.OptionalInputs) != len(want.OptionalInputs) {
				t.Errorf("optional inputs mismatch for %s. got %d, want %d", want.ID, len(got.OptionalInputs), len(want.OptionalInputs))
			}
		}
	})

	t.Run("Get_NotFound", func(t *testing.T) {
		_, err := catalog.Get(ctx, "non-existent-template")
		if !errors.Is(err, domain.ErrTemplateNotFound) {
			t.Errorf("expected ErrTemplateNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		templates, err := catalog.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing templates: %v", err)
		}

		if len(templates) != len(expected) {
			t.Fatalf("expected %d templates, got %d", len(expected), len(templates))
		}

		for i, want := range expected {
			if templates[i].ID != want.ID {
				t.Errorf("position %d: got %s, want %s", i, templates[i].ID, want.ID)
			}
		}
	})
}
