package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/adwizard/pkg/adapters/memory"
	"github.com/aretw0/adwizard/pkg/domain"
	contract "github.com/aretw0/adwizard/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCatalog_Contract(t *testing.T) {
	templates := []domain.Template{
		{ID: "banner", Name: "Static Banner", RequiredInputs: []domain.InputDefinition{{ID: "headline", Type: domain.InputText}}},
		{ID: "avatar-video", Name: "Avatar Video", OptionalInputs: []domain.InputDefinition{{ID: "avatar", Type: domain.InputAvatar}}},
	}
	contract.TemplateCatalogContractTest(t, memory.NewCatalog(templates...), templates)
}

func TestMemoryCatalog_GetReturnsCopy(t *testing.T) {
	c := memory.NewCatalog(domain.Template{
		ID:             "banner",
		RequiredInputs: []domain.InputDefinition{{ID: "headline"}},
	})

	got, err := c.Get(context.Background(), "banner")
	require.NoError(t, err)
	got.RequiredInputs[0].ID = "mutated"

	again, _ := c.Get(context.Background(), "banner")
	assert.Equal(t, "headline", again.RequiredInputs[0].ID)
}
