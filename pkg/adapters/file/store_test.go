package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/adwizard/pkg/adapters/file"
	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/aretw0/adwizard/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunSessionStoreContract(t, store)
}

func TestFileStore_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, "s1", domain.NewSession("s1")))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "s1.json", entries[0].Name())
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	err := store.Save(ctx, filepath.Join("..", "escape"), domain.NewSession("x"))
	assert.Error(t, err)

	_, err = store.Load(ctx, "")
	assert.Error(t, err)
}
