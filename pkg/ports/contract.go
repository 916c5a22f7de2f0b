package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession(sessionID)
		session.CanvasState = domain.StateInputCollection
		session.Template = &domain.Template{
			ID:             "avatar-video",
			Name:           "Avatar Video",
			RequiredInputs: []domain.InputDefinition{{ID: "product-description", Type: domain.InputText, Required: true}},
		}
		session.Collected = append(session.Collected, domain.CollectedInput{
			InputID: "product-description",
			Type:    domain.InputText,
			Value:   domain.TextValue("wireless earbuds"),
		})
		session.Skipped = []string{"avatar"}

		err := store.Save(ctx, sessionID, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, domain.StateInputCollection, loaded.CanvasState)
		require.NotNil(t, loaded.Template)
		assert.Equal(t, "avatar-video", loaded.Template.ID)
		in, ok := loaded.CollectedInput("product-description")
		require.True(t, ok)
		assert.Equal(t, "wireless earbuds", in.Value.Text)
		assert.True(t, loaded.IsSkipped("avatar"))
	})

	t.Run("Load Is Isolated From Caller Mutation", func(t *testing.T) {
		session := domain.NewSession(sessionID + "-iso")
		require.NoError(t, store.Save(ctx, session.ID, session))
		defer func() { _ = store.Delete(ctx, session.ID) }()

		session.CanvasState = domain.StateResult

		loaded, err := store.Load(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StateTemplateSelection, loaded.CanvasState)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewSession(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1))
		_ = store.Save(ctx, id2, domain.NewSession(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunKeyValueStoreContract verifies the KeyValueStore behaviour shared by all adapters.
func RunKeyValueStoreContract(t *testing.T, kv KeyValueStore) {
	ctx := context.Background()
	key := "contract-kv-" + time.Now().Format("20060102150405")

	t.Run("Missing Key", func(t *testing.T) {
		_, ok, err := kv.Get(ctx, key+"-missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Set Get Delete", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, key, []byte(`{"sound":true}`), 0))

		val, ok, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.JSONEq(t, `{"sound":true}`, string(val))

		require.NoError(t, kv.Delete(ctx, key))
		_, ok, err = kv.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, key, []byte("1"), time.Hour))
		require.NoError(t, kv.Set(ctx, key, []byte("2"), time.Hour))
		val, _, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "2", string(val))
		_ = kv.Delete(ctx, key)
	})
}
