package adwizard

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/adwizard/pkg/adapters/generator"
	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signalCount(w *Wizard) int {
	w.signalMu.Lock()
	defer w.signalMu.Unlock()
	return len(w.signals)
}

func TestWait_IdleSessionRegistersNothing(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	defer w.Close()
	ctx := context.Background()

	_, err = w.Create(ctx, "s1")
	require.NoError(t, err)
	for range 100 {
		turn, err := w.Wait(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, domain.StateTemplateSelection, turn.Session.CanvasState)
	}
	assert.Zero(t, signalCount(w))
}

func TestWait_ChannelsAreDroppedAfterGeneration(t *testing.T) {
	w, err := New(WithGenerator(generator.NewMock(20 * time.Millisecond)))
	require.NoError(t, err)
	defer w.Close()
	ctx := context.Background()

	_, err = w.Create(ctx, "s1")
	require.NoError(t, err)
	turn, err := w.StartFreeform(ctx, "s1", "a summer sale banner for mugs")
	require.NoError(t, err)
	require.Equal(t, domain.StateGenerating, turn.Session.CanvasState)

	turn, err = w.Wait(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateResult, turn.Session.CanvasState)
	assert.Zero(t, signalCount(w))
}

func TestDelete_DropsWaitChannel(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	defer w.Close()
	ctx := context.Background()

	_, err = w.Create(ctx, "s1")
	require.NoError(t, err)
	ch := w.watch("s1")
	require.Equal(t, 1, signalCount(w))

	require.NoError(t, w.Delete(ctx, "s1"))
	assert.Zero(t, signalCount(w))
	select {
	case <-ch:
	default:
		t.Fatal("waiters were not woken")
	}
}
