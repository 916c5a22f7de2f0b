package adwizard_test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/adwizard"
	"github.com/aretw0/adwizard/pkg/adapters/generator"
	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/aretw0/adwizard/pkg/sanitize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalyzer struct {
	calls []string
	err   error
}

func (a *stubAnalyzer) AnalyzeProduct(ctx context.Context, url string) (*domain.ProductAnalysis, error) {
	a.calls = append(a.calls, url)
	if a.err != nil {
		return nil, a.err
	}
	return &domain.ProductAnalysis{URL: url, Name: "Ceramic Mug", Description: "A 12oz ceramic mug that keeps coffee warm"}, nil
}

func reply(t *testing.T, w *adwizard.Wizard, id, text string) *adwizard.Turn {
	t.Helper()
	turn, err := w.Reply(context.Background(), id, text)
	require.NoError(t, err)
	return turn
}

func TestReply_AvatarVideoConversation(t *testing.T) {
	w := newWizard(t, adwizard.WithGenerator(generator.NewMock(time.Millisecond)))
	_, err := w.Create(context.Background(), "s1")
	require.NoError(t, err)

	turn := reply(t, w, "s1", "Avatar Video")
	require.True(t, turn.Changed)
	assert.Equal(t, domain.ConfidenceHigh, turn.Match.Confidence)
	assert.Equal(t, "avatar-video", turn.Session.Template.ID)
	assert.Equal(t, "product-image", turn.Session.PendingInputID)

	turn = reply(t, w, "s1", "https://cdn.example.com/mug.png")
	collected, ok := turn.Session.CollectedInput("product-image")
	require.True(t, ok)
	require.NotNil(t, collected.Value.Blob)
	assert.Equal(t, "https://cdn.example.com/mug.png", collected.Value.Blob.URL)
	assert.Nil(t, turn.Match, "links bypass the matcher")

	turn = reply(t, w, "s1", "A ceramic mug that keeps coffee warm")
	assert.Equal(t, "avatar", turn.Session.PendingInputID)
	assert.NotNil(t, turn.Prompt.Question)

	turn = reply(t, w, "s1", "the second one")
	value, _ := turn.Session.CollectedInput("avatar")
	assert.Equal(t, "liam", value.Value.Text)
	assert.Equal(t, "script", turn.Session.PendingInputID)

	turn = reply(t, w, "s1", "skip")
	assert.True(t, turn.Session.IsSkipped("script"))
	assert.Equal(t, "duration", turn.Session.PendingInputID)

	turn = reply(t, w, "s1", "30 seconds")
	assert.Equal(t, domain.StateGenerating, turn.Session.CanvasState)

	turn = waitFor(t, w, "s1")
	assert.Equal(t, domain.StateResult, turn.Session.CanvasState)

	turn = reply(t, w, "s1", "not yet")
	assert.False(t, turn.Changed)
	assert.False(t, turn.Session.Published)

	turn = reply(t, w, "s1", "ship it")
	assert.True(t, turn.Session.Published)
}

func TestReply_FreeformShortcut(t *testing.T) {
	w := newWizard(t, adwizard.WithGenerator(generator.NewMock(time.Millisecond)))
	_, err := w.Create(context.Background(), "s1")
	require.NoError(t, err)

	turn := reply(t, w, "s1", "coffee mug ad for summer sale")
	assert.Equal(t, domain.StateGenerating, turn.Session.CanvasState)
	assert.Equal(t, domain.FreeformTemplateID, turn.Session.Template.ID)
	prompt, ok := turn.Session.CollectedInput(domain.FreeformInputID)
	require.True(t, ok)
	assert.Equal(t, "coffee mug ad for summer sale", prompt.Value.Text)

	waitFor(t, w, "s1")
}

func TestReply_Clarification(t *testing.T) {
	w := newWizard(t)
	_, err := w.Create(context.Background(), "s1")
	require.NoError(t, err)

	turn := reply(t, w, "s1", "hmm")
	assert.False(t, turn.Changed)
	assert.False(t, turn.Match.Matched)
	assert.True(t, strings.HasPrefix(turn.Prompt.Message, "Sorry"))

	turn = reply(t, w, "s1", "banners please")
	assert.False(t, turn.Changed, "low confidence matches are confirmed, not applied")
	assert.Equal(t, domain.ConfidenceLow, turn.Match.Confidence)
	assert.Contains(t, turn.Prompt.Message, `"Static Banner"`)
	assert.Equal(t, domain.StateTemplateSelection, turn.Session.CanvasState)

	turn = reply(t, w, "s1", "   ")
	assert.False(t, turn.Changed)
}

func TestReply_ProductLinkRunsAnalysis(t *testing.T) {
	a := &stubAnalyzer{}
	w := newWizard(t, adwizard.WithAnalyzer(a))
	ctx := context.Background()
	_, err := w.Create(ctx, "s1")
	require.NoError(t, err)
	_, err = w.SelectTemplate(ctx, "s1", "ugc-testimonial")
	require.NoError(t, err)

	turn := reply(t, w, "s1", "check out shop.example.com/mug")
	assert.Equal(t, []string{"https://shop.example.com/mug"}, a.calls)
	require.NotNil(t, turn.Session.Product)
	assert.Equal(t, "Ceramic Mug", turn.Session.Product.Name)

	desc, ok := turn.Session.CollectedInput("product-description")
	require.True(t, ok, "the analysis fills a pending description")
	assert.Contains(t, desc.Value.Text, "ceramic mug")
	assert.Contains(t, turn.Prompt.Message, "Ceramic Mug")
}

type slowAnalyzer struct {
	calls   atomic.Int64
	release chan struct{}
}

func (a *slowAnalyzer) AnalyzeProduct(ctx context.Context, url string) (*domain.ProductAnalysis, error) {
	a.calls.Add(1)
	<-a.release
	return &domain.ProductAnalysis{URL: url, Name: "Ceramic Mug", Features: []string{"dishwasher safe"}}, nil
}

func TestReply_ConcurrentPastesShareOneAnalysis(t *testing.T) {
	a := &slowAnalyzer{release: make(chan struct{})}
	w := newWizard(t, adwizard.WithAnalyzer(a))
	ctx := context.Background()

	ids := []string{"s1", "s2", "s3"}
	for _, id := range ids {
		_, err := w.Create(ctx, id)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.Reply(ctx, id, "https://shop.example.com/mug")
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return a.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(a.release)
	wg.Wait()

	assert.Equal(t, int64(1), a.calls.Load())
	for _, id := range ids {
		turn, err := w.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, turn.Session.Product)
		assert.Equal(t, "Ceramic Mug", turn.Session.Product.Name)
	}
}

func TestReply_ProductLinkPassesThroughUpstreamErrors(t *testing.T) {
	a := &stubAnalyzer{err: domain.ErrRateLimited}
	w := newWizard(t, adwizard.WithAnalyzer(a))
	_, err := w.Create(context.Background(), "s1")
	require.NoError(t, err)

	_, err = w.Reply(context.Background(), "s1", "https://shop.example.com/mug")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestReply_ErrorStateRecovery(t *testing.T) {
	g := newGate(true)
	w := newWizard(t, adwizard.WithGenerator(g), adwizard.WithGenerationTimeout(10*time.Millisecond))

	fillShowcase(t, w, "s1")
	turn := waitFor(t, w, "s1")
	require.Equal(t, domain.StateError, turn.Session.CanvasState)

	turn = reply(t, w, "s1", "let's start over")
	assert.True(t, turn.Changed)
	assert.Equal(t, domain.StateTemplateSelection, turn.Session.CanvasState)
	close(g.release)
}

func TestReply_RetryAfterQuotaKeepsInputs(t *testing.T) {
	w := newWizard(t, adwizard.WithGenerator(&generator.Mock{Err: domain.ErrQuotaExhausted}))

	fillShowcase(t, w, "s1")
	turn := waitFor(t, w, "s1")
	require.Equal(t, domain.StateError, turn.Session.CanvasState)
	require.False(t, turn.Session.Retryable)

	turn = reply(t, w, "s1", "yes, retry")
	assert.False(t, turn.Changed)
	require.NotNil(t, turn.Match)
	assert.False(t, turn.Match.Matched)
	assert.Equal(t, domain.StateError, turn.Session.CanvasState)
	require.NotNil(t, turn.Session.Template)
	assert.Equal(t, "product-showcase", turn.Session.Template.ID)
	assert.NotEmpty(t, turn.Session.Collected)

	turn = reply(t, w, "s1", "start over")
	assert.True(t, turn.Changed)
	assert.Equal(t, domain.StateTemplateSelection, turn.Session.CanvasState)
}

func TestReply_RejectsOversizedInput(t *testing.T) {
	w := newWizard(t)
	_, err := w.Create(context.Background(), "s1")
	require.NoError(t, err)

	_, err = w.Reply(context.Background(), "s1", strings.Repeat("a", sanitize.MaxInputSize()+1))
	assert.ErrorIs(t, err, sanitize.ErrInputTooLarge)
}
