package flow_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/aretw0/adwizard/pkg/adapters/memory"
	"github.com/aretw0/adwizard/pkg/catalog"
	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/aretw0/adwizard/pkg/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMachine() *flow.Machine {
	n := 0
	return flow.New(catalog.Builtin(), flow.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("run-%d", n)
	}))
}

func imageValue() domain.InputValue {
	return domain.BlobValue(domain.BlobRef{URL: "https://cdn.example.com/earbuds.png", MimeType: "image/png"})
}

func TestMachine_AvatarVideoEndToEnd(t *testing.T) {
	m := newMachine()
	s := domain.NewSession("s1")

	tr, err := m.SelectTemplate(context.Background(), s, "avatar-video")
	require.NoError(t, err)
	assert.True(t, tr.Changed)
	assert.Equal(t, domain.StateInputCollection, s.CanvasState)
	assert.Equal(t, "product-image", s.PendingInputID)

	m.ProvideInput(s, "product-image", imageValue())
	assert.Equal(t, "product-description", s.PendingInputID)

	tr = m.ProvideInput(s, "product-description", domain.TextValue("wireless earbuds"))
	assert.Equal(t, domain.StateInputCollection, s.CanvasState, "optional inputs are offered before generating")
	assert.Equal(t, "avatar", s.PendingInputID)
	assert.Empty(t, tr.GenerationID)

	m.SkipInput(s, "avatar")
	assert.Equal(t, "script", s.PendingInputID)
	m.SkipInput(s, "script")
	assert.Equal(t, "duration", s.PendingInputID)

	tr = m.SkipInput(s, "duration")
	assert.Equal(t, domain.StateGenerating, s.CanvasState)
	assert.True(t, tr.Entered(domain.StateGenerating))
	assert.Equal(t, "run-1", tr.GenerationID)
	assert.Equal(t, "run-1", s.GenerationID)
	assert.Empty(t, s.PendingInputID)

	outputs := []domain.Creative{{ID: "c1", Type: "video", URL: "https://cdn.example.com/c1.mp4", Format: "mp4", Width: 1080, Height: 1920}}
	tr = m.CompleteGeneration(s, "run-1", outputs)
	assert.True(t, tr.Entered(domain.StateResult))
	assert.Equal(t, outputs, s.Outputs)

	tr = m.Publish(s)
	assert.True(t, tr.Changed)
	assert.True(t, s.Published)
	assert.False(t, m.Publish(s).Changed)
}

func TestMachine_SelectTemplate(t *testing.T) {
	m := newMachine()

	t.Run("Unknown Template Is Noop", func(t *testing.T) {
		s := domain.NewSession("s")
		tr, err := m.SelectTemplate(context.Background(), s, "does-not-exist")
		require.NoError(t, err)
		assert.False(t, tr.Changed)
		assert.Equal(t, domain.StateTemplateSelection, s.CanvasState)
		assert.Nil(t, s.Template)
	})

	t.Run("Only From Template Selection", func(t *testing.T) {
		s := domain.NewSession("s")
		_, _ = m.SelectTemplate(context.Background(), s, "avatar-video")
		tr, err := m.SelectTemplate(context.Background(), s, "static-banner")
		require.NoError(t, err)
		assert.False(t, tr.Changed)
		assert.Equal(t, "avatar-video", s.Template.ID)
	})

	t.Run("Freeform Template Asks For Prompt", func(t *testing.T) {
		s := domain.NewSession("s")
		tr, err := m.SelectTemplate(context.Background(), s, domain.FreeformTemplateID)
		require.NoError(t, err)
		assert.True(t, tr.Changed)
		assert.Equal(t, domain.FreeformInputID, s.PendingInputID)
	})

	t.Run("Template Without Inputs Stops At Input Collection", func(t *testing.T) {
		bare := flow.New(memory.NewCatalog(domain.Template{ID: "quick-ad", Name: "Quick Ad"}))
		s := domain.NewSession("s")

		tr, err := bare.SelectTemplate(context.Background(), s, "quick-ad")
		require.NoError(t, err)
		assert.True(t, tr.Changed)
		assert.Equal(t, domain.StateInputCollection, tr.To)
		assert.Equal(t, domain.StateInputCollection, s.CanvasState)
		assert.Empty(t, tr.GenerationID)
		assert.Empty(t, s.GenerationID)

		tr = bare.StartGeneration(s)
		assert.True(t, tr.Changed)
		assert.Equal(t, domain.StateGenerating, s.CanvasState)
		assert.NotEmpty(t, tr.GenerationID)
	})
}

func TestMachine_ProvideInput(t *testing.T) {
	m := newMachine()
	s := domain.NewSession("s")
	_, _ = m.SelectTemplate(context.Background(), s, "avatar-video")

	t.Run("Unknown Input Is Noop", func(t *testing.T) {
		tr := m.ProvideInput(s, "nope", domain.TextValue("x"))
		assert.False(t, tr.Changed)
		assert.Empty(t, s.Collected)
	})

	t.Run("Empty Value Is Noop", func(t *testing.T) {
		assert.False(t, m.ProvideInput(s, "product-description", domain.InputValue{}).Changed)
	})

	t.Run("Last Write Wins", func(t *testing.T) {
		m.ProvideInput(s, "product-description", domain.TextValue("earbuds"))
		m.ProvideInput(s, "product-description", domain.TextValue("wireless earbuds"))
		require.Len(t, s.Collected, 1)
		in, _ := s.CollectedInput("product-description")
		assert.Equal(t, "wireless earbuds", in.Value.Text)
		assert.Equal(t, domain.InputText, in.Type)
		assert.Equal(t, "product-image", s.PendingInputID, "still waiting on the first required input")
	})

	t.Run("Rejected Outside Input Collection", func(t *testing.T) {
		other := domain.NewSession("o")
		assert.False(t, m.ProvideInput(other, "product-description", domain.TextValue("x")).Changed)
	})
}

func TestMachine_SkipInput(t *testing.T) {
	m := newMachine()
	s := domain.NewSession("s")
	_, _ = m.SelectTemplate(context.Background(), s, "avatar-video")

	assert.False(t, m.SkipInput(s, "product-image").Changed, "required inputs cannot be skipped")
	assert.False(t, m.SkipInput(s, "unknown").Changed)

	assert.True(t, m.SkipInput(s, "avatar").Changed)
	assert.False(t, m.SkipInput(s, "avatar").Changed, "second skip is a noop")
	assert.Equal(t, "product-image", s.PendingInputID)

	// Providing a value later withdraws the skip.
	m.ProvideInput(s, "avatar", domain.TextValue("emma"))
	assert.False(t, s.IsSkipped("avatar"))
	assert.False(t, m.SkipInput(s, "avatar").Changed, "collected input cannot be skipped")
}

func TestMachine_StartGenerationGating(t *testing.T) {
	m := newMachine()
	s := domain.NewSession("s")
	_, _ = m.SelectTemplate(context.Background(), s, "avatar-video")

	assert.False(t, m.StartGeneration(s).Changed)
	m.ProvideInput(s, "product-image", imageValue())
	assert.False(t, m.StartGeneration(s).Changed)
	assert.Len(t, flow.RemainingRequiredInputs(s), 1)

	m.ProvideInput(s, "product-description", domain.TextValue("earbuds"))
	assert.Empty(t, flow.RemainingRequiredInputs(s))
	assert.False(t, flow.AllInputsCollected(s), "optional inputs are still open")

	// Optional inputs are offered, not blocking.
	first := m.StartGeneration(s)
	assert.True(t, first.Entered(domain.StateGenerating))
	second := m.StartGeneration(s)
	assert.False(t, second.Changed, "second start while generating is a noop")
	assert.Empty(t, second.GenerationID)
	assert.Equal(t, first.GenerationID, s.GenerationID)
}

func TestMachine_GeneratingImpliesRequiredCollected(t *testing.T) {
	ids := []string{"product-image", "product-description", "avatar", "script", "duration", "bogus"}
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		m := newMachine()
		s := domain.NewSession("prop")
		_, _ = m.SelectTemplate(context.Background(), s, "avatar-video")

		for step := 0; step < 8; step++ {
			id := ids[rng.Intn(len(ids))]
			switch rng.Intn(3) {
			case 0:
				m.ProvideInput(s, id, domain.TextValue("v"))
			case 1:
				m.SkipInput(s, id)
			default:
				m.StartGeneration(s)
			}
			if s.CanvasState == domain.StateGenerating {
				require.Empty(t, flow.RemainingRequiredInputs(s), "run %d step %d", run, step)
			}
		}
	}
}

func TestMachine_FailureAndRetry(t *testing.T) {
	m := newMachine()
	s := domain.NewSession("s")
	tr := m.StartFreeform(s, "A bold ad for wireless earbuds aimed at runners")
	require.True(t, tr.Entered(domain.StateGenerating))
	runID := tr.GenerationID

	assert.False(t, m.FailGeneration(s, "other-run", "boom", true).Changed, "stale run ids are ignored")

	tr = m.FailGeneration(s, runID, "Generation took too long", true)
	assert.True(t, tr.Entered(domain.StateError))
	assert.True(t, s.Retryable)

	retry := m.StartGeneration(s)
	assert.True(t, retry.Entered(domain.StateGenerating))
	assert.NotEqual(t, runID, retry.GenerationID)
	assert.Empty(t, s.Error)

	assert.False(t, m.CompleteGeneration(s, runID, nil).Changed, "completion of the failed run is discarded")

	m.FailGeneration(s, retry.GenerationID, "No credits", false)
	assert.False(t, m.StartGeneration(s).Changed, "non-retryable errors cannot be retried")
}

func TestMachine_StartFreeform(t *testing.T) {
	m := newMachine()
	s := domain.NewSession("s")

	assert.False(t, m.StartFreeform(s, "   ").Changed)

	tr := m.StartFreeform(s, "make a video about my coffee")
	assert.True(t, tr.Entered(domain.StateGenerating))
	assert.Equal(t, domain.FreeformTemplateID, s.Template.ID)
	require.Len(t, s.Collected, 1)
	assert.Equal(t, domain.FreeformInputID, s.Collected[0].InputID)
	assert.Equal(t, "make a video about my coffee", s.Collected[0].Value.Text)

	assert.False(t, m.StartFreeform(s, "again").Changed, "only from template selection")
}

func TestMachine_ResetFromAnyState(t *testing.T) {
	m := newMachine()
	ctx := context.Background()

	states := map[string]func(*domain.Session){
		"input-collection": func(s *domain.Session) {
			_, _ = m.SelectTemplate(ctx, s, "avatar-video")
			m.ProvideInput(s, "product-image", imageValue())
		},
		"generating": func(s *domain.Session) {
			m.StartFreeform(s, "prompt")
		},
		"result": func(s *domain.Session) {
			tr := m.StartFreeform(s, "prompt")
			m.CompleteGeneration(s, tr.GenerationID, []domain.Creative{{ID: "c"}})
			m.Publish(s)
		},
		"error": func(s *domain.Session) {
			tr := m.StartFreeform(s, "prompt")
			m.FailGeneration(s, tr.GenerationID, "boom", true)
		},
		"template-selection": func(*domain.Session) {},
	}

	for name, setup := range states {
		t.Run(name, func(t *testing.T) {
			s := domain.NewSession("s")
			setup(s)
			assert.Equal(t, domain.CanvasState(name), s.CanvasState)

			tr := m.Reset(s)
			assert.True(t, tr.Changed)
			assert.Equal(t, domain.StateTemplateSelection, s.CanvasState)
			assert.Empty(t, s.Collected)
			assert.Nil(t, s.Template)
			assert.Empty(t, s.GenerationID)
			assert.False(t, s.Published)
			assert.Equal(t, "s", s.ID)
		})
	}
}

func TestMachine_CompletionAfterResetIsDiscarded(t *testing.T) {
	m := newMachine()
	s := domain.NewSession("s")
	tr := m.StartFreeform(s, "prompt")
	m.Reset(s)

	assert.False(t, m.CompleteGeneration(s, tr.GenerationID, []domain.Creative{{ID: "late"}}).Changed)
	assert.Equal(t, domain.StateTemplateSelection, s.CanvasState)
	assert.Empty(t, s.Outputs)
}
