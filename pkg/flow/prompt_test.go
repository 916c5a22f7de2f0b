package flow_test

import (
	"context"
	"testing"

	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/aretw0/adwizard/pkg/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPrompt(t *testing.T) {
	m := newMachine()
	ctx := context.Background()
	s := domain.NewSession("s")

	p, err := m.NextPrompt(ctx, s)
	require.NoError(t, err)
	require.NotNil(t, p.Question)
	assert.Equal(t, domain.QuestionTemplate, p.Question.ID)
	last := p.Question.Options[len(p.Question.Options)-1]
	assert.Equal(t, domain.FreeformTemplateID, last.ID, "free-form shortcut offered last")

	_, _ = m.SelectTemplate(ctx, s, "avatar-video")
	p, err = m.NextPrompt(ctx, s)
	require.NoError(t, err)
	require.NotNil(t, p.Input)
	assert.Equal(t, "product-image", p.Input.ID)
	assert.False(t, p.Optional)
	assert.Nil(t, p.Question)

	m.ProvideInput(s, "product-image", imageValue())
	m.ProvideInput(s, "product-description", domain.TextValue("earbuds"))
	p, err = m.NextPrompt(ctx, s)
	require.NoError(t, err)
	assert.True(t, p.Optional)
	require.NotNil(t, p.Question, "avatar input exposes its options")
	assert.Equal(t, "avatar", p.Question.ID)

	tr := m.StartGeneration(s)
	m.FailGeneration(s, tr.GenerationID, "Generation took too long.", true)
	p, err = m.NextPrompt(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, domain.QuestionContinueOrChange, p.Question.ID)
	assert.Contains(t, p.Message, "Generation took too long.")
	assert.Len(t, p.Question.Options, 2)

	tr = m.StartGeneration(s)
	m.CompleteGeneration(s, tr.GenerationID, []domain.Creative{{ID: "a"}, {ID: "b"}})
	p, err = m.NextPrompt(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, domain.QuestionPublishOrPreview, p.Question.ID)
	assert.Contains(t, p.Message, "2 outputs")
}

func TestContinueOrChangeQuestion_NonRetryable(t *testing.T) {
	q := flow.ContinueOrChangeQuestion(false)
	require.Len(t, q.Options, 1)
	assert.Equal(t, flow.OptionChange, q.Options[0].ID)
}
