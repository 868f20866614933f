package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aimock "github.com/thomas-vilte/mateissue/internal/ai/mock"
	"github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/prompts"
)

func TestPipelineFactory_Build(t *testing.T) {
	factory := NewPipelineFactory(nil, routerFactory(t, aimock.New()), WithMaxTokens(512))

	pipe, err := factory.Build(context.Background())

	require.NoError(t, err)
	require.NoError(t, pipe.ValidatePipeline())
	steps := pipe.Steps()
	require.Len(t, steps, 3)
	assert.Equal(t, []models.Stage{models.StageInput, models.StageProcessing, models.StageOutput},
		[]models.Stage{steps[0].Stage, steps[1].Stage, steps[2].Stage})
	assert.Equal(t, prompts.IssueDrafts, steps[2].Name)
	assert.True(t, steps[2].Options.JSONOutput)
	assert.False(t, steps[0].Options.JSONOutput)
	assert.Equal(t, 512, steps[1].Options.MaxTokens)
	assert.NotNil(t, steps[2].Validator)
}

func TestPipelineFactory_MissingTemplate(t *testing.T) {
	factory := NewPipelineFactory(prompts.NewLibrary(), routerFactory(t, aimock.New()))

	_, err := factory.Build(context.Background())

	assert.ErrorIs(t, err, errors.ErrTemplateNotFound)
}

func TestHasDrafts(t *testing.T) {
	assert.True(t, hasDrafts(draftsJSON))
	assert.False(t, hasDrafts("no drafts here"))
}
