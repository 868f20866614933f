package services

import (
	"context"

	"github.com/thomas-vilte/mateissue/internal/logger"
	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/pipeline"
	"github.com/thomas-vilte/mateissue/internal/ports"
	"github.com/thomas-vilte/mateissue/internal/prompts"
	"github.com/thomas-vilte/mateissue/internal/synthesizer"
)

// IssuePipelineName names the default issue generation pipe.
const IssuePipelineName = "issue-generation"

// RouterFactory builds a fresh router for one pipeline run.
type RouterFactory func(ctx context.Context) (ports.Generator, error)

// PipelineBuilder is what the generator service needs to get a pipe.
type PipelineBuilder interface {
	Build(ctx context.Context) (*pipeline.Pipe, error)
}

var _ PipelineBuilder = (*PipelineFactory)(nil)

// PipelineFactory assembles the summary -> candidates -> drafts pipe.
// Every Build call gets its own router, so concurrent runs share nothing.
type PipelineFactory struct {
	library   *prompts.Library
	newRouter RouterFactory
	maxTokens int
}

type PipelineFactoryOption func(*PipelineFactory)

// WithMaxTokens caps generation length for every step.
func WithMaxTokens(n int) PipelineFactoryOption {
	return func(f *PipelineFactory) {
		f.maxTokens = n
	}
}

func NewPipelineFactory(library *prompts.Library, newRouter RouterFactory, opts ...PipelineFactoryOption) *PipelineFactory {
	if library == nil {
		library = prompts.DefaultLibrary()
	}
	f := &PipelineFactory{
		library:   library,
		newRouter: newRouter,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *PipelineFactory) Build(ctx context.Context) (*pipeline.Pipe, error) {
	router, err := f.newRouter(ctx)
	if err != nil {
		return nil, err
	}

	steps := []struct {
		template  string
		stage     models.Stage
		json      bool
		validator pipeline.Validator
	}{
		{template: prompts.RepositorySummary, stage: models.StageInput},
		{template: prompts.IssueCandidates, stage: models.StageProcessing},
		{template: prompts.IssueDrafts, stage: models.StageOutput, json: true, validator: hasDrafts},
	}

	pipe := pipeline.New(IssuePipelineName)
	for _, s := range steps {
		tmpl, err := f.library.Get(s.template)
		if err != nil {
			return nil, err
		}
		if err := pipe.AddStep(pipeline.Step{
			Name:      s.template,
			Stage:     s.stage,
			Template:  tmpl,
			Router:    router,
			Validator: s.validator,
			Options: ports.GenerateOptions{
				MaxTokens:  f.maxTokens,
				JSONOutput: s.json,
			},
		}); err != nil {
			return nil, err
		}
	}

	logger.Debug(ctx, "pipeline built",
		"pipe", pipe.Name(),
		"steps", len(steps),
		"provider", router.PrimaryProvider())
	return pipe, nil
}

// hasDrafts rejects OUTPUT text from which no draft can be parsed.
func hasDrafts(text string) bool {
	return len(synthesizer.Parse(text)) > 0
}
