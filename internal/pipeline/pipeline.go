package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/logger"
	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/ports"
	"github.com/thomas-vilte/mateissue/internal/prompts"
)

// PreviousOutput always holds the text of the last finished step.
const PreviousOutput = "previous_output"

// OutputKey is the variable under which a step's text is visible to later steps.
func OutputKey(step string) string {
	return step + "_output"
}

// Validator accepts or rejects a step's response text.
type Validator func(text string) bool

// Step binds a template to a router. Steps run in the order they are added.
type Step struct {
	Name      string
	Stage     models.Stage
	Template  *prompts.Template
	Router    ports.Generator
	Validator Validator
	Options   ports.GenerateOptions
}

type Option func(*Pipe)

func WithClock(now func() time.Time) Option {
	return func(p *Pipe) {
		if now != nil {
			p.now = now
		}
	}
}

func WithRunIDs(newID func() string) Option {
	return func(p *Pipe) {
		if newID != nil {
			p.newID = newID
		}
	}
}

// Pipe is an ordered list of steps across the INPUT, PROCESSING and OUTPUT
// stages. A Pipe is built once and may be executed many times, but not
// concurrently with AddStep.
type Pipe struct {
	name  string
	steps []Step
	names map[string]bool
	now   func() time.Time
	newID func() string
}

func New(name string, opts ...Option) *Pipe {
	p := &Pipe{
		name:  name,
		names: make(map[string]bool),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipe) Name() string { return p.name }

func (p *Pipe) Steps() []Step {
	return append([]Step(nil), p.steps...)
}

func (p *Pipe) AddStep(s Step) error {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return errors.ErrInvalidStep.WithContext("detail", "step name is empty")
	case !s.Stage.Valid():
		return errors.ErrInvalidStep.WithContext("detail", fmt.Sprintf("step %q has unknown stage %q", s.Name, s.Stage))
	case s.Template == nil:
		return errors.ErrInvalidStep.WithContext("detail", fmt.Sprintf("step %q has no template", s.Name))
	case s.Router == nil:
		return errors.ErrInvalidStep.WithContext("detail", fmt.Sprintf("step %q has no router", s.Name))
	}
	if p.names[s.Name] {
		return errors.ErrDuplicateStep.WithContext("step", s.Name).
			WithContext("detail", fmt.Sprintf("step %q already exists in %q", s.Name, p.name))
	}

	p.names[s.Name] = true
	p.steps = append(p.steps, s)
	return nil
}

// ValidatePipeline checks that the pipe has at least one INPUT and one
// OUTPUT step.
func (p *Pipe) ValidatePipeline() error {
	var hasInput, hasOutput bool
	for _, s := range p.steps {
		switch s.Stage {
		case models.StageInput:
			hasInput = true
		case models.StageOutput:
			hasOutput = true
		}
	}

	switch {
	case !hasInput:
		return errors.ErrMissingInput.WithContext("pipe", p.name)
	case !hasOutput:
		return errors.ErrMissingOutput.WithContext("pipe", p.name)
	}
	return nil
}

// Preflight renders every step with placeholder values for the variables
// that will exist at that point of a run, so missing variables surface
// before any backend is called.
func (p *Pipe) Preflight(initial map[string]any) error {
	known := make(map[string]any, len(initial)+2*len(p.steps))
	for k := range initial {
		known[k] = ""
	}
	for i, s := range p.steps {
		if _, err := s.Template.Render(known, s.Router.PrimaryProvider()); err != nil {
			return &errors.PipelineError{Pipe: p.name, Step: s.Name, Index: i, Err: err}
		}
		known[OutputKey(s.Name)] = ""
		known[PreviousOutput] = ""
	}
	return nil
}

// Execute runs the steps in order and stops at the first failure. The
// returned result is never nil; on failure the error is a
// *errors.PipelineError telling whether the run started.
func (p *Pipe) Execute(ctx context.Context, initial map[string]any) (*models.PipelineResult, error) {
	result := &models.PipelineResult{
		RunID:     p.newID(),
		Pipe:      p.name,
		Status:    models.PipelineNotStarted,
		Steps:     make([]models.StepResult, len(p.steps)),
		Variables: make(map[string]string),
		StartedAt: p.now(),
	}
	for i, s := range p.steps {
		result.Steps[i] = models.StepResult{Name: s.Name, Stage: s.Stage, Status: models.StepPending}
	}

	ctx = logger.With(ctx, "pipe", p.name, "run_id", result.RunID)

	if err := p.ValidatePipeline(); err != nil {
		result.FinishedAt = p.now()
		logger.Warn(ctx, "pipeline not executable", "error", err)
		return result, &errors.PipelineError{Pipe: p.name, Index: -1, Err: err}
	}
	if err := p.Preflight(initial); err != nil {
		result.FinishedAt = p.now()
		logger.Warn(ctx, "pipeline preflight failed", "error", err)
		return result, err
	}

	vars := make(map[string]any, len(initial)+2*len(p.steps))
	for k, v := range initial {
		vars[k] = v
	}

	result.Status = models.PipelineRunning
	logger.Info(ctx, "pipeline started", "steps", len(p.steps))

	for i, s := range p.steps {
		sr := &result.Steps[i]
		sr.Status = models.StepRunning
		stepCtx := logger.With(ctx, "step", s.Name, "stage", string(s.Stage))

		text, err := p.runStep(stepCtx, s, vars, sr)
		if err != nil {
			sr.Status = models.StepFailed
			sr.Err = err
			sr.Error = err.Error()
			result.Status = models.PipelineFailed
			result.FailedStep = s.Name
			result.FinishedAt = p.now()
			logger.Error(stepCtx, "pipeline blocked", err, "index", i+1)
			return result, &errors.PipelineError{Pipe: p.name, Step: s.Name, Index: i, Started: true, Err: err}
		}

		sr.Status = models.StepDone
		vars[OutputKey(s.Name)] = text
		vars[PreviousOutput] = text
		result.Variables[OutputKey(s.Name)] = text
		if s.Stage == models.StageOutput {
			result.Output = text
		}
		logger.Debug(stepCtx, "step done", "chars", len(text))
	}

	result.Status = models.PipelineSucceeded
	result.FinishedAt = p.now()
	logger.Info(ctx, "pipeline succeeded",
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds())
	return result, nil
}

func (p *Pipe) runStep(ctx context.Context, s Step, vars map[string]any, sr *models.StepResult) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rendered, err := s.Template.Render(vars, s.Router.PrimaryProvider())
	if err != nil {
		return "", err
	}
	sr.Prompt = rendered

	resp, err := s.Router.Generate(ctx, rendered.Text, s.Options)
	if err != nil {
		return "", err
	}
	sr.Response = resp

	if s.Validator != nil && !s.Validator(resp.Text) {
		return "", errors.ErrStepRejected.WithContext("step", s.Name).
			WithContext("provider", resp.Provider)
	}
	return resp.Text, nil
}
