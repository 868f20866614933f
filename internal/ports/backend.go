package ports

import (
	"context"

	"github.com/thomas-vilte/mateissue/internal/models"
)

// GenerateOptions tunes a single generation call. Zero values mean
// "use the backend default".
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	JSONOutput  bool
}

// Backend is a single LLM provider able to turn a prompt into text.
type Backend interface {
	// Generate returns the raw text produced for prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// IsAvailable reports whether the backend can currently serve requests.
	// It must not fail; errors are reported as false.
	IsAvailable(ctx context.Context) bool

	GetModelInfo() models.ModelInfo
}

// UsageReporter is implemented by backends that can report token usage for
// their most recent call.
type UsageReporter interface {
	LastUsage() *models.TokenUsage
}

// Generator is what the pipeline needs from a router.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (*models.LLMResponse, error)

	// PrimaryProvider is the tag of the first backend in routing order.
	PrimaryProvider() string
}

// TextValidator accepts or rejects generated text.
type TextValidator interface {
	Validate(text string) error
}
