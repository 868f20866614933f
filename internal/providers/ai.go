package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/thomas-vilte/mateissue/internal/ai"
	"github.com/thomas-vilte/mateissue/internal/ai/gemini"
	"github.com/thomas-vilte/mateissue/internal/ai/huggingface"
	"github.com/thomas-vilte/mateissue/internal/ai/mock"
	"github.com/thomas-vilte/mateissue/internal/ai/ollama"
	"github.com/thomas-vilte/mateissue/internal/ai/openai"
	"github.com/thomas-vilte/mateissue/internal/config"
	"github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/logger"
	"github.com/thomas-vilte/mateissue/internal/ports"
)

// NewBackend creates the Backend selected by cfg.Provider. This is the only
// place that branches on the provider tag.
func NewBackend(ctx context.Context, cfg config.BackendConfig) (ports.Backend, error) {
	if appErr := cfg.Validate(); appErr != nil {
		return nil, appErr
	}

	switch config.AI(cfg.Provider) {
	case config.AIGemini:
		b, err := gemini.NewBackend(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.AIOpenAI:
		b, err := openai.NewBackend(cfg)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.AIOllama:
		return ollama.NewBackend(cfg), nil
	case config.AIHuggingFace:
		b, err := huggingface.NewBackend(cfg)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.AIMock:
		return mock.NewBackend(cfg), nil
	default:
		return nil, errors.ErrUnknownProvider.WithContext("provider", cfg.Provider).
			WithContext("detail", fmt.Sprintf("provider %q", cfg.Provider))
	}
}

// NewRouter builds every configured backend and wraps them in a Router.
// Any invalid backend record fails the whole construction.
func NewRouter(ctx context.Context, llm config.LLMConfig) (*ai.Router, error) {
	primary, err := NewBackend(ctx, llm.Primary)
	if err != nil {
		return nil, fmt.Errorf("primary backend: %w", err)
	}

	fallbacks := make([]ports.Backend, 0, len(llm.Fallbacks))
	for i, fc := range llm.Fallbacks {
		b, err := NewBackend(ctx, fc)
		if err != nil {
			return nil, fmt.Errorf("fallback %d: %w", i+1, err)
		}
		fallbacks = append(fallbacks, b)
	}

	opts := []ai.RouterOption{ai.WithMaxRetries(llm.MaxRetries)}
	if llm.BackoffMs > 0 {
		opts = append(opts, ai.WithBackoff(time.Duration(llm.BackoffMs)*time.Millisecond))
	}
	if llm.TimeoutSeconds > 0 {
		opts = append(opts, ai.WithTimeout(time.Duration(llm.TimeoutSeconds)*time.Second))
	}

	router, err := ai.NewRouter(primary, fallbacks, opts...)
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "router ready",
		"primary", llm.Primary.Provider,
		"fallbacks", len(fallbacks))
	return router, nil
}
