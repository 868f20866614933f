package huggingface

import (
	"context"
	stdErrors "errors"
	"fmt"
	"sync"

	"github.com/thomas-vilte/mateissue/internal/config"
	domainErrors "github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/logger"
	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/ports"
)

const defaultMaxTokens = 200

var _ ports.Backend = (*Backend)(nil)

// Model is an in-process text generator.
type Model interface {
	Generate(prompt string, maxTokens int) string
	Name() string
}

// Loader reads a model from disk. It is called at most once per Backend.
type Loader func(ctx context.Context, path string) (Model, error)

type Option func(*Backend)

func WithLoader(l Loader) Option {
	return func(b *Backend) {
		if l != nil {
			b.loader = l
		}
	}
}

// Backend runs a model loaded into process memory on first use.
type Backend struct {
	path      string
	model     string
	maxTokens int
	loader    Loader

	mu      sync.Mutex
	loaded  Model
	loadErr error
}

func NewBackend(cfg config.BackendConfig, opts ...Option) (*Backend, error) {
	if cfg.ModelPath == "" {
		return nil, domainErrors.ErrModelPathMissing.WithContext("provider", config.AIHuggingFace)
	}

	b := &Backend{
		path:      cfg.ModelPath,
		model:     cfg.ModelName(),
		maxTokens: cfg.MaxTokens,
		loader:    LoadNGramModel,
	}
	if b.maxTokens <= 0 {
		b.maxTokens = defaultMaxTokens
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// load runs the loader until it succeeds or fails for a reason other than
// the caller's context. Successes and model errors are kept; a cancelled or
// timed out attempt leaves the next caller free to try again.
func (b *Backend) load(ctx context.Context) (Model, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.loaded != nil || b.loadErr != nil {
		return b.loaded, b.loadErr
	}

	logger.Info(ctx, "loading local model", "path", b.path)
	m, err := b.loader(ctx, b.path)
	if err == nil && m == nil {
		err = fmt.Errorf("loader returned no model for %s", b.path)
	}
	if err != nil {
		if ctx.Err() != nil || stdErrors.Is(err, context.Canceled) || stdErrors.Is(err, context.DeadlineExceeded) {
			logger.Warn(ctx, "local model load interrupted", "path", b.path, "error", err)
			return nil, err
		}
		b.loadErr = err
		logger.Error(ctx, "local model load failed", err, "path", b.path)
		return nil, err
	}

	b.loaded = m
	logger.Debug(ctx, "local model ready", "model", m.Name())
	return m, nil
}

func (b *Backend) Generate(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	m, err := b.load(ctx)
	if err != nil {
		return "", domainErrors.ErrModelLoad.WithError(err).WithContext("path", b.path)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	maxTokens := b.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	return m.Generate(prompt, maxTokens), nil
}

// IsAvailable reports whether the model loaded, loading it if nobody has yet.
func (b *Backend) IsAvailable(ctx context.Context) bool {
	_, err := b.load(ctx)
	return err == nil
}

func (b *Backend) GetModelInfo() models.ModelInfo {
	return models.ModelInfo{
		Provider: string(config.AIHuggingFace),
		Model:    b.model,
		Local:    true,
		Details:  map[string]string{"model_path": b.path},
	}
}
