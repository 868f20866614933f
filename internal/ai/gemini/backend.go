package gemini

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/thomas-vilte/mateissue/internal/config"
	domainErrors "github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/logger"
	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/ports"
	"google.golang.org/genai"
)

type (
	GenerateFunc func(ctx context.Context, model string, prompt string, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	ProbeFunc    func(ctx context.Context, model string) error
)

var (
	_ ports.Backend       = (*Backend)(nil)
	_ ports.UsageReporter = (*Backend)(nil)
)

// Backend generates text through the Gemini API.
type Backend struct {
	client      *genai.Client
	model       string
	temperature float64
	maxTokens   int
	generateFn  GenerateFunc
	probeFn     ProbeFunc

	mu        sync.Mutex
	lastUsage *models.TokenUsage
}

func NewBackend(ctx context.Context, cfg config.BackendConfig) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, domainErrors.ErrAPIKeyMissing.WithContext("provider", config.AIGemini)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		if isAuthError(strings.ToLower(err.Error())) {
			return nil, domainErrors.ErrAPIKeyInvalid.WithError(err)
		}
		return nil, domainErrors.NewAppError(domainErrors.TypeConfiguration, "error creating AI client", err)
	}

	b := &Backend{
		client:      client,
		model:       cfg.ModelName(),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
	b.generateFn = b.defaultGenerate
	b.probeFn = b.defaultProbe
	return b, nil
}

func (b *Backend) defaultGenerate(ctx context.Context, model string, prompt string, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return b.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
}

func (b *Backend) defaultProbe(ctx context.Context, model string) error {
	_, err := b.client.Models.Get(ctx, model, nil)
	return err
}

func (b *Backend) Generate(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	responseType := ""
	if opts.JSONOutput {
		responseType = "application/json"
	}
	genConfig := GetGenerateConfig(b.model, responseType, nil)

	switch {
	case opts.Temperature > 0:
		genConfig.Temperature = float32Ptr(float32(opts.Temperature))
	case b.temperature > 0:
		genConfig.Temperature = float32Ptr(float32(b.temperature))
	}
	switch {
	case opts.MaxTokens > 0:
		genConfig.MaxOutputTokens = int32(opts.MaxTokens)
	case b.maxTokens > 0:
		genConfig.MaxOutputTokens = int32(b.maxTokens)
	}

	start := time.Now()
	resp, err := b.generateFn(ctx, b.model, prompt, genConfig)
	if err != nil {
		logger.Error(ctx, "gemini API call failed", err, "model", b.model)
		return "", classifyError(err)
	}

	if usage := extractUsage(resp, b.model); usage != nil {
		usage.DurationMs = time.Since(start).Milliseconds()
		b.mu.Lock()
		b.lastUsage = usage
		b.mu.Unlock()
	}

	text := formatResponse(resp)
	logger.Debug(ctx, "gemini response received",
		"model", b.model,
		"chars", len(text))
	return text, nil
}

func (b *Backend) IsAvailable(ctx context.Context) bool {
	if err := b.probeFn(ctx, b.model); err != nil {
		logger.Debug(ctx, "gemini probe failed", "model", b.model, "error", err)
		return false
	}
	return true
}

func (b *Backend) GetModelInfo() models.ModelInfo {
	return models.ModelInfo{
		Provider: string(config.AIGemini),
		Model:    b.model,
	}
}

func (b *Backend) LastUsage() *models.TokenUsage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastUsage
}

func classifyError(err error) error {
	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "quota"),
		strings.Contains(errMsg, "rate limit"),
		strings.Contains(errMsg, "resource exhausted"):
		return domainErrors.ErrQuotaExceeded.WithError(err)
	case isAuthError(errMsg):
		return domainErrors.ErrAPIKeyInvalid.WithError(err)
	default:
		return domainErrors.ErrAIGeneration.WithError(err)
	}
}

func isAuthError(errMsg string) bool {
	return strings.Contains(errMsg, "invalid") ||
		strings.Contains(errMsg, "unauthorized") ||
		strings.Contains(errMsg, "api key") ||
		strings.Contains(errMsg, "authentication")
}
