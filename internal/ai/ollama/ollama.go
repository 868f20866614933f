package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/thomas-vilte/mateissue/internal/config"
	domainErrors "github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/logger"
	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/ports"
)

const (
	DefaultHost  = "localhost"
	DefaultPort  = 11434
	generatePath = "/api/generate"
	tagsPath     = "/api/tags"
	maxErrorBody = 512
)

var (
	_ ports.Backend       = (*Backend)(nil)
	_ ports.UsageReporter = (*Backend)(nil)
)

type generateOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateRequest struct {
	Model   string           `json:"model"`
	Prompt  string           `json:"prompt"`
	Stream  bool             `json:"stream"`
	Format  string           `json:"format,omitempty"`
	Options *generateOptions `json:"options,omitempty"`
}

type generateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	Error           string `json:"error"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

type Option func(*Backend)

func WithHTTPClient(c *http.Client) Option {
	return func(b *Backend) {
		if c != nil {
			b.client = c
		}
	}
}

// Backend calls a local Ollama server.
type Backend struct {
	client      *http.Client
	endpoint    string
	model       string
	temperature float64
	maxTokens   int

	mu        sync.Mutex
	lastUsage *models.TokenUsage
}

func NewBackend(cfg config.BackendConfig, opts ...Option) *Backend {
	b := &Backend{
		client:      cleanhttp.DefaultPooledClient(),
		endpoint:    cfg.Endpoint(DefaultHost, DefaultPort),
		model:       cfg.ModelName(),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Generate(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	reqBody := generateRequest{
		Model:  b.model,
		Prompt: prompt,
	}
	o := generateOptions{Temperature: b.temperature, NumPredict: b.maxTokens}
	if opts.Temperature > 0 {
		o.Temperature = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		o.NumPredict = opts.MaxTokens
	}
	if o != (generateOptions{}) {
		reqBody.Options = &o
	}
	if opts.JSONOutput {
		reqBody.Format = "json"
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", domainErrors.NewAppError(domainErrors.TypeInternal, "error encoding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint+generatePath, bytes.NewReader(payload))
	if err != nil {
		return "", domainErrors.ErrProviderUnavailable.WithError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := b.client.Do(req)
	if err != nil {
		return "", domainErrors.ErrProviderUnavailable.WithError(err).
			WithContext("detail", err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
		if resp.StatusCode == http.StatusNotFound {
			return "", domainErrors.ErrModelLoad.WithError(cause).WithContext("model", b.model)
		}
		return "", domainErrors.ErrProviderUnavailable.WithError(cause).WithContext("detail", cause.Error())
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", domainErrors.ErrAIGeneration.WithError(err)
	}
	if out.Error != "" {
		return "", domainErrors.ErrAIGeneration.WithContext("detail", out.Error)
	}

	b.mu.Lock()
	b.lastUsage = &models.TokenUsage{
		InputTokens:  out.PromptEvalCount,
		OutputTokens: out.EvalCount,
		TotalTokens:  out.PromptEvalCount + out.EvalCount,
		Model:        b.model,
		DurationMs:   time.Since(start).Milliseconds(),
	}
	b.mu.Unlock()

	logger.Debug(ctx, "ollama response received",
		"model", b.model,
		"eval_count", out.EvalCount)
	return out.Response, nil
}

// IsAvailable probes the tags listing, which is cheap on a running server.
func (b *Backend) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+tagsPath, nil)
	if err != nil {
		return false
	}
	resp, err := b.client.Do(req)
	if err != nil {
		logger.Debug(ctx, "ollama probe failed", "endpoint", b.endpoint, "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

func (b *Backend) GetModelInfo() models.ModelInfo {
	return models.ModelInfo{
		Provider: string(config.AIOllama),
		Model:    b.model,
		Local:    true,
		Details:  map[string]string{"endpoint": b.endpoint},
	}
}

func (b *Backend) LastUsage() *models.TokenUsage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastUsage
}
