package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
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
	DefaultBaseURL  = "https://api.openai.com"
	completionsPath = "/v1/chat/completions"
	modelsPath      = "/v1/models"
	maxErrorBody    = 512
)

var (
	_ ports.Backend       = (*Backend)(nil)
	_ ports.UsageReporter = (*Backend)(nil)
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

type Option func(*Backend)

// WithHTTPClient replaces the pooled client, mostly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(b *Backend) {
		if c != nil {
			b.client = c
		}
	}
}

// Backend talks to an OpenAI compatible chat completions endpoint.
type Backend struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int

	mu        sync.Mutex
	lastUsage *models.TokenUsage
}

func NewBackend(cfg config.BackendConfig, opts ...Option) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, domainErrors.ErrAPIKeyMissing.WithContext("provider", config.AIOpenAI)
	}

	baseURL := DefaultBaseURL
	if cfg.Host != "" {
		baseURL = cfg.Endpoint(DefaultBaseURL, 0)
	}

	b := &Backend{
		client:      cleanhttp.DefaultPooledClient(),
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.ModelName(),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Backend) Generate(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	reqBody := chatRequest{
		Model:    b.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	if t := pickTemperature(opts.Temperature, b.temperature); t > 0 {
		reqBody.Temperature = &t
	}
	reqBody.MaxTokens = b.maxTokens
	if opts.MaxTokens > 0 {
		reqBody.MaxTokens = opts.MaxTokens
	}
	if opts.JSONOutput {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", domainErrors.NewAppError(domainErrors.TypeInternal, "error encoding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+completionsPath, bytes.NewReader(payload))
	if err != nil {
		return "", domainErrors.ErrProviderUnavailable.WithError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	start := time.Now()
	resp, err := b.client.Do(req)
	if err != nil {
		return "", domainErrors.ErrProviderUnavailable.WithError(err).
			WithContext("detail", err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", domainErrors.ErrAIGeneration.WithError(err)
	}
	if len(out.Choices) == 0 {
		return "", domainErrors.ErrEmptyResponse.WithContext("provider", config.AIOpenAI)
	}

	if out.Usage != nil {
		b.mu.Lock()
		b.lastUsage = &models.TokenUsage{
			InputTokens:  out.Usage.PromptTokens,
			OutputTokens: out.Usage.CompletionTokens,
			TotalTokens:  out.Usage.TotalTokens,
			Model:        b.model,
			DurationMs:   time.Since(start).Milliseconds(),
		}
		b.mu.Unlock()
	}

	logger.Debug(ctx, "openai response received",
		"model", b.model,
		"choices", len(out.Choices))
	return out.Choices[0].Message.Content, nil
}

func (b *Backend) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+modelsPath, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		logger.Debug(ctx, "openai probe failed", "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

func (b *Backend) GetModelInfo() models.ModelInfo {
	return models.ModelInfo{
		Provider: string(config.AIOpenAI),
		Model:    b.model,
		Details:  map[string]string{"endpoint": b.baseURL},
	}
}

func (b *Backend) LastUsage() *models.TokenUsage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastUsage
}

func pickTemperature(call, configured float64) float64 {
	if call > 0 {
		return call
	}
	return configured
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))

	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
	}
	cause := fmt.Errorf("status %d: %s", resp.StatusCode, msg)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domainErrors.ErrAPIKeyInvalid.WithError(cause)
	case http.StatusTooManyRequests:
		return domainErrors.ErrQuotaExceeded.WithError(cause)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return domainErrors.ErrProviderUnavailable.WithError(cause)
	default:
		return domainErrors.ErrAIGeneration.WithError(cause)
	}
}
