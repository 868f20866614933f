package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/mateissue/internal/config"
	domainErrors "github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/ports"
	"google.golang.org/genai"
)

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: text}}}},
		},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     5,
			CandidatesTokenCount: 7,
			TotalTokenCount:      12,
		},
	}
}

func TestNewBackend(t *testing.T) {
	t.Run("should return error if API key is missing", func(t *testing.T) {
		b, err := NewBackend(context.Background(), config.BackendConfig{Provider: "gemini"})
		require.Error(t, err)
		assert.Nil(t, b)
		assert.ErrorIs(t, err, domainErrors.ErrAPIKeyMissing)
		assert.True(t, domainErrors.IsType(err, domainErrors.TypeConfiguration))
	})

	t.Run("should create backend if API key is present", func(t *testing.T) {
		b, err := NewBackend(context.Background(), config.BackendConfig{Provider: "gemini", APIKey: "fake-key"})
		require.NoError(t, err)
		info := b.GetModelInfo()
		assert.Equal(t, "gemini", info.Provider)
		assert.Equal(t, string(config.ModelGeminiV25Flash), info.Model)
		assert.False(t, info.Local)
	})
}

func TestBackend_Generate(t *testing.T) {
	newBackend := func(t *testing.T, fn GenerateFunc) *Backend {
		t.Helper()
		b, err := NewBackend(context.Background(), config.BackendConfig{
			Provider:    "gemini",
			APIKey:      "fake-key",
			Temperature: 0.7,
			MaxTokens:   256,
		})
		require.NoError(t, err)
		b.generateFn = fn
		return b
	}

	t.Run("returns text and records usage", func(t *testing.T) {
		var gotCfg *genai.GenerateContentConfig
		b := newBackend(t, func(_ context.Context, model, prompt string, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			assert.Equal(t, "hello", prompt)
			gotCfg = cfg
			return textResponse("hi there"), nil
		})

		text, err := b.Generate(context.Background(), "hello", ports.GenerateOptions{JSONOutput: true})
		require.NoError(t, err)
		assert.Equal(t, "hi there", text)
		assert.Equal(t, "application/json", gotCfg.ResponseMIMEType)
		assert.Equal(t, float32(0.7), *gotCfg.Temperature)
		assert.Equal(t, int32(256), gotCfg.MaxOutputTokens)

		usage := b.LastUsage()
		require.NotNil(t, usage)
		assert.Equal(t, 12, usage.TotalTokens)
	})

	t.Run("call options win over backend defaults", func(t *testing.T) {
		var gotCfg *genai.GenerateContentConfig
		b := newBackend(t, func(_ context.Context, _, _ string, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotCfg = cfg
			return textResponse("ok then"), nil
		})

		_, err := b.Generate(context.Background(), "p", ports.GenerateOptions{Temperature: 0.1, MaxTokens: 42})
		require.NoError(t, err)
		assert.Equal(t, float32(0.1), *gotCfg.Temperature)
		assert.Equal(t, int32(42), gotCfg.MaxOutputTokens)
	})

	tests := []struct {
		name     string
		apiErr   error
		expected *domainErrors.AppError
	}{
		{"quota", errors.New("Error 429: RESOURCE EXHAUSTED quota"), domainErrors.ErrQuotaExceeded},
		{"rate limit", errors.New("rate limit reached"), domainErrors.ErrQuotaExceeded},
		{"bad key", errors.New("API key not valid"), domainErrors.ErrAPIKeyInvalid},
		{"other", errors.New("connection reset"), domainErrors.ErrAIGeneration},
	}
	for _, tt := range tests {
		t.Run("classifies "+tt.name, func(t *testing.T) {
			b := newBackend(t, func(context.Context, string, string, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return nil, tt.apiErr
			})

			_, err := b.Generate(context.Background(), "p", ports.GenerateOptions{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expected)
			assert.ErrorIs(t, err, tt.apiErr)
			assert.True(t, domainErrors.IsType(err, domainErrors.TypeProvider))
		})
	}
}

func TestBackend_IsAvailable(t *testing.T) {
	b, err := NewBackend(context.Background(), config.BackendConfig{Provider: "gemini", APIKey: "fake-key"})
	require.NoError(t, err)

	b.probeFn = func(context.Context, string) error { return nil }
	assert.True(t, b.IsAvailable(context.Background()))

	b.probeFn = func(context.Context, string) error { return errors.New("404") }
	assert.False(t, b.IsAvailable(context.Background()))
}
