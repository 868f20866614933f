package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/mateissue/internal/config"
	domainErrors "github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/ports"
)

func newTestBackend(t *testing.T, handler http.HandlerFunc) *Backend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewBackend(config.BackendConfig{Provider: "ollama", Host: srv.URL, Model: "llama3.2"})
}

func TestNewBackend_Defaults(t *testing.T) {
	b := NewBackend(config.BackendConfig{Provider: "ollama"})
	info := b.GetModelInfo()
	assert.Equal(t, "ollama", info.Provider)
	assert.Equal(t, "llama3.2", info.Model)
	assert.True(t, info.Local)
	assert.Equal(t, "http://localhost:11434", info.Details["endpoint"])
}

func TestBackend_Generate(t *testing.T) {
	t.Run("posts a non streaming request", func(t *testing.T) {
		b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, generatePath, r.URL.Path)
			var req generateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "llama3.2", req.Model)
			assert.Equal(t, "write it", req.Prompt)
			assert.False(t, req.Stream)
			assert.Equal(t, "json", req.Format)
			require.NotNil(t, req.Options)
			assert.Equal(t, 0.2, req.Options.Temperature)

			_, _ = w.Write([]byte(`{"model":"llama3.2","response":"[]","done":true,"prompt_eval_count":10,"eval_count":2}`))
		})

		text, err := b.Generate(context.Background(), "write it", ports.GenerateOptions{JSONOutput: true, Temperature: 0.2})
		require.NoError(t, err)
		assert.Equal(t, "[]", text)
		assert.Equal(t, 12, b.LastUsage().TotalTokens)
	})

	t.Run("missing model", func(t *testing.T) {
		b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"model not found"}`))
		})
		_, err := b.Generate(context.Background(), "p", ports.GenerateOptions{})
		assert.ErrorIs(t, err, domainErrors.ErrModelLoad)
		assert.True(t, domainErrors.IsType(err, domainErrors.TypeProvider))
	})

	t.Run("server error", func(t *testing.T) {
		b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("boom"))
		})
		_, err := b.Generate(context.Background(), "p", ports.GenerateOptions{})
		assert.ErrorIs(t, err, domainErrors.ErrProviderUnavailable)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("error field in body", func(t *testing.T) {
		b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":"out of memory"}`))
		})
		_, err := b.Generate(context.Background(), "p", ports.GenerateOptions{})
		assert.ErrorIs(t, err, domainErrors.ErrAIGeneration)
		assert.Contains(t, err.Error(), "out of memory")
	})

	t.Run("server down keeps the transport message", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		b := NewBackend(config.BackendConfig{Provider: "ollama", Host: url})
		_, err := b.Generate(context.Background(), "p", ports.GenerateOptions{})
		require.Error(t, err)
		assert.ErrorIs(t, err, domainErrors.ErrProviderUnavailable)
		assert.Contains(t, err.Error(), "connection refused")
		assert.False(t, b.IsAvailable(context.Background()))
	})
}

func TestBackend_IsAvailable(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, tagsPath, r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	})
	assert.True(t, b.IsAvailable(context.Background()))
}
