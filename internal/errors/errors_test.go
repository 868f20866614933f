package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_WithError(t *testing.T) {
	baseErr := errors.New("connection refused")
	appErr := ErrProviderUnavailable.WithError(baseErr)

	assert.Same(t, baseErr, appErr.Err)
	assert.Equal(t, TypeProvider, appErr.Type)
	assert.Equal(t, ErrProviderUnavailable.Suggestion, appErr.Suggestion)
	assert.Nil(t, ErrProviderUnavailable.Err, "the sentinel is left untouched")
	assert.ErrorIs(t, appErr, baseErr)
}

func TestAppError_WithContext(t *testing.T) {
	appErr := ErrRepoPathMissing.WithContext("path", "/tmp/nope").WithContext("detail", "stat failed")

	assert.Equal(t, "/tmp/nope", appErr.Context["path"])
	assert.Equal(t, "stat failed", appErr.Context["detail"])
	assert.Nil(t, ErrRepoPathMissing.Context)
	assert.Equal(t, "ANALYSIS: repository path does not exist - stat failed", appErr.Error())
}

func TestAppError_WithSuggestion(t *testing.T) {
	appErr := ErrAIGeneration.WithSuggestion("try another model")

	assert.Equal(t, "try another model", appErr.Suggestion)
	assert.Empty(t, ErrAIGeneration.Suggestion)
}

func TestAppError_Error(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		assert.Equal(t, "VALIDATION: empty response", ErrEmptyResponse.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		err := ErrHistoryUnavailable.WithError(errors.New("object not found"))
		assert.Equal(t, "ANALYSIS: commit history could not be read (object not found)", err.Error())
	})
}

func TestAppError_Is(t *testing.T) {
	derived := ErrTokenMissing.WithContext("repo", "acme/api").WithError(errors.New("empty"))
	wrapped := fmt.Errorf("publishing: %w", derived)

	assert.ErrorIs(t, wrapped, ErrTokenMissing)
	assert.NotErrorIs(t, wrapped, ErrRepositoryNotFound)
	assert.NotErrorIs(t, ErrEmptyResponse, ErrDegenerateResponse, "same type, different message")
}

func TestIsType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		typ  ErrorType
		want bool
	}{
		{"app error", ErrAPIKeyMissing, TypeConfiguration, true},
		{"wrapped app error", fmt.Errorf("load: %w", ErrQuotaExceeded), TypeProvider, true},
		{"other type", ErrQuotaExceeded, TypeVCS, false},
		{"missing variable", NewMissingVariableError("summary", []string{"x"}), TypeConfiguration, true},
		{"router error", &RouterError{}, TypeProvider, true},
		{"pipeline error", &PipelineError{Pipe: "p"}, TypePipeline, true},
		{"pipeline error is not provider", &PipelineError{Pipe: "p"}, TypeProvider, false},
		{"plain error", errors.New("boom"), TypeInternal, false},
		{"nil", nil, TypeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsType(tt.err, tt.typ))
		})
	}
}

func TestMissingVariableError(t *testing.T) {
	input := []string{"repo_name", "commits"}
	err := NewMissingVariableError("issue_generation", input)

	assert.Equal(t, []string{"commits", "repo_name"}, err.Missing)
	assert.Equal(t, []string{"repo_name", "commits"}, input, "the caller's slice is not reordered")
	assert.Equal(t, `CONFIGURATION: template "issue_generation" is missing variables: commits, repo_name`, err.Error())

	var target *MissingVariableError
	require.ErrorAs(t, fmt.Errorf("render: %w", err), &target)
	assert.Equal(t, "issue_generation", target.Template)
}

func TestRouterError(t *testing.T) {
	quota := ErrQuotaExceeded.WithError(errors.New("429"))
	err := &RouterError{Failures: []AttemptFailure{
		{Provider: "gemini", Model: "gemini-2.5-flash", Tries: 3, Err: quota},
		{Provider: "ollama", Model: "llama3", Tries: 1, Err: context.DeadlineExceeded},
		{Provider: "mock", Model: "mock", Tries: 1},
	}}

	assert.Contains(t, err.Error(), "all 3 backends failed")
	assert.Contains(t, err.Error(), "[1] gemini/gemini-2.5-flash after 3 tries")
	assert.Contains(t, err.Error(), "[2] ollama/llama3 after 1 tries")
	assert.Len(t, err.Unwrap(), 2, "failures without an error are skipped")
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPipelineError(t *testing.T) {
	t.Run("never started", func(t *testing.T) {
		err := &PipelineError{Pipe: "issues", Err: ErrMissingOutput}

		assert.Equal(t, `PIPELINE: pipeline "issues" never started: PIPELINE: pipeline has no OUTPUT stage step`, err.Error())
		assert.ErrorIs(t, err, ErrMissingOutput)
	})

	t.Run("blocked at a step", func(t *testing.T) {
		err := &PipelineError{Pipe: "issues", Step: "validate", Index: 1, Started: true, Err: ErrStepRejected}

		assert.Equal(t, `PIPELINE: pipeline "issues" blocked at step 2 (validate): VALIDATION: step validator rejected the response`, err.Error())
		assert.ErrorIs(t, err, ErrStepRejected)
		assert.True(t, IsType(err, TypeValidation), "the cause's type is still reachable")
	})
}
