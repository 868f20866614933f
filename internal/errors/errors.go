package errors

import (
	stdErrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType defines the category of the error
type ErrorType string

const (
	TypeConfiguration ErrorType = "CONFIGURATION"
	TypeProvider      ErrorType = "PROVIDER"
	TypeValidation    ErrorType = "VALIDATION"
	TypePipeline      ErrorType = "PIPELINE"
	TypeAnalysis      ErrorType = "ANALYSIS"
	TypeVCS           ErrorType = "VCS"
	TypeInternal      ErrorType = "INTERNAL"
)

// AppError represents a domain-level error with a type and an underlying error
type AppError struct {
	Type       ErrorType
	Message    string
	Context    map[string]interface{}
	Err        error
	Suggestion string
}

func (e *AppError) Error() string {
	var msg string
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Type, e.Message)
	}

	if e.Context != nil {
		if detail, ok := e.Context["detail"].(string); ok && detail != "" {
			msg += fmt.Sprintf(" - %s", detail)
		}
	}

	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors by type and message, so values derived with
// WithError/WithContext still satisfy errors.Is against the original sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// WithError creates a new AppError with an underlying error
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        err,
		Suggestion: e.Suggestion,
	}
}

// WithContext creates a new AppError with additional context
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	ctx := make(map[string]interface{})
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    ctx,
		Err:        e.Err,
		Suggestion: e.Suggestion,
	}
}

func (e *AppError) WithSuggestion(suggestion string) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        e.Err,
		Suggestion: suggestion,
	}
}

// NewAppError creates a new AppError
func NewAppError(t ErrorType, msg string, err error) *AppError {
	return &AppError{
		Type:    t,
		Message: msg,
		Err:     err,
	}
}

// IsType reports whether err, or anything it wraps, carries the given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if stdErrors.As(err, &appErr) && appErr.Type == t {
		return true
	}

	var missing *MissingVariableError
	if t == TypeConfiguration && stdErrors.As(err, &missing) {
		return true
	}

	var routerErr *RouterError
	if t == TypeProvider && stdErrors.As(err, &routerErr) {
		return true
	}

	var pipeErr *PipelineError
	return t == TypePipeline && stdErrors.As(err, &pipeErr)
}

// MissingVariableError is returned when a template is rendered without every
// placeholder it needs. Missing is sorted and holds each name once.
type MissingVariableError struct {
	Template string
	Missing  []string
}

func NewMissingVariableError(template string, missing []string) *MissingVariableError {
	names := append([]string(nil), missing...)
	sort.Strings(names)
	return &MissingVariableError{Template: template, Missing: names}
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("%s: template %q is missing variables: %s",
		TypeConfiguration, e.Template, strings.Join(e.Missing, ", "))
}

// AttemptFailure is the per-backend record carried by RouterError.
type AttemptFailure struct {
	Provider string
	Model    string
	Tries    int
	Err      error
}

// RouterError aggregates the failure of every backend a router tried.
type RouterError struct {
	Failures []AttemptFailure
}

func (e *RouterError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: all %d backends failed", TypeProvider, len(e.Failures)))
	for i, f := range e.Failures {
		sb.WriteString(fmt.Sprintf("; [%d] %s/%s after %d tries: %v", i+1, f.Provider, f.Model, f.Tries, f.Err))
	}
	return sb.String()
}

func (e *RouterError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}

// PipelineError reports a pipeline that either never started (structural
// precondition) or was blocked at a given step.
type PipelineError struct {
	Pipe    string
	Step    string
	Index   int
	Started bool
	Err     error
}

func (e *PipelineError) Error() string {
	if !e.Started {
		return fmt.Sprintf("%s: pipeline %q never started: %v", TypePipeline, e.Pipe, e.Err)
	}
	return fmt.Sprintf("%s: pipeline %q blocked at step %d (%s): %v", TypePipeline, e.Pipe, e.Index+1, e.Step, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Configuration errors
var (
	ErrAPIKeyMissing = NewAppError(TypeConfiguration, "API key is missing", nil).
				WithSuggestion("Set api_key in ~/.mateissue/config.json or export it in a .env file")

	ErrUnknownProvider = NewAppError(TypeConfiguration, "unknown LLM provider", nil).
				WithSuggestion("Supported providers: gemini, openai, ollama, huggingface, mock")

	ErrInvalidConfig = NewAppError(TypeConfiguration, "invalid configuration", nil).
				WithSuggestion("Run: mateissue config show")

	ErrModelPathMissing = NewAppError(TypeConfiguration, "local model path is missing", nil).
				WithSuggestion("Set model_path to a directory containing config.json and corpus.txt")

	ErrDuplicateTemplate = NewAppError(TypeConfiguration, "template already registered", nil)

	ErrTemplateNotFound = NewAppError(TypeConfiguration, "template not found", nil).
				WithSuggestion("List available templates: mateissue templates list")
)

// Provider errors
var (
	ErrProviderUnavailable = NewAppError(TypeProvider, "provider unavailable", nil).
				WithSuggestion("Check that the backend is running and reachable")

	ErrProviderTimeout = NewAppError(TypeProvider, "provider call timed out", nil)

	ErrQuotaExceeded = NewAppError(TypeProvider, "AI quota exceeded or rate limited", nil).
				WithSuggestion("Wait a few minutes and try again, or check your API quota")

	ErrAPIKeyInvalid = NewAppError(TypeProvider, "API key is invalid", nil).
				WithSuggestion("Generate a new key and update your configuration")

	ErrAIGeneration = NewAppError(TypeProvider, "AI generation failed", nil)

	ErrModelLoad = NewAppError(TypeProvider, "failed to load local model", nil)
)

// Validation errors
var (
	ErrEmptyResponse      = NewAppError(TypeValidation, "empty response", nil)
	ErrDegenerateResponse = NewAppError(TypeValidation, "degenerate repetitive response", nil)
	ErrErrorPattern       = NewAppError(TypeValidation, "response matches an error pattern", nil)
	ErrStepRejected       = NewAppError(TypeValidation, "step validator rejected the response", nil)
)

// Pipeline errors
var (
	ErrDuplicateStep  = NewAppError(TypePipeline, "duplicate step name", nil)
	ErrMissingInput   = NewAppError(TypePipeline, "pipeline has no INPUT stage step", nil)
	ErrMissingOutput  = NewAppError(TypePipeline, "pipeline has no OUTPUT stage step", nil)
	ErrInvalidStep    = NewAppError(TypePipeline, "invalid pipeline step", nil)
	ErrPipelineFailed = NewAppError(TypePipeline, "pipeline failed", nil)
)

// Analysis errors
var (
	ErrRepoPathMissing = NewAppError(TypeAnalysis, "repository path does not exist", nil).
				WithSuggestion("Pass the path of a local git checkout: --repo <path>")

	ErrNotARepository = NewAppError(TypeAnalysis, "path is not a git repository", nil).
				WithSuggestion("Initialize a git repository: git init")

	ErrHistoryUnavailable = NewAppError(TypeAnalysis, "commit history could not be read", nil)
)

// VCS errors
var (
	ErrTokenMissing = NewAppError(TypeVCS, "GitHub token is missing", nil).
			WithSuggestion("Set github.token in the configuration or GITHUB_TOKEN in .env")

	ErrRepositoryNotFound = NewAppError(TypeVCS, "repository not found", nil).
				WithSuggestion("Check repository URL and access permissions")

	ErrRemoteNotFound = NewAppError(TypeVCS, "could not resolve owner/repo from the origin remote", nil).
				WithSuggestion("Set github.owner and github.repo in the configuration")

	ErrGitHubTokenInvalid = NewAppError(TypeVCS, "GitHub token is invalid or expired", nil).
				WithSuggestion("Generate a new token at: https://github.com/settings/tokens")

	ErrGitHubRateLimit = NewAppError(TypeVCS, "GitHub API rate limit exceeded", nil).
				WithSuggestion("Wait a few minutes or use a personal access token for higher limits")
)
