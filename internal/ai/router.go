package ai

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/logger"
	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/ports"
)

const (
	DefaultMaxRetries = 2
	DefaultBackoff    = 500 * time.Millisecond
	DefaultTimeout    = 60 * time.Second
	maxBackoff        = 30 * time.Second
)

var _ ports.Generator = (*Router)(nil)

type SleepFunc func(ctx context.Context, d time.Duration) error

type RouterOption func(*Router)

func WithMaxRetries(n int) RouterOption {
	return func(r *Router) {
		if n >= 0 {
			r.maxRetries = n
		}
	}
}

func WithBackoff(base time.Duration) RouterOption {
	return func(r *Router) {
		if base >= 0 {
			r.backoff = base
		}
	}
}

// WithTimeout bounds every single try.
func WithTimeout(d time.Duration) RouterOption {
	return func(r *Router) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithValidator(v ports.TextValidator) RouterOption {
	return func(r *Router) {
		if v != nil {
			r.validator = v
		}
	}
}

func WithSleep(fn SleepFunc) RouterOption {
	return func(r *Router) {
		if fn != nil {
			r.sleep = fn
		}
	}
}

// Router tries a primary backend and then each fallback, in the order given
// at construction. The order never changes.
type Router struct {
	backends   []ports.Backend
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration
	validator  ports.TextValidator
	sleep      SleepFunc
}

func NewRouter(primary ports.Backend, fallbacks []ports.Backend, opts ...RouterOption) (*Router, error) {
	if primary == nil {
		return nil, errors.ErrInvalidConfig.WithContext("detail", "router needs a primary backend")
	}

	backends := make([]ports.Backend, 0, 1+len(fallbacks))
	backends = append(backends, primary)
	for i, b := range fallbacks {
		if b == nil {
			return nil, errors.ErrInvalidConfig.WithContext("detail", fmt.Sprintf("fallback %d is nil", i))
		}
		backends = append(backends, b)
	}

	r := &Router{
		backends:   backends,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		timeout:    DefaultTimeout,
		validator:  NewResponseValidator(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// PrimaryProvider is the provider tag of the first backend.
func (r *Router) PrimaryProvider() string {
	return r.backends[0].GetModelInfo().Provider
}

// Backends returns a copy of the routing order.
func (r *Router) Backends() []models.ModelInfo {
	out := make([]models.ModelInfo, 0, len(r.backends))
	for _, b := range r.backends {
		out = append(out, b.GetModelInfo())
	}
	return out
}

// Generate returns the first response that passes validation. The attempt
// log holds one entry per backend tried. When every backend fails the error
// is a *errors.RouterError listing each of them.
func (r *Router) Generate(ctx context.Context, prompt string, opts ports.GenerateOptions) (*models.LLMResponse, error) {
	attempts := make([]models.Attempt, 0, len(r.backends))
	failures := make([]errors.AttemptFailure, 0, len(r.backends))

	for _, backend := range r.backends {
		if ctx.Err() != nil {
			break
		}

		attempt, text := r.try(ctx, backend, prompt, opts)
		attempts = append(attempts, attempt)

		if attempt.Succeeded {
			resp := &models.LLMResponse{
				Text:     text,
				Provider: attempt.Provider,
				Model:    attempt.Model,
				Latency:  attempt.Latency,
				Valid:    true,
				Attempts: attempts,
			}
			if reporter, ok := backend.(ports.UsageReporter); ok {
				resp.Usage = reporter.LastUsage()
			}
			logger.Info(ctx, "llm response accepted",
				"provider", attempt.Provider,
				"model", attempt.Model,
				"attempts", len(attempts),
				"latency_ms", attempt.Latency.Milliseconds())
			return resp, nil
		}

		failures = append(failures, errors.AttemptFailure{
			Provider: attempt.Provider,
			Model:    attempt.Model,
			Tries:    attempt.Tries,
			Err:      attempt.Err,
		})
		logger.Warn(ctx, "backend exhausted, trying next",
			"provider", attempt.Provider,
			"tries", attempt.Tries,
			"reason", attempt.Reason)
	}

	routerErr := &errors.RouterError{Failures: failures}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", routerErr, err)
	}
	return nil, routerErr
}

func (r *Router) try(ctx context.Context, backend ports.Backend, prompt string, opts ports.GenerateOptions) (models.Attempt, string) {
	info := backend.GetModelInfo()
	attempt := models.Attempt{Provider: info.Provider, Model: info.Model}
	start := time.Now()

	var lastErr error
	for n := 1; n <= 1+r.maxRetries; n++ {
		if n > 1 {
			if err := r.sleep(ctx, r.backoffFor(n-1)); err != nil {
				lastErr = err
				break
			}
		}
		attempt.Tries = n

		text, err := r.call(ctx, backend, prompt, opts)
		if err == nil {
			err = r.validator.Validate(text)
		}
		if err == nil {
			attempt.Succeeded = true
			attempt.Latency = time.Since(start)
			return attempt, text
		}

		lastErr = err
		logger.Debug(ctx, "llm try failed",
			"provider", info.Provider,
			"tries", n,
			"error", err)

		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}

	attempt.Err = lastErr
	if lastErr != nil {
		attempt.Reason = lastErr.Error()
	}
	attempt.Latency = time.Since(start)
	return attempt, ""
}

// call runs one Generate bounded by the per-try timeout. A timeout becomes a
// provider error like any other.
func (r *Router) call(ctx context.Context, backend ports.Backend, prompt string, opts ports.GenerateOptions) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	text, err := backend.Generate(callCtx, prompt, opts)
	if err != nil {
		if ctx.Err() == nil && (stdErrors.Is(callCtx.Err(), context.DeadlineExceeded) || stdErrors.Is(err, context.DeadlineExceeded)) {
			return "", errors.ErrProviderTimeout.WithError(err).WithContext("timeout", r.timeout.String())
		}
		return "", err
	}
	if stdErrors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return "", errors.ErrProviderTimeout.WithContext("timeout", r.timeout.String())
	}
	return text, nil
}

func (r *Router) backoffFor(retry int) time.Duration {
	shift := retry - 1
	if r.backoff <= 0 {
		return 0
	}
	if shift >= 32 {
		return maxBackoff
	}
	d := r.backoff << shift
	if d > maxBackoff || d < 0 {
		return maxBackoff
	}
	return d
}

// retryable is false for errors a retry cannot fix, such as a rejected key.
func retryable(err error) bool {
	if stdErrors.Is(err, errors.ErrAPIKeyInvalid) || stdErrors.Is(err, errors.ErrAPIKeyMissing) {
		return false
	}
	return !errors.IsType(err, errors.TypeConfiguration)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
