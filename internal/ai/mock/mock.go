package mock

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thomas-vilte/mateissue/internal/config"
	domainErrors "github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/ports"
)

// DefaultResponse is returned when no response or rule applies.
const DefaultResponse = `[{"title":"Review the most recent changes","description":"Walk through the files touched in the latest commits and confirm they are covered by tests and documentation.","labels":["enhancement"]}]`

var _ ports.Backend = (*Backend)(nil)

type Rule struct {
	Contains string
	Response string
}

type Option func(*Backend)

// WithName sets the provider tag and model reported by GetModelInfo.
func WithName(provider, model string) Option {
	return func(b *Backend) {
		b.provider = provider
		b.model = model
	}
}

// WithResponses queues fixed responses, returned one per call in order.
func WithResponses(responses ...string) Option {
	return func(b *Backend) {
		b.responses = append(b.responses, responses...)
	}
}

// WithRule answers prompts containing substr. Rules are checked in order.
func WithRule(substr, response string) Option {
	return func(b *Backend) {
		b.rules = append(b.rules, Rule{Contains: substr, Response: response})
	}
}

func WithDefault(response string) Option {
	return func(b *Backend) {
		b.defaultResponse = response
	}
}

// WithFailures makes the first n calls fail with err.
func WithFailures(n int, err error) Option {
	return func(b *Backend) {
		b.failFirst = n
		b.failErr = err
	}
}

// WithError makes every call fail with err.
func WithError(err error) Option {
	return func(b *Backend) {
		b.failFirst = -1
		b.failErr = err
	}
}

// WithDelay makes every call wait d or until the context is done.
func WithDelay(d time.Duration) Option {
	return func(b *Backend) {
		b.delay = d
	}
}

func WithUnavailable() Option {
	return func(b *Backend) {
		b.unavailable = true
	}
}

// Backend is a deterministic in-memory backend.
type Backend struct {
	provider        string
	model           string
	responses       []string
	rules           []Rule
	defaultResponse string
	failFirst       int
	failErr         error
	delay           time.Duration
	unavailable     bool

	calls   atomic.Int64
	mu      sync.Mutex
	next    int
	prompts []string
}

func New(opts ...Option) *Backend {
	b := &Backend{
		provider:        string(config.AIMock),
		model:           string(config.ModelMock),
		defaultResponse: DefaultResponse,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewBackend builds the mock selected by a configuration record.
func NewBackend(cfg config.BackendConfig) *Backend {
	return New(WithName(string(config.AIMock), cfg.ModelName()))
}

func (b *Backend) Generate(ctx context.Context, prompt string, _ ports.GenerateOptions) (string, error) {
	n := b.calls.Add(1)

	b.mu.Lock()
	b.prompts = append(b.prompts, prompt)
	b.mu.Unlock()

	if b.delay > 0 {
		t := time.NewTimer(b.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
	}

	if b.failFirst < 0 || n <= int64(b.failFirst) {
		if b.failErr != nil {
			return "", b.failErr
		}
		return "", domainErrors.ErrProviderUnavailable.WithContext("provider", b.provider)
	}

	for _, r := range b.rules {
		if strings.Contains(prompt, r.Contains) {
			return r.Response, nil
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.next < len(b.responses) {
		resp := b.responses[b.next]
		b.next++
		return resp, nil
	}
	return b.defaultResponse, nil
}

func (b *Backend) IsAvailable(context.Context) bool {
	return !b.unavailable
}

func (b *Backend) GetModelInfo() models.ModelInfo {
	return models.ModelInfo{Provider: b.provider, Model: b.model, Local: true}
}

// Calls is the number of Generate invocations so far.
func (b *Backend) Calls() int {
	return int(b.calls.Load())
}

func (b *Backend) Prompts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.prompts...)
}
