// Package di wires the issue generation stack from a configuration.
package di

import (
	"context"

	"go.uber.org/dig"

	"github.com/thomas-vilte/mateissue/internal/analyzer"
	"github.com/thomas-vilte/mateissue/internal/cache"
	"github.com/thomas-vilte/mateissue/internal/config"
	"github.com/thomas-vilte/mateissue/internal/dependency"
	"github.com/thomas-vilte/mateissue/internal/git"
	"github.com/thomas-vilte/mateissue/internal/logger"
	"github.com/thomas-vilte/mateissue/internal/ports"
	"github.com/thomas-vilte/mateissue/internal/prompts"
	"github.com/thomas-vilte/mateissue/internal/providers"
	"github.com/thomas-vilte/mateissue/internal/services"
	"github.com/thomas-vilte/mateissue/internal/synthesizer"
)

// PublisherFactory resolves the issue publisher for one repository.
type PublisherFactory func(ctx context.Context, repoPath string) (ports.IssuePublisher, error)

// Dependencies is everything the commands resolve from a container.
type Dependencies struct {
	dig.In

	Service   *services.IssueGeneratorService
	Analyzer  ports.RepositoryAnalyzer
	Library   *prompts.Library
	Publisher PublisherFactory
}

// NewContainer returns a container holding cfg and every provider.
// Nothing is built until Resolve is called.
func NewContainer(cfg *config.Config) (*dig.Container, error) {
	container := dig.New()
	if err := container.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := RegisterProviders(container); err != nil {
		return nil, err
	}
	return container, nil
}

// RegisterProviders registers the constructors of the issue generation
// stack. The container must already provide a *config.Config.
func RegisterProviders(container *dig.Container) error {
	constructors := []any{
		git.NewGitService,
		dependency.NewRegistry,
		newAnalyzer,
		newLibrary,
		newRouterFactory,
		newPipelineBuilder,
		newSynthesisConfig,
		newIssueService,
		newPublisherFactory,
	}
	for _, c := range constructors {
		if err := container.Provide(c); err != nil {
			return err
		}
	}
	return nil
}

// Resolve builds cfg's dependency graph.
func Resolve(cfg *config.Config) (*Dependencies, error) {
	container, err := NewContainer(cfg)
	if err != nil {
		return nil, err
	}

	var deps Dependencies
	if err := container.Invoke(func(d Dependencies) {
		deps = d
	}); err != nil {
		return nil, dig.RootCause(err)
	}
	return &deps, nil
}

func newAnalyzer(cfg *config.Config, registry *dependency.Registry) ports.RepositoryAnalyzer {
	opts := []analyzer.Option{analyzer.WithRegistry(registry)}

	if cfg.Analyzer.CacheEnabled {
		c, err := cache.NewCache()
		if err != nil {
			logger.Warn(context.Background(), "analysis cache disabled", "error", err)
		} else {
			opts = append(opts, analyzer.WithCache(c))
		}
	}

	return analyzer.New(analyzer.Config{
		MaxCommits:     cfg.Analyzer.MaxCommits,
		IgnorePatterns: cfg.Analyzer.IgnorePatterns,
	}, opts...)
}

func newLibrary(cfg *config.Config) (*prompts.Library, error) {
	library := prompts.DefaultLibrary()
	if cfg.TemplatesDir == "" {
		return library, nil
	}
	if _, err := library.LoadDir(context.Background(), cfg.TemplatesDir); err != nil {
		return nil, err
	}
	return library, nil
}

func newRouterFactory(cfg *config.Config) services.RouterFactory {
	llm := cfg.LLM
	return func(ctx context.Context) (ports.Generator, error) {
		router, err := providers.NewRouter(ctx, llm)
		if err != nil {
			return nil, err
		}
		return router, nil
	}
}

func newPipelineBuilder(library *prompts.Library, routers services.RouterFactory) services.PipelineBuilder {
	return services.NewPipelineFactory(library, routers)
}

func newSynthesisConfig(cfg *config.Config) synthesizer.Config {
	return synthesizer.FromSettings(cfg.Synthesis)
}

func newIssueService(a ports.RepositoryAnalyzer, pipelines services.PipelineBuilder, synthesis synthesizer.Config) *services.IssueGeneratorService {
	return services.NewIssueGeneratorService(a, pipelines, services.WithSynthesisConfig(synthesis))
}

func newPublisherFactory(cfg *config.Config, gitService *git.GitService) PublisherFactory {
	github := cfg.GitHub
	return func(ctx context.Context, repoPath string) (ports.IssuePublisher, error) {
		return providers.NewIssuePublisher(ctx, gitService, repoPath, github)
	}
}
