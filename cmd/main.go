package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/dig"

	"github.com/thomas-vilte/mateissue/internal/commands/analyze"
	"github.com/thomas-vilte/mateissue/internal/commands/cache"
	"github.com/thomas-vilte/mateissue/internal/commands/completion"
	configcmd "github.com/thomas-vilte/mateissue/internal/commands/config"
	"github.com/thomas-vilte/mateissue/internal/commands/generate"
	"github.com/thomas-vilte/mateissue/internal/commands/registry"
	"github.com/thomas-vilte/mateissue/internal/commands/templates"
	"github.com/thomas-vilte/mateissue/internal/config"
	"github.com/thomas-vilte/mateissue/internal/di"
	"github.com/thomas-vilte/mateissue/internal/i18n"
	"github.com/thomas-vilte/mateissue/internal/logger"
	"github.com/thomas-vilte/mateissue/internal/ports"
	"github.com/thomas-vilte/mateissue/internal/prompts"
	"github.com/thomas-vilte/mateissue/internal/ui"
	"github.com/thomas-vilte/mateissue/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var app *cli.Command
	var translations *i18n.Translations
	container, err := newContainer()
	if err == nil {
		err = container.Invoke(func(a *cli.Command, t *i18n.Translations) {
			app, translations = a, t
		})
	}
	if err != nil {
		ui.HandleAppError(os.Stderr, dig.RootCause(err))
		os.Exit(1)
	}

	if err := app.Run(ctx, os.Args); err != nil {
		ui.HandleAppError(os.Stderr, err, translations)
		os.Exit(1)
	}
}

func newContainer() (*dig.Container, error) {
	container := dig.New()
	constructors := []any{
		loadConfig,
		newTranslations,
		newRegistry,
		newApp,
	}
	for _, c := range constructors {
		if err := container.Provide(c); err != nil {
			return nil, err
		}
	}
	return container, nil
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("MATEISSUE_CONFIG"); path != "" {
		return config.LoadConfig(path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("could not resolve the home directory: %w", err)
	}
	return config.LoadConfig(home)
}

func newTranslations(cfg *config.Config) (*i18n.Translations, error) {
	return i18n.NewTranslations(config.GetLocaleConfig(cfg.Language))
}

func newRegistry(cfg *config.Config, t *i18n.Translations) (*registry.Registry, error) {
	r := registry.NewRegistry(cfg, t)

	factories := []struct {
		name    string
		factory registry.CommandFactory
	}{
		{"generate", generate.NewGenerateCommandFactory(resolveGenerate)},
		{"analyze", analyze.NewAnalyzeCommandFactory(resolveAnalyzer)},
		{"templates", templates.NewTemplatesCommandFactory(resolveLibrary)},
		{"config", configcmd.NewConfigCommandFactory()},
		{"cache", cache.NewCacheCommand()},
		{"completion", completion.NewCompletionCommand()},
	}
	for _, f := range factories {
		if err := r.Register(f.name, f.factory); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func newApp(r *registry.Registry, t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:                  "mateissue",
		Usage:                 t.GetMessage("app_usage", 0, nil),
		Version:               version.FullVersion(),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: t.GetMessage("flag_debug", 0, nil),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   t.GetMessage("flag_verbose", 0, nil),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			log := logger.Initialize(cmd.Bool("debug"), cmd.Bool("verbose"))
			return logger.WithLogger(ctx, log), nil
		},
		Commands: r.CreateCommands(),
	}
}

func resolveGenerate(cfg *config.Config) (*generate.Dependencies, error) {
	deps, err := di.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	return &generate.Dependencies{Service: deps.Service, Publisher: deps.Publisher}, nil
}

func resolveAnalyzer(cfg *config.Config) (ports.RepositoryAnalyzer, error) {
	deps, err := di.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	return deps.Analyzer, nil
}

func resolveLibrary(cfg *config.Config) (*prompts.Library, error) {
	deps, err := di.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	return deps.Library, nil
}
