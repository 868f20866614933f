package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/mateissue/internal/config"
	"github.com/thomas-vilte/mateissue/internal/i18n"
	"github.com/thomas-vilte/mateissue/internal/ui"
)

func (c *ConfigCommandFactory) newShowCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: t.GetMessage("config.show_usage", 0, nil),
		Action: func(ctx context.Context, command *cli.Command) error {
			ui.PrintSectionBanner(c.out, t.GetMessage("config.show_title", 0, nil))
			ui.PrintKeyValue(c.out, "path", cfg.PathFile)
			ui.PrintKeyValue(c.out, "language", cfg.Language)
			if cfg.TemplatesDir != "" {
				ui.PrintKeyValue(c.out, "templates_dir", cfg.TemplatesDir)
			}

			ui.PrintKeyValue(c.out, "analyzer.max_commits", strconv.Itoa(cfg.Analyzer.MaxCommits))
			ui.PrintKeyValue(c.out, "analyzer.cache_enabled", strconv.FormatBool(cfg.Analyzer.CacheEnabled))
			ui.PrintKeyValue(c.out, "analyzer.ignore_patterns", strings.Join(cfg.Analyzer.IgnorePatterns, ", "))

			for i, b := range cfg.Backends() {
				role := "primary"
				if i > 0 {
					role = fmt.Sprintf("fallback %d", i)
				}
				ui.PrintKeyValue(c.out, "llm."+role, describeBackend(b))
			}
			ui.PrintKeyValue(c.out, "llm.max_retries", strconv.Itoa(cfg.LLM.MaxRetries))
			ui.PrintKeyValue(c.out, "llm.timeout_seconds", strconv.Itoa(cfg.LLM.TimeoutSeconds))

			ui.PrintKeyValue(c.out, "synthesis.max_issues", strconv.Itoa(cfg.Synthesis.MaxIssues))
			ui.PrintKeyValue(c.out, "synthesis.min_description_length", strconv.Itoa(cfg.Synthesis.MinDescriptionLength))
			ui.PrintKeyValue(c.out, "synthesis.required_labels", strings.Join(cfg.Synthesis.RequiredLabels, ", "))

			ui.PrintKeyValue(c.out, "github.token", mask(cfg.GitHub.Token))
			if cfg.GitHub.Owner != "" {
				ui.PrintKeyValue(c.out, "github.repository", cfg.GitHub.Owner+"/"+cfg.GitHub.Repo)
			}
			return nil
		},
	}
}

func describeBackend(b config.BackendConfig) string {
	parts := []string{b.Provider, b.ModelName()}
	switch config.AI(b.Provider) {
	case config.AIGemini, config.AIOpenAI:
		parts = append(parts, "api_key="+mask(b.APIKey))
	case config.AIOllama:
		parts = append(parts, b.Endpoint("localhost", 11434))
	case config.AIHuggingFace:
		parts = append(parts, b.ModelPath)
	}
	return strings.Join(parts, " ")
}

// mask hides secrets, keeping the last four characters of long values.
func mask(secret string) string {
	switch {
	case secret == "" || strings.HasPrefix(secret, "${"):
		return "(not set)"
	case len(secret) <= 8:
		return "****"
	default:
		return "****" + secret[len(secret)-4:]
	}
}
