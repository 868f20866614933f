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

// settableKeys lists the keys accepted by "config set".
var settableKeys = []string{
	"language",
	"templates_dir",
	"analyzer.max_commits",
	"analyzer.cache_enabled",
	"llm.provider",
	"llm.model",
	"llm.api_key",
	"llm.host",
	"llm.port",
	"llm.model_path",
	"llm.max_retries",
	"llm.timeout_seconds",
	"synthesis.max_issues",
	"synthesis.min_description_length",
	"synthesis.labels",
	"github.token",
	"github.owner",
	"github.repo",
}

func (c *ConfigCommandFactory) newSetCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     t.GetMessage("config.set_usage", 0, nil),
		ArgsUsage: "KEY VALUE",
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.Args().Len() < 2 {
				return fmt.Errorf("%s", t.GetMessage("config.set_error_args", 0,
					map[string]interface{}{"Keys": strings.Join(settableKeys, ", ")}))
			}

			key := strings.ToLower(command.Args().Get(0))
			value := command.Args().Get(1)

			updated := *cfg
			if err := apply(&updated, key, value); err != nil {
				return err
			}
			if err := config.SaveConfig(&updated); err != nil {
				return err
			}
			*cfg = updated

			ui.PrintSuccess(c.out, t.GetMessage("config.set_success", 0, map[string]interface{}{
				"Key":   key,
				"Value": value,
			}))
			return nil
		},
	}
}

func apply(cfg *config.Config, key, value string) error {
	var err error
	switch key {
	case "language", "lang":
		cfg.Language = value
	case "templates_dir":
		cfg.TemplatesDir = value
	case "analyzer.max_commits":
		cfg.Analyzer.MaxCommits, err = strconv.Atoi(value)
	case "analyzer.cache_enabled":
		cfg.Analyzer.CacheEnabled, err = strconv.ParseBool(value)
	case "llm.provider":
		cfg.LLM.Primary.Provider = value
		cfg.LLM.Primary.Model = string(config.DefaultModelForAI(config.AI(value)))
	case "llm.model":
		cfg.LLM.Primary.Model = value
	case "llm.api_key":
		cfg.LLM.Primary.APIKey = value
	case "llm.host":
		cfg.LLM.Primary.Host = value
	case "llm.port":
		cfg.LLM.Primary.Port, err = strconv.Atoi(value)
	case "llm.model_path":
		cfg.LLM.Primary.ModelPath = value
	case "llm.max_retries":
		cfg.LLM.MaxRetries, err = strconv.Atoi(value)
	case "llm.timeout_seconds":
		cfg.LLM.TimeoutSeconds, err = strconv.Atoi(value)
	case "synthesis.max_issues":
		cfg.Synthesis.MaxIssues, err = strconv.Atoi(value)
	case "synthesis.min_description_length":
		cfg.Synthesis.MinDescriptionLength, err = strconv.Atoi(value)
	case "synthesis.labels":
		cfg.Synthesis.RequiredLabels = splitCSV(value)
	case "github.token":
		cfg.GitHub.Token = value
	case "github.owner":
		cfg.GitHub.Owner = value
	case "github.repo":
		cfg.GitHub.Repo = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	if err != nil {
		return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
	return nil
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
