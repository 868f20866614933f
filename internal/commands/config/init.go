package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/mateissue/internal/commands/completion_helper"
	"github.com/thomas-vilte/mateissue/internal/config"
	"github.com/thomas-vilte/mateissue/internal/i18n"
	"github.com/thomas-vilte/mateissue/internal/ui"
)

func (c *ConfigCommandFactory) newInitCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: t.GetMessage("config.init_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "quick",
				Aliases: []string{"q"},
				Usage:   t.GetMessage("config.init_quick_flag", 0, nil),
			},
		},
		ShellComplete: completion_helper.DefaultFlagComplete,
		Action: func(ctx context.Context, command *cli.Command) error {
			fresh := config.DefaultConfig()
			fresh.PathFile = cfg.PathFile

			if !command.Bool("quick") {
				if err := c.runWizard(t, fresh); err != nil {
					return err
				}
			}

			if err := config.SaveConfig(fresh); err != nil {
				return err
			}
			*cfg = *fresh

			ui.PrintSuccess(c.out, t.GetMessage("config.init_saved", 0, map[string]interface{}{"Path": fresh.PathFile}))
			return nil
		},
	}
}

func (c *ConfigCommandFactory) runWizard(t *i18n.Translations, cfg *config.Config) error {
	ui.PrintSectionBanner(c.out, t.GetMessage("config.init_welcome", 0, nil))

	lang, err := c.ask(t.GetMessage("config.prompt_language", 0, nil), cfg.Language)
	if err != nil {
		return err
	}
	cfg.Language = config.GetLocaleConfig(lang)

	providers := make([]string, 0, len(config.SupportedAIs()))
	for _, ai := range config.SupportedAIs() {
		providers = append(providers, string(ai))
	}
	provider, err := c.ask(t.GetMessage("config.prompt_provider", 0,
		map[string]interface{}{"Providers": strings.Join(providers, ", ")}), cfg.LLM.Primary.Provider)
	if err != nil {
		return err
	}
	if !config.IsSupported(provider) {
		return fmt.Errorf("unknown provider: %s", provider)
	}

	primary := config.BackendConfig{Provider: provider}
	primary.Model, err = c.ask(t.GetMessage("config.prompt_model", 0, nil), string(config.DefaultModelForAI(config.AI(provider))))
	if err != nil {
		return err
	}

	switch config.AI(provider) {
	case config.AIGemini, config.AIOpenAI:
		envVar := "${" + strings.ToUpper(provider) + "_API_KEY}"
		primary.APIKey, err = c.ask(t.GetMessage("config.prompt_api_key", 0, map[string]interface{}{"Provider": provider}), envVar)
	case config.AIOllama:
		primary.Host, err = c.ask(t.GetMessage("config.prompt_host", 0, nil), "localhost")
	case config.AIHuggingFace:
		primary.ModelPath, err = c.ask(t.GetMessage("config.prompt_model_path", 0, nil), "")
	}
	if err != nil {
		return err
	}
	cfg.LLM.Primary = primary

	if config.AI(provider) == config.AIOllama {
		cfg.LLM.Fallbacks = nil
	}

	token, err := c.ask(t.GetMessage("config.prompt_github_token", 0, nil), cfg.GitHub.Token)
	if err != nil {
		return err
	}
	cfg.GitHub.Token = token

	maxIssues, err := c.ask(t.GetMessage("config.prompt_max_issues", 0, nil), strconv.Itoa(cfg.Synthesis.MaxIssues))
	if err != nil {
		return err
	}
	if cfg.Synthesis.MaxIssues, err = strconv.Atoi(maxIssues); err != nil {
		return fmt.Errorf("invalid number of issues %q: %w", maxIssues, err)
	}
	return nil
}

// ask prints question with its default and returns the trimmed answer, or
// the default when the answer is empty.
func (c *ConfigCommandFactory) ask(question, def string) (string, error) {
	if def != "" {
		_, _ = fmt.Fprintf(c.out, "%s [%s]: ", question, def)
	} else {
		_, _ = fmt.Fprintf(c.out, "%s: ", question)
	}

	answer, err := c.in.ReadString('\n')
	if err != nil && answer == "" {
		if def != "" {
			return def, nil
		}
		return "", fmt.Errorf("error reading answer: %w", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def, nil
	}
	return answer, nil
}
