package config

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/mateissue/internal/config"
	"github.com/thomas-vilte/mateissue/internal/i18n"
)

func init() {
	color.NoColor = true
}

func setupConfigTest(t *testing.T, stdin string) (*config.Config, *bytes.Buffer, *cli.Command) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.PathFile = filepath.Join(t.TempDir(), "config.json")

	translations, err := i18n.NewTranslations("en")
	require.NoError(t, err)

	out := new(bytes.Buffer)
	cmd := NewConfigCommandFactoryWithIO(strings.NewReader(stdin), out).CreateCommand(translations, cfg)
	return cfg, out, &cli.Command{Commands: []*cli.Command{cmd}}
}

func TestInitCommand(t *testing.T) {
	t.Run("quick writes defaults", func(t *testing.T) {
		cfg, _, app := setupConfigTest(t, "")

		require.NoError(t, app.Run(context.Background(), []string{"mateissue", "config", "init", "--quick"}))

		loaded, err := config.LoadConfig(cfg.PathFile)
		require.NoError(t, err)
		assert.Equal(t, config.DefaultConfig().Synthesis.MaxIssues, loaded.Synthesis.MaxIssues)
	})

	t.Run("wizard answers are saved", func(t *testing.T) {
		answers := strings.Join([]string{"es", "ollama", "", "myhost", "ghp_token", "3"}, "\n") + "\n"
		cfg, _, app := setupConfigTest(t, answers)

		require.NoError(t, app.Run(context.Background(), []string{"mateissue", "config", "init"}))

		loaded, err := config.LoadConfig(cfg.PathFile)
		require.NoError(t, err)
		assert.Equal(t, config.LangES, loaded.Language)
		assert.Equal(t, "ollama", loaded.LLM.Primary.Provider)
		assert.Equal(t, string(config.ModelLlama32), loaded.LLM.Primary.Model)
		assert.Equal(t, "myhost", loaded.LLM.Primary.Host)
		assert.Empty(t, loaded.LLM.Fallbacks)
		assert.Equal(t, "ghp_token", loaded.GitHub.Token)
		assert.Equal(t, 3, loaded.Synthesis.MaxIssues)
	})

	t.Run("unknown provider is rejected", func(t *testing.T) {
		_, _, app := setupConfigTest(t, "en\nclaude\n")

		assert.Error(t, app.Run(context.Background(), []string{"mateissue", "config", "init"}))
	})
}

func TestSetCommand(t *testing.T) {
	t.Run("updates and persists a value", func(t *testing.T) {
		cfg, out, app := setupConfigTest(t, "")

		require.NoError(t, app.Run(context.Background(), []string{"mateissue", "config", "set", "synthesis.max_issues", "2"}))

		assert.Equal(t, 2, cfg.Synthesis.MaxIssues)
		assert.Contains(t, out.String(), "synthesis.max_issues")
		loaded, err := config.LoadConfig(cfg.PathFile)
		require.NoError(t, err)
		assert.Equal(t, 2, loaded.Synthesis.MaxIssues)
	})

	t.Run("provider change resets the model", func(t *testing.T) {
		cfg, _, app := setupConfigTest(t, "")

		require.NoError(t, app.Run(context.Background(), []string{"mateissue", "config", "set", "llm.provider", "openai"}))

		assert.Equal(t, string(config.ModelGPTV4oMini), cfg.LLM.Primary.Model)
	})

	t.Run("labels are split on commas", func(t *testing.T) {
		cfg, _, app := setupConfigTest(t, "")

		require.NoError(t, app.Run(context.Background(), []string{"mateissue", "config", "set", "synthesis.labels", "bot, triage"}))

		assert.Equal(t, []string{"bot", "triage"}, cfg.Synthesis.RequiredLabels)
	})

	t.Run("invalid values leave the config untouched", func(t *testing.T) {
		cfg, _, app := setupConfigTest(t, "")

		assert.Error(t, app.Run(context.Background(), []string{"mateissue", "config", "set", "synthesis.max_issues", "0"}))
		assert.Error(t, app.Run(context.Background(), []string{"mateissue", "config", "set", "analyzer.max_commits", "many"}))
		assert.Error(t, app.Run(context.Background(), []string{"mateissue", "config", "set", "nope", "1"}))
		assert.Error(t, app.Run(context.Background(), []string{"mateissue", "config", "set", "language"}))

		assert.Equal(t, config.DefaultConfig().Synthesis.MaxIssues, cfg.Synthesis.MaxIssues)
	})
}

func TestShowCommand(t *testing.T) {
	cfg, out, app := setupConfigTest(t, "")
	cfg.GitHub.Token = "ghp_abcdefghijkl"
	cfg.LLM.Primary.APIKey = "${GEMINI_API_KEY}"

	require.NoError(t, app.Run(context.Background(), []string{"mateissue", "config", "show"}))

	assert.Contains(t, out.String(), "****ijkl")
	assert.NotContains(t, out.String(), "ghp_abcdefghijkl")
	assert.Contains(t, out.String(), "(not set)")
	assert.Contains(t, out.String(), "fallback 1")
}

func TestMask(t *testing.T) {
	assert.Equal(t, "(not set)", mask(""))
	assert.Equal(t, "(not set)", mask("${TOKEN}"))
	assert.Equal(t, "****", mask("short"))
	assert.Equal(t, "****6789", mask("0123456789"))
}
