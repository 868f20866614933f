package templates

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/mateissue/internal/config"
	"github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/i18n"
	"github.com/thomas-vilte/mateissue/internal/prompts"
)

func init() {
	color.NoColor = true
}

func setup(t *testing.T, library *prompts.Library) (*bytes.Buffer, *cli.Command) {
	t.Helper()
	translations, err := i18n.NewTranslations("en")
	require.NoError(t, err)

	out := new(bytes.Buffer)
	factory := NewTemplatesCommandFactory(func(*config.Config) (*prompts.Library, error) {
		return library, nil
	}).WithOutput(out)
	cmd := factory.CreateCommand(translations, config.DefaultConfig())
	return out, &cli.Command{Commands: []*cli.Command{cmd}}
}

func TestTemplatesCommand(t *testing.T) {
	t.Run("list shows every built-in template", func(t *testing.T) {
		out, app := setup(t, prompts.DefaultLibrary())

		require.NoError(t, app.Run(context.Background(), []string{"mateissue", "templates", "list"}))

		for _, name := range []string{prompts.RepositorySummary, prompts.IssueCandidates, prompts.IssueDrafts} {
			assert.Contains(t, out.String(), name)
		}
		assert.Contains(t, out.String(), "repo_name")
	})

	t.Run("show prints the base text", func(t *testing.T) {
		out, app := setup(t, prompts.DefaultLibrary())

		require.NoError(t, app.Run(context.Background(), []string{"mateissue", "templates", "show", prompts.RepositorySummary}))

		tmpl, err := prompts.DefaultLibrary().Get(prompts.RepositorySummary)
		require.NoError(t, err)
		assert.Equal(t, tmpl.Base()+"\n", out.String())
	})

	t.Run("show picks the provider variant", func(t *testing.T) {
		out, app := setup(t, prompts.DefaultLibrary())

		require.NoError(t, app.Run(context.Background(),
			[]string{"mateissue", "templates", "show", "--provider", "ollama", prompts.RepositorySummary}))

		tmpl, err := prompts.DefaultLibrary().Get(prompts.RepositorySummary)
		require.NoError(t, err)
		assert.Equal(t, tmpl.Variant("ollama")+"\n", out.String())
	})

	t.Run("show reports unknown templates", func(t *testing.T) {
		_, app := setup(t, prompts.DefaultLibrary())

		err := app.Run(context.Background(), []string{"mateissue", "templates", "show", "nope"})

		assert.ErrorIs(t, err, errors.ErrTemplateNotFound)
	})

	t.Run("show requires a name", func(t *testing.T) {
		_, app := setup(t, prompts.DefaultLibrary())

		assert.Error(t, app.Run(context.Background(), []string{"mateissue", "templates", "show"}))
	})

	t.Run("user templates appear in the list", func(t *testing.T) {
		dir := t.TempDir()
		yaml := "name: release_notes\ntype: summary\ntemplate: \"Notes for {repo_name}\"\nvariables: [repo_name]\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.yaml"), []byte(yaml), 0644))
		library := prompts.DefaultLibrary()
		n, err := library.LoadDir(context.Background(), dir)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		out, app := setup(t, library)
		require.NoError(t, app.Run(context.Background(), []string{"mateissue", "templates", "list"}))

		assert.Contains(t, out.String(), "release_notes")
	})
}
