package completion

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/mateissue/internal/config"
	"github.com/thomas-vilte/mateissue/internal/i18n"
)

func newTestCommand(t *testing.T) (*CompletionCommand, *bytes.Buffer, string, *i18n.Translations) {
	t.Helper()
	home := t.TempDir()
	out := new(bytes.Buffer)
	translations, err := i18n.NewTranslations("en")
	require.NoError(t, err)
	return &CompletionCommand{out: out, home: func() (string, error) { return home, nil }}, out, home, translations
}

func TestCompletionScripts(t *testing.T) {
	c, out, _, translations := newTestCommand(t)
	app := &cli.Command{Commands: []*cli.Command{c.CreateCommand(translations, config.DefaultConfig())}}

	require.NoError(t, app.Run(context.Background(), []string{"mateissue", "completion", "bash"}))
	assert.Contains(t, out.String(), "complete -o bashdefault")

	out.Reset()
	require.NoError(t, app.Run(context.Background(), []string{"mateissue", "completion", "zsh"}))
	assert.Contains(t, out.String(), "#compdef mateissue")
}

func TestInstall(t *testing.T) {
	t.Run("appends once", func(t *testing.T) {
		c, _, home, translations := newTestCommand(t)

		require.NoError(t, c.install(translations, "/bin/zsh"))
		require.NoError(t, c.install(translations, "/bin/zsh"))

		data, err := os.ReadFile(filepath.Join(home, ".zshrc"))
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(string(data), installMarker))
		assert.Contains(t, string(data), "mateissue completion zsh")
	})

	t.Run("unsupported shell", func(t *testing.T) {
		c, _, _, translations := newTestCommand(t)
		assert.Error(t, c.install(translations, "/usr/bin/fish"))
	})
}
