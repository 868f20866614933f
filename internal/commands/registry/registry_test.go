package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/mateissue/internal/config"
	"github.com/thomas-vilte/mateissue/internal/i18n"
)

type namedFactory string

func (n namedFactory) CreateCommand(_ *i18n.Translations, _ *config.Config) *cli.Command {
	return &cli.Command{Name: string(n)}
}

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	translations, err := i18n.NewTranslations("en")
	require.NoError(t, err)
	return NewRegistry(config.DefaultConfig(), translations)
}

func TestRegistry_Register(t *testing.T) {
	t.Run("should register new factory successfully", func(t *testing.T) {
		registry := newRegistry(t)

		err := registry.Register("generate", namedFactory("generate"))

		assert.NoError(t, err)
		assert.Len(t, registry.factories, 1)
		assert.Contains(t, registry.factories, "generate")
	})

	t.Run("should return error when registering duplicate factory", func(t *testing.T) {
		registry := newRegistry(t)

		_ = registry.Register("generate", namedFactory("generate"))
		err := registry.Register("generate", namedFactory("generate"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "generate")
		assert.Len(t, registry.factories, 1)
	})
}

func TestRegistry_CreateCommands(t *testing.T) {
	registry := newRegistry(t)
	for _, name := range []string{"generate", "analyze", "templates", "config"} {
		require.NoError(t, registry.Register(name, namedFactory(name)))
	}

	commands := registry.CreateCommands()

	require.Len(t, commands, 4)
	var got []string
	for _, c := range commands {
		got = append(got, c.Name)
	}
	assert.Equal(t, []string{"generate", "analyze", "templates", "config"}, got)
}
