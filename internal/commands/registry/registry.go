package registry

import (
	"errors"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/mateissue/internal/config"
	"github.com/thomas-vilte/mateissue/internal/i18n"
)

type CommandFactory interface {
	CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command
}

// Registry keeps command factories in registration order, which is the
// order commands show up in help output.
type Registry struct {
	names     []string
	factories map[string]CommandFactory
	config    *config.Config
	t         *i18n.Translations
}

func NewRegistry(cfg *config.Config, t *i18n.Translations) *Registry {
	return &Registry{
		factories: make(map[string]CommandFactory),
		config:    cfg,
		t:         t,
	}
}

func (r *Registry) Register(name string, factory CommandFactory) error {
	if _, exists := r.factories[name]; exists {
		return errors.New(r.t.GetMessage("factory_already_registered", 0, map[string]interface{}{
			"FactoryName": name,
		}))
	}
	r.names = append(r.names, name)
	r.factories[name] = factory
	return nil
}

func (r *Registry) CreateCommands() []*cli.Command {
	commands := make([]*cli.Command, 0, len(r.names))
	for _, name := range r.names {
		commands = append(commands, r.factories[name].CreateCommand(r.t, r.config))
	}
	return commands
}
