package config

import (
	"bufio"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/mateissue/internal/config"
	"github.com/thomas-vilte/mateissue/internal/i18n"
)

type ConfigCommandFactory struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConfigCommandFactory() *ConfigCommandFactory {
	return NewConfigCommandFactoryWithIO(os.Stdin, os.Stdout)
}

func NewConfigCommandFactoryWithIO(in io.Reader, out io.Writer) *ConfigCommandFactory {
	return &ConfigCommandFactory{in: bufio.NewReader(in), out: out}
}

func (c *ConfigCommandFactory) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: t.GetMessage("config.usage", 0, nil),
		Commands: []*cli.Command{
			c.newInitCommand(t, cfg),
			c.newShowCommand(t, cfg),
			c.newSetCommand(t, cfg),
			c.newEditCommand(t, cfg),
		},
	}
}
