package templates

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/mateissue/internal/config"
	"github.com/thomas-vilte/mateissue/internal/i18n"
	"github.com/thomas-vilte/mateissue/internal/prompts"
	"github.com/thomas-vilte/mateissue/internal/ui"
)

// LibraryProvider returns the template library with user overrides loaded.
type LibraryProvider func(cfg *config.Config) (*prompts.Library, error)

type TemplatesCommandFactory struct {
	provider LibraryProvider
	out      io.Writer
}

func NewTemplatesCommandFactory(provider LibraryProvider) *TemplatesCommandFactory {
	return &TemplatesCommandFactory{provider: provider, out: os.Stdout}
}

func (f *TemplatesCommandFactory) WithOutput(w io.Writer) *TemplatesCommandFactory {
	f.out = w
	return f
}

func (f *TemplatesCommandFactory) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "templates",
		Usage: t.GetMessage("templates.usage", 0, nil),
		Commands: []*cli.Command{
			f.newListCommand(t, cfg),
			f.newShowCommand(t, cfg),
		},
	}
}

func (f *TemplatesCommandFactory) newListCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: t.GetMessage("templates.list_usage", 0, nil),
		Action: func(ctx context.Context, command *cli.Command) error {
			library, err := f.provider(cfg)
			if err != nil {
				return err
			}

			bold := color.New(color.Bold)
			for _, name := range library.Names() {
				tmpl, err := library.Get(name)
				if err != nil {
					return err
				}
				_, _ = bold.Fprintf(f.out, "%s", name)
				_, _ = fmt.Fprintf(f.out, " (%s)\n", tmpl.Type())
				ui.PrintKeyValue(f.out, t.GetMessage("templates.variables", 0, nil), strings.Join(tmpl.Variables(), ", "))
				if providers := tmpl.Providers(); len(providers) > 0 {
					ui.PrintKeyValue(f.out, t.GetMessage("templates.providers", 0, nil), strings.Join(providers, ", "))
				}
			}
			return nil
		},
	}
}

func (f *TemplatesCommandFactory) newShowCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     t.GetMessage("templates.show_usage", 0, nil),
		ArgsUsage: "NAME",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   t.GetMessage("templates.flag_provider", 0, nil),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			name := command.Args().First()
			if name == "" {
				return fmt.Errorf("%s", t.GetMessage("templates.name_required", 0, nil))
			}

			library, err := f.provider(cfg)
			if err != nil {
				return err
			}
			tmpl, err := library.Get(name)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(f.out, tmpl.Variant(command.String("provider")))
			return err
		},
	}
}
