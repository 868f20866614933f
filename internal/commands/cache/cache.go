package cache

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/mateissue/internal/cache"
	"github.com/thomas-vilte/mateissue/internal/config"
	"github.com/thomas-vilte/mateissue/internal/i18n"
)

// Opener returns the analysis cache the command works on.
type Opener func() (*cache.Cache, error)

type CacheCommand struct {
	open Opener
	out  io.Writer
}

func NewCacheCommand() *CacheCommand {
	return &CacheCommand{open: cache.NewCache, out: os.Stdout}
}

// NewCacheCommandWith is NewCacheCommand with an explicit cache and output.
func NewCacheCommandWith(open Opener, out io.Writer) *CacheCommand {
	return &CacheCommand{open: open, out: out}
}

func (c *CacheCommand) CreateCommand(t *i18n.Translations, _ *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: t.GetMessage("cache.usage", 0, nil),
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: t.GetMessage("cache.list_usage", 0, nil),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cacheService, err := c.open()
					if err != nil {
						return fmt.Errorf(t.GetMessage("cache.error_init", 0, nil)+": %w", err)
					}

					entries, err := cacheService.Entries()
					if err != nil {
						return err
					}
					if len(entries) == 0 {
						_, _ = fmt.Fprintln(c.out, t.GetMessage("cache.empty", 0, nil))
						return nil
					}

					sort.Slice(entries, func(i, j int) bool {
						return entries[i].Timestamp.After(entries[j].Timestamp)
					})
					for _, e := range entries {
						short := e.CommitHash
						if len(short) > 8 {
							short = short[:8]
						}
						_, _ = fmt.Fprintf(c.out, "%s  %-10s %s  %s\n",
							e.Timestamp.Format("2006-01-02 15:04"), e.Kind, short, e.Path)
					}
					return nil
				},
			},
			{
				Name:  "clean",
				Usage: t.GetMessage("cache.clean_usage", 0, nil),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cacheService, err := c.open()
					if err != nil {
						return fmt.Errorf(t.GetMessage("cache.error_init", 0, nil)+": %w", err)
					}

					if err := cacheService.Clean(); err != nil {
						return fmt.Errorf(t.GetMessage("cache.error_clean", 0, nil)+": %w", err)
					}

					green := color.New(color.FgGreen, color.Bold)
					_, _ = green.Fprintf(c.out, "✓ %s\n", t.GetMessage("cache.cleaned", 0, nil))
					return nil
				},
			},
		},
	}
}
