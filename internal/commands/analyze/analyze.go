package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/mateissue/internal/commands/completion_helper"
	"github.com/thomas-vilte/mateissue/internal/config"
	"github.com/thomas-vilte/mateissue/internal/i18n"
	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/ports"
	"github.com/thomas-vilte/mateissue/internal/ui"
)

const maxListedContributors = 5

// AnalyzerProvider builds an analyzer for the effective configuration.
type AnalyzerProvider func(cfg *config.Config) (ports.RepositoryAnalyzer, error)

type AnalyzeCommandFactory struct {
	provider AnalyzerProvider
	out      io.Writer
}

func NewAnalyzeCommandFactory(provider AnalyzerProvider) *AnalyzeCommandFactory {
	return &AnalyzeCommandFactory{provider: provider, out: os.Stdout}
}

// WithOutput redirects command output, mostly for tests.
func (f *AnalyzeCommandFactory) WithOutput(w io.Writer) *AnalyzeCommandFactory {
	f.out = w
	return f
}

func (f *AnalyzeCommandFactory) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:          "analyze",
		Aliases:       []string{"a"},
		Usage:         t.GetMessage("analyze.usage", 0, nil),
		ShellComplete: completion_helper.DefaultFlagComplete,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "repo",
				Aliases: []string{"r"},
				Value:   ".",
				Usage:   t.GetMessage("analyze.flag_repo", 0, nil),
			},
			&cli.IntFlag{
				Name:  "max-commits",
				Usage: t.GetMessage("generate.flag_max_commits", 0, nil),
			},
			&cli.StringSliceFlag{
				Name:  "ignore",
				Usage: t.GetMessage("generate.flag_ignore", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: t.GetMessage("generate.flag_no_cache", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "tree",
				Usage: t.GetMessage("analyze.flag_tree", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: t.GetMessage("generate.flag_json", 0, nil),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			overrides := config.Overrides{
				IgnorePatterns: command.StringSlice("ignore"),
				DisableCache:   command.Bool("no-cache"),
			}
			if command.IsSet("max-commits") {
				n := int(command.Int("max-commits"))
				overrides.MaxCommits = &n
			}
			effective := config.WithOverrides(cfg, overrides)
			if err := effective.Validate(); err != nil {
				return err
			}

			analyzer, err := f.provider(effective)
			if err != nil {
				return err
			}

			analysis, err := analyzer.Analyze(ctx, command.String("repo"))
			if err != nil {
				return err
			}

			if command.Bool("json") {
				data, err := json.MarshalIndent(analysis, "", "  ")
				if err != nil {
					return fmt.Errorf("error encoding analysis: %w", err)
				}
				_, err = fmt.Fprintln(f.out, string(data))
				return err
			}

			f.printSummary(t, analysis, command.Bool("tree"))
			return nil
		},
	}
}

func (f *AnalyzeCommandFactory) printSummary(t *i18n.Translations, a *models.RepositoryAnalysis, tree bool) {
	ui.PrintSectionBanner(f.out, a.RepoName)
	if a.Degraded {
		ui.PrintWarning(f.out, t.GetMessage("generate.degraded", 0, map[string]interface{}{"Reason": a.DegradedReason}))
	}

	ui.PrintKeyValue(f.out, t.GetMessage("analyze.head", 0, nil), a.HeadCommit)
	ui.PrintKeyValue(f.out, t.GetMessage("analyze.commits", 0, nil), strconv.Itoa(len(a.Commits)))
	ui.PrintKeyValue(f.out, t.GetMessage("analyze.files", 0, nil), fmt.Sprintf("+%d ~%d -%d →%d",
		len(a.FileChanges.New), len(a.FileChanges.Modified), len(a.FileChanges.Deleted), len(a.FileChanges.Renamed)))

	for i, c := range a.Contributors {
		if i == maxListedContributors {
			break
		}
		ui.PrintKeyValue(f.out, c.Name, t.GetMessage("analyze.contributor_commits", c.Commits,
			map[string]interface{}{"Count": c.Commits}))
	}
	for _, m := range a.Manifests {
		ui.PrintKeyValue(f.out, m.Ecosystem, t.GetMessage("analyze.manifest_deps", len(m.Dependencies),
			map[string]interface{}{"Path": m.Path, "Count": len(m.Dependencies)}))
	}

	if tree && a.FileChanges.Total() > 0 {
		ui.PrintFileTree(f.out, ui.FileChanges(a.FileChanges), t.GetMessage("analyze.tree_header", 0, nil))
	}
}
