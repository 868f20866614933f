package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/mateissue/internal/commands/completion_helper"
	"github.com/thomas-vilte/mateissue/internal/config"
	"github.com/thomas-vilte/mateissue/internal/i18n"
	"github.com/thomas-vilte/mateissue/internal/logger"
	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/ports"
	"github.com/thomas-vilte/mateissue/internal/services"
	"github.com/thomas-vilte/mateissue/internal/ui"
)

// IssueService is the part of services.IssueGeneratorService the command uses.
type IssueService interface {
	Generate(ctx context.Context, repoPath string) (*models.GenerationReport, error)
	GenerateBatch(ctx context.Context, paths []string, concurrency int) []services.BatchResult
	Publish(ctx context.Context, publisher ports.IssuePublisher, drafts []models.IssueDraft, dryRun bool) []models.PublishResult
}

type Dependencies struct {
	Service   IssueService
	Publisher func(ctx context.Context, repoPath string) (ports.IssuePublisher, error)
}

// DependencyProvider builds the dependencies for the effective configuration
// of one invocation (file settings overridden by flags).
type DependencyProvider func(cfg *config.Config) (*Dependencies, error)

type GenerateCommandFactory struct {
	provider DependencyProvider
	in       io.Reader
	out      io.Writer
}

type Option func(*GenerateCommandFactory)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(f *GenerateCommandFactory) {
		f.in = in
		f.out = out
	}
}

func NewGenerateCommandFactory(provider DependencyProvider, opts ...Option) *GenerateCommandFactory {
	f := &GenerateCommandFactory{
		provider: provider,
		in:       os.Stdin,
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *GenerateCommandFactory) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:          "generate",
		Aliases:       []string{"g"},
		Usage:         t.GetMessage("generate.usage", 0, nil),
		Flags:         f.createFlags(t),
		ShellComplete: completion_helper.DefaultFlagComplete,
		Action:        f.createAction(t, cfg),
	}
}

func (f *GenerateCommandFactory) createFlags(t *i18n.Translations) []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "repo",
			Aliases: []string{"r"},
			Usage:   t.GetMessage("generate.flag_repo", 0, nil),
		},
		&cli.IntFlag{
			Name:  "max-issues",
			Usage: t.GetMessage("generate.flag_max_issues", 0, nil),
		},
		&cli.IntFlag{
			Name:  "min-description",
			Usage: t.GetMessage("generate.flag_min_description", 0, nil),
		},
		&cli.StringSliceFlag{
			Name:    "label",
			Aliases: []string{"l"},
			Usage:   t.GetMessage("generate.flag_label", 0, nil),
		},
		&cli.StringSliceFlag{
			Name:    "assignee",
			Aliases: []string{"a"},
			Usage:   t.GetMessage("generate.flag_assignee", 0, nil),
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
			Name:    "publish",
			Aliases: []string{"p"},
			Usage:   t.GetMessage("generate.flag_publish", 0, nil),
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: t.GetMessage("generate.flag_dry_run", 0, nil),
		},
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   t.GetMessage("generate.flag_yes", 0, nil),
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: t.GetMessage("generate.flag_json", 0, nil),
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Value: services.DefaultConcurrency,
			Usage: t.GetMessage("generate.flag_concurrency", 0, nil),
		},
	}
}

func (f *GenerateCommandFactory) createAction(t *i18n.Translations, cfg *config.Config) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		effective := config.WithOverrides(cfg, overridesFrom(command))
		if err := effective.Validate(); err != nil {
			return err
		}

		paths := command.StringSlice("repo")
		if len(paths) == 0 {
			paths = []string{"."}
		}
		asJSON := command.Bool("json")

		logger.Debug(ctx, "generate invoked",
			"repos", len(paths),
			"publish", command.Bool("publish"),
			"json", asJSON)

		deps, err := f.provider(effective)
		if err != nil {
			return err
		}

		results := f.run(ctx, t, deps.Service, paths, int(command.Int("concurrency")), asJSON)

		if asJSON {
			if err := f.writeJSON(results); err != nil {
				return err
			}
		} else {
			for _, r := range results {
				f.printResult(t, r)
			}
		}

		if command.Bool("publish") {
			f.publish(ctx, t, deps, results, command.Bool("dry-run"), command.Bool("yes") || asJSON, asJSON)
		}

		return firstError(t, results)
	}
}

func (f *GenerateCommandFactory) run(ctx context.Context, t *i18n.Translations, svc IssueService, paths []string, concurrency int, quiet bool) []services.BatchResult {
	if len(paths) == 1 {
		var report *models.GenerationReport
		var err error
		generate := func() error {
			report, err = svc.Generate(ctx, paths[0])
			return err
		}
		if quiet {
			_ = generate()
		} else {
			_ = ui.WithSpinner(t.GetMessage("generate.analyzing", 0, map[string]interface{}{"Repo": paths[0]}), generate)
		}
		return []services.BatchResult{{RepoPath: paths[0], Report: report, Err: err}}
	}

	var results []services.BatchResult
	run := func() error {
		results = svc.GenerateBatch(ctx, paths, concurrency)
		return nil
	}
	if quiet {
		_ = run()
	} else {
		_ = ui.WithSpinner(t.GetMessage("generate.analyzing_batch", len(paths), map[string]interface{}{"Count": len(paths)}), run)
	}
	return results
}

func (f *GenerateCommandFactory) printResult(t *i18n.Translations, r services.BatchResult) {
	ui.PrintSectionBanner(f.out, r.RepoPath)
	if r.Err != nil {
		ui.HandleAppError(f.out, r.Err, t)
		return
	}

	report := r.Report
	if report.Analysis.Degraded {
		ui.PrintWarning(f.out, t.GetMessage("generate.degraded", 0, map[string]interface{}{"Reason": report.Analysis.DegradedReason}))
	}
	if report.UsedFallback {
		ui.PrintWarning(f.out, t.GetMessage("generate.fallback", 0, map[string]interface{}{"Reason": report.FallbackReason}))
	}
	if len(report.Drafts) == 0 {
		ui.PrintInfo(f.out, t.GetMessage("generate.no_drafts", 0, nil))
		return
	}

	for i, d := range report.Drafts {
		ui.PrintDraft(f.out, i+1, d)
	}
	if report.Pipeline != nil {
		ui.PrintTokenUsage(f.out, report.Pipeline.Usage(), t)
	}
}

func (f *GenerateCommandFactory) publish(ctx context.Context, t *i18n.Translations, deps *Dependencies, results []services.BatchResult, dryRun, skipConfirm, quiet bool) {
	for _, r := range results {
		if r.Err != nil || r.Report == nil || len(r.Report.Drafts) == 0 {
			continue
		}

		if !dryRun && !skipConfirm {
			question := t.GetMessage("generate.confirm_publish", len(r.Report.Drafts),
				map[string]interface{}{"Count": len(r.Report.Drafts), "Repo": r.RepoPath})
			if !ui.AskConfirmation(f.in, f.out, question) {
				ui.PrintInfo(f.out, t.GetMessage("generate.publish_skipped", 0, nil))
				continue
			}
		}

		var publisher ports.IssuePublisher
		if !dryRun {
			p, err := deps.Publisher(ctx, r.RepoPath)
			if err != nil {
				ui.HandleAppError(f.out, err, t)
				continue
			}
			publisher = p
		}

		published := deps.Service.Publish(ctx, publisher, r.Report.Drafts, dryRun)
		if quiet {
			continue
		}
		for _, p := range published {
			switch {
			case p.DryRun:
				ui.PrintInfo(f.out, t.GetMessage("generate.would_publish", 0, map[string]interface{}{"Title": p.Draft.Title}))
			case p.Err != nil:
				ui.PrintError(f.out, t.GetMessage("generate.publish_failed", 0, map[string]interface{}{"Title": p.Draft.Title, "Error": p.Error}))
			default:
				ui.PrintSuccess(f.out, t.GetMessage("generate.published", 0, map[string]interface{}{"Number": p.Issue.Number, "URL": p.Issue.URL}))
			}
		}
		ui.PrintInfo(f.out, services.Summary(published))
	}
}

type reportOutput struct {
	RepoPath string                   `json:"repo_path"`
	Report   *models.GenerationReport `json:"report,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

func (f *GenerateCommandFactory) writeJSON(results []services.BatchResult) error {
	out := make([]reportOutput, 0, len(results))
	for _, r := range results {
		o := reportOutput{RepoPath: r.RepoPath, Report: r.Report}
		if r.Err != nil {
			o.Error = r.Err.Error()
		}
		out = append(out, o)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding report: %w", err)
	}
	_, err = fmt.Fprintln(f.out, string(data))
	return err
}

func overridesFrom(command *cli.Command) config.Overrides {
	o := config.Overrides{
		Labels:         command.StringSlice("label"),
		Assignees:      command.StringSlice("assignee"),
		IgnorePatterns: command.StringSlice("ignore"),
		DisableCache:   command.Bool("no-cache"),
	}
	if command.IsSet("max-issues") {
		n := int(command.Int("max-issues"))
		o.MaxIssues = &n
	}
	if command.IsSet("min-description") {
		n := int(command.Int("min-description"))
		o.MinDescriptionLength = &n
	}
	if command.IsSet("max-commits") {
		n := int(command.Int("max-commits"))
		o.MaxCommits = &n
	}
	return o
}

// firstError returns the only error of a single run as is, so its type
// survives, and a summary error for batches.
func firstError(t *i18n.Translations, results []services.BatchResult) error {
	var failed []services.BatchResult
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	switch {
	case len(failed) == 0:
		return nil
	case len(results) == 1:
		return failed[0].Err
	default:
		return fmt.Errorf("%s", t.GetMessage("generate.batch_failed", len(failed),
			map[string]interface{}{"Failed": len(failed), "Total": len(results)}))
	}
}
