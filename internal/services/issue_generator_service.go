package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/logger"
	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/ports"
	"github.com/thomas-vilte/mateissue/internal/prompts"
	"github.com/thomas-vilte/mateissue/internal/synthesizer"
)

const (
	DefaultConcurrency = 4

	reasonNoDrafts = "pipeline output contained no usable drafts"
)

type IssueGeneratorService struct {
	analyzer  ports.RepositoryAnalyzer
	pipelines PipelineBuilder
	synthesis synthesizer.Config
}

type IssueGeneratorOption func(*IssueGeneratorService)

func WithSynthesisConfig(cfg synthesizer.Config) IssueGeneratorOption {
	return func(s *IssueGeneratorService) {
		s.synthesis = cfg
	}
}

func NewIssueGeneratorService(analyzer ports.RepositoryAnalyzer, pipelines PipelineBuilder, opts ...IssueGeneratorOption) *IssueGeneratorService {
	s := &IssueGeneratorService{
		analyzer:  analyzer,
		pipelines: pipelines,
		synthesis: synthesizer.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate analyzes repoPath and turns the result into issue drafts.
// Analysis and pipeline construction errors are returned; a pipeline that
// fails while running only switches synthesis to the heuristic path.
func (s *IssueGeneratorService) Generate(ctx context.Context, repoPath string) (*models.GenerationReport, error) {
	ctx = logger.With(ctx, "repo_path", repoPath)

	analysis, err := s.analyzer.Analyze(ctx, repoPath)
	if err != nil {
		return nil, err
	}

	report := &models.GenerationReport{Analysis: analysis}

	pipe, err := s.pipelines.Build(ctx)
	if err != nil {
		return nil, err
	}

	vars := prompts.AnalysisVariables(analysis, s.synthesis.MaxIssues, s.synthesis.MinDescriptionLength)
	result, runErr := pipe.Execute(ctx, vars)
	report.Pipeline = result

	if ctxErr := ctx.Err(); ctxErr != nil {
		return report, ctxErr
	}

	ok := runErr == nil && result.Status == models.PipelineSucceeded
	if runErr != nil {
		logger.Warn(ctx, "pipeline failed, falling back to heuristics", "error", runErr)
	}

	report.Drafts, report.UsedFallback = synthesizer.Synthesize(ctx, result.Output, ok, analysis, s.synthesis)
	if report.UsedFallback {
		report.FallbackReason = reasonNoDrafts
		if runErr != nil {
			report.FallbackReason = runErr.Error()
		}
	}

	logger.Info(ctx, "issue generation finished",
		"drafts", len(report.Drafts),
		"used_fallback", report.UsedFallback,
		"degraded", analysis.Degraded)
	return report, nil
}

// BatchResult is the outcome of one repository in a batch run.
type BatchResult struct {
	RepoPath string
	Report   *models.GenerationReport
	Err      error
}

// GenerateBatch runs Generate for every path with at most concurrency runs
// in flight. Results keep the order of paths and one failure does not stop
// the others.
func (s *IssueGeneratorService) GenerateBatch(ctx context.Context, paths []string, concurrency int) []BatchResult {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]BatchResult, len(paths))
	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, path := range paths {
		g.Go(func() error {
			report, err := s.Generate(ctx, path)
			results[i] = BatchResult{RepoPath: path, Report: report, Err: err}
			if err != nil {
				logger.Error(ctx, "batch run failed", err, "repo_path", path)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Publish creates one issue per draft through publisher. With dryRun
// nothing is sent. Once ctx is cancelled the remaining drafts carry the
// context error.
func (s *IssueGeneratorService) Publish(ctx context.Context, publisher ports.IssuePublisher, drafts []models.IssueDraft, dryRun bool) []models.PublishResult {
	results := make([]models.PublishResult, 0, len(drafts))

	for i, draft := range drafts {
		res := models.PublishResult{Draft: draft, DryRun: dryRun}

		switch {
		case dryRun:
		case ctx.Err() != nil:
			res.Err = ctx.Err()
		case publisher == nil:
			res.Err = errors.ErrTokenMissing
		default:
			issue, err := publisher.CreateIssue(ctx, draft)
			if err != nil {
				res.Err = err
				logger.Error(ctx, "failed to publish draft", err, "index", i, "title", draft.Title)
			} else {
				res.Issue = issue
				logger.Info(ctx, "issue published", "number", issue.Number, "url", issue.URL)
			}
		}

		if res.Err != nil {
			res.Error = res.Err.Error()
		}
		results = append(results, res)
	}

	return results
}

// Summary counts published and failed results.
func Summary(results []models.PublishResult) string {
	var ok, failed, dry int
	for _, r := range results {
		switch {
		case r.DryRun:
			dry++
		case r.Err != nil:
			failed++
		default:
			ok++
		}
	}
	return fmt.Sprintf("%d published, %d failed, %d dry-run", ok, failed, dry)
}
