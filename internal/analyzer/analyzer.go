// Package analyzer turns a local git checkout into a RepositoryAnalysis.
package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/thomas-vilte/mateissue/internal/dependency"
	"github.com/thomas-vilte/mateissue/internal/git"
	"github.com/thomas-vilte/mateissue/internal/logger"
	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/ports"
)

const DefaultMaxCommits = 50

var _ ports.RepositoryAnalyzer = (*Analyzer)(nil)

type Config struct {
	MaxCommits     int
	IgnorePatterns []string
}

type Option func(*Analyzer)

// WithCache enables the fingerprint cache.
func WithCache(c ports.AnalysisCache) Option {
	return func(a *Analyzer) {
		a.cache = c
	}
}

func WithRegistry(r *dependency.Registry) Option {
	return func(a *Analyzer) {
		a.registry = r
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

type Analyzer struct {
	cfg      Config
	git      *git.GitService
	registry *dependency.Registry
	cache    ports.AnalysisCache
	now      func() time.Time
}

func New(cfg Config, opts ...Option) *Analyzer {
	a := &Analyzer{
		cfg:      cfg,
		git:      git.NewGitService(),
		registry: dependency.NewRegistry(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs AnalyzeWithConfig with the configuration given to New.
func (a *Analyzer) Analyze(ctx context.Context, repoPath string) (*models.RepositoryAnalysis, error) {
	return a.AnalyzeWithConfig(ctx, repoPath, a.cfg)
}

// AnalyzeWithConfig only fails when repoPath is not an openable repository.
// Every other problem yields a degraded minimal analysis.
func (a *Analyzer) AnalyzeWithConfig(ctx context.Context, repoPath string, cfg Config) (*models.RepositoryAnalysis, error) {
	if cfg.MaxCommits <= 0 {
		cfg.MaxCommits = DefaultMaxCommits
	}

	repo, abs, err := a.git.Open(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	ctx = logger.With(ctx, "repo", abs)

	head, err := a.git.HeadHash(repo)
	if err != nil {
		return a.minimal(ctx, abs, err), nil
	}

	fp := models.Fingerprint{Path: abs, CommitHash: head.String()}
	kind := cacheKind(cfg)
	if cached := a.lookup(ctx, fp, kind); cached != nil {
		return cached, nil
	}

	analysis, err := a.walk(ctx, repo, head, cfg)
	if err != nil {
		return a.minimal(ctx, abs, err), nil
	}
	analysis.RepoPath = abs
	analysis.RepoName = repoName(abs)
	analysis.HeadCommit = head.String()
	analysis.AnalyzedAt = a.now().UTC()
	analysis.Manifests = a.registry.DetectAll(ctx, abs)

	logger.Info(ctx, "repository analyzed",
		"commits", len(analysis.Commits),
		"total", analysis.FileChanges.Total())

	a.store(ctx, fp, kind, analysis)
	return analysis, nil
}

// minimal is the degraded analysis handed downstream when history cannot be
// read: one synthetic commit and an empty change summary.
func (a *Analyzer) minimal(ctx context.Context, abs string, cause error) *models.RepositoryAnalysis {
	logger.Error(ctx, "history traversal failed, using minimal analysis", cause)

	now := a.now().UTC()
	return &models.RepositoryAnalysis{
		RepoPath:   abs,
		RepoName:   repoName(abs),
		HeadCommit: models.UnknownCommit,
		AnalyzedAt: now,
		Commits: []models.CommitInfo{{
			Hash:         models.UnknownCommit,
			Author:       models.UnknownCommit,
			Date:         now,
			Message:      models.UnknownCommit,
			FilesChanged: []string{},
		}},
		FileChanges: models.FileChangeSummary{
			New:      []string{},
			Modified: []string{},
			Deleted:  []string{},
			Renamed:  []models.RenamedFile{},
			PerFile:  map[string]int{},
		},
		Contributors:   []models.Contributor{},
		Manifests:      a.registry.DetectAll(ctx, abs),
		Degraded:       true,
		DegradedReason: cause.Error(),
	}
}

func (a *Analyzer) lookup(ctx context.Context, fp models.Fingerprint, kind string) *models.RepositoryAnalysis {
	if a.cache == nil {
		return nil
	}

	raw, found, err := a.cache.Get(fp, kind)
	if err != nil {
		logger.Warn(ctx, "analysis cache read failed", "error", err)
		return nil
	}
	if !found {
		return nil
	}

	var analysis models.RepositoryAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		logger.Warn(ctx, "analysis cache entry unreadable", "error", err)
		return nil
	}

	logger.Debug(ctx, "analysis cache hit", "commit", fp.CommitHash)
	return &analysis
}

func (a *Analyzer) store(ctx context.Context, fp models.Fingerprint, kind string, analysis *models.RepositoryAnalysis) {
	if a.cache == nil || analysis.Degraded {
		return
	}
	if err := a.cache.Set(fp, kind, analysis); err != nil {
		logger.Warn(ctx, "analysis cache write failed", "error", err)
	}
}

// cacheKind separates entries produced with different windows or ignore sets.
func cacheKind(cfg Config) string {
	patterns := append([]string(nil), cfg.IgnorePatterns...)
	sort.Strings(patterns)
	sum := sha256.Sum256([]byte(strings.Join(patterns, "\n")))
	return fmt.Sprintf("history:%d:%s", cfg.MaxCommits, hex.EncodeToString(sum[:8]))
}

func repoName(abs string) string {
	return filepath.Base(abs)
}
