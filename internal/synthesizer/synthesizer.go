package synthesizer

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/thomas-vilte/mateissue/internal/config"
	"github.com/thomas-vilte/mateissue/internal/logger"
	"github.com/thomas-vilte/mateissue/internal/models"
)

const (
	DefaultMaxIssues            = 5
	DefaultMinDescriptionLength = 40
	DefaultHotspotFraction      = 0.5
	DefaultHotspotMinCommits    = 3
	DefaultDocsMinNewFiles      = 3
)

type Config struct {
	MaxIssues            int
	MinDescriptionLength int
	RequiredLabels       []string
	DefaultAssignees     []string
	HotspotFraction      float64
	HotspotMinCommits    int
	DocsMinNewFiles      int
}

func DefaultConfig() Config {
	return Config{
		MaxIssues:            DefaultMaxIssues,
		MinDescriptionLength: DefaultMinDescriptionLength,
		HotspotFraction:      DefaultHotspotFraction,
		HotspotMinCommits:    DefaultHotspotMinCommits,
		DocsMinNewFiles:      DefaultDocsMinNewFiles,
	}
}

// FromSettings maps the synthesis section of the configuration file.
func FromSettings(s config.SynthesisConfig) Config {
	cfg := Config{
		MaxIssues:            s.MaxIssues,
		MinDescriptionLength: s.MinDescriptionLength,
		RequiredLabels:       append([]string(nil), s.RequiredLabels...),
		DefaultAssignees:     append([]string(nil), s.DefaultAssignees...),
		HotspotFraction:      s.HotspotFraction,
		HotspotMinCommits:    s.HotspotMinCommits,
		DocsMinNewFiles:      s.DocsMinNewFiles,
	}
	if cfg.HotspotFraction <= 0 {
		cfg.HotspotFraction = DefaultHotspotFraction
	}
	if cfg.HotspotMinCommits <= 0 {
		cfg.HotspotMinCommits = DefaultHotspotMinCommits
	}
	if cfg.DocsMinNewFiles <= 0 {
		cfg.DocsMinNewFiles = DefaultDocsMinNewFiles
	}
	return cfg
}

// Synthesize turns the pipeline output into drafts. When ok is false, or
// the output yields nothing usable, drafts are derived from the analysis
// instead and usedFallback is true. The result never holds more than
// MaxIssues drafts, and no draft has a description shorter than
// MinDescriptionLength.
func Synthesize(ctx context.Context, output string, ok bool, analysis *models.RepositoryAnalysis, cfg Config) ([]models.IssueDraft, bool) {
	if ok && strings.TrimSpace(output) != "" {
		candidates := Parse(output)
		drafts := finalize(candidates, cfg)
		if len(drafts) > 0 {
			logger.Info(ctx, "drafts parsed from pipeline output",
				"candidates", len(candidates),
				"drafts", len(drafts))
			return drafts, false
		}
		logger.Warn(ctx, "pipeline output yielded no usable drafts, using heuristics",
			"candidates", len(candidates))
	}

	drafts := finalize(Heuristic(analysis, cfg), cfg)
	logger.Info(ctx, "drafts derived from repository analysis", "drafts", len(drafts))
	return drafts, true
}

// finalize applies the length floor, label and assignee defaults and the
// MaxIssues cap, in that order.
func finalize(candidates []models.IssueDraft, cfg Config) []models.IssueDraft {
	if cfg.MaxIssues <= 0 {
		return []models.IssueDraft{}
	}

	out := make([]models.IssueDraft, 0, min(len(candidates), cfg.MaxIssues))
	seenTitles := make(map[string]bool)
	for _, c := range candidates {
		title := strings.TrimSpace(c.Title)
		description := strings.TrimSpace(c.Description)
		if title == "" || utf8.RuneCountInString(description) < cfg.MinDescriptionLength {
			continue
		}
		key := strings.ToLower(title)
		if seenTitles[key] {
			continue
		}
		seenTitles[key] = true

		out = append(out, models.IssueDraft{
			Title:       title,
			Description: description,
			Labels:      mergeUnique(c.Labels, cfg.RequiredLabels),
			Assignees:   mergeUnique(c.Assignees, cfg.DefaultAssignees),
		})
		if len(out) == cfg.MaxIssues {
			break
		}
	}
	return out
}

// mergeUnique keeps first-seen order and drops blanks and case-insensitive
// duplicates.
func mergeUnique(lists ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, list := range lists {
		for _, item := range list {
			item = strings.TrimSpace(item)
			key := strings.ToLower(item)
			if item == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, item)
		}
	}
	return out
}
