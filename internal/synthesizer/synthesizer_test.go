package synthesizer

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomas-vilte/mateissue/internal/config"
	"github.com/thomas-vilte/mateissue/internal/models"
)

func singleCommitAnalysis(files ...string) *models.RepositoryAnalysis {
	perFile := make(map[string]int, len(files))
	for _, f := range files {
		perFile[f] = 1
	}
	return &models.RepositoryAnalysis{
		RepoPath:   "/tmp/repo",
		RepoName:   "repo",
		HeadCommit: "abc123",
		Commits: []models.CommitInfo{
			{Hash: "abc123", Author: "dev", Message: "add modules", FilesChanged: files},
		},
		FileChanges: models.FileChangeSummary{New: files, PerFile: perFile},
	}
}

func TestSynthesize_FallbackOnPipelineFailure(t *testing.T) {
	analysis := singleCommitAnalysis("a.py", "b.py")

	drafts, usedFallback := Synthesize(context.Background(), "", false, analysis, DefaultConfig())

	assert.True(t, usedFallback)
	require.Len(t, drafts, 1)
	assert.Equal(t, []string{models.LabelTesting}, drafts[0].Labels)
	assert.Contains(t, drafts[0].Description, "a.py")
	assert.Contains(t, drafts[0].Description, "b.py")
}

func TestSynthesize_FallbackOnUnusableOutput(t *testing.T) {
	analysis := singleCommitAnalysis("a.py", "b.py")

	drafts, usedFallback := Synthesize(context.Background(), "nothing here worth parsing", true, analysis, DefaultConfig())

	assert.True(t, usedFallback)
	require.Len(t, drafts, 1)
	assert.True(t, drafts[0].HasLabel(models.LabelTesting))
}

func TestSynthesize_ParsesPipelineOutput(t *testing.T) {
	output := `[
		{"title": "Add retries to the HTTP client", "description": "The HTTP client gives up on the first transient failure; add bounded retries.", "labels": ["enhancement"]},
		{"title": "Document the config file", "description": "The config file format is not documented anywhere in the repository.", "labels": "docs, good first issue"}
	]`
	cfg := DefaultConfig()
	cfg.RequiredLabels = []string{"auto-generated"}
	cfg.DefaultAssignees = []string{"octocat"}

	drafts, usedFallback := Synthesize(context.Background(), output, true, singleCommitAnalysis("a.go"), cfg)

	assert.False(t, usedFallback)
	require.Len(t, drafts, 2)
	assert.Equal(t, "Add retries to the HTTP client", drafts[0].Title)
	assert.Equal(t, []string{"enhancement", "auto-generated"}, drafts[0].Labels)
	assert.Equal(t, []string{"docs", "good first issue", "auto-generated"}, drafts[1].Labels)
	assert.Equal(t, []string{"octocat"}, drafts[1].Assignees)
}

func TestSynthesize_DegradedAnalysisYieldsNothing(t *testing.T) {
	analysis := singleCommitAnalysis("a.py")
	analysis.Degraded = true

	drafts, usedFallback := Synthesize(context.Background(), "", false, analysis, DefaultConfig())

	assert.True(t, usedFallback)
	assert.Empty(t, drafts)
}

func TestSynthesize_NilAnalysis(t *testing.T) {
	drafts, usedFallback := Synthesize(context.Background(), "", false, nil, DefaultConfig())

	assert.True(t, usedFallback)
	assert.NotNil(t, drafts)
	assert.Empty(t, drafts)
}

func randomDrafts(r *rand.Rand, n int) []models.IssueDraft {
	drafts := make([]models.IssueDraft, n)
	for i := range drafts {
		drafts[i] = models.IssueDraft{
			Title:       fmt.Sprintf("Issue %d", i),
			Description: strings.Repeat("x", r.IntN(80)),
			Labels:      []string{"bug"},
		}
	}
	return drafts
}

func TestFinalize_Bounds(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 200; i++ {
		cfg := DefaultConfig()
		cfg.MaxIssues = r.IntN(8)
		cfg.MinDescriptionLength = r.IntN(60)
		candidates := randomDrafts(r, r.IntN(12))

		drafts := finalize(candidates, cfg)

		assert.LessOrEqual(t, len(drafts), cfg.MaxIssues)
		for _, d := range drafts {
			assert.GreaterOrEqual(t, utf8.RuneCountInString(d.Description), cfg.MinDescriptionLength)
		}
	}
}

func TestFinalize_ZeroMaxIssues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIssues = 0

	drafts := finalize(randomDrafts(rand.New(rand.NewPCG(1, 2)), 5), cfg)

	assert.NotNil(t, drafts)
	assert.Empty(t, drafts)
}

func TestFinalize_DropsDuplicateAndBlankTitles(t *testing.T) {
	desc := strings.Repeat("d", DefaultMinDescriptionLength)
	candidates := []models.IssueDraft{
		{Title: "Fix login", Description: desc},
		{Title: "  ", Description: desc},
		{Title: "fix LOGIN", Description: desc},
		{Title: "Fix logout", Description: desc},
	}

	drafts := finalize(candidates, DefaultConfig())

	require.Len(t, drafts, 2)
	assert.Equal(t, "Fix login", drafts[0].Title)
	assert.Equal(t, "Fix logout", drafts[1].Title)
}

func TestMergeUnique(t *testing.T) {
	got := mergeUnique([]string{"bug", " Bug ", ""}, []string{"triage", "BUG"})
	assert.Equal(t, []string{"bug", "triage"}, got)
}

func TestFromSettings(t *testing.T) {
	cfg := FromSettings(config.SynthesisConfig{
		MaxIssues:            3,
		MinDescriptionLength: 10,
		RequiredLabels:       []string{"ai"},
	})

	assert.Equal(t, 3, cfg.MaxIssues)
	assert.Equal(t, 10, cfg.MinDescriptionLength)
	assert.Equal(t, []string{"ai"}, cfg.RequiredLabels)
	assert.Equal(t, DefaultHotspotFraction, cfg.HotspotFraction)
	assert.Equal(t, DefaultHotspotMinCommits, cfg.HotspotMinCommits)
	assert.Equal(t, DefaultDocsMinNewFiles, cfg.DocsMinNewFiles)
}
