package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithOverrides(t *testing.T) {
	t.Run("empty overrides keep values", func(t *testing.T) {
		base := DefaultConfig()
		got := WithOverrides(base, Overrides{})
		assert.Equal(t, base.Synthesis, got.Synthesis)
		assert.Equal(t, base.Analyzer.MaxCommits, got.Analyzer.MaxCommits)
	})

	t.Run("flags replace scalars and extend lists", func(t *testing.T) {
		base := DefaultConfig()
		base.Synthesis.RequiredLabels = []string{"triage"}
		base.Analyzer.CacheEnabled = true

		maxIssues, minDesc, maxCommits := 2, 10, 7
		got := WithOverrides(base, Overrides{
			MaxIssues:            &maxIssues,
			MinDescriptionLength: &minDesc,
			MaxCommits:           &maxCommits,
			Labels:               []string{"bot"},
			Assignees:            []string{"alice"},
			IgnorePatterns:       []string{"vendor/**"},
			DisableCache:         true,
		})

		require.NoError(t, got.Validate())
		assert.Equal(t, 2, got.Synthesis.MaxIssues)
		assert.Equal(t, 10, got.Synthesis.MinDescriptionLength)
		assert.Equal(t, 7, got.Analyzer.MaxCommits)
		assert.Equal(t, []string{"triage", "bot"}, got.Synthesis.RequiredLabels)
		assert.Equal(t, []string{"alice"}, got.Synthesis.DefaultAssignees)
		assert.Contains(t, got.Analyzer.IgnorePatterns, "vendor/**")
		assert.False(t, got.Analyzer.CacheEnabled)

		assert.Equal(t, []string{"triage"}, base.Synthesis.RequiredLabels, "base must not change")
		assert.True(t, base.Analyzer.CacheEnabled)
	})

	t.Run("invalid override fails validation", func(t *testing.T) {
		zero := 0
		got := WithOverrides(DefaultConfig(), Overrides{MaxIssues: &zero})
		assert.Error(t, got.Validate())
	})
}
