package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thomas-vilte/mateissue/internal/models"
)

const (
	maxListedCommits = 20
	maxListedFiles   = 30
	maxHotspots      = 10
	none             = "(none)"
)

// AnalysisVariables flattens an analysis into the variables used by the
// built-in templates.
func AnalysisVariables(a *models.RepositoryAnalysis, maxIssues, minDescriptionLength int) map[string]any {
	fc := a.FileChanges

	renamed := make([]string, 0, len(fc.Renamed))
	for _, r := range fc.Renamed {
		renamed = append(renamed, r.From+" -> "+r.To)
	}

	return map[string]any{
		"repo_name":              a.RepoName,
		"commit_count":           len(a.Commits),
		"commits":                formatCommits(a.Commits),
		"new_files":              formatList(fc.New),
		"modified_files":         formatList(fc.Modified),
		"deleted_files":          formatList(fc.Deleted),
		"renamed_files":          formatList(renamed),
		"hotspots":               formatHotspots(fc.PerFile),
		"contributors":           formatContributors(a.Contributors),
		"dependencies":           formatManifests(a.Manifests),
		"max_issues":             maxIssues,
		"min_description_length": minDescriptionLength,
	}
}

func formatCommits(commits []models.CommitInfo) string {
	if len(commits) == 0 {
		return none
	}
	var sb strings.Builder
	for i, c := range commits {
		if i == maxListedCommits {
			sb.WriteString(fmt.Sprintf("- ... and %d more\n", len(commits)-maxListedCommits))
			break
		}
		hash := c.Hash
		if len(hash) > 7 {
			hash = hash[:7]
		}
		subject, _, _ := strings.Cut(c.Message, "\n")
		sb.WriteString(fmt.Sprintf("- %s %s (%s, +%d/-%d)\n", hash, subject, c.Author, c.Insertions, c.Deletions))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatList(items []string) string {
	if len(items) == 0 {
		return none
	}
	if len(items) > maxListedFiles {
		extra := len(items) - maxListedFiles
		items = append(append([]string(nil), items[:maxListedFiles]...), fmt.Sprintf("... and %d more", extra))
	}
	return "- " + strings.Join(items, "\n- ")
}

func formatHotspots(perFile map[string]int) string {
	type hotspot struct {
		path  string
		count int
	}
	spots := make([]hotspot, 0, len(perFile))
	for p, n := range perFile {
		if n > 1 {
			spots = append(spots, hotspot{p, n})
		}
	}
	if len(spots) == 0 {
		return none
	}
	sort.Slice(spots, func(i, j int) bool {
		if spots[i].count != spots[j].count {
			return spots[i].count > spots[j].count
		}
		return spots[i].path < spots[j].path
	})
	if len(spots) > maxHotspots {
		spots = spots[:maxHotspots]
	}
	lines := make([]string, 0, len(spots))
	for _, s := range spots {
		lines = append(lines, fmt.Sprintf("%s (%d commits)", s.path, s.count))
	}
	return formatList(lines)
}

func formatContributors(contributors []models.Contributor) string {
	lines := make([]string, 0, len(contributors))
	for _, c := range contributors {
		lines = append(lines, fmt.Sprintf("%s: %d commits, +%d/-%d", c.Name, c.Commits, c.Insertions, c.Deletions))
	}
	return formatList(lines)
}

func formatManifests(manifests []models.DependencyManifest) string {
	lines := make([]string, 0, len(manifests))
	for _, m := range manifests {
		lines = append(lines, fmt.Sprintf("%s (%s): %d dependencies", m.Path, m.Ecosystem, len(m.Dependencies)))
	}
	return formatList(lines)
}
