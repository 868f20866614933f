package synthesizer

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/thomas-vilte/mateissue/internal/models"
)

var sourceExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".java": true, ".kt": true, ".scala": true, ".rs": true, ".rb": true, ".php": true,
	".c": true, ".cc": true, ".cpp": true, ".h": true, ".hpp": true, ".cs": true,
	".swift": true, ".m": true, ".ex": true, ".exs": true, ".lua": true, ".dart": true,
}

var docExtensions = map[string]bool{
	".md": true, ".rst": true, ".adoc": true, ".txt": true,
}

var testSuffixes = []string{"_test", ".test", ".spec", "_spec", "test", "tests", "spec"}

// Heuristic derives drafts from the analysis alone: documentation for a
// batch of undocumented new files, review for files touched by most
// commits, and tests for new files without a matching test. Degraded
// analyses produce nothing.
func Heuristic(a *models.RepositoryAnalysis, cfg Config) []models.IssueDraft {
	if a == nil || a.Degraded {
		return nil
	}

	var drafts []models.IssueDraft
	if d, ok := documentationDraft(a, cfg); ok {
		drafts = append(drafts, d)
	}
	if d, ok := codeReviewDraft(a, cfg); ok {
		drafts = append(drafts, d)
	}
	if d, ok := testingDraft(a); ok {
		drafts = append(drafts, d)
	}
	return drafts
}

func documentationDraft(a *models.RepositoryAnalysis, cfg Config) (models.IssueDraft, bool) {
	newSources := filter(a.FileChanges.New, isSource)
	if len(newSources) == 0 || len(newSources) < cfg.DocsMinNewFiles {
		return models.IssueDraft{}, false
	}
	for _, f := range touchedFiles(a) {
		if isDoc(f) {
			return models.IssueDraft{}, false
		}
	}

	return models.IssueDraft{
		Title: fmt.Sprintf("Document %d new files in %s", len(newSources), a.RepoName),
		Description: fmt.Sprintf("%d source files were added in the last %d commits and no documentation was updated alongside them.\n\n"+
			"Files without documentation:\n%s\n\n"+
			"Describe what these files provide and how to use them in the README or the docs directory.",
			len(newSources), len(a.Commits), bulletList(newSources)),
		Labels: []string{models.LabelDocumentation},
	}, true
}

func codeReviewDraft(a *models.RepositoryAnalysis, cfg Config) (models.IssueDraft, bool) {
	commits := len(a.Commits)
	if commits == 0 || commits < cfg.HotspotMinCommits {
		return models.IssueDraft{}, false
	}

	threshold := cfg.HotspotFraction * float64(commits)
	var hot []string
	for f, n := range a.FileChanges.PerFile {
		if float64(n) > threshold {
			hot = append(hot, f)
		}
	}
	if len(hot) == 0 {
		return models.IssueDraft{}, false
	}
	sort.Slice(hot, func(i, j int) bool {
		ni, nj := a.FileChanges.PerFile[hot[i]], a.FileChanges.PerFile[hot[j]]
		if ni != nj {
			return ni > nj
		}
		return hot[i] < hot[j]
	})

	lines := make([]string, 0, len(hot))
	for _, f := range hot {
		lines = append(lines, fmt.Sprintf("%s (%d of %d commits)", f, a.FileChanges.PerFile[f], commits))
	}

	return models.IssueDraft{
		Title: fmt.Sprintf("Review frequently changed files in %s", a.RepoName),
		Description: fmt.Sprintf("These files changed in more than %.0f%% of the last %d commits, which often points at unstable design or missing abstractions:\n%s\n\n"+
			"Review them for refactoring opportunities and make sure their behaviour is covered by tests.",
			cfg.HotspotFraction*100, commits, bulletList(lines)),
		Labels: []string{models.LabelCodeReview},
	}, true
}

func testingDraft(a *models.RepositoryAnalysis) (models.IssueDraft, bool) {
	tested := make(map[string]bool)
	for _, f := range touchedFiles(a) {
		if isTest(f) {
			tested[testSubject(f)] = true
		}
	}

	var untested []string
	for _, f := range a.FileChanges.New {
		if isSource(f) && !tested[stem(f)] {
			untested = append(untested, f)
		}
	}
	if len(untested) == 0 {
		return models.IssueDraft{}, false
	}

	return models.IssueDraft{
		Title: fmt.Sprintf("Add tests for %d new files", len(untested)),
		Description: fmt.Sprintf("The following files were added recently and have no matching test file:\n%s\n\n"+
			"Add unit tests that cover their main behaviour and error paths.",
			bulletList(untested)),
		Labels: []string{models.LabelTesting},
	}, true
}

// touchedFiles is every path the analysis knows about that still exists.
func touchedFiles(a *models.RepositoryAnalysis) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, f := range a.FileChanges.New {
		add(f)
	}
	for _, f := range a.FileChanges.Modified {
		add(f)
	}
	for _, r := range a.FileChanges.Renamed {
		add(r.To)
	}
	for f := range a.FileChanges.PerFile {
		add(f)
	}
	deleted := make(map[string]bool, len(a.FileChanges.Deleted))
	for _, f := range a.FileChanges.Deleted {
		deleted[f] = true
	}
	kept := out[:0]
	for _, f := range out {
		if !deleted[f] {
			kept = append(kept, f)
		}
	}
	sort.Strings(kept)
	return kept
}

func isSource(f string) bool {
	return sourceExtensions[strings.ToLower(path.Ext(f))] && !isTest(f) && !isDoc(f)
}

func isDoc(f string) bool {
	lower := strings.ToLower(f)
	if docExtensions[path.Ext(lower)] {
		return true
	}
	base := path.Base(lower)
	if strings.HasPrefix(base, "readme") || strings.HasPrefix(base, "changelog") {
		return true
	}
	return strings.HasPrefix(lower, "docs/") || strings.HasPrefix(lower, "doc/") ||
		strings.Contains(lower, "/docs/") || strings.Contains(lower, "/doc/")
}

func isTest(f string) bool {
	lower := strings.ToLower(f)
	for _, dir := range []string{"test/", "tests/", "__tests__/", "spec/"} {
		if strings.HasPrefix(lower, dir) || strings.Contains(lower, "/"+dir) {
			return true
		}
	}
	s := stem(f)
	if strings.HasPrefix(s, "test_") {
		return true
	}
	name := strings.TrimSuffix(path.Base(lower), path.Ext(lower))
	for _, suffix := range testSuffixes[:4] {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	// FooTest.java, FooSpec.scala
	orig := strings.TrimSuffix(path.Base(f), path.Ext(f))
	return strings.HasSuffix(orig, "Test") || strings.HasSuffix(orig, "Tests") || strings.HasSuffix(orig, "Spec")
}

// stem is the lower-cased base name without extension.
func stem(f string) string {
	base := path.Base(f)
	return strings.ToLower(strings.TrimSuffix(base, path.Ext(base)))
}

// testSubject maps a test file to the stem of the file it most likely tests.
func testSubject(f string) string {
	s := stem(f)
	s = strings.TrimPrefix(s, "test_")
	for _, suffix := range testSuffixes {
		if trimmed := strings.TrimSuffix(s, suffix); trimmed != s && trimmed != "" {
			return strings.TrimRight(trimmed, "_.-")
		}
	}
	return s
}

func filter(files []string, keep func(string) bool) []string {
	var out []string
	for _, f := range files {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

func bulletList(items []string) string {
	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- ")
		sb.WriteString(item)
	}
	return sb.String()
}
