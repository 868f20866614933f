package models

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"time"
)

// UnknownCommit is the hash used by the synthetic commit of a minimal analysis.
const UnknownCommit = "unknown"

// RepositoryAnalysis is the snapshot produced by one analyzer run.
// It is never mutated after Analyze returns.
type RepositoryAnalysis struct {
	RepoPath       string               `json:"repo_path"`
	RepoName       string               `json:"repo_name"`
	HeadCommit     string               `json:"head_commit"`
	AnalyzedAt     time.Time            `json:"analyzed_at"`
	Commits        []CommitInfo         `json:"commits"`
	FileChanges    FileChangeSummary    `json:"file_changes"`
	Contributors   []Contributor        `json:"contributors"`
	Manifests      []DependencyManifest `json:"manifests"`
	Degraded       bool                 `json:"degraded,omitempty"`
	DegradedReason string               `json:"degraded_reason,omitempty"`
}

// CommitInfo describes a single commit in the analysis window.
type CommitInfo struct {
	Hash         string    `json:"hash"`
	Author       string    `json:"author"`
	Email        string    `json:"email,omitempty"`
	Date         time.Time `json:"date"`
	Message      string    `json:"message"`
	FilesChanged []string  `json:"files_changed"`
	Insertions   int       `json:"insertions"`
	Deletions    int       `json:"deletions"`
}

// RenamedFile records a path move detected between two trees.
type RenamedFile struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// FileChangeSummary classifies every file touched in the window.
// PerFile counts how many commits touched each path.
type FileChangeSummary struct {
	New      []string       `json:"new"`
	Modified []string       `json:"modified"`
	Deleted  []string       `json:"deleted"`
	Renamed  []RenamedFile  `json:"renamed"`
	PerFile  map[string]int `json:"per_file"`
}

// Total returns the number of distinct paths in the summary.
func (s FileChangeSummary) Total() int {
	return len(s.New) + len(s.Modified) + len(s.Deleted) + len(s.Renamed)
}

// Contributor aggregates the activity of one author.
type Contributor struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Commits    int    `json:"commits"`
	Insertions int    `json:"insertions"`
	Deletions  int    `json:"deletions"`
}

// Dependency is a single declared dependency inside a manifest.
type Dependency struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// DependencyManifest is a detected per-ecosystem dependency file.
type DependencyManifest struct {
	Ecosystem    string       `json:"ecosystem"`
	Path         string       `json:"path"`
	Dependencies []Dependency `json:"dependencies"`
}

// Fingerprint identifies a repository state for caching purposes.
type Fingerprint struct {
	Path       string `json:"path"`
	CommitHash string `json:"commit_hash"`
}

// Key is stable for a given path and ignores the commit hash, so a newer
// HEAD overwrites the previous entry instead of piling up files.
func (f Fingerprint) Key(kind string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(f.Path) + "|" + kind))
	return hex.EncodeToString(sum[:])
}
