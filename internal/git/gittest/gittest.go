// Package gittest builds throwaway git repositories for tests.
package gittest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// Repo is a repository in a temporary directory with a fixed clock, so
// commit hashes are stable within a test.
type Repo struct {
	t    *testing.T
	Dir  string
	Repo *git.Repository
	when time.Time
}

func New(t *testing.T) *Repo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return &Repo{
		t:    t,
		Dir:  dir,
		Repo: repo,
		when: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Write creates or replaces a file in the worktree.
func (r *Repo) Write(name, content string) *Repo {
	r.t.Helper()
	full := filepath.Join(r.Dir, name)
	require.NoError(r.t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(r.t, os.WriteFile(full, []byte(content), 0644))
	return r
}

// Remove deletes a file from the worktree and the index.
func (r *Repo) Remove(name string) *Repo {
	r.t.Helper()
	wt, err := r.Repo.Worktree()
	require.NoError(r.t, err)
	_, err = wt.Remove(name)
	require.NoError(r.t, err)
	return r
}

// Move renames a tracked file.
func (r *Repo) Move(from, to string) *Repo {
	r.t.Helper()
	wt, err := r.Repo.Worktree()
	require.NoError(r.t, err)
	require.NoError(r.t, os.MkdirAll(filepath.Dir(filepath.Join(r.Dir, to)), 0755))
	_, err = wt.Move(from, to)
	require.NoError(r.t, err)
	return r
}

// Commit stages everything and commits it as author.
func (r *Repo) Commit(message, author, email string) plumbing.Hash {
	r.t.Helper()
	wt, err := r.Repo.Worktree()
	require.NoError(r.t, err)
	require.NoError(r.t, wt.AddWithOptions(&git.AddOptions{All: true}))

	r.when = r.when.Add(time.Minute)
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: author, Email: email, When: r.when},
	})
	require.NoError(r.t, err)
	return hash
}

// AddRemote registers a remote with a single URL.
func (r *Repo) AddRemote(name, url string) *Repo {
	r.t.Helper()
	_, err := r.Repo.CreateRemote(&config.RemoteConfig{Name: name, URLs: []string{url}})
	require.NoError(r.t, err)
	return r
}
