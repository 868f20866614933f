package analyzer

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/models"
)

// walk reads up to cfg.MaxCommits commits from head and replays them oldest
// first so the file classification reflects the net effect of the window.
func (a *Analyzer) walk(ctx context.Context, repo *git.Repository, head plumbing.Hash, cfg Config) (*models.RepositoryAnalysis, error) {
	iter, err := repo.Log(&git.LogOptions{From: head, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, errors.ErrHistoryUnavailable.WithError(err)
	}
	defer iter.Close()

	var commits []*object.Commit
	for len(commits) < cfg.MaxCommits {
		c, err := iter.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ErrHistoryUnavailable.WithError(err)
		}
		commits = append(commits, c)
	}

	ignore := newIgnoreMatcher(cfg.IgnorePatterns)
	tracker := newChangeTracker()
	contributors := newContributorSet()
	infos := make([]models.CommitInfo, len(commits))

	for i := len(commits) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c := commits[i]
		info, err := a.replay(ctx, c, ignore, tracker)
		if err != nil {
			return nil, errors.ErrHistoryUnavailable.WithError(err).WithContext("commit", c.Hash.String())
		}
		infos[i] = info
		contributors.add(info)
	}

	return &models.RepositoryAnalysis{
		Commits:      infos,
		FileChanges:  tracker.summary(),
		Contributors: contributors.list(),
	}, nil
}

func (a *Analyzer) replay(ctx context.Context, c *object.Commit, ignore ignoreMatcher, tracker *changeTracker) (models.CommitInfo, error) {
	changes, err := diffWithParent(ctx, c)
	if err != nil {
		return models.CommitInfo{}, err
	}

	touched := make(map[string]struct{})
	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			return models.CommitInfo{}, err
		}

		from, to := change.From.Name, change.To.Name
		switch {
		case action == merkletrie.Insert:
			if ignore.Match(to) {
				continue
			}
			tracker.insert(to)
			touched[to] = struct{}{}
		case action == merkletrie.Delete:
			if ignore.Match(from) {
				continue
			}
			tracker.remove(from)
			touched[from] = struct{}{}
		case from != to:
			// A move across the ignore boundary only shows on the tracked side.
			switch fromIgnored, toIgnored := ignore.Match(from), ignore.Match(to); {
			case fromIgnored && toIgnored:
				continue
			case toIgnored:
				tracker.remove(from)
				touched[from] = struct{}{}
			case fromIgnored:
				tracker.insert(to)
				touched[to] = struct{}{}
			default:
				tracker.rename(from, to)
				touched[to] = struct{}{}
			}
		default:
			if ignore.Match(to) {
				continue
			}
			tracker.modify(to)
			touched[to] = struct{}{}
		}
	}

	stats, err := c.StatsContext(ctx)
	if err != nil {
		return models.CommitInfo{}, err
	}

	info := models.CommitInfo{
		Hash:         c.Hash.String(),
		Author:       c.Author.Name,
		Email:        c.Author.Email,
		Date:         c.Author.When.UTC(),
		Message:      strings.TrimSpace(c.Message),
		FilesChanged: make([]string, 0, len(touched)),
	}
	for _, stat := range stats {
		name := stat.Name
		if idx := strings.LastIndex(name, " => "); idx >= 0 {
			name = name[idx+len(" => "):]
		}
		if ignore.Match(name) {
			continue
		}
		info.Insertions += stat.Addition
		info.Deletions += stat.Deletion
	}
	for p := range touched {
		info.FilesChanged = append(info.FilesChanged, p)
	}
	sort.Strings(info.FilesChanged)
	tracker.touch(info.FilesChanged)

	return info, nil
}

// diffWithParent compares c with its first parent; a root commit is compared
// with the empty tree.
func diffWithParent(ctx context.Context, c *object.Commit) (object.Changes, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}

	var parentTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, err
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return nil, err
		}
	}

	return object.DiffTreeWithOptions(ctx, parentTree, tree, object.DefaultDiffTreeOptions)
}
