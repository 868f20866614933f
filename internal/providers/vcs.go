package providers

import (
	"context"
	"fmt"

	"github.com/thomas-vilte/mateissue/internal/config"
	"github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/ports"
	"github.com/thomas-vilte/mateissue/internal/vcs/github"
)

// RepoInfoResolver reads owner, repo and provider from a checkout's remote.
type RepoInfoResolver interface {
	GetRepoInfo(ctx context.Context, repoPath string) (string, string, string, error)
}

// NewIssuePublisher creates the publisher for the repository at repoPath.
// Owner and repo come from the configuration when both are set, otherwise
// from the origin remote.
func NewIssuePublisher(ctx context.Context, resolver RepoInfoResolver, repoPath string, cfg config.GitHubConfig) (ports.IssuePublisher, error) {
	if cfg.Token == "" {
		return nil, errors.ErrTokenMissing
	}

	owner, repo := cfg.Owner, cfg.Repo
	if owner == "" || repo == "" {
		var provider string
		var err error
		owner, repo, provider, err = resolver.GetRepoInfo(ctx, repoPath)
		if err != nil {
			return nil, fmt.Errorf("error getting repo info: %w", err)
		}
		if provider != "github" {
			return nil, errors.ErrRemoteNotFound.
				WithContext("detail", fmt.Sprintf("VCS provider '%s' not supported", provider))
		}
	}

	client, err := github.NewGitHubClient(owner, repo, cfg.Token)
	if err != nil {
		return nil, err
	}
	return client, nil
}
