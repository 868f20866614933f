package git

import (
	"context"
	stdErrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/logger"
	"github.com/thomas-vilte/mateissue/internal/regex"
)

// GitService reads local repositories through go-git; it never shells out.
type GitService struct{}

func NewGitService() *GitService {
	return &GitService{}
}

// Open resolves repoPath to an absolute directory and opens the repository
// rooted there. A missing path, a file, or a directory without a repository
// is reported as an ANALYSIS error.
func (s *GitService) Open(ctx context.Context, repoPath string) (*git.Repository, string, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, "", errors.ErrRepoPathMissing.WithError(err).WithContext("path", repoPath)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, "", errors.ErrRepoPathMissing.WithError(err).WithContext("path", abs)
	}
	if !info.IsDir() {
		return nil, "", errors.ErrRepoPathMissing.
			WithContext("path", abs).
			WithContext("detail", "path is not a directory")
	}

	repo, err := git.PlainOpen(abs)
	if err != nil {
		if stdErrors.Is(err, git.ErrRepositoryNotExists) {
			return nil, "", errors.ErrNotARepository.WithContext("path", abs)
		}
		return nil, "", errors.ErrNotARepository.WithError(err).WithContext("path", abs)
	}

	logger.Debug(ctx, "repository opened", "path", abs)
	return repo, abs, nil
}

// HeadHash returns the commit hash HEAD points to.
func (s *GitService) HeadHash(repo *git.Repository) (plumbing.Hash, error) {
	ref, err := repo.Head()
	if err != nil {
		return plumbing.ZeroHash, errors.ErrHistoryUnavailable.WithError(err)
	}
	return ref.Hash(), nil
}

// GetRepoInfo returns owner, repository name and hosting provider parsed from
// the origin remote.
func (s *GitService) GetRepoInfo(ctx context.Context, repoPath string) (string, string, string, error) {
	repo, _, err := s.Open(ctx, repoPath)
	if err != nil {
		return "", "", "", err
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return "", "", "", errors.ErrRemoteNotFound.WithError(err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", "", "", errors.ErrRemoteNotFound
	}
	return parseRepoURL(urls[0])
}

func parseRepoURL(url string) (string, string, string, error) {
	var matches []string
	if regex.SSHRepo.MatchString(url) {
		matches = regex.SSHRepo.FindStringSubmatch(url)
	} else if regex.HTTPSRepo.MatchString(url) {
		matches = regex.HTTPSRepo.FindStringSubmatch(url)
	}

	if len(matches) >= 4 {
		provider := detectProvider(matches[1])
		repoName := strings.TrimSuffix(matches[3], ".git")
		return matches[2], repoName, provider, nil
	}

	return "", "", "", errors.ErrRemoteNotFound.WithContext("detail", url)
}

func detectProvider(host string) string {
	if strings.Contains(host, "github") {
		return "github"
	}
	if strings.Contains(host, "gitlab") {
		return "gitlab"
	}
	return "unknown"
}
