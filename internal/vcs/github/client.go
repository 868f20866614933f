package github

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v80/github"
	domainErrors "github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/logger"
	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/ports"
	"golang.org/x/oauth2"
)

var _ ports.IssuePublisher = (*GitHubClient)(nil)

type IssuesService interface {
	ListLabels(ctx context.Context, owner, repo string, opts *github.ListOptions) ([]*github.Label, *github.Response, error)
	CreateLabel(ctx context.Context, owner, repo string, label *github.Label) (*github.Label, *github.Response, error)
	Create(ctx context.Context, owner, repo string, issue *github.IssueRequest) (*github.Issue, *github.Response, error)
}

type GitHubClient struct {
	issuesService IssuesService
	owner         string
	repo          string
	knownLabels   map[string]bool
}

var labelColors = map[string]string{
	models.LabelDocumentation: "0075CA",
	models.LabelCodeReview:    "FFA500",
	models.LabelTesting:       "8A2BE2",
}

var labelDescriptions = map[string]string{
	models.LabelDocumentation: "Documentation needs updating",
	models.LabelCodeReview:    "Frequently changed code worth reviewing",
	models.LabelTesting:       "Test coverage improvement",
}

const defaultLabelColor = "808080"

func NewGitHubClient(owner, repo, token string) (*GitHubClient, error) {
	if token == "" {
		return nil, domainErrors.ErrTokenMissing
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(context.Background(), ts))
	return NewGitHubClientWithServices(client.Issues, owner, repo), nil
}

func NewGitHubClientWithServices(issuesService IssuesService, owner, repo string) *GitHubClient {
	return &GitHubClient{
		issuesService: issuesService,
		owner:         owner,
		repo:          repo,
	}
}

func (ghc *GitHubClient) Repository() string {
	return fmt.Sprintf("%s/%s", ghc.owner, ghc.repo)
}

func (ghc *GitHubClient) GetRepoLabels(ctx context.Context) ([]string, error) {
	labels, resp, err := ghc.issuesService.ListLabels(ctx, ghc.owner, ghc.repo, &github.ListOptions{PerPage: 100})
	if err != nil {
		return nil, ghc.mapError(resp, err, "list labels")
	}

	labelNames := make([]string, len(labels))
	for i, label := range labels {
		labelNames[i] = label.GetName()
	}
	return labelNames, nil
}

func (ghc *GitHubClient) CreateLabel(ctx context.Context, name, color, description string) error {
	_, _, err := ghc.issuesService.CreateLabel(ctx, ghc.owner, ghc.repo, &github.Label{
		Name:        github.Ptr(name),
		Color:       github.Ptr(color),
		Description: github.Ptr(description),
	})
	return err
}

// CreateIssue files draft as a new issue, creating any missing labels first.
func (ghc *GitHubClient) CreateIssue(ctx context.Context, draft models.IssueDraft) (*models.Issue, error) {
	logger.Info(ctx, "creating github issue",
		"owner", ghc.owner,
		"repo", ghc.repo,
		"title", draft.Title,
		"labels_count", len(draft.Labels),
		"assignees_count", len(draft.Assignees))

	if err := ghc.ensureLabelsExist(ctx, draft.Labels); err != nil {
		return nil, err
	}

	labels := append([]string{}, draft.Labels...)
	assignees := append([]string{}, draft.Assignees...)
	issueRequest := &github.IssueRequest{
		Title:     github.Ptr(draft.Title),
		Body:      github.Ptr(draft.Description),
		Labels:    &labels,
		Assignees: &assignees,
	}

	ghIssue, resp, err := ghc.issuesService.Create(ctx, ghc.owner, ghc.repo, issueRequest)
	if err != nil {
		logger.Error(ctx, "failed to create github issue", err,
			"owner", ghc.owner,
			"repo", ghc.repo)
		return nil, ghc.mapError(resp, err, "create issue")
	}

	issue := &models.Issue{
		Number: ghIssue.GetNumber(),
		Title:  ghIssue.GetTitle(),
		URL:    ghIssue.GetHTMLURL(),
		Labels: make([]string, 0, len(ghIssue.Labels)),
	}
	for _, label := range ghIssue.Labels {
		if label.Name != nil {
			issue.Labels = append(issue.Labels, label.GetName())
		}
	}

	logger.Info(ctx, "github issue created successfully",
		"issue_number", issue.Number,
		"issue_url", issue.URL)

	return issue, nil
}

func (ghc *GitHubClient) ensureLabelsExist(ctx context.Context, required []string) error {
	if len(required) == 0 {
		return nil
	}

	if ghc.knownLabels == nil {
		existing, err := ghc.GetRepoLabels(ctx)
		if err != nil {
			return err
		}
		ghc.knownLabels = make(map[string]bool, len(existing))
		for _, l := range existing {
			ghc.knownLabels[strings.ToLower(l)] = true
		}
	}

	for _, label := range required {
		if ghc.knownLabels[strings.ToLower(label)] {
			continue
		}
		color, ok := labelColors[label]
		if !ok {
			color = defaultLabelColor
		}
		if err := ghc.CreateLabel(ctx, label, color, labelDescriptions[label]); err != nil {
			if !strings.Contains(err.Error(), "already_exists") && !strings.Contains(err.Error(), "422") {
				return fmt.Errorf("failed to create label '%s': %w", label, err)
			}
			logger.Debug(ctx, "label already exists, skipping creation",
				"label", label,
				"owner", ghc.owner,
				"repo", ghc.repo)
		}
		ghc.knownLabels[strings.ToLower(label)] = true
	}
	return nil
}

func (ghc *GitHubClient) mapError(resp *github.Response, err error, operation string) error {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if stdErrors.As(err, &rateErr) || stdErrors.As(err, &abuseErr) {
		return domainErrors.ErrGitHubRateLimit.WithError(err).WithContext("operation", operation)
	}

	if resp != nil && resp.Response != nil {
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return domainErrors.ErrGitHubTokenInvalid.WithError(err).
				WithContext("operation", operation)
		case http.StatusNotFound:
			return domainErrors.ErrRepositoryNotFound.WithError(err).
				WithContext("operation", operation).
				WithContext("repo", ghc.Repository())
		case http.StatusTooManyRequests:
			return domainErrors.ErrGitHubRateLimit.WithError(err).
				WithContext("operation", operation)
		}
	}
	return fmt.Errorf("error trying to %s: %w", operation, err)
}
