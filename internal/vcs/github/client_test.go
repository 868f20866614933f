package github

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-github/v80/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/models"
)

func newTestClient(issues *MockIssuesService) *GitHubClient {
	return NewGitHubClientWithServices(issues, "test-owner", "test-repo")
}

func statusResponse(code int) *github.Response {
	return &github.Response{Response: &http.Response{StatusCode: code}}
}

func rateLimitError() *github.RateLimitError {
	req, _ := http.NewRequest(http.MethodPost, "https://api.github.com/repos/test-owner/test-repo/issues", nil)
	return &github.RateLimitError{
		Response: &http.Response{StatusCode: http.StatusForbidden, Request: req},
		Message:  "API rate limit exceeded",
	}
}

func TestNewGitHubClient(t *testing.T) {
	t.Run("token is required", func(t *testing.T) {
		c, err := NewGitHubClient("o", "r", "")
		assert.Nil(t, c)
		assert.ErrorIs(t, err, domainErrors.ErrTokenMissing)
	})

	t.Run("builds client", func(t *testing.T) {
		c, err := NewGitHubClient("o", "r", "ghp_x")
		require.NoError(t, err)
		assert.Equal(t, "o/r", c.Repository())
	})
}

func TestGitHubClient_CreateIssue(t *testing.T) {
	draft := models.IssueDraft{
		Title:       "Add tests for new parser",
		Description: "The parser package has no tests covering error paths.",
		Labels:      []string{"testing", "enhancement"},
		Assignees:   []string{"user1"},
	}

	t.Run("should create issue and missing labels", func(t *testing.T) {
		mockIssues := &MockIssuesService{}
		client := newTestClient(mockIssues)

		mockIssues.On("ListLabels", mock.Anything, "test-owner", "test-repo", mock.Anything).
			Return([]*github.Label{{Name: github.Ptr("Enhancement")}}, &github.Response{}, nil).Once()

		mockIssues.On("CreateLabel", mock.Anything, "test-owner", "test-repo", mock.MatchedBy(func(label *github.Label) bool {
			return label.GetName() == "testing" && label.GetColor() == "8A2BE2"
		})).Return(&github.Label{}, &github.Response{}, nil).Once()

		expected := &github.Issue{
			Number:  github.Ptr(42),
			Title:   github.Ptr(draft.Title),
			HTMLURL: github.Ptr("https://github.com/test-owner/test-repo/issues/42"),
			Labels: []*github.Label{
				{Name: github.Ptr("testing")},
				{Name: github.Ptr("enhancement")},
			},
		}
		mockIssues.On("Create", mock.Anything, "test-owner", "test-repo", mock.MatchedBy(func(req *github.IssueRequest) bool {
			return req.GetTitle() == draft.Title &&
				req.GetBody() == draft.Description &&
				len(*req.Labels) == 2 &&
				len(*req.Assignees) == 1
		})).Return(expected, &github.Response{}, nil).Once()

		issue, err := client.CreateIssue(context.Background(), draft)
		require.NoError(t, err)
		assert.Equal(t, 42, issue.Number)
		assert.Equal(t, draft.Title, issue.Title)
		assert.Equal(t, "https://github.com/test-owner/test-repo/issues/42", issue.URL)
		assert.ElementsMatch(t, draft.Labels, issue.Labels)
		mockIssues.AssertExpectations(t)
	})

	t.Run("labels are listed once per client", func(t *testing.T) {
		mockIssues := &MockIssuesService{}
		client := newTestClient(mockIssues)

		mockIssues.On("ListLabels", mock.Anything, "test-owner", "test-repo", mock.Anything).
			Return([]*github.Label{{Name: github.Ptr("testing")}, {Name: github.Ptr("enhancement")}}, &github.Response{}, nil).Once()
		mockIssues.On("Create", mock.Anything, "test-owner", "test-repo", mock.Anything).
			Return(&github.Issue{Number: github.Ptr(1)}, &github.Response{}, nil).Twice()

		_, err := client.CreateIssue(context.Background(), draft)
		require.NoError(t, err)
		_, err = client.CreateIssue(context.Background(), draft)
		require.NoError(t, err)
		mockIssues.AssertExpectations(t)
		mockIssues.AssertNotCalled(t, "CreateLabel", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("existing label race is ignored", func(t *testing.T) {
		mockIssues := &MockIssuesService{}
		client := newTestClient(mockIssues)

		mockIssues.On("ListLabels", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return([]*github.Label{}, &github.Response{}, nil)
		mockIssues.On("CreateLabel", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return((*github.Label)(nil), statusResponse(422), fmt.Errorf("422 already_exists"))
		mockIssues.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&github.Issue{Number: github.Ptr(7)}, &github.Response{}, nil)

		issue, err := client.CreateIssue(context.Background(), draft)
		require.NoError(t, err)
		assert.Equal(t, 7, issue.Number)
	})

	tests := []struct {
		name     string
		resp     *github.Response
		err      error
		expected *domainErrors.AppError
	}{
		{"unauthorized", statusResponse(http.StatusUnauthorized), assert.AnError, domainErrors.ErrGitHubTokenInvalid},
		{"not found", statusResponse(http.StatusNotFound), assert.AnError, domainErrors.ErrRepositoryNotFound},
		{"too many requests", statusResponse(http.StatusTooManyRequests), assert.AnError, domainErrors.ErrGitHubRateLimit},
		{"rate limit error", statusResponse(http.StatusForbidden), rateLimitError(), domainErrors.ErrGitHubRateLimit},
	}
	for _, tt := range tests {
		t.Run("maps "+tt.name, func(t *testing.T) {
			mockIssues := &MockIssuesService{}
			client := newTestClient(mockIssues)

			mockIssues.On("Create", mock.Anything, "test-owner", "test-repo", mock.Anything).
				Return((*github.Issue)(nil), tt.resp, tt.err)

			_, err := client.CreateIssue(context.Background(), models.IssueDraft{Title: "t", Description: "d"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expected)
			assert.True(t, domainErrors.IsType(err, domainErrors.TypeVCS))
		})
	}

	t.Run("other failures keep the cause", func(t *testing.T) {
		mockIssues := &MockIssuesService{}
		client := newTestClient(mockIssues)

		mockIssues.On("Create", mock.Anything, "test-owner", "test-repo", mock.Anything).
			Return((*github.Issue)(nil), statusResponse(http.StatusInternalServerError), assert.AnError)

		_, err := client.CreateIssue(context.Background(), models.IssueDraft{Title: "t", Description: "d"})
		require.Error(t, err)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "error trying to create issue")
	})
}

func TestGitHubClient_GetRepoLabels(t *testing.T) {
	mockIssues := &MockIssuesService{}
	client := newTestClient(mockIssues)

	mockIssues.On("ListLabels", mock.Anything, "test-owner", "test-repo", &github.ListOptions{PerPage: 100}).
		Return([]*github.Label{{Name: github.Ptr("bug")}, {Name: github.Ptr("docs")}}, &github.Response{}, nil)

	labels, err := client.GetRepoLabels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bug", "docs"}, labels)
}
