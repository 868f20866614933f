package ports

import (
	"context"

	"github.com/thomas-vilte/mateissue/internal/models"
)

// IssuePublisher creates issues on a remote tracker.
type IssuePublisher interface {
	CreateIssue(ctx context.Context, draft models.IssueDraft) (*models.Issue, error)
}
