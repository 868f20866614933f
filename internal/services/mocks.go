package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/thomas-vilte/mateissue/internal/models"
)

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, repoPath string) (*models.RepositoryAnalysis, error) {
	args := m.Called(ctx, repoPath)
	if a := args.Get(0); a != nil {
		return a.(*models.RepositoryAnalysis), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) CreateIssue(ctx context.Context, draft models.IssueDraft) (*models.Issue, error) {
	args := m.Called(ctx, draft)
	if i := args.Get(0); i != nil {
		return i.(*models.Issue), args.Error(1)
	}
	return nil, args.Error(1)
}
