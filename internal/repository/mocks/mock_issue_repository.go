package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"newsletterapi/internal/model"
)

type MockIssueRepository struct {
	mock.Mock
}

func (m *MockIssueRepository) Create(ctx context.Context, issue *model.NewsletterIssue) (*model.NewsletterIssue, error) {
	args := m.Called(ctx, issue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.NewsletterIssue), args.Error(1)
}

func (m *MockIssueRepository) FindByID(ctx context.Context, id string) (*model.NewsletterIssue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.NewsletterIssue), args.Error(1)
}

func (m *MockIssueRepository) SetArchivePath(ctx context.Context, id, path string) error {
	args := m.Called(ctx, id, path)
	return args.Error(0)
}

func (m *MockIssueRepository) EnqueueDeliveries(ctx context.Context, issueID string) (int, error) {
	args := m.Called(ctx, issueID)
	return args.Int(0), args.Error(1)
}

func (m *MockIssueRepository) DequeuePending(ctx context.Context, limit int) ([]model.IssueDelivery, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.IssueDelivery), args.Error(1)
}

func (m *MockIssueRepository) MarkDelivery(ctx context.Context, issueID, email, status string, attempts int) error {
	args := m.Called(ctx, issueID, email, status, attempts)
	return args.Error(0)
}

func (m *MockIssueRepository) DeliveryStats(ctx context.Context, issueID string) (*model.DeliveryStats, error) {
	args := m.Called(ctx, issueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DeliveryStats), args.Error(1)
}
