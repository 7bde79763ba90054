package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"newsletterapi/internal/service"
)

type MockNewsletterService struct {
	mock.Mock
}

func (m *MockNewsletterService) Publish(ctx context.Context, title, textContent, htmlContent string) (*service.IssueResult, error) {
	args := m.Called(ctx, title, textContent, htmlContent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IssueResult), args.Error(1)
}

func (m *MockNewsletterService) ArchiveURL(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockNewsletterService) Get(ctx context.Context, id string) (*service.IssueResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IssueResult), args.Error(1)
}
