package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"newsletterapi/internal/model"
	"newsletterapi/internal/service"
)

type MockSubscriptionService struct {
	mock.Mock
}

func (m *MockSubscriptionService) Subscribe(ctx context.Context, name, email string) (*model.Subscriber, error) {
	args := m.Called(ctx, name, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscriber), args.Error(1)
}

func (m *MockSubscriptionService) Confirm(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockSubscriptionService) List(ctx context.Context, limit, offset int) (*service.SubscriberListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SubscriberListResult), args.Error(1)
}
