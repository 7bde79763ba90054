package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Store(ctx context.Context, token, subscriberID string) error {
	args := m.Called(ctx, token, subscriberID)
	return args.Error(0)
}

func (m *MockTokenRepository) FindSubscriberID(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *MockTokenRepository) DeleteForSubscriber(ctx context.Context, subscriberID string) error {
	args := m.Called(ctx, subscriberID)
	return args.Error(0)
}
