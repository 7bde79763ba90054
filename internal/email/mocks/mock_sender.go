package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, recipient, subject, htmlContent, textContent string) error {
	args := m.Called(ctx, recipient, subject, htmlContent, textContent)
	return args.Error(0)
}
