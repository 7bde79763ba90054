package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"newsletterapi/internal/config"
	emailMocks "newsletterapi/internal/email/mocks"
	"newsletterapi/internal/model"
	repoMocks "newsletterapi/internal/repository/mocks"
)

func newWorkerFixture(t *testing.T, cfg config.DeliveryConfig) (*repoMocks.MockIssueRepository, *emailMocks.MockSender, *DeliveryWorker) {
	t.Helper()
	issues := new(repoMocks.MockIssueRepository)
	sender := new(emailMocks.MockSender)
	w, err := NewDeliveryWorker(issues, sender, cfg, time.UTC, prometheus.NewRegistry())
	require.NoError(t, err)
	return issues, sender, w
}

func TestDeliveryWorker_ProcessBatch(t *testing.T) {
	ctx := context.Background()
	cfg := config.DeliveryConfig{Workers: 2, BatchSize: 10, MaxAttempts: 3, PollIntervalSec: 1}

	t.Run("empty queue does nothing", func(t *testing.T) {
		issues, sender, w := newWorkerFixture(t, cfg)

		issues.On("DequeuePending", ctx, 10).Return([]model.IssueDelivery{}, nil)

		n, err := w.ProcessBatch(ctx)

		assert.NoError(t, err)
		assert.Zero(t, n)
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("sends each claimed delivery and marks it sent", func(t *testing.T) {
		issues, sender, w := newWorkerFixture(t, cfg)

		issues.On("DequeuePending", ctx, 10).Return([]model.IssueDelivery{
			{IssueID: "issue-id", SubscriberEmail: "a@example.com", Attempts: 0},
			{IssueID: "issue-id", SubscriberEmail: "b@example.com", Attempts: 0},
		}, nil)
		// One fetch serves both deliveries of the same issue.
		issues.On("FindByID", mock.Anything, "issue-id").Return(&model.NewsletterIssue{
			ID:          "issue-id",
			Title:       "Issue #1",
			TextContent: "text",
			HTMLContent: "<p>html</p>",
		}, nil).Once()
		sender.On("Send", mock.Anything, "a@example.com", "Issue #1", "<p>html</p>", "text").Return(nil)
		sender.On("Send", mock.Anything, "b@example.com", "Issue #1", "<p>html</p>", "text").Return(nil)
		issues.On("MarkDelivery", mock.Anything, "issue-id", "a@example.com", model.DeliveryStatusSent, 1).Return(nil)
		issues.On("MarkDelivery", mock.Anything, "issue-id", "b@example.com", model.DeliveryStatusSent, 1).Return(nil)

		n, err := w.ProcessBatch(ctx)

		assert.NoError(t, err)
		assert.Equal(t, 2, n)
		issues.AssertExpectations(t)
		sender.AssertExpectations(t)
		assert.Equal(t, float64(2), testutil.ToFloat64(w.sentTotal))
		assert.Equal(t, float64(0), testutil.ToFloat64(w.failedTotal))
	})

	t.Run("send failure requeues until attempts are exhausted", func(t *testing.T) {
		issues, sender, w := newWorkerFixture(t, cfg)

		issues.On("DequeuePending", ctx, 10).Return([]model.IssueDelivery{
			{IssueID: "issue-id", SubscriberEmail: "a@example.com", Attempts: 0},
		}, nil)
		issues.On("FindByID", mock.Anything, "issue-id").Return(&model.NewsletterIssue{ID: "issue-id", Title: "Issue #1"}, nil)
		sender.On("Send", mock.Anything, "a@example.com", mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("provider down"))
		issues.On("MarkDelivery", mock.Anything, "issue-id", "a@example.com", model.DeliveryStatusPending, 1).Return(nil)

		n, err := w.ProcessBatch(ctx)

		assert.NoError(t, err)
		assert.Equal(t, 1, n)
		issues.AssertExpectations(t)
		assert.Equal(t, float64(0), testutil.ToFloat64(w.failedTotal))
	})

	t.Run("final attempt marks the delivery failed", func(t *testing.T) {
		issues, sender, w := newWorkerFixture(t, cfg)

		issues.On("DequeuePending", ctx, 10).Return([]model.IssueDelivery{
			{IssueID: "issue-id", SubscriberEmail: "a@example.com", Attempts: 2},
		}, nil)
		issues.On("FindByID", mock.Anything, "issue-id").Return(&model.NewsletterIssue{ID: "issue-id", Title: "Issue #1"}, nil)
		sender.On("Send", mock.Anything, "a@example.com", mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("provider down"))
		issues.On("MarkDelivery", mock.Anything, "issue-id", "a@example.com", model.DeliveryStatusFailed, 3).Return(nil)

		n, err := w.ProcessBatch(ctx)

		assert.NoError(t, err)
		assert.Equal(t, 1, n)
		issues.AssertExpectations(t)
		assert.Equal(t, float64(1), testutil.ToFloat64(w.failedTotal))
	})

	t.Run("dequeue error is returned", func(t *testing.T) {
		issues, _, w := newWorkerFixture(t, cfg)

		issues.On("DequeuePending", ctx, 10).Return(nil, errors.New("db down"))

		n, err := w.ProcessBatch(ctx)

		assert.Error(t, err)
		assert.Zero(t, n)
	})

	t.Run("issue fetch failure requeues the delivery", func(t *testing.T) {
		issues, sender, w := newWorkerFixture(t, cfg)

		issues.On("DequeuePending", ctx, 10).Return([]model.IssueDelivery{
			{IssueID: "gone", SubscriberEmail: "a@example.com", Attempts: 0},
		}, nil)
		issues.On("FindByID", mock.Anything, "gone").Return(nil, errors.New("not found"))
		issues.On("MarkDelivery", mock.Anything, "gone", "a@example.com", model.DeliveryStatusPending, 1).Return(nil)

		n, err := w.ProcessBatch(ctx)

		assert.NoError(t, err)
		assert.Equal(t, 1, n)
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDeliveryWorker_RunStopsOnCancel(t *testing.T) {
	cfg := config.DeliveryConfig{Workers: 1, BatchSize: 5, MaxAttempts: 3, PollIntervalSec: 1}
	issues, _, w := newWorkerFixture(t, cfg)

	issues.On("DequeuePending", mock.Anything, 5).Return([]model.IssueDelivery{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
