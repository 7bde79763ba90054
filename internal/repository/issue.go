package repository

import (
	"context"

	"newsletterapi/internal/model"
)

// IssueRepository defines data access for newsletter issues and their
// per-subscriber delivery rows.
type IssueRepository interface {
	// Create inserts a new issue row and returns the stored record.
	Create(ctx context.Context, issue *model.NewsletterIssue) (*model.NewsletterIssue, error)

	// FindByID returns an issue by ID.
	FindByID(ctx context.Context, id string) (*model.NewsletterIssue, error)

	// SetArchivePath records the object storage key of the archived issue body.
	SetArchivePath(ctx context.Context, id, path string) error

	// EnqueueDeliveries creates one pending delivery row per confirmed
	// subscriber for the issue and returns the number of rows created.
	EnqueueDeliveries(ctx context.Context, issueID string) (int, error)

	// DequeuePending atomically claims up to limit pending deliveries by
	// moving them to the sending status, so concurrent workers never pick
	// the same row. The caller must mark every returned row.
	DequeuePending(ctx context.Context, limit int) ([]model.IssueDelivery, error)

	// MarkDelivery records the outcome of one send attempt.
	MarkDelivery(ctx context.Context, issueID, email, status string, attempts int) error

	// DeliveryStats aggregates delivery outcomes for an issue.
	DeliveryStats(ctx context.Context, issueID string) (*model.DeliveryStats, error)
}
