package repository

import (
	"context"

	"newsletterapi/internal/model"
)

// SubscriberRepository defines data access for subscribers using SQL queries only.
// No business logic here, strictly persistence operations.
type SubscriberRepository interface {
	// Create inserts a new subscriber row and returns the stored record.
	Create(ctx context.Context, sub *model.Subscriber) (*model.Subscriber, error)

	// FindByEmail returns a subscriber by email address.
	FindByEmail(ctx context.Context, email string) (*model.Subscriber, error)

	// FindByID returns a subscriber by ID.
	FindByID(ctx context.Context, id string) (*model.Subscriber, error)

	// UpdateStatus sets the status of the subscriber with the given ID.
	UpdateStatus(ctx context.Context, id, status string) error

	// List returns a paginated list of subscribers, newest first, with a total count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Subscriber], error)
}

// TokenRepository stores the one-shot tokens used to confirm subscriptions.
// A subscriber has at most one outstanding token; storing a new one replaces it.
type TokenRepository interface {
	// Store saves (or replaces) the confirmation token for a subscriber.
	Store(ctx context.Context, token, subscriberID string) error

	// FindSubscriberID resolves a token to the owning subscriber ID.
	FindSubscriberID(ctx context.Context, token string) (string, error)

	// DeleteForSubscriber removes any token held by the subscriber.
	DeleteForSubscriber(ctx context.Context, subscriberID string) error
}
