package postgres

import (
	"context"
	"database/sql"

	"newsletterapi/internal/repository"
)

// TokenPostgres is a PostgreSQL implementation of repository.TokenRepository.
type TokenPostgres struct {
	db *sql.DB
}

// NewTokenPostgres creates a new TokenPostgres repository.
func NewTokenPostgres(db *sql.DB) *TokenPostgres {
	return &TokenPostgres{db: db}
}

var _ repository.TokenRepository = (*TokenPostgres)(nil)

// Store saves the confirmation token for a subscriber, replacing any
// previous token the subscriber held.
func (r *TokenPostgres) Store(ctx context.Context, token, subscriberID string) error {
	const q = `
		INSERT INTO subscription_tokens (subscription_token, subscriber_id)
		VALUES ($1, $2)
		ON CONFLICT (subscriber_id)
		DO UPDATE SET subscription_token = EXCLUDED.subscription_token, created_at = now()
	`
	_, err := r.db.ExecContext(ctx, q, token, subscriberID)
	return err
}

// FindSubscriberID resolves a token to the owning subscriber ID.
func (r *TokenPostgres) FindSubscriberID(ctx context.Context, token string) (string, error) {
	const q = `SELECT subscriber_id FROM subscription_tokens WHERE subscription_token = $1`
	var id string
	if err := r.db.QueryRowContext(ctx, q, token).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

// DeleteForSubscriber removes any token held by the subscriber.
// It returns nil if no token existed.
func (r *TokenPostgres) DeleteForSubscriber(ctx context.Context, subscriberID string) error {
	const q = `DELETE FROM subscription_tokens WHERE subscriber_id = $1`
	res, err := r.db.ExecContext(ctx, q, subscriberID)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
