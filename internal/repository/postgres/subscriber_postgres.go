package postgres

import (
	"context"
	"database/sql"

	"newsletterapi/internal/model"
	"newsletterapi/internal/repository"
)

// SubscriberPostgres is a PostgreSQL implementation of repository.SubscriberRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type SubscriberPostgres struct {
	db *sql.DB
}

// NewSubscriberPostgres creates a new SubscriberPostgres repository.
func NewSubscriberPostgres(db *sql.DB) *SubscriberPostgres {
	return &SubscriberPostgres{db: db}
}

var _ repository.SubscriberRepository = (*SubscriberPostgres)(nil)

// Create inserts a new subscriber row and returns the stored record.
func (r *SubscriberPostgres) Create(ctx context.Context, sub *model.Subscriber) (*model.Subscriber, error) {
	const q = `
		INSERT INTO subscriptions (id, email, name, status, subscribed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, email, name, status, subscribed_at
	`
	row := r.db.QueryRowContext(ctx, q,
		sub.ID,
		sub.Email,
		sub.Name,
		sub.Status,
		sub.SubscribedAt,
	)
	var out model.Subscriber
	if err := row.Scan(
		&out.ID,
		&out.Email,
		&out.Name,
		&out.Status,
		&out.SubscribedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByEmail fetches a single subscriber by email address.
func (r *SubscriberPostgres) FindByEmail(ctx context.Context, email string) (*model.Subscriber, error) {
	const q = `
		SELECT id, email, name, status, subscribed_at
		FROM subscriptions
		WHERE email = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, q, email))
}

// FindByID fetches a single subscriber by its ID.
func (r *SubscriberPostgres) FindByID(ctx context.Context, id string) (*model.Subscriber, error) {
	const q = `
		SELECT id, email, name, status, subscribed_at
		FROM subscriptions
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

func (r *SubscriberPostgres) scanOne(row *sql.Row) (*model.Subscriber, error) {
	var s model.Subscriber
	if err := row.Scan(
		&s.ID,
		&s.Email,
		&s.Name,
		&s.Status,
		&s.SubscribedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateStatus sets the status of the subscriber with the given ID.
// It returns sql.ErrNoRows when no subscriber matched.
func (r *SubscriberPostgres) UpdateStatus(ctx context.Context, id, status string) error {
	const q = `UPDATE subscriptions SET status = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns subscribers using LIMIT/OFFSET pagination and a total count.
func (r *SubscriberPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Subscriber], error) {
	// Count total rows
	const qCount = `SELECT COUNT(*) FROM subscriptions`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	// Fetch page
	const qList = `
		SELECT id, email, name, status, subscribed_at
		FROM subscriptions
		ORDER BY subscribed_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Subscriber, 0)
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(
			&s.ID,
			&s.Email,
			&s.Name,
			&s.Status,
			&s.SubscribedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Subscriber]{
		Items: items,
		Total: total,
	}, nil
}
