package postgres

import (
	"context"
	"database/sql"

	"newsletterapi/internal/model"
	"newsletterapi/internal/repository"
)

// IssuePostgres is a PostgreSQL implementation of repository.IssueRepository.
type IssuePostgres struct {
	db *sql.DB
}

// NewIssuePostgres creates a new IssuePostgres repository.
func NewIssuePostgres(db *sql.DB) *IssuePostgres {
	return &IssuePostgres{db: db}
}

var _ repository.IssueRepository = (*IssuePostgres)(nil)

// Create inserts a new issue row and returns the stored record.
func (r *IssuePostgres) Create(ctx context.Context, issue *model.NewsletterIssue) (*model.NewsletterIssue, error) {
	const q = `
		INSERT INTO newsletter_issues (id, title, text_content, html_content, status, created_at, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, title, text_content, html_content, status, archive_path, created_at, published_at
	`
	row := r.db.QueryRowContext(ctx, q,
		issue.ID,
		issue.Title,
		issue.TextContent,
		issue.HTMLContent,
		issue.Status,
		issue.CreatedAt,
		issue.PublishedAt,
	)
	return scanIssue(row)
}

// FindByID fetches a single issue by its ID.
func (r *IssuePostgres) FindByID(ctx context.Context, id string) (*model.NewsletterIssue, error) {
	const q = `
		SELECT id, title, text_content, html_content, status, archive_path, created_at, published_at
		FROM newsletter_issues
		WHERE id = $1
	`
	return scanIssue(r.db.QueryRowContext(ctx, q, id))
}

func scanIssue(row *sql.Row) (*model.NewsletterIssue, error) {
	var i model.NewsletterIssue
	if err := row.Scan(
		&i.ID,
		&i.Title,
		&i.TextContent,
		&i.HTMLContent,
		&i.Status,
		&i.ArchivePath,
		&i.CreatedAt,
		&i.PublishedAt,
	); err != nil {
		return nil, err
	}
	return &i, nil
}

// SetArchivePath records the object storage key of the archived issue body.
func (r *IssuePostgres) SetArchivePath(ctx context.Context, id, path string) error {
	const q = `UPDATE newsletter_issues SET archive_path = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, path)
	return err
}

// EnqueueDeliveries creates one pending delivery row per confirmed subscriber.
func (r *IssuePostgres) EnqueueDeliveries(ctx context.Context, issueID string) (int, error) {
	const q = `
		INSERT INTO issue_deliveries (issue_id, subscriber_email, status)
		SELECT $1, email, $2
		FROM subscriptions
		WHERE status = $3
		ON CONFLICT (issue_id, subscriber_email) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, q, issueID, model.DeliveryStatusPending, model.StatusConfirmed)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// DequeuePending atomically claims up to limit pending deliveries.
// SKIP LOCKED keeps concurrent workers from claiming the same rows.
func (r *IssuePostgres) DequeuePending(ctx context.Context, limit int) ([]model.IssueDelivery, error) {
	const q = `
		UPDATE issue_deliveries
		SET status = $1, updated_at = now()
		WHERE (issue_id, subscriber_email) IN (
			SELECT issue_id, subscriber_email
			FROM issue_deliveries
			WHERE status = $2
			ORDER BY updated_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING issue_id, subscriber_email, status, attempts, updated_at
	`
	rows, err := r.db.QueryContext(ctx, q, model.DeliveryStatusSending, model.DeliveryStatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.IssueDelivery, 0)
	for rows.Next() {
		var d model.IssueDelivery
		if err := rows.Scan(
			&d.IssueID,
			&d.SubscriberEmail,
			&d.Status,
			&d.Attempts,
			&d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// MarkDelivery records the outcome of one send attempt.
func (r *IssuePostgres) MarkDelivery(ctx context.Context, issueID, email, status string, attempts int) error {
	const q = `
		UPDATE issue_deliveries
		SET status = $3, attempts = $4, updated_at = now()
		WHERE issue_id = $1 AND subscriber_email = $2
	`
	_, err := r.db.ExecContext(ctx, q, issueID, email, status, attempts)
	return err
}

// DeliveryStats aggregates delivery outcomes for an issue.
// Rows still claimed by a worker count as pending.
func (r *IssuePostgres) DeliveryStats(ctx context.Context, issueID string) (*model.DeliveryStats, error) {
	const q = `
		SELECT
			COUNT(*) FILTER (WHERE status IN ($2, $3)),
			COUNT(*) FILTER (WHERE status = $4),
			COUNT(*) FILTER (WHERE status = $5)
		FROM issue_deliveries
		WHERE issue_id = $1
	`
	var stats model.DeliveryStats
	err := r.db.QueryRowContext(ctx, q, issueID,
		model.DeliveryStatusPending,
		model.DeliveryStatusSending,
		model.DeliveryStatusSent,
		model.DeliveryStatusFailed,
	).Scan(&stats.Pending, &stats.Sent, &stats.Failed)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
