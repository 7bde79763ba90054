package model

import "time"

// Issue publication status.
const (
	IssueStatusPublished = "published"
)

// Delivery statuses for a single (issue, subscriber) send.
const (
	DeliveryStatusPending = "pending"
	DeliveryStatusSending = "sending"
	DeliveryStatusSent    = "sent"
	DeliveryStatusFailed  = "failed"
)

// NewsletterIssue represents a published newsletter edition.
// ArchivePath points at the rendered HTML copy in object storage and is
// empty when archiving was skipped or failed.
type NewsletterIssue struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	TextContent string     `json:"text_content"`
	HTMLContent string     `json:"html_content"`
	Status      string     `json:"status"`
	ArchivePath string     `json:"archive_path,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// IssueDelivery is one outbound send of an issue to a subscriber.
type IssueDelivery struct {
	IssueID         string    `json:"issue_id"`
	SubscriberEmail string    `json:"subscriber_email"`
	Status          string    `json:"status"`
	Attempts        int       `json:"attempts"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DeliveryStats aggregates delivery outcomes for an issue.
type DeliveryStats struct {
	Pending int `json:"pending"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}
