package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"newsletterapi/internal/model"
	"newsletterapi/internal/repository"
	"newsletterapi/internal/storage"
)

var (
	ErrIssueContentMissing = errors.New("issue title and both content parts are required")
	ErrIssueNotFound       = errors.New("newsletter issue not found")
	ErrArchiveNotFound     = errors.New("issue has no archived copy")
)

// archiveLinkExpiry bounds how long a presigned archive URL stays valid.
const archiveLinkExpiry = 15 * time.Minute

// IssueResult is the service-level DTO for an issue with its delivery stats.
type IssueResult struct {
	Issue model.NewsletterIssue `json:"issue"`
	Stats model.DeliveryStats   `json:"deliveries"`
}

// NewsletterService defines the use cases for publishing newsletter issues.
type NewsletterService interface {
	// Publish records a new issue, archives its rendered HTML to object
	// storage, and enqueues one delivery per confirmed subscriber. The
	// actual sending happens asynchronously in the delivery worker.
	Publish(ctx context.Context, title, textContent, htmlContent string) (*IssueResult, error)

	// Get returns an issue with its delivery stats.
	Get(ctx context.Context, id string) (*IssueResult, error)

	// ArchiveURL returns a short-lived download URL for the archived HTML
	// of a published issue.
	ArchiveURL(ctx context.Context, id string) (string, error)
}

// newsletterService is a concrete implementation of NewsletterService.
type newsletterService struct {
	issues repository.IssueRepository
	store  storage.Storage
}

// NewNewsletterService constructs a new NewsletterService.
// store may be nil when no object storage is configured; archiving is then skipped.
func NewNewsletterService(issues repository.IssueRepository, store storage.Storage) NewsletterService {
	return &newsletterService{issues: issues, store: store}
}

func (s *newsletterService) Publish(ctx context.Context, title, textContent, htmlContent string) (*IssueResult, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(textContent) == "" || strings.TrimSpace(htmlContent) == "" {
		return nil, ErrIssueContentMissing
	}

	now := time.Now().UTC()
	issue, err := s.issues.Create(ctx, &model.NewsletterIssue{
		ID:          uuid.New().String(),
		Title:       title,
		TextContent: textContent,
		HTMLContent: htmlContent,
		Status:      model.IssueStatusPublished,
		CreatedAt:   now,
		PublishedAt: &now,
	})
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}

	s.archiveIssue(ctx, issue)

	enqueued, err := s.issues.EnqueueDeliveries(ctx, issue.ID)
	if err != nil {
		return nil, fmt.Errorf("enqueue deliveries: %w", err)
	}

	return &IssueResult{
		Issue: *issue,
		Stats: model.DeliveryStats{Pending: enqueued},
	}, nil
}

// archiveIssue stores the rendered HTML in object storage. A failed archive
// never fails the publish: the issue body is already in the database.
func (s *newsletterService) archiveIssue(ctx context.Context, issue *model.NewsletterIssue) {
	if s.store == nil {
		return
	}

	key := fmt.Sprintf("issues/%s.html", issue.ID)
	r := strings.NewReader(issue.HTMLContent)
	_, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        int64(len(issue.HTMLContent)),
		ContentType: "text/html; charset=utf-8",
		Metadata: map[string]string{
			"issue-title": issue.Title,
		},
	})
	if err == nil {
		err = s.issues.SetArchivePath(ctx, issue.ID, key)
	}
	if err != nil {
		logEvent(map[string]any{
			"component":     "newsletter",
			"event":         "issue_archive_failed",
			"status":        "error",
			"issue_id":      issue.ID,
			"error_message": err.Error(),
		})
		return
	}
	issue.ArchivePath = key
}

func (s *newsletterService) Get(ctx context.Context, id string) (*IssueResult, error) {
	issue, err := s.issues.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIssueNotFound
		}
		return nil, err
	}
	stats, err := s.issues.DeliveryStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delivery stats: %w", err)
	}
	return &IssueResult{Issue: *issue, Stats: *stats}, nil
}

func (s *newsletterService) ArchiveURL(ctx context.Context, id string) (string, error) {
	issue, err := s.issues.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrIssueNotFound
		}
		return "", err
	}
	if s.store == nil || issue.ArchivePath == "" {
		return "", ErrArchiveNotFound
	}
	url, err := s.store.PresignGet(ctx, issue.ArchivePath, archiveLinkExpiry)
	if err != nil {
		return "", fmt.Errorf("presign archive url: %w", err)
	}
	return url, nil
}

func logEvent(data map[string]any) {
	data["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal log entry: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
