// Package worker contains the background newsletter delivery dispatcher.
package worker

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"newsletterapi/internal/config"
	"newsletterapi/internal/model"
	"newsletterapi/internal/repository"
	"newsletterapi/internal/service"
)

// DeliveryWorker drains the issue_deliveries queue and sends the emails.
// Multiple instances can run against the same database; the claim query
// keeps them from picking the same rows.
type DeliveryWorker struct {
	issues repository.IssueRepository
	sender service.Sender
	cfg    config.DeliveryConfig
	loc    *time.Location

	sentTotal   prometheus.Counter
	failedTotal prometheus.Counter
}

// NewDeliveryWorker creates a delivery worker and registers its metrics.
func NewDeliveryWorker(
	issues repository.IssueRepository,
	sender service.Sender,
	cfg config.DeliveryConfig,
	loc *time.Location,
	reg prometheus.Registerer,
) (*DeliveryWorker, error) {
	w := &DeliveryWorker{
		issues: issues,
		sender: sender,
		cfg:    cfg,
		loc:    loc,
		sentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsletter_emails_sent_total",
			Help: "Total number of newsletter emails delivered successfully.",
		}),
		failedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsletter_emails_failed_total",
			Help: "Total number of newsletter emails that exhausted their attempts.",
		}),
	}
	if w.cfg.Workers <= 0 {
		w.cfg.Workers = 1
	}
	if w.cfg.BatchSize <= 0 {
		w.cfg.BatchSize = 50
	}
	if w.cfg.MaxAttempts <= 0 {
		w.cfg.MaxAttempts = 3
	}
	if w.cfg.PollIntervalSec <= 0 {
		w.cfg.PollIntervalSec = 5
	}
	if reg != nil {
		if err := reg.Register(w.sentTotal); err != nil {
			return nil, err
		}
		if err := reg.Register(w.failedTotal); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Run processes delivery batches until the context is cancelled.
// An empty batch pauses for the poll interval before trying again.
func (w *DeliveryWorker) Run(ctx context.Context) error {
	w.logJSON(map[string]any{
		"component": "delivery_worker",
		"event":     "worker_started",
		"status":    "success",
		"workers":   w.cfg.Workers,
	})

	interval := time.Duration(w.cfg.PollIntervalSec) * time.Second
	for {
		n, err := w.ProcessBatch(ctx)
		if err != nil {
			w.logJSON(map[string]any{
				"component":     "delivery_worker",
				"event":         "batch_failed",
				"status":        "error",
				"error_message": err.Error(),
			})
		}
		if n > 0 {
			// More work may be waiting; go straight back for another batch.
			continue
		}

		select {
		case <-ctx.Done():
			w.logJSON(map[string]any{
				"component": "delivery_worker",
				"event":     "worker_stopped",
				"status":    "success",
			})
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// ProcessBatch claims one batch of pending deliveries and sends them with
// bounded concurrency. It returns the number of deliveries processed.
func (w *DeliveryWorker) ProcessBatch(ctx context.Context) (int, error) {
	deliveries, err := w.issues.DequeuePending(ctx, w.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(deliveries) == 0 {
		return 0, nil
	}

	// Issue bodies are shared by every delivery of the same issue; fetch
	// each one once per batch.
	var mu sync.Mutex
	issueCache := make(map[string]*model.NewsletterIssue)
	issueFor := func(id string) (*model.NewsletterIssue, error) {
		mu.Lock()
		defer mu.Unlock()
		if issue, ok := issueCache[id]; ok {
			return issue, nil
		}
		issue, err := w.issues.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		issueCache[id] = issue
		return issue, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.Workers)
	for _, d := range deliveries {
		d := d
		g.Go(func() error {
			w.deliver(gctx, d, issueFor)
			return nil
		})
	}
	_ = g.Wait()
	return len(deliveries), nil
}

// deliver sends one email and records the outcome. Send failures requeue the
// delivery until its attempts are exhausted.
func (w *DeliveryWorker) deliver(ctx context.Context, d model.IssueDelivery, issueFor func(string) (*model.NewsletterIssue, error)) {
	attempts := d.Attempts + 1

	issue, err := issueFor(d.IssueID)
	if err == nil {
		err = w.sender.Send(ctx, d.SubscriberEmail, issue.Title, issue.HTMLContent, issue.TextContent)
	}

	if err == nil {
		w.sentTotal.Inc()
		w.mark(ctx, d, model.DeliveryStatusSent, attempts)
		return
	}

	status := model.DeliveryStatusPending
	if attempts >= w.cfg.MaxAttempts {
		status = model.DeliveryStatusFailed
		w.failedTotal.Inc()
	}
	w.logJSON(map[string]any{
		"component":     "delivery_worker",
		"event":         "delivery_attempt_failed",
		"status":        "error",
		"issue_id":      d.IssueID,
		"recipient":     d.SubscriberEmail,
		"attempts":      attempts,
		"final":         status == model.DeliveryStatusFailed,
		"error_message": err.Error(),
	})
	w.mark(ctx, d, status, attempts)
}

func (w *DeliveryWorker) mark(ctx context.Context, d model.IssueDelivery, status string, attempts int) {
	if err := w.issues.MarkDelivery(ctx, d.IssueID, d.SubscriberEmail, status, attempts); err != nil {
		w.logJSON(map[string]any{
			"component":     "delivery_worker",
			"event":         "mark_delivery_failed",
			"status":        "error",
			"issue_id":      d.IssueID,
			"recipient":     d.SubscriberEmail,
			"error_message": err.Error(),
		})
	}
}

func (w *DeliveryWorker) logJSON(data map[string]any) {
	loc := w.loc
	if loc == nil {
		loc = time.UTC
	}
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal worker log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
