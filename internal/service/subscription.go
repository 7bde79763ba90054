package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"newsletterapi/internal/model"
	"newsletterapi/internal/repository"
)

var (
	ErrInvalidName   = errors.New("invalid subscriber name")
	ErrInvalidEmail  = errors.New("invalid subscriber email")
	ErrTokenNotFound = errors.New("subscription token not found")
)

// SubscriberListResult is the service-level DTO for paginated subscribers.
type SubscriberListResult struct {
	Items []model.Subscriber `json:"data"`
	Total int                `json:"total"`
}

// SubscriptionService defines the use cases for managing subscriptions.
type SubscriptionService interface {
	// Subscribe registers a new pending subscriber and emails them a
	// confirmation link. Subscribing an already-confirmed email is a no-op.
	Subscribe(ctx context.Context, name, email string) (*model.Subscriber, error)

	// Confirm marks the subscriber owning the token as confirmed and
	// invalidates the token.
	Confirm(ctx context.Context, token string) error

	// List returns subscribers using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*SubscriberListResult, error)
}

// subscriptionService is a concrete implementation of SubscriptionService.
type subscriptionService struct {
	subscribers repository.SubscriberRepository
	tokens      repository.TokenRepository
	sender      Sender
	baseURL     string
}

// Sender is the outbound email dependency of the service layer.
// It matches email.Sender; redeclared here so services depend on behavior,
// not on the email package.
type Sender interface {
	Send(ctx context.Context, recipient, subject, htmlContent, textContent string) error
}

// NewSubscriptionService constructs a new SubscriptionService.
// baseURL is the public base URL used to build confirmation links.
func NewSubscriptionService(
	subscribers repository.SubscriberRepository,
	tokens repository.TokenRepository,
	sender Sender,
	baseURL string,
) SubscriptionService {
	return &subscriptionService{
		subscribers: subscribers,
		tokens:      tokens,
		sender:      sender,
		baseURL:     baseURL,
	}
}

func (s *subscriptionService) Subscribe(ctx context.Context, name, email string) (*model.Subscriber, error) {
	validName, err := model.ParseSubscriberName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	validEmail, err := model.ParseSubscriberEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}

	sub, err := s.subscribers.FindByEmail(ctx, validEmail)
	switch {
	case err == nil && sub.Status == model.StatusConfirmed:
		// Already confirmed: nothing to do, do not resend.
		return sub, nil
	case err == nil:
		// Pending subscriber asking again: reuse the row, refresh the token.
	case errors.Is(err, sql.ErrNoRows):
		sub, err = s.subscribers.Create(ctx, &model.Subscriber{
			ID:           uuid.New().String(),
			Email:        validEmail,
			Name:         validName,
			Status:       model.StatusPendingConfirmation,
			SubscribedAt: time.Now().UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("create subscriber: %w", err)
		}
	default:
		return nil, fmt.Errorf("find subscriber: %w", err)
	}

	token, err := generateSubscriptionToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	if err := s.tokens.Store(ctx, token, sub.ID); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	if err := s.sendConfirmationEmail(ctx, sub, token); err != nil {
		return nil, fmt.Errorf("send confirmation email: %w", err)
	}
	return sub, nil
}

func (s *subscriptionService) sendConfirmationEmail(ctx context.Context, sub *model.Subscriber, token string) error {
	link := fmt.Sprintf("%s/subscriptions/confirm?subscription_token=%s", s.baseURL, token)
	text := fmt.Sprintf(
		"Welcome to our newsletter!\nVisit %s to confirm your subscription.",
		link,
	)
	html := fmt.Sprintf(
		"Welcome to our newsletter!<br />Click <a href=\"%s\">here</a> to confirm your subscription.",
		link,
	)
	return s.sender.Send(ctx, sub.Email, "Welcome!", html, text)
}

func (s *subscriptionService) Confirm(ctx context.Context, token string) error {
	if token == "" {
		return ErrTokenNotFound
	}
	subscriberID, err := s.tokens.FindSubscriberID(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("find token: %w", err)
	}

	if err := s.subscribers.UpdateStatus(ctx, subscriberID, model.StatusConfirmed); err != nil {
		return fmt.Errorf("confirm subscriber: %w", err)
	}

	// A confirmed subscriber no longer needs the token. Failure here is not
	// fatal: the token resolves to an already-confirmed subscriber.
	_ = s.tokens.DeleteForSubscriber(ctx, subscriberID)
	return nil
}

// List returns paginated subscribers without exposing repository types.
func (s *subscriptionService) List(ctx context.Context, limit, offset int) (*SubscriberListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.subscribers.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &SubscriberListResult{Items: res.Items, Total: res.Total}, nil
}

// tokenAlphabet and tokenLength define the shape of confirmation tokens:
// 25 case-sensitive alphanumeric characters.
const (
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	tokenLength   = 25
)

func generateSubscriptionToken() (string, error) {
	buf := make([]byte, tokenLength)
	alphabetLen := big.NewInt(int64(len(tokenAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}
	return string(buf), nil
}
