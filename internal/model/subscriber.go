// Package model contains domain models and their validation rules.
// Types here carry no database or transport dependencies and can be used
// across layers (HTTP, service, repository) without coupling to persistence.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Subscription lifecycle statuses.
const (
	StatusPendingConfirmation = "pending_confirmation"
	StatusConfirmed           = "confirmed"
)

var (
	ErrNameEmpty     = errors.New("subscriber name must not be empty")
	ErrNameTooLong   = errors.New("subscriber name must not exceed 256 characters")
	ErrNameForbidden = errors.New("subscriber name contains a forbidden character")
	ErrEmailInvalid  = errors.New("subscriber email is not valid")
)

// maxNameLen is the maximum accepted subscriber name length in runes.
const maxNameLen = 256

// forbiddenNameChars are rejected to keep names safe for embedding in
// emails and query output.
const forbiddenNameChars = `/()"<>\{}`

// ParseSubscriberName validates a raw subscriber name.
// It rejects empty or whitespace-only input, names longer than 256
// characters, and names containing any of / ( ) " < > \ { }.
func ParseSubscriberName(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrNameEmpty
	}
	if utf8.RuneCountInString(raw) > maxNameLen {
		return "", ErrNameTooLong
	}
	if strings.ContainsAny(raw, forbiddenNameChars) {
		return "", ErrNameForbidden
	}
	return raw, nil
}

// ParseSubscriberEmail validates a raw email address.
// The check is intentionally shallow: the confirmation email is the real
// proof of ownership, so only obviously broken addresses are rejected.
func ParseSubscriberEmail(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrEmailInvalid
	}
	if strings.ContainsAny(raw, " \t\r\n") {
		return "", ErrEmailInvalid
	}
	at := strings.Index(raw, "@")
	if at <= 0 || at == len(raw)-1 {
		return "", fmt.Errorf("%w: missing local part or domain", ErrEmailInvalid)
	}
	if strings.Count(raw, "@") != 1 {
		return "", ErrEmailInvalid
	}
	if !strings.Contains(raw[at+1:], ".") {
		return "", fmt.Errorf("%w: domain has no dot", ErrEmailInvalid)
	}
	return raw, nil
}

// Subscriber represents a newsletter subscriber.
type Subscriber struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	SubscribedAt time.Time `json:"subscribed_at"`
}
