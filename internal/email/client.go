// Package email contains the outbound transactional email client.
// The provider exposes a single POST {base}/email endpoint authenticated
// with an API key pair via HTTP Basic auth.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"newsletterapi/internal/config"
)

// Sender sends a single email to one recipient.
type Sender interface {
	Send(ctx context.Context, recipient, subject, htmlContent, textContent string) error
}

// Client is the HTTP client for the email provider API.
// It is safe for concurrent use by multiple goroutines.
type Client struct {
	httpClient *http.Client
	baseURL    string
	sender     party
	publicKey  string
	privateKey string
}

// The provider's wire format uses upper-cased field names.
type party struct {
	Email string `json:"Email"`
	Name  string `json:"Name"`
}

type message struct {
	From     party   `json:"From"`
	To       []party `json:"To"`
	Subject  string  `json:"Subject"`
	TextPart string  `json:"TextPart"`
	HTMLPart string  `json:"HTMLPart"`
}

type messages struct {
	Messages []message `json:"Messages"`
}

// NewClient creates a new email client from configuration.
// The underlying transport is traced via otelhttp.
func NewClient(cfg config.EmailConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("email base url is required")
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("email sender is required")
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		sender: party{
			Email: cfg.SenderEmail,
			Name:  cfg.SenderName,
		},
		publicKey:  cfg.PublicKey,
		privateKey: cfg.PrivateKey,
	}, nil
}

var _ Sender = (*Client)(nil)

// Send posts a single message to the provider's /email endpoint.
// A non-2xx response is reported as an error; the body is not read beyond
// what is needed for the error message.
func (c *Client) Send(ctx context.Context, recipient, subject, htmlContent, textContent string) error {
	body := messages{
		Messages: []message{
			{
				From:     c.sender,
				To:       []party{{Email: recipient, Name: "Recipient"}},
				Subject:  subject,
				TextPart: textContent,
				HTMLPart: htmlContent,
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	url := c.baseURL + "/email"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.publicKey, c.privateKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little of the body so the provider's error shows up in logs.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
