// Package mailer holds the bound client for a transactional-email
// provider with a Resend-shaped HTTP API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultBaseURL = "https://api.resend.com"

// Client is an email client bound to a single API key.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates a client for apiKey.
func New(apiKey, baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" || strings.ContainsAny(apiKey, " \t\n") {
		return nil, fmt.Errorf("mailer: malformed api key")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Email is one outgoing message.
type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// SendResult identifies an accepted message.
type SendResult struct {
	ID string `json:"id"`
}

// APIError is a non-2xx provider response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mailer: http %d: %s", e.Status, e.Body)
}

func (e *APIError) HTTPStatus() int { return e.Status }

// Send submits one email. Each call carries a fresh idempotency key so a
// retried attempt after an ambiguous failure cannot double-send.
func (c *Client) Send(ctx context.Context, email Email) (*SendResult, error) {
	payload, err := json.Marshal(email)
	if err != nil {
		return nil, fmt.Errorf("mailer: marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("mailer: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mailer: call provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("mailer: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out SendResult
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("mailer: decode response: %w", err)
	}
	return &out, nil
}
