// Package mailer sends transactional email through the Resend HTTP API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.resend.com"
	errorBodyLimit = 200
)

var ErrMissingAPIKey = errors.New("mailer: Resend API key is required")

// Sender delivers a single email message.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

type ResendClient struct {
	apiKey     string
	from       string
	baseURL    string
	httpClient *http.Client
}

type ResendConfig struct {
	// APIKey is the Resend secret key. Required.
	APIKey string
	// From is the sender address, optionally with a display name.
	From string
	// BaseURL overrides the API endpoint, used in tests.
	BaseURL string
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

func NewResendClient(cfg ResendConfig) (*ResendClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &ResendClient{
		apiKey:     cfg.APIKey,
		from:       cfg.From,
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
	}, nil
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (c *ResendClient) Send(ctx context.Context, to, subject, html string) error {
	payload, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return fmt.Errorf("resend returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
