// Package notify sends transactional email for orders.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// HTTPMailer posts messages to a JSON mail API authenticated with a bearer key.
type HTTPMailer struct {
	url        string
	apiKey     string
	from       string
	httpClient *http.Client
}

func NewHTTPMailer(url, apiKey, from string) *HTTPMailer {
	return &HTTPMailer{
		url:    url,
		apiKey: apiKey,
		from:   from,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

func (m *HTTPMailer) Send(ctx context.Context, e Email) error {
	body, err := json.Marshal(sendRequest{
		From:    m.from,
		To:      []string{e.To},
		Subject: e.Subject,
		HTML:    e.HTML,
		Text:    e.Text,
	})
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail api status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}

// LogMailer only logs. It is used when no mail API is configured.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) Send(ctx context.Context, e Email) error {
	l := m.Logger
	if l == nil {
		l = logging.FromContext(ctx)
	}
	l.Info("email_skipped", "to", e.To, "subject", e.Subject)
	return nil
}
