package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotification indicates a notification could not be sent. Callers
// log and count it; it never fails the operation that produced it.
var ErrNotification = errors.New("notification failed")

// Email is one outbound message.
type Email struct {
	To       string `json:"to"`
	From     string `json:"from"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

// Mailer sends emails.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// HTTPMailer sends emails through a JSON mail API.
type HTTPMailer struct {
	APIURL     string
	APIKey     string
	httpClient *http.Client
}

// NewHTTPMailer constructs an HTTPMailer.
func NewHTTPMailer(apiURL, apiKey string) (*HTTPMailer, error) {
	if strings.TrimSpace(apiURL) == "" {
		return nil, fmt.Errorf("MAIL_API_URL is required")
	}
	return &HTTPMailer{
		APIURL: apiURL,
		APIKey: apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Send posts the email to the mail API.
func (m *HTTPMailer) Send(ctx context.Context, email Email) error {
	payload, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotification, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.APIURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotification, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.APIKey)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotification, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: mail API returned %d", ErrNotification, resp.StatusCode)
	}
	return nil
}

// LogMailer records sends in memory; used when no mail API is configured.
type LogMailer struct {
	Sent []Email
}

// Send appends the email to Sent.
func (m *LogMailer) Send(_ context.Context, email Email) error {
	m.Sent = append(m.Sent, email)
	return nil
}

var (
	_ Mailer = (*HTTPMailer)(nil)
	_ Mailer = (*LogMailer)(nil)
)
