package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/replyforge/email-responder/internal/domain"
)

// EmailClient talks to the upstream email endpoints.
// URLs and credentials are injected from config so tests can point to a local mock.
type EmailClient struct {
	emailsURL  string
	respondURL string
	apiKey     string
	httpClient *http.Client
}

func NewEmailClient(emailsURL, respondURL, apiKey string, timeout time.Duration) *EmailClient {
	return &EmailClient{
		emailsURL:  emailsURL,
		respondURL: respondURL,
		apiKey:     apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchEmails retrieves the inbound batch from the external service.
// Any failure here is fatal for the run; there is no internal retry.
func (c *EmailClient) FetchEmails(ctx context.Context, testMode bool) ([]json.RawMessage, error) {
	u, err := url.Parse(c.emailsURL)
	if err != nil {
		return nil, fmt.Errorf("parse emails URL: %w", err)
	}
	q := u.Query()
	q.Set("api_key", c.apiKey)
	if testMode {
		q.Set("test_mode", "true")
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch emails: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode emails: %w", err)
	}
	return raw, nil
}

// DeliverResponse posts one generated response payload.
// Non-2xx statuses are returned as *StatusError so the sink can classify them.
func (c *EmailClient) DeliverResponse(ctx context.Context, payload domain.ResponsePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.respondURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post response: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// compile-time checks that EmailClient implements both interfaces
var (
	_ Fetcher   = (*EmailClient)(nil)
	_ Deliverer = (*EmailClient)(nil)
)
