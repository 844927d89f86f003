package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/replyforge/email-responder/internal/domain"
)

// StatusError reports a non-2xx response from the downstream endpoint.
// The sink uses the classification to decide between dropping and retrying.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.Code)
}

// IsClientError reports a 4xx rejection — permanent, never retried.
func (e *StatusError) IsClientError() bool {
	return e.Code >= 400 && e.Code < 500
}

// IsServerError reports a 5xx failure — transient, retried with backoff.
func (e *StatusError) IsServerError() bool {
	return e.Code >= 500
}

// Fetcher retrieves the raw inbound batch. Items come back as raw JSON so a
// single malformed element can be skipped without discarding the whole batch.
// Mocking this interface in tests gives full control over the upstream
// without making real HTTP calls.
type Fetcher interface {
	FetchEmails(ctx context.Context, testMode bool) ([]json.RawMessage, error)
}

// Deliverer performs the network write for one generated response.
type Deliverer interface {
	DeliverResponse(ctx context.Context, payload domain.ResponsePayload) error
}
