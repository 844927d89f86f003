package domain

import (
	"encoding/json"
	"strings"
)

// DependencyList accepts both wire forms the upstream endpoint produces:
// a JSON array of ids, or a single comma-separated string ("a, b , c").
type DependencyList []string

func (d *DependencyList) UnmarshalJSON(data []byte) error {
	var asList []string
	if err := json.Unmarshal(data, &asList); err == nil {
		*d = asList
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return err
	}
	*d = ParseDependencies(asString)
	return nil
}

// ParseDependencies splits a comma-separated dependency string,
// trimming whitespace and dropping empty segments.
func ParseDependencies(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// InboundEmail is the raw email object as received from the GET endpoint.
// Deadline is in seconds relative to fetch time.
type InboundEmail struct {
	EmailID      string         `json:"email_id"`
	Subject      string         `json:"subject"`
	Body         string         `json:"body"`
	Deadline     float64        `json:"deadline"`
	Dependencies DependencyList `json:"dependencies"`
}

func (e *InboundEmail) Validate() error {
	if e.EmailID == "" {
		return ErrMissingEmailID
	}
	if e.Deadline < 0 {
		return ErrInvalidDeadline
	}
	return nil
}

// Email is the enriched internal representation. Immutable after creation:
// workers and the scheduler read it without synchronization.
type Email struct {
	ID           string
	Subject      string
	Body         string
	Dependencies []string

	// DeadlineNS is the absolute deadline in nanoseconds:
	// fetch-start plus the relative offset.
	DeadlineNS int64
}

// NewEmail converts a validated InboundEmail into its internal form,
// anchoring the relative deadline to fetchStartNS.
func NewEmail(raw InboundEmail, fetchStartNS int64) Email {
	return Email{
		ID:           raw.EmailID,
		Subject:      raw.Subject,
		Body:         raw.Body,
		Dependencies: append([]string(nil), raw.Dependencies...),
		DeadlineNS:   fetchStartNS + int64(raw.Deadline*1e9),
	}
}

// ResponsePayload is the body POSTed to the downstream responses endpoint.
type ResponsePayload struct {
	EmailID      string `json:"email_id"`
	ResponseBody string `json:"response_body"`
	APIKey       string `json:"api_key"`
	TestMode     string `json:"test_mode,omitempty"`
}
