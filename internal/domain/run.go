package domain

import "time"

// RunState tracks the lifecycle of a processing run.
type RunState string

const (
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateFailed    RunState = "failed"

	// RunStateUnknown is never stored; it is the presentation of a
	// run id the registry has no record of.
	RunStateUnknown RunState = "unknown"
)

// Counters is the aggregate delivery outcome of one run.
// RetryCount increments once per retry performed, not per attempt.
type Counters struct {
	SuccessCount int64 `json:"success_count"`
	FailureCount int64 `json:"failure_count"`
	RetryCount   int64 `json:"retry_count"`
}

// Run is one end-to-end processing pass over a fetched batch.
type Run struct {
	ID           string     `json:"run_id"`
	State        RunState   `json:"state"`
	EmailCount   int        `json:"email_count"`
	Counters     Counters   `json:"counters"`
	TestMode     bool       `json:"test_mode"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}
