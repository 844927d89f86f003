package domain

import "errors"

// Sentinel errors used throughout the application.
// The API layer translates these to HTTP status codes via a single mapError function.
var (
	ErrMissingEmailID  = errors.New("email_id must not be empty")
	ErrInvalidDeadline = errors.New("deadline must not be negative")
	ErrDependencyCycle = errors.New("dependency cycle detected")
	ErrUnknownEmail    = errors.New("unknown email id")
	ErrAlreadyDone     = errors.New("email already marked done")
	ErrNoValidEmails   = errors.New("no valid emails after parsing")
	ErrRunNotFound     = errors.New("run not found")
)
