package registry

import (
	"context"

	"github.com/replyforge/email-responder/internal/domain"
)

// RunRepository owns the id → run mapping: inserted at trigger time, updated
// by the run as it progresses, read by status queries.
// The pgx implementation is in pg_run_repo.go; the in-memory one
// (memory_run_repo.go) backs tests and database-less deployments.
type RunRepository interface {
	Create(ctx context.Context, run *domain.Run) error
	GetByID(ctx context.Context, id string) (*domain.Run, error)

	// SetEmailCount records the parsed batch size once fetching succeeds.
	SetEmailCount(ctx context.Context, id string, count int) error

	// MarkCompleted finalizes a successful run with its counters.
	MarkCompleted(ctx context.Context, id string, counters domain.Counters) error

	// MarkFailed finalizes a failed run with the terminal error message.
	MarkFailed(ctx context.Context, id string, errMsg string) error

	// Counts returns how many runs are in each terminal/active state.
	Counts(ctx context.Context) (running, completed, failed int, err error)
}
