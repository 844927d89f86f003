package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/replyforge/email-responder/internal/domain"
)

type pgRunRepository struct {
	pool *pgxpool.Pool
}

// NewPgRunRepository returns a RunRepository backed by PostgreSQL.
// Run history survives restarts; the scheduler state itself does not.
func NewPgRunRepository(pool *pgxpool.Pool) RunRepository {
	return &pgRunRepository{pool: pool}
}

func (r *pgRunRepository) Create(ctx context.Context, run *domain.Run) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO runs
			(id, state, email_count, success_count, failure_count, retry_count,
			 test_mode, error_message, started_at, finished_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		run.ID, run.State, run.EmailCount,
		run.Counters.SuccessCount, run.Counters.FailureCount, run.Counters.RetryCount,
		run.TestMode, run.ErrorMessage, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (r *pgRunRepository) GetByID(ctx context.Context, id string) (*domain.Run, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, state, email_count, success_count, failure_count, retry_count,
		       test_mode, error_message, started_at, finished_at
		FROM runs WHERE id = $1`, id)

	var run domain.Run
	err := row.Scan(
		&run.ID, &run.State, &run.EmailCount,
		&run.Counters.SuccessCount, &run.Counters.FailureCount, &run.Counters.RetryCount,
		&run.TestMode, &run.ErrorMessage, &run.StartedAt, &run.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

func (r *pgRunRepository) SetEmailCount(ctx context.Context, id string, count int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE runs SET email_count = $1 WHERE id = $2`, count, id)
	return err
}

func (r *pgRunRepository) MarkCompleted(ctx context.Context, id string, counters domain.Counters) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE runs
		SET state = $1, success_count = $2, failure_count = $3, retry_count = $4,
		    finished_at = $5
		WHERE id = $6`,
		domain.RunStateCompleted,
		counters.SuccessCount, counters.FailureCount, counters.RetryCount,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark run completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

func (r *pgRunRepository) MarkFailed(ctx context.Context, id string, errMsg string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE runs
		SET state = $1, error_message = $2, finished_at = $3
		WHERE id = $4`,
		domain.RunStateFailed, errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark run failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

func (r *pgRunRepository) Counts(ctx context.Context) (running, completed, failed int, err error) {
	rows, err := r.pool.Query(ctx,
		`SELECT state, COUNT(*) FROM runs GROUP BY state`)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("count runs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var state domain.RunState
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return 0, 0, 0, err
		}
		switch state {
		case domain.RunStateRunning:
			running = n
		case domain.RunStateCompleted:
			completed = n
		case domain.RunStateFailed:
			failed = n
		}
	}
	return running, completed, failed, rows.Err()
}
