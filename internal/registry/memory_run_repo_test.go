package registry_test

import (
	"context"
	"testing"
	"time"

	"github.com/replyforge/email-responder/internal/domain"
	"github.com/replyforge/email-responder/internal/registry"
)

func newRun(id string) *domain.Run {
	return &domain.Run{
		ID:        id,
		State:     domain.RunStateRunning,
		StartedAt: time.Now().UTC(),
	}
}

func TestMemoryRunRepository_Lifecycle(t *testing.T) {
	repo := registry.NewMemoryRunRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, newRun("r1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.State != domain.RunStateRunning {
		t.Fatalf("expected running, got %s", got.State)
	}
	if got.FinishedAt != nil {
		t.Fatal("expected no finish time yet")
	}

	if err := repo.SetEmailCount(ctx, "r1", 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	counters := domain.Counters{SuccessCount: 5, FailureCount: 2, RetryCount: 3}
	if err := repo.MarkCompleted(ctx, "r1", counters); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err = repo.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.State != domain.RunStateCompleted {
		t.Fatalf("expected completed, got %s", got.State)
	}
	if got.EmailCount != 7 {
		t.Fatalf("expected email count 7, got %d", got.EmailCount)
	}
	if got.Counters != counters {
		t.Fatalf("expected counters %+v, got %+v", counters, got.Counters)
	}
	if got.FinishedAt == nil {
		t.Fatal("expected a finish time")
	}
}

func TestMemoryRunRepository_MarkFailed(t *testing.T) {
	repo := registry.NewMemoryRunRepository()
	ctx := context.Background()

	_ = repo.Create(ctx, newRun("r1"))
	if err := repo.MarkFailed(ctx, "r1", "fetch emails: boom"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := repo.GetByID(ctx, "r1")
	if got.State != domain.RunStateFailed {
		t.Fatalf("expected failed, got %s", got.State)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != "fetch emails: boom" {
		t.Fatalf("expected error message recorded, got %v", got.ErrorMessage)
	}
}

func TestMemoryRunRepository_NotFound(t *testing.T) {
	repo := registry.NewMemoryRunRepository()
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "ghost"); err != domain.ErrRunNotFound {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := repo.MarkCompleted(ctx, "ghost", domain.Counters{}); err != domain.ErrRunNotFound {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := repo.MarkFailed(ctx, "ghost", "x"); err != domain.ErrRunNotFound {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestMemoryRunRepository_Counts(t *testing.T) {
	repo := registry.NewMemoryRunRepository()
	ctx := context.Background()

	_ = repo.Create(ctx, newRun("a"))
	_ = repo.Create(ctx, newRun("b"))
	_ = repo.Create(ctx, newRun("c"))
	_ = repo.MarkCompleted(ctx, "b", domain.Counters{})
	_ = repo.MarkFailed(ctx, "c", "x")

	running, completed, failed, err := repo.Counts(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if running != 1 || completed != 1 || failed != 1 {
		t.Fatalf("expected 1/1/1, got %d/%d/%d", running, completed, failed)
	}
}

func TestMemoryRunRepository_GetReturnsClone(t *testing.T) {
	repo := registry.NewMemoryRunRepository()
	ctx := context.Background()

	_ = repo.Create(ctx, newRun("r1"))

	got, _ := repo.GetByID(ctx, "r1")
	got.State = domain.RunStateFailed // mutate the copy

	again, _ := repo.GetByID(ctx, "r1")
	if again.State != domain.RunStateRunning {
		t.Fatal("mutating a returned run must not affect the stored record")
	}
}
