package scheduler_test

import (
	"errors"
	"testing"

	"github.com/replyforge/email-responder/internal/domain"
	"github.com/replyforge/email-responder/internal/scheduler"
)

func email(id string, deadline float64, deps ...string) domain.Email {
	return domain.NewEmail(domain.InboundEmail{
		EmailID:      id,
		Subject:      id,
		Body:         "",
		Deadline:     deadline,
		Dependencies: deps,
	}, 0)
}

func popID(t *testing.T, s *scheduler.Scheduler) string {
	t.Helper()
	e, ok := s.PopReady()
	if !ok {
		t.Fatal("expected a ready email, queue was empty")
	}
	return e.ID
}

func TestScheduler_DeadlineOrderAndDependencies(t *testing.T) {
	s, err := scheduler.New([]domain.Email{
		email("A", 1.0),
		email("B", 2.0, "A"),
		email("C", 1.5, "A"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Initially only A is ready.
	if got := popID(t, s); got != "A" {
		t.Fatalf("expected A first, got %s", got)
	}
	if _, ok := s.PopReady(); ok {
		t.Fatal("B and C must stay blocked until A is marked done")
	}

	// Marking A done unlocks C and B; C has the earlier deadline.
	if err := s.MarkDone("A"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := popID(t, s); got != "C" {
		t.Fatalf("expected C before B, got %s", got)
	}
	if got := popID(t, s); got != "B" {
		t.Fatalf("expected B last, got %s", got)
	}
}

func TestScheduler_CycleDetection(t *testing.T) {
	_, err := scheduler.New([]domain.Email{
		email("X", 1.0, "Y"),
		email("Y", 1.0, "X"),
	})
	if !errors.Is(err, domain.ErrDependencyCycle) {
		t.Fatalf("expected ErrDependencyCycle, got %v", err)
	}
}

func TestScheduler_SelfDependency(t *testing.T) {
	_, err := scheduler.New([]domain.Email{email("A", 1.0, "A")})
	if !errors.Is(err, domain.ErrDependencyCycle) {
		t.Fatalf("expected ErrDependencyCycle, got %v", err)
	}
}

func TestScheduler_LongerCycle(t *testing.T) {
	_, err := scheduler.New([]domain.Email{
		email("A", 1.0, "C"),
		email("B", 1.0, "A"),
		email("C", 1.0, "B"),
		email("D", 1.0), // independent of the cycle, construction still fails
	})
	if !errors.Is(err, domain.ErrDependencyCycle) {
		t.Fatalf("expected ErrDependencyCycle, got %v", err)
	}
}

func TestScheduler_UnknownDependency(t *testing.T) {
	_, err := scheduler.New([]domain.Email{email("A", 1.0, "ghost")})
	if !errors.Is(err, domain.ErrUnknownEmail) {
		t.Fatalf("expected ErrUnknownEmail, got %v", err)
	}
}

func TestScheduler_DeadlineTieBreaksByID(t *testing.T) {
	s, err := scheduler.New([]domain.Email{
		email("b", 1.0),
		email("a", 1.0),
		email("c", 1.0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"a", "b", "c"} {
		if got := popID(t, s); got != want {
			t.Fatalf("expected %s, got %s", want, got)
		}
	}
}

func TestScheduler_MarkDoneExactlyOnce(t *testing.T) {
	s, err := scheduler.New([]domain.Email{email("A", 1.0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.MarkDone("A"); err != nil {
		t.Fatalf("first MarkDone: unexpected error: %v", err)
	}
	if err := s.MarkDone("A"); err != domain.ErrAlreadyDone {
		t.Fatalf("expected ErrAlreadyDone, got %v", err)
	}
	if err := s.MarkDone("nope"); err != domain.ErrUnknownEmail {
		t.Fatalf("expected ErrUnknownEmail, got %v", err)
	}
}

func TestScheduler_HasPendingWorkTermination(t *testing.T) {
	s, err := scheduler.New([]domain.Email{
		email("A", 1.0),
		email("B", 2.0, "A"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !s.HasPendingWork() {
		t.Fatal("expected pending work before any pop")
	}

	_ = popID(t, s)
	if !s.HasPendingWork() {
		t.Fatal("A popped but not done: B still pending")
	}
	_ = s.MarkDone("A")

	_ = popID(t, s)
	if !s.HasPendingWork() {
		t.Fatal("B popped but not done: still pending")
	}
	_ = s.MarkDone("B")

	if s.HasPendingWork() {
		t.Fatal("expected no pending work after all emails marked done")
	}
}

// TestScheduler_NeverReadyBeforeDependenciesDone walks a diamond graph and
// checks that at every step, only emails with fully resolved dependencies
// are poppable.
func TestScheduler_NeverReadyBeforeDependenciesDone(t *testing.T) {
	s, err := scheduler.New([]domain.Email{
		email("root", 1.0),
		email("left", 2.0, "root"),
		email("right", 3.0, "root"),
		email("join", 4.0, "left", "right"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := popID(t, s); got != "root" {
		t.Fatalf("expected root, got %s", got)
	}
	if _, ok := s.PopReady(); ok {
		t.Fatal("nothing else should be ready before root completes")
	}
	_ = s.MarkDone("root")

	if got := popID(t, s); got != "left" {
		t.Fatalf("expected left, got %s", got)
	}
	_ = s.MarkDone("left")

	// join still blocked on right.
	if got := popID(t, s); got != "right" {
		t.Fatalf("expected right, got %s", got)
	}
	if _, ok := s.PopReady(); ok {
		t.Fatal("join must stay blocked until right completes")
	}
	_ = s.MarkDone("right")

	if got := popID(t, s); got != "join" {
		t.Fatalf("expected join, got %s", got)
	}
}

func TestScheduler_PopEmptyQueue(t *testing.T) {
	s, err := scheduler.New(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.PopReady(); ok {
		t.Fatal("expected ok=false on empty scheduler")
	}
	if s.HasPendingWork() {
		t.Fatal("empty scheduler has no pending work")
	}
}
