package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/replyforge/email-responder/internal/domain"
	"github.com/replyforge/email-responder/internal/generator"
	"github.com/replyforge/email-responder/internal/scheduler"
	"github.com/replyforge/email-responder/internal/sink"
)

// Worker is a single goroutine that repeatedly pulls the earliest-deadline
// ready email from the shared scheduler, times its release against the
// deadline window, generates a reply, hands it to the sink, and marks
// completion so dependents unlock.
type Worker struct {
	id    int
	sched *scheduler.Scheduler
	gen   generator.Generator
	snk   *sink.Sink

	targetLead time.Duration
	releaseGap time.Duration
	idlePoll   time.Duration
	apiKey     string
	testMode   bool

	logger *zap.Logger
}

func NewWorker(
	id int,
	sched *scheduler.Scheduler,
	gen generator.Generator,
	snk *sink.Sink,
	opts Options,
	logger *zap.Logger,
) *Worker {
	return &Worker{
		id:         id,
		sched:      sched,
		gen:        gen,
		snk:        snk,
		targetLead: opts.TargetLead,
		releaseGap: opts.InterReleaseGap,
		idlePoll:   opts.IdlePollInterval,
		apiKey:     opts.APIKey,
		testMode:   opts.TestMode,
		logger:     logger,
	}
}

// Run loops until the scheduler reports no pending work or ctx is cancelled.
// An empty ready queue with work still blocked on dependencies is not
// termination: the worker idle-polls, since another worker's completion may
// unlock new emails at any moment.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Debug("worker started")
	for {
		email, ok := w.sched.PopReady()
		if !ok {
			if !w.sched.HasPendingWork() {
				w.logger.Debug("worker finished: no pending work")
				return
			}
			if !sleepCtx(ctx, w.idlePoll) {
				w.logger.Debug("worker stopping: context cancelled")
				return
			}
			continue
		}
		w.process(ctx, email)
	}
}

func (w *Worker) process(ctx context.Context, email domain.Email) {
	log := w.logger.With(zap.String("email_id", email.ID))

	// Hold the email back so generation think time lands the delivery near
	// (but before) the deadline. A non-positive lead means we are already
	// inside the window or past it — proceed immediately, lateness is
	// best-effort and never an error.
	lead := time.Duration(email.DeadlineNS-time.Now().UnixNano()) - w.targetLead
	if lead > 0 {
		if !sleepCtx(ctx, lead) {
			// Shutting down; still mark done so accounting stays consistent.
			w.markDone(email.ID, log)
			return
		}
	}

	text, err := w.gen.Generate(ctx, email.Subject, email.Body)
	if err != nil {
		// Caught at the worker boundary: recorded as a terminal per-email
		// failure, and the email is still marked done below so dependents
		// are never starved by an upstream failure.
		w.snk.RecordInternalFailure(email.ID, err)
	} else {
		payload := domain.ResponsePayload{
			EmailID:      email.ID,
			ResponseBody: text,
			APIKey:       w.apiKey,
		}
		if w.testMode {
			payload.TestMode = "true"
		}
		outcome := w.snk.Send(ctx, payload)
		log.Debug("delivery finished", zap.String("outcome", string(outcome)))
	}

	// Minimum spacing between this completion and the release of its
	// dependents, preventing simultaneous bursts of unlocked emails.
	sleepCtx(ctx, w.releaseGap)

	w.markDone(email.ID, log)
}

func (w *Worker) markDone(id string, log *zap.Logger) {
	if err := w.sched.MarkDone(id); err != nil {
		log.Error("mark done failed", zap.Error(err))
	}
}

// sleepCtx sleeps for d, returning false if ctx was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
