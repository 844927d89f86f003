package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/replyforge/email-responder/internal/client"
	"github.com/replyforge/email-responder/internal/config"
	"github.com/replyforge/email-responder/internal/domain"
	"github.com/replyforge/email-responder/internal/generator"
	"github.com/replyforge/email-responder/internal/ratelimiter"
	"github.com/replyforge/email-responder/internal/registry"
	"github.com/replyforge/email-responder/internal/scheduler"
	"github.com/replyforge/email-responder/internal/sink"
	"github.com/replyforge/email-responder/internal/worker"
)

// Hooks carries the metric callbacks injected by main. A zero value is valid.
type Hooks struct {
	Sink          sink.MetricHooks
	OnRunStarted  func()
	OnRunFinished func(state domain.RunState)
}

func (h *Hooks) fillDefaults() {
	if h.OnRunStarted == nil {
		h.OnRunStarted = func() {}
	}
	if h.OnRunFinished == nil {
		h.OnRunFinished = func(domain.RunState) {}
	}
}

// RunService owns the run lifecycle: trigger registers a run and processes
// the batch in the background; status reads come straight from the registry.
// Scheduler, sink, and pool are constructed fresh per run and discarded once
// every email is resolved.
type RunService struct {
	cfg       *config.Config
	fetcher   client.Fetcher
	deliverer client.Deliverer
	gen       generator.Generator
	repo      registry.RunRepository
	limiter   *ratelimiter.DeliveryLimiter
	logger    *zap.Logger
	hooks     Hooks

	// baseCtx bounds background processing; cancelled on shutdown.
	baseCtx context.Context
}

func NewRunService(
	baseCtx context.Context,
	cfg *config.Config,
	fetcher client.Fetcher,
	deliverer client.Deliverer,
	gen generator.Generator,
	repo registry.RunRepository,
	limiter *ratelimiter.DeliveryLimiter,
	logger *zap.Logger,
	hooks Hooks,
) *RunService {
	hooks.fillDefaults()
	return &RunService{
		cfg:       cfg,
		fetcher:   fetcher,
		deliverer: deliverer,
		gen:       gen,
		repo:      repo,
		limiter:   limiter,
		logger:    logger,
		hooks:     hooks,
		baseCtx:   baseCtx,
	}
}

// Trigger registers a new run and starts processing it in the background.
// The returned run id can be polled via Status immediately.
func (s *RunService) Trigger(ctx context.Context, testMode bool) (string, error) {
	run := &domain.Run{
		ID:        uuid.New().String(),
		State:     domain.RunStateRunning,
		TestMode:  testMode,
		StartedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, run); err != nil {
		return "", fmt.Errorf("register run: %w", err)
	}

	s.hooks.OnRunStarted()
	go s.process(run.ID, testMode)
	return run.ID, nil
}

// Status returns the current run snapshot. A missing id is reported as
// domain.ErrRunNotFound; the API layer presents it as state "unknown".
func (s *RunService) Status(ctx context.Context, id string) (*domain.Run, error) {
	return s.repo.GetByID(ctx, id)
}

// Counts returns per-state run totals for the JSON metrics snapshot.
func (s *RunService) Counts(ctx context.Context) (running, completed, failed int, err error) {
	return s.repo.Counts(ctx)
}

// process is the background body of one run. Every failure path finalizes
// the run as failed; nothing propagates past this boundary.
func (s *RunService) process(runID string, testMode bool) {
	ctx := s.baseCtx
	log := s.logger.With(zap.String("run_id", runID))
	log.Info("run started", zap.Bool("test_mode", testMode))

	raw, err := s.fetcher.FetchEmails(ctx, testMode)
	if err != nil {
		s.fail(ctx, runID, fmt.Sprintf("fetch emails: %v", err))
		return
	}
	log.Info("fetched emails", zap.Int("count", len(raw)))

	emails := s.parseEmails(raw, log)
	if len(emails) == 0 {
		s.fail(ctx, runID, domain.ErrNoValidEmails.Error())
		return
	}
	if err := s.repo.SetEmailCount(ctx, runID, len(emails)); err != nil {
		log.Warn("failed to record email count", zap.Error(err))
	}

	sched, err := scheduler.New(emails)
	if err != nil {
		// A cycle aborts the whole run before any email is processed.
		s.fail(ctx, runID, fmt.Sprintf("build scheduler: %v", err))
		return
	}

	snk := sink.New(s.deliverer, s.limiter, s.cfg.MaxRetries, s.cfg.BaseBackoff, log, s.hooks.Sink)
	pool := worker.NewPool(sched, s.gen, snk, worker.Options{
		WorkerCount:      s.cfg.WorkerCount,
		TargetLead:       s.cfg.TargetLead,
		InterReleaseGap:  s.cfg.InterReleaseGap,
		IdlePollInterval: s.cfg.IdlePollInterval,
		APIKey:           s.cfg.APIKey,
		TestMode:         testMode,
	}, log)

	pool.Run(ctx)

	counters := snk.Counters()
	if err := s.repo.MarkCompleted(ctx, runID, counters); err != nil {
		log.Error("failed to finalize run", zap.Error(err))
	}
	s.hooks.OnRunFinished(domain.RunStateCompleted)
	log.Info("run completed",
		zap.Int64("success_count", counters.SuccessCount),
		zap.Int64("failure_count", counters.FailureCount),
		zap.Int64("retry_count", counters.RetryCount),
	)
}

// parseEmails validates each raw item individually. Malformed items are
// skipped with a warning so one bad email never sinks the batch.
func (s *RunService) parseEmails(raw []json.RawMessage, log *zap.Logger) []domain.Email {
	fetchStartNS := time.Now().UnixNano()

	emails := make([]domain.Email, 0, len(raw))
	for i, msg := range raw {
		var in domain.InboundEmail
		if err := json.Unmarshal(msg, &in); err != nil {
			log.Warn("skipping malformed email", zap.Int("index", i), zap.Error(err))
			continue
		}
		if err := in.Validate(); err != nil {
			log.Warn("skipping invalid email",
				zap.Int("index", i), zap.String("email_id", in.EmailID), zap.Error(err))
			continue
		}
		emails = append(emails, domain.NewEmail(in, fetchStartNS))
	}
	return emails
}

func (s *RunService) fail(ctx context.Context, runID, msg string) {
	s.logger.Error("run failed", zap.String("run_id", runID), zap.String("reason", msg))
	if err := s.repo.MarkFailed(ctx, runID, msg); err != nil {
		s.logger.Error("failed to record run failure",
			zap.String("run_id", runID), zap.Error(err))
	}
	s.hooks.OnRunFinished(domain.RunStateFailed)
}
