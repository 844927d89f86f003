package sink

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/replyforge/email-responder/internal/client"
	"github.com/replyforge/email-responder/internal/domain"
	"github.com/replyforge/email-responder/internal/ratelimiter"
)

// Outcome is the classified result of delivering one response.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeClientError      Outcome = "client_error"
	OutcomeRetriesExhausted Outcome = "retries_exhausted"
	OutcomeInternalError    Outcome = "internal_error"
)

// MetricHooks carries the metric callbacks injected by main.
// All fields are optional; nil hooks are replaced with no-ops.
type MetricHooks struct {
	OnDelivered func(latency time.Duration)
	OnFailed    func(outcome Outcome)
	OnRetried   func()
}

func (h *MetricHooks) fillDefaults() {
	if h.OnDelivered == nil {
		h.OnDelivered = func(time.Duration) {}
	}
	if h.OnFailed == nil {
		h.OnFailed = func(Outcome) {}
	}
	if h.OnRetried == nil {
		h.OnRetried = func() {}
	}
}

// Sink delivers generated responses with retry/backoff and absorbs every
// failure into counters and logs. Send never reports an error to its caller:
// the worker loop proceeds to completion marking unconditionally, so a failed
// delivery can never starve dependent emails.
//
// Classification:
//   - 4xx       → terminal, dropped without retry
//   - 5xx       → retried with jittered exponential backoff
//   - transport → treated like 5xx
//
// maxRetries bounds the number of retries, so an email sees at most
// maxRetries+1 attempts. retryCount increments once per retry performed.
type Sink struct {
	deliverer   client.Deliverer
	limiter     *ratelimiter.DeliveryLimiter
	maxRetries  int
	baseBackoff time.Duration
	logger      *zap.Logger
	hooks       MetricHooks

	successCount atomic.Int64
	failureCount atomic.Int64
	retryCount   atomic.Int64
}

func New(
	deliverer client.Deliverer,
	limiter *ratelimiter.DeliveryLimiter,
	maxRetries int,
	baseBackoff time.Duration,
	logger *zap.Logger,
	hooks MetricHooks,
) *Sink {
	hooks.fillDefaults()
	return &Sink{
		deliverer:   deliverer,
		limiter:     limiter,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
		logger:      logger,
		hooks:       hooks,
	}
}

// Send posts the payload, retrying transient failures until success or
// exhaustion. The returned Outcome is informational only.
func (s *Sink) Send(ctx context.Context, payload domain.ResponsePayload) Outcome {
	log := s.logger.With(zap.String("email_id", payload.EmailID))

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.baseBackoff
	bo.Multiplier = 2
	// Uniform jitter in [0.8, 1.2] around each interval.
	bo.RandomizationFactor = 0.2
	bo.MaxInterval = time.Minute
	bo.MaxElapsedTime = 0
	bo.Reset()

	start := time.Now()
	for attempt := 0; ; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			// ctx cancelled while waiting for a token — shutdown in progress.
			s.failureCount.Add(1)
			s.hooks.OnFailed(OutcomeInternalError)
			return OutcomeInternalError
		}

		err := s.deliverer.DeliverResponse(ctx, payload)
		if err == nil {
			s.successCount.Add(1)
			s.hooks.OnDelivered(time.Since(start))
			return OutcomeSuccess
		}

		var statusErr *client.StatusError
		if errors.As(err, &statusErr) && statusErr.IsClientError() {
			s.failureCount.Add(1)
			s.hooks.OnFailed(OutcomeClientError)
			log.Error("client rejection, dropping without retry",
				zap.Int("status", statusErr.Code))
			return OutcomeClientError
		}

		// Server-side or transport failure — transient.
		log.Warn("transient delivery failure",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", s.maxRetries),
		)

		if attempt >= s.maxRetries {
			s.failureCount.Add(1)
			s.hooks.OnFailed(OutcomeRetriesExhausted)
			log.Error("retries exhausted", zap.Int("retries", attempt))
			return OutcomeRetriesExhausted
		}

		if !sleepCtx(ctx, bo.NextBackOff()) {
			s.failureCount.Add(1)
			s.hooks.OnFailed(OutcomeInternalError)
			return OutcomeInternalError
		}
		s.retryCount.Add(1)
		s.hooks.OnRetried()
	}
}

// RecordInternalFailure counts an upstream (non-delivery) per-email failure,
// e.g. a generation error caught at the worker boundary. The email is still
// marked done by the worker so dependents are never starved.
func (s *Sink) RecordInternalFailure(emailID string, cause error) {
	s.failureCount.Add(1)
	s.hooks.OnFailed(OutcomeInternalError)
	s.logger.Error("internal failure recorded",
		zap.String("email_id", emailID), zap.Error(cause))
}

// Counters returns a snapshot of the aggregate outcome counters.
func (s *Sink) Counters() domain.Counters {
	return domain.Counters{
		SuccessCount: s.successCount.Load(),
		FailureCount: s.failureCount.Load(),
		RetryCount:   s.retryCount.Load(),
	}
}

// sleepCtx sleeps for d, returning false if ctx was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
