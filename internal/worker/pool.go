package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/replyforge/email-responder/internal/generator"
	"github.com/replyforge/email-responder/internal/scheduler"
	"github.com/replyforge/email-responder/internal/sink"
)

// Options carries the per-run tuning shared by every worker in the pool.
type Options struct {
	WorkerCount      int
	TargetLead       time.Duration
	InterReleaseGap  time.Duration
	IdlePollInterval time.Duration
	APIKey           string
	TestMode         bool
}

const defaultWorkerCount = 10

// Pool manages the lifecycle of all workers for one run. All workers share
// the same scheduler; earliest-deadline ordering is enforced by its single
// ready queue, not by the pool.
type Pool struct {
	workers []*Worker
	wg      sync.WaitGroup
}

// NewPool creates opts.WorkerCount identical workers (default 10).
func NewPool(
	sched *scheduler.Scheduler,
	gen generator.Generator,
	snk *sink.Sink,
	opts Options,
	logger *zap.Logger,
) *Pool {
	count := opts.WorkerCount
	if count <= 0 {
		count = defaultWorkerCount
	}

	workers := make([]*Worker, count)
	for i := range workers {
		workers[i] = NewWorker(
			i, sched, gen, snk, opts,
			logger.With(zap.Int("worker_id", i)),
		)
	}
	return &Pool{workers: workers}
}

// Run launches every worker and blocks until all of them have observed
// "ready queue empty and no pending work" (or ctx is cancelled). Each email
// is processed to completion once popped; cancellation only stops the pool
// between emails and during cooperative sleeps.
func (p *Pool) Run(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
	p.wg.Wait()
}
