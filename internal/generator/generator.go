package generator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

// Generator produces a reply for one email.
// Mocking this interface in tests removes the simulated think time.
type Generator interface {
	Generate(ctx context.Context, subject, body string) (string, error)
}

// Default canned pool, rotated deterministically across calls.
var defaultResponses = []string{
	"Thank you for your email. I will get back to you shortly.",
	"I appreciate your message, and I'll respond as soon as possible.",
	"Your inquiry has been received. I'll review it and reply soon.",
	"Thanks for reaching out. Expect a detailed response shortly.",
}

// Simulated mimics a language-model call: think time drawn from an
// exponential distribution (mean = scale) clamped to [min, max], then a
// canned response rotated from the pool.
type Simulated struct {
	scale   time.Duration
	min     time.Duration
	max     time.Duration
	pool    []string
	counter atomic.Uint64
}

// NewSimulated constructs the simulated generator. A nil or empty pool
// falls back to the default canned responses.
func NewSimulated(scale, min, max time.Duration, pool []string) *Simulated {
	if len(pool) == 0 {
		pool = defaultResponses
	}
	return &Simulated{scale: scale, min: min, max: max, pool: pool}
}

func (g *Simulated) Generate(ctx context.Context, subject, body string) (string, error) {
	delay := g.thinkTime()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
	}

	n := g.counter.Add(1) - 1
	text := g.pool[n%uint64(len(g.pool))]
	return fmt.Sprintf("Re: %s\n\n%s", subject, text), nil
}

func (g *Simulated) thinkTime() time.Duration {
	d := time.Duration(rand.ExpFloat64() * float64(g.scale))
	if d < g.min {
		d = g.min
	}
	if d > g.max {
		d = g.max
	}
	return d
}

var _ Generator = (*Simulated)(nil)
