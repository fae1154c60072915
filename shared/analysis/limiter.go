package analysis

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a minimum spacing between successive calls to the AI
// service. One instance is shared by the whole process: the spacing is the
// provider's abuse-prevention budget, not a per-request resource. Waiters
// are served first-come-first-served.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer returns a pacer that spaces calls by interval. A zero or negative
// interval disables pacing, which is the deterministic substitute tests use.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Acquire blocks until the interval since the previous acquisition has
// elapsed, or returns immediately if it already has. It fails only when ctx
// is done; at worst it delays.
func (p *Pacer) Acquire(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
