package analysis

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Gate bounds how many analyses may be in flight at once, independently of
// the call-rate pacing. Admission is FIFO; every successful Admit must be
// paired with exactly one Release on every exit path.
type Gate struct {
	sem *semaphore.Weighted
}

// NewGate returns a gate admitting at most max concurrent tasks. A max below
// one is clamped to one so the gate can never deadlock on construction.
func NewGate(max int) *Gate {
	if max < 1 {
		max = 1
	}
	return &Gate{sem: semaphore.NewWeighted(int64(max))}
}

// Admit blocks until an admission slot is free or ctx is done. Cancellation
// is honored only here: work already admitted runs to completion.
func (g *Gate) Admit(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// Release returns an admission slot. It must be called exactly once per
// successful Admit.
func (g *Gate) Release() {
	g.sem.Release(1)
}
