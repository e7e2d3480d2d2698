package solver

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter caps the number of in-flight fragment fetches for one solve
// session. A slot is held for the duration of one Get, including its
// retries. Each session gets its own limiter so concurrent sessions never
// share a parallelism budget.
type Limiter struct {
	sem *semaphore.Weighted
}

// NewLimiter returns a limiter allowing up to n concurrent fetches.
func NewLimiter(n int) *Limiter {
	return &Limiter{sem: semaphore.NewWeighted(int64(n))}
}

// Acquire blocks until a slot is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

// Release frees a slot.
func (l *Limiter) Release() {
	l.sem.Release(1)
}
