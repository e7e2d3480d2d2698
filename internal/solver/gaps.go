package solver

import (
	"context"
	"sync"
	"sync/atomic"
)

// StopReason records why the gap resolver stopped. All reasons are normal
// outcomes; none of them is an error.
type StopReason string

const (
	// StopComplete: nothing is missing and both boundaries are confirmed.
	StopComplete StopReason = "complete"

	// StopBudget: the round budget or the session deadline ran out with
	// fragments still missing.
	StopBudget StopReason = "budget_exhausted"

	// StopNoProgress: a full round changed nothing — no new fragment, no
	// new absence or failure mark, no boundary movement.
	StopNoProgress StopReason = "no_progress"
)

// resolve drives the store to completeness. Each round fetches the current
// gaps plus one probe past each unconfirmed boundary, so the known range
// widens monotonically until the remote confirms both edges. A round that
// makes no progress stops the loop early rather than hammering
// permanently-absent indices.
func (s *Solver) resolve(ctx context.Context) (rounds int, stop StopReason) {
	for {
		if ctx.Err() != nil {
			return rounds, StopBudget
		}

		plan := s.plan()
		if len(plan) == 0 {
			return rounds, StopComplete
		}
		if rounds >= s.cfg.MaxRounds {
			s.log.Warn("round budget exhausted", "missing", len(plan))
			return rounds, StopBudget
		}
		rounds++

		s.log.Debug("gap round", "round", rounds, "targets", len(plan))

		progressed := s.round(ctx, plan)
		if ctx.Err() != nil {
			return rounds, StopBudget
		}
		if !progressed {
			s.log.Warn("round made no progress", "round", rounds, "missing", len(plan))
			return rounds, StopNoProgress
		}
	}
}

// plan returns the indices to fetch this round: the known gaps, plus a
// probe one index past each boundary that has not been confirmed absent.
// Boundary probes are what let the range grow beyond the initial window.
func (s *Solver) plan() []int {
	plan := s.store.Missing()

	min, max, ok := s.store.Bounds()
	if !ok {
		// Nothing found at all; the probe window is exhausted and there is
		// no boundary to widen from.
		return plan
	}
	if min > 0 && !s.store.Resolved(min-1) {
		plan = append([]int{min - 1}, plan...)
	}
	if !s.store.Resolved(max+1) {
		plan = append(plan, max+1)
	}
	return plan
}

// round fetches all planned indices concurrently and reports whether any
// of them changed the store.
func (s *Solver) round(ctx context.Context, plan []int) bool {
	var changed atomic.Bool
	var wg sync.WaitGroup

	for _, index := range plan {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			if s.fetchOne(ctx, index) {
				changed.Store(true)
			}
		}(index)
	}
	wg.Wait()

	if s.rep != nil {
		s.rep.RoundCompleted()
	}
	return changed.Load()
}
