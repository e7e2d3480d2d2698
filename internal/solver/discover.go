package solver

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// discoveryScans is the number of parallel range scans the initial probe
// launches. With batch size B the probe covers [0, discoveryScans*B).
const discoveryScans = 4

// discover establishes initial knowledge of the index range. It probes
// four contiguous slices of InitialBatchSize indices concurrently, every
// fetch bounded by the limiter, and returns once all scans have settled.
// Individual failures are never fatal here.
func (s *Solver) discover(ctx context.Context) {
	b := s.cfg.InitialBatchSize

	s.log.Debug("starting discovery", "batch_size", b, "probe_range", discoveryScans*b)

	var g errgroup.Group
	for i := 0; i < discoveryScans; i++ {
		start := i * b
		g.Go(func() error {
			s.scanRange(ctx, start, start+b)
			return nil
		})
	}
	g.Wait()

	found, _, _ := s.store.Stats()
	s.log.Debug("discovery finished", "fragments", found)
}

// scanRange fetches every index in [start, end) concurrently.
func (s *Solver) scanRange(ctx context.Context, start, end int) {
	var wg sync.WaitGroup
	for index := start; index < end; index++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			s.fetchOne(ctx, index)
		}(index)
	}
	wg.Wait()
}
