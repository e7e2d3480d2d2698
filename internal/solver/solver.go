package solver

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Rajmaninov1/puzzle-decoder/internal/fragment"
	"github.com/Rajmaninov1/puzzle-decoder/internal/progress"
	"github.com/Rajmaninov1/puzzle-decoder/internal/telemetry"
)

// Getter fetches one fragment by index. *fragment.Client implements it;
// tests substitute fakes.
type Getter interface {
	Get(ctx context.Context, index int) (*fragment.Fragment, error)
}

// Config configures one solve session.
type Config struct {
	// BaseURL is the full fragment endpoint URL. Required unless a Getter
	// is injected.
	BaseURL string

	// MaxConcurrent caps in-flight fetches. Default: 40
	MaxConcurrent int

	// Timeout for individual requests. Default: 500ms
	Timeout time.Duration

	// InitialBatchSize is the width B of each of the four discovery scans;
	// discovery probes [0, 4B). Default: 10
	InitialBatchSize int

	// MaxRounds bounds the gap-fill rounds after discovery. Default: 5
	MaxRounds int

	// Deadline is the wall-clock budget for the whole session. On expiry
	// in-flight fetches are abandoned and the current contents are
	// assembled. Default: 2s
	Deadline time.Duration

	// RetryAttempts, RetryBackoff and RetryMaxBackoff configure the
	// per-fetch retry policy for transient failures.
	RetryAttempts   int
	RetryBackoff    time.Duration
	RetryMaxBackoff time.Duration

	// CorrelationID is attached to every event the session emits.
	CorrelationID string
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 40
	}
	if c.Timeout <= 0 {
		c.Timeout = 500 * time.Millisecond
	}
	if c.InitialBatchSize <= 0 {
		c.InitialBatchSize = 10
	}
	if c.MaxRounds <= 0 {
		c.MaxRounds = 5
	}
	if c.Deadline <= 0 {
		c.Deadline = 2 * time.Second
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 100 * time.Millisecond
	}
	if c.RetryMaxBackoff <= 0 {
		c.RetryMaxBackoff = 2 * time.Second
	}
	return c
}

// Option customizes a session.
type Option func(*Solver)

// WithGetter injects the transport. When set, Config.BaseURL is ignored.
func WithGetter(g Getter) Option {
	return func(s *Solver) { s.get = g }
}

// WithLogger injects the event logger. Default: telemetry.Nop().
func WithLogger(l telemetry.Logger) Option {
	return func(s *Solver) { s.log = l }
}

// WithReporter attaches a console progress reporter.
func WithReporter(r *progress.Reporter) Option {
	return func(s *Solver) { s.rep = r }
}

// Solver runs one solve session. It owns its store and limiter; a Solver
// is used for a single Solve call and then discarded.
type Solver struct {
	cfg      Config
	get      Getter
	store    *Store
	limiter  *Limiter
	log      telemetry.Logger
	rep      *progress.Reporter
	requests atomic.Int64
}

// Solve reconstructs the puzzle text. It always returns a Result — complete
// or partial — for every outcome except a configuration error, which is
// reported before any fetch is attempted.
func Solve(ctx context.Context, cfg Config, opts ...Option) (*Result, error) {
	cfg = cfg.withDefaults()

	s := &Solver{
		cfg:     cfg,
		store:   NewStore(),
		limiter: NewLimiter(cfg.MaxConcurrent),
		log:     telemetry.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.get == nil {
		if err := fragment.ValidateBaseURL(cfg.BaseURL); err != nil {
			return nil, fmt.Errorf("solver: %w", err)
		}
		s.get = fragment.NewClient(cfg.BaseURL, fragment.Options{
			Timeout:    cfg.Timeout,
			Attempts:   cfg.RetryAttempts,
			Backoff:    cfg.RetryBackoff,
			MaxBackoff: cfg.RetryMaxBackoff,
		})
	}

	if cfg.CorrelationID != "" {
		s.log = s.log.With("correlation_id", cfg.CorrelationID)
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, cfg.Deadline)
	defer cancel()

	s.log.Info("starting solve",
		"max_concurrent", cfg.MaxConcurrent,
		"initial_batch_size", cfg.InitialBatchSize,
		"max_rounds", cfg.MaxRounds,
		"deadline", cfg.Deadline,
	)

	s.discover(ctx)
	rounds, stop := s.resolve(ctx)

	res := Assemble(s.store)
	res.Requests = int(s.requests.Load())
	res.Rounds = rounds
	res.Stop = stop
	res.Elapsed = time.Since(start)

	s.log.Info("solve finished",
		"stop", string(stop),
		"fragments", res.FragmentCount,
		"missing", len(res.MissingIndices),
		"completion_rate", res.CompletionRate,
		"requests", res.Requests,
		"rounds", rounds,
		"elapsed", res.Elapsed,
	)

	return res, nil
}

// fetchOne fetches a single index through the limiter and merges the
// outcome into the store. Returns true if the store changed, which is what
// round-progress accounting is based on.
func (s *Solver) fetchOne(ctx context.Context, index int) bool {
	if err := s.limiter.Acquire(ctx); err != nil {
		return false
	}
	defer s.limiter.Release()

	if s.rep != nil {
		s.rep.FetchStarted()
	}
	s.requests.Add(1)

	frag, err := s.get.Get(ctx, index)
	switch {
	case err == nil:
		if s.rep != nil {
			s.rep.FragmentFound()
		}
		return s.store.Add(*frag)

	case errors.Is(err, fragment.ErrNotFound):
		if s.rep != nil {
			s.rep.FetchMissed()
		}
		return s.store.MarkAbsent(index)

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		if s.rep != nil {
			s.rep.FetchMissed()
		}
		return false

	case fragment.Terminal(err):
		if s.rep != nil {
			s.rep.FetchMissed()
		}
		s.log.Warn("fragment unavailable", "index", index, "error", err.Error())
		return s.store.MarkFailed(index)

	default:
		// Transient failure with retries exhausted. The index stays in the
		// fetch plan for the next round.
		if s.rep != nil {
			s.rep.FetchMissed()
		}
		s.log.Warn("fetch failed", "index", index, "error", err.Error())
		return false
	}
}
