package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures the progress reporter.
type Options struct {
	// SourceURL is the fragment endpoint being solved (for display).
	SourceURL string

	// MaxConcurrent is the fetch parallelism cap (for display).
	MaxConcurrent int

	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Default: 100ms
	UpdateInterval time.Duration
}

// Reporter outputs human-readable solve progress. All update hooks are
// safe for concurrent use.
type Reporter struct {
	opts Options

	mu      sync.Mutex
	started atomic.Int64
	found   atomic.Int64
	missed  atomic.Int64
	rounds  atomic.Int32
	start   time.Time
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
	stopped bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 100 * time.Millisecond
	}

	return &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins outputting progress information.
func (r *Reporter) Start() {
	r.mu.Lock()
	r.running = true
	r.mu.Unlock()
	r.start = time.Now()

	fmt.Fprintf(r.opts.Output, "[puzzle-decoder] Solving: %s\n", r.opts.SourceURL)
	fmt.Fprintf(r.opts.Output, "[puzzle-decoder] Max concurrent fetches: %d\n", r.opts.MaxConcurrent)

	go r.updateLoop()
}

// Stop stops the reporter and prints the final status. It blocks until
// the final status line has been written.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped || !r.running {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
	<-r.doneCh
}

// FetchStarted marks one fetch as in flight.
func (r *Reporter) FetchStarted() {
	r.started.Add(1)
}

// FragmentFound marks one fetch as completed with a fragment.
func (r *Reporter) FragmentFound() {
	r.found.Add(1)
}

// FetchMissed marks one fetch as completed without a fragment (absent,
// failed, or abandoned).
func (r *Reporter) FetchMissed() {
	r.missed.Add(1)
}

// RoundCompleted marks one gap-fill round as finished.
func (r *Reporter) RoundCompleted() {
	r.rounds.Add(1)
}

// InFlight returns the number of fetches currently outstanding.
func (r *Reporter) InFlight() int {
	return int(r.started.Load() - r.found.Load() - r.missed.Load())
}

// updateLoop periodically updates the progress display.
func (r *Reporter) updateLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinalStatus()
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

func (r *Reporter) printProgress() {
	fmt.Fprintf(r.opts.Output, "\r[puzzle-decoder] Fragments: %d found | %d in-flight | %d probes | round %d    ",
		r.found.Load(),
		r.InFlight(),
		r.started.Load(),
		r.rounds.Load(),
	)
}

func (r *Reporter) printFinalStatus() {
	elapsed := time.Since(r.start)
	found := r.found.Load()
	rate := float64(found) / elapsed.Seconds()

	fmt.Fprintf(r.opts.Output, "\r[puzzle-decoder] Fragments: %d found | %d probes | %d rounds    \n",
		found,
		r.started.Load(),
		r.rounds.Load(),
	)
	fmt.Fprintf(r.opts.Output, "[puzzle-decoder] Total time: %s | %.1f fragments/s\n",
		formatDuration(elapsed),
		rate,
	)
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, s)
}
