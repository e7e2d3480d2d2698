package solver

import (
	"strings"
	"time"
)

// Result is the outcome of one solve session. It is immutable once
// produced; a partial result (CompletionRate < 1.0) is a valid outcome,
// not an error.
type Result struct {
	// Text is the assembled puzzle text: fragments in ascending index
	// order joined by single spaces. Best-effort when incomplete.
	Text string

	// FragmentCount is the number of fragments obtained.
	FragmentCount int

	// ExpectedCount is the number of fragments the observed range implies.
	ExpectedCount int

	// CompletionRate is FragmentCount / ExpectedCount (1.0 when complete,
	// 0 when nothing was found).
	CompletionRate float64

	// MissingIndices lists the unobtained indices inside the observed
	// range, ascending. Confirmed-absent indices are not missing.
	MissingIndices []int

	// Requests is the number of fetches issued, including probes and
	// refetch rounds.
	Requests int

	// Rounds is the number of gap-fill rounds run after discovery.
	Rounds int

	// Stop records why the gap resolver stopped.
	Stop StopReason

	// Elapsed is the session wall-clock time.
	Elapsed time.Duration
}

// Complete reports whether every expected fragment was obtained.
func (r *Result) Complete() bool {
	return r.FragmentCount > 0 && len(r.MissingIndices) == 0
}

// Assemble produces a Result from the store's current contents. It never
// mutates the store; assembling the same store twice yields identical
// output.
func Assemble(store *Store) *Result {
	frags := store.Fragments()
	texts := make([]string, len(frags))
	for i, f := range frags {
		texts[i] = f.Text
	}

	found, expected, rate := store.Stats()

	return &Result{
		Text:           strings.Join(texts, " "),
		FragmentCount:  found,
		ExpectedCount:  expected,
		CompletionRate: rate,
		MissingIndices: store.MissingReport(),
	}
}
