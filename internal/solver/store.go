package solver

import (
	"sync"

	"github.com/Rajmaninov1/puzzle-decoder/internal/fragment"
)

// Store is the deduplicating index→fragment collection for one solve
// session. Many concurrent fetch completions merge into it; every mutation
// holds the mutex only for the duration of one map write, never across a
// network call.
//
// An index is in exactly one of four states: unknown, found, absent
// (remote confirmed it does not exist) or failed (terminal failure other
// than confirmed absence). Observed bounds only ever widen within a
// session.
type Store struct {
	mu     sync.Mutex
	found  map[int]fragment.Fragment
	absent map[int]struct{}
	failed map[int]struct{}
	min    int
	max    int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		found:  make(map[int]fragment.Fragment),
		absent: make(map[int]struct{}),
		failed: make(map[int]struct{}),
	}
}

// Add merges a fetched fragment. Duplicate indices are first-write-wins:
// the existing fragment is kept and Add returns false.
func (s *Store) Add(f fragment.Fragment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.found[f.Index]; ok {
		return false
	}
	s.found[f.Index] = f

	if len(s.found) == 1 {
		s.min, s.max = f.Index, f.Index
	} else {
		if f.Index < s.min {
			s.min = f.Index
		}
		if f.Index > s.max {
			s.max = f.Index
		}
	}

	// A fragment trumps an earlier failure mark for the same index.
	delete(s.failed, f.Index)
	return true
}

// MarkAbsent records that the remote confirmed no fragment exists at index.
// Returns false if the index was already resolved.
func (s *Store) MarkAbsent(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.found[index]; ok {
		return false
	}
	if _, ok := s.absent[index]; ok {
		return false
	}
	s.absent[index] = struct{}{}
	delete(s.failed, index)
	return true
}

// MarkFailed records a terminal failure for index. The index is never
// fetched again but, unlike an absent index, it still counts as missing in
// the final accounting. Returns false if the index was already resolved.
func (s *Store) MarkFailed(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.found[index]; ok {
		return false
	}
	if _, ok := s.absent[index]; ok {
		return false
	}
	if _, ok := s.failed[index]; ok {
		return false
	}
	s.failed[index] = struct{}{}
	return true
}

// Resolved reports whether index needs no further fetching.
func (s *Store) Resolved(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.found[index]; ok {
		return true
	}
	if _, ok := s.absent[index]; ok {
		return true
	}
	_, ok := s.failed[index]
	return ok
}

// Count returns the number of fragments held.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.found)
}

// Bounds returns the observed index range. ok is false while the store is
// empty.
func (s *Store) Bounds() (min, max int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.found) == 0 {
		return 0, 0, false
	}
	return s.min, s.max, true
}

// Missing returns the fetch plan: indices inside the observed bounds that
// are neither found, confirmed absent, nor terminally failed. Ascending.
func (s *Store) Missing() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.missingLocked(false)
}

// MissingReport returns the indices reported missing in the final result:
// like Missing, but terminally failed indices are included. Ascending.
func (s *Store) MissingReport() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.missingLocked(true)
}

func (s *Store) missingLocked(includeFailed bool) []int {
	if len(s.found) == 0 {
		return nil
	}
	var missing []int
	for i := s.min; i <= s.max; i++ {
		if _, ok := s.found[i]; ok {
			continue
		}
		if _, ok := s.absent[i]; ok {
			continue
		}
		if !includeFailed {
			if _, ok := s.failed[i]; ok {
				continue
			}
		}
		missing = append(missing, i)
	}
	return missing
}

// Stats returns the completeness metrics in one consistent view.
// Expected is the width of the observed range minus confirmed-absent
// indices inside it; rate is found/expected.
func (s *Store) Stats() (found, expected int, rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found = len(s.found)
	if found == 0 {
		return 0, 0, 0
	}

	expected = s.max - s.min + 1
	for i := range s.absent {
		if i >= s.min && i <= s.max {
			expected--
		}
	}
	if expected > 0 {
		rate = float64(found) / float64(expected)
	}
	return found, expected, rate
}

// Fragments returns the held fragments in ascending index order.
func (s *Store) Fragments() []fragment.Fragment {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.found) == 0 {
		return nil
	}
	out := make([]fragment.Fragment, 0, len(s.found))
	for i := s.min; i <= s.max; i++ {
		if f, ok := s.found[i]; ok {
			out = append(out, f)
		}
	}
	return out
}
