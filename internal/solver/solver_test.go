package solver

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Rajmaninov1/puzzle-decoder/internal/fragment"
)

// fakeRemote is a scripted in-process fragment service.
type fakeRemote struct {
	fragments map[int]string
	permanent map[int]bool // indices that always fail terminally
	flaky     map[int]int  // index -> remaining transient failures
	delay     time.Duration
	hang      bool

	mu          sync.Mutex
	requests    atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeRemote) Get(ctx context.Context, index int) (*fragment.Fragment, error) {
	f.requests.Add(1)

	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxInFlight.Load()
		if cur <= max || f.maxInFlight.CompareAndSwap(max, cur) {
			break
		}
	}

	if f.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}

	if f.permanent[index] {
		return nil, fmt.Errorf("%w: scripted", fragment.ErrRejected)
	}

	f.mu.Lock()
	if f.flaky[index] > 0 {
		f.flaky[index]--
		f.mu.Unlock()
		return nil, errors.New("scripted transient failure")
	}
	f.mu.Unlock()

	text, ok := f.fragments[index]
	if !ok {
		return nil, fmt.Errorf("%w: index %d", fragment.ErrNotFound, index)
	}
	return &fragment.Fragment{ID: index, Index: index, Text: text}, nil
}

func sequencedFragments() map[int]string {
	return map[int]string{3: "a", 4: "b", 5: "c", 6: "d", 7: "e"}
}

func TestSolveConvergence(t *testing.T) {
	remote := &fakeRemote{fragments: sequencedFragments()}

	res, err := Solve(context.Background(), Config{InitialBatchSize: 2}, WithGetter(remote))
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	if res.Text != "a b c d e" {
		t.Errorf("text = %q, want %q", res.Text, "a b c d e")
	}
	if res.CompletionRate != 1.0 {
		t.Errorf("completion rate = %f, want 1.0", res.CompletionRate)
	}
	if res.FragmentCount != 5 {
		t.Errorf("fragment count = %d, want 5", res.FragmentCount)
	}
	if len(res.MissingIndices) != 0 {
		t.Errorf("missing = %v, want none", res.MissingIndices)
	}
	if !res.Complete() {
		t.Error("expected Complete()")
	}
	if res.Stop != StopComplete {
		t.Errorf("stop = %s, want %s", res.Stop, StopComplete)
	}
}

func TestSolvePartialUnderPermanentFailure(t *testing.T) {
	remote := &fakeRemote{
		fragments: sequencedFragments(),
		permanent: map[int]bool{5: true},
	}

	res, err := Solve(context.Background(), Config{InitialBatchSize: 2}, WithGetter(remote))
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	if res.CompletionRate != 0.8 {
		t.Errorf("completion rate = %f, want 0.8", res.CompletionRate)
	}
	if !reflect.DeepEqual(res.MissingIndices, []int{5}) {
		t.Errorf("missing = %v, want [5]", res.MissingIndices)
	}
	if res.Text != "a b d e" {
		t.Errorf("text = %q, want %q", res.Text, "a b d e")
	}
	if res.Complete() {
		t.Error("partial result reported Complete()")
	}
}

func TestSolveTransientRecovery(t *testing.T) {
	remote := &fakeRemote{
		fragments: sequencedFragments(),
		flaky:     map[int]int{5: 1},
	}

	res, err := Solve(context.Background(), Config{InitialBatchSize: 2}, WithGetter(remote))
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	// The flaky index stays in the plan and succeeds in a later round.
	if res.CompletionRate != 1.0 {
		t.Errorf("completion rate = %f, want 1.0", res.CompletionRate)
	}
	if res.Text != "a b c d e" {
		t.Errorf("text = %q", res.Text)
	}
}

func TestSolveNoProgressStops(t *testing.T) {
	remote := &fakeRemote{
		fragments: map[int]string{3: "a", 4: "b", 6: "d", 7: "e"},
		flaky:     map[int]int{5: 1000},
	}

	res, err := Solve(context.Background(), Config{InitialBatchSize: 2}, WithGetter(remote))
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	if res.Stop != StopNoProgress {
		t.Errorf("stop = %s, want %s", res.Stop, StopNoProgress)
	}
	if !reflect.DeepEqual(res.MissingIndices, []int{5}) {
		t.Errorf("missing = %v, want [5]", res.MissingIndices)
	}
	if res.CompletionRate != 0.8 {
		t.Errorf("completion rate = %f, want 0.8", res.CompletionRate)
	}
}

func TestSolveRoundBudget(t *testing.T) {
	// Every round makes exactly one index of progress, so the round budget
	// runs out before the range is fully widened.
	fragments := make(map[int]string)
	for i := 0; i < 30; i++ {
		fragments[i] = "w"
	}
	remote := &fakeRemote{fragments: fragments, permanent: map[int]bool{2: true}}

	res, err := Solve(context.Background(),
		Config{InitialBatchSize: 2, MaxRounds: 3}, WithGetter(remote))
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	if res.Stop != StopBudget {
		t.Errorf("stop = %s, want %s", res.Stop, StopBudget)
	}
	if res.Rounds != 3 {
		t.Errorf("rounds = %d, want 3", res.Rounds)
	}
	if !reflect.DeepEqual(res.MissingIndices, []int{2}) {
		t.Errorf("missing = %v, want [2]", res.MissingIndices)
	}
	if res.Complete() {
		t.Error("budget-stopped solve reported Complete()")
	}
}

func TestSolveWidensBeyondProbeWindow(t *testing.T) {
	fragments := make(map[int]string)
	want := ""
	for i := 0; i < 12; i++ {
		fragments[i] = fmt.Sprintf("w%d", i)
		if i > 0 {
			want += " "
		}
		want += fragments[i]
	}
	remote := &fakeRemote{fragments: fragments}

	// Discovery covers [0,8); rounds must widen the boundary to 11 and
	// confirm 12 absent.
	res, err := Solve(context.Background(),
		Config{InitialBatchSize: 2, MaxRounds: 8}, WithGetter(remote))
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	if res.FragmentCount != 12 {
		t.Errorf("fragment count = %d, want 12", res.FragmentCount)
	}
	if res.Text != want {
		t.Errorf("text = %q, want %q", res.Text, want)
	}
	if res.CompletionRate != 1.0 {
		t.Errorf("completion rate = %f, want 1.0", res.CompletionRate)
	}
}

func TestSolveNonZeroOrigin(t *testing.T) {
	remote := &fakeRemote{
		fragments: map[int]string{5: "x", 6: "y", 7: "z"},
	}

	res, err := Solve(context.Background(), Config{InitialBatchSize: 2}, WithGetter(remote))
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	if res.Text != "x y z" {
		t.Errorf("text = %q, want %q", res.Text, "x y z")
	}
	if res.CompletionRate != 1.0 {
		t.Errorf("completion rate = %f, want 1.0", res.CompletionRate)
	}
}

func TestSolveEmptyRemote(t *testing.T) {
	remote := &fakeRemote{fragments: map[int]string{}}

	res, err := Solve(context.Background(), Config{InitialBatchSize: 2}, WithGetter(remote))
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	if res.FragmentCount != 0 || res.Text != "" {
		t.Errorf("expected empty result, got %d fragments, text %q", res.FragmentCount, res.Text)
	}
	if res.Complete() {
		t.Error("empty result reported Complete()")
	}
}

func TestSolveConcurrencyBound(t *testing.T) {
	fragments := make(map[int]string)
	for i := 0; i < 10; i++ {
		fragments[i] = "w"
	}
	remote := &fakeRemote{fragments: fragments, delay: 5 * time.Millisecond}

	_, err := Solve(context.Background(),
		Config{InitialBatchSize: 3, MaxConcurrent: 3}, WithGetter(remote))
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	if max := remote.maxInFlight.Load(); max > 3 {
		t.Errorf("observed %d fetches in flight, limit is 3", max)
	}
}

func TestSolveDeadlinePartial(t *testing.T) {
	remote := &fakeRemote{fragments: sequencedFragments(), hang: true}

	start := time.Now()
	res, err := Solve(context.Background(),
		Config{InitialBatchSize: 2, Deadline: 100 * time.Millisecond}, WithGetter(remote))
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if elapsed > time.Second {
		t.Fatalf("solve took %v with a 100ms deadline", elapsed)
	}
	if res.CompletionRate >= 1.0 {
		t.Errorf("completion rate = %f, want < 1.0", res.CompletionRate)
	}
	if res.Stop != StopBudget {
		t.Errorf("stop = %s, want %s", res.Stop, StopBudget)
	}
}

func TestSolveConfigError(t *testing.T) {
	_, err := Solve(context.Background(), Config{BaseURL: "not a url"})
	if err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestSolveRequestsCounted(t *testing.T) {
	remote := &fakeRemote{fragments: sequencedFragments()}

	res, err := Solve(context.Background(), Config{InitialBatchSize: 2}, WithGetter(remote))
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	if res.Requests != int(remote.requests.Load()) {
		t.Errorf("result reports %d requests, remote saw %d", res.Requests, remote.requests.Load())
	}
	// 8 discovery probes plus at least the boundary probe at 8.
	if res.Requests < 9 {
		t.Errorf("requests = %d, want >= 9", res.Requests)
	}
}

func TestAssembleIdempotent(t *testing.T) {
	s := NewStore()
	s.Add(frag(3, "a"))
	s.Add(frag(5, "c"))
	s.Add(frag(4, "b"))
	s.MarkFailed(6)
	s.Add(frag(7, "d"))

	first := Assemble(s)
	second := Assemble(s)

	if first.Text != second.Text {
		t.Errorf("assembly not idempotent: %q vs %q", first.Text, second.Text)
	}
	if !reflect.DeepEqual(first.MissingIndices, second.MissingIndices) {
		t.Errorf("missing differs: %v vs %v", first.MissingIndices, second.MissingIndices)
	}
	if first.Text != "a b c d" {
		t.Errorf("text = %q, want %q", first.Text, "a b c d")
	}
}
