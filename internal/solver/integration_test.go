//go:build integration

package solver_test

import (
	"context"
	"testing"
	"time"

	"github.com/Rajmaninov1/puzzle-decoder/internal/solver"
	"github.com/Rajmaninov1/puzzle-decoder/internal/testutils"
)

func TestSolveOverHTTP(t *testing.T) {
	srv := testutils.StartFragmentServer(t, map[int]string{
		0: "it",
		1: "was",
		2: "a",
		3: "bright",
		4: "cold",
		5: "day",
		6: "in",
		7: "april",
	})
	defer srv.Close()

	res, err := solver.Solve(context.Background(), solver.Config{
		BaseURL:          srv.URL,
		MaxConcurrent:    8,
		Timeout:          time.Second,
		InitialBatchSize: 2,
		MaxRounds:        5,
		Deadline:         5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	if res.Text != "it was a bright cold day in april" {
		t.Errorf("unexpected text: %q", res.Text)
	}
	if !res.Complete() {
		t.Errorf("expected complete result, got %+v", res)
	}
	if res.Stop != solver.StopComplete {
		t.Errorf("expected stop %q, got %q", solver.StopComplete, res.Stop)
	}
	if res.CompletionRate != 1.0 {
		t.Errorf("expected completion rate 1.0, got %v", res.CompletionRate)
	}
}
