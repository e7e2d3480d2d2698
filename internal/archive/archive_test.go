package archive

import (
	"context"
	"testing"
	"time"

	"gocloud.dev/blob/memblob"

	"github.com/Rajmaninov1/puzzle-decoder/internal/solver"
)

func TestPublishAndReadManifest(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	res := &solver.Result{
		Text:           "the quick brown fox",
		FragmentCount:  4,
		ExpectedCount:  4,
		CompletionRate: 1.0,
		Requests:       9,
		Rounds:         1,
		Stop:           solver.StopComplete,
		Elapsed:        420 * time.Millisecond,
	}

	if err := Publish(ctx, bucket, "solves/run-1.txt", res); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	text, err := bucket.ReadAll(ctx, "solves/run-1.txt")
	if err != nil {
		t.Fatalf("read text object: %v", err)
	}
	if string(text) != "the quick brown fox" {
		t.Errorf("unexpected text object: %q", text)
	}

	manifest, err := ReadManifest(ctx, bucket, "solves/run-1.txt")
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if manifest.FragmentCount != 4 {
		t.Errorf("expected fragment count 4, got %d", manifest.FragmentCount)
	}
	if manifest.CompletionRate != 1.0 {
		t.Errorf("expected completion rate 1.0, got %v", manifest.CompletionRate)
	}
	if manifest.Stop != string(solver.StopComplete) {
		t.Errorf("expected stop %q, got %q", solver.StopComplete, manifest.Stop)
	}
	if manifest.ElapsedMillis != 420 {
		t.Errorf("expected elapsed 420ms, got %d", manifest.ElapsedMillis)
	}
	if manifest.SolvedAt == "" {
		t.Error("expected solved_at to be set")
	}
	if _, err := time.Parse(time.RFC3339, manifest.SolvedAt); err != nil {
		t.Errorf("solved_at not RFC3339: %v", err)
	}
}

func TestPublishPartialResult(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	res := &solver.Result{
		Text:           "a b d",
		FragmentCount:  3,
		ExpectedCount:  4,
		CompletionRate: 0.75,
		MissingIndices: []int{2},
		Requests:       12,
		Rounds:         5,
		Stop:           solver.StopBudget,
		Elapsed:        2 * time.Second,
	}

	if err := Publish(ctx, bucket, "partial.txt", res); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	manifest, err := ReadManifest(ctx, bucket, "partial.txt")
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if len(manifest.MissingIndices) != 1 || manifest.MissingIndices[0] != 2 {
		t.Errorf("expected missing indices [2], got %v", manifest.MissingIndices)
	}
	if manifest.Stop != string(solver.StopBudget) {
		t.Errorf("expected stop %q, got %q", solver.StopBudget, manifest.Stop)
	}
}

func TestPublishEmptyObject(t *testing.T) {
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	err := Publish(context.Background(), bucket, "", &solver.Result{})
	if err == nil {
		t.Fatal("expected error for empty object key")
	}
}

func TestReadManifestMissing(t *testing.T) {
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	if _, err := ReadManifest(context.Background(), bucket, "nope.txt"); err == nil {
		t.Fatal("expected error for missing manifest")
	}
}
