//go:build integration

package archive_test

import (
	"context"
	"testing"
	"time"

	// s3 driver for bucket URLs used against minio
	_ "gocloud.dev/blob/s3blob"

	"github.com/Rajmaninov1/puzzle-decoder/internal/archive"
	"github.com/Rajmaninov1/puzzle-decoder/internal/solver"
	"github.com/Rajmaninov1/puzzle-decoder/internal/testutils"
)

func TestPublishToMinio(t *testing.T) {
	ctx := context.Background()

	env := testutils.StartMinioContainer(t, ctx, "puzzle-results")
	defer env.Close(ctx)

	bucket, err := env.OpenBucket(ctx)
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	defer bucket.Close()

	res := &solver.Result{
		Text:           "it was the best of times",
		FragmentCount:  6,
		ExpectedCount:  6,
		CompletionRate: 1.0,
		Requests:       14,
		Rounds:         2,
		Stop:           solver.StopComplete,
		Elapsed:        730 * time.Millisecond,
	}

	if err := archive.Publish(ctx, bucket, "solves/integration.txt", res); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	text, err := bucket.ReadAll(ctx, "solves/integration.txt")
	if err != nil {
		t.Fatalf("read text object: %v", err)
	}
	if string(text) != res.Text {
		t.Errorf("unexpected text object: %q", text)
	}

	manifest, err := archive.ReadManifest(ctx, bucket, "solves/integration.txt")
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if manifest.FragmentCount != 6 {
		t.Errorf("expected fragment count 6, got %d", manifest.FragmentCount)
	}
	if manifest.Stop != string(solver.StopComplete) {
		t.Errorf("expected stop %q, got %q", solver.StopComplete, manifest.Stop)
	}
}
