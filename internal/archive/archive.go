package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gocloud.dev/blob"

	"github.com/Rajmaninov1/puzzle-decoder/internal/solver"
)

// Manifest is the stats document written alongside the solved text.
type Manifest struct {
	FragmentCount  int     `json:"fragment_count"`
	ExpectedCount  int     `json:"expected_count"`
	CompletionRate float64 `json:"completion_rate"`
	MissingIndices []int   `json:"missing_indices,omitempty"`
	Requests       int     `json:"requests"`
	Rounds         int     `json:"rounds"`
	Stop           string  `json:"stop"`
	ElapsedMillis  int64   `json:"elapsed_ms"`
	SolvedAt       string  `json:"solved_at"`
}

// manifestSuffix is appended to the object key for the stats document.
const manifestSuffix = ".stats.json"

// Publish writes a solve result to the bucket: the assembled text at
// object, and a JSON stats manifest at object + ".stats.json".
func Publish(ctx context.Context, bucket *blob.Bucket, object string, res *solver.Result) error {
	if object == "" {
		return fmt.Errorf("archive: object key is required")
	}

	err := bucket.WriteAll(ctx, object, []byte(res.Text), &blob.WriterOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return fmt.Errorf("write text: %w", err)
	}

	manifest := Manifest{
		FragmentCount:  res.FragmentCount,
		ExpectedCount:  res.ExpectedCount,
		CompletionRate: res.CompletionRate,
		MissingIndices: res.MissingIndices,
		Requests:       res.Requests,
		Rounds:         res.Rounds,
		Stop:           string(res.Stop),
		ElapsedMillis:  res.Elapsed.Milliseconds(),
		SolvedAt:       time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.MarshalIndent(&manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	err = bucket.WriteAll(ctx, object+manifestSuffix, data, &blob.WriterOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// ReadManifest reads back the stats manifest for object.
func ReadManifest(ctx context.Context, bucket *blob.Bucket, object string) (*Manifest, error) {
	data, err := bucket.ReadAll(ctx, object+manifestSuffix)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &manifest, nil
}
