package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/Rajmaninov1/puzzle-decoder/internal/archive"
	"github.com/Rajmaninov1/puzzle-decoder/internal/config"
	"github.com/Rajmaninov1/puzzle-decoder/internal/progress"
	"github.com/Rajmaninov1/puzzle-decoder/internal/solver"
	"github.com/Rajmaninov1/puzzle-decoder/internal/telemetry"
)

func newSolveCmd() *cobra.Command {
	var override config.Config

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Fetch all fragments and print the reconstructed text",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg = cfg.Merge(override)
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, flush, err := buildLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer flush()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				fmt.Fprintln(os.Stderr, "\n[puzzle-decoder] Received interrupt, shutting down...")
				cancel()
			}()

			return runSolve(ctx, cfg, log)
		},
	}

	cmd.Flags().StringVar(&override.BaseURL, "url", "", "Fragment service base URL")
	cmd.Flags().StringVar(&override.Endpoint, "endpoint", "", "Fragment endpoint path")
	cmd.Flags().IntVar(&override.MaxConcurrent, "max-concurrent", 0, "Maximum concurrent fetches")
	cmd.Flags().DurationVar(&override.Timeout, "timeout", 0, "Per-request timeout")
	cmd.Flags().IntVar(&override.InitialBatchSize, "batch-size", 0, "Discovery batch size (probes 4x this)")
	cmd.Flags().IntVar(&override.MaxRounds, "max-rounds", 0, "Maximum gap-fill rounds")
	cmd.Flags().DurationVar(&override.Deadline, "deadline", 0, "Overall solve deadline")
	cmd.Flags().BoolVar(&override.Progress, "progress", false, "Show live progress")
	cmd.Flags().StringVar(&override.Archive.Bucket, "archive-bucket", "", "Bucket URL to publish the result to (s3://, gs://)")
	cmd.Flags().StringVar(&override.Archive.Object, "archive-object", "", "Object key for the published result")

	return cmd
}

func runSolve(ctx context.Context, cfg config.Config, log telemetry.Logger) error {
	opts := []solver.Option{solver.WithLogger(log)}

	var rep *progress.Reporter
	if cfg.Progress {
		rep = progress.NewReporter(progress.Options{
			SourceURL:     cfg.FullURL(),
			MaxConcurrent: cfg.MaxConcurrent,
		})
		rep.Start()
		opts = append(opts, solver.WithReporter(rep))
	}

	res, err := solver.Solve(ctx, solverConfig(cfg, uuid.NewString()), opts...)
	if rep != nil {
		rep.Stop()
	}
	if err != nil {
		return err
	}

	displayResult(os.Stdout, res)

	if cfg.Archive.Bucket != "" {
		bucket, err := blob.OpenBucket(ctx, cfg.Archive.Bucket)
		if err != nil {
			return fmt.Errorf("open archive bucket: %w", err)
		}
		defer bucket.Close()

		if err := archive.Publish(ctx, bucket, cfg.Archive.Object, res); err != nil {
			return fmt.Errorf("archive result: %w", err)
		}
		fmt.Fprintf(os.Stderr, "[puzzle-decoder] Result archived to %s (%s)\n",
			cfg.Archive.Bucket, cfg.Archive.Object)
	}

	return nil
}

func displayResult(w io.Writer, res *solver.Result) {
	sep := strings.Repeat("=", 60)

	fmt.Fprintln(w, sep)
	fmt.Fprintln(w, res.Text)
	fmt.Fprintln(w, sep)

	perSecond := 0.0
	if res.Elapsed > 0 {
		perSecond = float64(res.FragmentCount) / res.Elapsed.Seconds()
	}
	fmt.Fprintf(w, "Time: %.3fs | Fragments: %d | %.1f fragments/s\n",
		res.Elapsed.Seconds(), res.FragmentCount, perSecond)
	fmt.Fprintf(w, "Completion: %.1f%% | Missing: %d | Requests: %d | Rounds: %d | Stop: %s\n",
		res.CompletionRate*100, len(res.MissingIndices), res.Requests, res.Rounds, res.Stop)
	if len(res.MissingIndices) > 0 {
		fmt.Fprintf(w, "Missing indices: %v\n", res.MissingIndices)
	}

	fmt.Fprintln(w, sep)
	if res.Elapsed < time.Second {
		fmt.Fprintln(w, "Less than one second! :D")
	} else {
		fmt.Fprintln(w, ":( took more than one second")
	}
}
