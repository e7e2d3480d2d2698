package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Rajmaninov1/puzzle-decoder/internal/api"
	"github.com/Rajmaninov1/puzzle-decoder/internal/fragment"
	"github.com/Rajmaninov1/puzzle-decoder/internal/solver"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.API.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, flush, err := buildLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer flush()

			client := fragment.NewClient(cfg.FullURL(), fragment.Options{
				Timeout:    cfg.Timeout,
				Attempts:   cfg.Retry.Attempts,
				Backoff:    cfg.Retry.Backoff,
				MaxBackoff: cfg.Retry.MaxBackoff,
			})

			handler := api.NewHandler(api.Options{
				Solve: func(ctx context.Context, correlationID string) (*solver.Result, error) {
					return solver.Solve(ctx, solverConfig(cfg, correlationID), solver.WithLogger(log))
				},
				Ready: func(ctx context.Context) error {
					// A confirmed absence still proves the service answers.
					_, err := client.Get(ctx, 1)
					if err != nil && !errors.Is(err, fragment.ErrNotFound) {
						return err
					}
					return nil
				},
				Logger: log,
			})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				fmt.Fprintln(os.Stderr, "\n[puzzle-decoder] Received interrupt, shutting down...")
				cancel()
			}()

			if err := api.Serve(ctx, cfg.API.Addr, handler, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", `Listen address (default ":8000")`)

	return cmd
}
