package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Rajmaninov1/puzzle-decoder/internal/config"
	"github.com/Rajmaninov1/puzzle-decoder/internal/solver"
	"github.com/Rajmaninov1/puzzle-decoder/internal/telemetry"
)

var flagConfig string

func main() {
	root := &cobra.Command{
		Use:           "puzzle-decoder",
		Short:         "Reconstruct an ordered text from numbered fragments",
		Long: `puzzle-decoder probes a remote fragment service to discover the puzzle's
index range, fetches fragments concurrently, fills gaps iteratively and
reassembles the original text under a wall-clock budget.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	root.AddCommand(newSolveCmd(), newServeCmd(), newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig layers defaults, the optional config file, and environment
// variables. Flag overrides are merged by the individual commands.
func loadConfig() (config.Config, error) {
	cfg := config.Default()

	if flagConfig != "" {
		fileCfg, err := config.LoadFromFile(flagConfig)
		if err != nil {
			return config.Config{}, err
		}
		cfg = fileCfg
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

// buildLogger constructs the zap-backed event logger.
func buildLogger(cfg config.LogConfig) (telemetry.Logger, func(), error) {
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("parse log level: %w", err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, nil, err
	}

	return telemetry.NewZap(logger.Sugar()), func() { _ = logger.Sync() }, nil
}

// solverConfig maps the application config onto a solve session config.
func solverConfig(cfg config.Config, correlationID string) solver.Config {
	return solver.Config{
		BaseURL:          cfg.FullURL(),
		MaxConcurrent:    cfg.MaxConcurrent,
		Timeout:          cfg.Timeout,
		InitialBatchSize: cfg.InitialBatchSize,
		MaxRounds:        cfg.MaxRounds,
		Deadline:         cfg.Deadline,
		RetryAttempts:    cfg.Retry.Attempts,
		RetryBackoff:     cfg.Retry.Backoff,
		RetryMaxBackoff:  cfg.Retry.MaxBackoff,
		CorrelationID:    correlationID,
	}
}
