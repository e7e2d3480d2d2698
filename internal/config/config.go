package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines configuration for the puzzle-decoder CLI and API.
type Config struct {
	BaseURL          string        `yaml:"base_url"`
	Endpoint         string        `yaml:"endpoint"`
	MaxConcurrent    int           `yaml:"max_concurrent"`
	Timeout          time.Duration `yaml:"timeout"`
	InitialBatchSize int           `yaml:"initial_batch_size"`
	MaxRounds        int           `yaml:"max_rounds"`
	Deadline         time.Duration `yaml:"deadline"`
	Progress         bool          `yaml:"progress"`
	Retry            RetryConfig   `yaml:"retry"`
	Archive          ArchiveConfig `yaml:"archive"`
	API              APIConfig     `yaml:"api"`
	Log              LogConfig     `yaml:"log"`
}

// RetryConfig defines the per-fetch retry behavior.
type RetryConfig struct {
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// ArchiveConfig defines optional result publication to object storage.
type ArchiveConfig struct {
	Bucket string `yaml:"bucket"`
	Object string `yaml:"object"`
}

// APIConfig defines the HTTP API server.
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig defines logging behavior.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		BaseURL:          "http://puzzle-server:8080",
		Endpoint:         "/fragment",
		MaxConcurrent:    40,
		Timeout:          500 * time.Millisecond,
		InitialBatchSize: 10,
		MaxRounds:        5,
		Deadline:         2 * time.Second,
		Retry: RetryConfig{
			Attempts:   3,
			Backoff:    100 * time.Millisecond,
			MaxBackoff: 2 * time.Second,
		},
		API: APIConfig{
			Addr: ":8000",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// FullURL returns the complete fragment endpoint URL. A base URL without a
// scheme is assumed to be https.
func (c Config) FullURL() string {
	base := c.BaseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return strings.TrimRight(base, "/") + c.Endpoint
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	BaseURL          string          `yaml:"base_url"`
	Endpoint         string          `yaml:"endpoint"`
	MaxConcurrent    int             `yaml:"max_concurrent"`
	Timeout          string          `yaml:"timeout"`
	InitialBatchSize int             `yaml:"initial_batch_size"`
	MaxRounds        int             `yaml:"max_rounds"`
	Deadline         string          `yaml:"deadline"`
	Progress         bool            `yaml:"progress"`
	Retry            yamlRetryConfig `yaml:"retry"`
	Archive          ArchiveConfig   `yaml:"archive"`
	API              APIConfig       `yaml:"api"`
	Log              LogConfig       `yaml:"log"`
}

type yamlRetryConfig struct {
	Attempts   int    `yaml:"attempts"`
	Backoff    string `yaml:"backoff"`
	MaxBackoff string `yaml:"max_backoff"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.BaseURL != "" {
		cfg.BaseURL = yc.BaseURL
	}
	if yc.Endpoint != "" {
		cfg.Endpoint = yc.Endpoint
	}
	if yc.MaxConcurrent != 0 {
		cfg.MaxConcurrent = yc.MaxConcurrent
	}
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if yc.InitialBatchSize != 0 {
		cfg.InitialBatchSize = yc.InitialBatchSize
	}
	if yc.MaxRounds != 0 {
		cfg.MaxRounds = yc.MaxRounds
	}
	if yc.Deadline != "" {
		d, err := time.ParseDuration(yc.Deadline)
		if err != nil {
			return Config{}, fmt.Errorf("parse deadline: %w", err)
		}
		cfg.Deadline = d
	}
	cfg.Progress = yc.Progress
	if yc.Retry.Attempts != 0 {
		cfg.Retry.Attempts = yc.Retry.Attempts
	}
	if yc.Retry.Backoff != "" {
		d, err := time.ParseDuration(yc.Retry.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.backoff: %w", err)
		}
		cfg.Retry.Backoff = d
	}
	if yc.Retry.MaxBackoff != "" {
		d, err := time.ParseDuration(yc.Retry.MaxBackoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.max_backoff: %w", err)
		}
		cfg.Retry.MaxBackoff = d
	}
	if yc.Archive.Bucket != "" {
		cfg.Archive.Bucket = yc.Archive.Bucket
	}
	if yc.Archive.Object != "" {
		cfg.Archive.Object = yc.Archive.Object
	}
	if yc.API.Addr != "" {
		cfg.API.Addr = yc.API.Addr
	}
	if yc.Log.Level != "" {
		cfg.Log.Level = yc.Log.Level
	}
	if yc.Log.Format != "" {
		cfg.Log.Format = yc.Log.Format
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the PUZZLE_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("PUZZLE_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("PUZZLE_ENDPOINT"); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv("PUZZLE_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse PUZZLE_MAX_CONCURRENT: %w", err)
		}
		c.MaxConcurrent = n
	}
	if v := os.Getenv("PUZZLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse PUZZLE_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("PUZZLE_INITIAL_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse PUZZLE_INITIAL_BATCH_SIZE: %w", err)
		}
		c.InitialBatchSize = n
	}
	if v := os.Getenv("PUZZLE_MAX_ROUNDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse PUZZLE_MAX_ROUNDS: %w", err)
		}
		c.MaxRounds = n
	}
	if v := os.Getenv("PUZZLE_DEADLINE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse PUZZLE_DEADLINE: %w", err)
		}
		c.Deadline = d
	}
	if v := os.Getenv("PUZZLE_PROGRESS"); v != "" {
		c.Progress = v == "true" || v == "1"
	}
	if v := os.Getenv("PUZZLE_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse PUZZLE_RETRY_ATTEMPTS: %w", err)
		}
		c.Retry.Attempts = n
	}
	if v := os.Getenv("PUZZLE_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse PUZZLE_RETRY_BACKOFF: %w", err)
		}
		c.Retry.Backoff = d
	}
	if v := os.Getenv("PUZZLE_RETRY_MAX_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse PUZZLE_RETRY_MAX_BACKOFF: %w", err)
		}
		c.Retry.MaxBackoff = d
	}
	if v := os.Getenv("PUZZLE_ARCHIVE_BUCKET"); v != "" {
		c.Archive.Bucket = v
	}
	if v := os.Getenv("PUZZLE_ARCHIVE_OBJECT"); v != "" {
		c.Archive.Object = v
	}
	if v := os.Getenv("PUZZLE_API_ADDR"); v != "" {
		c.API.Addr = v
	}
	if v := os.Getenv("PUZZLE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PUZZLE_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("config: base_url is required")
	}
	if c.MaxConcurrent <= 0 {
		return errors.New("config: max_concurrent must be positive")
	}
	if c.Timeout <= 0 {
		return errors.New("config: timeout must be positive")
	}
	if c.InitialBatchSize <= 0 {
		return errors.New("config: initial_batch_size must be positive")
	}
	if c.MaxRounds <= 0 {
		return errors.New("config: max_rounds must be positive")
	}
	if c.Deadline <= 0 {
		return errors.New("config: deadline must be positive")
	}
	if c.Archive.Bucket != "" && c.Archive.Object == "" {
		return errors.New("config: archive.object is required when archive.bucket is set")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.BaseURL != "" {
		c.BaseURL = override.BaseURL
	}
	if override.Endpoint != "" {
		c.Endpoint = override.Endpoint
	}
	if override.MaxConcurrent != 0 {
		c.MaxConcurrent = override.MaxConcurrent
	}
	if override.Timeout != 0 {
		c.Timeout = override.Timeout
	}
	if override.InitialBatchSize != 0 {
		c.InitialBatchSize = override.InitialBatchSize
	}
	if override.MaxRounds != 0 {
		c.MaxRounds = override.MaxRounds
	}
	if override.Deadline != 0 {
		c.Deadline = override.Deadline
	}
	if override.Progress {
		c.Progress = override.Progress
	}
	if override.Retry.Attempts != 0 {
		c.Retry.Attempts = override.Retry.Attempts
	}
	if override.Retry.Backoff != 0 {
		c.Retry.Backoff = override.Retry.Backoff
	}
	if override.Retry.MaxBackoff != 0 {
		c.Retry.MaxBackoff = override.Retry.MaxBackoff
	}
	if override.Archive.Bucket != "" {
		c.Archive.Bucket = override.Archive.Bucket
	}
	if override.Archive.Object != "" {
		c.Archive.Object = override.Archive.Object
	}
	if override.API.Addr != "" {
		c.API.Addr = override.API.Addr
	}
	if override.Log.Level != "" {
		c.Log.Level = override.Log.Level
	}
	if override.Log.Format != "" {
		c.Log.Format = override.Log.Format
	}
	return c
}
