// Package config defines configuration structures for puzzle-decoder.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (PUZZLE_ prefix)
//   - YAML configuration file
//
// Later sources override earlier ones: defaults, then file, then
// environment, then flags.
//
// # Example file
//
//	base_url: http://puzzle-server:8080
//	endpoint: /fragment
//	max_concurrent: 40
//	timeout: 500ms
//	initial_batch_size: 10
//	max_rounds: 5
//	deadline: 2s
//	retry:
//	  attempts: 3
//	  backoff: 100ms
//	  max_backoff: 2s
//	archive:
//	  bucket: s3://solved-puzzles
//	  object: latest.txt
package config
