// Package telemetry decouples the solve engine from any particular logging
// backend. The engine emits events through the Logger interface; the CLI
// and API wire in a zap-backed implementation, tests use Nop.
package telemetry
