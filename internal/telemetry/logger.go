package telemetry

import (
	"go.uber.org/zap"
)

// Logger is the narrow structured-event capability the solve engine depends
// on. Key/value pairs alternate keys (string) and values, zap-sugar style.
// The engine never assumes a concrete backend.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)

	// With returns a Logger that attaches kv to every event it emits.
	// Used to thread the per-session correlation ID.
	With(kv ...any) Logger
}

type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZap wraps a zap sugared logger.
func NewZap(s *zap.SugaredLogger) Logger {
	return &zapLogger{s: s}
}

func (l *zapLogger) Debug(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l *zapLogger) Info(msg string, kv ...any)  { l.s.Infow(msg, kv...) }
func (l *zapLogger) Warn(msg string, kv ...any)  { l.s.Warnw(msg, kv...) }
func (l *zapLogger) Error(msg string, kv ...any) { l.s.Errorw(msg, kv...) }

func (l *zapLogger) With(kv ...any) Logger {
	return &zapLogger{s: l.s.With(kv...)}
}

type nopLogger struct{}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func (n nopLogger) With(...any) Logger { return n }
