package hireqa

import (
	"fmt"
	"log/slog"
)

// SlogLogger adapts a slog.Logger to the Logger interface. Call sites use
// printf-style messages, so args are rendered into the message rather than
// passed through as attributes.
type SlogLogger struct {
	base *slog.Logger
}

// NewSlogLogger wraps l, falling back to slog.Default when nil.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{base: l}
}

func (s *SlogLogger) Debug(format string, args ...any) { s.base.Debug(sprintf(format, args...)) }
func (s *SlogLogger) Info(format string, args ...any)  { s.base.Info(sprintf(format, args...)) }
func (s *SlogLogger) Warn(format string, args ...any)  { s.base.Warn(sprintf(format, args...)) }
func (s *SlogLogger) Error(format string, args ...any) { s.base.Error(sprintf(format, args...)) }

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
