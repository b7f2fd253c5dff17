// Package logging adapts zerolog to the chainboot Logger interface.
package logging

import "github.com/rs/zerolog"

// ZerologAdapter implements chainboot.Logger using zerolog.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates an adapter wrapping an existing zerolog.Logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// Debug logs a debug-level message.
func (z *ZerologAdapter) Debug(format string, args ...interface{}) {
	z.logger.Debug().Msgf(format, args...)
}

// Info logs an info-level message.
func (z *ZerologAdapter) Info(format string, args ...interface{}) {
	z.logger.Info().Msgf(format, args...)
}

// Error logs an error-level message.
func (z *ZerologAdapter) Error(format string, args ...interface{}) {
	z.logger.Error().Msgf(format, args...)
}
