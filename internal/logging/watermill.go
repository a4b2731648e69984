package logging

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
)

// watermillAdapter forwards watermill's internal logs to slog.
type watermillAdapter struct {
	logger *slog.Logger
}

// NewWatermillAdapter wraps logger so it can be handed to watermill
// publishers and subscribers.
func NewWatermillAdapter(logger *slog.Logger) watermill.LoggerAdapter {
	return &watermillAdapter{logger: logger.With("component", "watermill")}
}

func (l *watermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	l.logger.Error(msg, append(attrs(fields), "error", err)...)
}

func (l *watermillAdapter) Info(msg string, fields watermill.LogFields) {
	l.logger.Info(msg, attrs(fields)...)
}

func (l *watermillAdapter) Debug(msg string, fields watermill.LogFields) {
	l.logger.Debug(msg, attrs(fields)...)
}

// Trace is mapped to debug; slog has no lower level.
func (l *watermillAdapter) Trace(msg string, fields watermill.LogFields) {
	l.logger.Debug(msg, attrs(fields)...)
}

func (l *watermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillAdapter{logger: l.logger.With(attrs(fields)...)}
}

func attrs(fields watermill.LogFields) []any {
	out := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}
