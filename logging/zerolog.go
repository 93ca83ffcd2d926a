package logging

import (
	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to eventstore.Logger, for
// deployments that already standardize on zerolog's structured,
// leveled event chains rather than the built-in console logger.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger wraps log.
func NewZerologLogger(log zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{log: log}
}

func (z *ZerologLogger) Info(msg string, args ...any)  { logEvent(z.log.Info(), msg, args) }
func (z *ZerologLogger) Debug(msg string, args ...any) { logEvent(z.log.Debug(), msg, args) }
func (z *ZerologLogger) Warn(msg string, args ...any)  { logEvent(z.log.Warn(), msg, args) }
func (z *ZerologLogger) Error(msg string, args ...any) { logEvent(z.log.Error(), msg, args) }

// logEvent folds slog-style alternating key/value pairs onto a zerolog
// event, since eventstore.Logger's args signature is slog-shaped but
// zerolog builds events field by field.
func logEvent(e *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, args[i+1])
	}
	e.Msg(msg)
}
