package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

func newZerolog(w io.Writer, lvl zerolog.Level, component string) *ZerologLogger {
	z := zerolog.New(w).Level(lvl).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

// NewZerologLogger writes JSON lines to w at the given level. It is mostly
// useful in tests.
func NewZerologLogger(w io.Writer, lvl zerolog.Level, component string) Logger {
	return newZerolog(w, lvl, component)
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	ev := l.log.Debug()
	if !ev.Enabled() {
		return
	}
	for k, v := range fields {
		switch val := v.(type) {
		case time.Duration:
			ev = ev.Dur(k, val)
		case error:
			ev = ev.AnErr(k, val)
		default:
			ev = ev.Interface(k, v)
		}
	}
	ev.Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
