// Package logger declares the logging contract used by the planning core so
// that it never depends on a concrete logging library.
package logger

// Logger is implemented by infra/logger adapters.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields such as variable and
	// constraint counts.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Nop discards everything. It is the default when callers pass nil.
type Nop struct{}

func (Nop) Debugf(string, ...any)         {}
func (Nop) Debugw(string, map[string]any) {}
func (Nop) Infof(string, ...any)          {}
func (Nop) Warnf(string, ...any)          {}
func (Nop) Errorf(string, ...any)         {}

// OrNop returns l, or Nop when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop{}
	}
	return l
}
