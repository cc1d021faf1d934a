package metrics

import "time"

// SolveEvent describes one finished solve round.
type SolveEvent struct {
	RunID       string
	Phase       int
	Roles       string
	Status      string
	Duration    time.Duration
	Stints      int
	Variables   int
	Constraints int
	Err         string
	Time        time.Time
}

// MetricsSink records solve rounds for observability purposes.
type MetricsSink interface {
	RecordSolve(ev SolveEvent) error
}

// ScheduleEvent is the load of one participant in one role for a plan.
type ScheduleEvent struct {
	RunID       string
	Mode        string
	Participant string
	Role        string
	Stints      int
	Laps        int
	Time        time.Time
}

// ScheduleRecorder records per-participant load.
type ScheduleRecorder interface {
	RecordSchedule(evs []ScheduleEvent) error
}

// Flusher is implemented by sinks that buffer or push on demand.
type Flusher interface {
	Flush() error
}

// Closer is implemented by sinks holding a connection.
type Closer interface {
	Close()
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSolve(SolveEvent) error         { return nil }
func (NopSink) RecordSchedule([]ScheduleEvent) error { return nil }
func (NopSink) Flush() error                         { return nil }
