// Package history defines the archive of solved runs.
package history

import (
	"context"
	"time"

	"github.com/kilianp07/stintplan/core/model"
)

// RunRecord captures one planning run and its schedule.
type RunRecord struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	RaceStart time.Time     `json:"race_start"`
	Mode      string        `json:"mode"`
	Status    string        `json:"status"`
	Duration  time.Duration `json:"duration"`
	Schedule  []Assignment  `json:"schedule"`
}

// Assignment mirrors model.StintAssignment for persistence.
type Assignment struct {
	Stint   int       `json:"stint"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Laps    int       `json:"laps"`
	Driver  string    `json:"driver"`
	Spotter string    `json:"spotter,omitempty"`
}

// FromSchedule converts a schedule into its persisted form.
func FromSchedule(s model.Schedule) []Assignment {
	out := make([]Assignment, len(s))
	for i, a := range s {
		out[i] = Assignment{
			Stint:   a.Stint.Number(),
			Start:   a.Stint.Start,
			End:     a.Stint.End,
			Laps:    a.Stint.Laps,
			Driver:  a.Driver,
			Spotter: a.Spotter,
		}
	}
	return out
}

// Involves reports whether name drives or spots any stint of the run.
func (r RunRecord) Involves(name string) bool {
	for _, a := range r.Schedule {
		if a.Driver == name || a.Spotter == name {
			return true
		}
	}
	return false
}

// RunQuery defines filters for retrieving records. Zero fields match all.
type RunQuery struct {
	Start       time.Time
	End         time.Time
	Participant string
}

// Match reports whether r satisfies every filter of q.
func (q RunQuery) Match(r RunRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Participant != "" && !r.Involves(q.Participant) {
		return false
	}
	return true
}

// RunStore persists RunRecords and supports querying.
type RunStore interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q RunQuery) ([]RunRecord, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, RunRecord) error              { return nil }
func (NopStore) Query(context.Context, RunQuery) ([]RunRecord, error) { return nil, nil }
func (NopStore) Close() error                                         { return nil }
