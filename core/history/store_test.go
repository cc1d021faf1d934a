package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/stintplan/core/model"
)

func TestFromSchedule(t *testing.T) {
	start := time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)
	sched := model.Schedule{
		{Stint: model.Stint{Index: 0, Start: start, End: start.Add(40 * time.Minute), Laps: 20}, Driver: "A", Spotter: "B"},
		{Stint: model.Stint{Index: 1, Start: start.Add(41 * time.Minute), End: start.Add(81 * time.Minute), Laps: 20}, Driver: "B"},
	}
	got := FromSchedule(sched)
	assert.Equal(t, []Assignment{
		{Stint: 1, Start: start, End: start.Add(40 * time.Minute), Laps: 20, Driver: "A", Spotter: "B"},
		{Stint: 2, Start: start.Add(41 * time.Minute), End: start.Add(81 * time.Minute), Laps: 20, Driver: "B"},
	}, got)
}

func TestRunQueryMatch(t *testing.T) {
	now := time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)
	rec := RunRecord{Timestamp: now, Schedule: []Assignment{{Stint: 1, Driver: "A", Spotter: "B"}}}
	checks := []struct {
		name string
		q    RunQuery
		want bool
	}{
		{"empty", RunQuery{}, true},
		{"in range", RunQuery{Start: now.Add(-time.Hour), End: now.Add(time.Hour)}, true},
		{"before start", RunQuery{Start: now.Add(time.Minute)}, false},
		{"after end", RunQuery{End: now.Add(-time.Minute)}, false},
		{"driver", RunQuery{Participant: "A"}, true},
		{"spotter", RunQuery{Participant: "B"}, true},
		{"absent", RunQuery{Participant: "C"}, false},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.q.Match(rec))
		})
	}
}

func TestNopStore(t *testing.T) {
	var s RunStore = NopStore{}
	assert.NoError(t, s.Append(context.Background(), RunRecord{}))
	out, err := s.Query(context.Background(), RunQuery{})
	assert.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, s.Close())
}
