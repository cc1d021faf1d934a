package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/stintplan/core/model"
	"github.com/kilianp07/stintplan/core/timeline"
)

func TestViewPoolsAndStates(t *testing.T) {
	start := time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)
	cfg := model.RaceConfig{
		Start: start, DurationHours: 2, AvgLapSeconds: 120, PitSeconds: 60,
		FuelTankSize: 100, FuelUsePerLap: 5,
		Participants: []model.Participant{
			{Name: "A", IsDriver: true, Availability: map[time.Time]model.AvailabilityState{
				start: model.Preferred, start.Add(time.Hour): model.Available,
			}},
			{Name: "B", IsDriver: true, IsSpotter: true, Availability: map[time.Time]model.AvailabilityState{
				start: model.Unavailable,
			}},
			{Name: "C", IsSpotter: true},
		},
	}
	v := New(cfg, timeline.Derive(cfg))

	names := func(ps []model.Participant) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.Name)
		}
		return out
	}
	assert.Equal(t, []string{"A", "B"}, names(v.Drivers()))
	assert.Equal(t, []string{"B", "C"}, names(v.Spotters()))

	assert.Equal(t, model.Preferred, v.State("A", 0))
	assert.True(t, v.Preferred("A", 0))
	assert.True(t, v.Available("A", 0))
	// stint 2 starts at 13:22
	assert.True(t, v.Available("A", 2))
	assert.False(t, v.Preferred("A", 2))

	assert.False(t, v.Available("B", 0))
	assert.False(t, v.Available("B", 2), "missing hour is unavailable")
	assert.False(t, v.Available("C", 0), "no availability map")
	assert.False(t, v.Available("nobody", 0))
}
