package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailabilityStateText(t *testing.T) {
	checks := []struct {
		in   string
		want AvailabilityState
	}{
		{"Unavailable", Unavailable},
		{"Available", Available},
		{"Preferred", Preferred},
		{"", Unavailable},
	}
	for _, c := range checks {
		got, err := ParseAvailabilityState(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, c.in)
	}
	_, err := ParseAvailabilityState("Maybe")
	assert.Error(t, err)

	var m map[string]AvailabilityState
	require.NoError(t, json.Unmarshal([]byte(`{"a":"Preferred","b":"Available"}`), &m))
	assert.Equal(t, Preferred, m["a"])
	assert.Equal(t, Available, m["b"])

	b, err := json.Marshal(map[string]AvailabilityState{"x": Unavailable})
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":"Unavailable"}`, string(b))
}

func TestRaceConfigValidate(t *testing.T) {
	base := RaceConfig{
		Start:         time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		DurationHours: 5.5,
		AvgLapSeconds: 120,
		PitSeconds:    60,
		FuelTankSize:  100,
		FuelUsePerLap: 5,
		Participants: []Participant{
			{Name: "A", IsDriver: true},
			{Name: "B", IsSpotter: true},
		},
	}
	require.NoError(t, base.Validate())
	assert.Equal(t, base.Start.Add(5*time.Hour+30*time.Minute), base.End())

	dup := base
	dup.Participants = append([]Participant{}, base.Participants...)
	dup.Participants = append(dup.Participants, Participant{Name: "A", IsDriver: true})
	assert.True(t, errors.Is(dup.Validate(), ErrInvalidConfig))

	noDriver := base
	noDriver.Participants = []Participant{{Name: "B", IsSpotter: true}}
	assert.True(t, errors.Is(noDriver.Validate(), ErrInvalidConfig))

	badLap := base
	badLap.AvgLapSeconds = 0
	assert.Error(t, badLap.Validate())
}

func TestScheduleCount(t *testing.T) {
	s := Schedule{
		{Driver: "A", Spotter: "B"},
		{Driver: "A", Spotter: None},
		{Driver: "B", Spotter: "A"},
	}
	assert.Equal(t, 2, s.Count("A", RoleDriving))
	assert.Equal(t, 1, s.Count("A", RoleSpotting))
	assert.True(t, s.HasSpotters())
	assert.False(t, Schedule{{Driver: "A"}}.HasSpotters())
}
