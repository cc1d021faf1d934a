package export

import (
	"fmt"
	"time"

	"github.com/kilianp07/stintplan/core/itinerary"
	"github.com/kilianp07/stintplan/core/model"
	"github.com/kilianp07/stintplan/core/timeline"
)

// SummaryRow is the load of one participant in one role.
type SummaryRow struct {
	Name   string
	Stints int
	Laps   int
}

// Report holds everything the renderers need.
type Report struct {
	Race      model.RaceConfig
	Timeline  timeline.Timeline
	Schedule  model.Schedule
	Itinerary model.Itinerary
	Hourly    []itinerary.HourlyRow
	// Drivers lists every driver in roster order, including idle ones.
	Drivers []SummaryRow
	// Spotters lists spotters with at least one stint; empty when the
	// schedule has no spotter column.
	Spotters      []SummaryRow
	SolveDuration time.Duration
}

// BuildReport rebuilds the stint grid from the race data and attaches the
// solved assignments to it.
func BuildReport(sf *SolvedFile) (*Report, error) {
	race, err := sf.RaceData.ToModel()
	if err != nil {
		return nil, err
	}
	tl := timeline.Derive(race)
	sched := make(model.Schedule, len(sf.Schedule))
	spotters := false
	for i, e := range sf.Schedule {
		if e.Stint < 1 || e.Stint > tl.TotalStints {
			return nil, fmt.Errorf("%w: stint %d outside race of %d stints", model.ErrInvalidConfig, e.Stint, tl.TotalStints)
		}
		if e.Spotter != "" {
			spotters = true
		}
		sched[i] = model.StintAssignment{Stint: tl.Stint(e.Stint - 1), Driver: e.Driver, Spotter: e.Spotter}
	}
	if spotters {
		for i := range sched {
			if sched[i].Spotter == "" {
				sched[i].Spotter = model.None
			}
		}
	}

	in := itinerary.Input{Timeline: tl, Participants: race.Participants}
	return &Report{
		Race:          race,
		Timeline:      tl,
		Schedule:      sched,
		Itinerary:     itinerary.Consolidate(sched, in),
		Hourly:        itinerary.HourlySummary(sched, in),
		Drivers:       summarize(sched, race.Participants, model.RoleDriving, false),
		Spotters:      spotterSummary(sched, race.Participants),
		SolveDuration: time.Duration(sf.SolveDurationSeconds * float64(time.Second)),
	}, nil
}

func spotterSummary(sched model.Schedule, members []model.Participant) []SummaryRow {
	if !sched.HasSpotters() {
		return nil
	}
	return summarize(sched, members, model.RoleSpotting, true)
}

func summarize(sched model.Schedule, members []model.Participant, role model.Role, skipIdle bool) []SummaryRow {
	var out []SummaryRow
	for _, p := range members {
		if !p.Eligible(role) {
			continue
		}
		row := SummaryRow{Name: p.Name}
		for _, a := range sched {
			name := a.Driver
			if role == model.RoleSpotting {
				name = a.Spotter
			}
			if name == p.Name {
				row.Stints++
				row.Laps += a.Stint.Laps
			}
		}
		if skipIdle && row.Stints == 0 {
			continue
		}
		out = append(out, row)
	}
	return out
}

// HasSpotters reports whether the spotter column is rendered.
func (r *Report) HasSpotters() bool { return r.Schedule.HasSpotters() }
