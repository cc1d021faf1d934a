// Package itinerary turns a flat stint schedule into per-participant,
// timezone-local duty blocks with rest filling every gap.
package itinerary

import (
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/stintplan/core/model"
	"github.com/kilianp07/stintplan/core/timeline"
)

const (
	// mergeTolerance absorbs rounding when comparing a gap to the pit time.
	mergeTolerance = time.Millisecond
	// restThreshold is the smallest gap reported as rest.
	restThreshold = time.Second
)

// Input carries what consolidation needs besides the schedule.
type Input struct {
	Timeline     timeline.Timeline
	Participants []model.Participant
}

// Window returns the span every itinerary covers: from race start to the
// later of the race end and the end of the last stint, which is driven to
// completion even when the clock has run out.
func Window(tl timeline.Timeline) (time.Time, time.Time) {
	end := tl.End()
	if tl.TotalStints > 0 {
		if last := tl.Stint(tl.TotalStints - 1).End; last.After(end) {
			end = last
		}
	}
	return tl.Start, end
}

// Zone returns the fixed zone for a whole-hour offset.
func Zone(offsetHours int) *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*3600)
}

// Consolidate builds the itinerary of every participant in in.Participants.
// Output depends only on its inputs.
func Consolidate(sched model.Schedule, in Input) model.Itinerary {
	raw := rawDuties(sched, in.Participants)
	start, end := Window(in.Timeline)
	out := make(model.Itinerary, len(in.Participants))
	for _, p := range in.Participants {
		duties := raw[p.Name]
		sort.SliceStable(duties, func(i, j int) bool {
			if duties[i].Start.Equal(duties[j].Start) {
				return duties[i].Activity < duties[j].Activity
			}
			return duties[i].Start.Before(duties[j].Start)
		})
		merged := merge(duties, in.Timeline.PitTime)
		out[p.Name] = fill(p.Name, merged, start, end, Zone(p.Timezone))
	}
	return out
}

func rawDuties(sched model.Schedule, participants []model.Participant) map[string][]model.DutyInterval {
	known := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		known[p.Name] = struct{}{}
	}
	raw := make(map[string][]model.DutyInterval)
	add := func(name string, act model.Activity, st model.Stint) {
		if name == "" || name == model.None {
			return
		}
		if _, ok := known[name]; !ok {
			return
		}
		raw[name] = append(raw[name], model.DutyInterval{
			Participant: name,
			Activity:    act,
			Start:       st.Start,
			End:         st.End,
			Stints:      []int{st.Number()},
		})
	}
	for _, a := range sched {
		add(a.Driver, model.ActivityDriving, a.Stint)
		add(a.Spotter, model.ActivitySpotting, a.Stint)
	}
	return raw
}

// merge joins same-activity blocks separated by exactly one pit stop.
func merge(duties []model.DutyInterval, pit time.Duration) []model.DutyInterval {
	if len(duties) == 0 {
		return nil
	}
	out := []model.DutyInterval{cloneDuty(duties[0])}
	for _, d := range duties[1:] {
		cur := &out[len(out)-1]
		gap := d.Start.Sub(cur.End)
		if d.Activity == cur.Activity && absDuration(gap-pit) <= mergeTolerance {
			cur.End = d.End
			cur.Stints = append(cur.Stints, d.Stints...)
			continue
		}
		out = append(out, cloneDuty(d))
	}
	return out
}

// fill converts blocks to local time and pads gaps with rest.
func fill(name string, blocks []model.DutyInterval, start, end time.Time, loc *time.Location) []model.DutyInterval {
	rest := func(from, to time.Time) model.DutyInterval {
		return model.DutyInterval{Participant: name, Activity: model.ActivityResting, Start: from.In(loc), End: to.In(loc)}
	}
	var out []model.DutyInterval
	cursor := start
	for _, b := range blocks {
		if b.Start.Sub(cursor) > restThreshold {
			out = append(out, rest(cursor, b.Start))
		}
		b.Start = b.Start.In(loc)
		b.End = b.End.In(loc)
		out = append(out, b)
		cursor = b.End
	}
	if end.Sub(cursor) > restThreshold || len(out) == 0 {
		out = append(out, rest(cursor, end))
	}
	return out
}

func cloneDuty(d model.DutyInterval) model.DutyInterval {
	d.Stints = append([]int(nil), d.Stints...)
	return d
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// Totals sums interval durations per activity.
func Totals(intervals []model.DutyInterval) map[model.Activity]time.Duration {
	out := make(map[model.Activity]time.Duration)
	for _, d := range intervals {
		out[d.Activity] += d.Duration()
	}
	return out
}
