package itinerary

import (
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/stintplan/core/model"
)

// Label renders an interval as "Driving Stint #3", "Spotting Stints #4-6"
// or "Resting".
func Label(d model.DutyInterval) string {
	switch len(d.Stints) {
	case 0:
		return string(d.Activity)
	case 1:
		return fmt.Sprintf("%s Stint #%d", d.Activity, d.Stints[0])
	default:
		return fmt.Sprintf("%s Stints #%d-%d", d.Activity, d.Stints[0], d.Stints[len(d.Stints)-1])
	}
}

func plural(n int, unit string) string {
	if n > 1 {
		return fmt.Sprintf("%d %ss", n, unit)
	}
	return fmt.Sprintf("%d %s", n, unit)
}

// FormatDuration renders d as "for 1 hour and 5 minutes". Seconds are
// dropped; durations under a minute render as "".
func FormatDuration(d time.Duration) string {
	total := int(d / time.Second)
	hours, minutes := total/3600, (total%3600)/60
	var parts []string
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if len(parts) == 0 {
		return ""
	}
	return "for " + strings.Join(parts, " and ")
}

// HourlyRow is one member's sequential hour grid from race start.
type HourlyRow struct {
	Name     string
	Timezone int
	Hours    []model.Activity
}

// Code is the one-letter grid symbol of an activity.
func Code(a model.Activity) string {
	switch a {
	case model.ActivityDriving:
		return "D"
	case model.ActivitySpotting:
		return "s"
	default:
		return "."
	}
}

// HourlySummary marks, for each race hour, whether a member drives or spots
// at any point in that hour. Driving wins over spotting.
func HourlySummary(sched model.Schedule, in Input) []HourlyRow {
	hours := int(in.Timeline.Length / time.Hour)
	if in.Timeline.Length%time.Hour != 0 {
		hours++
	}
	rows := make([]HourlyRow, len(in.Participants))
	index := make(map[string]int, len(in.Participants))
	for i, p := range in.Participants {
		rows[i] = HourlyRow{Name: p.Name, Timezone: p.Timezone, Hours: make([]model.Activity, hours)}
		for h := range rows[i].Hours {
			rows[i].Hours[h] = model.ActivityResting
		}
		index[p.Name] = i
	}
	hourOf := func(t time.Time) int { return int(t.Sub(in.Timeline.Start) / time.Hour) }
	mark := func(name string, act model.Activity, st model.Stint) {
		i, ok := index[name]
		if !ok {
			return
		}
		from, to := max(hourOf(st.Start), 0), min(hourOf(st.End), hours-1)
		for h := from; h <= to; h++ {
			if act == model.ActivitySpotting && rows[i].Hours[h] == model.ActivityDriving {
				continue
			}
			rows[i].Hours[h] = act
		}
	}
	for _, a := range sched {
		mark(a.Driver, model.ActivityDriving, a.Stint)
		mark(a.Spotter, model.ActivitySpotting, a.Stint)
	}
	return rows
}
