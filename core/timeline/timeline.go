// Package timeline derives the fixed stint grid of a race from its physical
// parameters.
package timeline

import (
	"math"
	"time"

	"github.com/kilianp07/stintplan/core/model"
)

// Timeline is the discretised race: every stint has the same length and
// stints are laid back to back from the race start.
type Timeline struct {
	Start           time.Time
	Length          time.Duration
	StintLaps       int
	LapTime         time.Duration
	PitTime         time.Duration
	DrivingDuration time.Duration
	StintDuration   time.Duration
	TotalStints     int
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// Derive computes the stint grid. A zero fuel use yields zero laps instead of
// a division fault, and a zero-length stint yields zero stints.
func Derive(cfg model.RaceConfig) Timeline {
	tl := Timeline{
		Start:   cfg.Start.UTC(),
		Length:  cfg.Duration(),
		LapTime: seconds(cfg.AvgLapSeconds),
		PitTime: seconds(cfg.PitSeconds),
	}
	if cfg.FuelUsePerLap > 0 {
		tl.StintLaps = int(math.Floor(cfg.FuelTankSize / cfg.FuelUsePerLap))
	}
	drivingSec := float64(tl.StintLaps) * cfg.AvgLapSeconds
	stintSec := drivingSec + cfg.PitSeconds
	tl.DrivingDuration = seconds(drivingSec)
	tl.StintDuration = seconds(stintSec)
	if tl.StintLaps > 0 && stintSec > 0 {
		tl.TotalStints = int(math.Ceil(cfg.DurationHours * 3600 / stintSec))
	}
	return tl
}

// End returns the race end instant.
func (tl Timeline) End() time.Time { return tl.Start.Add(tl.Length) }

// Stint returns stint i (0-based). Start offsets are uniform multiples of the
// stint duration; End excludes the pit stop.
func (tl Timeline) Stint(i int) model.Stint {
	start := tl.Start.Add(time.Duration(i) * tl.StintDuration)
	return model.Stint{
		Index: i,
		Start: start,
		End:   start.Add(tl.DrivingDuration),
		Laps:  tl.StintLaps,
	}
}

// Stints returns every stint of the race in order.
func (tl Timeline) Stints() []model.Stint {
	out := make([]model.Stint, tl.TotalStints)
	for i := range out {
		out[i] = tl.Stint(i)
	}
	return out
}

// BucketKey is the UTC clock hour containing the stint start. Availability is
// looked up by this key only; a second hour spanned by the stint is ignored.
func (tl Timeline) BucketKey(i int) time.Time {
	return tl.Stint(i).Start.UTC().Truncate(time.Hour)
}

// RestStints converts a rest requirement in hours into a number of stints.
func (tl Timeline) RestStints(hours float64) int {
	if tl.StintDuration <= 0 || hours <= 0 {
		return 0
	}
	return int(math.Floor(hours * 3600 / tl.StintDuration.Seconds()))
}

// TotalLaps is the number of laps available across all stints.
func (tl Timeline) TotalLaps() int { return tl.TotalStints * tl.StintLaps }
