// Package export reads and writes solved schedules and renders them as
// JSON, CSV, text, XLSX and HTML reports.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kilianp07/stintplan/config"
	"github.com/kilianp07/stintplan/core/model"
)

// TimeLayout is the UTC timestamp format used in solved files and reports.
const TimeLayout = "2006-01-02 15:04:05"

// Entry is one row of the master schedule.
type Entry struct {
	Stint        int    `json:"stint"`
	StartTimeUTC string `json:"startTimeUTC"`
	EndTimeUTC   string `json:"endTimeUTC"`
	Driver       string `json:"driver"`
	Spotter      string `json:"spotter,omitempty"`
	Laps         int    `json:"laps"`
}

// SolvedFile is the solver output: the race it was built from plus the
// schedule. Reports are generated from it without solving again.
type SolvedFile struct {
	RaceData             config.RaceFile `json:"raceData"`
	Schedule             []Entry         `json:"schedule"`
	SolveDurationSeconds float64         `json:"solveDurationSeconds,omitempty"`
}

// NewSolvedFile pairs a race with its schedule. Spotters are written only
// when the schedule modeled them.
func NewSolvedFile(race config.RaceFile, sched model.Schedule, elapsed time.Duration) SolvedFile {
	spotters := sched.HasSpotters()
	sf := SolvedFile{
		RaceData:             race,
		Schedule:             make([]Entry, len(sched)),
		SolveDurationSeconds: elapsed.Seconds(),
	}
	for i, a := range sched {
		e := Entry{
			Stint:        a.Stint.Number(),
			StartTimeUTC: a.Stint.Start.UTC().Format(TimeLayout),
			EndTimeUTC:   a.Stint.End.UTC().Format(TimeLayout),
			Driver:       a.Driver,
			Laps:         a.Stint.Laps,
		}
		if spotters {
			e.Spotter = a.Spotter
		}
		sf.Schedule[i] = e
	}
	return sf
}

// WriteSolved writes sf as indented JSON.
func WriteSolved(w io.Writer, sf SolvedFile) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(sf)
}

// ReadSolved decodes a solved file and validates its race data.
func ReadSolved(r io.Reader) (*SolvedFile, error) {
	var sf SolvedFile
	if err := json.NewDecoder(r).Decode(&sf); err != nil {
		return nil, fmt.Errorf("decode solved file: %w", err)
	}
	if len(sf.Schedule) == 0 {
		return nil, fmt.Errorf("%w: solved file has no schedule", model.ErrInvalidConfig)
	}
	if err := sf.RaceData.Validate(); err != nil {
		return nil, err
	}
	return &sf, nil
}

// LoadSolved reads a solved file from disk.
func LoadSolved(path string) (*SolvedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadSolved(f)
}
