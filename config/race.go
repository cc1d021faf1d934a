package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/stintplan/core/model"
)

// MemberFile is one team member as written in a race file.
type MemberFile struct {
	Name             string  `json:"name" yaml:"name" validate:"required"`
	IsDriver         bool    `json:"isDriver" yaml:"isDriver"`
	IsSpotter        bool    `json:"isSpotter" yaml:"isSpotter"`
	PreferredStints  int     `json:"preferredStints" yaml:"preferredStints" validate:"gte=0"`
	Timezone         int     `json:"timezone" yaml:"timezone" validate:"gte=-12,lte=14"`
	MinimumRestHours float64 `json:"minimumRestHours" yaml:"minimumRestHours" validate:"gte=0"`
}

// RaceFile is the on-disk race description. Availability maps a member name
// to ISO hour keys and Available, Preferred or Unavailable.
type RaceFile struct {
	RaceStartUTC        string                       `json:"raceStartUTC" yaml:"raceStartUTC" validate:"required"`
	DurationHours       float64                      `json:"durationHours" yaml:"durationHours" validate:"gt=0"`
	AvgLapTimeInSeconds float64                      `json:"avgLapTimeInSeconds" yaml:"avgLapTimeInSeconds" validate:"gt=0"`
	PitTimeInSeconds    float64                      `json:"pitTimeInSeconds" yaml:"pitTimeInSeconds" validate:"gte=0"`
	FuelTankSize        float64                      `json:"fuelTankSize" yaml:"fuelTankSize" validate:"gt=0"`
	FuelUsePerLap       float64                      `json:"fuelUsePerLap" yaml:"fuelUsePerLap" validate:"gte=0"`
	FirstStintDriver    string                       `json:"firstStintDriver,omitempty" yaml:"firstStintDriver,omitempty"`
	TeamMembers         []MemberFile                 `json:"teamMembers" yaml:"teamMembers" validate:"required,min=1,dive"`
	Availability        map[string]map[string]string `json:"availability" yaml:"availability"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// LoadRace reads a race file; the format follows the extension and
// defaults to JSON.
func LoadRace(path string) (*RaceFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	return DecodeRace(f, format)
}

// DecodeRace parses and validates a race file. format is "json", "yaml" or
// empty to sniff the content.
func DecodeRace(r io.Reader, format string) (*RaceFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = "yaml"
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
			format = "json"
		}
	}
	var rf RaceFile
	switch format {
	case "json":
		err = json.Unmarshal(data, &rf)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &rf)
	default:
		return nil, fmt.Errorf("unsupported race format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode race: %v", model.ErrInvalidConfig, err)
	}
	if err := rf.Validate(); err != nil {
		return nil, err
	}
	return &rf, nil
}

// Validate runs the field checks.
func (rf RaceFile) Validate() error {
	err := validate.Struct(rf)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", model.ErrInvalidConfig, err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "RaceFile.")
		if fe.Param() != "" {
			msgs[i] = fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
		} else {
			msgs[i] = fmt.Sprintf("%s is %s", field, fe.Tag())
		}
	}
	return fmt.Errorf("%w: %s", model.ErrInvalidConfig, strings.Join(msgs, "; "))
}

func parseInstant(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ToModel converts the file into a race configuration. Availability keys
// are truncated to the UTC hour.
func (rf RaceFile) ToModel() (model.RaceConfig, error) {
	start, err := parseInstant(rf.RaceStartUTC)
	if err != nil {
		return model.RaceConfig{}, fmt.Errorf("%w: raceStartUTC: %v", model.ErrInvalidConfig, err)
	}
	cfg := model.RaceConfig{
		Start:            start,
		DurationHours:    rf.DurationHours,
		AvgLapSeconds:    rf.AvgLapTimeInSeconds,
		PitSeconds:       rf.PitTimeInSeconds,
		FuelTankSize:     rf.FuelTankSize,
		FuelUsePerLap:    rf.FuelUsePerLap,
		FirstStintDriver: rf.FirstStintDriver,
		Participants:     make([]model.Participant, len(rf.TeamMembers)),
	}
	known := make(map[string]bool, len(rf.TeamMembers))
	for i, m := range rf.TeamMembers {
		known[m.Name] = true
		avail, err := parseAvailability(rf.Availability[m.Name])
		if err != nil {
			return model.RaceConfig{}, fmt.Errorf("%w: availability of %q: %v", model.ErrInvalidConfig, m.Name, err)
		}
		cfg.Participants[i] = model.Participant{
			Name:             m.Name,
			IsDriver:         m.IsDriver,
			IsSpotter:        m.IsSpotter,
			PreferredStints:  m.PreferredStints,
			MinimumRestHours: m.MinimumRestHours,
			Timezone:         m.Timezone,
			Availability:     avail,
		}
	}
	var unknown []string
	for name := range rf.Availability {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return model.RaceConfig{}, fmt.Errorf("%w: availability for unknown members %v", model.ErrInvalidConfig, unknown)
	}
	if err := cfg.Validate(); err != nil {
		return model.RaceConfig{}, err
	}
	return cfg, nil
}

// parseAvailability keys states by hour start. Two entries falling in the
// same hour are rejected since either could win.
func parseAvailability(hours map[string]string) (map[time.Time]model.AvailabilityState, error) {
	keys := make([]string, 0, len(hours))
	for key := range hours {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make(map[time.Time]model.AvailabilityState, len(hours))
	seen := make(map[time.Time]string, len(hours))
	for _, key := range keys {
		t, err := parseInstant(key)
		if err != nil {
			return nil, err
		}
		state, err := model.ParseAvailabilityState(hours[key])
		if err != nil {
			return nil, err
		}
		hour := t.Truncate(time.Hour)
		if prev, dup := seen[hour]; dup {
			return nil, fmt.Errorf("%q and %q fall in the same hour", prev, key)
		}
		seen[hour] = key
		out[hour] = state
	}
	return out, nil
}
