package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned when a race configuration fails validation.
var ErrInvalidConfig = errors.New("invalid race configuration")

// AvailabilityState describes whether a participant can take a duty during
// a given clock hour.
type AvailabilityState int

const (
	Unavailable AvailabilityState = iota
	Available
	Preferred
)

// String returns the textual form used in race files.
func (s AvailabilityState) String() string {
	switch s {
	case Available:
		return "Available"
	case Preferred:
		return "Preferred"
	default:
		return "Unavailable"
	}
}

// ParseAvailabilityState converts the textual form into a state. Unknown
// values are rejected so that typos do not silently mark a person unavailable.
func ParseAvailabilityState(s string) (AvailabilityState, error) {
	switch s {
	case "Unavailable", "":
		return Unavailable, nil
	case "Available":
		return Available, nil
	case "Preferred":
		return Preferred, nil
	default:
		return Unavailable, fmt.Errorf("unknown availability state %q", s)
	}
}

func (s AvailabilityState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *AvailabilityState) UnmarshalText(b []byte) error {
	v, err := ParseAvailabilityState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Role identifies the kind of duty performed during a stint.
type Role int

const (
	RoleDriving Role = iota
	RoleSpotting
)

func (r Role) String() string {
	if r == RoleSpotting {
		return "spotting"
	}
	return "driving"
}

// Participant is a team member who may drive, spot, or both.
type Participant struct {
	Name      string
	IsDriver  bool
	IsSpotter bool
	// PreferredStints caps consecutive duties of the same role. 0 disables the cap.
	PreferredStints  int
	MinimumRestHours float64
	// Timezone is the whole-hour offset from UTC used for itineraries.
	Timezone int
	// Availability is keyed by the UTC start of each clock hour.
	Availability map[time.Time]AvailabilityState
}

// Eligible reports whether the participant can take the given role.
func (p Participant) Eligible(r Role) bool {
	if r == RoleSpotting {
		return p.IsSpotter
	}
	return p.IsDriver
}

// Offset returns the participant's timezone as a duration.
func (p Participant) Offset() time.Duration {
	return time.Duration(p.Timezone) * time.Hour
}

// RaceConfig holds the physical race parameters and the roster.
type RaceConfig struct {
	Start            time.Time
	DurationHours    float64
	AvgLapSeconds    float64
	PitSeconds       float64
	FuelTankSize     float64
	FuelUsePerLap    float64
	FirstStintDriver string
	Participants     []Participant
}

// Duration returns the race length.
func (c RaceConfig) Duration() time.Duration {
	return time.Duration(c.DurationHours * float64(time.Hour))
}

// End returns the instant the race finishes.
func (c RaceConfig) End() time.Time {
	return c.Start.Add(c.Duration())
}

// Participant returns the roster entry with the given name.
func (c RaceConfig) Participant(name string) (Participant, bool) {
	for _, p := range c.Participants {
		if p.Name == name {
			return p, true
		}
	}
	return Participant{}, false
}

// Validate checks the semantic rules that struct tags cannot express.
func (c RaceConfig) Validate() error {
	if c.DurationHours <= 0 {
		return fmt.Errorf("%w: durationHours must be positive", ErrInvalidConfig)
	}
	if c.AvgLapSeconds <= 0 {
		return fmt.Errorf("%w: avgLapTimeInSeconds must be positive", ErrInvalidConfig)
	}
	if c.PitSeconds < 0 {
		return fmt.Errorf("%w: pitTimeInSeconds must not be negative", ErrInvalidConfig)
	}
	if c.FuelTankSize <= 0 || c.FuelUsePerLap < 0 {
		return fmt.Errorf("%w: fuel parameters out of range", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(c.Participants))
	drivers := 0
	for _, p := range c.Participants {
		if p.Name == "" {
			return fmt.Errorf("%w: participant without a name", ErrInvalidConfig)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%w: duplicate participant %q", ErrInvalidConfig, p.Name)
		}
		seen[p.Name] = struct{}{}
		if p.PreferredStints < 0 || p.MinimumRestHours < 0 {
			return fmt.Errorf("%w: participant %q has negative limits", ErrInvalidConfig, p.Name)
		}
		if p.IsDriver {
			drivers++
		}
	}
	if drivers == 0 {
		return fmt.Errorf("%w: no drivers in roster", ErrInvalidConfig)
	}
	return nil
}
