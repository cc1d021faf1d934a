package model

import "time"

// None marks a stint slot that no participant fills.
const None = "N/A"

// Stint is one fixed-length block of the race. End excludes the pit stop.
type Stint struct {
	Index int
	Start time.Time
	End   time.Time
	Laps  int
}

// Number returns the 1-based stint number shown to people.
func (s Stint) Number() int { return s.Index + 1 }

// StintAssignment records who drives and who spots a stint.
type StintAssignment struct {
	Stint   Stint
	Driver  string
	Spotter string
}

// Schedule is the ordered list of stint assignments.
type Schedule []StintAssignment

// HasSpotters reports whether the spotter column was modeled.
func (s Schedule) HasSpotters() bool {
	for _, a := range s {
		if a.Spotter != "" {
			return true
		}
	}
	return false
}

// Count returns the number of stints the participant holds in the role.
func (s Schedule) Count(name string, r Role) int {
	n := 0
	for _, a := range s {
		if r == RoleDriving && a.Driver == name {
			n++
		}
		if r == RoleSpotting && a.Spotter == name {
			n++
		}
	}
	return n
}

// Activity describes what a participant is doing during an interval.
type Activity string

const (
	ActivityDriving  Activity = "Driving"
	ActivitySpotting Activity = "Spotting"
	ActivityResting  Activity = "Resting"
)

// ActivityFor maps a role to the activity it produces.
func ActivityFor(r Role) Activity {
	if r == RoleSpotting {
		return ActivitySpotting
	}
	return ActivityDriving
}

// DutyInterval is a half-open [Start, End) span of one activity.
type DutyInterval struct {
	Participant string
	Activity    Activity
	Start       time.Time
	End         time.Time
	// Stints lists the 1-based stint numbers covered, empty for rest.
	Stints []int
}

// Duration returns End - Start.
func (d DutyInterval) Duration() time.Duration { return d.End.Sub(d.Start) }

// Itinerary maps each participant to their local-time intervals.
type Itinerary map[string][]DutyInterval
