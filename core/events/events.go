// Package events defines the planning events emitted on the event bus.
//
// Available event types:
//   - PhaseEvent: one solve round finished (successfully or not)
//   - PlanEvent: a full plan was produced
package events

import (
	"time"

	"github.com/kilianp07/stintplan/core/model"
)

// PhaseEvent is published after each solve round.
type PhaseEvent struct {
	RunID       string
	Phase       int
	Roles       []model.Role
	Status      string
	Elapsed     time.Duration
	Stints      int
	Variables   int
	Constraints int
	Err         error
}

// PlanEvent is published once a schedule has been interpreted.
type PlanEvent struct {
	RunID    string
	Mode     string
	Schedule model.Schedule
	Elapsed  time.Duration
}
