// Package roster answers eligibility and availability questions about the
// team for a given stint grid.
package roster

import (
	"github.com/kilianp07/stintplan/core/model"
	"github.com/kilianp07/stintplan/core/timeline"
)

// View is a read-only projection of the roster onto a timeline.
type View struct {
	tl      timeline.Timeline
	members []model.Participant
	index   map[string]int
}

// New builds a View. Participant order is preserved.
func New(cfg model.RaceConfig, tl timeline.Timeline) *View {
	v := &View{tl: tl, members: cfg.Participants, index: make(map[string]int, len(cfg.Participants))}
	for i, p := range cfg.Participants {
		v.index[p.Name] = i
	}
	return v
}

// Timeline returns the stint grid the view is bound to.
func (v *View) Timeline() timeline.Timeline { return v.tl }

// Members returns every participant in roster order.
func (v *View) Members() []model.Participant { return v.members }

// Member looks a participant up by name.
func (v *View) Member(name string) (model.Participant, bool) {
	i, ok := v.index[name]
	if !ok {
		return model.Participant{}, false
	}
	return v.members[i], true
}

// Pool returns the participants eligible for a role, in roster order.
func (v *View) Pool(r model.Role) []model.Participant {
	var out []model.Participant
	for _, p := range v.members {
		if p.Eligible(r) {
			out = append(out, p)
		}
	}
	return out
}

// Drivers is Pool(RoleDriving).
func (v *View) Drivers() []model.Participant { return v.Pool(model.RoleDriving) }

// Spotters is Pool(RoleSpotting).
func (v *View) Spotters() []model.Participant { return v.Pool(model.RoleSpotting) }

// State returns the participant's availability for the stint. Unknown names
// and missing hours are Unavailable.
func (v *View) State(name string, stint int) model.AvailabilityState {
	p, ok := v.Member(name)
	if !ok || p.Availability == nil {
		return model.Unavailable
	}
	return p.Availability[v.tl.BucketKey(stint)]
}

// Available reports whether the participant may be assigned to the stint.
func (v *View) Available(name string, stint int) bool {
	return v.State(name, stint) != model.Unavailable
}

// Preferred reports whether the participant asked for the stint.
func (v *View) Preferred(name string, stint int) bool {
	return v.State(name, stint) == model.Preferred
}
