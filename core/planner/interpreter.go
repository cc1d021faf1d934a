package planner

import (
	"github.com/kilianp07/stintplan/core/model"
	"github.com/kilianp07/stintplan/core/solver"
	"github.com/kilianp07/stintplan/core/timeline"
)

// Interpret reads a solved assignment back into a schedule. For each stint
// and modeled role the first participant, in pool order, whose variable is
// set wins; otherwise the slot is model.None. The spotter column stays empty
// unless a spotting model is given.
func Interpret(res *solver.Result, tl timeline.Timeline, models ...*RoleModel) model.Schedule {
	out := make(model.Schedule, tl.TotalStints)
	for s := range out {
		out[s] = model.StintAssignment{Stint: tl.Stint(s), Driver: model.None}
	}
	for _, m := range models {
		for s := 0; s < m.Stints && s < len(out); s++ {
			who := assigned(res, m, s)
			if m.Role == model.RoleSpotting {
				out[s].Spotter = who
			} else {
				out[s].Driver = who
			}
		}
	}
	return out
}

func assigned(res *solver.Result, m *RoleModel, s int) string {
	for i, pt := range m.Participants {
		if res.IsSet(m.X[i][s]) {
			return pt.Name
		}
	}
	return model.None
}
