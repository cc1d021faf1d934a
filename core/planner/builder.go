package planner

import (
	"fmt"
	"math"

	"github.com/kilianp07/stintplan/core/logger"
	"github.com/kilianp07/stintplan/core/model"
	"github.com/kilianp07/stintplan/core/solver"
)

// Availability answers per-stint questions for a participant.
// *roster.View implements it.
type Availability interface {
	Available(name string, stint int) bool
	Preferred(name string, stint int) bool
}

// RoleSpec describes everything BuildRole needs to model one role.
type RoleSpec struct {
	Role         model.Role
	Participants []model.Participant
	Stints       int
	Availability Availability
	// AllowEmpty relaxes coverage from "exactly one" to "at most one".
	AllowEmpty bool
	// FairnessFloor is the minimum stint count per participant, 0 for none.
	FairnessFloor int
	// RestStints converts a participant's rest hours into a stint count.
	RestStints func(hours float64) int
	// Pinned names the participant forced onto stint 0.
	Pinned  string
	Weights Weights
	Log     logger.Logger
}

// RoleModel holds the variable indices created for one role.
type RoleModel struct {
	Role         model.Role
	Participants []model.Participant
	Stints       int
	// X[p][s] is 1 when participant p holds stint s.
	X [][]int
	// T[p][s] is 1 when participant p starts a run of duty at stint s.
	T [][]int
	// Rest[p] lists the window binaries for participant p, nil if none.
	Rest     [][]int
	Max, Min int
}

// Index returns the position of name in the model, or -1.
func (m *RoleModel) Index(name string) int {
	for i, p := range m.Participants {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Var returns the assignment variable of name at stint s.
func (m *RoleModel) Var(name string, s int) (int, bool) {
	i := m.Index(name)
	if i < 0 || s < 0 || s >= m.Stints {
		return 0, false
	}
	return m.X[i][s], true
}

func rolePrefix(r model.Role) string {
	if r == model.RoleSpotting {
		return "spot"
	}
	return "drive"
}

// FairnessFloor returns the minimum number of stints each of n eligible
// participants must hold: a quarter of an equal share of laps, rounded up to
// whole stints.
func FairnessFloor(totalStints, stintLaps, n int) int {
	if stintLaps <= 0 || n <= 0 {
		return 0
	}
	minLaps := math.Ceil(0.25 * float64(totalStints*stintLaps) / float64(n))
	return int(math.Ceil(minLaps / float64(stintLaps)))
}

// BuildRole adds the variables, constraints and objective terms for one role
// to p. It may be called once per role on the same problem.
func BuildRole(p *solver.Problem, rs RoleSpec) *RoleModel {
	log := logger.OrNop(rs.Log)
	prefix := rolePrefix(rs.Role)
	n := rs.Stints
	m := &RoleModel{
		Role:         rs.Role,
		Participants: rs.Participants,
		Stints:       n,
		X:            make([][]int, len(rs.Participants)),
		T:            make([][]int, len(rs.Participants)),
		Rest:         make([][]int, len(rs.Participants)),
	}

	for i, pt := range rs.Participants {
		m.X[i] = make([]int, n)
		m.T[i] = make([]int, n)
		for s := 0; s < n; s++ {
			m.X[i][s] = p.AddBinary(fmt.Sprintf("%s_%s_%d", prefix, pt.Name, s))
			m.T[i][s] = p.AddBinary(fmt.Sprintf("%s_turnover_%s_%d", prefix, pt.Name, s))
		}
	}
	m.Max = p.AddInteger(prefix+"_max", 0, float64(n))
	m.Min = p.AddInteger(prefix+"_min", 0, float64(n))

	addAvailability(p, m, rs, prefix)
	addCoverage(p, m, rs, prefix)
	addTurnover(p, m, prefix)
	addConsecutiveCap(p, m, prefix)
	addCounts(p, m, rs, prefix)
	addRest(p, m, rs, prefix, log)
	addPinned(p, m, rs, prefix, log)
	addObjective(p, m, rs)

	log.Debugw("role model built", map[string]any{
		"role":         rs.Role.String(),
		"participants": len(rs.Participants),
		"stints":       n,
		"variables":    len(p.Vars),
		"constraints":  len(p.Constraints),
	})
	return m
}

func addAvailability(p *solver.Problem, m *RoleModel, rs RoleSpec, prefix string) {
	if rs.Availability == nil {
		return
	}
	for i, pt := range m.Participants {
		for s := 0; s < m.Stints; s++ {
			if !rs.Availability.Available(pt.Name, s) {
				p.AddConstraint(fmt.Sprintf("%s_unavailable_%s_%d", prefix, pt.Name, s),
					solver.EQ, 0, solver.Term{Var: m.X[i][s], Coef: 1})
			}
		}
	}
}

func addCoverage(p *solver.Problem, m *RoleModel, rs RoleSpec, prefix string) {
	sense := solver.EQ
	if rs.AllowEmpty {
		sense = solver.LE
	}
	for s := 0; s < m.Stints; s++ {
		terms := make([]solver.Term, len(m.Participants))
		for i := range m.Participants {
			terms[i] = solver.Term{Var: m.X[i][s], Coef: 1}
		}
		p.AddConstraint(fmt.Sprintf("%s_cover_%d", prefix, s), sense, 1, terms...)
	}
}

func addTurnover(p *solver.Problem, m *RoleModel, prefix string) {
	for i, pt := range m.Participants {
		for s := 0; s < m.Stints; s++ {
			name := fmt.Sprintf("%s_turnover_%s_%d", prefix, pt.Name, s)
			terms := []solver.Term{{Var: m.T[i][s], Coef: 1}, {Var: m.X[i][s], Coef: -1}}
			if s > 0 {
				terms = append(terms, solver.Term{Var: m.X[i][s-1], Coef: 1})
			}
			p.AddConstraint(name, solver.GE, 0, terms...)
		}
	}
}

func addConsecutiveCap(p *solver.Problem, m *RoleModel, prefix string) {
	for i, pt := range m.Participants {
		limit := pt.PreferredStints
		if limit <= 0 {
			continue
		}
		for s := 0; s+limit < m.Stints; s++ {
			terms := make([]solver.Term, 0, limit+1)
			for k := 0; k <= limit; k++ {
				terms = append(terms, solver.Term{Var: m.X[i][s+k], Coef: 1})
			}
			p.AddConstraint(fmt.Sprintf("%s_consecutive_%s_%d", prefix, pt.Name, s),
				solver.LE, float64(limit), terms...)
		}
	}
}

func addCounts(p *solver.Problem, m *RoleModel, rs RoleSpec, prefix string) {
	for i, pt := range m.Participants {
		total := make([]solver.Term, m.Stints)
		for s := 0; s < m.Stints; s++ {
			total[s] = solver.Term{Var: m.X[i][s], Coef: 1}
		}
		p.AddConstraint(fmt.Sprintf("%s_max_%s", prefix, pt.Name), solver.GE, 0,
			append([]solver.Term{{Var: m.Max, Coef: 1}}, negate(total)...)...)
		p.AddConstraint(fmt.Sprintf("%s_min_%s", prefix, pt.Name), solver.LE, 0,
			append([]solver.Term{{Var: m.Min, Coef: 1}}, negate(total)...)...)
		if rs.FairnessFloor > 0 {
			p.AddConstraint(fmt.Sprintf("%s_fair_%s", prefix, pt.Name), solver.GE,
				float64(rs.FairnessFloor), total...)
		}
	}
}

// addRest requires at least one window of R consecutive idle stints. One
// binary per window start selects the window that is kept idle.
func addRest(p *solver.Problem, m *RoleModel, rs RoleSpec, prefix string, log logger.Logger) {
	if rs.RestStints == nil {
		return
	}
	for i, pt := range m.Participants {
		r := rs.RestStints(pt.MinimumRestHours)
		if r <= 0 {
			continue
		}
		if r > m.Stints {
			// No window fits, so the empty selector row makes the model infeasible.
			log.Warnf("%s: rest of %d stints cannot fit in a race of %d stints", pt.Name, r, m.Stints)
			p.AddConstraint(fmt.Sprintf("%s_rest_%s", prefix, pt.Name), solver.GE, 1)
			continue
		}
		bigM := float64(r + 1)
		windows := m.Stints - r + 1
		selectors := make([]solver.Term, windows)
		m.Rest[i] = make([]int, windows)
		for k := 0; k < windows; k++ {
			rk := p.AddBinary(fmt.Sprintf("%s_rest_%s_%d", prefix, pt.Name, k))
			m.Rest[i][k] = rk
			selectors[k] = solver.Term{Var: rk, Coef: 1}
			// Σ x[k..k+r-1] <= M(1 - r_k)  <=>  Σ x + M r_k <= M
			terms := make([]solver.Term, 0, r+1)
			for j := 0; j < r; j++ {
				terms = append(terms, solver.Term{Var: m.X[i][k+j], Coef: 1})
			}
			terms = append(terms, solver.Term{Var: rk, Coef: bigM})
			p.AddConstraint(fmt.Sprintf("%s_rest_%s_%d", prefix, pt.Name, k), solver.LE, bigM, terms...)
		}
		p.AddConstraint(fmt.Sprintf("%s_rest_%s", prefix, pt.Name), solver.GE, 1, selectors...)
	}
}

func addPinned(p *solver.Problem, m *RoleModel, rs RoleSpec, prefix string, log logger.Logger) {
	if rs.Pinned == "" || m.Stints == 0 {
		return
	}
	v, ok := m.Var(rs.Pinned, 0)
	if !ok {
		log.Warnf("first stint %s %q is not eligible, constraint ignored", rs.Role, rs.Pinned)
		return
	}
	p.AddConstraint(prefix+"_pinned", solver.EQ, 1, solver.Term{Var: v, Coef: 1})
}

func addObjective(p *solver.Problem, m *RoleModel, rs RoleSpec) {
	w := rs.Weights
	p.AddObjective(m.Max, w.Balance)
	p.AddObjective(m.Min, -w.Balance)
	for i, pt := range m.Participants {
		for s := 0; s < m.Stints; s++ {
			p.AddObjective(m.T[i][s], w.Turnover)
			if rs.Availability != nil && rs.Availability.Preferred(pt.Name, s) {
				p.AddObjective(m.X[i][s], -w.Preference)
			}
		}
	}
}

func negate(terms []solver.Term) []solver.Term {
	out := make([]solver.Term, len(terms))
	for i, t := range terms {
		out[i] = solver.Term{Var: t.Var, Coef: -t.Coef}
	}
	return out
}
