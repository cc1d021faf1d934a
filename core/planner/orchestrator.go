// Package planner turns a race configuration into a stint schedule by
// building one MILP per solve round and interpreting the solver's answer.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/stintplan/core/events"
	"github.com/kilianp07/stintplan/core/logger"
	"github.com/kilianp07/stintplan/core/model"
	"github.com/kilianp07/stintplan/core/roster"
	"github.com/kilianp07/stintplan/core/solver"
	"github.com/kilianp07/stintplan/core/timeline"
	"github.com/kilianp07/stintplan/internal/eventbus"
)

// ErrNoStints is returned when the race parameters produce an empty timeline.
var ErrNoStints = errors.New("race calculations resulted in 0 stints")

// SpotterMode selects how the spotting role is scheduled.
type SpotterMode string

const (
	SpotterNone       SpotterMode = "none"
	SpotterIntegrated SpotterMode = "integrated"
	SpotterSequential SpotterMode = "sequential"
)

// ParseSpotterMode parses a mode name; the empty string means none.
func ParseSpotterMode(s string) (SpotterMode, error) {
	switch SpotterMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SpotterNone:
		return SpotterNone, nil
	case SpotterIntegrated:
		return SpotterIntegrated, nil
	case SpotterSequential:
		return SpotterSequential, nil
	default:
		return "", fmt.Errorf("unknown spotter mode %q", s)
	}
}

// Options configure a Planner.
type Options struct {
	Mode      SpotterMode
	TimeLimit time.Duration
	// AllowEmptySpotter lets a stint go without a spotter.
	AllowEmptySpotter bool
	// SpotterFairness applies the fairness floor to spotting as well.
	SpotterFairness bool
	WeightPolicy    WeightPolicy
	CustomWeights   Weights
}

// PhaseError reports which solve round failed.
type PhaseError struct {
	Phase int
	Role  string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase %d (%s): %v", e.Phase, e.Role, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// PhaseResult summarises one solve round.
type PhaseResult struct {
	Phase       int
	Roles       []model.Role
	Status      solver.Status
	Objective   float64
	Elapsed     time.Duration
	Variables   int
	Constraints int
}

// Plan is the outcome of a successful run.
type Plan struct {
	RunID    string
	Mode     SpotterMode
	Timeline timeline.Timeline
	Schedule model.Schedule
	// Status is Feasible when any phase stopped before proving optimality.
	Status  solver.Status
	Phases  []PhaseResult
	Elapsed time.Duration
}

// FrozenAssignment is the driving outcome carried into the spotting round.
type FrozenAssignment struct {
	drivers []string
}

// Freeze captures who drives each stint.
func Freeze(s model.Schedule) FrozenAssignment {
	f := FrozenAssignment{drivers: make([]string, len(s))}
	for i, a := range s {
		f.drivers[i] = a.Driver
	}
	return f
}

// Driving reports whether name drives stint s in the frozen schedule.
func (f FrozenAssignment) Driving(name string, s int) bool {
	return s >= 0 && s < len(f.drivers) && f.drivers[s] == name
}

// Planner coordinates model building and solving.
type Planner struct {
	solver solver.Solver
	opts   Options
	log    logger.Logger
	events eventbus.Publisher[events.PhaseEvent]
}

// New creates a Planner. A nil logger discards output.
func New(s solver.Solver, opts Options, log logger.Logger) *Planner {
	if opts.Mode == "" {
		opts.Mode = SpotterNone
	}
	return &Planner{solver: s, opts: opts, log: logger.OrNop(log)}
}

// WithEvents makes the planner publish a PhaseEvent after every solve round.
func (p *Planner) WithEvents(pub eventbus.Publisher[events.PhaseEvent]) *Planner {
	p.events = pub
	return p
}

// Options returns the planner configuration.
func (p *Planner) Options() Options { return p.opts }

type round struct {
	runID   string
	phase   int
	roles   []model.Role
	problem *solver.Problem
	stints  int
}

// Plan validates cfg, solves one or two rounds depending on the spotter mode
// and returns the interpreted schedule.
func (p *Planner) Plan(ctx context.Context, cfg model.RaceConfig) (*Plan, error) {
	return p.PlanRun(ctx, uuid.NewString(), cfg)
}

// PlanRun is Plan with a caller-chosen run identifier.
func (p *Planner) PlanRun(ctx context.Context, runID string, cfg model.RaceConfig) (*Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tl := timeline.Derive(cfg)
	if tl.TotalStints == 0 {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidConfig, ErrNoStints)
	}
	view := roster.New(cfg, tl)

	mode := p.opts.Mode
	if mode != SpotterNone && len(view.Spotters()) == 0 {
		p.log.Warnf("spotter mode %s requested but roster has no spotters, scheduling drivers only", mode)
		mode = SpotterNone
	}
	p.log.Infof("building %s schedule with %d stints of %d laps", mode, tl.TotalStints, tl.StintLaps)

	plan := &Plan{RunID: runID, Mode: mode, Timeline: tl, Status: solver.Optimal}
	var err error
	switch mode {
	case SpotterIntegrated:
		err = p.planIntegrated(ctx, plan, cfg, view)
	case SpotterSequential:
		err = p.planSequential(ctx, plan, cfg, view)
	default:
		err = p.planDriversOnly(ctx, plan, cfg, view)
	}
	if err != nil {
		return nil, err
	}
	for _, ph := range plan.Phases {
		plan.Elapsed += ph.Elapsed
		if ph.Status == solver.Feasible {
			plan.Status = solver.Feasible
		}
	}
	return plan, nil
}

func (p *Planner) roleSpec(cfg model.RaceConfig, view *roster.View, role model.Role, roles int) RoleSpec {
	tl := view.Timeline()
	pool := view.Pool(role)
	rs := RoleSpec{
		Role:         role,
		Participants: pool,
		Stints:       tl.TotalStints,
		Availability: view,
		RestStints:   tl.RestStints,
		Weights:      p.opts.WeightPolicy.Resolve(tl.TotalStints, roles, p.opts.CustomWeights),
		Log:          p.log,
	}
	if role == model.RoleDriving || p.opts.SpotterFairness {
		rs.FairnessFloor = FairnessFloor(tl.TotalStints, tl.StintLaps, len(pool))
		p.log.Infof("fair share rule: min %d %s stints per participant", rs.FairnessFloor, role)
	}
	if role == model.RoleDriving {
		rs.Pinned = cfg.FirstStintDriver
	}
	if role == model.RoleSpotting {
		rs.AllowEmpty = p.opts.AllowEmptySpotter
	}
	return rs
}

func (p *Planner) planDriversOnly(ctx context.Context, plan *Plan, cfg model.RaceConfig, view *roster.View) error {
	prob := solver.NewProblem("stint-roster")
	drive := BuildRole(prob, p.roleSpec(cfg, view, model.RoleDriving, 1))
	res, err := p.solve(ctx, plan, round{runID: plan.RunID, phase: 1, roles: []model.Role{model.RoleDriving}, problem: prob, stints: drive.Stints})
	if err != nil {
		return err
	}
	plan.Schedule = Interpret(res, plan.Timeline, drive)
	return nil
}

func (p *Planner) planIntegrated(ctx context.Context, plan *Plan, cfg model.RaceConfig, view *roster.View) error {
	prob := solver.NewProblem("stint-roster-integrated")
	drive := BuildRole(prob, p.roleSpec(cfg, view, model.RoleDriving, 2))
	spot := BuildRole(prob, p.roleSpec(cfg, view, model.RoleSpotting, 2))
	AddExclusion(prob, drive, spot)
	roles := []model.Role{model.RoleDriving, model.RoleSpotting}
	res, err := p.solve(ctx, plan, round{runID: plan.RunID, phase: 1, roles: roles, problem: prob, stints: drive.Stints})
	if err != nil {
		return err
	}
	plan.Schedule = Interpret(res, plan.Timeline, drive, spot)
	return nil
}

func (p *Planner) planSequential(ctx context.Context, plan *Plan, cfg model.RaceConfig, view *roster.View) error {
	driveProb := solver.NewProblem("stint-roster-driving")
	drive := BuildRole(driveProb, p.roleSpec(cfg, view, model.RoleDriving, 1))
	res, err := p.solve(ctx, plan, round{runID: plan.RunID, phase: 1, roles: []model.Role{model.RoleDriving}, problem: driveProb, stints: drive.Stints})
	if err != nil {
		return err
	}
	sched := Interpret(res, plan.Timeline, drive)

	spotProb := solver.NewProblem("stint-roster-spotting")
	spot := BuildRole(spotProb, p.roleSpec(cfg, view, model.RoleSpotting, 1))
	AddFrozen(spotProb, spot, Freeze(sched))
	res, err = p.solve(ctx, plan, round{runID: plan.RunID, phase: 2, roles: []model.Role{model.RoleSpotting}, problem: spotProb, stints: spot.Stints})
	if err != nil {
		return err
	}
	spotted := Interpret(res, plan.Timeline, spot)
	for i := range sched {
		sched[i].Spotter = spotted[i].Spotter
	}
	plan.Schedule = sched
	return nil
}

// AddExclusion forbids a participant from holding both roles in one stint.
func AddExclusion(prob *solver.Problem, drive, spot *RoleModel) {
	for i, pt := range drive.Participants {
		j := spot.Index(pt.Name)
		if j < 0 {
			continue
		}
		for s := 0; s < drive.Stints && s < spot.Stints; s++ {
			prob.AddConstraint(fmt.Sprintf("exclusive_%s_%d", pt.Name, s), solver.LE, 1,
				solver.Term{Var: drive.X[i][s], Coef: 1},
				solver.Term{Var: spot.X[j][s], Coef: 1})
		}
	}
}

// AddFrozen forbids spotting wherever the frozen schedule has the same
// participant driving.
func AddFrozen(prob *solver.Problem, spot *RoleModel, frozen FrozenAssignment) {
	for i, pt := range spot.Participants {
		for s := 0; s < spot.Stints; s++ {
			if frozen.Driving(pt.Name, s) {
				prob.AddConstraint(fmt.Sprintf("frozen_%s_%d", pt.Name, s), solver.EQ, 0,
					solver.Term{Var: spot.X[i][s], Coef: 1})
			}
		}
	}
}

func roleLabel(roles []model.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	return strings.Join(names, "+")
}

func (p *Planner) solve(ctx context.Context, plan *Plan, r round) (*solver.Result, error) {
	label := roleLabel(r.roles)
	p.log.Debugw("solving", map[string]any{
		"phase":       r.phase,
		"roles":       label,
		"variables":   len(r.problem.Vars),
		"constraints": len(r.problem.Constraints),
		"time_limit":  p.opts.TimeLimit.String(),
	})
	start := time.Now()
	res, err := p.solver.Solve(ctx, r.problem, p.opts.TimeLimit)
	elapsed := time.Since(start)
	if err == nil {
		err = res.Err()
	}

	ev := events.PhaseEvent{
		RunID:       r.runID,
		Phase:       r.phase,
		Roles:       r.roles,
		Elapsed:     elapsed,
		Stints:      r.stints,
		Variables:   len(r.problem.Vars),
		Constraints: len(r.problem.Constraints),
		Err:         err,
	}
	if res != nil {
		ev.Status = res.Status.String()
	} else {
		ev.Status = "error"
	}
	if p.events != nil {
		p.events.Publish(ev)
	}

	if err != nil {
		p.log.Errorf("phase %d (%s) failed after %s: %v", r.phase, label, elapsed, err)
		return nil, &PhaseError{Phase: r.phase, Role: label, Err: err}
	}
	if res.Status == solver.Feasible {
		p.log.Warnf("phase %d (%s): time limit reached before proving optimality, using best schedule found", r.phase, label)
	}
	p.log.Infof("phase %d (%s) solved in %.2fs: %s, objective %.0f", r.phase, label, elapsed.Seconds(), res.Status, res.Objective)
	plan.Phases = append(plan.Phases, PhaseResult{
		Phase:       r.phase,
		Roles:       r.roles,
		Status:      res.Status,
		Objective:   res.Objective,
		Elapsed:     elapsed,
		Variables:   len(r.problem.Vars),
		Constraints: len(r.problem.Constraints),
	})
	return res, nil
}
