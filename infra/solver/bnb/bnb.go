// Package bnb is a pure-Go MILP backend: depth-first branch and bound over
// gonum simplex relaxations. It suits small and medium rosters; large races
// are better served by the GLPK backend.
package bnb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/stintplan/core/logger"
	"github.com/kilianp07/stintplan/core/solver"
)

// Options tune the search.
type Options struct {
	// NodeLimit stops the search after this many relaxations; 0 means no limit.
	NodeLimit int `json:"node_limit" mapstructure:"node_limit"`
	// Tolerance is passed to the simplex and used for feasibility checks.
	Tolerance float64 `json:"tolerance" mapstructure:"tolerance"`
	// IntTolerance is the distance from an integer still treated as integral.
	IntTolerance float64 `json:"int_tolerance" mapstructure:"int_tolerance"`
	// RelaxTimeoutMS bounds a single simplex call. A call that overruns is
	// retried once on a perturbed LP, then the node is abandoned. Negative
	// disables the bound.
	RelaxTimeoutMS int `json:"relax_timeout_ms" mapstructure:"relax_timeout_ms"`
}

// DefaultOptions returns the settings used when none are configured.
func DefaultOptions() Options {
	return Options{NodeLimit: 200000, Tolerance: 1e-8, IntTolerance: 1e-6, RelaxTimeoutMS: 3000}
}

// maxAbandoned stops the search once this many relaxations were given up,
// since each one leaves a simplex goroutine running.
const maxAbandoned = 4

// Solver implements solver.Solver.
type Solver struct {
	opts Options
	log  logger.Logger
}

// New creates a Solver. Zero option fields take their defaults.
func New(opts Options, log logger.Logger) *Solver {
	def := DefaultOptions()
	if opts.Tolerance <= 0 {
		opts.Tolerance = def.Tolerance
	}
	if opts.IntTolerance <= 0 {
		opts.IntTolerance = def.IntTolerance
	}
	if opts.NodeLimit < 0 {
		opts.NodeLimit = 0
	}
	if opts.RelaxTimeoutMS == 0 {
		opts.RelaxTimeoutMS = def.RelaxTimeoutMS
	}
	return &Solver{opts: opts, log: logger.OrNop(log)}
}

type node struct {
	b     bounds
	depth int
}

type search struct {
	p           *solver.Problem
	opts        Options
	lp          lpFunc
	integralObj bool
	best        float64
	incumbent   []float64
	nodes       int
	perturbed   int
	abandoned   int
}

// Solve runs the search until it proves optimality or infeasibility, the
// time or node budget runs out, or ctx is cancelled. Running out of budget
// yields Feasible with an incumbent and TimedOut without one, even when a
// simplex call is still in flight.
func (s *Solver) Solve(ctx context.Context, p *solver.Problem, timeLimit time.Duration) (*solver.Result, error) {
	start := time.Now()
	sctx, cancel := ctx, context.CancelFunc(func() {})
	if timeLimit > 0 {
		sctx, cancel = context.WithDeadline(ctx, start.Add(timeLimit))
	}
	defer cancel()

	st := &search{p: p, opts: s.opts, lp: lpSolve, integralObj: integralObjective(p), best: math.Inf(1)}
	stack := []node{{b: rootBounds(p)}}
	exhausted := true

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("search cancelled after %d nodes: %w", st.nodes, err)
		}
		if sctx.Err() != nil || (s.opts.NodeLimit > 0 && st.nodes >= s.opts.NodeLimit) || st.abandoned >= maxAbandoned {
			exhausted = false
			break
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		children, err := st.expand(sctx, nd)
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return nil, fmt.Errorf("search cancelled after %d nodes: %w", st.nodes, cerr)
			}
			if sctx.Err() != nil {
				exhausted = false
				break
			}
			return nil, err
		}
		stack = append(stack, children...)
	}
	if st.abandoned > 0 {
		exhausted = false
	}

	res := &solver.Result{Elapsed: time.Since(start)}
	switch {
	case st.incumbent != nil && exhausted:
		res.Status = solver.Optimal
	case st.incumbent != nil:
		res.Status = solver.Feasible
	case exhausted:
		res.Status = solver.Infeasible
	default:
		res.Status = solver.TimedOut
	}
	if st.incumbent != nil {
		res.Values = st.incumbent
		res.Objective = p.Evaluate(st.incumbent)
	}
	if st.abandoned > 0 {
		s.log.Warnf("%s: gave up on %d stalled relaxations, result is not proven optimal", p.Name, st.abandoned)
	}
	s.log.Debugw("branch and bound finished", map[string]any{
		"problem":   p.Name,
		"status":    res.Status.String(),
		"nodes":     st.nodes,
		"perturbed": st.perturbed,
		"abandoned": st.abandoned,
		"objective": res.Objective,
		"elapsed":   res.Elapsed.String(),
	})
	return res, nil
}

// expand solves one node and returns the children to explore. The down
// branch is pushed first so the up branch is explored first. A node whose
// relaxation stalls twice is dropped and counted in abandoned.
func (st *search) expand(ctx context.Context, nd node) ([]node, error) {
	st.nodes++
	b := nd.b.clone()
	rel, err := st.relaxWithin(ctx, b, false)
	if errors.Is(err, errRelaxStalled) {
		st.perturbed++
		b = nd.b.clone()
		rel, err = st.relaxWithin(ctx, b, true)
	}
	if errors.Is(err, errRelaxStalled) {
		st.abandoned++
		return nil, nil
	}
	if errors.Is(err, errNodeInfeasible) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if st.pruned(rel.objective) {
		return nil, nil
	}

	j, frac := st.branchVar(rel.values)
	if j < 0 {
		vals := make([]float64, len(rel.values))
		for i, v := range rel.values {
			vals[i] = math.Round(v)
		}
		if err := st.p.Check(vals, 1e-6); err != nil {
			// rounding a perturbed optimum can leave a row violated
			st.abandoned++
			return nil, nil
		}
		obj := st.p.Evaluate(vals)
		if obj < st.best {
			st.best = obj
			st.incumbent = vals
		}
		return nil, nil
	}

	down, up := b.clone(), b.clone()
	down.hi[j] = math.Floor(frac)
	up.lo[j] = math.Ceil(frac)
	return []node{{b: down, depth: nd.depth + 1}, {b: up, depth: nd.depth + 1}}, nil
}

// relaxWithin runs one relaxation on its own goroutine so that a simplex
// call which never returns cannot hold the search past ctx or the per-node
// budget. gonum offers no way to stop the call, so an abandoned goroutine
// runs until the simplex returns on its own. b must not be shared with
// another attempt as presolve tightens it in place.
func (st *search) relaxWithin(ctx context.Context, b bounds, perturb bool) (*relaxation, error) {
	type outcome struct {
		rel *relaxation
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		rel, err := relax(st.lp, st.p, b, st.opts.Tolerance, perturb)
		done <- outcome{rel: rel, err: err}
	}()

	var stalled <-chan time.Time
	if st.opts.RelaxTimeoutMS > 0 {
		timer := time.NewTimer(time.Duration(st.opts.RelaxTimeoutMS) * time.Millisecond)
		defer timer.Stop()
		stalled = timer.C
	}
	select {
	case o := <-done:
		return o.rel, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-stalled:
		return nil, errRelaxStalled
	}
}

// pruned reports whether a relaxation bound cannot beat the incumbent. With
// an integral objective the bound is rounded up first.
func (st *search) pruned(bound float64) bool {
	if st.incumbent == nil {
		return false
	}
	if st.integralObj {
		bound = math.Ceil(bound - 1e-6)
	}
	return bound >= st.best-1e-9
}

// branchVar picks the most fractional variable, or -1 when all are integral.
func (st *search) branchVar(values []float64) (int, float64) {
	best, idx := st.opts.IntTolerance, -1
	for j, v := range values {
		f := math.Abs(v - math.Round(v))
		if f > best {
			best, idx = f, j
		}
	}
	if idx < 0 {
		return -1, 0
	}
	return idx, values[idx]
}

func integralObjective(p *solver.Problem) bool {
	for _, c := range p.Objective {
		if c != math.Trunc(c) {
			return false
		}
	}
	return true
}
