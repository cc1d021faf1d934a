package solver

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInfeasible is returned when no assignment satisfies the constraints.
	ErrInfeasible = errors.New("problem is infeasible")
	// ErrTimedOut is returned when the time budget elapsed without any solution.
	ErrTimedOut = errors.New("time limit reached without a solution")
)

// Status is the outcome reported by a backend.
type Status int

const (
	Optimal Status = iota
	// Feasible means the time limit stopped the search with an incumbent.
	Feasible
	Infeasible
	TimedOut
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Feasible:
		return "feasible"
	case Infeasible:
		return "infeasible"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Result is a backend's answer. Values is indexed like Problem.Vars and is
// only meaningful when Status is Optimal or Feasible.
type Result struct {
	Status    Status
	Values    []float64
	Objective float64
	Elapsed   time.Duration
}

// Err maps a non-solution status to its sentinel error.
func (r *Result) Err() error {
	switch r.Status {
	case Infeasible:
		return ErrInfeasible
	case TimedOut:
		return ErrTimedOut
	default:
		return nil
	}
}

// Value returns the value of variable v, 0 when absent.
func (r *Result) Value(v int) float64 {
	if v < 0 || v >= len(r.Values) {
		return 0
	}
	return r.Values[v]
}

// IsSet reports whether binary variable v is 1.
func (r *Result) IsSet(v int) bool { return r.Value(v) > 0.5 }

// Solver solves a minimisation MILP within a time budget. A zero timeLimit
// means no limit. Backends report infeasibility through Result.Status and
// reserve the error for internal failures.
type Solver interface {
	Solve(ctx context.Context, p *Problem, timeLimit time.Duration) (*Result, error)
}

// Func adapts a function to the Solver interface.
type Func func(ctx context.Context, p *Problem, timeLimit time.Duration) (*Result, error)

func (f Func) Solve(ctx context.Context, p *Problem, timeLimit time.Duration) (*Result, error) {
	return f(ctx, p, timeLimit)
}
