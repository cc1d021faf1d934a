package bnb

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/stintplan/core/solver"
)

type lpFunc func(c []float64, A mat.Matrix, b []float64, tol float64, initialBasic []int) (float64, []float64, error)

// lpSolve points to the simplex implementation. It can be overridden in
// tests; a search reads it once when it starts.
var lpSolve lpFunc = lp.Simplex

// perturbStep scales the slack added to inequality rows when a relaxation
// is retried after stalling on a degenerate vertex.
const perturbStep = 1e-6

var (
	errNodeInfeasible = errors.New("node infeasible")
	errRelaxStalled   = errors.New("relaxation stalled")
	// ErrUnbounded is returned when a relaxation has no finite optimum.
	ErrUnbounded = errors.New("relaxation is unbounded")
)

// relaxation is the LP optimum of a node.
type relaxation struct {
	values    []float64
	objective float64
}

// bounds are the per-variable limits of a node. They are tightened in place
// by presolve, so children inherit the propagated bounds.
type bounds struct {
	lo, hi []float64
}

func rootBounds(p *solver.Problem) bounds {
	b := bounds{lo: make([]float64, len(p.Vars)), hi: make([]float64, len(p.Vars))}
	for i, v := range p.Vars {
		b.lo[i], b.hi[i] = v.Lower, v.Upper
	}
	return b
}

func (b bounds) clone() bounds {
	return bounds{lo: append([]float64(nil), b.lo...), hi: append([]float64(nil), b.hi...)}
}

func (b bounds) fixed(j int, tol float64) bool { return b.hi[j]-b.lo[j] <= tol }

func holds(lhs float64, sense solver.Sense, rhs, tol float64) bool {
	switch sense {
	case solver.GE:
		return lhs >= rhs-tol
	case solver.EQ:
		return math.Abs(lhs-rhs) <= tol
	default:
		return lhs <= rhs+tol
	}
}

func flip(s solver.Sense) solver.Sense {
	switch s {
	case solver.LE:
		return solver.GE
	case solver.GE:
		return solver.LE
	default:
		return s
	}
}

// presolve turns rows with a single free variable into bounds, checks rows
// whose variables are all fixed, and repeats until nothing changes. It
// returns the rows that still need the LP.
func presolve(p *solver.Problem, b bounds, tol float64) ([]int, error) {
	active := make([]int, len(p.Constraints))
	for i := range active {
		active[i] = i
	}
	for changed := true; changed; {
		changed = false
		next := active[:0:0]
		for _, ci := range active {
			c := p.Constraints[ci]
			rhs := c.RHS
			var free []solver.Term
			for _, t := range c.Terms {
				if t.Coef == 0 {
					continue
				}
				if b.fixed(t.Var, tol) {
					rhs -= t.Coef * b.lo[t.Var]
					continue
				}
				free = append(free, t)
			}
			switch len(free) {
			case 0:
				if !holds(0, c.Sense, rhs, tol) {
					return nil, errNodeInfeasible
				}
			case 1:
				moved, err := tighten(b, free[0], c.Sense, rhs, tol)
				if err != nil {
					return nil, err
				}
				changed = changed || moved
			default:
				next = append(next, ci)
			}
		}
		active = next
	}
	return active, nil
}

// tighten applies coef*x (sense) rhs to the bounds of an integer variable.
func tighten(b bounds, t solver.Term, sense solver.Sense, rhs, tol float64) (bool, error) {
	j := t.Var
	v := rhs / t.Coef
	if t.Coef < 0 {
		sense = flip(sense)
	}
	lo, hi := b.lo[j], b.hi[j]
	switch sense {
	case solver.EQ:
		r := math.Round(v)
		if math.Abs(v-r) > tol {
			return false, errNodeInfeasible
		}
		lo, hi = math.Max(lo, r), math.Min(hi, r)
	case solver.LE:
		hi = math.Min(hi, math.Floor(v+tol))
	case solver.GE:
		lo = math.Max(lo, math.Ceil(v-tol))
	}
	if lo > hi+tol {
		return false, errNodeInfeasible
	}
	moved := lo != b.lo[j] || hi != b.hi[j]
	b.lo[j], b.hi[j] = lo, hi
	return moved, nil
}

type sparseRow struct {
	cols  []int
	coefs []float64
	rhs   float64
}

// relax solves the LP relaxation of a node in the standard form gonum
// expects: minimise c·y subject to [G I; A 0][y; s] = [h; b], y, s >= 0,
// where y = x - lo ranges over the free variables.
//
// With perturb set, every inequality row i is loosened by a distinct
// perturbStep*(1+i/m). Loosening only relaxes the node further, so the
// objective stays a valid bound while ties between degenerate vertices
// are broken.
func relax(solve lpFunc, p *solver.Problem, b bounds, tol float64, perturb bool) (*relaxation, error) {
	active, err := presolve(p, b, tol)
	if err != nil {
		return nil, err
	}

	n := len(p.Vars)
	col := make([]int, n)
	for j := range col {
		col[j] = -1
	}
	var free []int
	for j := 0; j < n; j++ {
		if !b.fixed(j, tol) {
			col[j] = len(free)
			free = append(free, j)
		}
	}

	var ineq, eq []sparseRow
	for _, ci := range active {
		c := p.Constraints[ci]
		r := sparseRow{rhs: c.RHS}
		for _, t := range c.Terms {
			if t.Coef == 0 {
				continue
			}
			r.rhs -= t.Coef * b.lo[t.Var]
			if k := col[t.Var]; k >= 0 {
				r.cols = append(r.cols, k)
				r.coefs = append(r.coefs, t.Coef)
			}
		}
		switch c.Sense {
		case solver.EQ:
			eq = append(eq, r)
		case solver.GE:
			for i := range r.coefs {
				r.coefs[i] = -r.coefs[i]
			}
			r.rhs = -r.rhs
			ineq = append(ineq, r)
		default:
			ineq = append(ineq, r)
		}
	}

	for k, j := range free {
		span := b.hi[j] - b.lo[j]
		if math.IsInf(span, 1) || impliedUpper(k, span, ineq, eq, tol) {
			continue
		}
		ineq = append(ineq, sparseRow{cols: []int{k}, coefs: []float64{1}, rhs: span})
	}

	// Free variables in no row sit at whichever bound their cost prefers.
	y := make([]float64, len(free))
	used := make([]bool, len(free))
	for _, rows := range [][]sparseRow{ineq, eq} {
		for _, r := range rows {
			for _, k := range r.cols {
				used[k] = true
			}
		}
	}
	lpCol := make([]int, len(free))
	nCols := 0
	for k, j := range free {
		if used[k] {
			lpCol[k] = nCols
			nCols++
			continue
		}
		lpCol[k] = -1
		if p.Objective[j] < 0 {
			span := b.hi[j] - b.lo[j]
			if math.IsInf(span, 1) {
				return nil, ErrUnbounded
			}
			y[k] = span
		}
	}

	if len(ineq)+len(eq) > 0 {
		if len(eq) > nCols {
			return nil, fmt.Errorf("%d equality rows over %d columns", len(eq), nCols)
		}
		m := len(ineq) + len(eq)
		width := nCols + len(ineq)
		A := mat.NewDense(m, width, nil)
		rhs := make([]float64, m)
		c := make([]float64, width)
		for k, j := range free {
			if lpCol[k] >= 0 {
				c[lpCol[k]] = p.Objective[j]
			}
		}
		for i, r := range ineq {
			for x, k := range r.cols {
				A.Set(i, lpCol[k], A.At(i, lpCol[k])+r.coefs[x])
			}
			A.Set(i, nCols+i, 1)
			rhs[i] = r.rhs
			if perturb {
				rhs[i] += perturbStep * (1 + float64(i)/float64(len(ineq)))
			}
		}
		for i, r := range eq {
			row := len(ineq) + i
			for x, k := range r.cols {
				A.Set(row, lpCol[k], A.At(row, lpCol[k])+r.coefs[x])
			}
			rhs[row] = r.rhs
		}
		_, x, err := solve(c, A, rhs, tol, nil)
		if err != nil {
			if errors.Is(err, lp.ErrInfeasible) {
				return nil, errNodeInfeasible
			}
			if errors.Is(err, lp.ErrUnbounded) {
				return nil, ErrUnbounded
			}
			return nil, fmt.Errorf("simplex: %w", err)
		}
		for k := range free {
			if lpCol[k] >= 0 {
				y[k] = x[lpCol[k]]
			}
		}
	}

	values := append([]float64(nil), b.lo...)
	for k, j := range free {
		values[j] += y[k]
	}
	return &relaxation{values: values, objective: p.Evaluate(values)}, nil
}

// impliedUpper reports whether some row with only non-negative coefficients
// already caps column k at or below span.
func impliedUpper(k int, span float64, ineq, eq []sparseRow, tol float64) bool {
	check := func(r sparseRow) bool {
		coef := 0.0
		for x, col := range r.cols {
			if r.coefs[x] < 0 {
				return false
			}
			if col == k {
				coef += r.coefs[x]
			}
		}
		return coef > 0 && r.rhs/coef <= span+tol
	}
	for _, r := range ineq {
		if check(r) {
			return true
		}
	}
	for _, r := range eq {
		if check(r) {
			return true
		}
	}
	return false
}
