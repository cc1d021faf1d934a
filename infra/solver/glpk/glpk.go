//go:build glpk

// Package glpk adapts the GLPK MILP solver (through lukpank/go-glpk, cgo) to
// the solver.Solver interface. Build with -tags glpk.
package glpk

import (
	"context"
	"math"
	"time"

	"github.com/lukpank/go-glpk/glpk"

	"github.com/kilianp07/stintplan/core/logger"
	"github.com/kilianp07/stintplan/core/solver"
)

// Solver implements solver.Solver on top of GLPK's branch and cut.
type Solver struct {
	log logger.Logger
}

// New returns a GLPK-backed solver.
func New(log logger.Logger) *Solver {
	return &Solver{log: logger.OrNop(log)}
}

// Solve builds the GLPK problem column by column and runs the MIP solver.
// The binding exposes no time limit, so timeLimit is only reported.
func (s *Solver) Solve(ctx context.Context, p *solver.Problem, timeLimit time.Duration) (*solver.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	lp := glpk.New()
	defer lp.Delete()
	lp.SetProbName(p.Name)
	lp.SetObjDir(glpk.ObjDir(glpk.MIN))

	if len(p.Vars) > 0 {
		lp.AddCols(len(p.Vars))
	}
	for i, v := range p.Vars {
		col := i + 1
		lp.SetColName(col, v.Name)
		if v.Kind == solver.Binary && v.Lower == 0 && v.Upper == 1 {
			lp.SetColKind(col, glpk.VarType(glpk.BV))
		} else {
			lp.SetColKind(col, glpk.VarType(glpk.IV))
			setColBounds(lp, col, v.Lower, v.Upper)
		}
		lp.SetObjCoef(col, p.Objective[i])
	}

	if len(p.Constraints) > 0 {
		lp.AddRows(len(p.Constraints))
	}
	for i, c := range p.Constraints {
		row := i + 1
		lp.SetRowName(row, c.Name)
		switch c.Sense {
		case solver.EQ:
			lp.SetRowBnds(row, glpk.BndsType(glpk.FX), c.RHS, c.RHS)
		case solver.GE:
			lp.SetRowBnds(row, glpk.BndsType(glpk.LO), c.RHS, 0)
		default:
			lp.SetRowBnds(row, glpk.BndsType(glpk.UP), 0, c.RHS)
		}
		// SetMatRow ignores element 0 of both slices.
		ind := make([]int32, 1, len(c.Terms)+1)
		val := make([]float64, 1, len(c.Terms)+1)
		for _, t := range c.Terms {
			ind = append(ind, int32(t.Var+1))
			val = append(val, t.Coef)
		}
		lp.SetMatRow(row, ind, val)
	}

	if timeLimit > 0 {
		s.log.Warnf("glpk binding has no time limit, %s requested, solver will run to completion", timeLimit)
	}
	iocp := glpk.NewIocp()
	iocp.SetPresolve(true)
	iocp.SetMsgLev(glpk.MsgLev(glpk.MSG_ERR))

	err := lp.Intopt(iocp)
	res := &solver.Result{}
	status := lp.MipStatus()
	switch status {
	case glpk.OPT:
		res.Status = solver.Optimal
	case glpk.FEAS:
		res.Status = solver.Feasible
	default:
		if err != nil {
			s.log.Debugf("glpk intopt: %v", err)
		}
		res.Status = solver.Infeasible
	}
	res.Elapsed = time.Since(start)
	if res.Status != solver.Optimal && res.Status != solver.Feasible {
		return res, nil
	}
	res.Values = make([]float64, len(p.Vars))
	for i := range p.Vars {
		res.Values[i] = lp.MipColVal(i + 1)
	}
	res.Objective = p.Evaluate(res.Values)
	s.log.Debugw("glpk finished", map[string]any{
		"problem":   p.Name,
		"status":    res.Status.String(),
		"objective": res.Objective,
		"elapsed":   res.Elapsed.String(),
	})
	return res, nil
}

func setColBounds(lp *glpk.Prob, col int, lo, hi float64) {
	switch {
	case math.IsInf(hi, 1):
		lp.SetColBnds(col, glpk.BndsType(glpk.LO), lo, 0)
	case lo == hi:
		lp.SetColBnds(col, glpk.BndsType(glpk.FX), lo, hi)
	default:
		lp.SetColBnds(col, glpk.BndsType(glpk.DB), lo, hi)
	}
}

var _ solver.Solver = (*Solver)(nil)
