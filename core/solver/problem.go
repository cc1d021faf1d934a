// Package solver defines the mixed-integer problem representation handed to
// solving backends and the single-method contract they implement.
package solver

import (
	"fmt"
	"math"
)

// Kind is the integrality class of a variable.
type Kind int

const (
	Binary Kind = iota
	Integer
)

// Sense is the relation of a linear constraint to its right-hand side.
type Sense int

const (
	LE Sense = iota
	GE
	EQ
)

func (s Sense) String() string {
	switch s {
	case GE:
		return ">="
	case EQ:
		return "="
	default:
		return "<="
	}
}

// Variable is a decision variable. Upper may be +Inf.
type Variable struct {
	Name  string
	Kind  Kind
	Lower float64
	Upper float64
}

// Term is coefficient * variable.
type Term struct {
	Var  int
	Coef float64
}

// Constraint is Σ terms (sense) RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Problem is a minimisation MILP built incrementally by the planner.
type Problem struct {
	Name        string
	Vars        []Variable
	Constraints []Constraint
	// Objective holds one coefficient per variable.
	Objective []float64

	byName map[string]int
}

// NewProblem returns an empty problem.
func NewProblem(name string) *Problem {
	return &Problem{Name: name, byName: make(map[string]int)}
}

func (p *Problem) addVar(v Variable) int {
	if p.byName == nil {
		p.byName = make(map[string]int)
	}
	p.Vars = append(p.Vars, v)
	p.Objective = append(p.Objective, 0)
	idx := len(p.Vars) - 1
	p.byName[v.Name] = idx
	return idx
}

// AddBinary adds a 0/1 variable and returns its index.
func (p *Problem) AddBinary(name string) int {
	return p.addVar(Variable{Name: name, Kind: Binary, Lower: 0, Upper: 1})
}

// AddInteger adds an integer variable bounded by [lo, hi]; hi may be +Inf.
func (p *Problem) AddInteger(name string, lo, hi float64) int {
	return p.addVar(Variable{Name: name, Kind: Integer, Lower: lo, Upper: hi})
}

// AddConstraint appends a row and returns its index.
func (p *Problem) AddConstraint(name string, sense Sense, rhs float64, terms ...Term) int {
	p.Constraints = append(p.Constraints, Constraint{Name: name, Terms: terms, Sense: sense, RHS: rhs})
	return len(p.Constraints) - 1
}

// AddObjective adds coef to the objective coefficient of variable v.
func (p *Problem) AddObjective(v int, coef float64) {
	p.Objective[v] += coef
}

// Var returns the index of the named variable.
func (p *Problem) Var(name string) (int, bool) {
	i, ok := p.byName[name]
	return i, ok
}

// Constraint returns the first constraint with the given name.
func (p *Problem) Constraint(name string) (Constraint, bool) {
	for _, c := range p.Constraints {
		if c.Name == name {
			return c, true
		}
	}
	return Constraint{}, false
}

// Evaluate computes the objective for a full assignment.
func (p *Problem) Evaluate(values []float64) float64 {
	var obj float64
	for i, c := range p.Objective {
		if i < len(values) {
			obj += c * values[i]
		}
	}
	return obj
}

// Activity returns Σ terms for the constraint under values.
func (c Constraint) Activity(values []float64) float64 {
	var lhs float64
	for _, t := range c.Terms {
		lhs += t.Coef * values[t.Var]
	}
	return lhs
}

// Satisfied reports whether the constraint holds within tol.
func (c Constraint) Satisfied(values []float64, tol float64) bool {
	lhs := c.Activity(values)
	switch c.Sense {
	case GE:
		return lhs >= c.RHS-tol
	case EQ:
		return math.Abs(lhs-c.RHS) <= tol
	default:
		return lhs <= c.RHS+tol
	}
}

// Check verifies bounds, integrality and every constraint.
func (p *Problem) Check(values []float64, tol float64) error {
	if len(values) != len(p.Vars) {
		return fmt.Errorf("expected %d values, got %d", len(p.Vars), len(values))
	}
	for i, v := range p.Vars {
		x := values[i]
		if x < v.Lower-tol || x > v.Upper+tol {
			return fmt.Errorf("variable %s=%g outside [%g, %g]", v.Name, x, v.Lower, v.Upper)
		}
		if math.Abs(x-math.Round(x)) > tol {
			return fmt.Errorf("variable %s=%g is not integral", v.Name, x)
		}
	}
	for _, c := range p.Constraints {
		if !c.Satisfied(values, tol) {
			return fmt.Errorf("constraint %s violated: %g %s %g", c.Name, c.Activity(values), c.Sense, c.RHS)
		}
	}
	return nil
}
