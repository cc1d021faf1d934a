package solver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/stintplan/core/factory"
	coresolver "github.com/kilianp07/stintplan/core/solver"
)

func TestNewBnb(t *testing.T) {
	s, err := New(factory.ModuleConfig{Type: "bnb", Conf: map[string]any{"node_limit": 50}})
	require.NoError(t, err)

	p := coresolver.NewProblem("tiny")
	x := p.AddBinary("x")
	p.AddConstraint("one", coresolver.GE, 1, coresolver.Term{Var: x, Coef: 1})
	p.AddObjective(x, 3)
	res, err := s.Solve(context.Background(), p, 0)
	require.NoError(t, err)
	assert.Equal(t, coresolver.Optimal, res.Status)
	assert.Equal(t, 3.0, res.Objective)
}

func TestNewUnknown(t *testing.T) {
	_, err := New(factory.ModuleConfig{Type: "cplex"})
	assert.Error(t, err)
	assert.Contains(t, Backends.Names(), "bnb")
}
