//go:build glpk

package solver

import (
	coresolver "github.com/kilianp07/stintplan/core/solver"
	"github.com/kilianp07/stintplan/infra/solver/glpk"
)

func init() {
	_ = Backends.Register("glpk", func(map[string]any) (coresolver.Solver, error) {
		return glpk.New(log), nil
	})
}
