// Package solver registers the available MILP backends and builds them from
// configuration.
package solver

import (
	"github.com/kilianp07/stintplan/core/factory"
	"github.com/kilianp07/stintplan/core/logger"
	coresolver "github.com/kilianp07/stintplan/core/solver"
	"github.com/kilianp07/stintplan/infra/solver/bnb"
)

// Backends holds every compiled-in backend.
var Backends = factory.NewRegistry[coresolver.Solver]()

// log is handed to backends built through the registry.
var log logger.Logger = logger.Nop{}

// SetLogger sets the logger passed to backends created afterwards.
func SetLogger(l logger.Logger) { log = logger.OrNop(l) }

func init() {
	_ = Backends.Register("bnb", func(conf map[string]any) (coresolver.Solver, error) {
		opts := bnb.DefaultOptions()
		if err := factory.Decode(conf, &opts); err != nil {
			return nil, err
		}
		return bnb.New(opts, log), nil
	})
}

// New builds the backend named by cfg.Type.
func New(cfg factory.ModuleConfig) (coresolver.Solver, error) {
	return Backends.Create(cfg)
}
