package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/stintplan/core/factory"
	"github.com/kilianp07/stintplan/core/planner"
)

// DefaultTimeLimitSeconds bounds each solve round when nothing is configured.
const DefaultTimeLimitSeconds = 30

// WeightsConfig selects the objective weights.
type WeightsConfig struct {
	// Policy is scaled, legacy or custom.
	Policy     string  `json:"policy"`
	Balance    float64 `json:"balance"`
	Turnover   float64 `json:"turnover"`
	Preference float64 `json:"preference"`
}

// SolverConfig holds the planning settings.
type SolverConfig struct {
	// Backend names the MILP engine ("bnb", or "glpk" in glpk builds) and its
	// settings.
	Backend           factory.ModuleConfig `json:"backend"`
	TimeLimitSeconds  float64              `json:"time_limit_seconds"`
	SpotterMode       string               `json:"spotter_mode"`
	AllowEmptySpotter bool                 `json:"allow_empty_spotter"`
	SpotterFairness   bool                 `json:"spotter_fairness"`
	Weights           WeightsConfig        `json:"weights"`
}

// SetDefaults applies sane defaults.
func (c *SolverConfig) SetDefaults() {
	if c.Backend.Type == "" {
		c.Backend.Type = "bnb"
	}
	if c.TimeLimitSeconds <= 0 {
		c.TimeLimitSeconds = DefaultTimeLimitSeconds
	}
	if c.SpotterMode == "" {
		c.SpotterMode = string(planner.SpotterNone)
	}
	if c.Weights.Policy == "" {
		c.Weights.Policy = string(planner.WeightsScaled)
	}
}

// TimeLimit returns the per-round budget.
func (c SolverConfig) TimeLimit() time.Duration {
	return time.Duration(c.TimeLimitSeconds * float64(time.Second))
}

// Validate checks the mode and weight names and custom weight values.
func (c SolverConfig) Validate() error {
	_, err := c.PlannerOptions()
	return err
}

// PlannerOptions converts the settings into planner options.
func (c SolverConfig) PlannerOptions() (planner.Options, error) {
	mode, err := planner.ParseSpotterMode(c.SpotterMode)
	if err != nil {
		return planner.Options{}, err
	}
	policy, err := planner.ParseWeightPolicy(c.Weights.Policy)
	if err != nil {
		return planner.Options{}, err
	}
	custom := planner.Weights{
		Balance:    c.Weights.Balance,
		Turnover:   c.Weights.Turnover,
		Preference: c.Weights.Preference,
	}
	if policy == planner.WeightsCustom && (custom.Balance <= 0 || custom.Turnover <= 0 || custom.Preference < 0) {
		return planner.Options{}, fmt.Errorf("custom weights need positive balance and turnover")
	}
	if c.TimeLimitSeconds < 0 {
		return planner.Options{}, fmt.Errorf("time_limit_seconds must not be negative")
	}
	return planner.Options{
		Mode:              mode,
		TimeLimit:         c.TimeLimit(),
		AllowEmptySpotter: c.AllowEmptySpotter,
		SpotterFairness:   c.SpotterFairness,
		WeightPolicy:      policy,
		CustomWeights:     custom,
	}, nil
}
