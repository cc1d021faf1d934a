package planner

import (
	"fmt"
	"strings"
)

// Weights scale the three objective terms. Balance dominates turnover which
// dominates preference.
type Weights struct {
	Balance    float64 `json:"balance"`
	Turnover   float64 `json:"turnover"`
	Preference float64 `json:"preference"`
}

// LegacyWeights are the fixed constants used by earlier schedulers.
var LegacyWeights = Weights{Balance: 1000, Turnover: 100, Preference: 1}

// ScaledWeights derives weights from the problem size so that the worst
// realisation of a lower-priority term is still worth less than one unit of
// the next term. Each modeled role contributes at most one preferred
// assignment and one turnover per stint.
func ScaledWeights(stints, roles int) Weights {
	if roles < 1 {
		roles = 1
	}
	maxPreferred := float64(stints * roles)
	maxTurnovers := float64(stints * roles)
	w := Weights{Preference: 1}
	w.Turnover = w.Preference * (maxPreferred + 1)
	w.Balance = w.Turnover * (maxTurnovers + 1)
	return w
}

// WeightPolicy selects how weights are derived for a run.
type WeightPolicy string

const (
	WeightsScaled WeightPolicy = "scaled"
	WeightsLegacy WeightPolicy = "legacy"
	WeightsCustom WeightPolicy = "custom"
)

// ParseWeightPolicy parses a policy name; the empty string means scaled.
func ParseWeightPolicy(s string) (WeightPolicy, error) {
	switch WeightPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", WeightsScaled:
		return WeightsScaled, nil
	case WeightsLegacy:
		return WeightsLegacy, nil
	case WeightsCustom:
		return WeightsCustom, nil
	default:
		return "", fmt.Errorf("unknown weight policy %q", s)
	}
}

// Resolve returns the weights for a problem of the given size. custom is only
// consulted for WeightsCustom.
func (p WeightPolicy) Resolve(stints, roles int, custom Weights) Weights {
	switch p {
	case WeightsLegacy:
		return LegacyWeights
	case WeightsCustom:
		return custom
	default:
		return ScaledWeights(stints, roles)
	}
}
