package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaledWeightsDominance(t *testing.T) {
	w := ScaledWeights(9, 2)
	assert.Equal(t, 1.0, w.Preference)
	assert.Equal(t, 19.0, w.Turnover)
	assert.Equal(t, 19.0*19, w.Balance)
	// every preference bonus together is worth less than one turnover
	assert.Less(t, 18*w.Preference, w.Turnover)
	assert.Less(t, 18*w.Turnover+18*w.Preference, w.Balance)

	assert.Equal(t, ScaledWeights(5, 1), ScaledWeights(5, 0))
}

func TestWeightPolicy(t *testing.T) {
	checks := []struct {
		in   string
		want WeightPolicy
	}{
		{"", WeightsScaled},
		{"Scaled", WeightsScaled},
		{" legacy ", WeightsLegacy},
		{"custom", WeightsCustom},
	}
	for _, c := range checks {
		got, err := ParseWeightPolicy(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got)
	}
	_, err := ParseWeightPolicy("random")
	assert.Error(t, err)

	custom := Weights{Balance: 3, Turnover: 2, Preference: 1}
	assert.Equal(t, LegacyWeights, WeightsLegacy.Resolve(9, 1, custom))
	assert.Equal(t, custom, WeightsCustom.Resolve(9, 1, custom))
	assert.Equal(t, ScaledWeights(9, 1), WeightsScaled.Resolve(9, 1, custom))
	assert.Equal(t, ScaledWeights(9, 1), WeightPolicy("").Resolve(9, 1, custom))
}
