package adapt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newRewardCalc(t *testing.T, cfg RewardConfig) *RewardCalculator {
	t.Helper()
	rc, err := NewRewardCalculator(cfg)
	if err != nil {
		t.Fatalf("NewRewardCalculator failed: %v", err)
	}
	return rc
}

// === Reward Formula Tests ===

func TestCompute_SuccessUnderFairConditions(t *testing.T) {
	// 10 + 20*0.3 + 15*(-0.1) + 25*0.1 + (-2) = 15.0
	rc := newRewardCalc(t, DefaultRewardConfig())
	out := Outcome{Success: true, LatencyDelta: 0.3, EnergyDelta: -0.1, ReliabilityDelta: 0.1}
	assert.InDelta(t, 15.0, rc.Compute(out, ConditionFair), 1e-9)
}

func TestCompute_FailureUsesNegativeBase(t *testing.T) {
	rc := newRewardCalc(t, DefaultRewardConfig())
	out := Outcome{Success: false}
	// -5 + 0 + 0 + 0 + 0 = -5
	assert.InDelta(t, -5.0, rc.Compute(out, ConditionExcellent), 1e-9)
}

func TestCompute_HarsherConditionsPenalizeMore(t *testing.T) {
	rc := newRewardCalc(t, DefaultRewardConfig())
	out := Outcome{Success: true, LatencyDelta: 0.2, EnergyDelta: 0.1, ReliabilityDelta: 0.1}
	prev := math.Inf(1)
	for _, cond := range AllConditionLabels() {
		r := rc.Compute(out, cond)
		assert.LessOrEqual(t, r, prev, "reward under %s should not exceed reward under the milder label", cond)
		prev = r
	}
}

func TestCompute_ClampsToRMax(t *testing.T) {
	rc := newRewardCalc(t, DefaultRewardConfig())
	huge := Outcome{Success: true, LatencyDelta: 1e9, EnergyDelta: 1e9, ReliabilityDelta: 1e9}
	assert.Equal(t, 100.0, rc.Compute(huge, ConditionExcellent))
	tiny := Outcome{Success: false, LatencyDelta: -1e9}
	assert.Equal(t, -100.0, rc.Compute(tiny, ConditionCritical))
}

func TestCompute_NonFiniteNeverEscapes(t *testing.T) {
	rc := newRewardCalc(t, DefaultRewardConfig())
	for _, out := range []Outcome{
		{Success: true, LatencyDelta: math.NaN()},
		{Success: true, LatencyDelta: math.Inf(1)},
		{Success: false, EnergyDelta: math.Inf(-1)},
		{Success: true, LatencyDelta: math.Inf(1), EnergyDelta: math.Inf(-1)}, // Inf-Inf = NaN
	} {
		r := rc.Compute(out, ConditionGood)
		assert.False(t, math.IsNaN(r), "NaN escaped for %+v", out)
		assert.False(t, math.IsInf(r, 0), "Inf escaped for %+v", out)
		assert.LessOrEqual(t, math.Abs(r), 100.0)
	}
}

func TestCompute_BoundedForValidOutcomes(t *testing.T) {
	rc := newRewardCalc(t, DefaultRewardConfig())
	for _, success := range []bool{true, false} {
		for lat := -1.0; lat <= 1.0; lat += 0.25 {
			for egy := -1.0; egy <= 1.0; egy += 0.25 {
				for _, cond := range AllConditionLabels() {
					out := Outcome{Success: success, LatencyDelta: lat, EnergyDelta: egy, ReliabilityDelta: 0.5}
					r := rc.Compute(out, cond)
					if math.Abs(r) > 100 || math.IsNaN(r) {
						t.Fatalf("reward %v out of bounds for %+v under %s", r, out, cond)
					}
				}
			}
		}
	}
}

// === Config Validation Tests ===

func TestRewardConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultRewardConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*RewardConfig)
	}{
		{"NaN weight", func(c *RewardConfig) { c.WLatency = math.NaN() }},
		{"negative base failure", func(c *RewardConfig) { c.BaseFailure = -1 }},
		{"zero r_max", func(c *RewardConfig) { c.RMax = 0 }},
		{"infinite r_max", func(c *RewardConfig) { c.RMax = math.Inf(1) }},
		{"missing penalty", func(c *RewardConfig) { delete(c.ConditionPenalties, "fair") }},
		{"positive penalty", func(c *RewardConfig) { c.ConditionPenalties["poor"] = 1 }},
		{"penalty milder than predecessor", func(c *RewardConfig) {
			c.ConditionPenalties["critical"] = -1 // poor is -5
		}},
		{"unknown penalty label", func(c *RewardConfig) {
			delete(c.ConditionPenalties, "good")
			c.ConditionPenalties["splendid"] = -1
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRewardConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
