package adapt

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// RewardConfig fixes the weights of the scalar reward.
type RewardConfig struct {
	BaseSuccess  float64 `yaml:"base_success"`
	BaseFailure  float64 `yaml:"base_failure"`
	WLatency     float64 `yaml:"w_latency"`
	WEnergy      float64 `yaml:"w_energy"`
	WReliability float64 `yaml:"w_reliability"`

	// RMax bounds the computed reward to [-RMax, +RMax]. Values outside the
	// bound, including non-finite intermediates, are clamped with a warning.
	RMax float64 `yaml:"r_max"`

	// ConditionPenalties maps each condition label to a non-positive penalty.
	// Harsher conditions carry a more negative penalty.
	ConditionPenalties map[string]float64 `yaml:"condition_penalties"`
}

// DefaultRewardConfig returns the standard weights.
func DefaultRewardConfig() RewardConfig {
	return RewardConfig{
		BaseSuccess:  10,
		BaseFailure:  5,
		WLatency:     20,
		WEnergy:      15,
		WReliability: 25,
		RMax:         100,
		ConditionPenalties: map[string]float64{
			"excellent": 0,
			"good":      -1,
			"fair":      -2,
			"poor":      -5,
			"critical":  -10,
		},
	}
}

// Validate checks weight finiteness and the penalty table shape.
func (c RewardConfig) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"base_success", c.BaseSuccess},
		{"base_failure", c.BaseFailure},
		{"w_latency", c.WLatency},
		{"w_energy", c.WEnergy},
		{"w_reliability", c.WReliability},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("reward: %s must be finite, got %v", f.name, f.value)
		}
	}
	if c.BaseFailure < 0 {
		return fmt.Errorf("reward: base_failure is a magnitude and must be >= 0, got %v", c.BaseFailure)
	}
	if !(c.RMax > 0) || math.IsInf(c.RMax, 0) {
		return fmt.Errorf("reward: r_max must be a positive finite bound, got %v", c.RMax)
	}
	if len(c.ConditionPenalties) != int(numConditions) {
		return fmt.Errorf("reward: condition_penalties must name all %d condition labels, got %d entries",
			numConditions, len(c.ConditionPenalties))
	}
	prev := math.Inf(1)
	for _, label := range AllConditionLabels() {
		p, ok := c.ConditionPenalties[label.String()]
		if !ok {
			return fmt.Errorf("reward: condition_penalties missing %q", label.String())
		}
		if math.IsNaN(p) || p > 0 {
			return fmt.Errorf("reward: penalty for %q must be <= 0, got %v", label.String(), p)
		}
		if p > prev {
			return fmt.Errorf("reward: penalty for %q (%v) must not be milder than the previous label's (%v)",
				label.String(), p, prev)
		}
		prev = p
	}
	return nil
}

// RewardCalculator converts an outcome into a bounded scalar reward:
//
//	reward = (success ? +BaseSuccess : -BaseFailure)
//	       + WLatency*latencyDelta + WEnergy*energyDelta + WReliability*reliabilityDelta
//	       + ConditionPenalties[label]
//
// The result is always finite and within [-RMax, +RMax].
type RewardCalculator struct {
	cfg       RewardConfig
	penalties [numConditions]float64
}

// NewRewardCalculator compiles and validates the weights.
func NewRewardCalculator(cfg RewardConfig) (*RewardCalculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rc := &RewardCalculator{cfg: cfg}
	for _, label := range AllConditionLabels() {
		rc.penalties[label] = cfg.ConditionPenalties[label.String()]
	}
	return rc, nil
}

// Compute evaluates the reward formula and clamps the result. A non-finite
// intermediate never reaches the caller: NaN collapses to 0 and infinities
// clamp to the bound, each with a logged warning.
func (rc *RewardCalculator) Compute(out Outcome, cond ConditionLabel) float64 {
	base := rc.cfg.BaseSuccess
	if !out.Success {
		base = -rc.cfg.BaseFailure
	}
	penalty := 0.0
	if cond >= 0 && cond < numConditions {
		penalty = rc.penalties[cond]
	}
	r := base +
		rc.cfg.WLatency*out.LatencyDelta +
		rc.cfg.WEnergy*out.EnergyDelta +
		rc.cfg.WReliability*out.ReliabilityDelta +
		penalty

	switch {
	case math.IsNaN(r):
		logrus.Warnf("reward: computed NaN under %s, substituting 0", cond)
		return 0
	case r > rc.cfg.RMax:
		logrus.Warnf("reward: %v exceeds bound %v, clamping", r, rc.cfg.RMax)
		return rc.cfg.RMax
	case r < -rc.cfg.RMax:
		logrus.Warnf("reward: %v exceeds bound -%v, clamping", r, rc.cfg.RMax)
		return -rc.cfg.RMax
	default:
		return r
	}
}
