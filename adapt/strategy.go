package adapt

import (
	"errors"
	"fmt"
)

// ErrUnknownStrategy reports a strategy outside the registry. This is a
// corruption signal: the decision loop treats it as fatal rather than
// learning from it.
var ErrUnknownStrategy = errors.New("unknown strategy")

// === Strategy ===

// Strategy is one of the fixed set of operating strategies. The set is closed
// at compile time; nothing is added or removed at runtime.
type Strategy int

const (
	LatencyOptimized Strategy = iota
	EnergyEfficient
	ReliabilityFocused
	HybridAdaptive
	EmergencyMode

	numStrategies
)

var strategyNames = [numStrategies]string{
	LatencyOptimized:   "latency_optimized",
	EnergyEfficient:    "energy_efficient",
	ReliabilityFocused: "reliability_focused",
	HybridAdaptive:     "hybrid_adaptive",
	EmergencyMode:      "emergency_mode",
}

// String returns the YAML/storage name of the strategy.
func (s Strategy) String() string {
	if s < 0 || s >= numStrategies {
		return fmt.Sprintf("strategy(%d)", int(s))
	}
	return strategyNames[s]
}

// ParseStrategy resolves a strategy name as it appears in configuration and
// stored policy rows. Failures wrap ErrUnknownStrategy.
func ParseStrategy(name string) (Strategy, error) {
	for i, n := range strategyNames {
		if n == name {
			return Strategy(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// AllStrategies returns the registry order, which is also the tie-break order
// for exploitation decisions.
func AllStrategies() []Strategy {
	all := make([]Strategy, numStrategies)
	for i := range all {
		all[i] = Strategy(i)
	}
	return all
}

// === Effect Profiles ===

// DeltaRange bounds a simulated relative effect on one objective. Deltas are
// fractions: 0.3 means a 30% improvement, negative values a regression.
type DeltaRange struct {
	Min float64
	Max float64
}

// EffectProfile declares a strategy's expected impact on each objective
// together with its success and improvement characteristics.
type EffectProfile struct {
	Latency     DeltaRange
	Energy      DeltaRange
	Reliability DeltaRange

	// SuccessFactor scales the per-condition base success probability.
	SuccessFactor float64

	// ImprovementFactor is the relative gain credited to cumulative savings
	// when the strategy succeeds.
	ImprovementFactor float64
}

// === Registry ===

// Registry exposes the closed strategy set, each strategy's effect profile,
// and the condition-dependent success model. Read-only after construction;
// applying a strategy never mutates it.
type Registry struct {
	profiles    [numStrategies]EffectProfile
	baseSuccess [numConditions]float64
	condBoost   [numConditions]float64
}

// NewRegistry builds the standard registry. Success probability decays with
// condition severity for every strategy, and improvements earned under
// harsher conditions are credited with a boost.
func NewRegistry() *Registry {
	r := &Registry{}

	r.profiles[LatencyOptimized] = EffectProfile{
		Latency:           DeltaRange{0.2, 0.4},
		Energy:            DeltaRange{-0.1, 0.1},
		Reliability:       DeltaRange{0.1, 0.2},
		SuccessFactor:     1.0,
		ImprovementFactor: 0.3,
	}
	r.profiles[EnergyEfficient] = EffectProfile{
		Latency:           DeltaRange{-0.1, 0.1},
		Energy:            DeltaRange{0.2, 0.4},
		Reliability:       DeltaRange{0.05, 0.15},
		SuccessFactor:     0.95,
		ImprovementFactor: 0.25,
	}
	r.profiles[ReliabilityFocused] = EffectProfile{
		Latency:           DeltaRange{0.1, 0.2},
		Energy:            DeltaRange{0.05, 0.15},
		Reliability:       DeltaRange{0.3, 0.5},
		SuccessFactor:     1.05,
		ImprovementFactor: 0.2,
	}
	r.profiles[HybridAdaptive] = EffectProfile{
		Latency:           DeltaRange{0.15, 0.25},
		Energy:            DeltaRange{0.15, 0.25},
		Reliability:       DeltaRange{0.15, 0.25},
		SuccessFactor:     1.0,
		ImprovementFactor: 0.35,
	}
	r.profiles[EmergencyMode] = EffectProfile{
		Latency:           DeltaRange{-0.2, 0.1},
		Energy:            DeltaRange{0.3, 0.5},
		Reliability:       DeltaRange{0.4, 0.6},
		SuccessFactor:     1.1,
		ImprovementFactor: 0.15,
	}

	r.baseSuccess = [numConditions]float64{
		ConditionExcellent: 0.95,
		ConditionGood:      0.90,
		ConditionFair:      0.80,
		ConditionPoor:      0.65,
		ConditionCritical:  0.40,
	}
	r.condBoost = [numConditions]float64{
		ConditionExcellent: 1.0,
		ConditionGood:      1.0,
		ConditionFair:      1.0,
		ConditionPoor:      1.2,
		ConditionCritical:  1.5,
	}
	return r
}

// Len returns the number of registered strategies.
func (r *Registry) Len() int {
	return int(numStrategies)
}

// Strategies returns the registry order.
func (r *Registry) Strategies() []Strategy {
	return AllStrategies()
}

// Contains reports whether s is a registered strategy.
func (r *Registry) Contains(s Strategy) bool {
	return s >= 0 && s < numStrategies
}

// Profile returns the effect profile of s.
func (r *Registry) Profile(s Strategy) (EffectProfile, error) {
	if !r.Contains(s) {
		return EffectProfile{}, fmt.Errorf("%w: index %d", ErrUnknownStrategy, int(s))
	}
	return r.profiles[s], nil
}

// SuccessProbability is the chance that applying s under cond succeeds.
// For a fixed strategy the probability never increases as the condition
// worsens.
func (r *Registry) SuccessProbability(s Strategy, cond ConditionLabel) (float64, error) {
	if !r.Contains(s) {
		return 0, fmt.Errorf("%w: index %d", ErrUnknownStrategy, int(s))
	}
	if cond < 0 || cond >= numConditions {
		return 0, fmt.Errorf("success probability: bad condition %d", int(cond))
	}
	p := r.baseSuccess[cond] * r.profiles[s].SuccessFactor
	if p > 1 {
		p = 1
	}
	if p < 0 {
		p = 0
	}
	return p, nil
}

// ExpectedImprovement is the relative gain credited when s succeeds under
// cond, boosted under poor and critical conditions where an improvement is
// worth more.
func (r *Registry) ExpectedImprovement(s Strategy, cond ConditionLabel) float64 {
	if !r.Contains(s) || cond < 0 || cond >= numConditions {
		return 0
	}
	return r.profiles[s].ImprovementFactor * r.condBoost[cond]
}
