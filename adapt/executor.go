package adapt

import (
	"fmt"
	"math/rand"
)

// Outcome is the measured or simulated effect of applying a strategy.
// Deltas are relative: positive improves the objective, negative worsens it.
type Outcome struct {
	Success          bool
	LatencyDelta     float64
	EnergyDelta      float64
	ReliabilityDelta float64
}

// Executor applies a chosen strategy to the managed system and reports the
// observed effect. Implementations compute or request an effect only; they
// never mutate the registry. An error from Apply is treated as a failed
// attempt unless it wraps ErrUnknownStrategy, which halts the loop.
type Executor interface {
	Apply(s Strategy, cond ConditionLabel) (Outcome, error)
}

// === SimulatedExecutor ===

// SimulatedExecutor draws outcomes from the registry's effect profiles using
// an injected RNG stream. This is the stand-in for a real actuation path: it
// models how a strategy would shift latency, energy, and reliability, with a
// success probability that degrades as conditions worsen.
type SimulatedExecutor struct {
	registry *Registry
	rng      *rand.Rand
}

// NewSimulatedExecutor creates an executor over the given registry and RNG.
func NewSimulatedExecutor(registry *Registry, rng *rand.Rand) *SimulatedExecutor {
	return &SimulatedExecutor{registry: registry, rng: rng}
}

// Apply samples each objective delta uniformly from the strategy's declared
// range and rolls success against the condition-dependent probability.
func (e *SimulatedExecutor) Apply(s Strategy, cond ConditionLabel) (Outcome, error) {
	profile, err := e.registry.Profile(s)
	if err != nil {
		return Outcome{}, err
	}
	prob, err := e.registry.SuccessProbability(s, cond)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Success:          e.rng.Float64() < prob,
		LatencyDelta:     sampleRange(e.rng, profile.Latency),
		EnergyDelta:      sampleRange(e.rng, profile.Energy),
		ReliabilityDelta: sampleRange(e.rng, profile.Reliability),
	}, nil
}

func sampleRange(rng *rand.Rand, r DeltaRange) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// === ScriptedExecutor ===

// ScriptedExecutor replays a fixed outcome sequence, wrapping around when it
// runs out. Deterministic double for harnesses that need exact rewards.
type ScriptedExecutor struct {
	outcomes []Outcome
	next     int

	// Applied records every call in order.
	Applied []Strategy
}

// NewScriptedExecutor creates a scripted executor. At least one outcome is
// required.
func NewScriptedExecutor(outcomes ...Outcome) (*ScriptedExecutor, error) {
	if len(outcomes) == 0 {
		return nil, fmt.Errorf("scripted executor: at least one outcome is required")
	}
	return &ScriptedExecutor{outcomes: outcomes}, nil
}

// Apply returns the next scripted outcome regardless of strategy or
// condition, recording the call.
func (e *ScriptedExecutor) Apply(s Strategy, cond ConditionLabel) (Outcome, error) {
	e.Applied = append(e.Applied, s)
	out := e.outcomes[e.next]
	e.next = (e.next + 1) % len(e.outcomes)
	return out, nil
}
