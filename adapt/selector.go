package adapt

import (
	"fmt"
	"math/rand"
)

// === DecisionKind ===

// DecisionKind says whether a selection explored or exploited.
type DecisionKind int

const (
	Exploration DecisionKind = iota
	Exploitation
)

// String returns the storage name of the kind.
func (k DecisionKind) String() string {
	switch k {
	case Exploration:
		return "exploration"
	case Exploitation:
		return "exploitation"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// === Selector ===

// Selector makes the epsilon-greedy choice for a state. With probability
// epsilon it explores (uniform draw over the registry), otherwise it exploits
// the best-valued strategy for the state. All randomness flows through the
// injected RNG, so a fixed seed replays the exact decision sequence.
//
// The draw order is fixed: one Float64 for the explore check, then one Intn
// only when exploring. Reordering would silently change every seeded run.
type Selector struct {
	registry *Registry
	rng      *rand.Rand
}

// NewSelector creates a selector over the given registry and RNG stream.
func NewSelector(registry *Registry, rng *rand.Rand) *Selector {
	return &Selector{registry: registry, rng: rng}
}

// Select returns the chosen strategy and whether the choice explored or
// exploited. Exploitation ties break toward the lowest strategy index.
func (s *Selector) Select(table *PolicyTable, key StateKey, epsilon float64) (Strategy, DecisionKind) {
	if s.rng.Float64() < epsilon {
		all := s.registry.Strategies()
		return all[s.rng.Intn(len(all))], Exploration
	}
	best, _ := table.Best(key)
	return best, Exploitation
}

// === EpsilonSchedule ===

// EpsilonSchedule holds the process-wide exploration rate. The rate is set
// once at start, advanced exactly once per completed cycle, and never rises
// again until an explicit restart. Decay is multiplicative with a hard floor.
type EpsilonSchedule struct {
	current float64
	floor   float64
	decay   float64
}

// NewEpsilonSchedule creates a schedule starting at initial.
func NewEpsilonSchedule(initial, floor, decay float64) *EpsilonSchedule {
	return &EpsilonSchedule{current: initial, floor: floor, decay: decay}
}

// Current returns the rate for the cycle in progress.
func (s *EpsilonSchedule) Current() float64 {
	return s.current
}

// Advance applies one decay step and returns the new rate. The result never
// exceeds the previous rate and never falls below the floor.
func (s *EpsilonSchedule) Advance() float64 {
	if s.current > s.floor {
		s.current *= s.decay
		if s.current < s.floor {
			s.current = s.floor
		}
	}
	return s.current
}

// reset rewinds the schedule to a restored rate, clamped into [floor, 1].
// Used when resuming a persisted run.
func (s *EpsilonSchedule) reset(rate float64) {
	if rate < s.floor {
		rate = s.floor
	}
	if rate > 1 {
		rate = 1
	}
	s.current = rate
}
