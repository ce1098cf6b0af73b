// Package trace provides decision-trace recording for adaptation analysis.
// This package has no dependencies on adapt/ — it stores pure data types.
package trace

import "time"

// Record captures a single adaptation decision cycle.
type Record struct {
	ID        string    `json:"id"`
	Cycle     int64     `json:"cycle"`
	Timestamp time.Time `json:"timestamp"`
	State     string    `json:"state"`
	Strategy  string    `json:"strategy"`
	Kind      string    `json:"kind"` // exploration | exploitation
	Epsilon   float64   `json:"epsilon"`
	Reward    float64   `json:"reward"`
	NextState string    `json:"next_state"`
	Success   bool      `json:"success"`
	Stale     bool      `json:"stale,omitempty"`
	Degrading bool      `json:"degrading,omitempty"`

	// Outcome detail, populated at LevelFull only.
	LatencyDelta     float64 `json:"latency_delta,omitempty"`
	EnergyDelta      float64 `json:"energy_delta,omitempty"`
	ReliabilityDelta float64 `json:"reliability_delta,omitempty"`
	QBefore          float64 `json:"q_before,omitempty"`
	QAfter           float64 `json:"q_after,omitempty"`
}

// Condition returns the condition component of the record's state key
// ("excellent" from "excellent_low_medium"). Empty for malformed keys.
func (r Record) Condition() string {
	for i := 0; i < len(r.State); i++ {
		if r.State[i] == '_' {
			return r.State[:i]
		}
	}
	return r.State
}
