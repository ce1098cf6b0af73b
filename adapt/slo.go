package adapt

import (
	"fmt"
	"math"
)

// SLOConfig bounds the service levels the deployment is expected to hold.
// Violations are counted and surfaced, not acted on; the learner is the one
// that steers the system back.
type SLOConfig struct {
	MaxLatencyMs  float64 `yaml:"max_latency_ms"`
	MaxPacketLoss float64 `yaml:"max_packet_loss"`
	MinEnergy     float64 `yaml:"min_energy"`
}

// DefaultSLOConfig returns the standard service bounds.
func DefaultSLOConfig() SLOConfig {
	return SLOConfig{
		MaxLatencyMs:  150,
		MaxPacketLoss: 0.15,
		MinEnergy:     0.2,
	}
}

// Validate checks bound sanity.
func (c SLOConfig) Validate() error {
	if !(c.MaxLatencyMs > 0) || math.IsInf(c.MaxLatencyMs, 0) {
		return fmt.Errorf("slo: max_latency_ms must be positive and finite, got %v", c.MaxLatencyMs)
	}
	if c.MaxPacketLoss <= 0 || c.MaxPacketLoss > 1 {
		return fmt.Errorf("slo: max_packet_loss must be in (0,1], got %v", c.MaxPacketLoss)
	}
	if c.MinEnergy < 0 || c.MinEnergy >= 1 {
		return fmt.Errorf("slo: min_energy must be in [0,1), got %v", c.MinEnergy)
	}
	return nil
}

// SLOTotals is the violation count per guarded signal.
type SLOTotals struct {
	Latency    int64
	PacketLoss int64
	Energy     int64
}

// Total sums all violation counts.
func (t SLOTotals) Total() int64 {
	return t.Latency + t.PacketLoss + t.Energy
}

// SLOTracker evaluates each reading against the configured bounds and keeps
// running violation counts. Not synchronized; owned by a single controller
// and accessed under its lock.
type SLOTracker struct {
	cfg    SLOConfig
	totals SLOTotals
}

// NewSLOTracker creates a tracker for the given bounds.
func NewSLOTracker(cfg SLOConfig) *SLOTracker {
	return &SLOTracker{cfg: cfg}
}

// Check records violations for r and returns the names of the bounds broken
// this reading, in a fixed order.
func (t *SLOTracker) Check(r Reading) []string {
	var violated []string
	if r.LatencyMs > t.cfg.MaxLatencyMs {
		t.totals.Latency++
		violated = append(violated, "latency")
	}
	if r.PacketLoss > t.cfg.MaxPacketLoss {
		t.totals.PacketLoss++
		violated = append(violated, "packet_loss")
	}
	if r.EnergyLevel < t.cfg.MinEnergy {
		t.totals.Energy++
		violated = append(violated, "energy")
	}
	return violated
}

// Totals returns the violation counts so far.
func (t *SLOTracker) Totals() SLOTotals {
	return t.totals
}
