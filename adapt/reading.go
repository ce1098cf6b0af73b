package adapt

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidReading reports a telemetry reading with out-of-range or
// non-finite fields. Such readings are discarded at ingestion; the controller
// keeps deciding on the last valid one.
var ErrInvalidReading = errors.New("invalid reading")

// Reading is one snapshot of the quantitative signals the controller decides
// on. Produced by an external telemetry source; immutable once created.
type Reading struct {
	LatencyMs     float64   // end-to-end network latency, milliseconds
	BandwidthMbps float64   // available bandwidth, Mbps
	PacketLoss    float64   // packet loss ratio in [0,1]
	SystemLoad    float64   // aggregate compute load in [0,1]
	EnergyLevel   float64   // remaining energy fraction in [0,1]
	Timestamp     time.Time // when the signals were sampled
}

// Validate checks that every field is finite and within its allowed range.
// Failures wrap ErrInvalidReading.
func (r Reading) Validate() error {
	if math.IsNaN(r.LatencyMs) || math.IsInf(r.LatencyMs, 0) || r.LatencyMs < 0 {
		return fmt.Errorf("%w: latency_ms %v must be finite and >= 0", ErrInvalidReading, r.LatencyMs)
	}
	if math.IsNaN(r.BandwidthMbps) || math.IsInf(r.BandwidthMbps, 0) || r.BandwidthMbps < 0 {
		return fmt.Errorf("%w: bandwidth_mbps %v must be finite and >= 0", ErrInvalidReading, r.BandwidthMbps)
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"packet_loss", r.PacketLoss},
		{"system_load", r.SystemLoad},
		{"energy_level", r.EnergyLevel},
	} {
		if math.IsNaN(f.value) || f.value < 0 || f.value > 1 {
			return fmt.Errorf("%w: %s %v must be in [0,1]", ErrInvalidReading, f.name, f.value)
		}
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is zero", ErrInvalidReading)
	}
	return nil
}

// Age reports how long ago the reading was sampled.
func (r Reading) Age(now time.Time) time.Duration {
	return now.Sub(r.Timestamp)
}

// Stale reports whether the reading is older than the freshness bound.
// Stale readings are still decided on, flagged rather than dropped.
func (r Reading) Stale(now time.Time, bound time.Duration) bool {
	return r.Age(now) > bound
}

// === Trend Detection ===

// TrendWindow watches the last N readings for a sustained degradation
// pattern: strictly rising latency together with rising packet loss across
// the whole window. Used to warn ahead of a likely condition downgrade.
type TrendWindow struct {
	size   int
	recent []Reading
}

// NewTrendWindow creates a window over the last size readings.
// A size below 2 disables detection.
func NewTrendWindow(size int) *TrendWindow {
	return &TrendWindow{size: size}
}

// Push appends a reading, evicting the oldest once the window is full.
func (w *TrendWindow) Push(r Reading) {
	if w.size < 2 {
		return
	}
	w.recent = append(w.recent, r)
	if len(w.recent) > w.size {
		w.recent = w.recent[1:]
	}
}

// Degrading reports whether the window is full and every step worsens both
// latency and packet loss.
func (w *TrendWindow) Degrading() bool {
	if w.size < 2 || len(w.recent) < w.size {
		return false
	}
	for i := 1; i < len(w.recent); i++ {
		if w.recent[i].LatencyMs <= w.recent[i-1].LatencyMs {
			return false
		}
		if w.recent[i].PacketLoss <= w.recent[i-1].PacketLoss {
			return false
		}
	}
	return true
}
