// Package telemetry synthesizes the fleet signals the controller consumes:
// a device fleet with per-class battery and load profiles, gaussian network
// noise around configured base levels, and occasional injected anomalies.
package telemetry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/resilient-edge/resilient-edge/adapt"
)

// Source produces telemetry readings for the controller.
type Source interface {
	Next(now time.Time) adapt.Reading
}

// Simulator is the standard Source: it drifts a simulated fleet and samples
// network signals with seeded noise. With a fixed RNG stream the reading
// sequence is fully reproducible.
type Simulator struct {
	cfg   adapt.TelemetryConfig
	fleet *Fleet
	rng   *rand.Rand
}

// NewSimulator creates a simulator over its own fleet.
func NewSimulator(cfg adapt.TelemetryConfig, rng *rand.Rand) *Simulator {
	return &Simulator{cfg: cfg, fleet: NewFleet(cfg, rng), rng: rng}
}

// Fleet exposes the simulated devices.
func (s *Simulator) Fleet() *Fleet {
	return s.fleet
}

// Next advances the fleet one tick and samples a reading. Anomaly injection
// happens here: a network degradation triples latency and cuts bandwidth, a
// load spike pushes system load up.
func (s *Simulator) Next(now time.Time) adapt.Reading {
	s.fleet.Step()

	lat := s.cfg.BaseLatencyMs + s.rng.NormFloat64()*s.cfg.LatencyJitterMs
	bw := s.cfg.BaseBandwidthMbps + s.rng.NormFloat64()*s.cfg.BandwidthJitterMbps
	loss := s.cfg.BasePacketLoss + s.rng.NormFloat64()*s.cfg.PacketLossJitter

	if s.rng.Float64() < s.cfg.NetworkAnomalyProb {
		logrus.Debugf("telemetry: injecting network degradation")
		lat *= 3
		bw *= 0.3
	}

	load := s.fleet.SystemLoad()
	if s.rng.Float64() < s.cfg.LoadSpikeProb {
		logrus.Debugf("telemetry: injecting load spike")
		load += 0.3
	}

	return adapt.Reading{
		LatencyMs:     math.Max(1, lat),
		BandwidthMbps: math.Max(10, bw),
		PacketLoss:    clampRange(loss, 0.001, 1),
		SystemLoad:    clamp01(load),
		EnergyLevel:   clamp01(s.fleet.EnergyLevel()),
		Timestamp:     now,
	}
}

// Pump feeds readings into sink on a fixed interval until ctx is cancelled.
// This is the asynchronous telemetry path: it runs beside the decision loop
// and never blocks on it.
func (s *Simulator) Pump(ctx context.Context, interval time.Duration, sink func(adapt.Reading)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			sink(s.Next(now))
		}
	}
}

func clampRange(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
