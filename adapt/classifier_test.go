package adapt

import (
	"testing"
	"time"
)

func reading(lat, bw, loss float64) Reading {
	return Reading{
		LatencyMs:     lat,
		BandwidthMbps: bw,
		PacketLoss:    loss,
		SystemLoad:    0.5,
		EnergyLevel:   0.5,
		Timestamp:     time.Unix(1700000000, 0),
	}
}

func defaultClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultConditionRules())
	if err != nil {
		t.Fatalf("NewClassifier(defaults) failed: %v", err)
	}
	return c
}

// === Classification Tests ===

func TestClassify_DefaultLadder(t *testing.T) {
	c := defaultClassifier(t)

	tests := []struct {
		name string
		r    Reading
		want ConditionLabel
	}{
		{"pristine network", reading(15, 120, 0.005), ConditionExcellent},
		{"latency pushes to good", reading(35, 120, 0.005), ConditionGood},
		{"bandwidth pushes to good", reading(15, 70, 0.005), ConditionGood},
		{"loss pushes to good", reading(15, 120, 0.03), ConditionGood},
		{"mid-grade link", reading(80, 50, 0.08), ConditionFair},
		{"struggling link", reading(150, 30, 0.15), ConditionPoor},
		{"saturated link", reading(500, 5, 0.5), ConditionCritical},
		{"one signal alone can sink to critical", reading(15, 120, 0.9), ConditionCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.r); got != tt.want {
				t.Errorf("Classify(%+v) = %s, want %s", tt.r, got, tt.want)
			}
		})
	}
}

func TestClassify_BoundariesAreExclusive(t *testing.T) {
	c := defaultClassifier(t)

	// A reading sitting exactly on the excellent thresholds fails all three
	// strict comparisons and falls through to good.
	r := reading(30, 80, 0.02)
	if got := c.Classify(r); got != ConditionGood {
		t.Errorf("Classify(on excellent boundary) = %s, want good", got)
	}
}

func TestClassify_IsPure(t *testing.T) {
	c := defaultClassifier(t)
	r := reading(80, 50, 0.08)
	first := c.Classify(r)
	for i := 0; i < 10; i++ {
		if got := c.Classify(r); got != first {
			t.Fatalf("Classify changed answer on call %d: %s vs %s", i, got, first)
		}
	}
}

func TestClassify_Total(t *testing.T) {
	// Every grid point must map to exactly one label in range.
	c := defaultClassifier(t)
	for lat := 0.0; lat <= 400; lat += 40 {
		for bw := 0.0; bw <= 200; bw += 25 {
			for loss := 0.0; loss <= 1.0; loss += 0.1 {
				got := c.Classify(reading(lat, bw, loss))
				if got < ConditionExcellent || got > ConditionCritical {
					t.Fatalf("Classify(%v,%v,%v) = %d, out of range", lat, bw, loss, got)
				}
			}
		}
	}
}

// === Rule Validation Tests ===

func TestNewClassifier_RejectsBadLadders(t *testing.T) {
	tests := []struct {
		name  string
		rules []ConditionRule
	}{
		{"empty", nil},
		{"unknown label", []ConditionRule{
			{Label: "superb", MaxLatencyMs: 30, MinBandwidthMbps: 80, MaxPacketLoss: 0.02},
		}},
		{"critical carries thresholds", []ConditionRule{
			{Label: "excellent", MaxLatencyMs: 30, MinBandwidthMbps: 80, MaxPacketLoss: 0.02},
			{Label: "good", MaxLatencyMs: 50, MinBandwidthMbps: 60, MaxPacketLoss: 0.05},
			{Label: "fair", MaxLatencyMs: 100, MinBandwidthMbps: 40, MaxPacketLoss: 0.1},
			{Label: "poor", MaxLatencyMs: 200, MinBandwidthMbps: 20, MaxPacketLoss: 0.2},
			{Label: "critical", MaxLatencyMs: 500, MinBandwidthMbps: 0, MaxPacketLoss: 1},
		}},
		{"skips a label", []ConditionRule{
			{Label: "excellent", MaxLatencyMs: 30, MinBandwidthMbps: 80, MaxPacketLoss: 0.02},
			{Label: "fair", MaxLatencyMs: 100, MinBandwidthMbps: 40, MaxPacketLoss: 0.1},
		}},
		{"latency tightens instead of loosening", []ConditionRule{
			{Label: "excellent", MaxLatencyMs: 30, MinBandwidthMbps: 80, MaxPacketLoss: 0.02},
			{Label: "good", MaxLatencyMs: 25, MinBandwidthMbps: 60, MaxPacketLoss: 0.05},
		}},
		{"bandwidth floor rises", []ConditionRule{
			{Label: "excellent", MaxLatencyMs: 30, MinBandwidthMbps: 80, MaxPacketLoss: 0.02},
			{Label: "good", MaxLatencyMs: 50, MinBandwidthMbps: 90, MaxPacketLoss: 0.05},
		}},
		{"negative bound", []ConditionRule{
			{Label: "excellent", MaxLatencyMs: -1, MinBandwidthMbps: 80, MaxPacketLoss: 0.02},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClassifier(tt.rules); err == nil {
				t.Errorf("NewClassifier accepted invalid ladder %q", tt.name)
			}
		})
	}
}

func TestParseConditionLabel_RoundTrip(t *testing.T) {
	for _, label := range AllConditionLabels() {
		got, err := ParseConditionLabel(label.String())
		if err != nil {
			t.Fatalf("ParseConditionLabel(%q) failed: %v", label.String(), err)
		}
		if got != label {
			t.Errorf("ParseConditionLabel(%q) = %s, want %s", label.String(), got, label)
		}
	}
	if _, err := ParseConditionLabel("glorious"); err == nil {
		t.Error("ParseConditionLabel accepted unknown label")
	}
}
