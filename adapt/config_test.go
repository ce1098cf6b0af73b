package adapt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// === Defaults Tests ===

func TestDefaultConfig_Validates(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestDefaultConfig_SpecValues(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 100, cfg.Controller.TickIntervalMs)
	assert.Equal(t, 0.1, cfg.Learning.Alpha)
	assert.Equal(t, 0.9, cfg.Learning.Gamma)
	assert.Equal(t, 0.1, cfg.Learning.EpsilonInitial)
	assert.Equal(t, 0.01, cfg.Learning.EpsilonFloor)
	assert.Equal(t, 0.995, cfg.Learning.EpsilonDecay)
	assert.Equal(t, 10.0, cfg.Reward.BaseSuccess)
	assert.Equal(t, 20.0, cfg.Reward.WLatency)
	assert.Len(t, cfg.Conditions, 4, "critical is the implicit catch-all")
	assert.Equal(t, BucketBoundaries{Low: 0.3, High: 0.7}, cfg.Buckets.Load)
	assert.Equal(t, BucketBoundaries{Low: 0.4, High: 0.7}, cfg.Buckets.Energy)
}

// === Loading Tests ===

func TestLoadConfig_OverlaysDefaults(t *testing.T) {
	path := writeConfigFile(t, `
learning:
  alpha: 0.2
  epsilon_initial: 0.3
slo:
  max_latency_ms: 80
`)
	cfg, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, 0.2, cfg.Learning.Alpha)
	assert.Equal(t, 0.3, cfg.Learning.EpsilonInitial)
	assert.Equal(t, 80.0, cfg.SLO.MaxLatencyMs)
	// Untouched sections keep their defaults.
	assert.Equal(t, 0.9, cfg.Learning.Gamma)
	assert.Equal(t, 100, cfg.Controller.TickIntervalMs)
}

func TestLoadConfig_UnknownKeyIsError(t *testing.T) {
	path := writeConfigFile(t, `
learning:
  alpha: 0.2
  learning_rate: 0.3
`)
	_, err := LoadConfig(path)
	assert.Error(t, err, "typoed keys must not be silently ignored")
}

func TestLoadConfig_InvalidValuesRejected(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"alpha above one", "learning:\n  alpha: 1.5\n"},
		{"gamma of one", "learning:\n  gamma: 1.0\n"},
		{"epsilon floor above initial", "learning:\n  epsilon_initial: 0.05\n  epsilon_floor: 0.5\n"},
		{"zero tick", "controller:\n  tick_interval_ms: 0\n"},
		{"inverted buckets", "buckets:\n  load:\n    low: 0.8\n    high: 0.2\n"},
		{"bad trace level", "trace:\n  level: verbose\n"},
		{"negative anomaly prob", "telemetry:\n  network_anomaly_prob: -0.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfigFile(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_ConditionLadderValidated(t *testing.T) {
	path := writeConfigFile(t, `
conditions:
  - label: excellent
    max_latency_ms: 30
    min_bandwidth_mbps: 80
    max_packet_loss: 0.02
  - label: good
    max_latency_ms: 20
    min_bandwidth_mbps: 60
    max_packet_loss: 0.05
`)
	_, err := LoadConfig(path)
	assert.Error(t, err, "a tightening ladder must be rejected at load time")
}
