package adapt

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/resilient-edge/resilient-edge/adapt/trace"
)

// === Controller Config ===

// ControllerConfig sets the loop cadence and reading freshness bound.
type ControllerConfig struct {
	TickIntervalMs   int `yaml:"tick_interval_ms"`
	FreshnessBoundMs int `yaml:"freshness_bound_ms"`
}

// TickInterval returns the loop period.
func (c ControllerConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// FreshnessBound returns the age beyond which a reading counts as stale.
func (c ControllerConfig) FreshnessBound() time.Duration {
	return time.Duration(c.FreshnessBoundMs) * time.Millisecond
}

// Validate checks loop timing sanity.
func (c ControllerConfig) Validate() error {
	if c.TickIntervalMs <= 0 {
		return fmt.Errorf("controller: tick_interval_ms must be positive, got %d", c.TickIntervalMs)
	}
	if c.FreshnessBoundMs <= 0 {
		return fmt.Errorf("controller: freshness_bound_ms must be positive, got %d", c.FreshnessBoundMs)
	}
	return nil
}

// === Learning Config ===

// LearningConfig sets the value-update and exploration parameters.
type LearningConfig struct {
	Alpha          float64 `yaml:"alpha"`
	Gamma          float64 `yaml:"gamma"`
	EpsilonInitial float64 `yaml:"epsilon_initial"`
	EpsilonFloor   float64 `yaml:"epsilon_floor"`
	EpsilonDecay   float64 `yaml:"epsilon_decay"`
	QMax           float64 `yaml:"q_max"`
}

// Validate enforces the ranges the update rule depends on.
func (c LearningConfig) Validate() error {
	if math.IsNaN(c.Alpha) || c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("learning: alpha must be in (0,1], got %v", c.Alpha)
	}
	if math.IsNaN(c.Gamma) || c.Gamma < 0 || c.Gamma >= 1 {
		return fmt.Errorf("learning: gamma must be in [0,1), got %v", c.Gamma)
	}
	if math.IsNaN(c.EpsilonInitial) || c.EpsilonInitial < 0 || c.EpsilonInitial > 1 {
		return fmt.Errorf("learning: epsilon_initial must be in [0,1], got %v", c.EpsilonInitial)
	}
	if math.IsNaN(c.EpsilonFloor) || c.EpsilonFloor < 0 || c.EpsilonFloor > c.EpsilonInitial {
		return fmt.Errorf("learning: epsilon_floor must be in [0, epsilon_initial], got %v", c.EpsilonFloor)
	}
	if math.IsNaN(c.EpsilonDecay) || c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return fmt.Errorf("learning: epsilon_decay must be in (0,1], got %v", c.EpsilonDecay)
	}
	if !(c.QMax > 0) || math.IsInf(c.QMax, 0) {
		return fmt.Errorf("learning: q_max must be a positive finite bound, got %v", c.QMax)
	}
	return nil
}

// === Bucket Config ===

// BucketConfig sets the load and energy discretization cut points.
type BucketConfig struct {
	Load   BucketBoundaries `yaml:"load"`
	Energy BucketBoundaries `yaml:"energy"`
}

// Validate checks both boundary pairs.
func (c BucketConfig) Validate() error {
	if err := c.Load.Validate(); err != nil {
		return fmt.Errorf("buckets: load: %w", err)
	}
	if err := c.Energy.Validate(); err != nil {
		return fmt.Errorf("buckets: energy: %w", err)
	}
	return nil
}

// === Telemetry Config ===

// TelemetryConfig describes the simulated deployment whose telemetry feeds
// the controller: the fleet mix, the base signal levels with their noise,
// and the anomaly injection probabilities.
type TelemetryConfig struct {
	EdgeNodes int `yaml:"edge_nodes"`
	Sensors   int `yaml:"sensors"`
	Actuators int `yaml:"actuators"`

	BaseLatencyMs       float64 `yaml:"base_latency_ms"`
	LatencyJitterMs     float64 `yaml:"latency_jitter_ms"`
	BaseBandwidthMbps   float64 `yaml:"base_bandwidth_mbps"`
	BandwidthJitterMbps float64 `yaml:"bandwidth_jitter_mbps"`
	BasePacketLoss      float64 `yaml:"base_packet_loss"`
	PacketLossJitter    float64 `yaml:"packet_loss_jitter"`

	NetworkAnomalyProb float64 `yaml:"network_anomaly_prob"`
	LoadSpikeProb      float64 `yaml:"load_spike_prob"`

	// TrendWindow is the number of recent readings checked for a sustained
	// degradation pattern. Below 2 disables detection.
	TrendWindow int `yaml:"trend_window"`
}

// Validate checks fleet and signal sanity.
func (c TelemetryConfig) Validate() error {
	if c.EdgeNodes < 0 || c.Sensors < 0 || c.Actuators < 0 {
		return fmt.Errorf("telemetry: fleet counts must be >= 0")
	}
	if c.EdgeNodes+c.Sensors+c.Actuators == 0 {
		return fmt.Errorf("telemetry: fleet must contain at least one device")
	}
	if !(c.BaseLatencyMs > 0) || c.LatencyJitterMs < 0 {
		return fmt.Errorf("telemetry: latency base/jitter out of range")
	}
	if !(c.BaseBandwidthMbps > 0) || c.BandwidthJitterMbps < 0 {
		return fmt.Errorf("telemetry: bandwidth base/jitter out of range")
	}
	if c.BasePacketLoss < 0 || c.BasePacketLoss > 1 || c.PacketLossJitter < 0 {
		return fmt.Errorf("telemetry: packet loss base/jitter out of range")
	}
	if c.NetworkAnomalyProb < 0 || c.NetworkAnomalyProb > 1 {
		return fmt.Errorf("telemetry: network_anomaly_prob must be in [0,1], got %v", c.NetworkAnomalyProb)
	}
	if c.LoadSpikeProb < 0 || c.LoadSpikeProb > 1 {
		return fmt.Errorf("telemetry: load_spike_prob must be in [0,1], got %v", c.LoadSpikeProb)
	}
	if c.TrendWindow < 0 {
		return fmt.Errorf("telemetry: trend_window must be >= 0, got %d", c.TrendWindow)
	}
	return nil
}

// === Trace Config ===

// TraceConfig selects decision trace verbosity and an optional JSONL path.
type TraceConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// Validate checks the level against the trace registry.
func (c TraceConfig) Validate() error {
	if !trace.IsValidLevel(c.Level) {
		return fmt.Errorf("trace: unknown level %q", c.Level)
	}
	return nil
}

// === Store Config ===

// StoreConfig points at the SQLite decision database. Empty disables
// persistence.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// === Config Root ===

// Config is the full controller configuration. All top-level sections must
// be listed here to satisfy KnownFields(true) strict parsing.
type Config struct {
	Controller ControllerConfig `yaml:"controller"`
	Learning   LearningConfig   `yaml:"learning"`
	Reward     RewardConfig     `yaml:"reward"`
	Conditions []ConditionRule  `yaml:"conditions"`
	Buckets    BucketConfig     `yaml:"buckets"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	SLO        SLOConfig        `yaml:"slo"`
	Trace      TraceConfig      `yaml:"trace"`
	Store      StoreConfig      `yaml:"store"`
}

// DefaultConfig returns the standard configuration. Callers adjust fields and
// then Validate.
func DefaultConfig() *Config {
	return &Config{
		Controller: ControllerConfig{
			TickIntervalMs:   100,
			FreshnessBoundMs: 5000,
		},
		Learning: LearningConfig{
			Alpha:          0.1,
			Gamma:          0.9,
			EpsilonInitial: 0.1,
			EpsilonFloor:   0.01,
			EpsilonDecay:   0.995,
			QMax:           1000,
		},
		Reward:     DefaultRewardConfig(),
		Conditions: DefaultConditionRules(),
		Buckets: BucketConfig{
			Load:   BucketBoundaries{Low: 0.3, High: 0.7},
			Energy: BucketBoundaries{Low: 0.4, High: 0.7},
		},
		Telemetry: TelemetryConfig{
			EdgeNodes:           5,
			Sensors:             15,
			Actuators:           10,
			BaseLatencyMs:       20,
			LatencyJitterMs:     15,
			BaseBandwidthMbps:   100,
			BandwidthJitterMbps: 30,
			BasePacketLoss:      0.01,
			PacketLossJitter:    0.005,
			NetworkAnomalyProb:  0.10,
			LoadSpikeProb:       0.15,
			TrendWindow:         3,
		},
		SLO: DefaultSLOConfig(),
		Trace: TraceConfig{
			Level: string(trace.LevelDecisions),
		},
	}
}

// Validate checks every section and compiles the condition ladder once to
// surface rule errors at load time rather than mid-run.
func (c *Config) Validate() error {
	if err := c.Controller.Validate(); err != nil {
		return err
	}
	if err := c.Learning.Validate(); err != nil {
		return err
	}
	if err := c.Reward.Validate(); err != nil {
		return err
	}
	if _, err := NewClassifier(c.Conditions); err != nil {
		return err
	}
	if err := c.Buckets.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if err := c.SLO.Validate(); err != nil {
		return err
	}
	if err := c.Trace.Validate(); err != nil {
		return err
	}
	return nil
}

// LoadConfig reads a YAML file over the defaults with strict field checking:
// unknown keys are errors, omitted keys keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
