package adapt

import (
	"fmt"
)

// === ConditionLabel ===

// ConditionLabel is the discretized severity of the current operating
// conditions. The numeric order is the severity order: a larger value is a
// strictly worse condition.
type ConditionLabel int

const (
	ConditionExcellent ConditionLabel = iota
	ConditionGood
	ConditionFair
	ConditionPoor
	ConditionCritical

	numConditions
)

var conditionNames = [numConditions]string{
	ConditionExcellent: "excellent",
	ConditionGood:      "good",
	ConditionFair:      "fair",
	ConditionPoor:      "poor",
	ConditionCritical:  "critical",
}

// String returns the YAML/storage name of the label.
func (c ConditionLabel) String() string {
	if c < 0 || c >= numConditions {
		return fmt.Sprintf("condition(%d)", int(c))
	}
	return conditionNames[c]
}

// AllConditionLabels returns every label from best to worst.
func AllConditionLabels() []ConditionLabel {
	labels := make([]ConditionLabel, numConditions)
	for i := range labels {
		labels[i] = ConditionLabel(i)
	}
	return labels
}

// ParseConditionLabel resolves a label name as it appears in configuration
// files and stored state keys.
func ParseConditionLabel(name string) (ConditionLabel, error) {
	for i, n := range conditionNames {
		if n == name {
			return ConditionLabel(i), nil
		}
	}
	return 0, fmt.Errorf("unknown condition label %q", name)
}

// === Threshold Rules ===

// ConditionRule is one ordered classification rule. A reading that satisfies
// every bound classifies as Label. Rules are evaluated from best to worst
// condition; "critical" is the implicit catch-all and never carries a rule.
type ConditionRule struct {
	Label            string  `yaml:"label"`
	MaxLatencyMs     float64 `yaml:"max_latency_ms"`
	MinBandwidthMbps float64 `yaml:"min_bandwidth_mbps"`
	MaxPacketLoss    float64 `yaml:"max_packet_loss"`
}

// DefaultConditionRules returns the standard threshold ladder.
func DefaultConditionRules() []ConditionRule {
	return []ConditionRule{
		{Label: "excellent", MaxLatencyMs: 30, MinBandwidthMbps: 80, MaxPacketLoss: 0.02},
		{Label: "good", MaxLatencyMs: 50, MinBandwidthMbps: 60, MaxPacketLoss: 0.05},
		{Label: "fair", MaxLatencyMs: 100, MinBandwidthMbps: 40, MaxPacketLoss: 0.1},
		{Label: "poor", MaxLatencyMs: 200, MinBandwidthMbps: 20, MaxPacketLoss: 0.2},
	}
}

type compiledRule struct {
	label   ConditionLabel
	maxLat  float64
	minBW   float64
	maxLoss float64
}

// Classifier turns a reading into exactly one ConditionLabel by walking the
// threshold ladder and returning the first rule that the reading satisfies.
// Pure: no side effects, identical readings always classify identically.
type Classifier struct {
	rules []compiledRule
}

// NewClassifier compiles and validates an ordered rule list. Rules must cover
// the labels from excellent downward in severity order, without gaps, and
// each rule must be a strict loosening of the previous one so that relaxing a
// signal can only move the result toward a worse label.
func NewClassifier(rules []ConditionRule) (*Classifier, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("condition rules: at least one rule is required")
	}
	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		label, err := ParseConditionLabel(r.Label)
		if err != nil {
			return nil, fmt.Errorf("condition rules[%d]: %w", i, err)
		}
		if label == ConditionCritical {
			return nil, fmt.Errorf("condition rules[%d]: %q is the catch-all and cannot carry thresholds", i, r.Label)
		}
		if label != ConditionLabel(i) {
			return nil, fmt.Errorf("condition rules[%d]: got %q, want %q (rules must run from best to worst without gaps)",
				i, r.Label, ConditionLabel(i))
		}
		if r.MaxLatencyMs <= 0 || r.MinBandwidthMbps < 0 || r.MaxPacketLoss <= 0 || r.MaxPacketLoss > 1 {
			return nil, fmt.Errorf("condition rules[%d] (%q): bounds out of range", i, r.Label)
		}
		if i > 0 {
			prev := compiled[i-1]
			if r.MaxLatencyMs <= prev.maxLat || r.MinBandwidthMbps >= prev.minBW || r.MaxPacketLoss <= prev.maxLoss {
				return nil, fmt.Errorf("condition rules[%d] (%q): thresholds must loosen monotonically after %q",
					i, r.Label, prev.label)
			}
		}
		compiled = append(compiled, compiledRule{
			label:   label,
			maxLat:  r.MaxLatencyMs,
			minBW:   r.MinBandwidthMbps,
			maxLoss: r.MaxPacketLoss,
		})
	}
	return &Classifier{rules: compiled}, nil
}

// Classify returns the label of the first satisfied rule, or critical when
// none matches. Total: every reading maps to exactly one label.
func (c *Classifier) Classify(r Reading) ConditionLabel {
	for _, rule := range c.rules {
		if r.LatencyMs < rule.maxLat && r.BandwidthMbps > rule.minBW && r.PacketLoss < rule.maxLoss {
			return rule.label
		}
	}
	return ConditionCritical
}
