package adapt

import (
	"fmt"
	"strings"
)

// === Buckets ===

// Bucket is the coarse discretization of a unit-interval signal.
type Bucket int

const (
	BucketLow Bucket = iota
	BucketMedium
	BucketHigh

	numBuckets
)

var bucketNames = [numBuckets]string{
	BucketLow:    "low",
	BucketMedium: "medium",
	BucketHigh:   "high",
}

// String returns the YAML/storage name of the bucket.
func (b Bucket) String() string {
	if b < 0 || b >= numBuckets {
		return fmt.Sprintf("bucket(%d)", int(b))
	}
	return bucketNames[b]
}

// ParseBucket resolves a bucket name as it appears in stored state keys.
func ParseBucket(name string) (Bucket, error) {
	for i, n := range bucketNames {
		if n == name {
			return Bucket(i), nil
		}
	}
	return 0, fmt.Errorf("unknown bucket %q", name)
}

// BucketBoundaries holds the two cut points splitting [0,1] into buckets:
// low is [0, Low), medium is [Low, High), high is [High, 1]. The three ranges
// cover the interval exactly, with no gaps and no overlap.
type BucketBoundaries struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// Validate requires 0 < Low < High < 1.
func (b BucketBoundaries) Validate() error {
	if !(b.Low > 0 && b.Low < b.High && b.High < 1) {
		return fmt.Errorf("bucket boundaries: need 0 < low < high < 1, got low=%v high=%v", b.Low, b.High)
	}
	return nil
}

// Bucket maps a unit-interval value to its bucket. Values outside [0,1] are
// clamped to the nearest end.
func (b BucketBoundaries) Bucket(v float64) Bucket {
	switch {
	case v < b.Low:
		return BucketLow
	case v < b.High:
		return BucketMedium
	default:
		return BucketHigh
	}
}

// === StateKey ===

// StateKey is the discrete identifier the policy table is indexed by.
// Identical (condition, load, energy) projections always yield identical
// keys, so the table lookup is stable across cycles and runs.
type StateKey struct {
	Condition ConditionLabel
	Load      Bucket
	Energy    Bucket
}

// String renders the key in its storage form, e.g. "excellent_low_medium".
func (k StateKey) String() string {
	return k.Condition.String() + "_" + k.Load.String() + "_" + k.Energy.String()
}

// ParseStateKey is the inverse of String, used when restoring a persisted
// policy table.
func ParseStateKey(s string) (StateKey, error) {
	parts := strings.Split(s, "_")
	if len(parts) != 3 {
		return StateKey{}, fmt.Errorf("malformed state key %q", s)
	}
	cond, err := ParseConditionLabel(parts[0])
	if err != nil {
		return StateKey{}, fmt.Errorf("state key %q: %w", s, err)
	}
	load, err := ParseBucket(parts[1])
	if err != nil {
		return StateKey{}, fmt.Errorf("state key %q: %w", s, err)
	}
	energy, err := ParseBucket(parts[2])
	if err != nil {
		return StateKey{}, fmt.Errorf("state key %q: %w", s, err)
	}
	return StateKey{Condition: cond, Load: load, Energy: energy}, nil
}

// === StateEncoder ===

// StateEncoder combines a condition label with bucketed load and energy into
// a StateKey. Deterministic: equal inputs always produce equal keys.
type StateEncoder struct {
	Load   BucketBoundaries
	Energy BucketBoundaries
}

// Encode buckets load and energy and assembles the key.
func (e StateEncoder) Encode(label ConditionLabel, load, energy float64) StateKey {
	return StateKey{
		Condition: label,
		Load:      e.Load.Bucket(load),
		Energy:    e.Energy.Bucket(energy),
	}
}
