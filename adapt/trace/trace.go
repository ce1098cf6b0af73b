package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Level controls the verbosity of decision tracing.
type Level string

const (
	// LevelNone disables tracing (zero overhead).
	LevelNone Level = "none"
	// LevelDecisions captures every decision without outcome detail.
	LevelDecisions Level = "decisions"
	// LevelFull additionally captures outcome deltas and value estimates.
	LevelFull Level = "full"
)

// validLevels maps accepted trace level strings.
var validLevels = map[Level]bool{
	LevelNone:      true,
	LevelDecisions: true,
	LevelFull:      true,
	"":             true, // empty defaults to none
}

// IsValidLevel returns true if the given level string is a recognized level.
func IsValidLevel(level string) bool {
	return validLevels[Level(level)]
}

// ParseLevel resolves a level string, treating empty as LevelNone.
func ParseLevel(level string) (Level, error) {
	if !IsValidLevel(level) {
		return LevelNone, fmt.Errorf("unknown trace level %q", level)
	}
	if level == "" {
		return LevelNone, nil
	}
	return Level(level), nil
}

// DecisionTrace collects decision records during a controller run in cycle
// order. Safe for concurrent use: the decision loop appends while observers
// read.
type DecisionTrace struct {
	level Level

	mu      sync.Mutex
	records []Record
}

// NewDecisionTrace creates a DecisionTrace ready for recording.
func NewDecisionTrace(level Level) *DecisionTrace {
	return &DecisionTrace{level: level, records: make([]Record, 0)}
}

// Level returns the configured verbosity.
func (t *DecisionTrace) Level() Level {
	return t.level
}

// Record appends a decision record, applying the configured level: LevelNone
// drops it, LevelDecisions strips outcome detail, LevelFull keeps everything.
func (t *DecisionTrace) Record(rec Record) {
	if t.level == LevelNone {
		return
	}
	if t.level == LevelDecisions {
		rec.LatencyDelta = 0
		rec.EnergyDelta = 0
		rec.ReliabilityDelta = 0
		rec.QBefore = 0
		rec.QAfter = 0
	}
	t.mu.Lock()
	t.records = append(t.records, rec)
	t.mu.Unlock()
}

// Records returns a copy of everything recorded so far.
func (t *DecisionTrace) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Len returns the number of records held.
func (t *DecisionTrace) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// WriteJSONL writes one JSON object per record to w, in cycle order.
func (t *DecisionTrace) WriteJSONL(w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, rec := range t.Records() {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("write trace record %s: %w", rec.ID, err)
		}
	}
	return nil
}
