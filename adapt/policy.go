package adapt

import (
	"fmt"
	"math"
	"sync"

	"github.com/sirupsen/logrus"
)

// === PolicyTable ===

// PolicyTable maps state keys to one value estimate per registered strategy.
// Every key ever touched holds a full row, zero-initialized on first access;
// rows are adjusted but never deleted. The Learner is the only mutator;
// selection and observability read through the same lock.
type PolicyTable struct {
	mu     sync.RWMutex
	values map[StateKey][]float64
}

// NewPolicyTable creates an empty table.
func NewPolicyTable() *PolicyTable {
	return &PolicyTable{values: make(map[StateKey][]float64)}
}

// rowLocked returns the row for key, materializing a zero row on first
// access. Caller must hold the write lock.
func (t *PolicyTable) rowLocked(key StateKey) []float64 {
	row, ok := t.values[key]
	if !ok {
		row = make([]float64, numStrategies)
		t.values[key] = row
	}
	return row
}

// Value returns the current estimate for (key, s). Unseen keys read as 0.
func (t *PolicyTable) Value(key StateKey, s Strategy) float64 {
	if s < 0 || s >= numStrategies {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.values[key]
	if !ok {
		return 0
	}
	return row[s]
}

// Best returns the strategy with the maximum estimate for key and that
// estimate. Ties break toward the lowest strategy index, so repeated calls on
// an unchanged table always agree. An unseen key reads as an all-zero row.
func (t *PolicyTable) Best(key StateKey) (Strategy, float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return bestLocked(t.values[key])
}

func bestLocked(row []float64) (Strategy, float64) {
	best := Strategy(0)
	bestVal := 0.0
	if len(row) > 0 {
		bestVal = row[0]
	}
	for i := 1; i < len(row); i++ {
		if row[i] > bestVal {
			best = Strategy(i)
			bestVal = row[i]
		}
	}
	return best, bestVal
}

// States returns the number of distinct keys the table has materialized.
func (t *PolicyTable) States() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}

// Snapshot returns a deep copy of the table keyed by storage names. Mutating
// the copy never touches the table.
func (t *PolicyTable) Snapshot() map[string]map[string]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snap := make(map[string]map[string]float64, len(t.values))
	for key, row := range t.values {
		entry := make(map[string]float64, len(row))
		for i, v := range row {
			entry[Strategy(i).String()] = v
		}
		snap[key.String()] = entry
	}
	return snap
}

// Restore replaces the table contents from a snapshot produced by Snapshot
// (typically persisted across restarts). Unknown state keys or strategies
// and non-finite values are rejected before anything is replaced, so a failed
// restore leaves the table untouched.
func (t *PolicyTable) Restore(snap map[string]map[string]float64) error {
	restored := make(map[StateKey][]float64, len(snap))
	for keyName, entry := range snap {
		key, err := ParseStateKey(keyName)
		if err != nil {
			return fmt.Errorf("restore policy: %w", err)
		}
		row := make([]float64, numStrategies)
		for name, v := range entry {
			s, err := ParseStrategy(name)
			if err != nil {
				return fmt.Errorf("restore policy: state %q: %w", keyName, err)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("restore policy: state %q strategy %q: non-finite value %v", keyName, name, v)
			}
			row[s] = v
		}
		restored[key] = row
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values = restored
	return nil
}

// === Learner ===

// Learner applies the temporal-difference update to a policy table:
//
//	Q(s,a) <- Q(s,a) + Alpha * (reward + Gamma * max_a' Q(s',a') - Q(s,a))
//
// Alpha must be in (0,1] and Gamma in [0,1). QMax bounds every stored value;
// updates that would exceed it are clamped with a warning so the table stays
// finite under any reward sequence.
type Learner struct {
	Alpha float64
	Gamma float64
	QMax  float64
}

// Update adjusts the estimate for (prev, chosen) in place and returns the new
// value. The read-modify-write happens under the table's write lock, so
// concurrent selections never observe a half-applied update. The next state's
// row is materialized as encountered.
func (l Learner) Update(t *PolicyTable, prev StateKey, chosen Strategy, reward float64, next StateKey) (float64, error) {
	if chosen < 0 || chosen >= numStrategies {
		return 0, fmt.Errorf("%w: index %d", ErrUnknownStrategy, int(chosen))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	row := t.rowLocked(prev)
	_, nextBest := bestLocked(t.rowLocked(next))

	q := row[chosen]
	q += l.Alpha * (reward + l.Gamma*nextBest - q)

	switch {
	case math.IsNaN(q):
		logrus.Warnf("policy: update for %s/%s produced NaN, substituting 0", prev, chosen)
		q = 0
	case q > l.QMax:
		logrus.Warnf("policy: value %v for %s/%s exceeds bound %v, clamping", q, prev, chosen, l.QMax)
		q = l.QMax
	case q < -l.QMax:
		logrus.Warnf("policy: value %v for %s/%s exceeds bound -%v, clamping", q, prev, chosen, l.QMax)
		q = -l.QMax
	}
	row[chosen] = q
	return q, nil
}
