package adapt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/resilient-edge/resilient-edge/adapt/trace"
)

// === Loop State ===

// LoopState is the controller's position within one decision cycle.
type LoopState int

const (
	StateIdle LoopState = iota
	StateObserving
	StateDeciding
	StateExecuting
	StateRewarding
	StateLearning
)

var loopStateNames = [...]string{
	StateIdle:      "idle",
	StateObserving: "observing",
	StateDeciding:  "deciding",
	StateExecuting: "executing",
	StateRewarding: "rewarding",
	StateLearning:  "learning",
}

// String returns the lowercase state name.
func (s LoopState) String() string {
	if s < 0 || int(s) >= len(loopStateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return loopStateNames[s]
}

// === Controller ===

// Controller runs the closed adaptation loop: observe telemetry, classify
// the operating condition, pick a strategy epsilon-greedily, execute it,
// score the outcome, and fold the result back into the policy table.
//
// Telemetry arrives asynchronously through Observe; each Decide cycle reads
// the latest reading without blocking. The policy table is the only
// long-lived mutable state and the Learner is its only mutator. Decide is
// driven by Run's ticker and must not be called concurrently with itself;
// Observe, CurrentPolicy, and MetricsSnapshot are safe from any goroutine.
type Controller struct {
	cfg        *Config
	classifier *Classifier
	encoder    StateEncoder
	registry   *Registry
	executor   Executor
	reward     *RewardCalculator
	table      *PolicyTable
	learner    Learner
	selector   *Selector
	tracer     *trace.DecisionTrace

	mu         sync.Mutex
	latest     Reading
	hasReading bool
	state      LoopState
	cycle      int64
	epsilon    *EpsilonSchedule
	slo        *SLOTracker
	trend      *TrendWindow
	metrics    *Metrics
}

// NewController builds a controller from a validated configuration. The
// partitioned RNG feeds the selector and, when exec is nil, the default
// simulated executor. Pass a non-nil exec to drive a real actuation path or
// a scripted harness.
func NewController(cfg *Config, prng *PartitionedRNG, exec Executor) (*Controller, error) {
	if cfg == nil {
		return nil, fmt.Errorf("controller: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if prng == nil {
		return nil, fmt.Errorf("controller: nil rng")
	}

	classifier, err := NewClassifier(cfg.Conditions)
	if err != nil {
		return nil, err
	}
	rewardCalc, err := NewRewardCalculator(cfg.Reward)
	if err != nil {
		return nil, err
	}
	level, err := trace.ParseLevel(cfg.Trace.Level)
	if err != nil {
		return nil, err
	}

	registry := NewRegistry()
	if exec == nil {
		exec = NewSimulatedExecutor(registry, prng.ForSubsystem(SubsystemExecutor))
	}

	return &Controller{
		cfg:        cfg,
		classifier: classifier,
		encoder:    StateEncoder{Load: cfg.Buckets.Load, Energy: cfg.Buckets.Energy},
		registry:   registry,
		executor:   exec,
		reward:     rewardCalc,
		table:      NewPolicyTable(),
		learner:    Learner{Alpha: cfg.Learning.Alpha, Gamma: cfg.Learning.Gamma, QMax: cfg.Learning.QMax},
		selector:   NewSelector(registry, prng.ForSubsystem(SubsystemSelector)),
		tracer:     trace.NewDecisionTrace(level),
		state:      StateIdle,
		epsilon:    NewEpsilonSchedule(cfg.Learning.EpsilonInitial, cfg.Learning.EpsilonFloor, cfg.Learning.EpsilonDecay),
		slo:        NewSLOTracker(cfg.SLO),
		trend:      NewTrendWindow(cfg.Telemetry.TrendWindow),
		metrics:    NewMetrics(),
	}, nil
}

// Observe ingests one telemetry reading. Invalid readings are discarded with
// a log line and the last valid one stays current; there is no response and
// no blocking.
func (c *Controller) Observe(r Reading) {
	if err := r.Validate(); err != nil {
		c.mu.Lock()
		c.metrics.RejectedReadings++
		c.mu.Unlock()
		logrus.Warnf("discarding reading: %v", err)
		return
	}
	c.mu.Lock()
	c.latest = r
	c.hasReading = true
	c.trend.Push(r)
	c.mu.Unlock()
}

// Decide runs one full cycle and returns its record. A nil record with a nil
// error means the cycle was skipped because no reading has ever arrived.
// A non-nil error is fatal: the policy table can no longer be trusted and
// the loop must halt.
func (c *Controller) Decide() (*trace.Record, error) {
	now := time.Now()

	// Observing: grab the freshest reading without blocking.
	c.mu.Lock()
	c.cycle++
	cycle := c.cycle
	c.metrics.TotalCycles++
	if !c.hasReading {
		c.metrics.SkippedCycles++
		c.state = StateIdle
		c.mu.Unlock()
		logrus.Warnf("[cycle %06d] no reading available yet, skipping", cycle)
		return nil, nil
	}
	c.state = StateObserving
	r := c.latest
	stale := r.Stale(now, c.cfg.Controller.FreshnessBound())
	if stale {
		c.metrics.StaleCycles++
	}
	violated := c.slo.Check(r)
	degrading := c.trend.Degrading()
	if degrading {
		c.metrics.DegradingWarnings++
	}
	eps := c.epsilon.Current()
	c.mu.Unlock()

	if stale {
		logrus.Warnf("[cycle %06d] reading is %s old, proceeding stale", cycle, r.Age(now).Round(time.Millisecond))
	}
	for _, name := range violated {
		logrus.Warnf("[cycle %06d] slo violation: %s", cycle, name)
	}
	if degrading {
		logrus.Warnf("[cycle %06d] sustained degradation trend across last %d readings", cycle, c.cfg.Telemetry.TrendWindow)
	}

	// Deciding: classify, encode, select.
	c.setState(StateDeciding)
	cond := c.classifier.Classify(r)
	key := c.encoder.Encode(cond, r.SystemLoad, r.EnergyLevel)
	chosen, kind := c.selector.Select(c.table, key, eps)
	if !c.registry.Contains(chosen) {
		c.setState(StateIdle)
		return nil, fmt.Errorf("select for %s: %w: index %d", key, ErrUnknownStrategy, int(chosen))
	}
	qBefore := c.table.Value(key, chosen)

	// Executing: a failed application is an outcome, not an aborted cycle.
	c.setState(StateExecuting)
	out, err := c.executor.Apply(chosen, cond)
	if err != nil {
		if errors.Is(err, ErrUnknownStrategy) {
			c.setState(StateIdle)
			return nil, fmt.Errorf("apply %s: %w", chosen, err)
		}
		logrus.Warnf("[cycle %06d] strategy %s failed: %v", cycle, chosen, err)
		out = Outcome{Success: false}
	}

	// Rewarding.
	c.setState(StateRewarding)
	rewardVal := c.reward.Compute(out, cond)

	// Learning: the next state comes from whatever reading is latest now,
	// which may have been refreshed while the strategy was applied.
	c.setState(StateLearning)
	c.mu.Lock()
	next := c.latest
	c.mu.Unlock()
	nextCond := c.classifier.Classify(next)
	nextKey := c.encoder.Encode(nextCond, next.SystemLoad, next.EnergyLevel)
	qAfter, err := c.learner.Update(c.table, key, chosen, rewardVal, nextKey)
	if err != nil {
		c.setState(StateIdle)
		return nil, fmt.Errorf("learning update for %s: %w", key, err)
	}

	c.mu.Lock()
	newEps := c.epsilon.Advance()
	improvement := c.registry.ExpectedImprovement(chosen, cond)
	c.metrics.recordDecision(chosen, kind, out, rewardVal, improvement, r.LatencyMs)
	c.state = StateIdle
	c.mu.Unlock()

	rec := trace.Record{
		ID:               uuid.NewString(),
		Cycle:            cycle,
		Timestamp:        now,
		State:            key.String(),
		Strategy:         chosen.String(),
		Kind:             kind.String(),
		Epsilon:          eps,
		Reward:           rewardVal,
		NextState:        nextKey.String(),
		Success:          out.Success,
		Stale:            stale,
		Degrading:        degrading,
		LatencyDelta:     out.LatencyDelta,
		EnergyDelta:      out.EnergyDelta,
		ReliabilityDelta: out.ReliabilityDelta,
		QBefore:          qBefore,
		QAfter:           qAfter,
	}
	c.tracer.Record(rec)

	logrus.Debugf("[cycle %06d] state=%s strategy=%s kind=%s reward=%.2f q=%.4f->%.4f eps=%.4f",
		cycle, key, chosen, kind, rewardVal, qBefore, qAfter, newEps)
	return &rec, nil
}

// Run drives Decide on the configured tick until ctx is cancelled or a cycle
// fails fatally. Cancellation is cooperative: an in-flight cycle always
// finishes, the loop stops at the next idle point, and nil is returned.
func (c *Controller) Run(ctx context.Context) error {
	interval := c.cfg.Controller.TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logrus.Infof("controller loop started, tick every %s", interval)

	for {
		select {
		case <-ctx.Done():
			logrus.Infof("controller loop stopped after %d cycles", c.CycleCount())
			return nil
		case <-ticker.C:
			if _, err := c.Decide(); err != nil {
				logrus.Errorf("controller loop halted: %v", err)
				return err
			}
		}
	}
}

// State returns the loop position, for introspection and logs.
func (c *Controller) State() LoopState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CycleCount returns the number of ticks handled so far, skipped ones
// included.
func (c *Controller) CycleCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycle
}

// Epsilon returns the exploration rate for the next cycle.
func (c *Controller) Epsilon() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epsilon.Current()
}

// CurrentPolicy returns a read-only deep copy of the policy table keyed by
// storage names. Mutating it never affects the controller.
func (c *Controller) CurrentPolicy() map[string]map[string]float64 {
	return c.table.Snapshot()
}

// MetricsSnapshot returns the aggregated counters as of the last completed
// cycle.
func (c *Controller) MetricsSnapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics.snapshot(c.epsilon.Current(), c.table.States(), c.slo.Totals())
}

// Trace returns the decision trace collector.
func (c *Controller) Trace() *trace.DecisionTrace {
	return c.tracer
}

// Restore loads a persisted policy snapshot along with the exploration rate
// and cycle counter it was saved with. Must be called before the first
// cycle. Unknown states or strategies in the snapshot are rejected and leave
// the controller untouched.
func (c *Controller) Restore(policy map[string]map[string]float64, epsilon float64, cycles int64) error {
	if err := c.table.Restore(policy); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epsilon.reset(epsilon)
	c.cycle = cycles
	return nil
}

// PrintSummary writes the end-of-run metrics block to stdout.
func (c *Controller) PrintSummary(start time.Time) {
	c.MetricsSnapshot().Print(time.Since(start))
}

func (c *Controller) setState(s LoopState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
