package adapt

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Metrics aggregates per-cycle counters and series. Owned by a controller and
// updated once per cycle under its lock; external readers get a Snapshot.
type Metrics struct {
	TotalCycles       int64
	SkippedCycles     int64
	StaleCycles       int64
	RejectedReadings  int64
	Adaptations       int64
	Successes         int64
	Explorations      int64
	Exploitations     int64
	DegradingWarnings int64
	SelectionCounts   [numStrategies]int64
	CumulativeSavings float64

	reliabilitySum float64
	rewards        []float64
	latencies      []float64
}

// NewMetrics creates an empty metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// recordDecision folds one completed cycle into the counters.
func (m *Metrics) recordDecision(chosen Strategy, kind DecisionKind, out Outcome, reward float64, improvement float64, latencyMs float64) {
	m.Adaptations++
	if out.Success {
		m.Successes++
		m.CumulativeSavings += improvement
	}
	switch kind {
	case Exploration:
		m.Explorations++
	case Exploitation:
		m.Exploitations++
	}
	if chosen >= 0 && chosen < numStrategies {
		m.SelectionCounts[chosen]++
	}
	m.reliabilitySum += out.ReliabilityDelta
	m.rewards = append(m.rewards, reward)
	m.latencies = append(m.latencies, latencyMs)
}

// AverageReward is the mean reward over all completed cycles, 0 before the
// first one.
func (m *Metrics) AverageReward() float64 {
	if len(m.rewards) == 0 {
		return 0
	}
	return stat.Mean(m.rewards, nil)
}

// === Distribution ===

// Distribution summarizes a metric series.
type Distribution struct {
	Mean  float64
	P50   float64
	P95   float64
	P99   float64
	Min   float64
	Max   float64
	Count int
}

// distributionOf computes summary statistics over values. Zero-valued for an
// empty series.
func distributionOf(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return Distribution{
		Mean:  stat.Mean(sorted, nil),
		P50:   stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P95:   stat.Quantile(0.95, stat.Empirical, sorted, nil),
		P99:   stat.Quantile(0.99, stat.Empirical, sorted, nil),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Count: len(sorted),
	}
}

// === Snapshot ===

// Snapshot is the externally visible aggregate view of a controller,
// assembled once per request from the live counters.
type Snapshot struct {
	AdaptationCount int64
	SuccessCount    int64
	CurrentEpsilon  float64
	AverageReward   float64

	TotalCycles       int64
	SkippedCycles     int64
	StaleCycles       int64
	RejectedReadings  int64
	Explorations      int64
	Exploitations     int64
	DegradingWarnings int64
	SelectionCounts   map[string]int64
	CumulativeSavings float64
	ResilienceScore   float64
	ConvergenceScore  float64
	KnownStates       int
	SLOViolations     SLOTotals
	RewardStats       Distribution
	LatencyStats      Distribution
}

// snapshot assembles the exported view. Epsilon, state count, and SLO totals
// live outside Metrics and are passed in by the controller.
func (m *Metrics) snapshot(epsilon float64, knownStates int, slo SLOTotals) Snapshot {
	s := Snapshot{
		AdaptationCount:   m.Adaptations,
		SuccessCount:      m.Successes,
		CurrentEpsilon:    epsilon,
		AverageReward:     m.AverageReward(),
		TotalCycles:       m.TotalCycles,
		SkippedCycles:     m.SkippedCycles,
		StaleCycles:       m.StaleCycles,
		RejectedReadings:  m.RejectedReadings,
		Explorations:      m.Explorations,
		Exploitations:     m.Exploitations,
		DegradingWarnings: m.DegradingWarnings,
		SelectionCounts:   make(map[string]int64, numStrategies),
		CumulativeSavings: m.CumulativeSavings,
		KnownStates:       knownStates,
		SLOViolations:     slo,
		RewardStats:       distributionOf(m.rewards),
		LatencyStats:      distributionOf(m.latencies),
	}
	for i, count := range m.SelectionCounts {
		s.SelectionCounts[Strategy(i).String()] = count
	}
	if m.Adaptations > 0 {
		avgReliability := m.reliabilitySum / float64(m.Adaptations)
		s.ResilienceScore = minFloat(1, (avgReliability+1)/2)
		s.ConvergenceScore = minFloat(1, float64(m.Adaptations)/50)
	}
	return s
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Print writes the end-of-run summary to stdout.
func (s Snapshot) Print(elapsed time.Duration) {
	fmt.Println("=== Adaptation Metrics ===")
	fmt.Printf("Cycles: %d total, %d skipped, %d stale, %d readings rejected\n",
		s.TotalCycles, s.SkippedCycles, s.StaleCycles, s.RejectedReadings)
	fmt.Printf("Decisions: %d exploration / %d exploitation, epsilon now %.4f\n",
		s.Explorations, s.Exploitations, s.CurrentEpsilon)
	if s.AdaptationCount > 0 {
		fmt.Printf("Success rate: %.1f%% (%d/%d)\n",
			100*float64(s.SuccessCount)/float64(s.AdaptationCount), s.SuccessCount, s.AdaptationCount)
	}
	fmt.Printf("Reward: mean %.3f, p50 %.3f, p95 %.3f, min %.3f, max %.3f\n",
		s.RewardStats.Mean, s.RewardStats.P50, s.RewardStats.P95, s.RewardStats.Min, s.RewardStats.Max)
	fmt.Printf("Observed latency (ms): mean %.1f, p50 %.1f, p95 %.1f, p99 %.1f\n",
		s.LatencyStats.Mean, s.LatencyStats.P50, s.LatencyStats.P95, s.LatencyStats.P99)
	fmt.Printf("Cumulative estimated savings: %.2f\n", s.CumulativeSavings)
	fmt.Printf("Resilience score: %.3f, convergence: %.2f\n", s.ResilienceScore, s.ConvergenceScore)
	fmt.Printf("Known states: %d, degradation warnings: %d\n", s.KnownStates, s.DegradingWarnings)
	fmt.Printf("SLO violations: latency %d, packet loss %d, energy %d\n",
		s.SLOViolations.Latency, s.SLOViolations.PacketLoss, s.SLOViolations.Energy)
	fmt.Println("Strategy selections:")
	for _, strategy := range AllStrategies() {
		count := s.SelectionCounts[strategy.String()]
		pct := 0.0
		if s.AdaptationCount > 0 {
			pct = 100 * float64(count) / float64(s.AdaptationCount)
		}
		fmt.Printf("  %-20s %6d (%5.1f%%)\n", strategy.String(), count, pct)
	}
	fmt.Printf("Wall time: %s\n", elapsed.Round(time.Millisecond))
}
