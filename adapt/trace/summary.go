package trace

// Summary aggregates statistics from a list of decision records.
type Summary struct {
	TotalDecisions  int
	Explorations    int
	Exploitations   int
	Successes       int
	StaleCount      int
	DegradingCount  int
	MeanReward      float64
	MinReward       float64
	MaxReward       float64
	UniqueStates    int
	StrategyCounts  map[string]int // strategy name → times chosen
	ConditionCounts map[string]int // condition label → times observed
}

// Summarize computes aggregate statistics from decision records.
// Safe for nil or empty input (returns zero-value fields).
func Summarize(records []Record) *Summary {
	summary := &Summary{
		StrategyCounts:  make(map[string]int),
		ConditionCounts: make(map[string]int),
	}
	if len(records) == 0 {
		return summary
	}

	summary.TotalDecisions = len(records)
	states := make(map[string]bool)
	total := 0.0
	summary.MinReward = records[0].Reward
	summary.MaxReward = records[0].Reward

	for _, r := range records {
		switch r.Kind {
		case "exploration":
			summary.Explorations++
		case "exploitation":
			summary.Exploitations++
		}
		if r.Success {
			summary.Successes++
		}
		if r.Stale {
			summary.StaleCount++
		}
		if r.Degrading {
			summary.DegradingCount++
		}
		summary.StrategyCounts[r.Strategy]++
		summary.ConditionCounts[r.Condition()]++
		states[r.State] = true
		total += r.Reward
		if r.Reward < summary.MinReward {
			summary.MinReward = r.Reward
		}
		if r.Reward > summary.MaxReward {
			summary.MaxReward = r.Reward
		}
	}

	summary.MeanReward = total / float64(len(records))
	summary.UniqueStates = len(states)

	return summary
}
