package cmd

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/resilient-edge/resilient-edge/adapt/store"
	"github.com/resilient-edge/resilient-edge/adapt/trace"
)

var inspectLimit int // Max decision records to load (0 = all)

// inspectCmd summarizes a decision database produced by a previous run.
var inspectCmd = &cobra.Command{
	Use:   "inspect <db>",
	Short: "Summarize a decision database",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		db, err := store.Open(args[0])
		if err != nil {
			logrus.Fatalf("open decision db: %v", err)
		}
		defer db.Close()

		records, err := db.Decisions(inspectLimit)
		if err != nil {
			logrus.Fatalf("load decisions: %v", err)
		}
		printSummary(trace.Summarize(records))

		snap, err := db.LoadSnapshot()
		if err != nil {
			logrus.Fatalf("load policy snapshot: %v", err)
		}
		if snap != nil {
			printPolicy(snap)
		}
	},
}

func printSummary(s *trace.Summary) {
	fmt.Println("=== Decision Summary ===")
	fmt.Printf("Decisions: %d (%d exploration / %d exploitation)\n",
		s.TotalDecisions, s.Explorations, s.Exploitations)
	if s.TotalDecisions > 0 {
		fmt.Printf("Successes: %d (%.1f%%), stale: %d, degradation-flagged: %d\n",
			s.Successes, 100*float64(s.Successes)/float64(s.TotalDecisions), s.StaleCount, s.DegradingCount)
		fmt.Printf("Reward: mean %.3f, min %.3f, max %.3f\n", s.MeanReward, s.MinReward, s.MaxReward)
	}
	fmt.Printf("Unique states: %d\n", s.UniqueStates)
	fmt.Println("By strategy:")
	for _, name := range sortedKeys(s.StrategyCounts) {
		fmt.Printf("  %-20s %d\n", name, s.StrategyCounts[name])
	}
	fmt.Println("By condition:")
	for _, name := range sortedKeys(s.ConditionCounts) {
		fmt.Printf("  %-20s %d\n", name, s.ConditionCounts[name])
	}
}

func printPolicy(snap *store.Snapshot) {
	fmt.Println("=== Policy Snapshot ===")
	fmt.Printf("States: %d, epsilon %.4f, cycles %d, saved %s\n",
		len(snap.Policy), snap.Epsilon, snap.Cycles, snap.SavedAt.Format("2006-01-02 15:04:05"))
	for _, state := range sortedPolicyKeys(snap.Policy) {
		row := snap.Policy[state]
		fmt.Printf("  %s:\n", state)
		for _, strategy := range sortedKeysFloat(row) {
			fmt.Printf("    %-20s %+.4f\n", strategy, row[strategy])
		}
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysFloat(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedPolicyKeys(m map[string]map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	inspectCmd.Flags().IntVar(&inspectLimit, "limit", 0, "Max decision records to load (0 = all)")
	rootCmd.AddCommand(inspectCmd)
}
