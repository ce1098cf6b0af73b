package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/resilient-edge/resilient-edge/adapt"
	"github.com/resilient-edge/resilient-edge/adapt/store"
	"github.com/resilient-edge/resilient-edge/adapt/telemetry"
)

var (
	configPath  string // Optional YAML config file
	writeConfig string // Write the default config to this path and exit
	seed        int64  // Master seed for telemetry, selector, and executor streams
	cycles      int    // Number of decision cycles (synchronous mode)
	dbPath      string // SQLite decision database; overrides store.path
	tracePath   string // JSONL decision trace output; overrides trace.path
	realtime    bool   // Drive the loop on wall-clock ticks instead of synchronously
)

// runCmd drives the adaptation loop against the simulated fleet.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the adaptation loop against the simulated fleet",
	Run: func(cmd *cobra.Command, args []string) {
		if writeConfig != "" {
			if err := writeDefaultConfig(writeConfig); err != nil {
				logrus.Fatalf("write config: %v", err)
			}
			logrus.Infof("wrote default configuration to %s", writeConfig)
			return
		}

		cfg := adapt.DefaultConfig()
		if configPath != "" {
			loaded, err := adapt.LoadConfig(configPath)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			cfg = loaded
		}
		if dbPath != "" {
			cfg.Store.Path = dbPath
		}
		if tracePath != "" {
			cfg.Trace.Path = tracePath
			if cfg.Trace.Level == "" || cfg.Trace.Level == "none" {
				cfg.Trace.Level = "full"
			}
		}

		prng := adapt.NewPartitionedRNG(adapt.NewRunKey(seed))
		ctl, err := adapt.NewController(cfg, prng, nil)
		if err != nil {
			logrus.Fatalf("build controller: %v", err)
		}
		src := telemetry.NewSimulator(cfg.Telemetry, prng.ForSubsystem(adapt.SubsystemTelemetry))
		logrus.Infof("simulated fleet: %d devices, seed %d", src.Fleet().Size(), seed)

		var db *store.Store
		if cfg.Store.Path != "" {
			if db, err = store.Open(cfg.Store.Path); err != nil {
				logrus.Fatalf("open decision db: %v", err)
			}
			defer db.Close()
			restoreSnapshot(ctl, db)
		}

		startTime := time.Now()
		if realtime {
			runRealtime(ctl, src, cfg.Controller.TickInterval())
		} else {
			runSynchronous(ctl, src, cycles)
		}

		if db != nil {
			saveRun(ctl, db)
		}
		if cfg.Trace.Path != "" {
			writeTrace(ctl, cfg.Trace.Path)
		}
		ctl.PrintSummary(startTime)
		logrus.Info("Run complete.")
	},
}

// runSynchronous drives one observe+decide pair per cycle with no timers.
// Same seed, same decision sequence.
func runSynchronous(ctl *adapt.Controller, src *telemetry.Simulator, n int) {
	for i := 0; i < n; i++ {
		ctl.Observe(src.Next(time.Now()))
		if _, err := ctl.Decide(); err != nil {
			logrus.Fatalf("cycle %d: %v", i+1, err)
		}
	}
}

// runRealtime pumps telemetry and runs the decision loop as separate
// goroutines under one errgroup, until interrupted.
func runRealtime(ctl *adapt.Controller, src *telemetry.Simulator, tick time.Duration) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return src.Pump(ctx, tick, ctl.Observe)
	})
	g.Go(func() error {
		return ctl.Run(ctx)
	})
	logrus.Info("realtime mode, interrupt to stop")
	if err := g.Wait(); err != nil {
		logrus.Fatalf("run: %v", err)
	}
}

// restoreSnapshot resumes a persisted policy, if the database holds one.
// A snapshot naming strategies or states outside the registry is a startup
// failure, not something to learn around.
func restoreSnapshot(ctl *adapt.Controller, db *store.Store) {
	snap, err := db.LoadSnapshot()
	if err != nil {
		logrus.Fatalf("load policy snapshot: %v", err)
	}
	if snap == nil {
		return
	}
	if err := ctl.Restore(snap.Policy, snap.Epsilon, snap.Cycles); err != nil {
		logrus.Fatalf("restore policy snapshot: %v", err)
	}
	logrus.Infof("resumed policy: %d states, epsilon %.4f, %d prior cycles (saved %s)",
		len(snap.Policy), snap.Epsilon, snap.Cycles, snap.SavedAt.Format(time.RFC3339))
}

// saveRun persists the decisions and the final policy snapshot.
func saveRun(ctl *adapt.Controller, db *store.Store) {
	if err := db.AppendDecisions(ctl.Trace().Records()); err != nil {
		logrus.Errorf("persist decisions: %v", err)
	}
	if err := db.SaveSnapshot(ctl.CurrentPolicy(), ctl.Epsilon(), ctl.CycleCount()); err != nil {
		logrus.Errorf("persist policy snapshot: %v", err)
	}
}

// writeTrace exports the decision trace as JSONL.
func writeTrace(ctl *adapt.Controller, path string) {
	f, err := os.Create(path)
	if err != nil {
		logrus.Errorf("create trace file: %v", err)
		return
	}
	defer f.Close()
	if err := ctl.Trace().WriteJSONL(f); err != nil {
		logrus.Errorf("write trace: %v", err)
	}
	logrus.Infof("wrote %d trace records to %s", ctl.Trace().Len(), path)
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file (defaults used when omitted)")
	runCmd.Flags().StringVar(&writeConfig, "write-config", "", "Write the default configuration YAML to this path and exit")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for telemetry, selection, and outcome streams")
	runCmd.Flags().IntVar(&cycles, "cycles", 200, "Number of decision cycles (synchronous mode)")
	runCmd.Flags().StringVar(&dbPath, "db", "", "SQLite decision database (resume + persist)")
	runCmd.Flags().StringVar(&tracePath, "trace", "", "Write the decision trace as JSONL to this path")
	runCmd.Flags().BoolVar(&realtime, "realtime", false, "Run on wall-clock ticks until interrupted")

	rootCmd.AddCommand(runCmd)
}
