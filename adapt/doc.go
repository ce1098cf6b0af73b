// Package adapt provides the closed-loop strategy controller for edge and
// IoT deployments.
//
// # Reading Guide
//
// Start with these three files to understand the decision loop:
//   - reading.go: the telemetry snapshot the controller decides on
//   - policy.go: the learned state/strategy value table and its update rule
//   - controller.go: one cycle from observation to learning, and the loop
//
// # Architecture
//
// The controller is a cycle: classify a reading into a condition, encode a
// discrete state, choose a strategy epsilon-greedily, apply it, score the
// outcome, and fold the reward back into the policy table. Supporting
// concerns live in sub-packages:
//   - adapt/telemetry/: simulated fleet telemetry with anomaly injection
//   - adapt/trace/: decision record collection and summarization
//   - adapt/store/: SQLite persistence of decisions and policy snapshots
//
// # Key Interfaces
//
// The extension point is the Executor interface: SimulatedExecutor models
// strategy effects from declared profiles, ScriptedExecutor replays fixed
// outcomes for deterministic harnesses, and a real actuation path plugs in
// the same way. Randomness always enters through an injected PartitionedRNG
// stream, so a fixed seed replays a run exactly.
package adapt
