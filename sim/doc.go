// Package sim provides the discrete-event simulation engine for routing
// electric vehicles to charging stations.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - car.go: Car lifecycle (spawned → routed → queued → charging → departed)
//   - event.go: Event types that drive the simulation (SystemArrival, StationArrival, Departure)
//   - simulator.go: The event loop and the three event handlers
//
// # Architecture
//
// The sim package holds the engine; supporting code lives in sub-packages:
//   - sim/trace/: Routing decision recording and regret summaries
//   - sim/telemetry/: Prometheus observer for routing and departures
//   - sim/results/: Paired policy runs and CSV/YAML result tables
//   - sim/analysis/: Paired-t confidence interval over per-seed differences
//
// Time is a float64 count of minutes. A run is deterministic given its
// Config: arrivals and car attributes come from separate streams of a
// PartitionedRNG, so two policies run with the same seed see the same cars.
//
// # Key Interfaces
//
//   - RoutingPolicy: pick a station for a car given per-station snapshots
//   - Event: a timestamped action executed against the Simulator
//   - Observer: receive routing and departure callbacks
package sim
