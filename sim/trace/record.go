// Package trace provides decision-trace recording for routing policy analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// CandidateScore captures one reachable station as the policy saw it.
type CandidateScore struct {
	Station              string
	Score                float64 // policy score, lower is better
	EffectiveQueueLength int
	DriveTimeMinutes     float64
	SocAfterDrive        float64
	EstimatedWait        float64 // queue-drain estimate at the car's arrival, minutes
	Feasible             bool
}

// RoutingRecord captures a single routing decision.
type RoutingRecord struct {
	CarID              int64
	Clock              float64
	ChosenStation      string // empty when Balked
	Balked             bool
	LowBatteryOverride bool
	Reason             string
	Candidates         []CandidateScore // in reachable-station order
	Regret             float64          // EstimatedWait(chosen) - min feasible EstimatedWait; 0 if chosen is best
}

// ComputeRegret returns the chosen candidate's estimated wait minus the best
// estimated wait among feasible candidates. Returns 0 if the chosen station
// is not among the candidates.
func ComputeRegret(chosen string, candidates []CandidateScore) float64 {
	chosenWait, found := 0.0, false
	best := -1.0
	for _, c := range candidates {
		if c.Station == chosen {
			chosenWait, found = c.EstimatedWait, true
		}
		if c.Feasible && (best < 0 || c.EstimatedWait < best) {
			best = c.EstimatedWait
		}
	}
	if !found || best < 0 || chosenWait <= best {
		return 0
	}
	return chosenWait - best
}
