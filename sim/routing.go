package sim

import (
	"fmt"
	"sort"
)

// PolicyName identifies a routing policy.
type PolicyName string

const (
	PolicyClosestStationFirst   PolicyName = "closest_station_first"
	PolicyShortestEstimatedWait PolicyName = "shortest_estimated_wait"
)

// validRoutingPolicies maps policy names to validity. Unexported to prevent mutation.
var validRoutingPolicies = map[string]bool{
	string(PolicyClosestStationFirst):   true,
	string(PolicyShortestEstimatedWait): true,
}

// IsValidRoutingPolicy returns true if name is a recognized routing policy.
func IsValidRoutingPolicy(name string) bool { return validRoutingPolicies[name] }

// ValidRoutingPolicyNames returns sorted valid policy names.
func ValidRoutingPolicyNames() []string {
	names := make([]string, 0, len(validRoutingPolicies))
	for name := range validRoutingPolicies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CandidateEval records how a policy judged one reachable station.
type CandidateEval struct {
	Station              int
	EffectiveQueueLength int
	DriveTimeMinutes     float64
	SocAfterDrive        float64
	Score                float64 // lower is better; closest-first scores by drive time
	Feasible             bool
}

// RoutingDecision encapsulates the routing decision for a car.
type RoutingDecision struct {
	Balked             bool
	Meta               StationMeta // chosen station; zero value when Balked
	Reason             string      // human-readable explanation
	LowBatteryOverride bool        // accepted a congested station because of low SoC
	Candidates         []CandidateEval
}

// Station returns the chosen station index, or NoStation if the car balked.
func (d RoutingDecision) Station() int {
	if d.Balked {
		return NoStation
	}
	return d.Meta.Station
}

// RoutingPolicy decides which reachable station a car should drive to.
// Implementations are pure: they read car and state and return a decision
// without mutating either. Router commits the decision.
type RoutingPolicy interface {
	Name() PolicyName
	Route(car *Car, state *RouterState) RoutingDecision
}

// ClosestStationFirst tries reachable stations in order of drive time and
// takes the first whose effective queue length is within MaxQueueLength.
// A car arriving at or below LowBatteryThreshold takes the station
// regardless of congestion.
// Ties are broken by first occurrence in ReachableStations order.
type ClosestStationFirst struct {
	maxQueueLength      int
	lowBatteryThreshold float64
}

// Name implements RoutingPolicy.
func (p *ClosestStationFirst) Name() PolicyName { return PolicyClosestStationFirst }

// Route implements RoutingPolicy for ClosestStationFirst.
// Candidates lists every reachable station in the order tried; stations
// after the accepted one are judged by the same rule but never tried.
func (p *ClosestStationFirst) Route(car *Car, state *RouterState) RoutingDecision {
	remaining := make([]StationMeta, len(car.ReachableStations))
	copy(remaining, car.ReachableStations)
	evals := make([]CandidateEval, 0, len(remaining))

	for len(remaining) > 0 {
		closest := 0
		for i := 1; i < len(remaining); i++ {
			if remaining[i].DriveTimeMinutes < remaining[closest].DriveTimeMinutes {
				closest = i
			}
		}
		meta := remaining[closest]
		eval := p.evaluate(meta, state)
		evals = append(evals, eval)
		remaining = append(remaining[:closest], remaining[closest+1:]...)
		if eval.Feasible {
			for _, rest := range remaining {
				evals = append(evals, p.evaluate(rest, state))
			}
			return RoutingDecision{
				Meta:               meta,
				Reason:             fmt.Sprintf("closest-station-first (queue=%d, drive=%.2fmin)", eval.EffectiveQueueLength, meta.DriveTimeMinutes),
				LowBatteryOverride: eval.EffectiveQueueLength > p.maxQueueLength,
				Candidates:         evals,
			}
		}
	}

	return RoutingDecision{
		Balked:     true,
		Reason:     balkReason(len(car.ReachableStations)),
		Candidates: evals,
	}
}

func (p *ClosestStationFirst) evaluate(meta StationMeta, state *RouterState) CandidateEval {
	eff := meta.EffectiveQueueLength(state)
	return CandidateEval{
		Station:              meta.Station,
		EffectiveQueueLength: eff,
		DriveTimeMinutes:     meta.DriveTimeMinutes,
		SocAfterDrive:        meta.SocAfterDrive,
		Score:                meta.DriveTimeMinutes,
		Feasible:             eff <= p.maxQueueLength || meta.SocAfterDrive <= p.lowBatteryThreshold,
	}
}

// ShortestEstimatedWait scores every feasible station by
// EffectiveQueueLength*TimeFactor + DriveTimeMinutes and takes the minimum.
// Stations over MaxQueueLength are infeasible unless the car arrives at or
// below BalkBatteryThreshold.
// Ties are broken by first occurrence in ReachableStations order (strict <).
type ShortestEstimatedWait struct {
	maxQueueLength       int
	balkBatteryThreshold float64
	timeFactor           float64
}

// Name implements RoutingPolicy.
func (p *ShortestEstimatedWait) Name() PolicyName { return PolicyShortestEstimatedWait }

// Route implements RoutingPolicy for ShortestEstimatedWait.
func (p *ShortestEstimatedWait) Route(car *Car, state *RouterState) RoutingDecision {
	evals := make([]CandidateEval, 0, len(car.ReachableStations))
	best := -1
	for i, meta := range car.ReachableStations {
		eff := meta.EffectiveQueueLength(state)
		withinLimit := eff <= p.maxQueueLength
		feasible := withinLimit || meta.SocAfterDrive <= p.balkBatteryThreshold
		score := float64(eff)*p.timeFactor + meta.DriveTimeMinutes
		evals = append(evals, CandidateEval{
			Station:              meta.Station,
			EffectiveQueueLength: eff,
			DriveTimeMinutes:     meta.DriveTimeMinutes,
			SocAfterDrive:        meta.SocAfterDrive,
			Score:                score,
			Feasible:             feasible,
		})
		if !feasible {
			continue
		}
		if best < 0 || score < evals[best].Score {
			best = i
		}
	}

	if best < 0 {
		return RoutingDecision{
			Balked:     true,
			Reason:     balkReason(len(car.ReachableStations)),
			Candidates: evals,
		}
	}
	chosen := evals[best]
	return RoutingDecision{
		Meta:               car.ReachableStations[best],
		Reason:             fmt.Sprintf("shortest-estimated-wait (score=%.2fmin, queue=%d)", chosen.Score, chosen.EffectiveQueueLength),
		LowBatteryOverride: chosen.EffectiveQueueLength > p.maxQueueLength,
		Candidates:         evals,
	}
}

func balkReason(reachable int) string {
	if reachable == 0 {
		return "balk (no reachable station)"
	}
	return fmt.Sprintf("balk (all %d reachable stations over queue limit)", reachable)
}

// NewRoutingPolicy creates a routing policy by name.
// Valid names are defined in validRoutingPolicies.
// Panics on unrecognized names; callers validate with IsValidRoutingPolicy first.
func NewRoutingPolicy(name string, params *PhysicalParams) RoutingPolicy {
	if !IsValidRoutingPolicy(name) {
		panic(fmt.Sprintf("unknown routing policy %q", name))
	}
	switch PolicyName(name) {
	case PolicyClosestStationFirst:
		return &ClosestStationFirst{
			maxQueueLength:      params.MaxQueueLength,
			lowBatteryThreshold: params.LowBatteryThreshold,
		}
	case PolicyShortestEstimatedWait:
		return &ShortestEstimatedWait{
			maxQueueLength:       params.MaxQueueLength,
			balkBatteryThreshold: params.BalkBatteryThreshold,
			timeFactor:           params.TimeFactor,
		}
	default:
		panic(fmt.Sprintf("unhandled routing policy %q", name))
	}
}
