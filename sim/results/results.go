// Package results runs paired policy sweeps and reads and writes their
// tables. The wait table feeds the paired confidence interval; the detail
// table keeps every per-policy number for reporting.
package results

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/evcharge-sim/evcharge-sim/sim"
)

// Outcome is one policy's result for one seed.
type Outcome struct {
	AvgWaitTime     float64
	AvgTimeInSystem float64
	TotalBalking    uint64
}

func outcomeOf(r *sim.RunResult) Outcome {
	return Outcome{
		AvgWaitTime:     r.AvgWaitTime,
		AvgTimeInSystem: r.AvgTimeInSystem,
		TotalBalking:    r.TotalBalking,
	}
}

// Row pairs both policies under one seed.
type Row struct {
	Seed          int64
	ReplicationID string
	Closest       Outcome
	Shortest      Outcome
}

// Seeds returns n seeds first, first+step, first+2*step, ...
func Seeds(first, step int64, n int) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = first + int64(i)*step
	}
	return seeds
}

// RunPaired runs both policies for every seed, base supplying everything
// but Policy and Seed. Runs are sequential and independent.
func RunPaired(base sim.Config, seeds []int64) ([]Row, error) {
	rows := make([]Row, 0, len(seeds))
	for _, seed := range seeds {
		closest, err := runOne(base, sim.PolicyClosestStationFirst, seed)
		if err != nil {
			return nil, err
		}
		shortest, err := runOne(base, sim.PolicyShortestEstimatedWait, seed)
		if err != nil {
			return nil, err
		}
		if closest.ReplicationID != shortest.ReplicationID {
			return nil, fmt.Errorf("seed %d: replication IDs differ (%s vs %s)",
				seed, closest.ReplicationID, shortest.ReplicationID)
		}
		logrus.Infof("seed %d: wait %.3f vs %.3f min, balking %d vs %d",
			seed, closest.AvgWaitTime, shortest.AvgWaitTime, closest.TotalBalking, shortest.TotalBalking)
		rows = append(rows, Row{
			Seed:          seed,
			ReplicationID: closest.ReplicationID,
			Closest:       outcomeOf(closest),
			Shortest:      outcomeOf(shortest),
		})
	}
	return rows, nil
}

func runOne(base sim.Config, policy sim.PolicyName, seed int64) (*sim.RunResult, error) {
	cfg := base
	cfg.Policy = string(policy)
	cfg.Seed = seed
	s, err := sim.NewSimulator(cfg)
	if err != nil {
		return nil, fmt.Errorf("seed %d %s: %w", seed, policy, err)
	}
	s.Run()
	return s.Result(), nil
}
