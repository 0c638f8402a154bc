// Tracks run-wide and per-station statistics: cars processed, wait and
// time-in-system totals, balking, and charger usage.

package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Metrics aggregates statistics about the simulation for final reporting.
// Times are in minutes.
type Metrics struct {
	NumSystemArrivals   uint64  // cars that appeared in the service area
	NumCarsProcessed    uint64  // cars that finished charging
	TotalWaitTime       float64 // sum of (time in queue + drive time)
	TotalTimeInSystem   float64 // sum of (departure - system arrival)
	TotalTimeInQueue    float64
	TotalBalking        uint64
	LowBatteryOverrides uint64 // cars routed past the queue limit because of low SoC
	SimEndedTime        float64

	WaitTimes     []float64 // per processed car, departure order
	TimesInSystem []float64

	Routed []int // per station: cars routed there
	Served []int // per station: cars that finished charging there
}

// NewMetrics creates Metrics for numStations stations.
func NewMetrics(numStations int) *Metrics {
	return &Metrics{
		Routed: make([]int, numStations),
		Served: make([]int, numStations),
	}
}

// RecordDeparture finalizes a departing car's statistics at time now.
func (m *Metrics) RecordDeparture(car *Car, now float64) {
	timeInSystem := now - car.SystemArrivalTime
	wait := car.WaitTime()
	m.TotalTimeInSystem += timeInSystem
	m.TotalWaitTime += wait
	m.TotalTimeInQueue += car.TimeInQueue
	m.NumCarsProcessed++
	m.WaitTimes = append(m.WaitTimes, wait)
	m.TimesInSystem = append(m.TimesInSystem, timeInSystem)
	m.Served[car.RoutedStation]++
}

// AvgWaitTime returns TotalWaitTime / NumCarsProcessed, or 0.
func (m *Metrics) AvgWaitTime() float64 {
	if m.NumCarsProcessed == 0 {
		return 0
	}
	return m.TotalWaitTime / float64(m.NumCarsProcessed)
}

// AvgTimeInSystem returns TotalTimeInSystem / NumCarsProcessed, or 0.
func (m *Metrics) AvgTimeInSystem() float64 {
	if m.NumCarsProcessed == 0 {
		return 0
	}
	return m.TotalTimeInSystem / float64(m.NumCarsProcessed)
}

// StationMetrics summarizes one station at the end of a run.
type StationMetrics struct {
	Name            string  `json:"name"`
	Routed          int     `json:"routed"`
	Served          int     `json:"served"`
	FastSessions    int     `json:"fast_sessions"`
	SlowSessions    int     `json:"slow_sessions"`
	PeakQueueLength int     `json:"peak_queue_length"`
	FastUtilization float64 `json:"fast_utilization"`
	SlowUtilization float64 `json:"slow_utilization"`
}

// RunResult is the record one run hands to the experiment driver.
type RunResult struct {
	ReplicationID   string           `json:"replication_id"`
	Policy          string           `json:"policy"`
	Seed            int64            `json:"seed"`
	CarsProcessed   uint64           `json:"cars_processed"`
	AvgTimeInSystem float64          `json:"avg_time_in_system"`
	AvgWaitTime     float64          `json:"avg_wait_time"`
	TotalBalking    uint64           `json:"total_balking"`
	SystemArrivals  uint64           `json:"system_arrivals"`
	SimEndedTime    float64          `json:"sim_ended_time"`
	WaitTime        Distribution     `json:"wait_time"`
	TimeInSystem    Distribution     `json:"time_in_system"`
	Stations        []StationMetrics `json:"stations"`
}

// BalkRate returns TotalBalking / SystemArrivals, or 0.
func (r *RunResult) BalkRate() float64 {
	if r.SystemArrivals == 0 {
		return 0
	}
	return float64(r.TotalBalking) / float64(r.SystemArrivals)
}

// Print displays the run summary.
func (r *RunResult) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Policy                 : %s\n", r.Policy)
	fmt.Fprintf(w, "Seed                   : %d\n", r.Seed)
	fmt.Fprintf(w, "Cars Processed         : %d\n", r.CarsProcessed)
	fmt.Fprintf(w, "System Arrivals        : %d\n", r.SystemArrivals)
	fmt.Fprintf(w, "Total Balking          : %d (%.1f%%)\n", r.TotalBalking, 100*r.BalkRate())
	fmt.Fprintf(w, "Sim Ended At           : %.2f min\n", r.SimEndedTime)
	fmt.Fprintf(w, "Average Time in System : %.2f min\n", r.AvgTimeInSystem)
	fmt.Fprintf(w, "Average Wait (w/ drive): %.2f min\n", r.AvgWaitTime)
	fmt.Fprintf(w, "Wait p50/p95/p99       : %.2f / %.2f / %.2f min\n", r.WaitTime.P50, r.WaitTime.P95, r.WaitTime.P99)
	for _, st := range r.Stations {
		fmt.Fprintf(w, "  %-12s routed=%d served=%d fast=%d slow=%d peakQ=%d util(fast/slow)=%.2f/%.2f\n",
			st.Name, st.Routed, st.Served, st.FastSessions, st.SlowSessions, st.PeakQueueLength,
			st.FastUtilization, st.SlowUtilization)
	}
}

// SaveResults writes the result as indented JSON to path.
func (r *RunResult) SaveResults(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write results %s: %w", path, err)
	}
	logrus.Infof("results written to %s", path)
	return nil
}
