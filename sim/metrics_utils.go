package sim

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Distribution summarizes one per-car quantity over the processed cars of
// a run, in minutes: wait (queue plus drive) or time in system. Count is
// the number of departed cars; balked cars never contribute.
type Distribution struct {
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// NewDistribution summarizes minutes, which is left unmodified. An empty
// slice, as in a run cut short before any departure, gives the zero value.
func NewDistribution(minutes []float64) Distribution {
	n := len(minutes)
	if n == 0 {
		return Distribution{}
	}
	sorted := slices.Clone(minutes)
	slices.Sort(sorted)
	return Distribution{
		Mean:  stat.Mean(sorted, nil),
		P50:   percentile(sorted, 50),
		P95:   percentile(sorted, 95),
		P99:   percentile(sorted, 99),
		Min:   sorted[0],
		Max:   sorted[n-1],
		Count: n,
	}
}

// percentile interpolates between the two order statistics around rank
// p/100*(n-1). sorted must be ascending and non-empty.
func percentile(sorted []float64, p float64) float64 {
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := min(lo+1, len(sorted)-1)
	return sorted[lo] + (rank-float64(lo))*(sorted[hi]-sorted[lo])
}
