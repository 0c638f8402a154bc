// Package analysis compares two routing policies over paired replications.
// Replication r of both policies shares a seed, so the per-seed differences
// are independent and a t interval on their mean is valid.
package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultConfidence is the two-sided confidence level used by the CLI.
const DefaultConfidence = 0.95

// ErrTooFewReplications is returned when fewer than two pairs are given;
// the sample variance needs R-1 > 0.
var ErrTooFewReplications = errors.New("paired confidence interval needs at least 2 replications")

// PairedCI is a confidence interval on the mean of a_r - b_r.
type PairedCI struct {
	Replications int
	Confidence   float64
	Differences  []float64 // a_r - b_r in input order
	MeanDiff     float64
	Variance     float64 // sample variance, R-1 denominator
	HalfWidth    float64
	Lower        float64
	Upper        float64
}

// ExcludesZero reports whether the interval lies strictly on one side of
// zero, i.e. the policies differ at this confidence level.
func (c *PairedCI) ExcludesZero() bool {
	return c.Lower > 0 || c.Upper < 0
}

// PairedConfidenceInterval computes the CRN interval for a and b at the
// given two-sided confidence level.
func PairedConfidenceInterval(a, b []float64, confidence float64) (*PairedCI, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("paired samples differ in length: %d vs %d", len(a), len(b))
	}
	if len(a) < 2 {
		return nil, ErrTooFewReplications
	}
	if !(confidence > 0 && confidence < 1) {
		return nil, fmt.Errorf("confidence must be in (0, 1), got %v", confidence)
	}

	r := len(a)
	diffs := make([]float64, r)
	for i := range a {
		diffs[i] = a[i] - b[i]
	}
	mean := stat.Mean(diffs, nil)
	variance := stat.Variance(diffs, nil)

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(r - 1)}
	tVal := tDist.Quantile(1 - (1-confidence)/2)
	half := tVal * math.Sqrt(variance/float64(r))

	return &PairedCI{
		Replications: r,
		Confidence:   confidence,
		Differences:  diffs,
		MeanDiff:     mean,
		Variance:     variance,
		HalfWidth:    half,
		Lower:        mean - half,
		Upper:        mean + half,
	}, nil
}
