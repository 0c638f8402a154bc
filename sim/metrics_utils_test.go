package sim

import "testing"

func TestNewDistribution_EmptyInput_ZeroValue(t *testing.T) {
	if d := NewDistribution(nil); d != (Distribution{}) {
		t.Errorf("got %+v, want zero value", d)
	}
}

func TestNewDistribution_KnownValues(t *testing.T) {
	// GIVEN 1..5 out of order
	d := NewDistribution([]float64{5, 1, 4, 2, 3})

	// THEN summary statistics are exact
	if d.Mean != 3 || d.Min != 1 || d.Max != 5 || d.Count != 5 || d.P50 != 3 {
		t.Errorf("got %+v", d)
	}
	// p95 rank = 0.95*4 = 3.8 → 4 + 0.8*(5-4)
	if !approxEqual(d.P95, 4.8) {
		t.Errorf("P95 = %v, want 4.8", d.P95)
	}
}

func TestNewDistribution_DoesNotReorderInput(t *testing.T) {
	in := []float64{3, 1, 2}
	NewDistribution(in)
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Errorf("input mutated: %v", in)
	}
}

func TestPercentile_SingleElement(t *testing.T) {
	if p := percentile([]float64{7}, 99); p != 7 {
		t.Errorf("percentile = %v, want 7", p)
	}
}
