package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDecisions      int
	RoutedCount         int
	BalkedCount         int
	LowBatteryOverrides int
	MeanRegret          float64 // over routed decisions
	MaxRegret           float64
	UniqueTargets       int
	TargetDistribution  map[string]int // station name → cars routed there
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		TargetDistribution: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDecisions = len(st.Routings)
	totalRegret := 0.0
	for _, r := range st.Routings {
		if r.Balked {
			summary.BalkedCount++
			continue
		}
		summary.RoutedCount++
		if r.LowBatteryOverride {
			summary.LowBatteryOverrides++
		}
		summary.TargetDistribution[r.ChosenStation]++
		totalRegret += r.Regret
		if r.Regret > summary.MaxRegret {
			summary.MaxRegret = r.Regret
		}
	}
	if summary.RoutedCount > 0 {
		summary.MeanRegret = totalRegret / float64(summary.RoutedCount)
	}

	summary.UniqueTargets = len(summary.TargetDistribution)

	return summary
}
