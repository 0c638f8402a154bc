package sim

// Observer receives engine callbacks. Implementations live in sub-packages
// (sim/telemetry) and must not mutate the car or decision.
type Observer interface {
	// ObserveRouting is called after every routing decision, balks included.
	ObserveRouting(clock float64, car *Car, decision RoutingDecision)
	// ObserveDeparture is called after a car's statistics are finalized.
	ObserveDeparture(clock float64, car *Car)
}
