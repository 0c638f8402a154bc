package sim

// StationMeta is a car-specific snapshot of one reachable station.
type StationMeta struct {
	Station          int     // index into the simulator's stations
	DistanceKM       float64 // straight-line distance from the car's spawn point
	DriveTimeMinutes float64
	SocAfterDrive    float64 // SoC % on arrival
}

// QueueLength returns the station's physical queue length in state.
func (m StationMeta) QueueLength(state *RouterState) int {
	return state.Snapshots[m.Station].QueueLength
}

// EffectiveQueueLength returns the queue length plus cars already routed
// to the station but not yet arrived.
func (m StationMeta) EffectiveQueueLength(state *RouterState) int {
	return state.Snapshots[m.Station].EffectiveQueueLength()
}
