package sim

// StationSnapshot is a lightweight view of one station for routing decisions.
// Built by the Router from live station state and the void counters.
type StationSnapshot struct {
	Index       int
	Name        string
	QueueLength int  // cars physically waiting
	InFlight    int  // cars routed here but not yet arrived (void counter)
	FastBusy    bool // fast charger occupied
	SlowBusy    bool // slow charger occupied

	EstimatedWaitMinutes float64 // queue-drain estimate for a car arriving now
}

// EffectiveQueueLength returns QueueLength + InFlight.
// InFlight prevents pile-on when several cars are routed before any of
// them has driven to the station.
func (s StationSnapshot) EffectiveQueueLength() int {
	return s.QueueLength + s.InFlight
}

// RouterState provides network-wide state to routing policies.
//
// USAGE BOUNDARY: In production, only constructed by Router.Route.
// Tests may construct directly.
type RouterState struct {
	Snapshots []StationSnapshot // one per station, indexed by station index
	Clock     float64           // current simulation clock in minutes
}

func buildRouterState(stations []*ChargingStation, voids *VoidCounters, clock float64) *RouterState {
	snaps := make([]StationSnapshot, len(stations))
	for i, st := range stations {
		snaps[i] = StationSnapshot{
			Index:       st.Index,
			Name:        st.Name,
			QueueLength: st.QueueLength(),
			InFlight:    voids.Get(i),
			FastBusy:    st.FastBusy(),
			SlowBusy:    st.SlowBusy(),

			EstimatedWaitMinutes: st.EstimatedWait(clock),
		}
	}
	return &RouterState{Snapshots: snaps, Clock: clock}
}
