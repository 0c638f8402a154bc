package sim

import "fmt"

// VoidCounters holds, per station, the number of cars routed there that
// have not yet arrived. Owned by the Simulator and handed to the Router.
type VoidCounters struct {
	counts []int
}

// NewVoidCounters creates zeroed counters for n stations.
func NewVoidCounters(n int) *VoidCounters {
	return &VoidCounters{counts: make([]int, n)}
}

// Get returns the in-flight count for station i.
func (v *VoidCounters) Get(i int) int { return v.counts[i] }

// Increment records a car routed to station i.
func (v *VoidCounters) Increment(i int) { v.counts[i]++ }

// Decrement records a car arriving at station i. Panics below zero.
func (v *VoidCounters) Decrement(i int) {
	if v.counts[i] == 0 {
		panic(fmt.Sprintf("VoidCounters.Decrement: station %d has no car in flight", i))
	}
	v.counts[i]--
}

// Total returns the number of cars in flight to any station.
func (v *VoidCounters) Total() int {
	n := 0
	for _, c := range v.counts {
		n += c
	}
	return n
}

// Router runs a RoutingPolicy against live station state and commits the
// result. The whole decision, the void counter increment and the car's
// routed fields happen inside one Route call, so no other decision can
// observe a partial update.
type Router struct {
	policy RoutingPolicy
	voids  *VoidCounters
}

// NewRouter creates a Router. Panics on nil arguments.
func NewRouter(policy RoutingPolicy, voids *VoidCounters) *Router {
	if policy == nil || voids == nil {
		panic("NewRouter: policy and voids must not be nil")
	}
	return &Router{policy: policy, voids: voids}
}

// Policy returns the wrapped policy.
func (r *Router) Policy() RoutingPolicy { return r.policy }

// Route decides and commits: on acceptance the chosen station's void
// counter is incremented and the car is routed; otherwise the car balks.
func (r *Router) Route(car *Car, stations []*ChargingStation, clock float64) RoutingDecision {
	state := buildRouterState(stations, r.voids, clock)
	decision := r.policy.Route(car, state)
	if decision.Balked {
		car.Balk()
		return decision
	}
	r.voids.Increment(decision.Meta.Station)
	car.Route(decision.Meta)
	return decision
}
