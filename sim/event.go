package sim

import "fmt"

// EventKind identifies the type of a simulation event.
type EventKind int

const (
	EventStationDepartFast EventKind = iota
	EventStationDepartSlow
	EventStationArrival
	EventSystemArrival
)

func (k EventKind) String() string {
	switch k {
	case EventStationDepartFast:
		return "StationDepartFast"
	case EventStationDepartSlow:
		return "StationDepartSlow"
	case EventStationArrival:
		return "StationArrival"
	case EventSystemArrival:
		return "SystemArrival"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// EventKindPriority orders events that share a timestamp (lower first).
// Departures free chargers before arrivals at the same instant look for one,
// and a car routed at time t never overtakes arrivals already due at t.
var EventKindPriority = map[EventKind]int{
	EventStationDepartFast: 0,
	EventStationDepartSlow: 0,
	EventStationArrival:    1,
	EventSystemArrival:     2,
}

// Event defines the interface for all simulation events.
// Each event has a Timestamp (in minutes), a Kind, an insertion sequence
// number assigned by the EventHeap, and an Execute method that advances
// simulation state when invoked.
type Event interface {
	Timestamp() float64
	Kind() EventKind
	Seq() uint64
	Execute(*Simulator)
	setSeq(uint64)
}

// BaseEvent provides common event fields.
type BaseEvent struct {
	timestamp float64
	kind      EventKind
	seq       uint64
}

func newBaseEvent(timestamp float64, kind EventKind) BaseEvent {
	return BaseEvent{timestamp: timestamp, kind: kind}
}

func (e *BaseEvent) Timestamp() float64 { return e.timestamp }
func (e *BaseEvent) Kind() EventKind    { return e.kind }
func (e *BaseEvent) Seq() uint64        { return e.seq }
func (e *BaseEvent) setSeq(seq uint64)  { e.seq = seq }

// SystemArrivalEvent represents a new car appearing in the service area.
type SystemArrivalEvent struct {
	BaseEvent
}

// NewSystemArrivalEvent creates a SystemArrivalEvent at timestamp.
func NewSystemArrivalEvent(timestamp float64) *SystemArrivalEvent {
	return &SystemArrivalEvent{BaseEvent: newBaseEvent(timestamp, EventSystemArrival)}
}

// Execute spawns and routes a car.
func (e *SystemArrivalEvent) Execute(sim *Simulator) {
	sim.handleSystemArrival(e)
}

// StationArrivalEvent represents a routed car reaching its station.
type StationArrivalEvent struct {
	BaseEvent
	Station int
	Car     CarID
}

// NewStationArrivalEvent creates a StationArrivalEvent at timestamp.
func NewStationArrivalEvent(timestamp float64, station int, car CarID) *StationArrivalEvent {
	return &StationArrivalEvent{
		BaseEvent: newBaseEvent(timestamp, EventStationArrival),
		Station:   station,
		Car:       car,
	}
}

// Execute hands the car to its station.
func (e *StationArrivalEvent) Execute(sim *Simulator) {
	sim.handleStationArrival(e)
}

// DepartureEvent represents a charge session ending on one charger.
type DepartureEvent struct {
	BaseEvent
	Station int
	Class   ChargerClass
	Car     CarID
}

// NewDepartureEvent creates a class-specific departure at timestamp.
func NewDepartureEvent(timestamp float64, station int, class ChargerClass, car CarID) *DepartureEvent {
	kind := EventStationDepartFast
	if class == ChargerSlow {
		kind = EventStationDepartSlow
	}
	return &DepartureEvent{
		BaseEvent: newBaseEvent(timestamp, kind),
		Station:   station,
		Class:     class,
		Car:       car,
	}
}

// Execute frees the charger and records the departing car.
func (e *DepartureEvent) Execute(sim *Simulator) {
	sim.handleDeparture(e)
}
