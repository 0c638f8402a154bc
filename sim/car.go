// Defines the Car struct that models one vehicle in the simulation.
// Tracks spawn position, battery state, reachable stations and the
// timestamps needed for wait-time statistics.

package sim

import (
	"fmt"
)

// CarState represents the lifecycle state of a car.
type CarState string

const (
	CarStateSpawned  CarState = "spawned"  // created, not yet routed
	CarStateBalked   CarState = "balked"   // no acceptable station, never enters a station
	CarStateRouted   CarState = "routed"   // driving to its station
	CarStateQueued   CarState = "queued"   // waiting for a charger
	CarStateCharging CarState = "charging" // occupying a charger
	CarStateDeparted CarState = "departed" // charge session finished
)

// CarID is the handle events use to refer to a car held by the engine.
type CarID int64

// NoStation marks a car that has not been routed.
const NoStation = -1

// Car models a single vehicle's lifecycle in the simulation.
// ReachableStations is computed once at spawn and never modified.
type Car struct {
	ID                CarID
	Position          Position
	BatteryInitial    float64 // SoC % at spawn
	TargetChargeLevel float64 // SoC % the rider charges to; unknown to routing
	SystemArrivalTime float64 // minutes
	ReachableStations []StationMeta

	State CarState

	// Set once by Route.
	RoutedStation     int
	RoutedDriveTime   float64
	RoutedArrivalTime float64
	SocAfterDrive     float64

	// Set by the station.
	QueueEntryTime float64
	TimeInQueue    float64
	TimeCharging   float64
	ChargerClass   ChargerClass
}

// NewCar spawns a car at time now. Samples are drawn from src in a fixed
// order: x, y, initial battery, target charge level.
func NewCar(id CarID, now float64, stations []*ChargingStation, params *PhysicalParams, src *VariateSource) *Car {
	area := params.Area
	pos := Position{
		X: src.UniformRange(area.XMin, area.XMax),
		Y: src.UniformRange(area.YMin, area.YMax),
	}
	initial := src.UniformRange(params.BatteryMin, params.BatteryMax)
	target := src.UniformRange(initial+params.MinChargeAmount, params.TargetMaxFinalBattery)

	car := &Car{
		ID:                id,
		Position:          pos,
		BatteryInitial:    initial,
		TargetChargeLevel: target,
		SystemArrivalTime: now,
		State:             CarStateSpawned,
		RoutedStation:     NoStation,
	}
	car.ReachableStations = reachableStations(pos, initial, stations, params)
	return car
}

// reachableStations builds a StationMeta for every station the car can
// reach with at least MinBatteryThreshold left, in station order.
func reachableStations(pos Position, soc float64, stations []*ChargingStation, params *PhysicalParams) []StationMeta {
	metas := make([]StationMeta, 0, len(stations))
	for _, st := range stations {
		dist := pos.DistanceTo(st.Position)
		after := params.SocAfterDrive(soc, dist)
		if after < params.MinBatteryThreshold {
			continue
		}
		metas = append(metas, StationMeta{
			Station:          st.Index,
			DistanceKM:       dist,
			DriveTimeMinutes: params.DriveTimeMinutes(dist),
			SocAfterDrive:    after,
		})
	}
	return metas
}

// Route commits the car to the station described by meta.
// Panics if the car was already routed or balked.
func (c *Car) Route(meta StationMeta) {
	if c.State != CarStateSpawned {
		panic(fmt.Sprintf("Car.Route: car %d is %s, can only route a spawned car", c.ID, c.State))
	}
	c.RoutedStation = meta.Station
	c.RoutedDriveTime = meta.DriveTimeMinutes
	c.RoutedArrivalTime = c.SystemArrivalTime + meta.DriveTimeMinutes
	c.SocAfterDrive = meta.SocAfterDrive
	c.State = CarStateRouted
}

// Balk marks the car as never entering the station subsystem.
func (c *Car) Balk() {
	if c.State != CarStateSpawned {
		panic(fmt.Sprintf("Car.Balk: car %d is %s, can only balk a spawned car", c.ID, c.State))
	}
	c.State = CarStateBalked
}

// WaitTime is the car's wait in system: time queued plus drive time.
func (c *Car) WaitTime() float64 {
	return c.TimeInQueue + c.RoutedDriveTime
}

// This method returns a human-readable string representation of a Car.
func (c Car) String() string {
	return fmt.Sprintf("Car: (ID: %d, State: %s, SoC: %.1f->%.1f, Station: %d, ArrivalTime: %.3f)",
		c.ID, c.State, c.BatteryInitial, c.TargetChargeLevel, c.RoutedStation, c.SystemArrivalTime)
}

// carArena owns every live car. Events and queues refer to cars by CarID.
type carArena struct {
	cars   map[CarID]*Car
	nextID CarID
}

func newCarArena() *carArena {
	return &carArena{cars: make(map[CarID]*Car)}
}

// NextID reserves the next car handle.
func (a *carArena) NextID() CarID {
	id := a.nextID
	a.nextID++
	return id
}

func (a *carArena) Add(c *Car) {
	if _, ok := a.cars[c.ID]; ok {
		panic(fmt.Sprintf("carArena.Add: duplicate car ID %d", c.ID))
	}
	a.cars[c.ID] = c
}

// Get returns the car for id. Panics on an unknown handle: an event that
// outlives its car is a scheduling bug.
func (a *carArena) Get(id CarID) *Car {
	c, ok := a.cars[id]
	if !ok {
		panic(fmt.Sprintf("carArena.Get: unknown car ID %d", id))
	}
	return c
}

func (a *carArena) Release(id CarID) {
	delete(a.cars, id)
}

func (a *carArena) Len() int {
	return len(a.cars)
}
