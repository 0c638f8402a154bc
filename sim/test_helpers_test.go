package sim

import "testing"

// testParams returns the default constants as an addressable value.
func testParams() *PhysicalParams {
	p := DefaultParams()
	return &p
}

// newTestStation builds a station at pos with the given charger classes
// (none means both).
func newTestStation(t *testing.T, index int, pos Position, chargers ...string) *ChargingStation {
	t.Helper()
	st, err := NewChargingStation(index, StationConfig{Position: pos, Chargers: chargers}, testParams())
	if err != nil {
		t.Fatalf("NewChargingStation: %v", err)
	}
	return st
}

// newRoutedCar returns a car already routed to station with zero drive time.
func newRoutedCar(id CarID, station int, initial, target float64) *Car {
	c := &Car{
		ID:                id,
		BatteryInitial:    initial,
		TargetChargeLevel: target,
		State:             CarStateSpawned,
		RoutedStation:     NoStation,
	}
	c.Route(StationMeta{Station: station, SocAfterDrive: initial})
	return c
}

// scenarioConfig is a one-station network for scripted runs.
func scenarioConfig(delays uint64, chargers ...string) Config {
	cfg := DefaultConfig()
	cfg.NumDelaysRequired = delays
	cfg.Stations = []StationConfig{{Name: "depot", Position: Position{X: 1, Y: 1}, Chargers: chargers}}
	return cfg
}

// stateWith builds a RouterState from per-station (queue, in-flight) pairs.
func stateWith(pairs ...[2]int) *RouterState {
	snaps := make([]StationSnapshot, len(pairs))
	for i, p := range pairs {
		snaps[i] = StationSnapshot{Index: i, QueueLength: p[0], InFlight: p[1]}
	}
	return &RouterState{Snapshots: snaps}
}

func approxEqual(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	return d < eps && d > -eps
}
