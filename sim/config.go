package sim

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Position is a point in the simulated plane, in kilometres.
type Position struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// DistanceTo returns the straight-line distance in kilometres.
func (p Position) DistanceTo(q Position) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Area is the rectangular service area cars spawn in.
type Area struct {
	XMin float64 `yaml:"x_min"`
	XMax float64 `yaml:"x_max"`
	YMin float64 `yaml:"y_min"`
	YMax float64 `yaml:"y_max"`
}

// PhysicalParams is the constants table shared by cars, stations and routing.
// Percentages are state-of-charge percent (0-100).
type PhysicalParams struct {
	BatteryMin            float64 `yaml:"battery_min"`              // lower bound of initial SoC
	BatteryMax            float64 `yaml:"battery_max"`              // upper bound of initial SoC
	TargetMaxFinalBattery float64 `yaml:"target_max_final_battery"` // max SoC a rider charges to
	MinChargeAmount       float64 `yaml:"min_charge_amount"`        // min SoC gained per session
	MinBatteryThreshold   float64 `yaml:"min_battery_threshold"`    // min SoC on arrival for a station to be reachable
	EnergyConsumptionRate float64 `yaml:"energy_consumption_rate"`  // kWh per km
	BatteryCapacity       float64 `yaml:"battery_capacity"`         // kWh
	FastChargerPowerKW    float64 `yaml:"fast_charger_power_kw"`
	SlowChargerPowerKW    float64 `yaml:"slow_charger_power_kw"`
	SpeedKMH              float64 `yaml:"speed_kmh"`
	MaxQueueLength        int     `yaml:"max_queue_length"`
	TimeFactor            float64 `yaml:"time_factor"`            // minutes charged per queued car when scoring waits
	LowBatteryThreshold   float64 `yaml:"low_battery_threshold"`  // closest-first accepts any queue at or below this SoC
	BalkBatteryThreshold  float64 `yaml:"balk_battery_threshold"` // shortest-wait keeps congested stations at or below this SoC
	Area                  Area    `yaml:"area"`
}

// StationConfig describes one physical charging location.
// An empty Chargers list installs both a fast and a slow charger.
type StationConfig struct {
	Name     string   `yaml:"name"`
	Position Position `yaml:"position"`
	Chargers []string `yaml:"chargers,omitempty"`
}

// Config is everything needed to construct a Simulator.
type Config struct {
	Policy               string          `yaml:"policy"`
	NumDelaysRequired    uint64          `yaml:"num_delays_required"`
	Seed                 int64           `yaml:"seed"`
	MeanInterarrivalTime float64         `yaml:"mean_interarrival_time"` // minutes
	Stations             []StationConfig `yaml:"stations"`
	Params               PhysicalParams  `yaml:"params"`
}

// DefaultParams returns the constants of the reference Victoria BC network.
func DefaultParams() PhysicalParams {
	return PhysicalParams{
		BatteryMin:            30,
		BatteryMax:            60,
		TargetMaxFinalBattery: 80,
		MinChargeAmount:       20,
		MinBatteryThreshold:   20,
		EnergyConsumptionRate: 0.20,
		BatteryCapacity:       75.0,
		FastChargerPowerKW:    200,
		SlowChargerPowerKW:    4.8,
		SpeedKMH:              40,
		MaxQueueLength:        5,
		TimeFactor:            15.0,
		LowBatteryThreshold:   30,
		BalkBatteryThreshold:  30,
		Area:                  Area{XMin: 0, XMax: 9.3, YMin: 0, YMax: 5.2},
	}
}

// DefaultStations returns the three reference stations, projected from
// latitude/longitude onto the 9.3 x 5.2 km service area.
func DefaultStations() []StationConfig {
	return []StationConfig{
		{Name: "station_1", Position: Position{X: 8.55, Y: 0.63}},
		{Name: "station_2", Position: Position{X: 8.14, Y: 3.88}},
		{Name: "station_3", Position: Position{X: 1.30, Y: 2.52}},
	}
}

// DefaultConfig returns a complete, valid configuration.
func DefaultConfig() Config {
	return Config{
		Policy:               string(PolicyClosestStationFirst),
		NumDelaysRequired:    10000,
		Seed:                 100,
		MeanInterarrivalTime: 0.3,
		Stations:             DefaultStations(),
		Params:               DefaultParams(),
	}
}

// Validate checks every field and returns all problems joined together.
func (c *Config) Validate() error {
	var errs []error
	if !IsValidRoutingPolicy(c.Policy) {
		errs = append(errs, fmt.Errorf("unknown routing policy %q; valid: %s",
			c.Policy, strings.Join(ValidRoutingPolicyNames(), ", ")))
	}
	if c.NumDelaysRequired == 0 {
		errs = append(errs, errors.New("num_delays_required must be > 0"))
	}
	if !isPositiveFinite(c.MeanInterarrivalTime) {
		errs = append(errs, fmt.Errorf("mean_interarrival_time must be a finite positive number, got %v", c.MeanInterarrivalTime))
	}
	if len(c.Stations) == 0 {
		errs = append(errs, errors.New("at least one station is required"))
	}
	for i, st := range c.Stations {
		if _, err := parseChargerSet(st.Chargers); err != nil {
			errs = append(errs, fmt.Errorf("stations[%d]: %w", i, err))
		}
	}
	if err := c.Params.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 && !c.anyStationReachable() {
		errs = append(errs, fmt.Errorf("no station is reachable from the service area with %v%% charge and %v%% reserve",
			c.Params.BatteryMax, c.Params.MinBatteryThreshold))
	}
	return errors.Join(errs...)
}

// anyStationReachable reports whether a car at the best spot in the area,
// starting at BatteryMax, could reach some station. If not, every car
// balks and the run never completes a departure.
func (c *Config) anyStationReachable() bool {
	a := c.Params.Area
	for _, st := range c.Stations {
		nearest := Position{
			X: math.Min(math.Max(st.Position.X, a.XMin), a.XMax),
			Y: math.Min(math.Max(st.Position.Y, a.YMin), a.YMax),
		}
		soc := c.Params.SocAfterDrive(c.Params.BatteryMax, nearest.DistanceTo(st.Position))
		if soc >= c.Params.MinBatteryThreshold {
			return true
		}
	}
	return false
}

// Validate checks parameter ranges. The battery bounds must leave room for
// MinChargeAmount below TargetMaxFinalBattery, otherwise a sampled target
// could fall below the initial charge.
func (p *PhysicalParams) Validate() error {
	var errs []error
	if p.BatteryMin < 0 || p.BatteryMin > p.BatteryMax {
		errs = append(errs, fmt.Errorf("battery range [%v, %v] is invalid", p.BatteryMin, p.BatteryMax))
	}
	if p.MinChargeAmount < 0 {
		errs = append(errs, fmt.Errorf("min_charge_amount must be non-negative, got %v", p.MinChargeAmount))
	}
	if p.BatteryMax+p.MinChargeAmount > p.TargetMaxFinalBattery {
		errs = append(errs, fmt.Errorf("battery_max + min_charge_amount (%v) exceeds target_max_final_battery (%v)",
			p.BatteryMax+p.MinChargeAmount, p.TargetMaxFinalBattery))
	}
	if p.TargetMaxFinalBattery > 100 {
		errs = append(errs, fmt.Errorf("target_max_final_battery must be <= 100, got %v", p.TargetMaxFinalBattery))
	}
	if p.EnergyConsumptionRate < 0 {
		errs = append(errs, fmt.Errorf("energy_consumption_rate must be non-negative, got %v", p.EnergyConsumptionRate))
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"battery_capacity", p.BatteryCapacity},
		{"fast_charger_power_kw", p.FastChargerPowerKW},
		{"slow_charger_power_kw", p.SlowChargerPowerKW},
		{"speed_kmh", p.SpeedKMH},
	} {
		if !isPositiveFinite(f.v) {
			errs = append(errs, fmt.Errorf("%s must be a finite positive number, got %v", f.name, f.v))
		}
	}
	if p.MaxQueueLength < 0 {
		errs = append(errs, fmt.Errorf("max_queue_length must be non-negative, got %d", p.MaxQueueLength))
	}
	if p.TimeFactor < 0 {
		errs = append(errs, fmt.Errorf("time_factor must be non-negative, got %v", p.TimeFactor))
	}
	if p.Area.XMin >= p.Area.XMax || p.Area.YMin >= p.Area.YMax {
		errs = append(errs, fmt.Errorf("area %+v is empty", p.Area))
	}
	return errors.Join(errs...)
}

// DriveTimeMinutes converts a distance to minutes at the configured speed.
func (p *PhysicalParams) DriveTimeMinutes(distanceKM float64) float64 {
	return distanceKM / (p.SpeedKMH / 60)
}

// SocAfterDrive returns the SoC left after driving distanceKM from soc.
func (p *PhysicalParams) SocAfterDrive(soc, distanceKM float64) float64 {
	return soc - (distanceKM*p.EnergyConsumptionRate/p.BatteryCapacity)*100
}

// ChargerPowerKW returns the power of the given charger class.
func (p *PhysicalParams) ChargerPowerKW(class ChargerClass) float64 {
	switch class {
	case ChargerFast:
		return p.FastChargerPowerKW
	case ChargerSlow:
		return p.SlowChargerPowerKW
	default:
		panic(fmt.Sprintf("ChargerPowerKW: unknown charger class %d", class))
	}
}

// ChargeTimeMinutes returns the minutes needed to raise SoC from initial to
// target on a charger of the given class. Panics if target < initial: the
// sampling ranges guarantee that never happens.
func (p *PhysicalParams) ChargeTimeMinutes(initial, target float64, class ChargerClass) float64 {
	if target < initial {
		panic(fmt.Sprintf("ChargeTimeMinutes: target SoC %.4f below initial SoC %.4f", target, initial))
	}
	energyKWh := (target - initial) / 100 * p.BatteryCapacity
	return energyKWh / p.ChargerPowerKW(class) * 60
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
