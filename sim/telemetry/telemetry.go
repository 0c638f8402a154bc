// Package telemetry exports simulation observations as Prometheus metrics.
// Collector implements sim.Observer; a finished run is written out with
// WriteTextfile in the node-exporter textfile format.
package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/evcharge-sim/evcharge-sim/sim"
)

// Collector records routing and departure observations.
type Collector struct {
	policy   string
	stations []string

	routed       *prometheus.CounterVec
	balked       *prometheus.CounterVec
	overrides    *prometheus.CounterVec
	departed     *prometheus.CounterVec
	waitTime     *prometheus.HistogramVec
	timeInSystem *prometheus.HistogramVec
	effQueue     *prometheus.HistogramVec
}

var minuteBuckets = prometheus.ExponentialBuckets(0.5, 2, 12)

// NewCollector registers the simulation metrics on reg for one policy.
// stations maps station index to name. If reg is nil, the default registerer
// is used. If the collectors are already registered, the existing ones are
// reused, so several runs can share a registry.
func NewCollector(reg prometheus.Registerer, policy string, stations []string) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		policy:   policy,
		stations: stations,
		routed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evsim_cars_routed_total",
			Help: "Cars routed to a station",
		}, []string{"policy", "station"}),
		balked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evsim_cars_balked_total",
			Help: "Cars that found no acceptable station",
		}, []string{"policy"}),
		overrides: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evsim_low_battery_overrides_total",
			Help: "Cars routed past the queue limit because of low state of charge",
		}, []string{"policy"}),
		departed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evsim_cars_departed_total",
			Help: "Charge sessions finished",
		}, []string{"policy", "station", "charger"}),
		waitTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "evsim_wait_minutes",
			Help:    "Per-car wait: time queued plus drive time",
			Buckets: minuteBuckets,
		}, []string{"policy"}),
		timeInSystem: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "evsim_time_in_system_minutes",
			Help:    "Per-car time from system arrival to departure",
			Buckets: minuteBuckets,
		}, []string{"policy"}),
		effQueue: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "evsim_effective_queue_at_routing",
			Help:    "Effective queue length of the chosen station when a car is routed",
			Buckets: prometheus.LinearBuckets(0, 1, 10),
		}, []string{"policy"}),
	}

	var err error
	if c.routed, err = register(reg, c.routed); err != nil {
		return nil, err
	}
	if c.balked, err = register(reg, c.balked); err != nil {
		return nil, err
	}
	if c.overrides, err = register(reg, c.overrides); err != nil {
		return nil, err
	}
	if c.departed, err = register(reg, c.departed); err != nil {
		return nil, err
	}
	if c.waitTime, err = register(reg, c.waitTime); err != nil {
		return nil, err
	}
	if c.timeInSystem, err = register(reg, c.timeInSystem); err != nil {
		return nil, err
	}
	if c.effQueue, err = register(reg, c.effQueue); err != nil {
		return nil, err
	}
	return c, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, col T) (T, error) {
	if err := reg.Register(col); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return col, err
	}
	return col, nil
}

func (c *Collector) stationName(i int) string {
	if i >= 0 && i < len(c.stations) {
		return c.stations[i]
	}
	return fmt.Sprintf("station_%d", i+1)
}

// ObserveRouting implements sim.Observer.
func (c *Collector) ObserveRouting(_ float64, _ *sim.Car, d sim.RoutingDecision) {
	station := d.Station()
	if station == sim.NoStation {
		c.balked.WithLabelValues(c.policy).Inc()
		return
	}
	c.routed.WithLabelValues(c.policy, c.stationName(station)).Inc()
	if d.LowBatteryOverride {
		c.overrides.WithLabelValues(c.policy).Inc()
	}
	for _, cand := range d.Candidates {
		if cand.Station == station {
			c.effQueue.WithLabelValues(c.policy).Observe(float64(cand.EffectiveQueueLength))
			break
		}
	}
}

// ObserveDeparture implements sim.Observer.
func (c *Collector) ObserveDeparture(clock float64, car *sim.Car) {
	c.departed.WithLabelValues(c.policy, c.stationName(car.RoutedStation), car.ChargerClass.String()).Inc()
	c.waitTime.WithLabelValues(c.policy).Observe(car.WaitTime())
	c.timeInSystem.WithLabelValues(c.policy).Observe(clock - car.SystemArrivalTime)
}

// WriteTextfile writes everything g gathers to path in the Prometheus text
// format. The file is replaced atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}

// StationNames returns the names of s's stations in index order.
func StationNames(s *sim.Simulator) []string {
	names := make([]string, len(s.Stations))
	for i, st := range s.Stations {
		names[i] = st.Name
	}
	return names
}
