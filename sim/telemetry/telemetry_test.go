package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcharge-sim/evcharge-sim/sim"
)

func TestCollector_ObserveRouting(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg, "closest_station_first", []string{"north", "south"})
	require.NoError(t, err)

	c.ObserveRouting(1, &sim.Car{}, sim.RoutingDecision{
		Meta:               sim.StationMeta{Station: 1},
		Candidates:         []sim.CandidateEval{{Station: 1, EffectiveQueueLength: 6}},
		LowBatteryOverride: true,
	})
	c.ObserveRouting(2, &sim.Car{}, sim.RoutingDecision{Balked: true})
	c.ObserveRouting(3, &sim.Car{}, sim.RoutingDecision{Balked: true})

	expected := `
# HELP evsim_cars_routed_total Cars routed to a station
# TYPE evsim_cars_routed_total counter
evsim_cars_routed_total{policy="closest_station_first",station="south"} 1
`
	if err := testutil.CollectAndCompare(c.routed, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(c.balked.WithLabelValues("closest_station_first")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.overrides.WithLabelValues("closest_station_first")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.effQueue))
}

func TestCollector_ObserveDeparture(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg, "shortest_estimated_wait", []string{"depot"})
	require.NoError(t, err)

	car := &sim.Car{SystemArrivalTime: 10, RoutedStation: 0, RoutedDriveTime: 2, TimeInQueue: 3, ChargerClass: sim.ChargerSlow}
	c.ObserveDeparture(30, car)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.departed.WithLabelValues("shortest_estimated_wait", "depot", "slow")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.waitTime))
	assert.Equal(t, 1, testutil.CollectAndCount(c.timeInSystem))
}

func TestNewCollector_ReusesRegisteredCollectors(t *testing.T) {
	// GIVEN two collectors for different policies on one registry
	reg := prometheus.NewRegistry()
	a, err := NewCollector(reg, "closest_station_first", nil)
	require.NoError(t, err)
	b, err := NewCollector(reg, "shortest_estimated_wait", nil)
	require.NoError(t, err)

	// THEN they share the underlying vectors, split by the policy label
	a.ObserveRouting(0, &sim.Car{}, sim.RoutingDecision{Balked: true})
	b.ObserveRouting(0, &sim.Car{}, sim.RoutingDecision{Balked: true})
	assert.Same(t, a.balked, b.balked)
	assert.Equal(t, 2, testutil.CollectAndCount(a.balked))
}

func TestCollector_WiredIntoSimulator(t *testing.T) {
	// GIVEN a short run with the collector attached
	cfg := sim.DefaultConfig()
	cfg.NumDelaysRequired = 50
	s, err := sim.NewSimulator(cfg)
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg, cfg.Policy, StationNames(s))
	require.NoError(t, err)
	s.AddObserver(c)

	// WHEN run
	s.Run()

	// THEN departures and balks match the engine's own counts
	departed := 0.0
	for _, name := range StationNames(s) {
		for _, class := range []string{"fast", "slow"} {
			departed += testutil.ToFloat64(c.departed.WithLabelValues(cfg.Policy, name, class))
		}
	}
	assert.Equal(t, float64(s.Metrics.NumCarsProcessed), departed)
	assert.Equal(t, float64(s.Metrics.TotalBalking), testutil.ToFloat64(c.balked.WithLabelValues(cfg.Policy)))

	// AND the registry can be written as a textfile
	path := filepath.Join(t.TempDir(), "evsim.prom")
	require.NoError(t, WriteTextfile(path, reg))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "evsim_cars_departed_total")
	assert.Contains(t, string(data), "evsim_wait_minutes_bucket")
}

func TestStationNameFallback(t *testing.T) {
	c := &Collector{stations: []string{"a"}}
	assert.Equal(t, "a", c.stationName(0))
	assert.Equal(t, "station_3", c.stationName(2))
}
