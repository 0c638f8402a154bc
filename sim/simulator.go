// sim/simulator.go
package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/evcharge-sim/evcharge-sim/sim/trace"
)

// Simulator is the core object that holds simulation time, the station
// network, the event queue and the car arena. It runs on a single goroutine;
// every event handler observes a consistent snapshot.
type Simulator struct {
	Clock      float64
	EventQueue *EventHeap
	Stations   []*ChargingStation
	Voids      *VoidCounters
	Router     *Router
	Metrics    *Metrics
	// Trace is nil unless tracing was enabled with EnableTrace.
	Trace *trace.SimulationTrace

	config     Config
	params     *PhysicalParams
	rng        *PartitionedRNG
	arrivalSrc *VariateSource
	carSrc     *VariateSource
	cars       *carArena
	observers  []Observer
	hasRun     bool
}

// NewSimulator validates cfg, builds the station network and schedules the
// first system arrival at an exponential draw from the arrivals stream.
func NewSimulator(cfg Config) (*Simulator, error) {
	s, err := newSimulator(cfg)
	if err != nil {
		return nil, err
	}
	s.EventQueue.Schedule(NewSystemArrivalEvent(s.arrivalSrc.Exponential(cfg.MeanInterarrivalTime)))
	return s, nil
}

// NewSimulatorWithoutArrivals builds a simulator with no arrival process.
// Cars are supplied with InjectCar; used for scripted scenarios.
func NewSimulatorWithoutArrivals(cfg Config) (*Simulator, error) {
	return newSimulator(cfg)
}

func newSimulator(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	s := &Simulator{
		EventQueue: NewEventHeap(),
		config:     cfg,
		cars:       newCarArena(),
	}
	s.params = &s.config.Params
	s.Stations = make([]*ChargingStation, len(cfg.Stations))
	for i, sc := range cfg.Stations {
		st, err := NewChargingStation(i, sc, s.params)
		if err != nil {
			return nil, err
		}
		s.Stations[i] = st
	}
	s.Voids = NewVoidCounters(len(s.Stations))
	s.Router = NewRouter(NewRoutingPolicy(cfg.Policy, s.params), s.Voids)
	s.Metrics = NewMetrics(len(s.Stations))
	s.rng = NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	s.arrivalSrc = s.rng.Variates(SubsystemArrivals)
	s.carSrc = s.rng.Variates(SubsystemCars)
	return s, nil
}

// EnableTrace turns on decision recording. Must be called before Run.
func (s *Simulator) EnableTrace(cfg trace.TraceConfig) {
	if !cfg.Enabled() {
		s.Trace = nil
		return
	}
	s.Trace = trace.NewSimulationTrace(cfg)
}

// AddObserver registers o for routing and departure callbacks.
func (s *Simulator) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

// Config returns the validated configuration the simulator was built with.
func (s *Simulator) Config() Config { return s.config }

// RNG returns the partitioned RNG.
func (s *Simulator) RNG() *PartitionedRNG { return s.rng }

// InFlightCars returns the number of cars held by the engine (routed,
// queued or charging).
func (s *Simulator) InFlightCars() int { return s.cars.Len() }

// InjectCar places car into the system at time at, already routed to
// station with zero drive time. Its ID is assigned here. Used by scripted
// scenarios built with NewSimulatorWithoutArrivals.
func (s *Simulator) InjectCar(car *Car, station int, at float64) {
	if station < 0 || station >= len(s.Stations) {
		panic(fmt.Sprintf("Simulator.InjectCar: station %d out of range", station))
	}
	car.ID = s.cars.NextID()
	car.SystemArrivalTime = at
	car.State = CarStateSpawned
	car.Route(StationMeta{Station: station, SocAfterDrive: car.BatteryInitial})
	s.Voids.Increment(station)
	s.cars.Add(car)
	s.Metrics.NumSystemArrivals++
	s.Metrics.Routed[station]++
	s.EventQueue.Schedule(NewStationArrivalEvent(car.RoutedArrivalTime, station, car.ID))
}

// ProcessNextEvent pops and executes the next event. Returns false when the
// queue is empty.
func (s *Simulator) ProcessNextEvent() bool {
	ev := s.EventQueue.PopNext()
	if ev == nil {
		return false
	}
	if ev.Timestamp() < s.Clock {
		panic(fmt.Sprintf("Simulator: event %s at %.6f is before clock %.6f", ev.Kind(), ev.Timestamp(), s.Clock))
	}
	s.Clock = ev.Timestamp()
	logrus.Debugf("[t=%10.3f] Executing %s", s.Clock, ev.Kind())
	ev.Execute(s)
	return true
}

// Run dispatches events until NumDelaysRequired cars have finished charging.
// Panics if the event queue drains first or if Run is called twice.
func (s *Simulator) Run() {
	if s.hasRun {
		panic("Simulator.Run called twice")
	}
	s.hasRun = true
	logrus.Infof("running %s: seed=%d delays=%d stations=%d",
		s.config.Policy, s.config.Seed, s.config.NumDelaysRequired, len(s.Stations))

	for s.Metrics.NumCarsProcessed < s.config.NumDelaysRequired {
		if !s.ProcessNextEvent() {
			panic(fmt.Sprintf("Simulator.Run: event queue empty with %d/%d cars processed",
				s.Metrics.NumCarsProcessed, s.config.NumDelaysRequired))
		}
	}
	s.Metrics.SimEndedTime = s.Clock
	logrus.Infof("[t=%.3f] simulation ended: processed=%d balked=%d",
		s.Clock, s.Metrics.NumCarsProcessed, s.Metrics.TotalBalking)
}

func (s *Simulator) handleSystemArrival(e *SystemArrivalEvent) {
	// Next arrival is drawn before the car so the arrivals stream is
	// identical across policies.
	next := s.Clock + s.arrivalSrc.Exponential(s.config.MeanInterarrivalTime)
	s.EventQueue.Schedule(NewSystemArrivalEvent(next))
	s.Metrics.NumSystemArrivals++

	car := NewCar(s.cars.NextID(), s.Clock, s.Stations, s.params, s.carSrc)
	decision := s.Router.Route(car, s.Stations, s.Clock)
	s.recordDecision(car, decision)

	if decision.Balked {
		s.Metrics.TotalBalking++
		logrus.Debugf("[t=%.3f] car %d balked: %s", s.Clock, car.ID, decision.Reason)
		return
	}
	if decision.LowBatteryOverride {
		s.Metrics.LowBatteryOverrides++
	}
	s.cars.Add(car)
	station := decision.Station()
	s.Metrics.Routed[station]++
	logrus.Debugf("[t=%.3f] car %d -> %s: %s", s.Clock, car.ID, s.Stations[station].Name, decision.Reason)
	s.EventQueue.Schedule(NewStationArrivalEvent(car.RoutedArrivalTime, station, car.ID))
}

func (s *Simulator) handleStationArrival(e *StationArrivalEvent) {
	car := s.cars.Get(e.Car)
	s.Voids.Decrement(e.Station)
	if session, ok := s.Stations[e.Station].Arrive(car, s.Clock); ok {
		s.scheduleDeparture(e.Station, session)
	}
}

func (s *Simulator) handleDeparture(e *DepartureEvent) {
	departed, next, started := s.Stations[e.Station].Depart(e.Class, s.Clock)
	if departed.ID != e.Car {
		panic(fmt.Sprintf("Simulator: departure for car %d but %s charger at station %d held car %d",
			e.Car, e.Class, e.Station, departed.ID))
	}
	if started {
		s.scheduleDeparture(e.Station, next)
	}
	s.Metrics.RecordDeparture(departed, s.Clock)
	for _, o := range s.observers {
		o.ObserveDeparture(s.Clock, departed)
	}
	s.cars.Release(departed.ID)
}

func (s *Simulator) scheduleDeparture(station int, session ChargeSession) {
	s.EventQueue.Schedule(NewDepartureEvent(session.End, station, session.Class, session.Car.ID))
}

// recordDecision forwards a committed decision to observers and the trace.
func (s *Simulator) recordDecision(car *Car, decision RoutingDecision) {
	for _, o := range s.observers {
		o.ObserveRouting(s.Clock, car, decision)
	}
	if s.Trace == nil {
		return
	}
	candidates := make([]trace.CandidateScore, len(decision.Candidates))
	for i, c := range decision.Candidates {
		st := s.Stations[c.Station]
		candidates[i] = trace.CandidateScore{
			Station:              st.Name,
			Score:                c.Score,
			EffectiveQueueLength: c.EffectiveQueueLength,
			DriveTimeMinutes:     c.DriveTimeMinutes,
			SocAfterDrive:        c.SocAfterDrive,
			EstimatedWait:        st.EstimatedWait(s.Clock + c.DriveTimeMinutes),
			Feasible:             c.Feasible,
		}
	}
	record := trace.RoutingRecord{
		CarID:              int64(car.ID),
		Clock:              s.Clock,
		Balked:             decision.Balked,
		LowBatteryOverride: decision.LowBatteryOverride,
		Reason:             decision.Reason,
		Candidates:         candidates,
	}
	if !decision.Balked {
		record.ChosenStation = s.Stations[decision.Station()].Name
		record.Regret = trace.ComputeRegret(record.ChosenStation, candidates)
	}
	s.Trace.RecordRouting(record)
}

// Result builds the RunResult for a finished run. Panics before Run.
func (s *Simulator) Result() *RunResult {
	if !s.hasRun {
		panic("Simulator.Result called before Run")
	}
	m := s.Metrics
	stations := make([]StationMetrics, len(s.Stations))
	for i, st := range s.Stations {
		stations[i] = StationMetrics{
			Name:            st.Name,
			Routed:          m.Routed[i],
			Served:          m.Served[i],
			FastSessions:    st.Charger(ChargerFast).Sessions,
			SlowSessions:    st.Charger(ChargerSlow).Sessions,
			PeakQueueLength: st.PeakQueueLength,
			FastUtilization: st.Utilization(ChargerFast, m.SimEndedTime),
			SlowUtilization: st.Utilization(ChargerSlow, m.SimEndedTime),
		}
	}
	return &RunResult{
		ReplicationID:   s.rng.ReplicationID(),
		Policy:          s.config.Policy,
		Seed:            s.config.Seed,
		CarsProcessed:   m.NumCarsProcessed,
		AvgTimeInSystem: m.AvgTimeInSystem(),
		AvgWaitTime:     m.AvgWaitTime(),
		TotalBalking:    m.TotalBalking,
		SystemArrivals:  m.NumSystemArrivals,
		SimEndedTime:    m.SimEndedTime,
		WaitTime:        NewDistribution(m.WaitTimes),
		TimeInSystem:    NewDistribution(m.TimesInSystem),
		Stations:        stations,
	}
}
