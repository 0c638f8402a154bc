package sim

import (
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"
)

// ChargerClass identifies one of the two charger slots at a station.
type ChargerClass int

const (
	ChargerFast ChargerClass = iota
	ChargerSlow
	numChargerClasses
)

func (c ChargerClass) String() string {
	switch c {
	case ChargerFast:
		return "fast"
	case ChargerSlow:
		return "slow"
	default:
		return fmt.Sprintf("ChargerClass(%d)", int(c))
	}
}

// ParseChargerClass maps "fast" / "slow" to a ChargerClass.
func ParseChargerClass(s string) (ChargerClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fast":
		return ChargerFast, nil
	case "slow":
		return ChargerSlow, nil
	default:
		return 0, fmt.Errorf("unknown charger class %q (expected fast or slow)", s)
	}
}

// parseChargerSet returns which classes are installed. Empty means both.
func parseChargerSet(names []string) ([numChargerClasses]bool, error) {
	var installed [numChargerClasses]bool
	if len(names) == 0 {
		installed[ChargerFast] = true
		installed[ChargerSlow] = true
		return installed, nil
	}
	for _, name := range names {
		class, err := ParseChargerClass(name)
		if err != nil {
			return installed, err
		}
		if installed[class] {
			return installed, fmt.Errorf("charger class %q listed twice", name)
		}
		installed[class] = true
	}
	return installed, nil
}

// ChargerSlot is one charger. A slot is Busy while it has an occupant.
type ChargerSlot struct {
	Class        ChargerClass
	Installed    bool
	Occupant     *Car
	SessionStart float64
	BusyUntil    float64
	Sessions     int     // sessions started
	BusyMinutes  float64 // sum of finished session lengths
}

// Busy reports whether the slot has an occupant.
func (s *ChargerSlot) Busy() bool {
	return s.Occupant != nil
}

// ChargeSession is a started charge; the engine schedules its departure at End.
type ChargeSession struct {
	Car   *Car
	Class ChargerClass
	Start float64
	End   float64
}

// ChargingStation owns a fast and a slow charger slot and a FIFO wait queue.
// All transitions happen on the engine goroutine; the station never
// schedules events itself.
type ChargingStation struct {
	Index    int
	Name     string
	Position Position
	WaitQ    *WaitQueue

	chargers [numChargerClasses]ChargerSlot
	params   *PhysicalParams

	Arrivals        int // cars that presented themselves
	Departures      int // sessions finished
	PeakQueueLength int
}

// NewChargingStation builds station index from cfg.
func NewChargingStation(index int, cfg StationConfig, params *PhysicalParams) (*ChargingStation, error) {
	installed, err := parseChargerSet(cfg.Chargers)
	if err != nil {
		return nil, fmt.Errorf("station %d: %w", index, err)
	}
	name := cfg.Name
	if name == "" {
		name = fmt.Sprintf("station_%d", index+1)
	}
	s := &ChargingStation{
		Index:    index,
		Name:     name,
		Position: cfg.Position,
		WaitQ:    &WaitQueue{},
		params:   params,
	}
	for class := ChargerFast; class < numChargerClasses; class++ {
		s.chargers[class] = ChargerSlot{Class: class, Installed: installed[class]}
	}
	return s, nil
}

// Charger returns the slot for class.
func (s *ChargingStation) Charger(class ChargerClass) *ChargerSlot {
	return &s.chargers[class]
}

// FastBusy reports whether the fast charger has an occupant.
func (s *ChargingStation) FastBusy() bool { return s.chargers[ChargerFast].Busy() }

// SlowBusy reports whether the slow charger has an occupant.
func (s *ChargingStation) SlowBusy() bool { return s.chargers[ChargerSlow].Busy() }

// QueueLength returns the number of cars waiting for a charger.
func (s *ChargingStation) QueueLength() int { return s.WaitQ.Len() }

// InService returns the number of occupied chargers.
func (s *ChargingStation) InService() int {
	n := 0
	for i := range s.chargers {
		if s.chargers[i].Busy() {
			n++
		}
	}
	return n
}

// Occupancy is the number of cars physically at the station.
func (s *ChargingStation) Occupancy() int {
	return s.QueueLength() + s.InService()
}

// idleCharger returns the preferred idle installed slot: fast, then slow.
func (s *ChargingStation) idleCharger() *ChargerSlot {
	for class := ChargerFast; class < numChargerClasses; class++ {
		slot := &s.chargers[class]
		if slot.Installed && !slot.Busy() {
			return slot
		}
	}
	return nil
}

// Arrive processes a routed car presenting itself at time now. If a charger
// is idle the car starts charging and the returned session is valid;
// otherwise the car joins the queue and ok is false.
func (s *ChargingStation) Arrive(car *Car, now float64) (session ChargeSession, ok bool) {
	if car.RoutedStation != s.Index || car.State != CarStateRouted {
		panic(fmt.Sprintf("ChargingStation.Arrive: %s is not routed to station %d", car, s.Index))
	}
	s.Arrivals++

	slot := s.idleCharger()
	if slot == nil {
		car.State = CarStateQueued
		car.QueueEntryTime = now
		s.WaitQ.Enqueue(car)
		if q := s.WaitQ.Len(); q > s.PeakQueueLength {
			s.PeakQueueLength = q
		}
		logrus.Debugf("station %s: car %d queued %s", s.Name, car.ID, s.WaitQ)
		return ChargeSession{}, false
	}
	return s.startSession(slot, car, now), true
}

// Depart ends the session on class at time now and returns the car that
// left. If the queue is non-empty its head starts charging on the same
// charger and started is true.
func (s *ChargingStation) Depart(class ChargerClass, now float64) (departed *Car, next ChargeSession, started bool) {
	slot := &s.chargers[class]
	if !slot.Busy() {
		panic(fmt.Sprintf("ChargingStation.Depart: %s charger at station %d is idle", class, s.Index))
	}
	departed = slot.Occupant
	departed.State = CarStateDeparted
	slot.Occupant = nil
	slot.BusyMinutes += now - slot.SessionStart
	s.Departures++

	head := s.WaitQ.Dequeue()
	if head == nil {
		return departed, ChargeSession{}, false
	}
	head.TimeInQueue = now - head.QueueEntryTime
	return departed, s.startSession(slot, head, now), true
}

func (s *ChargingStation) startSession(slot *ChargerSlot, car *Car, now float64) ChargeSession {
	chargeTime := s.params.ChargeTimeMinutes(car.BatteryInitial, car.TargetChargeLevel, slot.Class)
	slot.Occupant = car
	slot.SessionStart = now
	slot.BusyUntil = now + chargeTime
	slot.Sessions++
	car.State = CarStateCharging
	car.ChargerClass = slot.Class
	car.TimeCharging = chargeTime
	logrus.Debugf("station %s: car %d on %s charger until %.3f", s.Name, car.ID, slot.Class, slot.BusyUntil)
	return ChargeSession{Car: car, Class: slot.Class, Start: now, End: slot.BusyUntil}
}

// EstimatedWait returns the minutes a car arriving at time at would spend
// in the queue, assuming the current queue drains FIFO onto whichever
// charger frees first and nobody else arrives in between.
func (s *ChargingStation) EstimatedWait(at float64) float64 {
	var free []float64
	var classes []ChargerClass
	for class := ChargerFast; class < numChargerClasses; class++ {
		slot := &s.chargers[class]
		if !slot.Installed {
			continue
		}
		t := at
		if slot.Busy() {
			t = slot.BusyUntil
		}
		free = append(free, t)
		classes = append(classes, class)
	}
	if len(free) == 0 {
		return 0
	}
	earliest := func() int {
		best := 0
		for i := 1; i < len(free); i++ {
			if free[i] < free[best] {
				best = i
			}
		}
		return best
	}
	for _, c := range s.WaitQ.Items() {
		i := earliest()
		free[i] += s.params.ChargeTimeMinutes(c.BatteryInitial, c.TargetChargeLevel, classes[i])
	}
	return math.Max(0, free[earliest()]-at)
}

// Utilization returns busy minutes of class divided by elapsed minutes.
func (s *ChargingStation) Utilization(class ChargerClass, elapsed float64) float64 {
	if elapsed <= 0 {
		return 0
	}
	slot := &s.chargers[class]
	busy := slot.BusyMinutes
	if slot.Busy() {
		busy += elapsed - slot.SessionStart
	}
	return busy / elapsed
}
