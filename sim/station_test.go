package sim

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestChargingStation_SingleFastCharger_QueuesFIFO(t *testing.T) {
	// GIVEN a station with only a fast charger and three 40%->80% cars
	// arriving at 5, 10, 15 (9 minutes each on 200 kW)
	st := newTestStation(t, 0, Position{}, "fast")
	cars := []*Car{
		newRoutedCar(1, 0, 40, 80),
		newRoutedCar(2, 0, 40, 80),
		newRoutedCar(3, 0, 40, 80),
	}

	// WHEN the first car arrives
	s1, ok := st.Arrive(cars[0], 5)

	// THEN it charges immediately until 14
	if !ok || s1.Class != ChargerFast || !approxEqual(s1.End, 14) {
		t.Fatalf("first session = %+v ok=%v, want fast until 14", s1, ok)
	}

	// WHEN the next two arrive while the charger is busy
	if _, ok := st.Arrive(cars[1], 10); ok {
		t.Fatal("second car should queue")
	}
	if _, ok := st.Arrive(cars[2], 15); ok {
		t.Fatal("third car should queue")
	}
	if st.QueueLength() != 2 || st.PeakQueueLength != 2 {
		t.Fatalf("queue=%d peak=%d, want 2/2", st.QueueLength(), st.PeakQueueLength)
	}

	// THEN departures chain on the same charger in FIFO order
	departed, next, started := st.Depart(ChargerFast, 14)
	if departed != cars[0] || !started || next.Car != cars[1] || !approxEqual(next.End, 23) {
		t.Fatalf("depart@14: departed=%v next=%+v", departed.ID, next)
	}
	departed, next, started = st.Depart(ChargerFast, 23)
	if departed != cars[1] || !started || next.Car != cars[2] || !approxEqual(next.End, 32) {
		t.Fatalf("depart@23: departed=%v next=%+v", departed.ID, next)
	}
	departed, _, started = st.Depart(ChargerFast, 32)
	if departed != cars[2] || started {
		t.Fatalf("depart@32: departed=%v started=%v", departed.ID, started)
	}

	wantWaits := []float64{0, 4, 8}
	for i, c := range cars {
		if !approxEqual(c.TimeInQueue, wantWaits[i]) {
			t.Errorf("car %d TimeInQueue = %v, want %v", c.ID, c.TimeInQueue, wantWaits[i])
		}
		if c.State != CarStateDeparted {
			t.Errorf("car %d state = %s, want departed", c.ID, c.State)
		}
	}
	if st.Arrivals != 3 || st.Departures != 3 || st.Occupancy() != 0 {
		t.Errorf("arrivals=%d departures=%d occupancy=%d", st.Arrivals, st.Departures, st.Occupancy())
	}
}

func TestChargingStation_Arrive_PrefersFastThenSlow(t *testing.T) {
	st := newTestStation(t, 0, Position{})

	first, ok := st.Arrive(newRoutedCar(1, 0, 40, 80), 0)
	if !ok || first.Class != ChargerFast {
		t.Fatalf("first car got %+v, want fast", first)
	}
	second, ok := st.Arrive(newRoutedCar(2, 0, 40, 80), 1)
	if !ok || second.Class != ChargerSlow {
		t.Fatalf("second car got %+v, want slow", second)
	}
	// 30 kWh at 4.8 kW = 375 minutes
	if !approxEqual(second.End-second.Start, 375) {
		t.Errorf("slow session length = %v, want 375", second.End-second.Start)
	}
	if _, ok := st.Arrive(newRoutedCar(3, 0, 40, 80), 2); ok {
		t.Error("third car should queue with both chargers busy")
	}
	if !st.FastBusy() || !st.SlowBusy() || st.InService() != 2 {
		t.Error("both chargers should be busy")
	}
}

func TestChargingStation_SlowOnly(t *testing.T) {
	st := newTestStation(t, 0, Position{}, "slow")
	s, ok := st.Arrive(newRoutedCar(1, 0, 40, 80), 0)
	if !ok || s.Class != ChargerSlow {
		t.Fatalf("session = %+v, want slow", s)
	}
	if st.Charger(ChargerFast).Installed {
		t.Error("fast charger should not be installed")
	}
}

func TestChargingStation_Conservation(t *testing.T) {
	// GIVEN a two-charger station fed a stream of arrivals and departures
	st := newTestStation(t, 0, Position{})
	var sessions []ChargeSession
	for i := 0; i < 6; i++ {
		if s, ok := st.Arrive(newRoutedCar(CarID(i), 0, 40, 60+float64(i)), float64(i)); ok {
			sessions = append(sessions, s)
		}
		// THEN arrivals - departures always equals occupancy
		if st.Arrivals-st.Departures != st.Occupancy() {
			t.Fatalf("after arrival %d: arrivals=%d departures=%d occupancy=%d", i, st.Arrivals, st.Departures, st.Occupancy())
		}
	}
	for len(sessions) > 0 {
		s := sessions[0]
		sessions = sessions[1:]
		_, next, started := st.Depart(s.Class, s.End)
		if started {
			sessions = append(sessions, next)
		}
		if st.Arrivals-st.Departures != st.Occupancy() {
			t.Fatalf("after departure: arrivals=%d departures=%d occupancy=%d", st.Arrivals, st.Departures, st.Occupancy())
		}
	}
	if st.Occupancy() != 0 || st.Departures != 6 {
		t.Errorf("final occupancy=%d departures=%d", st.Occupancy(), st.Departures)
	}
}

func TestChargingStation_Arrive_WrongStationPanics(t *testing.T) {
	st := newTestStation(t, 0, Position{})
	defer func() {
		if recover() == nil {
			t.Error("expected panic for car routed elsewhere")
		}
	}()
	st.Arrive(newRoutedCar(1, 3, 40, 80), 0)
}

func TestChargingStation_Depart_IdlePanics(t *testing.T) {
	st := newTestStation(t, 0, Position{})
	defer func() {
		if recover() == nil {
			t.Error("expected panic departing an idle charger")
		}
	}()
	st.Depart(ChargerSlow, 1)
}

func TestChargingStation_EstimatedWait(t *testing.T) {
	// GIVEN a fast-only station busy until 14
	st := newTestStation(t, 0, Position{}, "fast")
	if w := st.EstimatedWait(3); w != 0 {
		t.Errorf("idle station EstimatedWait = %v, want 0", w)
	}
	st.Arrive(newRoutedCar(1, 0, 40, 80), 5)

	// THEN a car at 10 would wait until the charger frees
	if w := st.EstimatedWait(10); !approxEqual(w, 4) {
		t.Errorf("EstimatedWait(10) = %v, want 4", w)
	}

	// WHEN another 9-minute car queues
	st.Arrive(newRoutedCar(2, 0, 40, 80), 10)

	// THEN the estimate includes its session
	if w := st.EstimatedWait(10); !approxEqual(w, 13) {
		t.Errorf("EstimatedWait(10) with one queued = %v, want 13", w)
	}
	// AND an arrival after the charger frees still counts the queue
	if w := st.EstimatedWait(20); !approxEqual(w, 3) {
		t.Errorf("EstimatedWait(20) = %v, want 3", w)
	}
}

func TestChargingStation_Utilization(t *testing.T) {
	st := newTestStation(t, 0, Position{}, "fast")
	st.Arrive(newRoutedCar(1, 0, 40, 80), 0)
	st.Depart(ChargerFast, 9)
	if u := st.Utilization(ChargerFast, 18); !approxEqual(u, 0.5) {
		t.Errorf("Utilization = %v, want 0.5", u)
	}
	if u := st.Utilization(ChargerSlow, 18); u != 0 {
		t.Errorf("slow Utilization = %v, want 0", u)
	}
	if u := st.Utilization(ChargerFast, 0); u != 0 {
		t.Errorf("Utilization with zero elapsed = %v", u)
	}
}

func TestParseChargerSet(t *testing.T) {
	tests := []struct {
		name      string
		in        []string
		fast      bool
		slow      bool
		wantError bool
	}{
		{"empty installs both", nil, true, true, false},
		{"fast only", []string{"fast"}, true, false, false},
		{"case insensitive", []string{" Slow "}, false, true, false},
		{"duplicate", []string{"fast", "fast"}, false, false, true},
		{"unknown", []string{"turbo"}, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseChargerSet(tt.in)
			if tt.wantError {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got[ChargerFast] != tt.fast || got[ChargerSlow] != tt.slow {
				t.Errorf("got %v, want fast=%v slow=%v", got, tt.fast, tt.slow)
			}
		})
	}
}

func TestNewChargingStation_DefaultName(t *testing.T) {
	st := newTestStation(t, 2, Position{})
	if st.Name != "station_3" {
		t.Errorf("Name = %q, want station_3", st.Name)
	}
}

func TestChargingStation_Arrive_LogsQueueContents(t *testing.T) {
	// GIVEN debug logging captured by a hook
	hook := test.NewGlobal()
	defer hook.Reset()
	level := logrus.GetLevel()
	logrus.SetLevel(logrus.DebugLevel)
	defer logrus.SetLevel(level)

	// WHEN two cars queue behind a busy fast-only station
	st := newTestStation(t, 0, Position{}, "fast")
	st.Arrive(newRoutedCar(1, 0, 40, 80), 0)
	st.Arrive(newRoutedCar(2, 0, 40, 80), 1)
	st.Arrive(newRoutedCar(3, 0, 40, 80), 2)

	// THEN the last queued message lists the queue head first
	var last string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.DebugLevel {
			last = e.Message
		}
	}
	if last != "station station_1: car 3 queued [2 3]" {
		t.Errorf("last debug message = %q", last)
	}
}
