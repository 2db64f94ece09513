// Package bus implements a small agent-based bus-route simulator: buses
// dispatched at fixed headways drive a linear route of stops, dwelling to
// board Poisson-arriving passengers and let others alight, with cruise
// speed capped by the surrounding traffic. Its registered adapter exposes
// the final-stop arrival time as a scalar emulation target.
package bus

import (
	"fmt"
	"math"
	"math/rand"
)

// BusState is one bus's phase at a point in simulated time.
type BusState int8

const (
	StatePending  BusState = iota // not yet dispatched
	StateDriving                  // moving between stops
	StateDwelling                 // stopped for boarding/alighting
	StateDone                     // past the final stop
)

// Arrival is a final-stop arrival record. OK stays false for buses that
// never reach the final stop within the horizon; callers get the explicit
// missing value, never a clamped or placeholder time.
type Arrival struct {
	Time float64
	OK   bool
}

// Model is the result of one simulation run.
type Model struct {
	Config Config
	Inputs Inputs

	// EndTime and TimeStep describe the recorded trace axis.
	EndTime  float64
	TimeStep float64

	// Times and Trajectories are populated when Options.PositionTrace is
	// set: Trajectories[b][k] is bus b's position at Times[k].
	Times        []float64
	Trajectories [][]float64

	// States is populated when Options.StateTrace is set.
	States [][]BusState

	// ArrivalLog is populated when Options.ArrivalLog is set; index is the
	// dispatch order. ArrivalTime serves the same records either way.
	ArrivalLog []Arrival

	arrivals []Arrival
}

// ArrivalTime returns bus b's arrival time at the final stop. The second
// return is false when the bus never arrived within the horizon.
func (m *Model) ArrivalTime(b int) (float64, bool) {
	if b < 0 || b >= len(m.arrivals) {
		return 0, false
	}
	a := m.arrivals[b]
	return a.Time, a.OK
}

// agent is the per-bus mutable simulation state.
type agent struct {
	state    BusState
	pos      float64
	speed    float64
	nextStop int     // index of the next stop to serve
	onboard  int     // passengers currently on the bus
	dwell    float64 // remaining dwell seconds
}

// Run executes one simulation and returns the model with the auxiliary
// outputs selected in opt. All randomness (passenger arrivals, alighting
// draws) comes from the injected RNG.
func Run(cfg Config, in Inputs, opt Options, rng *rand.Rand) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := in.Validate(cfg); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("bus: run requires a random source")
	}

	m := &Model{
		Config:   cfg,
		Inputs:   in,
		TimeStep: cfg.TimeStep,
		arrivals: make([]Arrival, cfg.NumBuses),
	}

	buses := make([]agent, cfg.NumBuses)
	waiting := make([]int, cfg.NumStops)
	steps := int(math.Ceil(cfg.Horizon / cfg.TimeStep))

	if opt.PositionTrace {
		m.Times = make([]float64, 0, steps)
		m.Trajectories = make([][]float64, cfg.NumBuses)
		for b := range m.Trajectories {
			m.Trajectories[b] = make([]float64, 0, steps)
		}
	}
	if opt.StateTrace {
		m.States = make([][]BusState, cfg.NumBuses)
		for b := range m.States {
			m.States[b] = make([]BusState, 0, steps)
		}
	}

	stopPos := func(i int) float64 { return float64(i+1) * cfg.StopSpacing }
	finalStop := cfg.NumStops - 1
	dt := cfg.TimeStep

	for k := 0; k < steps; k++ {
		t := float64(k) * dt

		// Passengers accumulate at stops throughout, including burn-in.
		for s := range waiting {
			waiting[s] += poisson(rng, in.ArrivalRates[s]*dt)
		}

		for b := range buses {
			bus := &buses[b]
			switch bus.state {
			case StatePending:
				if t >= cfg.BurnIn+float64(b)*cfg.Headway {
					bus.state = StateDriving
				}

			case StateDriving:
				bus.speed = math.Min(bus.speed+cfg.Accel*dt, in.TrafficSpeed)
				bus.pos += bus.speed * dt
				if bus.pos >= stopPos(bus.nextStop) {
					bus.pos = stopPos(bus.nextStop)
					bus.speed = 0
					if bus.nextStop == finalStop {
						bus.state = StateDone
						m.arrivals[b] = Arrival{Time: t + dt, OK: true}
						break
					}
					bus.beginDwell(cfg, in, waiting, rng)
				}

			case StateDwelling:
				bus.dwell -= dt
				if bus.dwell <= 0 {
					bus.dwell = 0
					bus.nextStop++
					bus.state = StateDriving
				}

			case StateDone:
				// parked past the final stop
			}
		}

		if opt.PositionTrace {
			m.Times = append(m.Times, t)
			for b := range buses {
				m.Trajectories[b] = append(m.Trajectories[b], buses[b].pos)
			}
		}
		if opt.StateTrace {
			for b := range buses {
				m.States[b] = append(m.States[b], buses[b].state)
			}
		}
		m.EndTime = t
	}

	if opt.ArrivalLog {
		m.ArrivalLog = make([]Arrival, len(m.arrivals))
		copy(m.ArrivalLog, m.arrivals)
	}
	return m, nil
}

// beginDwell serves the stop the bus just reached: alighting draws first,
// then everyone waiting boards. Dwell time is linear in both counts.
func (a *agent) beginDwell(cfg Config, in Inputs, waiting []int, rng *rand.Rand) {
	s := a.nextStop
	alighting := binomial(rng, a.onboard, in.AlightFracs[s])
	boarding := waiting[s]
	waiting[s] = 0
	a.onboard += boarding - alighting
	a.dwell = float64(alighting)*cfg.AlightTime + float64(boarding)*cfg.BoardTime
	a.state = StateDwelling
	if a.dwell == 0 {
		// nobody to serve: continue immediately on the next step
		a.dwell = math.SmallestNonzeroFloat64
	}
}

// poisson draws from Poisson(lambda) via Knuth's method. Only suitable for
// the small per-step rates used here.
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}

// binomial draws the number of successes in n Bernoulli(p) trials.
func binomial(rng *rand.Rand, n int, p float64) int {
	if n <= 0 || p <= 0 {
		return 0
	}
	if p >= 1 {
		return n
	}
	count := 0
	for i := 0; i < n; i++ {
		if rng.Float64() < p {
			count++
		}
	}
	return count
}
