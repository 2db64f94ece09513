package bus

import "fmt"

// Config groups the fixed physical parameters of a bus-route simulation.
// Traffic speed and per-stop passenger rates vary per run and live in Inputs.
type Config struct {
	TimeStep    float64 // integration step in seconds (must be > 0)
	Horizon     float64 // total simulated time in seconds (must be > 0)
	NumStops    int     // stops along the route, excluding the depot (must be > 0)
	StopSpacing float64 // distance between consecutive stops in meters (must be > 0)
	NumBuses    int     // buses dispatched from the depot (must be > 0)
	Headway     float64 // seconds between consecutive dispatches (must be > 0)
	BurnIn      float64 // seconds before the first dispatch, letting stops fill (>= 0)
	BoardTime   float64 // dwell seconds per boarding passenger (>= 0)
	AlightTime  float64 // dwell seconds per alighting passenger (>= 0)
	Accel       float64 // acceleration and braking magnitude in m/s^2 (must be > 0)
}

// NewConfig constructs a Config with the field order matching the struct.
func NewConfig(timeStep, horizon float64, numStops int, stopSpacing float64, numBuses int, headway, burnIn, boardTime, alightTime, accel float64) Config {
	return Config{
		TimeStep:    timeStep,
		Horizon:     horizon,
		NumStops:    numStops,
		StopSpacing: stopSpacing,
		NumBuses:    numBuses,
		Headway:     headway,
		BurnIn:      burnIn,
		BoardTime:   boardTime,
		AlightTime:  alightTime,
		Accel:       accel,
	}
}

// DefaultConfig is a small route that completes well inside its horizon
// at moderate traffic speeds.
func DefaultConfig() Config {
	return Config{
		TimeStep:    0.5,
		Horizon:     3600,
		NumStops:    10,
		StopSpacing: 500,
		NumBuses:    4,
		Headway:     120,
		BurnIn:      300,
		BoardTime:   2.0,
		AlightTime:  1.5,
		Accel:       1.2,
	}
}

// Validate fails fast on non-positive physical quantities.
func (c Config) Validate() error {
	switch {
	case c.TimeStep <= 0:
		return fmt.Errorf("bus config: time step must be positive, got %v", c.TimeStep)
	case c.Horizon <= 0:
		return fmt.Errorf("bus config: horizon must be positive, got %v", c.Horizon)
	case c.NumStops <= 0:
		return fmt.Errorf("bus config: stop count must be positive, got %d", c.NumStops)
	case c.StopSpacing <= 0:
		return fmt.Errorf("bus config: stop spacing must be positive, got %v", c.StopSpacing)
	case c.NumBuses <= 0:
		return fmt.Errorf("bus config: bus count must be positive, got %d", c.NumBuses)
	case c.Headway <= 0:
		return fmt.Errorf("bus config: headway must be positive, got %v", c.Headway)
	case c.BurnIn < 0:
		return fmt.Errorf("bus config: burn-in must be non-negative, got %v", c.BurnIn)
	case c.BoardTime < 0:
		return fmt.Errorf("bus config: boarding time must be non-negative, got %v", c.BoardTime)
	case c.AlightTime < 0:
		return fmt.Errorf("bus config: alighting time must be non-negative, got %v", c.AlightTime)
	case c.Accel <= 0:
		return fmt.Errorf("bus config: acceleration must be positive, got %v", c.Accel)
	}
	return nil
}

// Inputs are the per-run parameters of a simulation.
type Inputs struct {
	TrafficSpeed float64   // cruise speed cap in m/s (must be > 0)
	ArrivalRates []float64 // passenger arrivals per second per stop (len NumStops, >= 0 each)
	AlightFracs  []float64 // fraction of onboard passengers alighting per stop (len NumStops, in [0, 1])
}

// Validate checks the inputs against the config's stop count.
func (in Inputs) Validate(cfg Config) error {
	if in.TrafficSpeed <= 0 {
		return fmt.Errorf("bus inputs: traffic speed must be positive, got %v", in.TrafficSpeed)
	}
	if len(in.ArrivalRates) != cfg.NumStops {
		return fmt.Errorf("bus inputs: %d arrival rates for %d stops", len(in.ArrivalRates), cfg.NumStops)
	}
	if len(in.AlightFracs) != cfg.NumStops {
		return fmt.Errorf("bus inputs: %d alighting fractions for %d stops", len(in.AlightFracs), cfg.NumStops)
	}
	for i, r := range in.ArrivalRates {
		if r < 0 {
			return fmt.Errorf("bus inputs: arrival rate at stop %d must be non-negative, got %v", i, r)
		}
	}
	for i, f := range in.AlightFracs {
		if f < 0 || f > 1 {
			return fmt.Errorf("bus inputs: alighting fraction at stop %d must be in [0, 1], got %v", i, f)
		}
	}
	return nil
}

// UniformInputs builds Inputs with the same arrival rate and alighting
// fraction at every stop.
func UniformInputs(cfg Config, trafficSpeed, arrivalRate, alightFrac float64) Inputs {
	rates := make([]float64, cfg.NumStops)
	fracs := make([]float64, cfg.NumStops)
	for i := range rates {
		rates[i] = arrivalRate
		fracs[i] = alightFrac
	}
	return Inputs{TrafficSpeed: trafficSpeed, ArrivalRates: rates, AlightFracs: fracs}
}

// Options select which auxiliary outputs a run records.
type Options struct {
	ArrivalLog    bool // per-bus final-stop arrival times
	PositionTrace bool // per-bus position over time
	StateTrace    bool // per-bus state over time
}
