// Package projectile implements a toy stochastic simulator: a point mass
// launched with quadratic air drag, integrated with classical RK4 until
// ground impact. Its registered adapter emulates downrange distance over
// the point [log10 drag coefficient, initial speed].
package projectile

import (
	"fmt"
	"math"
	"math/rand"

	"gopkg.in/yaml.v3"

	"github.com/gp-emu/gp-emu/emu"
)

// Config groups the fixed parameters of a launch.
type Config struct {
	Dt             float64 // integration step in seconds (must be > 0)
	Gravity        float64 // m/s^2 (must be > 0)
	Mass           float64 // kg (must be > 0)
	LaunchAngleDeg float64 // nominal launch angle, degrees in (0, 90)
	AngleJitterDeg float64 // stddev of per-run angle perturbation (>= 0; 0 = deterministic)
	InitialHeight  float64 // launch height in meters (>= 0)
	MaxTime        float64 // integration horizon in seconds (must be > 0)
}

// DefaultConfig launches at 45 degrees with a one-degree stochastic jitter.
func DefaultConfig() Config {
	return Config{
		Dt:             0.01,
		Gravity:        9.81,
		Mass:           1.0,
		LaunchAngleDeg: 45,
		AngleJitterDeg: 1.0,
		InitialHeight:  0,
		MaxTime:        120,
	}
}

// Validate fails fast on non-positive physical quantities.
func (c Config) Validate() error {
	switch {
	case c.Dt <= 0:
		return fmt.Errorf("projectile config: dt must be positive, got %v", c.Dt)
	case c.Gravity <= 0:
		return fmt.Errorf("projectile config: gravity must be positive, got %v", c.Gravity)
	case c.Mass <= 0:
		return fmt.Errorf("projectile config: mass must be positive, got %v", c.Mass)
	case c.LaunchAngleDeg <= 0 || c.LaunchAngleDeg >= 90:
		return fmt.Errorf("projectile config: launch angle must be in (0, 90) degrees, got %v", c.LaunchAngleDeg)
	case c.AngleJitterDeg < 0:
		return fmt.Errorf("projectile config: angle jitter must be non-negative, got %v", c.AngleJitterDeg)
	case c.InitialHeight < 0:
		return fmt.Errorf("projectile config: initial height must be non-negative, got %v", c.InitialHeight)
	case c.MaxTime <= 0:
		return fmt.Errorf("projectile config: max time must be positive, got %v", c.MaxTime)
	}
	return nil
}

// state is the RK4 integration state: position and velocity in 2-D.
type state struct {
	x, y, vx, vy float64
}

// deriv returns the state derivative under gravity and quadratic drag
// with coefficient k (N·s²/m²).
func deriv(s state, k, mass, gravity float64) state {
	speed := math.Hypot(s.vx, s.vy)
	return state{
		x:  s.vx,
		y:  s.vy,
		vx: -k / mass * speed * s.vx,
		vy: -gravity - k/mass*speed*s.vy,
	}
}

func add(a, b state, h float64) state {
	return state{a.x + h*b.x, a.y + h*b.y, a.vx + h*b.vx, a.vy + h*b.vy}
}

// Range integrates the trajectory and returns the downrange distance at
// ground impact, interpolating the final step's zero crossing. speed is
// the launch speed in m/s, dragCoeff the quadratic drag coefficient.
func Range(cfg Config, dragCoeff, speed, angleDeg float64) (float64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if speed <= 0 {
		return 0, fmt.Errorf("projectile: launch speed must be positive, got %v", speed)
	}
	if dragCoeff < 0 {
		return 0, fmt.Errorf("projectile: drag coefficient must be non-negative, got %v", dragCoeff)
	}

	angle := angleDeg * math.Pi / 180
	s := state{
		x:  0,
		y:  cfg.InitialHeight,
		vx: speed * math.Cos(angle),
		vy: speed * math.Sin(angle),
	}

	h := cfg.Dt
	for t := 0.0; t < cfg.MaxTime; t += h {
		k1 := deriv(s, dragCoeff, cfg.Mass, cfg.Gravity)
		k2 := deriv(add(s, k1, h/2), dragCoeff, cfg.Mass, cfg.Gravity)
		k3 := deriv(add(s, k2, h/2), dragCoeff, cfg.Mass, cfg.Gravity)
		k4 := deriv(add(s, k3, h), dragCoeff, cfg.Mass, cfg.Gravity)

		next := state{
			x:  s.x + h/6*(k1.x+2*k2.x+2*k3.x+k4.x),
			y:  s.y + h/6*(k1.y+2*k2.y+2*k3.y+k4.y),
			vx: s.vx + h/6*(k1.vx+2*k2.vx+2*k3.vx+k4.vx),
			vy: s.vy + h/6*(k1.vy+2*k2.vy+2*k3.vy+k4.vy),
		}

		if next.y < 0 && next.vy < 0 {
			// linear interpolation of the ground crossing within the step
			frac := s.y / (s.y - next.y)
			return s.x + frac*(next.x-s.x), nil
		}
		s = next
	}
	return 0, fmt.Errorf("projectile: no ground impact within %v seconds", cfg.MaxTime)
}

// RangeAdapter exposes Range as a two-dimensional emulation target over
// [log10 drag coefficient, launch speed]. The log scale keeps Latin
// hypercube designs from crowding the near-vacuum regime.
type RangeAdapter struct {
	Config Config
}

// NewRangeAdapter validates and constructs a RangeAdapter.
func NewRangeAdapter(cfg Config) (*RangeAdapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &RangeAdapter{Config: cfg}, nil
}

// Dims returns 2: [log10 drag, launch speed].
func (a *RangeAdapter) Dims() int { return 2 }

// Simulate runs one launch. With AngleJitterDeg > 0 the launch angle is
// perturbed by a Gaussian draw from the injected RNG.
func (a *RangeAdapter) Simulate(point []float64, rng *rand.Rand) (float64, error) {
	if len(point) != 2 {
		return 0, fmt.Errorf("projectile adapter: want 2-dimensional point, got %d", len(point))
	}
	angle := a.Config.LaunchAngleDeg
	if a.Config.AngleJitterDeg > 0 {
		if rng == nil {
			return 0, fmt.Errorf("projectile adapter: angle jitter requires a random source")
		}
		angle += rng.NormFloat64() * a.Config.AngleJitterDeg
	}
	return Range(a.Config, math.Pow(10, point[0]), point[1], angle)
}

// adapterSpec is the YAML shape of the "projectile" simulator_config block.
type adapterSpec struct {
	Dt             float64 `yaml:"dt"`
	Gravity        float64 `yaml:"gravity"`
	Mass           float64 `yaml:"mass"`
	LaunchAngleDeg float64 `yaml:"launch_angle_deg"`
	AngleJitterDeg float64 `yaml:"angle_jitter_deg"`
	InitialHeight  float64 `yaml:"initial_height"`
	MaxTime        float64 `yaml:"max_time"`
}

func init() {
	emu.RegisterSimulator("projectile", func(cfg *yaml.Node) (emu.Simulator, error) {
		d := DefaultConfig()
		spec := adapterSpec{
			Dt:             d.Dt,
			Gravity:        d.Gravity,
			Mass:           d.Mass,
			LaunchAngleDeg: d.LaunchAngleDeg,
			AngleJitterDeg: d.AngleJitterDeg,
			InitialHeight:  d.InitialHeight,
			MaxTime:        d.MaxTime,
		}
		if cfg != nil {
			if err := cfg.Decode(&spec); err != nil {
				return nil, fmt.Errorf("projectile adapter: invalid config: %w", err)
			}
		}
		return NewRangeAdapter(Config{
			Dt:             spec.Dt,
			Gravity:        spec.Gravity,
			Mass:           spec.Mass,
			LaunchAngleDeg: spec.LaunchAngleDeg,
			AngleJitterDeg: spec.AngleJitterDeg,
			InitialHeight:  spec.InitialHeight,
			MaxTime:        spec.MaxTime,
		})
	})
}
