package emu

import (
	"fmt"
	"math"
	"math/rand"

	"gopkg.in/yaml.v3"
)

// Simulator maps one design point to one scalar output. Stochastic
// simulators draw from the injected RNG only, never from global state.
type Simulator interface {
	// Dims returns the expected input point length.
	Dims() int
	// Simulate runs the simulator once at the given point.
	Simulate(point []float64, rng *rand.Rand) (float64, error)
}

// SimulatorFactory constructs a Simulator from its raw YAML config block.
type SimulatorFactory func(cfg *yaml.Node) (Simulator, error)

// simulatorFactories maps simulator names to factories. Sub-packages
// (emu/bus, emu/projectile) register themselves via init().
var simulatorFactories = map[string]SimulatorFactory{}

// RegisterSimulator registers a named simulator factory. Called from
// sub-package init() functions; panics on duplicate names.
func RegisterSimulator(name string, factory SimulatorFactory) {
	if _, ok := simulatorFactories[name]; ok {
		panic(fmt.Sprintf("simulator %q registered twice", name))
	}
	simulatorFactories[name] = factory
}

// NewSimulator constructs a registered simulator by name.
func NewSimulator(name string, cfg *yaml.Node) (Simulator, error) {
	factory, ok := simulatorFactories[name]
	if !ok {
		return nil, fmt.Errorf("unknown simulator %q", name)
	}
	return factory(cfg)
}

// === Input ===

// Input is a tagged-variant simulator input: either a full point vector,
// or a sampled point with exactly one extra dimension pinned to a fixed
// value. Constructed only via FullPoint or PinnedPoint, so ambiguous
// combinations (a full point plus a fixed scalar for the same dimension)
// are unrepresentable.
type Input struct {
	point  []float64
	pinDim int
	pinVal float64
	pinned bool
}

// FullPoint builds an Input from a complete point vector.
func FullPoint(point []float64) Input {
	return Input{point: point}
}

// PinnedPoint builds an Input from a sampled sub-point plus one pinned
// dimension. The pinned value is inserted at index dim of the resolved
// vector, shifting the sampled coordinates right of it.
func PinnedPoint(point []float64, dim int, value float64) Input {
	return Input{point: point, pinDim: dim, pinVal: value, pinned: true}
}

// Resolve returns the full point vector, validating the pin position.
func (in Input) Resolve() ([]float64, error) {
	if !in.pinned {
		out := make([]float64, len(in.point))
		copy(out, in.point)
		return out, nil
	}
	if in.pinDim < 0 || in.pinDim > len(in.point) {
		return nil, fmt.Errorf("pinned dimension %d out of range for %d sampled coordinates", in.pinDim, len(in.point))
	}
	out := make([]float64, 0, len(in.point)+1)
	out = append(out, in.point[:in.pinDim]...)
	out = append(out, in.pinVal)
	out = append(out, in.point[in.pinDim:]...)
	return out, nil
}

// === NoisyAdapter ===

// NoisyAdapter wraps a Simulator and perturbs its output with zero-mean
// Gaussian noise. With a changepoint c > 0, the noise standard deviation
// scales by |raw|/c once the raw output exceeds c, so noise grows with
// output magnitude (heteroscedastic). ErrorSigma zero disables noise.
type NoisyAdapter struct {
	sim              Simulator
	errorSigma       float64
	errorChangepoint float64
}

// NewNoisyAdapter validates and constructs a NoisyAdapter.
func NewNoisyAdapter(sim Simulator, errorSigma, errorChangepoint float64) (*NoisyAdapter, error) {
	if sim == nil {
		return nil, fmt.Errorf("noisy adapter requires a simulator")
	}
	if errorSigma < 0 {
		return nil, fmt.Errorf("error sigma must be non-negative, got %v", errorSigma)
	}
	if errorChangepoint < 0 {
		return nil, fmt.Errorf("error changepoint must be non-negative, got %v", errorChangepoint)
	}
	return &NoisyAdapter{sim: sim, errorSigma: errorSigma, errorChangepoint: errorChangepoint}, nil
}

// Dims returns the wrapped simulator's input dimension.
func (a *NoisyAdapter) Dims() int {
	return a.sim.Dims()
}

// Simulate runs the wrapped simulator once and injects noise. The raw
// output is computed before any noise draw, so runs with ErrorSigma zero
// reproduce the wrapped simulator exactly.
func (a *NoisyAdapter) Simulate(point []float64, rng *rand.Rand) (float64, error) {
	raw, err := a.sim.Simulate(point, rng)
	if err != nil {
		return 0, err
	}
	if a.errorSigma == 0 {
		return raw, nil
	}
	sigma := a.errorSigma
	if a.errorChangepoint > 0 && math.Abs(raw) > a.errorChangepoint {
		sigma *= math.Abs(raw) / a.errorChangepoint
	}
	return raw + rng.NormFloat64()*sigma, nil
}
