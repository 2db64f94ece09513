package bus

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gp-emu/gp-emu/emu"
)

func TestNewArrivalAdapter_Validation(t *testing.T) {
	cfg := DefaultConfig()

	_, err := NewArrivalAdapter(cfg, -0.1, 0.3, -1)
	assert.Error(t, err, "negative arrival rate")

	_, err = NewArrivalAdapter(cfg, 0.1, 1.5, -1)
	assert.Error(t, err, "alighting fraction above one")

	_, err = NewArrivalAdapter(cfg, 0.1, 0.3, cfg.NumBuses)
	assert.Error(t, err, "tracked bus out of range")

	bad := cfg
	bad.Horizon = 0
	_, err = NewArrivalAdapter(bad, 0.1, 0.3, -1)
	assert.Error(t, err, "invalid config")
}

func TestArrivalAdapter_Simulate(t *testing.T) {
	a, err := NewArrivalAdapter(quietRoute(), 0.02, 0.3, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Dims())

	got, err := a.Simulate([]float64{20}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Greater(t, got, 0.0)

	_, err = a.Simulate([]float64{20, 30}, rand.New(rand.NewSource(1)))
	assert.Error(t, err, "dimension mismatch")
}

func TestArrivalAdapter_NoArrivalIsSentinelError(t *testing.T) {
	cfg := quietRoute()
	cfg.Horizon = 120
	a, err := NewArrivalAdapter(cfg, 0, 0, -1)
	require.NoError(t, err)

	_, err = a.Simulate([]float64{10}, rand.New(rand.NewSource(2)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoArrival))
}

func TestRegisteredFactory_Defaults(t *testing.T) {
	sim, err := emu.NewSimulator("bus", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sim.Dims())

	got, err := sim.Simulate([]float64{25}, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	assert.Greater(t, got, 0.0)
}

func TestRegisteredFactory_ConfigOverrides(t *testing.T) {
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("num_stops: 4\nnum_buses: 1\ntracked_bus: 0\n"), &node))

	sim, err := emu.NewSimulator("bus", &node)
	require.NoError(t, err)

	a, ok := sim.(*ArrivalAdapter)
	require.True(t, ok)
	assert.Equal(t, 4, a.Config.NumStops)
	assert.Equal(t, 1, a.Config.NumBuses)
	assert.Equal(t, 0, a.TrackedBus)
	// untouched fields keep their defaults
	assert.Equal(t, DefaultConfig().StopSpacing, a.Config.StopSpacing)
}

func TestRegisteredFactory_InvalidConfig(t *testing.T) {
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("num_stops: -2\n"), &node))

	_, err := emu.NewSimulator("bus", &node)
	assert.Error(t, err)
}
