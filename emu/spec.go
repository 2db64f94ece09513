package emu

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gp-emu/gp-emu/emu/gp"
)

// BoundSpec is the YAML shape of one sampling dimension.
type BoundSpec struct {
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

// ExperimentSpec is the top-level experiment configuration.
// Loaded from YAML via LoadExperimentSpec(path).
type ExperimentSpec struct {
	Seed int64 `yaml:"seed"`

	Simulator       string    `yaml:"simulator"` // registered name: "bus" or "projectile"
	SimulatorConfig yaml.Node `yaml:"simulator_config,omitempty"`

	Bounds       []BoundSpec `yaml:"bounds"`
	DesignPoints int         `yaml:"design_points"`
	Repeats      int         `yaml:"repeats,omitempty"` // 0 = 1 run per design point

	Kernel        string `yaml:"kernel,omitempty"` // rbf (default), matern52, matern32
	Nugget        string `yaml:"nugget,omitempty"` // none, adaptive (default), fit
	IncludeNugget bool   `yaml:"include_nugget,omitempty"`

	ErrorSigma       float64 `yaml:"error_sigma,omitempty"`
	ErrorChangepoint float64 `yaml:"error_changepoint,omitempty"`

	ValidationPoints  int `yaml:"validation_points"`
	ValidationRepeats int `yaml:"validation_repeats,omitempty"` // 0 = same as repeats

	Workers int `yaml:"workers,omitempty"` // fan-out goroutines; 0/1 = sequential
}

// LoadExperimentSpec reads and parses a YAML experiment spec. Unknown
// fields are rejected.
func LoadExperimentSpec(path string) (*ExperimentSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading experiment spec: %w", err)
	}
	var spec ExperimentSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing experiment spec: %w", err)
	}
	return &spec, nil
}

// Validate checks that all fields in the spec are valid, applying defaults
// for the omitted ones.
func (s *ExperimentSpec) Validate() error {
	if s.Simulator == "" {
		return fmt.Errorf("simulator name required")
	}
	if len(s.Bounds) == 0 {
		return fmt.Errorf("at least one bound required")
	}
	for i, b := range s.Bounds {
		if !(b.Lower < b.Upper) {
			return fmt.Errorf("bounds[%d]: lower (%v) must be < upper (%v)", i, b.Lower, b.Upper)
		}
	}
	if s.DesignPoints <= 0 {
		return fmt.Errorf("design_points must be positive, got %d", s.DesignPoints)
	}
	if s.Repeats == 0 {
		s.Repeats = 1
	}
	if s.Repeats < 0 {
		return fmt.Errorf("repeats must be positive, got %d", s.Repeats)
	}
	if s.Kernel == "" {
		s.Kernel = "rbf"
	}
	if _, err := gp.KernelByName(s.Kernel); err != nil {
		return err
	}
	policy, err := gp.ParseNuggetPolicy(s.Nugget)
	if err != nil {
		return err
	}
	s.Nugget = string(policy)
	if s.ErrorSigma < 0 {
		return fmt.Errorf("error_sigma must be non-negative, got %v", s.ErrorSigma)
	}
	if s.ErrorChangepoint < 0 {
		return fmt.Errorf("error_changepoint must be non-negative, got %v", s.ErrorChangepoint)
	}
	if s.ValidationPoints <= 0 {
		return fmt.Errorf("validation_points must be positive, got %d", s.ValidationPoints)
	}
	if s.ValidationRepeats == 0 {
		s.ValidationRepeats = s.Repeats
	}
	if s.ValidationRepeats < 0 {
		return fmt.Errorf("validation_repeats must be positive, got %d", s.ValidationRepeats)
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", s.Workers)
	}
	return nil
}

// simConfigNode returns the raw simulator config block, or nil when absent.
func (s *ExperimentSpec) simConfigNode() *yaml.Node {
	if s.SimulatorConfig.Kind == 0 {
		return nil
	}
	return &s.SimulatorConfig
}
