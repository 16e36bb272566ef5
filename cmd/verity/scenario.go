package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/verity-ml/verity/internal/check"
)

// Scenario is one verification configuration: a shape, an epsilon, a
// compute precision, and optional per-kernel tolerance overrides.
type Scenario struct {
	Shape      []int                      `yaml:"shape"`
	Epsilon    float64                    `yaml:"epsilon"`
	Compute    string                     `yaml:"compute"`
	Tolerances map[string]check.Tolerance `yaml:"tolerances"`
}

// ScenarioFile is the YAML layout accepted by `verity verify --scenarios`.
type ScenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// loadScenarios reads and sanity-checks a scenario file.
func loadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenarios: %w", err)
	}

	var file ScenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}
	if len(file.Scenarios) == 0 {
		return nil, fmt.Errorf("scenarios file %s contains no scenarios", path)
	}

	for i := range file.Scenarios {
		if err := file.Scenarios[i].normalize(); err != nil {
			return nil, fmt.Errorf("scenario %d: %w", i, err)
		}
	}
	return file.Scenarios, nil
}

// normalize applies defaults and rejects configurations the harness cannot
// express. Unsupported *shapes* are not rejected here: feeding them through
// is exactly how the capability check gets exercised.
func (s *Scenario) normalize() error {
	if s.Compute == "" {
		s.Compute = "float32"
	}
	if s.Compute != "float32" && s.Compute != "float64" {
		return fmt.Errorf("unknown compute precision %q", s.Compute)
	}
	if len(s.Shape) == 0 {
		return fmt.Errorf("missing shape")
	}
	if s.Epsilon < 0 {
		return fmt.Errorf("negative epsilon %g", s.Epsilon)
	}
	return nil
}

// tolerance resolves the parity target for a kernel, preferring the
// scenario's override.
func (s *Scenario) tolerance(kernel string) (check.Tolerance, error) {
	if tol, ok := s.Tolerances[kernel]; ok {
		return tol, nil
	}
	return check.KernelTolerance(kernel)
}
