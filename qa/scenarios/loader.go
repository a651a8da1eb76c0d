// Package scenarios runs declarative dispatch scenarios described in yaml
// against an assembled system and checks the expected outcome.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/hems/core/system"
)

// Range bounds a summary value, both ends inclusive.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// Expected lists what a scenario asserts. Empty fields are not checked.
type Expected struct {
	Components  []string         `yaml:"components,omitempty"`
	Grid        []float64        `yaml:"grid,omitempty"`
	Tolerance   float64          `yaml:"tolerance,omitempty"`
	FinalBranch string           `yaml:"final_branch,omitempty"`
	Summary     map[string]Range `yaml:"summary,omitempty"`
}

type Scenario struct {
	Name        string               `yaml:"name"`
	Description string               `yaml:"description,omitempty"`
	Mode        string               `yaml:"mode,omitempty"`
	Timestep    float64              `yaml:"timestep"`
	Steps       int                  `yaml:"steps"`
	System      system.Config        `yaml:"system"`
	Profiles    map[string][]float64 `yaml:"profiles"`
	Plan        map[string][]float64 `yaml:"plan,omitempty"`
	Expected    Expected             `yaml:"expected"`
}

// Load reads a scenario file. Component parameters not given keep their
// defaults; unknown keys are rejected.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sc := Scenario{System: system.DefaultConfig()}
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario name required", path)
	}
	if sc.Timestep <= 0 || sc.Steps <= 0 {
		return nil, fmt.Errorf("%s: timestep and steps must be positive", path)
	}
	return &sc, nil
}
