package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/h2o/internal/config"
)

// DefaultRuns is how often a scenario without a runs field is executed.
const DefaultRuns = 10

// Scenario is a pool configuration run several times, each run verified.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario exercises.
	Description string `yaml:"description"`

	Oxygen   int `yaml:"oxygen"`
	Hydrogen int `yaml:"hydrogen"`
	WaitMS   int `yaml:"wait_ms"`
	BondMS   int `yaml:"bond_ms"`

	// Runs is the number of repetitions (default DefaultRuns).
	Runs int `yaml:"runs,omitempty"`

	// Expect optionally pins the outcome. Any unset field is derived
	// from the pool size.
	Expect *Expectation `yaml:"expect,omitempty"`
}

// Expectation pins the counts a scenario must produce.
type Expectation struct {
	Molecules        *int64 `yaml:"molecules,omitempty"`
	UnpairedOxygen   *int64 `yaml:"unpaired_oxygen,omitempty"`
	UnpairedHydrogen *int64 `yaml:"unpaired_hydrogen,omitempty"`
	Lines            *int64 `yaml:"lines,omitempty"`
}

// Config returns the run parameters of the scenario.
func (s *Scenario) Config() config.Config {
	return config.Config{
		Oxygen:   s.Oxygen,
		Hydrogen: s.Hydrogen,
		WaitMS:   s.WaitMS,
		BondMS:   s.BondMS,
	}
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so a typo does not silently disable an expectation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if scenario.Runs == 0 {
		scenario.Runs = DefaultRuns
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file of dir, sorted by file
// name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	scenarios := make([]*Scenario, 0, len(names))
	seen := make(map[string]string, len(names))
	for _, name := range names {
		s, err := LoadScenario(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", name, s.Name, prev)
		}
		seen[s.Name] = name
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(s.Name, `/\`) {
		return fmt.Errorf("name %q must not contain path separators", s.Name)
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Runs < 0 {
		return fmt.Errorf("runs must be positive, got %d", s.Runs)
	}
	if err := s.Config().Validate(); err != nil {
		return err
	}
	return nil
}
