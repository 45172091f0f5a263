package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/nwocg/internal/graph"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Model is the path to the model file. Relative paths are resolved
	// against the scenario file's directory.
	Model string `yaml:"model"`

	// Prefix overrides the default identifier prefix.
	Prefix string `yaml:"prefix,omitempty"`

	// ExpectError is the error code generation must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assertions validate the schedule and generated source.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one property of a generation run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "schedule_order": blocks appear in the step order in this order
	// - "delay_order": state updates are exactly these delays
	// - "unreached": blocks are not scheduled
	// - "source_contains": source contains Text
	// - "stats": listed counters match
	Type string `yaml:"type"`

	// Blocks are block names as written in the model (schedule_order,
	// delay_order, unreached).
	Blocks []string `yaml:"blocks,omitempty"`

	// Text is the expected source fragment (source_contains).
	Text string `yaml:"text,omitempty"`

	// Stats maps counter names to expected values (stats).
	Stats map[string]int `yaml:"stats,omitempty"`
}

// Assertion type constants.
const (
	AssertScheduleOrder  = "schedule_order"
	AssertDelayOrder     = "delay_order"
	AssertUnreached      = "unreached"
	AssertSourceContains = "source_contains"
	AssertStats          = "stats"
)

// LoadScenario reads and parses a scenario YAML file. The model path is
// resolved against the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, "")
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file, resolving
// a relative model path against basePath, or against the scenario file's
// directory when basePath is empty.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if basePath == "" {
		basePath = filepath.Dir(path)
	}
	if scenario.Model != "" && !filepath.IsAbs(scenario.Model) {
		scenario.Model = filepath.Join(basePath, scenario.Model)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	if _, err := os.Stat(s.Model); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.Model)
	}
	if s.Prefix != "" && !graph.ValidIdentifier(s.Prefix) {
		return fmt.Errorf("prefix %q is not a C identifier", s.Prefix)
	}
	if s.ExpectError == "" && len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required unless expect_error is set")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertScheduleOrder, AssertUnreached:
		if len(a.Blocks) == 0 {
			return fmt.Errorf("assertions[%d]: blocks list is required for %s", index, a.Type)
		}
	case AssertDelayOrder:
		// An empty list asserts the model has no state updates.
	case AssertSourceContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for source_contains", index)
		}
	case AssertStats:
		if len(a.Stats) == 0 {
			return fmt.Errorf("assertions[%d]: stats is required for stats", index)
		}
		for name := range a.Stats {
			if _, ok := statFields[name]; !ok {
				return fmt.Errorf("assertions[%d]: unknown stat %q", index, name)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
