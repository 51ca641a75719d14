package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/plansql/internal/querysql"
)

// Scenario defines one generator conformance case: a plan and what the
// generator must produce for it.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is an optional CUE catalog directory. Relative paths are
	// resolved against the scenario file's directory.
	Catalog string `yaml:"catalog,omitempty"`

	// Rewrites toggles LIKE promotion, IN merging and GROUP BY
	// flattening. Nil means enabled.
	Rewrites *bool `yaml:"rewrites,omitempty"`

	// Plan is the plan document, decoded with queryir.DecodeTree.
	Plan yaml.Node `yaml:"plan"`

	// Expect is the exact expected outcome.
	Expect Expectation `yaml:"expect"`

	// Assertions are additional checks on the generated text.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expectation is the expected generator outcome. Exactly one of SQL and
// Error is set.
type Expectation struct {
	// SQL is the exact expected text.
	SQL string `yaml:"sql,omitempty"`

	// Params are the expected bound parameters, in order. Nil skips the
	// parameter check; an empty list requires that none are bound.
	Params []ExpectedParam `yaml:"params,omitempty"`

	// Error is the expected generation error code.
	Error string `yaml:"error,omitempty"`
}

// ExpectedParam is one expected bound parameter. Type is optional; values
// compare by their text form.
type ExpectedParam struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type,omitempty"`
	Value any    `yaml:"value"`
}

// Assertion is an additional check on the generated text.
type Assertion struct {
	// Type is one of sql_contains, sql_not_contains, param_count.
	Type string `yaml:"type"`

	// Text is the fragment searched for (sql_contains, sql_not_contains).
	Text string `yaml:"text,omitempty"`

	// Count is the expected parameter count (param_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertSQLContains    = "sql_contains"
	AssertSQLNotContains = "sql_not_contains"
	AssertParamCount     = "param_count"
)

// RewritesEnabled reports whether the scenario runs with rewrites on.
func (s *Scenario) RewritesEnabled() bool {
	return s.Rewrites == nil || *s.Rewrites
}

// LoadScenario reads and parses a scenario YAML file. A relative catalog
// path is resolved against the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the catalog path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) && basePath != "" {
		scenario.Catalog = filepath.Join(basePath, scenario.Catalog)
	}
	if scenario.Catalog != "" {
		if _, err := os.Stat(scenario.Catalog); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: catalog directory not found: %s", scenario.Catalog)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. The catalog path is left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
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
	if s.Plan.Kind == 0 {
		return fmt.Errorf("plan is required")
	}

	switch {
	case s.Expect.SQL == "" && s.Expect.Error == "":
		return fmt.Errorf("expect: one of sql or error is required")
	case s.Expect.SQL != "" && s.Expect.Error != "":
		return fmt.Errorf("expect: sql and error are mutually exclusive")
	}
	if s.Expect.Error != "" {
		switch querysql.ErrorCode(s.Expect.Error) {
		case querysql.ErrCodeUnsupported, querysql.ErrCodeMalformed:
		default:
			return fmt.Errorf("expect: unknown error code %q", s.Expect.Error)
		}
		if len(s.Expect.Params) > 0 {
			return fmt.Errorf("expect: params cannot be combined with error")
		}
	}
	for i, p := range s.Expect.Params {
		if p.Name == "" {
			return fmt.Errorf("expect.params[%d]: name is required", i)
		}
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
	case AssertSQLContains, AssertSQLNotContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertParamCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for param_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
