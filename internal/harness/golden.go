package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot captures what the generator produced for a scenario.
type Snapshot struct {
	ScenarioName string          `json:"scenario_name"`
	SQL          string          `json:"sql,omitempty"`
	Params       []ParamSnapshot `json:"params"`
	Error        string          `json:"error,omitempty"`
}

// NewSnapshot builds the snapshot of a scenario result.
func NewSnapshot(scenarioName string, result *Result) *Snapshot {
	return &Snapshot{
		ScenarioName: scenarioName,
		SQL:          result.SQL,
		Params:       result.Params,
		Error:        result.ErrorCode,
	}
}

// Marshal renders the snapshot as indented JSON with a trailing newline.
// HTML escaping is off so comparison operators stay readable.
func (s *Snapshot) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the output doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares a result against a golden file without re-running
// the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result).Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
