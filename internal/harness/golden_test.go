package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Golden files live in testdata/golden. Regenerate with:
//
//	go test ./internal/harness -run TestRunWithGolden -update
func TestRunWithGolden(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)

	for _, file := range files {
		scenario, err := LoadScenario(file)
		require.NoError(t, err, file)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSnapshot_MarshalKeepsOperators(t *testing.T) {
	data, err := NewSnapshot("ops", &Result{
		SQL:    "SELECT 1 WHERE 2 > 1 AND 'a' <> 'b'",
		Params: []ParamSnapshot{},
	}).Marshal()
	require.NoError(t, err)

	assert.Equal(t,
		"{\n  \"scenario_name\": \"ops\",\n  \"sql\": \"SELECT 1 WHERE 2 > 1 AND 'a' <> 'b'\",\n  \"params\": []\n}\n",
		string(data))
}
