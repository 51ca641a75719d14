package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalPlan = `
plan:
  query:
    scan: {name: t, columns: [id]}
`

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/like_promotion.yaml")
	require.NoError(t, err)

	assert.Equal(t, "like_promotion", scenario.Name)
	assert.True(t, scenario.RewritesEnabled())
	assert.NotZero(t, scenario.Plan.Kind)
	require.Len(t, scenario.Expect.Params, 1)
	assert.Equal(t, "gp1", scenario.Expect.Params[0].Name)
	assert.Equal(t, "VarChar", scenario.Expect.Params[0].Type)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, AssertSQLNotContains, scenario.Assertions[0].Type)
}

func TestLoadScenario_ResolvesCatalogRelativeToFile(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/filtered_projection.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "catalog"), scenario.Catalog)
}

func TestLoadScenario_RewritesFlag(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/like_disabled.yaml")
	require.NoError(t, err)
	assert.False(t, scenario.RewritesEnabled())
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MissingCatalog(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: x
description: "catalog does not exist"
catalog: nowhere
`+minimalPlan+`
expect:
  sql: "SELECT 1"
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog directory not found")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\n" + minimalPlan + "expect: {sql: x}\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\n" + minimalPlan + "expect: {sql: x}\n",
			wantErr: "description is required",
		},
		{
			name:    "missing plan",
			content: "name: n\ndescription: d\nexpect: {sql: x}\n",
			wantErr: "plan is required",
		},
		{
			name:    "missing expectation",
			content: "name: n\ndescription: d\n" + minimalPlan,
			wantErr: "one of sql or error is required",
		},
		{
			name:    "sql and error",
			content: "name: n\ndescription: d\n" + minimalPlan + "expect: {sql: x, error: MALFORMED_TREE}\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "unknown error code",
			content: "name: n\ndescription: d\n" + minimalPlan + "expect: {error: BOOM}\n",
			wantErr: `unknown error code "BOOM"`,
		},
		{
			name:    "unknown field",
			content: "name: n\ndescription: d\n" + minimalPlan + "expect: {sql: x}\nassertion: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name: "unknown assertion type",
			content: "name: n\ndescription: d\n" + minimalPlan + "expect: {sql: x}\n" +
				"assertions:\n  - type: trace_contains\n",
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name: "sql_contains without text",
			content: "name: n\ndescription: d\n" + minimalPlan + "expect: {sql: x}\n" +
				"assertions:\n  - type: sql_contains\n",
			wantErr: "text is required for sql_contains",
		},
		{
			name:    "param without name",
			content: "name: n\ndescription: d\n" + minimalPlan + "expect:\n  sql: x\n  params: [{value: 1}]\n",
			wantErr: "expect.params[0]: name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
