package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testCatalogDir = filepath.Join("..", "..", "testdata", "catalog")
	testPlansDir   = filepath.Join("..", "..", "testdata", "plans")
)

func requireTestdata(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skipf("%s not found", path)
	}
}

func TestValidateValidPlans(t *testing.T) {
	requireTestdata(t, testPlansDir)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{
		"--catalog", testCatalogDir,
		filepath.Join(testPlansDir, "filtered.yaml"),
		filepath.Join(testPlansDir, "by_param.yaml"),
	})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ "+filepath.Join(testPlansDir, "filtered.yaml"))
	assert.Contains(t, output, "✓ All plans valid")
}

func TestValidateValidPlansJSON(t *testing.T) {
	requireTestdata(t, testPlansDir)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--catalog", testCatalogDir, filepath.Join(testPlansDir, "filtered.yaml")})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.Len(t, resp.Data.Plans, 1)
	assert.True(t, resp.Data.Plans[0].Valid)
}

func TestValidateUnsupportedPlan(t *testing.T) {
	requireTestdata(t, testPlansDir)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(testPlansDir, "full_join.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed for 1 plan(s)")

	output := buf.String()
	assert.Contains(t, output, "✗ "+filepath.Join(testPlansDir, "full_join.yaml"))
	assert.Contains(t, output, "E202")
	assert.Contains(t, output, "FULL OUTER JOIN is not supported")
}

func TestValidateReportsEveryIssue(t *testing.T) {
	tmpDir := t.TempDir()
	plan := `
query:
  filter:
    input: {as: e, expr: {scan: {name: t, columns: [id]}}}
    where:
      and:
        - isNull: {prop: x.id}
        - isNull: {prop: y.id}
`
	path := filepath.Join(tmpDir, "unbound.yaml")
	require.NoError(t, os.WriteFile(path, []byte(plan), 0644))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *Problem         `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodePlanRejected, resp.Error.Code)
	require.Len(t, resp.Data.Plans, 1)
	assert.Len(t, resp.Data.Plans[0].Issues, 2, "both unbound variables should be reported")
}

func TestValidateUndecodablePlan(t *testing.T) {
	requireTestdata(t, testPlansDir)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(testPlansDir, "broken.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "E201")
	assert.Contains(t, buf.String(), "line 2")
}

func TestValidateMissingPlan(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/plan.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), "E005")
	assert.Contains(t, buf.String(), "plan file not found")
}

func TestValidateNonExistentCatalog(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--catalog", "/nonexistent/directory/path", "plan.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005") // ErrCodeNotFound
	assert.Contains(t, buf.String(), "not found")
}

func TestValidateEmptyCatalogDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--catalog", tmpDir, "plan.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E003")
	assert.Contains(t, buf.String(), "no CUE files found")
}

func TestValidateVerboseOutput(t *testing.T) {
	requireTestdata(t, testPlansDir)

	stdoutBuf := &bytes.Buffer{}
	stderrBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Verbose: true}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(stdoutBuf)
	cmd.SetErr(stderrBuf) // Verbose output goes to stderr
	cmd.SetArgs([]string{"--catalog", testCatalogDir, filepath.Join(testPlansDir, "filtered.yaml")})

	err := cmd.Execute()
	require.NoError(t, err)

	assert.Contains(t, stderrBuf.String(), "Validating plan: ")
	assert.NotContains(t, stdoutBuf.String(), "Validating plan: ")
}
