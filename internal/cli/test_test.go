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

const passingScenario = `name: add_customer
description: "A customer can be added and read back"
setup:
  - action: AddCustomer
    args: { name: Ada, email: ada@example.com }
    save: ada
flow:
  - invoke: GetCustomer
    args: { id: $ada }
    expect:
      case: Success
      result: { name: Ada }
assertions:
  - type: final_state
    table: customers
    where: { id: $ada }
    expect: { email: ada@example.com }
`

const failingScenario = `name: wrong_name
description: "Expects the wrong name"
setup:
  - action: AddCustomer
    args: { name: Ada, email: ada@example.com }
    save: ada
flow:
  - invoke: GetCustomer
    args: { id: $ada }
    expect:
      case: Success
      result: { name: Bob }
`

func writeScenarioFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runTestCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCommand(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := runTestCommand(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := runTestCommand(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := runTestCommand(t, "json", t.TempDir())
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
}

func TestTestCommandPassAndFail(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "add_customer.yaml", passingScenario)
	writeScenarioFile(t, dir, "wrong_name.yaml", failingScenario)

	out, err := runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ add_customer")
	assert.Contains(t, out, "✗ wrong_name")
	assert.Contains(t, out, "name does not match")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "add_customer.yaml", passingScenario)
	writeScenarioFile(t, dir, "wrong_name.yaml", failingScenario)

	out, err := runTestCommand(t, "json", dir)
	require.Error(t, err)

	var response struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "error", response.Status)
	require.NotNil(t, response.Error)
	assert.Equal(t, "TEST_FAILED", response.Error.Code)
	assert.Equal(t, 2, response.Data.Total)
	assert.Equal(t, 1, response.Data.Passed)
	require.Len(t, response.Data.Scenarios, 2)
	assert.Equal(t, "add_customer", response.Data.Scenarios[0].Name)
	assert.True(t, response.Data.Scenarios[0].Pass)
	assert.NotEmpty(t, response.Data.Scenarios[1].Errors)
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "broken.yaml", "name: broken\nflow: []\n")

	out, err := runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "add_customer.yaml", passingScenario)

	out, err := runTestCommand(t, "text", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "golden updated")

	goldenPath := filepath.Join(dir, "golden", "add_customer.golden")
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name": "add_customer"`)

	// Unchanged trace matches.
	out, err = runTestCommand(t, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All scenarios passed")

	// A tampered snapshot is a failure.
	require.NoError(t, os.WriteFile(goldenPath, []byte("{}\n"), 0644))
	out, err = runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
}

func TestTestHelpText(t *testing.T) {
	out, err := runTestCommand(t, "text", "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "in-memory catalog")
	assert.Contains(t, out, "--update")
	assert.Contains(t, out, "--filter")
	assert.Contains(t, out, "scenarios-dir")
}

func TestFindScenarioFiles(t *testing.T) {
	tmpDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "test1.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "test2.yml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "ignore.txt"), []byte(""), 0644))

	files, err := findScenarioFiles(tmpDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestFindScenarioFilesWithFilter(t *testing.T) {
	tmpDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "order-add.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "order-rank.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "product-tags.yaml"), []byte(""), 0644))

	files, err := findScenarioFiles(tmpDir, "order-*")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = findScenarioFiles(tmpDir, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}
