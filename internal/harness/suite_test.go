package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "b.yaml", "")
	writeScenario(t, dir, "a.yml", "")
	writeScenario(t, dir, "notes.txt", "")

	paths, err := FindScenarios(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yml"), filepath.Join(dir, "b.yaml")}, paths)

	_, err = FindScenarios(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestRunSuite(t *testing.T) {
	dir := t.TempDir()
	good := writeScenario(t, dir, "good.yaml", `
name: good
description: an empty shop lists nothing
flow:
  - invoke: ListProducts
    expect: { case: Success, result: { total: 0, items: [] } }
`)
	failing := writeScenario(t, dir, "failing.yaml", `
name: failing
description: expects the wrong case
flow:
  - invoke: GetProduct
    args: { id: 1 }
`)
	broken := writeScenario(t, dir, "broken.yaml", "name: [")

	res := RunSuite(context.Background(), []string{good, failing, broken})
	assert.Equal(t, 3, res.TotalScenarios)
	assert.Equal(t, 1, res.Passed)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Failures, 2)
	assert.Equal(t, "failing", res.Failures[0].Scenario)
	assert.Contains(t, res.Failures[0].Error, "scenario assertions failed")
	assert.Equal(t, broken, res.Failures[1].ScenarioPath)
	assert.Contains(t, res.Failures[1].Error, "failed to load scenario")
}
