package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenarioScriptParsesSteps(t *testing.T) {
	path := writeScript(t, `
steps:
  - after: 5s
    scenario: high_vol
  - after: 10s
    scenario: flash_event
    timeOfDay: market_open
`)
	script, err := LoadScenarioScript(path)
	require.NoError(t, err)
	require.Len(t, script.Steps, 2)
	assert.Equal(t, "high_vol", script.Steps[0].Scenario)
	assert.Equal(t, "flash_event", script.Steps[1].Scenario)
	assert.Equal(t, "market_open", script.Steps[1].TimeOfDay)
}

func TestLoadScenarioScriptRejectsInvalidScenario(t *testing.T) {
	path := writeScript(t, "steps:\n  - after: 1s\n    scenario: bogus\n")
	_, err := LoadScenarioScript(path)
	assert.Error(t, err)
}

func TestLoadScenarioScriptRejectsNonYAMLExtension(t *testing.T) {
	path := writeScript(t, "steps: []\n")
	renamed := path[:len(path)-len("yaml")] + "json"
	require.NoError(t, os.Rename(path, renamed))
	_, err := LoadScenarioScript(renamed)
	assert.Error(t, err)
}

func TestIsYAMLFile(t *testing.T) {
	assert.True(t, isYAMLFile("scenario.yaml"))
	assert.True(t, isYAMLFile("scenario.YML"))
	assert.False(t, isYAMLFile("scenario.json"))
}
