package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ScenarioStep describes one scripted scenario change: after `After` has
// elapsed since the script started, the simulator switches to Scenario
// (and TimeOfDay, if given). Grounded in the teacher's YAML config-file
// loading pattern for backpressure tuning, adapted to script market
// regime changes instead.
type ScenarioStep struct {
	After     time.Duration `yaml:"after"`
	Scenario  string        `yaml:"scenario"`
	TimeOfDay string        `yaml:"timeOfDay,omitempty"`
}

// ScenarioScript is a sequence of scripted scenario changes over time, for
// deterministic demo/test runs.
type ScenarioScript struct {
	Steps []ScenarioStep `yaml:"steps"`
}

// LoadScenarioScript reads and parses a scenario script file. Only YAML is
// supported; the extension is checked defensively.
func LoadScenarioScript(path string) (*ScenarioScript, error) {
	if !isYAMLFile(path) {
		return nil, fmt.Errorf("config: scenario script must be a .yaml/.yml file, got %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading scenario script: %w", err)
	}
	var script ScenarioScript
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("config: parsing scenario script: %w", err)
	}
	for i, step := range script.Steps {
		if !validScenarios[step.Scenario] {
			return nil, fmt.Errorf("config: scenario script step %d: invalid scenario %q", i, step.Scenario)
		}
		if step.TimeOfDay != "" && !validTimeOfDay[step.TimeOfDay] {
			return nil, fmt.Errorf("config: scenario script step %d: invalid timeOfDay %q", i, step.TimeOfDay)
		}
	}
	return &script, nil
}

func isYAMLFile(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
