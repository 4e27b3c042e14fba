package config

import (
	"context"
	"time"

	"github.com/deltafeed/deltafeed/internal/simulator"
)

// RunScenarioScript applies each step of script to sim at its scheduled
// offset, running until ctx is cancelled or the script is exhausted.
func RunScenarioScript(ctx context.Context, script *ScenarioScript, sim *simulator.Simulator) {
	start := time.Now()
	for _, step := range script.Steps {
		deadline := start.Add(step.After)
		wait := time.Until(deadline)
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		cfg := sim.Config()
		cfg.Scenario = simulator.Scenario(step.Scenario)
		if step.TimeOfDay != "" {
			cfg.TimeOfDay = simulator.TimeOfDay(step.TimeOfDay)
		}
		sim.SetConfig(cfg)
	}
}
