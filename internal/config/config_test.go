package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deltafeed/deltafeed/internal/simulator"
)

func TestDefaultsPassValidation(t *testing.T) {
	cfg := defaults()
	assert.NoError(t, cfg.validate())
}

func TestValidateRejectsUnknownScenario(t *testing.T) {
	cfg := defaults()
	cfg.Scenario = "moon_landing"
	assert.Error(t, cfg.validate())
}

func TestValidateRejectsUnknownTimeOfDay(t *testing.T) {
	cfg := defaults()
	cfg.TimeOfDay = "midnight"
	assert.Error(t, cfg.validate())
}

func TestValidateRejectsNonPositiveCadence(t *testing.T) {
	cfg := defaults()
	cfg.UpdateFrequencyMs = 0
	assert.Error(t, cfg.validate())
}

func TestValidateRejectsNonPositiveRateDefaults(t *testing.T) {
	cfg := defaults()
	cfg.MaxUpdatesPerSecond = 0
	assert.Error(t, cfg.validate())

	cfg = defaults()
	cfg.BucketSize = -1
	assert.Error(t, cfg.validate())
}

func TestSimulatorConfigProjection(t *testing.T) {
	cfg := defaults()
	cfg.Scenario = "high_vol"
	cfg.TimeOfDay = "lunch"

	sc := cfg.SimulatorConfig()
	assert.Equal(t, simulator.ScenarioHighVol, sc.Scenario)
	assert.Equal(t, simulator.TimeOfDayLunch, sc.TimeOfDay)
	assert.Equal(t, cfg.VolatilityFactor, sc.VolatilityFactor)
	assert.Equal(t, cfg.CorrelationStrength, sc.CorrelationStrength)
}

func TestRegistryDefaultsProjection(t *testing.T) {
	cfg := defaults()
	rd := cfg.RegistryDefaults()
	assert.Equal(t, cfg.MaxUpdatesPerSecond, rd.MaxUpdatesPerSecond)
	assert.Equal(t, cfg.BucketSize, rd.BucketSize)
}
