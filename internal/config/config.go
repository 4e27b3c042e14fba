// Package config loads process configuration from environment variables
// (optionally seeded from a .env file) and an optional YAML override,
// following the teacher's split between environment bootstrap and
// structured unmarshalling.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/deltafeed/deltafeed/internal/registry"
	"github.com/deltafeed/deltafeed/internal/simulator"
)

// Config is the complete set of process-level recognized options of
// spec.md §6, plus the ambient listen addresses and log level.
type Config struct {
	ListenAddr      string `mapstructure:"listenAddr"`
	AdminListenAddr string `mapstructure:"adminListenAddr"`
	LogLevel        string `mapstructure:"logLevel"`

	UpdateFrequencyMs     int     `mapstructure:"updateFrequencyMs"`
	VolatilityFactor      float64 `mapstructure:"volatilityFactor"`
	CorrelationStrength   float64 `mapstructure:"correlationStrength"`
	Scenario              string  `mapstructure:"scenario"`
	TimeOfDay             string  `mapstructure:"timeOfDay"`
	FlashEventProbability float64 `mapstructure:"flashEventProbability"`
	FlashEventMagnitude   float64 `mapstructure:"flashEventMagnitude"`

	MaxUpdatesPerSecond float64 `mapstructure:"maxUpdatesPerSecond"`
	BucketSize          float64 `mapstructure:"bucketSize"`

	ScenarioConfigFile string `mapstructure:"scenarioConfigFile"`
}

var validScenarios = map[string]bool{
	"normal": true, "high_vol": true, "trending_up": true, "trending_down": true, "flash_event": true,
}

var validTimeOfDay = map[string]bool{
	"market_open": true, "morning": true, "lunch": true, "afternoon": true,
	"market_close": true, "after_hours": true, "auto": true,
}

func defaults() Config {
	return Config{
		ListenAddr:            ":8080",
		AdminListenAddr:       ":8081",
		LogLevel:              "info",
		UpdateFrequencyMs:     500,
		VolatilityFactor:      0.2,
		CorrelationStrength:   0.7,
		Scenario:              "normal",
		TimeOfDay:             "auto",
		FlashEventProbability: 0.001,
		FlashEventMagnitude:   3.0,
		MaxUpdatesPerSecond:   10,
		BucketSize:            20,
	}
}

// Load reads .env (if present), then environment variables prefixed
// DELTAFEED_ and an optional config.yaml, applying defaults first.
// Invalid scenario/timeOfDay enumeration values abort initialization, per
// spec.md §7: startup configuration errors are the one class of fatal
// error in this service.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	d := defaults()
	v.SetDefault("listenAddr", d.ListenAddr)
	v.SetDefault("adminListenAddr", d.AdminListenAddr)
	v.SetDefault("logLevel", d.LogLevel)
	v.SetDefault("updateFrequencyMs", d.UpdateFrequencyMs)
	v.SetDefault("volatilityFactor", d.VolatilityFactor)
	v.SetDefault("correlationStrength", d.CorrelationStrength)
	v.SetDefault("scenario", d.Scenario)
	v.SetDefault("timeOfDay", d.TimeOfDay)
	v.SetDefault("flashEventProbability", d.FlashEventProbability)
	v.SetDefault("flashEventMagnitude", d.FlashEventMagnitude)
	v.SetDefault("maxUpdatesPerSecond", d.MaxUpdatesPerSecond)
	v.SetDefault("bucketSize", d.BucketSize)

	v.SetEnvPrefix("DELTAFEED")
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("config: reading config.yaml: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshalling: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if !validScenarios[c.Scenario] {
		return fmt.Errorf("config: invalid scenario %q", c.Scenario)
	}
	if !validTimeOfDay[c.TimeOfDay] {
		return fmt.Errorf("config: invalid timeOfDay %q", c.TimeOfDay)
	}
	if c.UpdateFrequencyMs <= 0 {
		return fmt.Errorf("config: updateFrequencyMs must be positive")
	}
	if c.MaxUpdatesPerSecond <= 0 || c.BucketSize <= 0 {
		return fmt.Errorf("config: maxUpdatesPerSecond and bucketSize must be positive")
	}
	return nil
}

// SimulatorConfig projects the simulation-relevant fields into
// simulator.Config.
func (c *Config) SimulatorConfig() simulator.Config {
	return simulator.Config{
		VolatilityFactor:      c.VolatilityFactor,
		CorrelationStrength:   c.CorrelationStrength,
		Scenario:              simulator.Scenario(c.Scenario),
		TimeOfDay:             simulator.TimeOfDay(c.TimeOfDay),
		FlashEventProbability: c.FlashEventProbability,
		FlashEventMagnitude:   c.FlashEventMagnitude,
	}
}

// RegistryDefaults projects the pacing-relevant fields into
// registry.Defaults.
func (c *Config) RegistryDefaults() registry.Defaults {
	return registry.Defaults{
		MaxUpdatesPerSecond: c.MaxUpdatesPerSecond,
		BucketSize:          c.BucketSize,
	}
}
