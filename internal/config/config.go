// Package config provides Viper-based configuration loading for the
// skirmish engine.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// EncounterConfig holds round-loop settings.
type EncounterConfig struct {
	// MaxRounds ends an encounter in a draw once this many rounds have
	// resolved; 0 disables the limit.
	MaxRounds int `mapstructure:"max_rounds"`
	// RoundDurationMs is the automatic round cadence in milliseconds;
	// 0 means rounds are driven manually.
	RoundDurationMs int `mapstructure:"round_duration_ms"`
	// Seed feeds the dice source so encounters replay deterministically;
	// 0 means seed from the clock.
	Seed int64 `mapstructure:"seed"`
}

// PathfindingConfig bounds the A* search.
type PathfindingConfig struct {
	// MaxSearchDistance caps how far from the start a path may wander.
	MaxSearchDistance int `mapstructure:"max_search_distance"`
	// MaxIterations caps total node expansions per search.
	MaxIterations int `mapstructure:"max_iterations"`
}

// ContentConfig locates the YAML definition directories.
type ContentConfig struct {
	MonstersDir  string `mapstructure:"monsters_dir"`
	AbilitiesDir string `mapstructure:"abilities_dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging"`
	Encounter   EncounterConfig   `mapstructure:"encounter"`
	Pathfinding PathfindingConfig `mapstructure:"pathfinding"`
	Content     ContentConfig     `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateEncounter(c.Encounter); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validatePathfinding(c.Pathfinding); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateEncounter(e EncounterConfig) error {
	var errs []string
	if e.MaxRounds < 0 {
		errs = append(errs, fmt.Sprintf("encounter.max_rounds must be >= 0, got %d", e.MaxRounds))
	}
	if e.RoundDurationMs < 0 {
		errs = append(errs, fmt.Sprintf("encounter.round_duration_ms must be >= 0, got %d", e.RoundDurationMs))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validatePathfinding(p PathfindingConfig) error {
	var errs []string
	if p.MaxSearchDistance < 1 {
		errs = append(errs, fmt.Sprintf("pathfinding.max_search_distance must be >= 1, got %d", p.MaxSearchDistance))
	}
	if p.MaxIterations < 1 {
		errs = append(errs, fmt.Sprintf("pathfinding.max_iterations must be >= 1, got %d", p.MaxIterations))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.MonstersDir == "" {
		errs = append(errs, "content.monsters_dir must not be empty")
	}
	if c.AbilitiesDir == "" {
		errs = append(errs, "content.abilities_dir must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with SKIRMISH_ prefix
	v.SetEnvPrefix("SKIRMISH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("encounter.max_rounds", 50)
	v.SetDefault("encounter.round_duration_ms", 0)
	v.SetDefault("encounter.seed", 0)

	v.SetDefault("pathfinding.max_search_distance", 50)
	v.SetDefault("pathfinding.max_iterations", 10000)

	v.SetDefault("content.monsters_dir", "content/monsters")
	v.SetDefault("content.abilities_dir", "content/abilities")
}
