// Package config loads leapdiff configuration from defaults, a YAML file,
// LEAPDIFF_* environment variables and command-line flags, in rising order
// of precedence.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapdiff/pkg/core"
)

// TargetConfig is an alias for the shared target configuration.
type TargetConfig = core.TargetConfig

// EnvConfig holds per-environment overrides.
type EnvConfig struct {
	Target *TargetConfig `koanf:"target"`
}

// Config holds all CLI configuration options.
type Config struct {
	StatePath    string               `koanf:"state_path"`
	Environment  string               `koanf:"environment"`
	Verbose      bool                 `koanf:"verbose"`
	Output       string               `koanf:"output"`
	Target       *TargetConfig        `koanf:"target"`
	Environments map[string]EnvConfig `koanf:"environments"`

	// ConfigFile is the file the configuration was read from, if any.
	ConfigFile string `koanf:"-"`
	// ProjectRoot anchors relative paths.
	ProjectRoot string `koanf:"-"`
}

// Validate checks field values that koanf cannot.
func (c *Config) Validate() error {
	switch c.Output {
	case OutputAuto, OutputText, OutputJSON:
	default:
		return fmt.Errorf("unknown output mode %q (expected auto, text or json)", c.Output)
	}
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Target != nil && c.Target.Type != "" {
		if err := ValidateTarget(c.Target); err != nil {
			return fmt.Errorf("invalid target configuration: %w", err)
		}
	}
	return nil
}

// ValidateTarget checks the target type against the supported dialects.
func ValidateTarget(t *TargetConfig) error {
	if t == nil || t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	t.Type = strings.ToLower(t.Type)
	if !slices.Contains(core.KnownTargetTypes(), t.Type) {
		return fmt.Errorf("unknown target type %q (expected one of %s)",
			t.Type, strings.Join(core.KnownTargetTypes(), ", "))
	}
	return nil
}

// HasTarget reports whether a database target is configured.
func (c *Config) HasTarget() bool {
	return c.Target != nil && c.Target.Type != "" && c.Target.DSN != ""
}

// MergeTargetConfig merges two target configs, with override taking precedence.
func MergeTargetConfig(base, override *TargetConfig) *TargetConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := &TargetConfig{
		Type:    base.Type,
		DSN:     base.DSN,
		Schema:  base.Schema,
		Options: make(map[string]string, len(base.Options)+len(override.Options)),
	}
	for k, v := range base.Options {
		merged.Options[k] = v
	}

	if override.Type != "" {
		merged.Type = override.Type
	}
	if override.DSN != "" {
		merged.DSN = override.DSN
	}
	if override.Schema != "" {
		merged.Schema = override.Schema
	}
	for k, v := range override.Options {
		merged.Options[k] = v
	}
	return merged
}
