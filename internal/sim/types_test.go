package sim

import (
	"errors"
	"math"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.RelTol != 1e-4 || cfg.AbsTol != 1e-6 {
		t.Errorf("tolerances = %g/%g", cfg.RelTol, cfg.AbsTol)
	}
	if cfg.MaxSteps <= 0 {
		t.Error("DefaultConfig has invalid MaxSteps")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig invalid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative rel", func(c *Config) { c.RelTol = -1 }},
		{"NaN abs", func(c *Config) { c.AbsTol = math.NaN() }},
		{"both zero", func(c *Config) { c.RelTol, c.AbsTol = 0, 0 }},
		{"negative workspace", func(c *Config) { c.Workspace = -5 }},
		{"zero max steps", func(c *Config) { c.MaxSteps = 0 }},
		{"negative initial dt", func(c *Config) { c.InitialDt = -1 }},
		{"negative min dt", func(c *Config) { c.MinDt = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrBadConfig) {
				t.Errorf("Validate() = %v, want ErrBadConfig", err)
			}
			if _, err := New(nil, cfg); !errors.Is(err, ErrBadConfig) {
				t.Errorf("New() = %v, want ErrBadConfig", err)
			}
		})
	}
}
