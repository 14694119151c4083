package config

import (
	"errors"
	"testing"

	"github.com/blobmark/blobmark/pkg/layout"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.SyncMode != SyncImmediate {
		t.Error("default sync mode must be immediate")
	}
	if !cfg.LockFile || !cfg.VerifyTailOnOpen {
		t.Error("defaults must lock the file and verify the tail")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero payload cap", func(c *Config) { c.MaxPayloadSize = 0 }},
		{"payload cap above format limit", func(c *Config) { c.MaxPayloadSize = layout.MaxPayloadSize + 1 }},
		{"unknown sync mode", func(c *Config) { c.SyncMode = SyncMode(99) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("got %v, want ErrInvalidConfig", err)
			}
		})
	}
}
