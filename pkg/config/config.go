// Package config holds the tunable options of a blobmark store.
package config

import (
	"errors"
	"fmt"

	"github.com/blobmark/blobmark/pkg/layout"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// SyncMode controls when appended bytes are flushed to stable storage.
type SyncMode int

const (
	// SyncImmediate flushes after every append, before the new length
	// is published. This is the durability contract of the format and
	// the default.
	SyncImmediate SyncMode = iota

	// SyncNone never flushes explicitly. A crash can lose or mangle
	// the tail; reopen recovery truncates whatever did not survive.
	// Intended for bulk loads and tests.
	SyncNone
)

// Config collects the options honored by store.Open.
type Config struct {
	// ReadOnly opens the store without write access or a write lock.
	ReadOnly bool

	// LockFile takes an advisory fcntl lock on the store file for the
	// lifetime of a writable handle, serializing writer processes.
	LockFile bool

	// SyncMode selects the flush policy for appends.
	SyncMode SyncMode

	// MaxPayloadSize rejects appends larger than this many bytes.
	// Cannot exceed the format's own record cap.
	MaxPayloadSize int

	// VerifyTailOnOpen validates the final record's shape on open and
	// truncates a corrupt tail left by a crash. Disabling it skips
	// the backward scan; a store known to be clean opens faster.
	VerifyTailOnOpen bool
}

// NewDefaultConfig returns a Config with recommended defaults: locked
// writer, sync-per-append, tail verification on.
func NewDefaultConfig() *Config {
	return &Config{
		LockFile:         true,
		SyncMode:         SyncImmediate,
		MaxPayloadSize:   layout.MaxPayloadSize,
		VerifyTailOnOpen: true,
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.MaxPayloadSize <= 0 {
		return fmt.Errorf("%w: max payload size must be positive", ErrInvalidConfig)
	}
	if c.MaxPayloadSize > layout.MaxPayloadSize {
		return fmt.Errorf("%w: max payload size %d exceeds format limit %d",
			ErrInvalidConfig, c.MaxPayloadSize, layout.MaxPayloadSize)
	}
	if c.SyncMode != SyncImmediate && c.SyncMode != SyncNone {
		return fmt.Errorf("%w: unknown sync mode %d", ErrInvalidConfig, c.SyncMode)
	}
	return nil
}
