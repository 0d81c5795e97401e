// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/jeranaias/rigrun-ide/internal/compliance"
	"github.com/jeranaias/rigrun-ide/internal/router"
)

var _ router.ConfigSource = (*Store)(nil)

// Store is the persisted settings file viewed as a compliance configuration
// source. Every Snapshot re-reads the file so edits made by another process take
// effect on the next routing decision.
type Store struct {
	path string

	// mu serialises read-modify-write in Set; reads take no lock.
	mu sync.Mutex
}

// NewStore returns a Store over path. The file need not exist.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// OpenDefaultStore returns a Store over DefaultPath.
func OpenDefaultStore() (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return NewStore(path), nil
}

// Path returns the settings file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the full settings with environment overrides applied. Unlike
// Get it reports decode and validation errors.
func (s *Store) Load() (*Config, error) {
	return LoadFromPath(s.path)
}

// Get returns the current compliance configuration. It never fails: a missing
// file yields the defaults, and an unreadable file or an invalid compliance
// section yields the defaults with a warning on stderr. Errors in unrelated
// sections do not affect the result.
func (s *Store) Get() compliance.Config {
	c, _ := s.Snapshot()
	return c
}

// OnPremEnabled reports the administrative on-prem switch. Errors read as enabled.
func (s *Store) OnPremEnabled() bool {
	_, enabled := s.Snapshot()
	return enabled
}

// Snapshot returns the compliance configuration and the on-prem switch from a
// single read of the file.
func (s *Store) Snapshot() (compliance.Config, bool) {
	cfg, err := LoadFile(s.path)
	switch {
	case errors.Is(err, ErrNotFound):
		cfg = Default()
	case err != nil:
		fmt.Fprintf(os.Stderr, "Warning: using default compliance settings: %v\n", err)
		cfg = Default()
	}
	cfg.ApplyEnvOverrides()

	if err := cfg.Compliance.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: using default compliance settings: compliance.%v\n", err)
		cfg.Compliance = compliance.DefaultConfig()
	}
	return cfg.Compliance, cfg.OnPrem.Enabled
}

// CompliancePatch names the compliance fields to change. Nil fields are kept.
type CompliancePatch struct {
	Enabled            *bool
	DataClassification *compliance.DataClassification
	TargetEnvironment  *compliance.TargetEnvironment
	AuditEnabled       *bool
	StrictMode         *bool
}

// Empty reports whether the patch changes nothing.
func (p CompliancePatch) Empty() bool {
	return p.Enabled == nil && p.DataClassification == nil && p.TargetEnvironment == nil &&
		p.AuditEnabled == nil && p.StrictMode == nil
}

// Set applies patch to the stored file and returns the resulting compliance
// configuration. Environment overrides are not written back.
func (s *Store) Set(patch CompliancePatch) (compliance.Config, error) {
	var out compliance.Config
	err := s.update(func(cfg *Config) error {
		c := &cfg.Compliance
		if patch.Enabled != nil {
			c.Enabled = *patch.Enabled
		}
		if patch.DataClassification != nil {
			c.DataClassification = *patch.DataClassification
		}
		if patch.TargetEnvironment != nil {
			c.TargetEnvironment = *patch.TargetEnvironment
		}
		if patch.AuditEnabled != nil {
			c.AuditEnabled = *patch.AuditEnabled
		}
		if patch.StrictMode != nil {
			c.StrictMode = *patch.StrictMode
		}
		if err := c.Validate(); err != nil {
			return err
		}
		out = *c
		return nil
	})
	return out, err
}

// SetKey sets one dot-notation key in the stored file.
func (s *Store) SetKey(key, value string) error {
	return s.update(func(cfg *Config) error {
		return cfg.Set(key, value)
	})
}

func (s *Store) update(fn func(*Config) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := LoadFile(s.path)
	if errors.Is(err, ErrNotFound) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return err
	}

	if err := fn(cfg); err != nil {
		return err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return Save(cfg, s.path)
}
