// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyCatalog is returned when a cloud catalog has no entries.
// This is a packaging error, not a runtime condition.
var ErrEmptyCatalog = errors.New("cloud model catalog is empty")

// ============================================================================
// MODEL TYPE
// ============================================================================

// ModelType tags which variant of ModelDescriptor a routing decision selected.
type ModelType int

const (
	ModelTypeCloud ModelType = iota
	ModelTypeOnPrem
)

// String returns "onprem" or "cloud".
func (t ModelType) String() string {
	switch t {
	case ModelTypeOnPrem:
		return "onprem"
	case ModelTypeCloud:
		return "cloud"
	default:
		return fmt.Sprintf("ModelType(%d)", int(t))
	}
}

// ParseModelType parses "onprem" or "cloud" (case-insensitive).
func ParseModelType(s string) (ModelType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "onprem", "on-prem", "local":
		return ModelTypeOnPrem, nil
	case "cloud":
		return ModelTypeCloud, nil
	default:
		return ModelTypeCloud, fmt.Errorf("unknown model type %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t ModelType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ModelType) UnmarshalText(text []byte) error {
	parsed, err := ParseModelType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ============================================================================
// MODEL DESCRIPTOR
// ============================================================================

// ModelDescriptor is either an OnPremModel or a CloudModel.
// The interface is sealed; switch on the concrete type to handle each variant.
type ModelDescriptor interface {
	// Type reports which variant this descriptor is.
	Type() ModelType
	// ModelID is the identifier recorded in routing results and audit entries.
	ModelID() string
	// Label is a human-readable name.
	Label() string

	sealed()
}

// OnPremModel is a model served from the organisation's own infrastructure.
type OnPremModel struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"display_name"`
	Endpoint     string    `json:"endpoint"`
	Model        string    `json:"model_id"`
	Family       string    `json:"family,omitempty"`
	Capabilities []string  `json:"capabilities,omitempty"`
	ModifiedAt   time.Time `json:"modified_at,omitempty"`
}

func (m OnPremModel) Type() ModelType { return ModelTypeOnPrem }
func (m OnPremModel) ModelID() string { return m.ID }
func (m OnPremModel) Label() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.ID
}
func (OnPremModel) sealed() {}

// HasCapability reports whether the model advertises the given capability tag.
func (m OnPremModel) HasCapability(capability string) bool {
	for _, c := range m.Capabilities {
		if strings.EqualFold(c, capability) {
			return true
		}
	}
	return false
}

// CloudModel is a third-party hosted model.
type CloudModel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	Description string `json:"description"`
	Recommended bool   `json:"recommended,omitempty"`
}

func (m CloudModel) Type() ModelType { return ModelTypeCloud }
func (m CloudModel) ModelID() string { return m.ID }
func (m CloudModel) Label() string   { return m.Name }
func (CloudModel) sealed()           {}
