// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package compliance

import (
	"fmt"
	"strings"
)

// ============================================================================
// TASK CATEGORY
// ============================================================================

// TaskCategory is the closed set of categories the classifier can produce.
type TaskCategory int

const (
	CategoryGeneral TaskCategory = iota
	CategoryCode
	CategoryData
	CategoryTest
	CategoryDeploy
	CategoryDesign
	CategoryDocument
	CategoryResearch
)

var categoryNames = map[TaskCategory]string{
	CategoryGeneral:  "general",
	CategoryCode:     "code",
	CategoryData:     "data",
	CategoryTest:     "test",
	CategoryDeploy:   "deploy",
	CategoryDesign:   "design",
	CategoryDocument: "document",
	CategoryResearch: "research",
}

// AllCategories returns every category in declaration order.
func AllCategories() []TaskCategory {
	return []TaskCategory{
		CategoryCode, CategoryData, CategoryTest, CategoryDeploy,
		CategoryDesign, CategoryDocument, CategoryResearch, CategoryGeneral,
	}
}

// String returns the lowercase category name.
func (c TaskCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("TaskCategory(%d)", int(c))
}

// Title returns the category name with a leading capital, for reason strings.
func (c TaskCategory) Title() string {
	return capitalize(c.String())
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// IsSensitive reports whether tasks of this category are policy-sensitive.
// code, data, test and deploy touch source or infrastructure; the rest do not.
func (c TaskCategory) IsSensitive() bool {
	switch c {
	case CategoryCode, CategoryData, CategoryTest, CategoryDeploy:
		return true
	default:
		return false
	}
}

// ParseTaskCategory parses a category name (case-insensitive).
func ParseTaskCategory(s string) (TaskCategory, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for c, name := range categoryNames {
		if name == want {
			return c, nil
		}
	}
	return CategoryGeneral, fmt.Errorf("unknown task category %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c TaskCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *TaskCategory) UnmarshalText(text []byte) error {
	parsed, err := ParseTaskCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ============================================================================
// DATA CLASSIFICATION
// ============================================================================

// DataClassification is the sensitivity label of the data a task touches.
// Ordered: Public < Internal < Confidential < Restricted.
type DataClassification int

const (
	ClassificationPublic DataClassification = iota
	ClassificationInternal
	ClassificationConfidential
	ClassificationRestricted
)

// String returns the lowercase classification name.
func (d DataClassification) String() string {
	switch d {
	case ClassificationPublic:
		return "public"
	case ClassificationInternal:
		return "internal"
	case ClassificationConfidential:
		return "confidential"
	case ClassificationRestricted:
		return "restricted"
	default:
		return fmt.Sprintf("DataClassification(%d)", int(d))
	}
}

// IsValid reports whether d is one of the defined levels.
func (d DataClassification) IsValid() bool {
	return d >= ClassificationPublic && d <= ClassificationRestricted
}

// AtLeast reports whether d is at or above the given level.
func (d DataClassification) AtLeast(level DataClassification) bool {
	return d >= level
}

// ParseDataClassification parses a classification name (case-insensitive).
func ParseDataClassification(s string) (DataClassification, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "public":
		return ClassificationPublic, nil
	case "internal":
		return ClassificationInternal, nil
	case "confidential":
		return ClassificationConfidential, nil
	case "restricted":
		return ClassificationRestricted, nil
	default:
		return ClassificationPublic, fmt.Errorf("unknown data classification %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d DataClassification) MarshalText() ([]byte, error) {
	if !d.IsValid() {
		return nil, fmt.Errorf("invalid data classification %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DataClassification) UnmarshalText(text []byte) error {
	parsed, err := ParseDataClassification(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ============================================================================
// TARGET ENVIRONMENT
// ============================================================================

// TargetEnvironment is the environment a task's output is destined for.
type TargetEnvironment int

const (
	EnvironmentProduction TargetEnvironment = iota
	EnvironmentStaging
	EnvironmentDevelopment
	EnvironmentLocal
)

// String returns the lowercase environment name.
func (e TargetEnvironment) String() string {
	switch e {
	case EnvironmentProduction:
		return "production"
	case EnvironmentStaging:
		return "staging"
	case EnvironmentDevelopment:
		return "development"
	case EnvironmentLocal:
		return "local"
	default:
		return fmt.Sprintf("TargetEnvironment(%d)", int(e))
	}
}

// IsValid reports whether e is one of the defined environments.
func (e TargetEnvironment) IsValid() bool {
	return e >= EnvironmentProduction && e <= EnvironmentLocal
}

// IsShared reports whether the environment is production or staging.
func (e TargetEnvironment) IsShared() bool {
	return e == EnvironmentProduction || e == EnvironmentStaging
}

// ParseTargetEnvironment parses an environment name (case-insensitive).
// "prod" and "dev" are accepted as short forms.
func ParseTargetEnvironment(s string) (TargetEnvironment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return EnvironmentProduction, nil
	case "staging":
		return EnvironmentStaging, nil
	case "development", "dev":
		return EnvironmentDevelopment, nil
	case "local":
		return EnvironmentLocal, nil
	default:
		return EnvironmentDevelopment, fmt.Errorf("unknown target environment %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e TargetEnvironment) MarshalText() ([]byte, error) {
	if !e.IsValid() {
		return nil, fmt.Errorf("invalid target environment %d", int(e))
	}
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *TargetEnvironment) UnmarshalText(text []byte) error {
	parsed, err := ParseTargetEnvironment(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// ============================================================================
// COMPLIANCE CONFIG
// ============================================================================

// Config is the ambient compliance configuration.
// It is a value object: callers replace it whole rather than mutating it.
type Config struct {
	// Enabled turns compliance routing on. When false every task may use cloud.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`
	// DataClassification is the default sensitivity of workspace data.
	DataClassification DataClassification `toml:"data_classification" json:"data_classification" yaml:"data_classification"`
	// TargetEnvironment is the default environment tasks are destined for.
	TargetEnvironment TargetEnvironment `toml:"target_environment" json:"target_environment" yaml:"target_environment"`
	// AuditEnabled attaches an audit entry to every routing decision.
	AuditEnabled bool `toml:"audit_enabled" json:"audit_enabled" yaml:"audit_enabled"`
	// StrictMode forces on-prem for every non-public classification.
	StrictMode bool `toml:"strict_mode" json:"strict_mode" yaml:"strict_mode"`
}

// DefaultConfig returns the built-in configuration used when nothing is stored
// or the stored value cannot be parsed.
func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		DataClassification: ClassificationInternal,
		TargetEnvironment:  EnvironmentDevelopment,
		AuditEnabled:       true,
		StrictMode:         false,
	}
}

// WithOverrides returns a copy of c with the non-nil overrides applied.
func (c Config) WithOverrides(classification *DataClassification, env *TargetEnvironment) Config {
	out := c
	if classification != nil {
		out.DataClassification = *classification
	}
	if env != nil {
		out.TargetEnvironment = *env
	}
	return out
}

// Validate reports the first invalid field, if any.
func (c Config) Validate() error {
	if !c.DataClassification.IsValid() {
		return fmt.Errorf("data_classification: invalid value %d", int(c.DataClassification))
	}
	if !c.TargetEnvironment.IsValid() {
		return fmt.Errorf("target_environment: invalid value %d", int(c.TargetEnvironment))
	}
	return nil
}
