// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"context"
	"encoding/json"

	"github.com/jeranaias/rigrun-ide/internal/audit"
	"github.com/jeranaias/rigrun-ide/internal/catalog"
	"github.com/jeranaias/rigrun-ide/internal/compliance"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// ConfigSource supplies the ambient compliance configuration and the
// administrative on-prem switch. Snapshot is called once per Route and must
// return the built-in default rather than fail.
type ConfigSource interface {
	Snapshot() (compliance.Config, bool)
}

// Availability lists the on-prem models reachable right now, most recently
// activated first. It returns an empty list, never an error, when nothing is
// reachable.
type Availability interface {
	Available(ctx context.Context) []catalog.OnPremModel
}

// StaticConfig is a fixed ConfigSource.
type StaticConfig struct {
	Compliance compliance.Config
	OnPrem     bool
}

// Snapshot returns the fixed configuration and on-prem switch.
func (s StaticConfig) Snapshot() (compliance.Config, bool) { return s.Compliance, s.OnPrem }

// =============================================================================
// REQUEST / RESULT
// =============================================================================

// RoutingContext is one routing request. The optional classification and
// environment override the ambient configuration for this call only.
type RoutingContext struct {
	Task               string                         `json:"task"`
	DataClassification *compliance.DataClassification `json:"data_classification,omitempty"`
	TargetEnvironment  *compliance.TargetEnvironment  `json:"target_environment,omitempty"`
	UserPreferredModel string                         `json:"user_preferred_model,omitempty"`
	ForceOnPrem        bool                           `json:"force_on_prem,omitempty"`
	ForceCloud         bool                           `json:"force_cloud,omitempty"`
}

// RoutingResult is the routing decision. It is not modified after Route returns.
type RoutingResult struct {
	ModelType catalog.ModelType `json:"model_type"`
	ModelID   string            `json:"model_id"`

	// Model is either catalog.OnPremModel or catalog.CloudModel, matching ModelType.
	Model catalog.ModelDescriptor `json:"model_config"`

	// Reason is the decisive explanation; it is also the audit entry's reason.
	Reason string `json:"reason"`

	// Category is the classifier output for the task.
	Category compliance.TaskCategory `json:"task_category"`

	// Required reports whether the compliance policy mandated on-prem.
	Required bool `json:"onprem_required"`

	// Fallback is true when on-prem was wanted but cloud was used.
	Fallback bool `json:"fallback,omitempty"`

	// ComplianceNotes are user-facing notes in the order they were produced.
	ComplianceNotes []string `json:"compliance_notes"`

	// AuditLog is set when auditing is enabled.
	AuditLog *audit.Entry `json:"audit_log,omitempty"`
}

// OnPrem returns the on-prem descriptor when ModelType is on-prem.
func (r RoutingResult) OnPrem() (catalog.OnPremModel, bool) {
	m, ok := r.Model.(catalog.OnPremModel)
	return m, ok
}

// Cloud returns the cloud descriptor when ModelType is cloud.
func (r RoutingResult) Cloud() (catalog.CloudModel, bool) {
	m, ok := r.Model.(catalog.CloudModel)
	return m, ok
}

// ToJSON formats the result as indented JSON.
func (r RoutingResult) ToJSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// =============================================================================
// COMPLIANCE NOTES
// =============================================================================

// Notes appended by the router in addition to the policy reason.
const (
	NoteComplianceDisabled = "Compliance routing disabled - cloud allowed"
	NoteForcedOnPrem       = "forced on-prem by caller"
	NoteForcedCloud        = "forced cloud by caller"
	NoteCloudOverridden    = "WARNING: cloud was requested but compliance policy requires on-premises processing - request overridden"
	NoteOnPremDisabled     = "WARNING: on-premises processing is disabled - falling back to cloud"
	NoteNoOnPremModel      = "WARNING: no on-premises model available - falling back to cloud"
	NotePreferredUnknown   = "preferred model not found in catalog - ignored"
)

// =============================================================================
// STATS
// =============================================================================

// Stats are cumulative counters since the router was created or reset.
type Stats struct {
	Total         int64 `json:"total"`
	OnPrem        int64 `json:"onprem"`
	Cloud         int64 `json:"cloud"`
	Fallbacks     int64 `json:"fallbacks"`
	Forced        int64 `json:"forced"`
	Overridden    int64 `json:"overridden"`
	AuditFailures int64 `json:"audit_failures"`
}

// OnPremRate returns the share of routes served on-prem, 0-100.
func (s Stats) OnPremRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.OnPrem) / float64(s.Total) * 100
}
