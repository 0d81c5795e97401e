// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package compliance

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func cfg(strict bool, class DataClassification, env TargetEnvironment) Config {
	return Config{
		Enabled:            true,
		DataClassification: class,
		TargetEnvironment:  env,
		AuditEnabled:       true,
		StrictMode:         strict,
	}
}

func TestRequiresOnPrem_StrictModeDominates(t *testing.T) {
	d := RequiresOnPrem("explain this", cfg(true, ClassificationConfidential, EnvironmentLocal))
	require.True(t, d.Required)
	require.Contains(t, strings.ToLower(d.Reason), "strict mode")
}

func TestRequiresOnPrem_StrictModeIgnoresPublic(t *testing.T) {
	d := RequiresOnPrem("hello", cfg(true, ClassificationPublic, EnvironmentLocal))
	require.False(t, d.Required, "strict mode must not force on-prem for public data")
	require.Equal(t, "General task - cloud allowed", d.Reason)
}

func TestRequiresOnPrem_EnvironmentDriven(t *testing.T) {
	d := RequiresOnPrem("implement a function", cfg(false, ClassificationInternal, EnvironmentProduction))
	require.True(t, d.Required)
	require.Equal(t, CategoryCode, d.Category)
	require.Contains(t, d.Reason, "Code")
	require.Contains(t, d.Reason, "production")
}

func TestRequiresOnPrem_StagingIsShared(t *testing.T) {
	d := RequiresOnPrem("deploy to staging", cfg(false, ClassificationPublic, EnvironmentStaging))
	require.True(t, d.Required)
	require.Contains(t, d.Reason, "staging")
}

func TestRequiresOnPrem_ClassificationDriven(t *testing.T) {
	for _, class := range []DataClassification{ClassificationConfidential, ClassificationRestricted} {
		d := RequiresOnPrem("write a SQL query", cfg(false, class, EnvironmentDevelopment))
		require.True(t, d.Required, "class=%v", class)
		require.Contains(t, d.Reason, capitalize(class.String()))
	}
}

func TestRequiresOnPrem_CloudAllowed(t *testing.T) {
	d := RequiresOnPrem("write documentation", cfg(false, ClassificationInternal, EnvironmentDevelopment))
	require.False(t, d.Required)
	require.Equal(t, "Document tasks allowed on cloud", d.Reason)
}

func TestRequiresOnPrem_NonSensitiveIgnoresEnvironment(t *testing.T) {
	d := RequiresOnPrem("survey recent papers", cfg(false, ClassificationRestricted, EnvironmentProduction))
	require.False(t, d.Required)
	require.Equal(t, "Research tasks allowed on cloud", d.Reason)
}

// TestRequiresOnPrem_DistinctReasons verifies each branch explains itself differently.
func TestRequiresOnPrem_DistinctReasons(t *testing.T) {
	reasons := []string{
		RequiresOnPrem("anything", cfg(true, ClassificationInternal, EnvironmentLocal)).Reason,
		RequiresOnPrem("implement it", cfg(false, ClassificationPublic, EnvironmentProduction)).Reason,
		RequiresOnPrem("implement it", cfg(false, ClassificationRestricted, EnvironmentLocal)).Reason,
		RequiresOnPrem("design a page", cfg(false, ClassificationPublic, EnvironmentLocal)).Reason,
		RequiresOnPrem("hello", cfg(false, ClassificationPublic, EnvironmentLocal)).Reason,
	}
	seen := map[string]bool{}
	for _, r := range reasons {
		require.NotEmpty(t, r)
		require.False(t, seen[r], "duplicate reason %q", r)
		seen[r] = true
	}
}

// TestSensitiveTable pins the static sensitivity table.
func TestSensitiveTable(t *testing.T) {
	want := map[TaskCategory]bool{
		CategoryCode:     true,
		CategoryData:     true,
		CategoryTest:     true,
		CategoryDeploy:   true,
		CategoryDesign:   false,
		CategoryDocument: false,
		CategoryResearch: false,
		CategoryGeneral:  false,
	}
	for c, sensitive := range want {
		if c.IsSensitive() != sensitive {
			t.Errorf("%v.IsSensitive() = %v, want %v", c, c.IsSensitive(), sensitive)
		}
	}
}

func TestConfigWithOverrides(t *testing.T) {
	base := DefaultConfig()
	class := ClassificationRestricted
	env := EnvironmentProduction

	out := base.WithOverrides(&class, &env)
	require.Equal(t, ClassificationRestricted, out.DataClassification)
	require.Equal(t, EnvironmentProduction, out.TargetEnvironment)
	require.Equal(t, DefaultConfig(), base, "base config must not be mutated")

	same := base.WithOverrides(nil, nil)
	require.Equal(t, base, same)
}

func TestEnumTextRoundTrip(t *testing.T) {
	c := cfg(true, ClassificationConfidential, EnvironmentStaging)
	data, err := json.Marshal(c)
	require.NoError(t, err)
	require.Contains(t, string(data), `"data_classification":"confidential"`)
	require.Contains(t, string(data), `"target_environment":"staging"`)

	var back Config
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, c, back)
}

func TestParseErrors(t *testing.T) {
	_, err := ParseDataClassification("secret")
	require.Error(t, err)
	_, err = ParseTargetEnvironment("moon")
	require.Error(t, err)
	_, err = ParseTaskCategory("poetry")
	require.Error(t, err)

	env, err := ParseTargetEnvironment("PROD")
	require.NoError(t, err)
	require.Equal(t, EnvironmentProduction, env)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	bad := DefaultConfig()
	bad.DataClassification = DataClassification(42)
	require.Error(t, bad.Validate())
}
