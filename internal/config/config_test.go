// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-ide/internal/compliance"
	"github.com/jeranaias/rigrun-ide/internal/onprem"
)

// clearEnv isolates a test from RIGRUN_IDE_* variables in the caller's shell.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, "RIGRUN_IDE_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

// TestConfig_Default checks the built-in defaults validate and match the
// documented compliance defaults.
func TestConfig_Default(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, compliance.DefaultConfig(), cfg.Compliance)
	require.True(t, cfg.OnPrem.Enabled)
	require.Equal(t, 3000, cfg.OnPrem.ProbeTimeoutMs)
	require.Equal(t, 8788, cfg.Server.Port)
	require.Equal(t, "jsonl", cfg.Audit.Sink)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid default config", func(c *Config) {}, ""},
		{"invalid classification", func(c *Config) { c.Compliance.DataClassification = 9 }, "compliance.data_classification"},
		{"invalid environment", func(c *Config) { c.Compliance.TargetEnvironment = -1 }, "compliance.target_environment"},
		{"bad endpoint url", func(c *Config) { c.OnPrem.Endpoints[0].URL = "localhost:11434" }, "onprem.endpoints[0].url"},
		{"duplicate endpoint", func(c *Config) {
			c.OnPrem.Endpoints = append(c.OnPrem.Endpoints, onprem.Endpoint{Name: "local", URL: "http://gpu:11434"})
		}, "duplicate endpoint"},
		{"probe timeout too small", func(c *Config) { c.OnPrem.ProbeTimeoutMs = 10 }, "onprem.probe_timeout_ms"},
		{"unknown cloud default", func(c *Config) { c.Cloud.DefaultModel = "gpt-7" }, "cloud.default_model"},
		{"cloud default alias", func(c *Config) { c.Cloud.DefaultModel = "haiku" }, ""},
		{"unknown sink", func(c *Config) { c.Audit.Sink = "kafka" }, "audit.sink"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"zero rate", func(c *Config) { c.Server.RateLimitRPS = 0 }, "server.rate_limit_rps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateCollectsAll(t *testing.T) {
	c := Default()
	c.Server.Port = 0
	c.Audit.Sink = "nope"
	err := c.Validate()

	var errs ValidateErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 2)
}

// TestConfig_LoadFormats loads the same settings from each supported format.
func TestConfig_LoadFormats(t *testing.T) {
	clearEnv(t)
	files := map[string]string{
		"config.toml": `
[compliance]
enabled = true
data_classification = "confidential"
target_environment = "production"
strict_mode = true

[onprem]
enabled = false
endpoints = [{ name = "gpu", url = "http://gpu:11434" }]
`,
		"config.json": `{
  "compliance": {"enabled": true, "data_classification": "confidential", "target_environment": "production", "strict_mode": true},
  "onprem": {"enabled": false, "endpoints": [{"name": "gpu", "url": "http://gpu:11434"}]}
}`,
		"config.yaml": `
compliance:
  enabled: true
  data_classification: confidential
  target_environment: production
  strict_mode: true
onprem:
  enabled: false
  endpoints:
    - name: gpu
      url: http://gpu:11434
`,
	}

	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, os.WriteFile(path, []byte(body), 0600))

			cfg, err := LoadFromPath(path)
			require.NoError(t, err)
			require.Equal(t, compliance.ClassificationConfidential, cfg.Compliance.DataClassification)
			require.Equal(t, compliance.EnvironmentProduction, cfg.Compliance.TargetEnvironment)
			require.True(t, cfg.Compliance.StrictMode)
			require.False(t, cfg.OnPrem.Enabled)
			require.Equal(t, []onprem.Endpoint{{Name: "gpu", URL: "http://gpu:11434"}}, cfg.OnPrem.Endpoints)
			// Fields absent from the file keep their defaults.
			require.True(t, cfg.Compliance.AuditEnabled)
			require.Equal(t, 8788, cfg.Server.Port)
		})
	}
}

func TestConfig_LoadMissingFileIsDefault(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	require.Equal(t, compliance.DefaultConfig(), cfg.Compliance)
}

func TestConfig_LoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[compliance]\ndata_classification = \"ultra\"\n"), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
}

func TestConfig_LoadFixesPermissions(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 9000\n"), 0644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Server.Port)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("RIGRUN_IDE_CLASSIFICATION", "confidential")
	t.Setenv("RIGRUN_IDE_ENVIRONMENT", "prod")
	t.Setenv("RIGRUN_IDE_STRICT", "yes")
	t.Setenv("RIGRUN_IDE_ONPREM", "off")
	t.Setenv("RIGRUN_IDE_OLLAMA_URL", "http://10.0.0.5:11434")
	t.Setenv("RIGRUN_IDE_PORT", "9999")
	t.Setenv("RIGRUN_IDE_AUDIT", "maybe") // ignored

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	require.Equal(t, compliance.ClassificationConfidential, cfg.Compliance.DataClassification)
	require.Equal(t, compliance.EnvironmentProduction, cfg.Compliance.TargetEnvironment)
	require.True(t, cfg.Compliance.StrictMode)
	require.True(t, cfg.Compliance.AuditEnabled)
	require.False(t, cfg.OnPrem.Enabled)
	require.Equal(t, "http://10.0.0.5:11434", cfg.OnPrem.Endpoints[0].URL)
	require.Equal(t, 9999, cfg.Server.Port)
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	clearEnv(t)
	for _, name := range []string{"config.toml", "config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := Default()
			cfg.Compliance.DataClassification = compliance.ClassificationRestricted
			cfg.OnPrem.CodeModels = []string{"qwen2.5-coder:7b"}
			cfg.Server.AllowedOrigins = []string{"vscode-webview://abc"}
			require.NoError(t, Save(cfg, path))

			info, err := os.Stat(path)
			require.NoError(t, err)
			require.Equal(t, os.FileMode(0600), info.Mode().Perm())

			loaded, err := LoadFromPath(path)
			require.NoError(t, err)
			require.Equal(t, cfg.Compliance, loaded.Compliance)
			require.Equal(t, cfg.OnPrem.CodeModels, loaded.OnPrem.CodeModels)
			require.Equal(t, cfg.Server.AllowedOrigins, loaded.Server.AllowedOrigins)
		})
	}
}

// TestConfig_GetSet tests Get and Set methods with dot notation.
func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	val, err := cfg.Get("server.port")
	require.NoError(t, err)
	require.Equal(t, 8788, val)

	tests := []struct {
		key   string
		value string
		check func(c *Config) bool
	}{
		{"compliance.strict_mode", "true", func(c *Config) bool { return c.Compliance.StrictMode }},
		{"compliance.data_classification", "Confidential", func(c *Config) bool {
			return c.Compliance.DataClassification == compliance.ClassificationConfidential
		}},
		{"compliance.target_environment", "staging", func(c *Config) bool {
			return c.Compliance.TargetEnvironment == compliance.EnvironmentStaging
		}},
		{"onprem.probe_timeout_ms", "1500", func(c *Config) bool { return c.OnPrem.ProbeTimeoutMs == 1500 }},
		{"onprem.code_markers", "coder, starcoder", func(c *Config) bool {
			return len(c.OnPrem.CodeMarkers) == 2 && c.OnPrem.CodeMarkers[1] == "starcoder"
		}},
		{"server.rate_limit_rps", "2.5", func(c *Config) bool { return c.Server.RateLimitRPS == 2.5 }},
		{"cloud.default-model", "sonnet", func(c *Config) bool { return c.Cloud.DefaultModel == "sonnet" }},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			require.NoError(t, cfg.Set(tt.key, tt.value))
			require.True(t, tt.check(cfg))
		})
	}

	require.Error(t, cfg.Set("compliance.data_classification", "ultra"))
	require.Error(t, cfg.Set("compliance.strict_mode", "maybe"))
	require.Error(t, cfg.Set("server.port", "eighty"))
	_, err = cfg.Get("invalid.key")
	require.Error(t, err)
	_, err = cfg.Get("server.port.value")
	require.Error(t, err)
}

func TestConfig_AllKeysResolve(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		_, err := cfg.Get(key)
		require.NoError(t, err, key)
	}
}

// TestConfig_Clone tests that Clone creates an independent copy.
func TestConfig_Clone(t *testing.T) {
	original := Default()
	clone := original.Clone()

	clone.OnPrem.Endpoints[0].URL = "http://other:11434"
	clone.OnPrem.CodeMarkers[0] = "changed"
	clone.Compliance.StrictMode = true

	require.Equal(t, "http://127.0.0.1:11434", original.OnPrem.Endpoints[0].URL)
	require.Equal(t, "coder", original.OnPrem.CodeMarkers[0])
	require.False(t, original.Compliance.StrictMode)
}

func TestConfig_StringRedactsSecrets(t *testing.T) {
	cfg := Default()
	cfg.Server.BearerToken = "tok-123"
	cfg.Audit.SealKey = "seal-456"

	s := cfg.String()
	require.NotContains(t, s, "tok-123")
	require.NotContains(t, s, "seal-456")
	require.Contains(t, s, "[REDACTED]")
	require.Equal(t, "tok-123", cfg.Server.BearerToken, "original untouched")
	require.True(t, IsSecretKey("server.bearer_token"))
	require.False(t, IsSecretKey("server.port"))
}

// =============================================================================
// STORE
// =============================================================================

func TestStore_GetMissingFileIsDefault(t *testing.T) {
	clearEnv(t)
	s := NewStore(filepath.Join(t.TempDir(), "config.toml"))
	require.Equal(t, compliance.DefaultConfig(), s.Get())
	require.True(t, s.OnPremEnabled())
}

func TestStore_GetCorruptFileIsDefault(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[compliance\nstrict_mode = ???"), 0600))

	s := NewStore(path)
	require.Equal(t, compliance.DefaultConfig(), s.Get())
}

func TestStore_GetIgnoresErrorsOutsideCompliance(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `[compliance]
enabled = true
strict_mode = true
data_classification = "confidential"
target_environment = "production"

[onprem]
enabled = false

[audit]
sink = "jsonl2"

[server]
port = 70000
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	s := NewStore(path)
	_, err := s.Load()
	require.Error(t, err, "full load still reports the bad sections")

	got, onPrem := s.Snapshot()
	require.True(t, got.StrictMode)
	require.Equal(t, compliance.ClassificationConfidential, got.DataClassification)
	require.Equal(t, compliance.EnvironmentProduction, got.TargetEnvironment)
	require.False(t, onPrem)
	require.Equal(t, got, s.Get())
	require.False(t, s.OnPremEnabled())
}

func TestStore_SetPersistsAndIsReadFresh(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	s := NewStore(path)

	strict := true
	conf := compliance.ClassificationConfidential
	got, err := s.Set(CompliancePatch{StrictMode: &strict, DataClassification: &conf})
	require.NoError(t, err)
	require.True(t, got.StrictMode)
	require.Equal(t, conf, got.DataClassification)

	// A second store over the same file sees the change.
	other := NewStore(path)
	require.Equal(t, got, other.Get())

	// Edits made outside the store are visible on the next Get.
	require.NoError(t, os.WriteFile(path, []byte("[compliance]\nenabled = false\n"), 0600))
	require.False(t, s.Get().Enabled)
}

func TestStore_SetDoesNotPersistEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	s := NewStore(path)
	t.Setenv("RIGRUN_IDE_CLASSIFICATION", "restricted")

	strict := true
	_, err := s.Set(CompliancePatch{StrictMode: &strict})
	require.NoError(t, err)

	raw, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, compliance.ClassificationInternal, raw.Compliance.DataClassification)
	require.Equal(t, compliance.ClassificationRestricted, s.Get().DataClassification)
}

func TestStore_SetRejectsInvalid(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	s := NewStore(path)

	bad := compliance.DataClassification(42)
	_, err := s.Set(CompliancePatch{DataClassification: &bad})
	require.Error(t, err)
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "nothing written on failure")

	require.Error(t, s.SetKey("nope.key", "1"))
	require.NoError(t, s.SetKey("onprem.enabled", "false"))
	require.False(t, s.OnPremEnabled())
}

func TestStore_ConcurrentSet(t *testing.T) {
	clearEnv(t)
	s := NewStore(filepath.Join(t.TempDir(), "config.toml"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v := i%2 == 0
			if _, err := s.Set(CompliancePatch{StrictMode: &v}); err != nil {
				t.Errorf("Set: %v", err)
			}
		}(i)
	}
	wg.Wait()

	_, err := s.Load()
	require.NoError(t, err)
}

func TestCompliancePatchEmpty(t *testing.T) {
	require.True(t, CompliancePatch{}.Empty())
	v := false
	require.False(t, CompliancePatch{Enabled: &v}.Empty())
}
