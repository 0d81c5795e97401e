// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/rigrun-ide/internal/audit"
	"github.com/jeranaias/rigrun-ide/internal/catalog"
	"github.com/jeranaias/rigrun-ide/internal/compliance"
	"github.com/jeranaias/rigrun-ide/internal/onprem"
	"github.com/jeranaias/rigrun-ide/internal/router"
	"github.com/jeranaias/rigrun-ide/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the full settings file.
type Config struct {
	// Compliance is the ambient policy configuration read on every route.
	Compliance compliance.Config `toml:"compliance" json:"compliance" yaml:"compliance"`

	// OnPrem controls model discovery.
	OnPrem OnPremConfig `toml:"onprem" json:"onprem" yaml:"onprem"`

	// Cloud controls cloud selection.
	Cloud CloudConfig `toml:"cloud" json:"cloud" yaml:"cloud"`

	// Audit selects the audit sink.
	Audit AuditConfig `toml:"audit" json:"audit" yaml:"audit"`

	// Server configures `rigrun-ide serve`.
	Server ServerConfig `toml:"server" json:"server" yaml:"server"`
}

// OnPremConfig configures on-prem discovery.
type OnPremConfig struct {
	// Enabled is the administrative switch. When false every on-prem route
	// falls back to cloud with a warning.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Endpoints are the Ollama servers to probe.
	Endpoints []onprem.Endpoint `toml:"endpoints" json:"endpoints" yaml:"endpoints"`

	// ProbeTimeoutMs bounds each endpoint listing.
	ProbeTimeoutMs int `toml:"probe_timeout_ms" json:"probe_timeout_ms" yaml:"probe_timeout_ms"`

	// ProbeIntervalMs is the minimum spacing between live probes of one endpoint.
	ProbeIntervalMs int `toml:"probe_interval_ms" json:"probe_interval_ms" yaml:"probe_interval_ms"`

	// CodeMarkers are identifier substrings that mark a code-specialist model.
	CodeMarkers []string `toml:"code_markers" json:"code_markers" yaml:"code_markers"`

	// CodeModels are model names explicitly tagged with the "code" capability.
	CodeModels []string `toml:"code_models" json:"code_models" yaml:"code_models"`
}

// ProbeTimeout returns ProbeTimeoutMs as a duration.
func (o OnPremConfig) ProbeTimeout() time.Duration {
	return time.Duration(o.ProbeTimeoutMs) * time.Millisecond
}

// ProbeInterval returns ProbeIntervalMs as a duration.
func (o OnPremConfig) ProbeInterval() time.Duration {
	return time.Duration(o.ProbeIntervalMs) * time.Millisecond
}

// CloudConfig configures cloud selection.
type CloudConfig struct {
	// DefaultModel replaces the catalog's recommended model for tasks with no
	// category preference. Must be a catalog id or alias when set.
	DefaultModel string `toml:"default_model" json:"default_model" yaml:"default_model"`
}

// AuditConfig selects and configures the audit sink.
type AuditConfig struct {
	Sink       string `toml:"sink" json:"sink" yaml:"sink"`
	Path       string `toml:"path" json:"path" yaml:"path"`
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
	// SealKey enables HMAC chaining of JSONL records.
	SealKey string `toml:"seal_key" json:"seal_key" yaml:"seal_key"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host           string   `toml:"host" json:"host" yaml:"host"`
	Port           int      `toml:"port" json:"port" yaml:"port"`
	BearerToken    string   `toml:"bearer_token" json:"bearer_token" yaml:"bearer_token"`
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins" yaml:"allowed_origins"`
	RateLimitRPS   float64  `toml:"rate_limit_rps" json:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst int      `toml:"rate_limit_burst" json:"rate_limit_burst" yaml:"rate_limit_burst"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a new Config with built-in defaults.
func Default() *Config {
	return &Config{
		Compliance: compliance.DefaultConfig(),
		OnPrem: OnPremConfig{
			Enabled:         true,
			Endpoints:       []onprem.Endpoint{{Name: "local", URL: "http://127.0.0.1:11434"}},
			ProbeTimeoutMs:  int(onprem.DefaultProbeTimeout / time.Millisecond),
			ProbeIntervalMs: int(onprem.DefaultProbeInterval / time.Millisecond),
			CodeMarkers:     append([]string(nil), router.DefaultCodeMarkers...),
		},
		Audit: AuditConfig{
			Sink:       audit.KindJSONL,
			MaxSizeMB:  audit.DefaultMaxSizeMB,
			MaxBackups: audit.DefaultMaxBackups,
		},
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8788,
			RateLimitRPS:   10,
			RateLimitBurst: 20,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// EnvConfigPath names a settings file that replaces the default location.
const EnvConfigPath = "RIGRUN_IDE_CONFIG"

// ConfigDir returns the configuration directory (~/.rigrun-ide).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".rigrun-ide"), nil
}

// DefaultPath returns the settings file to use: $RIGRUN_IDE_CONFIG if set,
// else the first of config.toml, config.json, config.yaml that exists in
// ConfigDir, else config.toml.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	for _, name := range []string{"config.toml", "config.json", "config.yaml", "config.yml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only) to protect tokens.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// ErrNotFound is returned by LoadFile when the file does not exist.
var ErrNotFound = errors.New("config file not found")

// Load loads the settings from DefaultPath.
// Order: defaults, file, environment overrides, SetDefaults, Validate.
// A missing file is not an error.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads the settings from path with env overrides and validation.
// A missing file yields the defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if cfg == nil {
		cfg = Default()
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFile decodes path over the defaults without env overrides or
// validation. The format is chosen by extension: .json, .yaml/.yml, else TOML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// SECURITY: fix permissions, but do not fail if the platform refuses
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	// Lists present in the file replace the defaults rather than merging.
	cfg := Default()

	switch formatOf(path) {
	case formatJSON:
		err = json.Unmarshal(data, cfg)
	case formatYAML:
		err = yaml.Unmarshal(data, cfg)
	default:
		_, err = toml.Decode(string(data), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

type fileFormat int

const (
	formatTOML fileFormat = iota
	formatJSON
	formatYAML
)

func formatOf(path string) fileFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatTOML
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to path atomically with 0600 permissions, in the format
// implied by the extension.
func Save(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	switch formatOf(path) {
	case formatJSON:
		data, err = json.MarshalIndent(cfg, "", "  ")
	case formatYAML:
		data, err = yaml.Marshal(cfg)
	default:
		var buf bytes.Buffer
		buf.WriteString("# rigrun-ide configuration file\n")
		buf.WriteString("# Generated by rigrun-ide - edit with care\n\n")
		err = toml.NewEncoder(&buf).Encode(cfg)
		data = buf.Bytes()
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	// SECURITY: 0600 = owner read/write only
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Compliance
	if !c.Compliance.DataClassification.IsValid() {
		add("compliance.data_classification", "invalid value %d", int(c.Compliance.DataClassification))
	}
	if !c.Compliance.TargetEnvironment.IsValid() {
		add("compliance.target_environment", "invalid value %d", int(c.Compliance.TargetEnvironment))
	}

	// On-prem
	seen := make(map[string]bool)
	for i, ep := range c.OnPrem.Endpoints {
		field := fmt.Sprintf("onprem.endpoints[%d]", i)
		if ep.Name != "" {
			if seen[ep.Name] {
				add(field+".name", "duplicate endpoint name %q", ep.Name)
			}
			seen[ep.Name] = true
		}
		u, err := url.Parse(ep.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add(field+".url", "must be an http(s) URL, got %q", ep.URL)
		}
	}
	if c.OnPrem.ProbeTimeoutMs < 100 || c.OnPrem.ProbeTimeoutMs > 60000 {
		add("onprem.probe_timeout_ms", "must be between 100 and 60000, got %d", c.OnPrem.ProbeTimeoutMs)
	}
	if c.OnPrem.ProbeIntervalMs < 0 {
		add("onprem.probe_interval_ms", "must not be negative, got %d", c.OnPrem.ProbeIntervalMs)
	}

	// Cloud
	if c.Cloud.DefaultModel != "" {
		if _, ok := catalog.DefaultCloud().Lookup(c.Cloud.DefaultModel); !ok {
			add("cloud.default_model", "unknown cloud model %q", c.Cloud.DefaultModel)
		}
	}

	// Audit
	switch c.Audit.Sink {
	case audit.KindJSONL, audit.KindSQLite, audit.KindMemory, audit.KindNone:
	default:
		add("audit.sink", "must be one of jsonl, sqlite, memory, none; got %q", c.Audit.Sink)
	}
	if c.Audit.MaxSizeMB <= 0 {
		add("audit.max_size_mb", "must be positive, got %d", c.Audit.MaxSizeMB)
	}
	if c.Audit.MaxBackups < 0 {
		add("audit.max_backups", "must not be negative, got %d", c.Audit.MaxBackups)
	}

	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		add("server.port", "must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS <= 0 {
		add("server.rate_limit_rps", "must be positive, got %g", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitBurst < 1 {
		add("server.rate_limit_burst", "must be at least 1, got %d", c.Server.RateLimitBurst)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values that have a sensible default.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.OnPrem.ProbeTimeoutMs == 0 {
		c.OnPrem.ProbeTimeoutMs = defaults.OnPrem.ProbeTimeoutMs
	}
	if len(c.OnPrem.CodeMarkers) == 0 {
		c.OnPrem.CodeMarkers = defaults.OnPrem.CodeMarkers
	}
	for i := range c.OnPrem.Endpoints {
		if c.OnPrem.Endpoints[i].Name == "" {
			if i == 0 {
				c.OnPrem.Endpoints[i].Name = "local"
			} else {
				c.OnPrem.Endpoints[i].Name = "endpoint-" + strconv.Itoa(i+1)
			}
		}
	}

	if c.Audit.Sink == "" {
		c.Audit.Sink = defaults.Audit.Sink
	}
	if c.Audit.MaxSizeMB == 0 {
		c.Audit.MaxSizeMB = defaults.Audit.MaxSizeMB
	}
	if c.Audit.Path == "" {
		c.Audit.Path = defaultAuditPath(c.Audit.Sink)
	}

	if c.Server.Host == "" {
		c.Server.Host = defaults.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Server.RateLimitRPS == 0 {
		c.Server.RateLimitRPS = defaults.Server.RateLimitRPS
	}
	if c.Server.RateLimitBurst == 0 {
		c.Server.RateLimitBurst = defaults.Server.RateLimitBurst
	}
}

func defaultAuditPath(sink string) string {
	dir, err := ConfigDir()
	if err != nil {
		dir = ".rigrun-ide"
	}
	name := "routing.jsonl"
	if sink == audit.KindSQLite {
		name = "routing.db"
	}
	return filepath.Join(dir, "audit", name)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - RIGRUN_IDE_COMPLIANCE: "0"/"false" disables compliance routing
//   - RIGRUN_IDE_CLASSIFICATION: overrides compliance.data_classification
//   - RIGRUN_IDE_ENVIRONMENT: overrides compliance.target_environment
//   - RIGRUN_IDE_STRICT: overrides compliance.strict_mode
//   - RIGRUN_IDE_AUDIT: overrides compliance.audit_enabled
//   - RIGRUN_IDE_ONPREM: overrides onprem.enabled
//   - RIGRUN_IDE_OLLAMA_URL: replaces onprem.endpoints with a single "local" endpoint
//   - RIGRUN_IDE_AUDIT_SINK, RIGRUN_IDE_AUDIT_PATH, RIGRUN_IDE_SEAL_KEY: audit settings
//   - RIGRUN_IDE_PORT, RIGRUN_IDE_TOKEN: server settings
//
// Unparseable values are reported on stderr and ignored.
func (c *Config) ApplyEnvOverrides() {
	envBool := func(name string, dst *bool) {
		if v := os.Getenv(name); v != "" {
			if b, ok := util.ParseBool(v); ok {
				*dst = b
			} else {
				fmt.Fprintf(os.Stderr, "Warning: ignoring %s=%q (not a boolean)\n", name, v)
			}
		}
	}

	envBool("RIGRUN_IDE_COMPLIANCE", &c.Compliance.Enabled)
	envBool("RIGRUN_IDE_STRICT", &c.Compliance.StrictMode)
	envBool("RIGRUN_IDE_AUDIT", &c.Compliance.AuditEnabled)
	envBool("RIGRUN_IDE_ONPREM", &c.OnPrem.Enabled)

	if v := os.Getenv("RIGRUN_IDE_CLASSIFICATION"); v != "" {
		if d, err := compliance.ParseDataClassification(v); err == nil {
			c.Compliance.DataClassification = d
		} else {
			fmt.Fprintf(os.Stderr, "Warning: ignoring RIGRUN_IDE_CLASSIFICATION: %v\n", err)
		}
	}
	if v := os.Getenv("RIGRUN_IDE_ENVIRONMENT"); v != "" {
		if e, err := compliance.ParseTargetEnvironment(v); err == nil {
			c.Compliance.TargetEnvironment = e
		} else {
			fmt.Fprintf(os.Stderr, "Warning: ignoring RIGRUN_IDE_ENVIRONMENT: %v\n", err)
		}
	}

	if v := os.Getenv("RIGRUN_IDE_OLLAMA_URL"); v != "" {
		c.OnPrem.Endpoints = []onprem.Endpoint{{Name: "local", URL: v}}
	}

	if v := os.Getenv("RIGRUN_IDE_AUDIT_SINK"); v != "" {
		c.Audit.Sink = strings.ToLower(v)
	}
	if v := os.Getenv("RIGRUN_IDE_AUDIT_PATH"); v != "" {
		c.Audit.Path = v
	}
	if v := os.Getenv("RIGRUN_IDE_SEAL_KEY"); v != "" {
		c.Audit.SealKey = v
	}

	if v := os.Getenv("RIGRUN_IDE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		} else {
			fmt.Fprintf(os.Stderr, "Warning: ignoring RIGRUN_IDE_PORT=%q\n", v)
		}
	}
	if v := os.Getenv("RIGRUN_IDE_TOKEN"); v != "" {
		c.Server.BearerToken = v
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g. "compliance.strict_mode").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type; enum fields accept their names.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(part[:1]))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		// Enum types parse their own names.
		if field.CanAddr() && field.Addr().Type().Implements(textUnmarshalerType) {
			return field.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(strVal))
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal, ok := util.ParseBool(strVal)
			if !ok {
				return fmt.Errorf("invalid boolean value: %q", strVal)
			}
			field.SetBool(boolVal)
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				field.Set(reflect.ValueOf(util.SplitList(strVal)))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all scalar configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"compliance.enabled",
		"compliance.data_classification",
		"compliance.target_environment",
		"compliance.audit_enabled",
		"compliance.strict_mode",
		"onprem.enabled",
		"onprem.probe_timeout_ms",
		"onprem.probe_interval_ms",
		"onprem.code_markers",
		"onprem.code_models",
		"cloud.default_model",
		"audit.sink",
		"audit.path",
		"audit.max_size_mb",
		"audit.max_backups",
		"audit.seal_key",
		"server.host",
		"server.port",
		"server.bearer_token",
		"server.allowed_origins",
		"server.rate_limit_rps",
		"server.rate_limit_burst",
	}
}

// IsSecretKey reports whether key holds a secret that must not be displayed.
func IsSecretKey(key string) bool {
	switch strings.ToLower(key) {
	case "audit.seal_key", "server.bearer_token":
		return true
	}
	return false
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.OnPrem.Endpoints = append([]onprem.Endpoint(nil), c.OnPrem.Endpoints...)
	clone.OnPrem.CodeMarkers = append([]string(nil), c.OnPrem.CodeMarkers...)
	clone.OnPrem.CodeModels = append([]string(nil), c.OnPrem.CodeModels...)
	clone.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	return &clone
}

// Redacted returns a copy with secrets replaced by "[REDACTED]".
func (c *Config) Redacted() *Config {
	safe := c.Clone()
	if safe.Server.BearerToken != "" {
		safe.Server.BearerToken = "[REDACTED]"
	}
	if safe.Audit.SealKey != "" {
		safe.Audit.SealKey = "[REDACTED]"
	}
	return safe
}

// String returns a JSON representation with secrets redacted.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c.Redacted(), "", "  ")
	return string(data)
}
