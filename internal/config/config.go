// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/traverse-tui/internal/session"
	"github.com/jeranaias/traverse-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the main configuration structure for traverse.
type Config struct {
	// Version of the config file format.
	Version string `toml:"version" json:"version" yaml:"version"`

	Environment EnvironmentConfig `toml:"environment" json:"environment" yaml:"environment"`
	Session     SessionConfig     `toml:"session" json:"session" yaml:"session"`
	Storage     StorageConfig     `toml:"storage" json:"storage" yaml:"storage"`
	Logging     LoggingConfig     `toml:"logging" json:"logging" yaml:"logging"`
	Metrics     MetricsConfig     `toml:"metrics" json:"metrics" yaml:"metrics"`
	API         APIConfig         `toml:"api" json:"api" yaml:"api"`
}

// EnvironmentConfig identifies the back-office deployment and the Entra ID
// application registration.
type EnvironmentConfig struct {
	// Name of the preset the values came from ("development", "qa").
	Name string `toml:"name" json:"name" yaml:"name"`

	// APIURL is the REST root, ending in /api/v1/.
	APIURL string `toml:"api_url" json:"api_url" yaml:"api_url"`

	TenantID string `toml:"tenant_id" json:"tenant_id" yaml:"tenant_id"`
	ClientID string `toml:"client_id" json:"client_id" yaml:"client_id"`
	Scope    string `toml:"scope" json:"scope" yaml:"scope"`

	// RedirectPort is the loopback port receiving the sign-in redirect.
	RedirectPort int `toml:"redirect_port" json:"redirect_port" yaml:"redirect_port"`

	// BlobURL hosts the instruction letters.
	BlobURL string `toml:"blob_url" json:"blob_url" yaml:"blob_url"`
}

// SessionConfig holds the idle-logout window.
type SessionConfig struct {
	// IdleTimeoutSecs is the inactivity window before logout.
	IdleTimeoutSecs int `toml:"idle_timeout_secs" json:"idle_timeout_secs" yaml:"idle_timeout_secs"`

	// WarningLeadSecs is how long before logout the warning appears.
	WarningLeadSecs int `toml:"warning_lead_secs" json:"warning_lead_secs" yaml:"warning_lead_secs"`

	// ReportFocus maps terminal focus loss to the inactive phase.
	ReportFocus bool `toml:"report_focus" json:"report_focus" yaml:"report_focus"`
}

// StorageConfig locates the local database and its key file.
type StorageConfig struct {
	DBPath  string `toml:"db_path" json:"db_path" yaml:"db_path"`
	KeyPath string `toml:"key_path" json:"key_path" yaml:"key_path"`
}

// LoggingConfig controls the application and audit logs.
type LoggingConfig struct {
	Level      string `toml:"level" json:"level" yaml:"level"`
	File       string `toml:"file" json:"file" yaml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" json:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `toml:"compress" json:"compress" yaml:"compress"`

	// AuditFile receives the session and decision audit trail.
	AuditFile string `toml:"audit_file" json:"audit_file" yaml:"audit_file"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// ListenAddr is host:port for /metrics. Empty disables the endpoint.
	ListenAddr string `toml:"listen_addr" json:"listen_addr" yaml:"listen_addr"`
}

// APIConfig tunes the REST client.
type APIConfig struct {
	TimeoutSecs       int     `toml:"timeout_secs" json:"timeout_secs" yaml:"timeout_secs"`
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `toml:"burst" json:"burst" yaml:"burst"`
	// MaxRetries is how often an idempotent request failing with 5xx is retried.
	MaxRetries        int     `toml:"max_retries" json:"max_retries" yaml:"max_retries"`
}

// =============================================================================
// ENVIRONMENT PRESETS
// =============================================================================

// Preset names.
const (
	EnvDevelopment = "development"
	EnvQA          = "qa"
)

const (
	defaultTenantID = "734e360f-9a39-4178-8e90-cb94d8c322ed"
	defaultClientID = "251c9255-06eb-4d4e-a34e-17cba8f98b6d"

	// DefaultRedirectPort is registered as http://localhost:{port}/auth.
	DefaultRedirectPort = 53682
)

// Presets are the known deployments.
var Presets = map[string]EnvironmentConfig{
	EnvDevelopment: {
		Name:         EnvDevelopment,
		APIURL:       "https://afc-backend-02.azurewebsites.net/api/v1/",
		TenantID:     defaultTenantID,
		ClientID:     defaultClientID,
		Scope:        "api://" + defaultClientID + "/access_as_user",
		RedirectPort: DefaultRedirectPort,
		BlobURL:      "https://afcdevst.blob.core.windows.net/container",
	},
	EnvQA: {
		Name:         EnvQA,
		APIURL:       "https://afc-frontdoor-endpoint-f5e5f8a7c4dud4cv.a02.azurefd.net/api/v1/",
		TenantID:     defaultTenantID,
		ClientID:     defaultClientID,
		Scope:        "api://" + defaultClientID + "/access_as_user",
		RedirectPort: DefaultRedirectPort,
		BlobURL:      "https://afcdevteststorageaccount.blob.core.windows.net/container",
	},
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UsePreset replaces the environment section with the named preset.
func (c *Config) UsePreset(name string) error {
	p, ok := Presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return fmt.Errorf("unknown environment %q, must be one of: %s", name, strings.Join(PresetNames(), ", "))
	}
	c.Environment = p
	return nil
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// CurrentVersion is the config format written by Save.
const CurrentVersion = "1"

// Default returns the default configuration.
func Default() *Config {
	dir, err := ConfigDir()
	if err != nil {
		dir = ".traverse"
	}

	return &Config{
		Version:     CurrentVersion,
		Environment: Presets[EnvDevelopment],
		Session: SessionConfig{
			IdleTimeoutSecs: int(session.DefaultIdleTimeout / time.Second),
			WarningLeadSecs: int(session.DefaultWarningLead / time.Second),
			ReportFocus:     true,
		},
		Storage: StorageConfig{
			DBPath:  filepath.Join(dir, "traverse.db"),
			KeyPath: filepath.Join(dir, "storage.key"),
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       filepath.Join(dir, "logs", "traverse.log"),
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
			AuditFile:  filepath.Join(dir, "logs", "audit.log"),
		},
		API: APIConfig{
			TimeoutSecs:       30,
			RequestsPerSecond: 5,
			Burst:             10,
			MaxRetries:        2,
		},
	}
}

// IdleWindow converts the session section into the controller's settings.
func (c *Config) IdleWindow() session.Config {
	return session.Config{
		IdleTimeout: time.Duration(c.Session.IdleTimeoutSecs) * time.Second,
		WarningLead: time.Duration(c.Session.WarningLeadSecs) * time.Second,
	}
}

// APITimeout returns the REST request timeout.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the traverse configuration directory path.
// TRAVERSE_HOME overrides the default of ~/.traverse.
func ConfigDir() (string, error) {
	if dir := os.Getenv("TRAVERSE_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".traverse"), nil
}

func configPath(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) { return configPath("config.toml") }

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) { return configPath("config.json") }

// ConfigPathYAML returns the path to the YAML config file.
func ConfigPathYAML() (string, error) { return configPath("config.yaml") }

// ensureSecurePermissions tightens a config file to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// FilePath returns the config file Load would read, or the TOML path when
// none exists yet.
func FilePath() (string, error) {
	for _, fn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON, ConfigPathYAML} {
		p, err := fn()
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return ConfigPathTOML()
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration with the precedence, highest first:
// TRAVERSE_* variables, .env files, config.toml, config.json, config.yaml,
// built-in defaults.
func Load() (*Config, error) {
	LoadDotEnv()

	path, err := FilePath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		return LoadFromPath(path)
	}

	cfg := Default()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env from the working directory and the config
// directory. Variables already set in the process are not overwritten.
func LoadDotEnv() {
	candidates := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", p, err)
		}
	}
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadYAML loads configuration from a YAML file.
func LoadYAML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode YAML file: %w", err)
	}
	return nil
}

// LoadFromPath loads a specific file, picking the decoder from its
// extension, then applies environment overrides, defaults and validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = LoadJSON(cfg, path)
	case ".yaml", ".yml":
		err = LoadYAML(cfg, path)
	default:
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) finish() error {
	if err := c.ApplyEnvOverrides(); err != nil {
		return err
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SetDefaults fills zero values from Default. A named environment with no
// API URL takes the preset's values.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}

	if c.Environment.APIURL == "" {
		name := c.Environment.Name
		if name == "" {
			name = EnvDevelopment
		}
		if p, ok := Presets[strings.ToLower(name)]; ok {
			port := c.Environment.RedirectPort
			c.Environment = p
			if port != 0 {
				c.Environment.RedirectPort = port
			}
		}
	}
	if c.Environment.RedirectPort == 0 {
		c.Environment.RedirectPort = DefaultRedirectPort
	}

	if c.Session.IdleTimeoutSecs == 0 {
		c.Session.IdleTimeoutSecs = d.Session.IdleTimeoutSecs
	}
	if c.Session.WarningLeadSecs == 0 {
		c.Session.WarningLeadSecs = d.Session.WarningLeadSecs
	}

	if c.Storage.DBPath == "" {
		c.Storage.DBPath = d.Storage.DBPath
	}
	if c.Storage.KeyPath == "" {
		c.Storage.KeyPath = d.Storage.KeyPath
	}

	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.File == "" {
		c.Logging.File = d.Logging.File
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = d.Logging.MaxSizeMB
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = d.Logging.MaxBackups
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = d.Logging.MaxAgeDays
	}
	if c.Logging.AuditFile == "" {
		c.Logging.AuditFile = d.Logging.AuditFile
	}

	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = d.API.TimeoutSecs
	}
	if c.API.Burst == 0 {
		c.API.Burst = d.API.Burst
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = d.API.MaxRetries
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to the file Load reads, keeping its format. Without an
// existing file the TOML path is used.
func Save(cfg *Config) error {
	path, err := FilePath()
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return SaveJSON(cfg, path)
	case ".yaml", ".yml":
		return SaveYAML(cfg, path)
	default:
		return SaveTOML(cfg, path)
	}
}

// SaveTOML writes cfg atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# traverse configuration file\n")
	buf.WriteString("# Environment variables (TRAVERSE_*) take precedence over these values.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg as indented JSON, atomically with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveYAML writes cfg as YAML atomically with 0600 permissions.
func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0700); err != nil {
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
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether field failed validation.
func (e ValidateErrors) Has(field string) bool {
	for _, err := range e {
		if err.Field == field {
			return true
		}
	}
	return false
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate validates the configuration. The returned error is a
// ValidateErrors listing every problem.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Environment
	if u, err := url.Parse(c.Environment.APIURL); err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		add("environment.api_url", "must be an absolute http(s) URL, got %q", c.Environment.APIURL)
	}
	if strings.TrimSpace(c.Environment.TenantID) == "" {
		add("environment.tenant_id", "is required")
	}
	if strings.TrimSpace(c.Environment.ClientID) == "" {
		add("environment.client_id", "is required")
	}
	if c.Environment.RedirectPort < 1 || c.Environment.RedirectPort > 65535 {
		add("environment.redirect_port", "must be between 1 and 65535, got %d", c.Environment.RedirectPort)
	}

	// Session
	if c.Session.IdleTimeoutSecs <= 0 {
		add("session.idle_timeout_secs", "must be positive, got %d", c.Session.IdleTimeoutSecs)
	}
	if c.Session.WarningLeadSecs <= 0 || c.Session.WarningLeadSecs >= c.Session.IdleTimeoutSecs {
		add("session.warning_lead_secs", "must be positive and less than idle_timeout_secs (%d), got %d",
			c.Session.IdleTimeoutSecs, c.Session.WarningLeadSecs)
	}

	// Logging
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		add("logging.level", "invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		add("logging", "rotation limits must not be negative")
	}

	// Metrics
	if c.Metrics.ListenAddr != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.ListenAddr); err != nil {
			add("metrics.listen_addr", "must be host:port, got %q", c.Metrics.ListenAddr)
		}
	}

	// API
	if c.API.TimeoutSecs < 0 {
		add("api.timeout_secs", "must not be negative, got %d", c.API.TimeoutSecs)
	}
	if c.API.RequestsPerSecond < 0 {
		add("api.requests_per_second", "must not be negative, got %g", c.API.RequestsPerSecond)
	}
	if c.API.Burst < 0 {
		add("api.burst", "must not be negative, got %d", c.API.Burst)
	}
	if c.API.MaxRetries < 0 || c.API.MaxRetries > 5 {
		add("api.max_retries", "must be between 0 and 5, got %d", c.API.MaxRetries)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - TRAVERSE_ENV: selects a preset (development, qa)
//   - TRAVERSE_API_URL: overrides environment.api_url
//   - TRAVERSE_TENANT_ID: overrides environment.tenant_id
//   - TRAVERSE_CLIENT_ID: overrides environment.client_id
//   - TRAVERSE_SCOPE: overrides environment.scope
//   - TRAVERSE_REDIRECT_PORT: overrides environment.redirect_port
//   - TRAVERSE_IDLE_TIMEOUT_SECS: overrides session.idle_timeout_secs
//   - TRAVERSE_WARNING_LEAD_SECS: overrides session.warning_lead_secs
//   - TRAVERSE_DB_PATH: overrides storage.db_path
//   - TRAVERSE_LOG_LEVEL: overrides logging.level
//   - TRAVERSE_LOG_FILE: overrides logging.file
//   - TRAVERSE_METRICS_ADDR: overrides metrics.listen_addr
func (c *Config) ApplyEnvOverrides() error {
	// The preset goes first so the finer variables refine it.
	if name := os.Getenv("TRAVERSE_ENV"); name != "" {
		if err := c.UsePreset(name); err != nil {
			return fmt.Errorf("TRAVERSE_ENV: %w", err)
		}
	}

	strs := map[string]*string{
		"TRAVERSE_API_URL":      &c.Environment.APIURL,
		"TRAVERSE_TENANT_ID":    &c.Environment.TenantID,
		"TRAVERSE_CLIENT_ID":    &c.Environment.ClientID,
		"TRAVERSE_SCOPE":        &c.Environment.Scope,
		"TRAVERSE_DB_PATH":      &c.Storage.DBPath,
		"TRAVERSE_LOG_LEVEL":    &c.Logging.Level,
		"TRAVERSE_LOG_FILE":     &c.Logging.File,
		"TRAVERSE_METRICS_ADDR": &c.Metrics.ListenAddr,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"TRAVERSE_REDIRECT_PORT":     &c.Environment.RedirectPort,
		"TRAVERSE_IDLE_TIMEOUT_SECS": &c.Session.IdleTimeoutSecs,
		"TRAVERSE_WARNING_LEAD_SECS": &c.Session.WarningLeadSecs,
	}
	for name, dst := range ints {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", name, v)
		}
		*dst = n
	}
	return nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g.
// "session.idle_timeout_secs").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if field.Kind() == reflect.Struct {
		return fmt.Errorf("cannot set section: %s", key)
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
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
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
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strings.TrimSpace(strVal), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strings.TrimSpace(strVal), 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strings.TrimSpace(strVal))
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return errors.New("cannot assign nil")
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"environment.name",
		"environment.api_url",
		"environment.tenant_id",
		"environment.client_id",
		"environment.scope",
		"environment.redirect_port",
		"environment.blob_url",
		"session.idle_timeout_secs",
		"session.warning_lead_secs",
		"session.report_focus",
		"storage.db_path",
		"storage.key_path",
		"logging.level",
		"logging.file",
		"logging.max_size_mb",
		"logging.max_backups",
		"logging.max_age_days",
		"logging.compress",
		"logging.audit_file",
		"metrics.listen_addr",
		"api.timeout_secs",
		"api.requests_per_second",
		"api.burst",
		"api.max_retries",
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the configuration as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
