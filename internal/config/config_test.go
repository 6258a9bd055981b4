// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TRAVERSE_HOME", dir)
	for _, name := range []string{
		"TRAVERSE_ENV", "TRAVERSE_API_URL", "TRAVERSE_TENANT_ID", "TRAVERSE_CLIENT_ID",
		"TRAVERSE_SCOPE", "TRAVERSE_REDIRECT_PORT", "TRAVERSE_IDLE_TIMEOUT_SECS",
		"TRAVERSE_WARNING_LEAD_SECS", "TRAVERSE_DB_PATH", "TRAVERSE_LOG_LEVEL",
		"TRAVERSE_LOG_FILE", "TRAVERSE_METRICS_ADDR",
	} {
		t.Setenv(name, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestConfig_Default(t *testing.T) {
	isolate(t)
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, EnvDevelopment, cfg.Environment.Name)
	assert.Equal(t, 190, cfg.Session.IdleTimeoutSecs)
	assert.Equal(t, 70, cfg.Session.WarningLeadSecs)

	w := cfg.IdleWindow()
	assert.Equal(t, 190*time.Second, w.IdleTimeout)
	assert.Equal(t, 120*time.Second, w.WarnDelay())
	assert.NoError(t, w.Validate())
	assert.Equal(t, 30*time.Second, cfg.APITimeout())
}

func TestConfig_LoadWithoutFileUsesDefaults(t *testing.T) {
	dir := isolate(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Presets[EnvDevelopment].APIURL, cfg.Environment.APIURL)
	assert.Equal(t, filepath.Join(dir, "traverse.db"), cfg.Storage.DBPath)
}

func TestConfig_LoadTOML(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), `
[environment]
name = "qa"

[session]
idle_timeout_secs = 300
warning_lead_secs = 60

[logging]
level = "debug"
`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Presets[EnvQA].APIURL, cfg.Environment.APIURL)
	assert.Equal(t, 300, cfg.Session.IdleTimeoutSecs)
	assert.Equal(t, 60, cfg.Session.WarningLeadSecs)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.API.Burst, "missing values take defaults")
}

func TestConfig_LoadJSONAndYAML(t *testing.T) {
	dir := isolate(t)

	jsonPath := filepath.Join(dir, "alt.json")
	writeFile(t, jsonPath, `{"session": {"idle_timeout_secs": 90, "warning_lead_secs": 30}}`)
	cfg, err := LoadFromPath(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Session.IdleTimeoutSecs)

	yamlPath := filepath.Join(dir, "alt.yaml")
	writeFile(t, yamlPath, "environment:\n  name: qa\nmetrics:\n  listen_addr: \"127.0.0.1:9100\"\n")
	cfg, err = LoadFromPath(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, EnvQA, cfg.Environment.Name)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.ListenAddr)
}

func TestConfig_TOMLWinsOverJSON(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.json"), `{"logging": {"level": "error"}}`)
	writeFile(t, filepath.Join(dir, "config.toml"), "[logging]\nlevel = \"warn\"\n")

	p, err := FilePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), p)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestConfig_LoadTightensPermissions(t *testing.T) {
	dir := isolate(t)
	p := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(p, []byte("[logging]\nlevel = \"info\"\n"), 0644))

	_, err := Load()
	require.NoError(t, err)
	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfig_EnvOverrides(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "[session]\nidle_timeout_secs = 300\n")
	t.Setenv("TRAVERSE_ENV", "qa")
	t.Setenv("TRAVERSE_IDLE_TIMEOUT_SECS", "600")
	t.Setenv("TRAVERSE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvQA, cfg.Environment.Name)
	assert.Equal(t, 600, cfg.Session.IdleTimeoutSecs)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestConfig_EnvOverrideErrors(t *testing.T) {
	isolate(t)

	t.Setenv("TRAVERSE_ENV", "production")
	_, err := Load()
	assert.ErrorContains(t, err, "unknown environment")

	t.Setenv("TRAVERSE_ENV", "")
	t.Setenv("TRAVERSE_REDIRECT_PORT", "eighty")
	_, err = Load()
	assert.ErrorContains(t, err, "TRAVERSE_REDIRECT_PORT")
}

func TestConfig_DotEnvDoesNotOverrideProcessEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "TRAVERSE_LOG_LEVEL=error\nTRAVERSE_METRICS_ADDR=127.0.0.1:9200\n")
	t.Setenv("TRAVERSE_LOG_LEVEL", "warn")
	// godotenv only sets variables that are absent, so unset the cleared one.
	os.Unsetenv("TRAVERSE_METRICS_ADDR")
	t.Cleanup(func() { os.Unsetenv("TRAVERSE_METRICS_ADDR") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "127.0.0.1:9200", cfg.Metrics.ListenAddr)
}

func TestConfig_Validate(t *testing.T) {
	isolate(t)

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"lead equals timeout", func(c *Config) { c.Session.WarningLeadSecs = c.Session.IdleTimeoutSecs }, "session.warning_lead_secs"},
		{"lead exceeds timeout", func(c *Config) { c.Session.WarningLeadSecs = 500 }, "session.warning_lead_secs"},
		{"negative lead", func(c *Config) { c.Session.WarningLeadSecs = -1 }, "session.warning_lead_secs"},
		{"zero timeout", func(c *Config) { c.Session.IdleTimeoutSecs = 0 }, "session.idle_timeout_secs"},
		{"relative api url", func(c *Config) { c.Environment.APIURL = "api/v1" }, "environment.api_url"},
		{"missing tenant", func(c *Config) { c.Environment.TenantID = " " }, "environment.tenant_id"},
		{"bad port", func(c *Config) { c.Environment.RedirectPort = 70000 }, "environment.redirect_port"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad metrics addr", func(c *Config) { c.Metrics.ListenAddr = "9100" }, "metrics.listen_addr"},
		{"negative rps", func(c *Config) { c.API.RequestsPerSecond = -1 }, "api.requests_per_second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			var errs ValidateErrors
			require.ErrorAs(t, err, &errs)
			assert.True(t, errs.Has(tt.field), "expected %s in %v", tt.field, errs)
		})
	}
}

func TestConfig_InvalidFileIsRejected(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "[session]\nidle_timeout_secs = 60\nwarning_lead_secs = 90\n")

	_, err := Load()
	var errs ValidateErrors
	require.ErrorAs(t, err, &errs)
	assert.True(t, errs.Has("session.warning_lead_secs"))
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	dir := isolate(t)
	cfg := Default()
	require.NoError(t, cfg.UsePreset(EnvQA))
	cfg.Session.IdleTimeoutSecs = 240
	require.NoError(t, Save(cfg))

	p := filepath.Join(dir, "config.toml")
	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(p)
	require.NoError(t, err)
	assert.Equal(t, cfg.Environment, loaded.Environment)
	assert.Equal(t, 240, loaded.Session.IdleTimeoutSecs)
}

func TestConfig_SaveKeepsFormat(t *testing.T) {
	dir := isolate(t)
	p := filepath.Join(dir, "config.json")
	writeFile(t, p, `{"session": {"idle_timeout_secs": 200}}`)

	cfg, err := Load()
	require.NoError(t, err)
	cfg.API.MaxRetries = 4
	require.NoError(t, Save(cfg))

	_, err = os.Stat(filepath.Join(dir, "config.toml"))
	assert.True(t, os.IsNotExist(err), "a JSON config stays JSON")

	loaded, err := LoadFromPath(p)
	require.NoError(t, err)
	assert.Equal(t, 200, loaded.Session.IdleTimeoutSecs)
	assert.Equal(t, 4, loaded.API.MaxRetries)
}

func TestConfig_MaxRetriesRange(t *testing.T) {
	isolate(t)
	cfg := Default()
	assert.Equal(t, 2, cfg.API.MaxRetries)

	cfg.API.MaxRetries = 9
	var errs ValidateErrors
	require.ErrorAs(t, cfg.Validate(), &errs)
	assert.True(t, errs.Has("api.max_retries"))
}

func TestConfig_GetSet(t *testing.T) {
	isolate(t)
	cfg := Default()

	require.NoError(t, cfg.Set("session.idle_timeout_secs", "300"))
	v, err := cfg.Get("session.idle_timeout_secs")
	require.NoError(t, err)
	assert.Equal(t, 300, v)

	require.NoError(t, cfg.Set("environment.api_url", "https://example.com/api/v1/"))
	assert.Equal(t, "https://example.com/api/v1/", cfg.Environment.APIURL)

	require.NoError(t, cfg.Set("api.requests_per_second", "2.5"))
	assert.InDelta(t, 2.5, cfg.API.RequestsPerSecond, 1e-9)

	require.NoError(t, cfg.Set("session.report-focus", "no"))
	assert.False(t, cfg.Session.ReportFocus)

	assert.Error(t, cfg.Set("session.nope", "1"))
	assert.Error(t, cfg.Set("session", "1"))
	assert.Error(t, cfg.Set("session.idle_timeout_secs", "abc"))
	_, err = cfg.Get("")
	assert.Error(t, err)
}

func TestConfig_AllKeysResolve(t *testing.T) {
	isolate(t)
	cfg := Default()
	for _, key := range GetAllKeys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}

func TestConfig_Clone(t *testing.T) {
	isolate(t)
	cfg := Default()
	c := cfg.Clone()
	c.Session.IdleTimeoutSecs = 1
	assert.Equal(t, 190, cfg.Session.IdleTimeoutSecs)
	assert.Contains(t, cfg.String(), `"idle_timeout_secs": 190`)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := isolate(t)
	p := filepath.Join(dir, "config.toml")
	writeFile(t, p, "[session]\nidle_timeout_secs = 190\n")

	got := make(chan *Config, 4)
	w, err := NewWatcher(p, func(c *Config) { got <- c }, nil)
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond
	t.Cleanup(func() { w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// An invalid edit is ignored.
	writeFile(t, p, "[session]\nidle_timeout_secs = 10\nwarning_lead_secs = 20\n")
	select {
	case <-got:
		t.Fatal("invalid config was delivered")
	case <-time.After(300 * time.Millisecond):
	}

	writeFile(t, p, "[session]\nidle_timeout_secs = 400\nwarning_lead_secs = 100\n")
	select {
	case c := <-got:
		assert.Equal(t, 400*time.Second, c.IdleWindow().IdleTimeout)
		assert.Equal(t, 300*time.Second, c.IdleWindow().WarnDelay())
	case <-time.After(3 * time.Second):
		t.Fatal("config change not delivered")
	}
}
