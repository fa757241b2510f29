package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromFiles_Defaults(t *testing.T) {
	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "Task", config.Jira.DefaultIssueType)
	assert.Equal(t, DefaultDescriptionTemplate, config.Ticket.DescriptionTemplate)
	assert.Equal(t, time.Hour, config.Fields.CacheTTL.Duration)
	assert.Equal(t, "./data", config.Storage.Badger.Path)
}

func TestLoadFromFiles_LaterFileWins(t *testing.T) {
	base := writeConfig(t, "base.toml", `
[jira]
base_url = "example.atlassian.net/"
email = "me@example.com"
default_project = "OPS"
`)
	override := writeConfig(t, "override.toml", `
[jira]
default_project = "SUP"

[fields]
cache_ttl = "30m"
`)

	config, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	assert.Equal(t, "https://example.atlassian.net", config.Jira.BaseURL)
	assert.Equal(t, "me@example.com", config.Jira.Email)
	assert.Equal(t, "SUP", config.Jira.DefaultProject)
	assert.Equal(t, 30*time.Minute, config.Fields.CacheTTL.Duration)
}

func TestLoadFromFiles_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[server]
port = 9000
`)
	t.Setenv("MAILTICKET_SERVER_PORT", "9100")
	t.Setenv("MAILTICKET_LOG_OUTPUT", "stdout, file")

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, config.Server.Port)
	assert.Equal(t, []string{"stdout", "file"}, config.Logging.Output)
}

func TestLoadFromFiles_InvalidFile(t *testing.T) {
	path := writeConfig(t, "bad.toml", "[server\nport = ")

	_, err := LoadFromFiles(path)
	assert.Error(t, err)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()
	ApplyFlagOverrides(config, 7000, "0.0.0.0")

	assert.Equal(t, 7000, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)

	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 7000, config.Server.Port)
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"example.atlassian.net", "https://example.atlassian.net"},
		{"https://example.atlassian.net/", "https://example.atlassian.net"},
		{"http://jira.local//", "http://jira.local"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeBaseURL(tt.in), tt.in)
	}
}

func TestValidateJira(t *testing.T) {
	config := NewDefaultConfig()
	assert.Error(t, config.ValidateJira())

	config.Jira.BaseURL = "https://example.atlassian.net"
	config.Jira.Email = "me@example.com"
	config.Jira.APIToken = "token"
	assert.NoError(t, config.ValidateJira())

	config.Jira.Email = "not-an-email"
	assert.Error(t, config.ValidateJira())
}

func TestLoadFromFiles_DurationStrings(t *testing.T) {
	path := writeConfig(t, "durations.toml", `
[jira]
timeout = "10s"

[fields]
cache_ttl = "45m"

[browser]
timeout = "5s"
`)

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, config.Jira.Timeout.Duration)
	assert.Equal(t, 45*time.Minute, config.Fields.CacheTTL.Duration)
	assert.Equal(t, 5*time.Second, config.Browser.Timeout.Duration)
}

func TestLoadFromFiles_DurationWithoutUnitRejected(t *testing.T) {
	// A bare integer would otherwise be nanoseconds and expire the field cache at once
	path := writeConfig(t, "bare.toml", `
[fields]
cache_ttl = 60
`)

	_, err := LoadFromFiles(path)
	assert.Error(t, err)
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1h30m")))
	assert.Equal(t, 90*time.Minute, d.Duration)

	assert.Error(t, d.UnmarshalText([]byte("60")))

	text, err := NewDuration(2 * time.Second).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2s", string(text))
}

func TestLoadFromFiles_DurationEnvOverride(t *testing.T) {
	t.Setenv("MAILTICKET_JIRA_TIMEOUT", "3s")
	t.Setenv("MAILTICKET_FIELDS_CACHE_TTL", "2m")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, config.Jira.Timeout.Duration)
	assert.Equal(t, 2*time.Minute, config.Fields.CacheTTL.Duration)
}
