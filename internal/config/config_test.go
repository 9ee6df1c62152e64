package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigOptional_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfigOptional(filepath.Join(t.TempDir(), "absent.yaml"), true)
	require.NoError(t, err)

	assert.Equal(t, DefaultIssuer, cfg.OAuth.Issuer)
	assert.Equal(t, DefaultClientID, cfg.OAuth.ClientID)
	assert.Equal(t, DefaultCallbackPort, cfg.OAuth.CallbackPort)
	assert.Equal(t, DefaultLoginTimeout, cfg.OAuth.LoginTimeout)
	assert.Equal(t, DefaultPollInterval, cfg.OAuth.PollInterval)
	assert.Equal(t, DefaultAuthDir, cfg.AuthDir)
}

func TestLoadConfig_MissingFileFails(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_ParsesYAML(t *testing.T) {
	path := writeConfig(t, `
debug: true
auth-dir: /tmp/switcher
proxy-url: socks5://127.0.0.1:1080
oauth:
  issuer: https://issuer.example.com/
  client-id: my-client
  callback-port: 2455
  login-timeout: 90s
  poll-interval: 100ms
  no-browser: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "/tmp/switcher", cfg.AuthDir)
	assert.Equal(t, "socks5://127.0.0.1:1080", cfg.ProxyURL)
	assert.Equal(t, "https://issuer.example.com", cfg.OAuth.Issuer, "trailing slash is trimmed")
	assert.Equal(t, "my-client", cfg.OAuth.ClientID)
	assert.Equal(t, 2455, cfg.OAuth.CallbackPort)
	assert.Equal(t, 90*time.Second, cfg.OAuth.LoginTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.OAuth.PollInterval)
	assert.True(t, cfg.OAuth.NoBrowser)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "oauth:\n  callback-port: 2455\n")
	t.Setenv("CODEX_SWITCHER_OAUTH_CALLBACK_PORT", "3455")
	t.Setenv("CODEX_SWITCHER_OAUTH_ISSUER", "http://127.0.0.1:9999")
	t.Setenv("CODEX_SWITCHER_PROXY_URL", "http://proxy.local:3128")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 3455, cfg.OAuth.CallbackPort)
	assert.Equal(t, "http://127.0.0.1:9999", cfg.OAuth.Issuer)
	assert.Equal(t, "http://proxy.local:3128", cfg.ProxyURL)
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"port out of range", "oauth:\n  callback-port: 70000\n"},
		{"negative port", "oauth:\n  callback-port: -1\n"},
		{"poll interval not sub-second", "oauth:\n  poll-interval: 2s\n"},
		{"negative timeout", "oauth:\n  login-timeout: -5s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
		})
	}
}
