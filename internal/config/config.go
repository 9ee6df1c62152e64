package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultIssuer is the OpenAI authorization server used for ChatGPT logins.
	DefaultIssuer = "https://auth.openai.com"
	// DefaultClientID is the public OAuth client registered for the Codex CLI.
	DefaultClientID = "app_EMoamEEZ73f0CkXaXp7hrann"
	// DefaultCallbackPort matches the port used by the official Codex CLI.
	DefaultCallbackPort = 1455
	// DefaultLoginTimeout bounds how long a loopback listener waits for the redirect.
	DefaultLoginTimeout = 5 * time.Minute
	// DefaultPollInterval is how often the listener re-checks cancellation and the deadline.
	DefaultPollInterval = 250 * time.Millisecond
	// DefaultAuthDir is where the account store keeps accounts.json.
	DefaultAuthDir = "~/.codex-switcher"
	// DefaultLogsMaxSizeMB caps a single rotated log file.
	DefaultLogsMaxSizeMB = 10
)

// Config represents the application's configuration, loaded from a YAML file
// and optionally overridden by CODEX_SWITCHER_* environment variables.
type Config struct {
	SDKConfig `yaml:",inline"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug" json:"debug" env:"CODEX_SWITCHER_DEBUG"`

	// LoggingToFile routes logs to a rotating file instead of stdout.
	LoggingToFile bool `yaml:"logging-to-file" json:"logging-to-file" env:"CODEX_SWITCHER_LOGGING_TO_FILE"`

	// LogsMaxSizeMB is the size in megabytes at which the log file is rotated.
	LogsMaxSizeMB int `yaml:"logs-max-size-mb" json:"logs-max-size-mb" env:"CODEX_SWITCHER_LOGS_MAX_SIZE_MB"`

	// LogsMaxBackups limits how many rotated log files are kept. 0 keeps all of them.
	LogsMaxBackups int `yaml:"logs-max-backups" json:"logs-max-backups" env:"CODEX_SWITCHER_LOGS_MAX_BACKUPS"`

	// AuthDir is the directory holding the account store. A leading ~ is expanded.
	AuthDir string `yaml:"auth-dir" json:"auth-dir" env:"CODEX_SWITCHER_AUTH_DIR"`

	// OAuth configures the loopback login flow.
	OAuth OAuthConfig `yaml:"oauth" json:"oauth"`
}

// OAuthConfig holds the settings of the ChatGPT loopback login.
type OAuthConfig struct {
	// Issuer is the base URL of the authorization server.
	Issuer string `yaml:"issuer" json:"issuer" env:"CODEX_SWITCHER_OAUTH_ISSUER"`

	// ClientID is the OAuth client identifier sent in authorize and token requests.
	ClientID string `yaml:"client-id" json:"client-id" env:"CODEX_SWITCHER_OAUTH_CLIENT_ID"`

	// CallbackPort is the preferred loopback port (default 1455). When it is busy
	// an ephemeral port is used instead.
	CallbackPort int `yaml:"callback-port" json:"callback-port" env:"CODEX_SWITCHER_OAUTH_CALLBACK_PORT"`

	// LoginTimeout is the wall-clock deadline of a single login attempt.
	LoginTimeout time.Duration `yaml:"login-timeout" json:"login-timeout" env:"CODEX_SWITCHER_OAUTH_LOGIN_TIMEOUT"`

	// PollInterval is the listener's cancellation/deadline polling cadence. Must be sub-second.
	PollInterval time.Duration `yaml:"poll-interval" json:"poll-interval" env:"CODEX_SWITCHER_OAUTH_POLL_INTERVAL"`

	// NoBrowser disables launching the default browser.
	NoBrowser bool `yaml:"no-browser" json:"no-browser" env:"CODEX_SWITCHER_OAUTH_NO_BROWSER"`
}

// Default returns a configuration populated with the built-in defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads the configuration file at configFile. The file must exist.
func LoadConfig(configFile string) (*Config, error) {
	return LoadConfigOptional(configFile, false)
}

// LoadConfigOptional reads the configuration file at configFile. When optional is true
// a missing (or empty path) file yields the defaults instead of an error.
// Environment overrides are applied after the file, then defaults fill remaining gaps.
func LoadConfigOptional(configFile string, optional bool) (*Config, error) {
	cfg := &Config{}

	configFile = strings.TrimSpace(configFile)
	if configFile == "" {
		if !optional {
			return nil, fmt.Errorf("config: file path is empty")
		}
	} else {
		data, err := os.ReadFile(configFile)
		switch {
		case err == nil:
			if err = yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: failed to parse %s: %w", configFile, err)
			}
		case optional && errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: failed to read %s: %w", configFile, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.AuthDir) == "" {
		c.AuthDir = DefaultAuthDir
	}
	if c.LogsMaxSizeMB <= 0 {
		c.LogsMaxSizeMB = DefaultLogsMaxSizeMB
	}
	if strings.TrimSpace(c.OAuth.Issuer) == "" {
		c.OAuth.Issuer = DefaultIssuer
	}
	c.OAuth.Issuer = strings.TrimRight(strings.TrimSpace(c.OAuth.Issuer), "/")
	if strings.TrimSpace(c.OAuth.ClientID) == "" {
		c.OAuth.ClientID = DefaultClientID
	}
	if c.OAuth.CallbackPort == 0 {
		c.OAuth.CallbackPort = DefaultCallbackPort
	}
	if c.OAuth.LoginTimeout == 0 {
		c.OAuth.LoginTimeout = DefaultLoginTimeout
	}
	if c.OAuth.PollInterval == 0 {
		c.OAuth.PollInterval = DefaultPollInterval
	}
}

// Validate reports configuration values the login flow cannot work with.
func (c *Config) Validate() error {
	if c.OAuth.CallbackPort <= 0 || c.OAuth.CallbackPort > 65535 {
		return fmt.Errorf("config: oauth.callback-port %d out of range", c.OAuth.CallbackPort)
	}
	if c.OAuth.LoginTimeout < 0 {
		return fmt.Errorf("config: oauth.login-timeout must be positive")
	}
	if c.OAuth.PollInterval < 0 || c.OAuth.PollInterval >= time.Second {
		return fmt.Errorf("config: oauth.poll-interval must be between 0 and 1s, got %s", c.OAuth.PollInterval)
	}
	if c.LogsMaxBackups < 0 {
		return fmt.Errorf("config: logs-max-backups must not be negative")
	}
	return nil
}
