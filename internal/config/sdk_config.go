// Package config provides configuration management for the Codex account switcher.
// It handles loading and parsing YAML configuration files, applying environment
// overrides, and provides structured access to application settings including the
// OAuth issuer, loopback callback port, login timeouts, and proxy configuration.
package config

// SDKConfig holds the settings shared with embedders of the sdk packages.
type SDKConfig struct {
	// ProxyURL is the URL of an optional proxy server to use for outbound requests
	// to the identity provider. Supports socks5://, http:// and https:// schemes.
	ProxyURL string `yaml:"proxy-url" json:"proxy-url" env:"CODEX_SWITCHER_PROXY_URL"`
}
