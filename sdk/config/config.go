// Package config provides the public SDK configuration API.
//
// It re-exports the switcher configuration types and helpers so external projects can
// embed the ChatGPT login flow without importing internal packages.
package config

import internalconfig "github.com/router-for-me/codex-switcher/internal/config"

type SDKConfig = internalconfig.SDKConfig

type Config = internalconfig.Config

type OAuthConfig = internalconfig.OAuthConfig

const (
	DefaultIssuer       = internalconfig.DefaultIssuer
	DefaultClientID     = internalconfig.DefaultClientID
	DefaultCallbackPort = internalconfig.DefaultCallbackPort
	DefaultLoginTimeout = internalconfig.DefaultLoginTimeout
	DefaultPollInterval = internalconfig.DefaultPollInterval
)

func Default() *Config { return internalconfig.Default() }

func LoadConfig(configFile string) (*Config, error) { return internalconfig.LoadConfig(configFile) }

func LoadConfigOptional(configFile string, optional bool) (*Config, error) {
	return internalconfig.LoadConfigOptional(configFile, optional)
}
