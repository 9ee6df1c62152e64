package cmd

import (
	"github.com/router-for-me/codex-switcher/internal/config"
	sdkAuth "github.com/router-for-me/codex-switcher/sdk/auth"
)

// newAuthManager creates an account manager backed by accounts.json in the configured
// auth directory and the ChatGPT authenticator.
func newAuthManager(cfg *config.Config) *sdkAuth.Manager {
	store := sdkAuth.NewFileAccountStore(cfg.AuthDir)
	return sdkAuth.NewManager(store, sdkAuth.NewCodexAuthenticator(cfg))
}
