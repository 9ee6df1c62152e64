package codex

import (
	"context"
	"fmt"
	"time"

	"github.com/router-for-me/codex-switcher/internal/browser"
	"github.com/router-for-me/codex-switcher/internal/config"
	"github.com/router-for-me/codex-switcher/internal/logging"
	"github.com/router-for-me/codex-switcher/internal/misc"
	log "github.com/sirupsen/logrus"
)

// LoginOptions tunes a single login attempt. Zero values fall back to the configuration
// the CodexAuth was built with.
type LoginOptions struct {
	// AccountName is the display name of the account being added.
	AccountName string
	// CallbackPort is the preferred loopback port.
	CallbackPort int
	// NoBrowser skips launching the default browser.
	NoBrowser bool
	// Timeout is the deadline for the browser redirect.
	Timeout time.Duration
	// PollInterval is the listener's cancellation check cadence.
	PollInterval time.Duration
	// OpenBrowser replaces browser.OpenURL when set.
	OpenBrowser func(url string) error
}

// LoginFlow is one pending ChatGPT login. It owns its callback listener.
type LoginFlow struct {
	id     string
	info   LoginInfo
	server *OAuthServer
}

// StartLogin prepares PKCE and state, binds the callback listener, builds the authorization
// URL and starts waiting for the redirect. A missing browser or a launch failure is logged
// but does not fail the login; the caller still gets the URL to open by hand.
func (o *CodexAuth) StartLogin(opts LoginOptions) (*LoginFlow, error) {
	opts = o.withDefaults(opts)
	flowID := logging.GenerateRequestID()
	entry := log.WithField("request_id", flowID)

	pkceCodes := GeneratePKCECodes()
	state := misc.GenerateRandomState()

	server := NewOAuthServer(ServerConfig{
		Port:         opts.CallbackPort,
		Timeout:      opts.Timeout,
		PollInterval: opts.PollInterval,
		FlowID:       flowID,
	})
	if err := server.Start(); err != nil {
		return nil, err
	}

	redirectURI := server.RedirectURI()
	authURL := o.GenerateAuthURL(redirectURI, pkceCodes, state)

	session := &CallbackSession{
		ExpectedState: state,
		PKCE:          pkceCodes,
		RedirectURI:   redirectURI,
		AccountName:   opts.AccountName,
		Exchanger:     o,
		FlowID:        flowID,
	}
	if err := server.Run(session); err != nil {
		return nil, fmt.Errorf("codex login: %w", err)
	}

	flow := &LoginFlow{
		id:     flowID,
		server: server,
		info: LoginInfo{
			AuthURL:      authURL,
			CallbackPort: uint16(server.Port()),
		},
	}
	entry.WithFields(log.Fields{
		"account":      opts.AccountName,
		"redirect_uri": redirectURI,
	}).Info("waiting for ChatGPT login callback")

	if !opts.NoBrowser {
		open := opts.OpenBrowser
		if open == nil {
			if !browser.IsAvailable() {
				entry.Warn("no browser available; open the URL manually")
				return flow, nil
			}
			open = browser.OpenURL
		}
		if err := open(authURL); err != nil {
			entry.Warnf("failed to open browser: %v", err)
		} else {
			flow.info.BrowserOpened = true
		}
	}

	return flow, nil
}

func (o *CodexAuth) withDefaults(opts LoginOptions) LoginOptions {
	if opts.CallbackPort == 0 {
		opts.CallbackPort = o.defaults.CallbackPort
	}
	if opts.CallbackPort == 0 {
		opts.CallbackPort = config.DefaultCallbackPort
	}
	if opts.Timeout <= 0 {
		opts.Timeout = o.defaults.LoginTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = o.defaults.PollInterval
	}
	opts.NoBrowser = opts.NoBrowser || o.defaults.NoBrowser
	return opts
}

// ID returns the flow identifier used in log lines.
func (f *LoginFlow) ID() string {
	return f.id
}

// Info returns the authorization URL and the bound callback port.
func (f *LoginFlow) Info() LoginInfo {
	return f.info
}

// Wait blocks until the login ends or ctx is done.
func (f *LoginFlow) Wait(ctx context.Context) (*Account, error) {
	return f.server.Wait(ctx)
}

// Cancel aborts the login. It is idempotent and a no-op once the login has ended.
func (f *LoginFlow) Cancel() {
	f.server.Cancel()
}

// Done is closed when the login has ended and its port is free.
func (f *LoginFlow) Done() <-chan struct{} {
	return f.server.Done()
}
