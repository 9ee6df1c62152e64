package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/router-for-me/codex-switcher/internal/auth/codex"
	"github.com/router-for-me/codex-switcher/internal/config"
	log "github.com/sirupsen/logrus"
)

var _ Authenticator = (*CodexAuthenticator)(nil)

// portReleaseWait bounds how long a new login waits for the previous one to free its port.
const portReleaseWait = 2 * time.Second

// CodexAuthenticator implements the OAuth login flow for ChatGPT accounts.
// It keeps at most one login pending; starting another cancels the previous one.
type CodexAuthenticator struct {
	auth        *codex.CodexAuth
	releaseWait time.Duration

	mu      sync.Mutex
	pending *codex.LoginFlow
}

// NewCodexAuthenticator constructs a Codex authenticator from the configuration.
func NewCodexAuthenticator(cfg *config.Config) *CodexAuthenticator {
	return &CodexAuthenticator{
		auth:        codex.NewCodexAuth(cfg),
		releaseWait: portReleaseWait,
	}
}

func (a *CodexAuthenticator) Provider() string {
	return "codex"
}

// StartLogin cancels any pending login, waits briefly for it to release its callback port,
// and starts a new one for the account name.
func (a *CodexAuthenticator) StartLogin(ctx context.Context, name string, opts *LoginOptions) (*LoginInfo, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts == nil {
		opts = &LoginOptions{}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if previous := a.pending; previous != nil {
		a.pending = nil
		previous.Cancel()
		timer := time.NewTimer(a.releaseWait)
		select {
		case <-previous.Done():
			timer.Stop()
		case <-timer.C:
			log.WithField("request_id", previous.ID()).Warn("previous login did not release its callback port in time")
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}

	flow, err := a.auth.StartLogin(codex.LoginOptions{
		AccountName:  name,
		CallbackPort: opts.CallbackPort,
		NoBrowser:    opts.NoBrowser,
		Timeout:      opts.Timeout,
		OpenBrowser:  opts.OpenBrowser,
	})
	if err != nil {
		return nil, err
	}
	a.pending = flow

	info := flow.Info()
	return &info, nil
}

// CompleteLogin waits for the pending login. The login stays pending while it is awaited,
// so CancelLogin and StartLogin can still reach it. When ctx ends first the login is cancelled.
func (a *CodexAuthenticator) CompleteLogin(ctx context.Context) (*Account, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	a.mu.Lock()
	flow := a.pending
	a.mu.Unlock()
	if flow == nil {
		return nil, ErrNoPendingLogin
	}

	account, err := flow.Wait(ctx)
	select {
	case <-flow.Done():
		// The flow may have ended right as ctx did; its result wins.
		account, err = flow.Wait(context.Background())
	default:
		// ctx ended before the flow did.
		flow.Cancel()
		err = codex.NewAuthenticationError(codex.ErrLoginCancelled, ctx.Err())
		account = nil
	}

	a.mu.Lock()
	if a.pending == flow {
		a.pending = nil
	}
	a.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("codex auth: login finished without an account")
	}
	return account, nil
}

// CancelLogin cancels the pending login, if any. It is idempotent.
func (a *CodexAuthenticator) CancelLogin() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending != nil {
		a.pending.Cancel()
		a.pending = nil
	}
}

// Login runs a complete login and returns the new account without persisting it.
func (a *CodexAuthenticator) Login(ctx context.Context, name string, opts *LoginOptions) (*Account, error) {
	if _, err := a.StartLogin(ctx, name, opts); err != nil {
		return nil, err
	}
	return a.CompleteLogin(ctx)
}
