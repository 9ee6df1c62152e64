package auth

import (
	"context"
	"time"

	"github.com/router-for-me/codex-switcher/internal/auth/codex"
)

// Account is a stored ChatGPT account including its credentials.
type Account = codex.Account

// AccountInfo is the credential-free view of an account.
type AccountInfo = codex.AccountInfo

// LoginInfo is returned once a login is pending.
type LoginInfo = codex.LoginInfo

// LoginOptions captures the knobs of a single login attempt. Zero values fall back
// to the configuration the authenticator was built with.
type LoginOptions struct {
	NoBrowser    bool
	CallbackPort int
	Timeout      time.Duration
	// OpenBrowser replaces the default browser launcher when set.
	OpenBrowser func(url string) error
}

// Authenticator manages the interactive login flow for a provider.
// At most one login is pending at a time.
type Authenticator interface {
	Provider() string
	// StartLogin begins a login and returns once the authorization URL is ready.
	StartLogin(ctx context.Context, name string, opts *LoginOptions) (*LoginInfo, error)
	// CompleteLogin waits for the pending login to finish.
	CompleteLogin(ctx context.Context) (*Account, error)
	// CancelLogin aborts the pending login, if any.
	CancelLogin()
	// Login runs StartLogin and CompleteLogin back to back.
	Login(ctx context.Context, name string, opts *LoginOptions) (*Account, error)
}

// AccountStore persists accounts produced by a login.
type AccountStore interface {
	// Add stores a new account. A name already in use yields *DuplicateAccountError.
	Add(ctx context.Context, account *Account) (*Account, error)
	// Get returns the account with id or *AccountNotFoundError.
	Get(ctx context.Context, id string) (*Account, error)
	// FindByName returns the account with name, or nil when there is none.
	FindByName(ctx context.Context, name string) (*Account, error)
	// SetActive marks id as the active account.
	SetActive(ctx context.Context, id string) error
	// Touch records that id was just used. Unknown ids are ignored.
	Touch(ctx context.Context, id string) error
	// List returns every account and the active account id.
	List(ctx context.Context) ([]*Account, string, error)
}
