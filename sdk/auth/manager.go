package auth

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Manager coordinates an authenticator with account persistence.
type Manager struct {
	store         AccountStore
	authenticator Authenticator
}

// NewManager constructs a manager with the provided account store and authenticator.
func NewManager(store AccountStore, authenticator Authenticator) *Manager {
	return &Manager{store: store, authenticator: authenticator}
}

// StartLogin begins a login for a new account. A name that is already taken is rejected
// before any port is bound.
func (m *Manager) StartLogin(ctx context.Context, name string, opts *LoginOptions) (*LoginInfo, error) {
	if m.authenticator == nil {
		return nil, fmt.Errorf("codex auth: authenticator is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("codex auth: account name is required")
	}
	if m.store != nil {
		existing, err := m.store.FindByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, &DuplicateAccountError{Name: name}
		}
	}
	return m.authenticator.StartLogin(ctx, name, opts)
}

// CompleteLogin waits for the pending login, stores the account, makes it active and
// records it as just used.
func (m *Manager) CompleteLogin(ctx context.Context) (*AccountInfo, error) {
	if m.authenticator == nil {
		return nil, fmt.Errorf("codex auth: authenticator is not configured")
	}
	account, err := m.authenticator.CompleteLogin(ctx)
	if err != nil {
		return nil, err
	}
	if m.store == nil {
		info := account.Info("")
		return &info, nil
	}

	stored, err := m.store.Add(ctx, account)
	if err != nil {
		return nil, err
	}
	if err = m.store.SetActive(ctx, stored.ID); err != nil {
		return nil, err
	}
	if err = m.store.Touch(ctx, stored.ID); err != nil {
		return nil, err
	}

	refreshed, err := m.store.Get(ctx, stored.ID)
	if err != nil {
		return nil, err
	}
	_, activeID, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}

	log.Infof("%s account %q added", m.authenticator.Provider(), refreshed.Name)
	info := refreshed.Info(activeID)
	return &info, nil
}

// CancelLogin cancels the pending login, if any.
func (m *Manager) CancelLogin() {
	if m.authenticator != nil {
		m.authenticator.CancelLogin()
	}
}

// Accounts lists stored accounts without their credentials.
func (m *Manager) Accounts(ctx context.Context) ([]AccountInfo, error) {
	if m.store == nil {
		return nil, nil
	}
	accounts, activeID, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]AccountInfo, 0, len(accounts))
	for _, account := range accounts {
		infos = append(infos, account.Info(activeID))
	}
	return infos, nil
}
