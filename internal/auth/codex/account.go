package codex

import (
	"time"

	"github.com/google/uuid"
)

// AuthData holds the credentials of a ChatGPT account.
type AuthData struct {
	// Type is the auth mode of the credentials, always "chatgpt" for this flow.
	Type         string `json:"type"`
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// AccountID is the ChatGPT workspace account, when the ID token carries one.
	AccountID string `json:"account_id,omitempty"`
}

// Account is a stored ChatGPT account with its credentials.
type Account struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email,omitempty"`
	PlanType   string     `json:"plan_type,omitempty"`
	AuthMode   string     `json:"auth_mode"`
	AuthData   AuthData   `json:"auth_data"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// NewChatGPTAccount builds a fresh account from an exchanged token set and the claims
// read from its ID token. The account gets a random v4 UUID.
func NewChatGPTAccount(name string, claims IDTokenClaims, tokens *TokenResponse) *Account {
	account := &Account{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     claims.Email,
		PlanType:  claims.PlanType,
		AuthMode:  AuthModeChatGPT,
		CreatedAt: time.Now().UTC(),
		AuthData: AuthData{
			Type:      AuthModeChatGPT,
			AccountID: claims.AccountID,
		},
	}
	if tokens != nil {
		account.AuthData.IDToken = tokens.IDToken
		account.AuthData.AccessToken = tokens.AccessToken
		account.AuthData.RefreshToken = tokens.RefreshToken
	}
	return account
}

// AccountInfo is the secret-free view of an account shown to users.
type AccountInfo struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email,omitempty"`
	PlanType   string     `json:"plan_type,omitempty"`
	AuthMode   string     `json:"auth_mode"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// Info returns the account without credentials. activeID marks whether it is the active one.
func (a *Account) Info(activeID string) AccountInfo {
	return AccountInfo{
		ID:         a.ID,
		Name:       a.Name,
		Email:      a.Email,
		PlanType:   a.PlanType,
		AuthMode:   a.AuthMode,
		IsActive:   activeID != "" && activeID == a.ID,
		CreatedAt:  a.CreatedAt,
		LastUsedAt: a.LastUsedAt,
	}
}
