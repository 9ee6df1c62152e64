package codex

import (
	"context"
	"crypto/subtle"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
)

// TokenExchanger redeems an authorization code. CodexAuth is the production implementation.
type TokenExchanger interface {
	ExchangeCodeForTokens(ctx context.Context, code, redirectURI string, pkceCodes PKCECodes) (*TokenResponse, error)
}

// CallbackSession carries everything needed to validate one redirect and redeem its code.
// The PKCE pair and redirect URI are the exact values used to build the authorization URL.
type CallbackSession struct {
	ExpectedState string
	PKCE          PKCECodes
	RedirectURI   string
	AccountName   string
	Exchanger     TokenExchanger
	// FlowID tags log lines of this login attempt.
	FlowID string
}

// callbackResponse is what the browser receives for a callback request.
type callbackResponse struct {
	status      int
	contentType string
	body        string
}

func textResponse(status int, body string) callbackResponse {
	return callbackResponse{status: status, contentType: "text/plain; charset=utf-8", body: body}
}

// Handle validates a callback query and, when it is acceptable, exchanges the code and
// builds the account. Checks run in a fixed order: provider error, state, code, exchange.
// A state mismatch never reaches the exchanger.
func (s *CallbackSession) Handle(ctx context.Context, query url.Values) (*Account, callbackResponse, error) {
	entry := log.WithField("request_id", s.FlowID)

	if query.Has("error") {
		code := query.Get("error")
		description := query.Get("error_description")
		if description == "" {
			description = "Unknown error"
		}
		entry.Warnf("OAuth error received: %s - %s", code, description)
		return nil,
			textResponse(http.StatusBadRequest, fmt.Sprintf("OAuth Error: %s - %s", code, description)),
			NewOAuthError(code, description, http.StatusBadRequest)
	}

	state := query.Get("state")
	if !query.Has("state") || subtle.ConstantTimeCompare([]byte(state), []byte(s.ExpectedState)) != 1 {
		entry.Warn("OAuth callback state mismatch")
		return nil, textResponse(http.StatusBadRequest, "State mismatch"), ErrInvalidState
	}

	code := query.Get("code")
	if code == "" {
		entry.Warn("OAuth callback without authorization code")
		return nil, textResponse(http.StatusBadRequest, "Missing authorization code"), ErrMissingCode
	}

	entry.Debug("exchanging authorization code for tokens")
	tokens, err := s.Exchanger.ExchangeCodeForTokens(ctx, code, s.RedirectURI, s.PKCE)
	if err != nil {
		entry.Errorf("token exchange failed: %v", err)
		return nil, textResponse(http.StatusInternalServerError, fmt.Sprintf("Token exchange failed: %v", err)), err
	}

	claims := ParseIDTokenClaims(tokens.IDToken)
	account := NewChatGPTAccount(s.AccountName, claims, tokens)
	entry.Infof("login completed for account %q", s.AccountName)

	page := strings.Replace(LoginSuccessHtml, "{{ACCOUNT}}", html.EscapeString(s.AccountName), 1)
	return account, callbackResponse{
		status:      http.StatusOK,
		contentType: "text/html; charset=utf-8",
		body:        page,
	}, nil
}
