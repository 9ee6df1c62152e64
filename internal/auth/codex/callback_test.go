package codex

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(exchanger TokenExchanger) *CallbackSession {
	return &CallbackSession{
		ExpectedState: "expected-state",
		PKCE:          PKCECodes{CodeVerifier: "verifier", CodeChallenge: "challenge"},
		RedirectURI:   RedirectURIForPort(1455),
		AccountName:   "work <main>",
		Exchanger:     exchanger,
	}
}

func TestCallbackSessionProviderErrorWins(t *testing.T) {
	exchanger := &fakeExchanger{}
	query := url.Values{"error": {"access_denied"}, "state": {"wrong"}}

	account, resp, err := newTestSession(exchanger).Handle(context.Background(), query)
	require.Nil(t, account)
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "OAuth Error: access_denied - Unknown error", resp.body)

	var oauthErr *OAuthError
	require.True(t, errors.As(err, &oauthErr))
	assert.Equal(t, "access_denied", oauthErr.Code)
	assert.Equal(t, int32(0), exchanger.calls.Load())
}

func TestCallbackSessionProviderErrorDescription(t *testing.T) {
	query := url.Values{"error": {"server_error"}, "error_description": {"try later"}}
	_, resp, err := newTestSession(&fakeExchanger{}).Handle(context.Background(), query)
	assert.Equal(t, "OAuth Error: server_error - try later", resp.body)
	assert.True(t, IsOAuthError(err))
}

func TestCallbackSessionStateChecks(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
	}{
		{"missing state", url.Values{"code": {"c"}}},
		{"empty state", url.Values{"code": {"c"}, "state": {""}}},
		{"wrong state", url.Values{"code": {"c"}, "state": {"expected-statf"}}},
		{"prefix state", url.Values{"code": {"c"}, "state": {"expected"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exchanger := &fakeExchanger{}
			_, resp, err := newTestSession(exchanger).Handle(context.Background(), tt.query)
			assert.ErrorIs(t, err, ErrInvalidState)
			assert.Equal(t, http.StatusBadRequest, resp.status)
			assert.Equal(t, "State mismatch", resp.body)
			assert.Equal(t, int32(0), exchanger.calls.Load(), "exchanger must not run on state mismatch")
		})
	}
}

func TestCallbackSessionMissingCode(t *testing.T) {
	exchanger := &fakeExchanger{}
	_, resp, err := newTestSession(exchanger).Handle(context.Background(), url.Values{"state": {"expected-state"}, "code": {""}})
	assert.ErrorIs(t, err, ErrMissingCode)
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "Missing authorization code", resp.body)
	assert.Equal(t, int32(0), exchanger.calls.Load())
}

func TestCallbackSessionExchangeFailure(t *testing.T) {
	exchanger := &fakeExchanger{err: NewAuthenticationError(ErrCodeExchangeFailed, &TokenExchangeStatusError{StatusCode: 500, Body: "down"})}
	_, resp, err := newTestSession(exchanger).Handle(context.Background(), url.Values{"state": {"expected-state"}, "code": {"c"}})
	assert.ErrorIs(t, err, ErrCodeExchangeFailed)
	assert.Equal(t, http.StatusInternalServerError, resp.status)
	assert.Contains(t, resp.body, "Token exchange failed: ")
	assert.Contains(t, resp.body, "down")
}

func TestCallbackSessionSuccess(t *testing.T) {
	exchanger := &fakeExchanger{tokens: &TokenResponse{
		IDToken:      mintIDToken(t, openAIClaims("a@b.com", "pro", "acct-9")),
		AccessToken:  "AT",
		RefreshToken: "RT",
	}}
	session := newTestSession(exchanger)

	account, resp, err := session.Handle(context.Background(), url.Values{"state": {"expected-state"}, "code": {"the-code"}})
	require.NoError(t, err)
	require.NotNil(t, account)

	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "text/html; charset=utf-8", resp.contentType)
	assert.Contains(t, resp.body, "Login Successful!")
	assert.Contains(t, resp.body, "work &lt;main&gt;")

	assert.Equal(t, "the-code", exchanger.code)
	assert.Equal(t, session.RedirectURI, exchanger.redirectURI)
	assert.Equal(t, "verifier", exchanger.verifier)

	assert.NotEmpty(t, account.ID)
	assert.Equal(t, "work <main>", account.Name)
	assert.Equal(t, "a@b.com", account.Email)
	assert.Equal(t, "pro", account.PlanType)
	assert.Equal(t, AuthModeChatGPT, account.AuthMode)
	assert.Equal(t, AuthData{
		Type:         AuthModeChatGPT,
		IDToken:      exchanger.tokens.IDToken,
		AccessToken:  "AT",
		RefreshToken: "RT",
		AccountID:    "acct-9",
	}, account.AuthData)
	assert.Nil(t, account.LastUsedAt)
}
