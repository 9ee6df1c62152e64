package auth

import (
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/router-for-me/codex-switcher/internal/config"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTokenServer stands in for the provider token endpoint.
func newTokenServer(t *testing.T, email string) *httptest.Server {
	t.Helper()
	idToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"https://api.openai.com/auth": map[string]any{
			"chatgpt_plan_type":  "plus",
			"chatgpt_account_id": "acct-1",
		},
	}).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"id_token":%q,"access_token":"AT","refresh_token":"RT"}`, idToken)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newTestAuthenticator prefers a port that is already taken so every flow lands on an
// ephemeral port and tests never collide with a real login on the default port.
// Tests passing noBrowser=false must supply an OpenBrowser hook.
func newTestAuthenticator(t *testing.T, issuer string, noBrowser bool) *CodexAuthenticator {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	cfg := config.Default()
	cfg.OAuth.Issuer = issuer
	cfg.OAuth.CallbackPort = ln.Addr().(*net.TCPAddr).Port
	cfg.OAuth.PollInterval = 20 * time.Millisecond
	cfg.OAuth.NoBrowser = noBrowser
	a := NewCodexAuthenticator(cfg)
	t.Cleanup(a.CancelLogin)
	return a
}

// simulateBrowser returns an OpenBrowser hook that follows the authorization URL back
// to the loopback redirect with a valid code and state.
func simulateBrowser(t *testing.T) func(string) error {
	t.Helper()
	return func(authURL string) error {
		parsed, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		query := parsed.Query()
		target := query.Get("redirect_uri") + "?code=code-123&state=" + url.QueryEscape(query.Get("state"))
		go func() {
			resp, errGet := http.Get(target)
			if errGet == nil {
				_ = resp.Body.Close()
			}
		}()
		return nil
	}
}
