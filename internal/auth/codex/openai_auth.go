package codex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/router-for-me/codex-switcher/internal/config"
	"github.com/router-for-me/codex-switcher/internal/logging"
	"github.com/router-for-me/codex-switcher/internal/util"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

// tokenRequestTimeout bounds a single call to the token endpoint.
const tokenRequestTimeout = 30 * time.Second

// requiredTokenFields must all be present in a token response for it to be usable.
var requiredTokenFields = []string{"id_token", "access_token", "refresh_token"}

// CodexAuth handles the OpenAI OAuth2 authentication flow.
// It holds the issuer endpoints, the client identifier and a proxy-aware HTTP client,
// and is safe for concurrent use by several login flows.
type CodexAuth struct {
	httpClient *http.Client
	endpoint   oauth2.Endpoint
	clientID   string
	defaults   config.OAuthConfig
}

// NewCodexAuth creates a new CodexAuth service instance.
// It initializes an HTTP client with proxy settings from the provided configuration.
func NewCodexAuth(cfg *config.Config) *CodexAuth {
	if cfg == nil {
		cfg = config.Default()
	}
	issuer := strings.TrimRight(strings.TrimSpace(cfg.OAuth.Issuer), "/")
	if issuer == "" {
		issuer = config.DefaultIssuer
	}
	clientID := strings.TrimSpace(cfg.OAuth.ClientID)
	if clientID == "" {
		clientID = config.DefaultClientID
	}
	return &CodexAuth{
		httpClient: util.SetProxy(&cfg.SDKConfig, &http.Client{Timeout: tokenRequestTimeout}),
		endpoint: oauth2.Endpoint{
			AuthURL:   issuer + "/oauth/authorize",
			TokenURL:  issuer + "/oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		clientID: clientID,
		defaults: cfg.OAuth,
	}
}

// GenerateAuthURL creates the OAuth authorization URL with the PKCE challenge.
// The query parameters are emitted in a fixed order and every value is percent-encoded,
// so the same inputs always produce the same URL.
func (o *CodexAuth) GenerateAuthURL(redirectURI string, pkceCodes PKCECodes, state string) string {
	params := [][2]string{
		{"response_type", "code"},
		{"client_id", o.clientID},
		{"redirect_uri", redirectURI},
		{"scope", Scope},
		{"code_challenge", pkceCodes.CodeChallenge},
		{"code_challenge_method", "S256"},
		{"id_token_add_organizations", "true"},
		{"codex_cli_simplified_flow", "true"},
		{"state", state},
		{"originator", Originator},
	}

	var b strings.Builder
	b.WriteString(o.endpoint.AuthURL)
	b.WriteByte('?')
	for i, kv := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(kv[0])
		b.WriteByte('=')
		b.WriteString(percentEncode(kv[1]))
	}
	return b.String()
}

// ExchangeCodeForTokens exchanges an authorization code for ID, access and refresh tokens.
// The redirect URI and PKCE verifier must be the ones used to build the authorization URL.
// The request is sent exactly once. Log lines carry the request ID stored in ctx, if any.
func (o *CodexAuth) ExchangeCodeForTokens(ctx context.Context, code, redirectURI string, pkceCodes PKCECodes) (*TokenResponse, error) {
	entry := log.WithField("request_id", logging.GetRequestID(ctx))
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"client_id":     {o.clientID},
		"code_verifier": {pkceCodes.CodeVerifier},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, NewAuthenticationError(ErrCodeExchangeFailed, fmt.Errorf("failed to create token request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, NewAuthenticationError(ErrCodeExchangeFailed, fmt.Errorf("token exchange request failed: %w", err))
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			entry.Debugf("failed to close token response body: %v", errClose)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewAuthenticationError(ErrCodeExchangeFailed, fmt.Errorf("failed to read token response: %w", err))
	}

	entry.WithField("status", resp.StatusCode).Debug("token endpoint responded")
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, NewAuthenticationError(ErrCodeExchangeFailed, &TokenExchangeStatusError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		})
	}

	return parseTokenResponse(body)
}

// percentEncode escapes everything except unreserved characters. Spaces become %20.
func percentEncode(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

func parseTokenResponse(body []byte) (*TokenResponse, error) {
	if !gjson.ValidBytes(body) {
		return nil, NewAuthenticationError(ErrTokenResponseInvalid, fmt.Errorf("token response is not valid JSON"))
	}
	fields := gjson.GetManyBytes(body, requiredTokenFields...)
	for i, field := range fields {
		if !field.Exists() {
			return nil, NewAuthenticationError(ErrTokenResponseInvalid, fmt.Errorf("token response missing field %q", requiredTokenFields[i]))
		}
		if field.Type != gjson.String {
			return nil, NewAuthenticationError(ErrTokenResponseInvalid, fmt.Errorf("token response field %q is %s, want string", requiredTokenFields[i], field.Type))
		}
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, NewAuthenticationError(ErrTokenResponseInvalid, fmt.Errorf("failed to parse token response: %w", err))
	}
	return &tokenResp, nil
}
