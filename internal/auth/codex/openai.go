package codex

import "fmt"

// OAuth parameters sent on every ChatGPT authorization request.
const (
	// CallbackPath is the loopback route the provider redirects the browser to.
	CallbackPath = "/auth/callback"
	// Scope requests identity claims and a refresh token.
	Scope = "openid profile email offline_access"
	// Originator identifies the client family to the authorization server.
	Originator = "codex_cli_rs"
	// AuthModeChatGPT is the auth mode recorded on accounts created by this flow.
	AuthModeChatGPT = "chatgpt"
)

// PKCECodes holds the verification codes for the OAuth2 PKCE (Proof Key for Code Exchange) flow.
// A pair is generated per login attempt and is never persisted.
type PKCECodes struct {
	// CodeVerifier is the high-entropy secret sent with the token request.
	CodeVerifier string
	// CodeChallenge is the SHA256 hash of the code verifier, base64url-encoded.
	CodeChallenge string
}

// TokenResponse is the JSON body returned by the token endpoint.
type TokenResponse struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

// LoginInfo is handed back to the caller once the loopback listener is up.
type LoginInfo struct {
	// AuthURL is the provider URL the user must visit.
	AuthURL string `json:"auth_url"`
	// CallbackPort is the port actually bound, which may differ from the preferred one.
	CallbackPort uint16 `json:"callback_port"`
	// BrowserOpened reports whether the URL was handed to a browser. When false the
	// user has to open it by hand.
	BrowserOpened bool `json:"browser_opened"`
}

// RedirectURIForPort builds the loopback redirect URI for a bound port.
func RedirectURIForPort(port int) string {
	return fmt.Sprintf("http://localhost:%d%s", port, CallbackPath)
}
