// Package misc holds small helpers shared by the login flow and the account store.
package misc

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// stateBytes is the entropy of an OAuth state token before encoding.
const stateBytes = 32

// GenerateRandomState generates a cryptographically secure random state parameter
// for OAuth2 flows to prevent CSRF attacks. The result is 32 random bytes encoded as
// unpadded base64url (43 characters).
//
// crypto/rand.Read never returns an error on supported platforms and crashes the
// process when the system entropy source fails, so no error is surfaced here.
func GenerateRandomState() string {
	b := make([]byte, stateBytes)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// OAuthCallback captures the parameters of a redirect pasted by the user.
type OAuthCallback struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// Query re-encodes the callback as the query string the provider would have sent.
func (c *OAuthCallback) Query() url.Values {
	values := url.Values{}
	if c.Code != "" {
		values.Set("code", c.Code)
	}
	if c.State != "" {
		values.Set("state", c.State)
	}
	if c.Error != "" {
		values.Set("error", c.Error)
	}
	if c.ErrorDescription != "" {
		values.Set("error_description", c.ErrorDescription)
	}
	return values
}

// ParseOAuthCallback extracts OAuth parameters from a pasted callback URL. It accepts a
// full URL, a host/path without scheme, a bare "?query" or a bare "k=v&..." string.
// It returns nil when the input is empty.
func ParseOAuthCallback(input string) (*OAuthCallback, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, nil
	}

	candidate := trimmed
	if !strings.Contains(candidate, "://") {
		switch {
		case strings.HasPrefix(candidate, "?"):
			candidate = "http://localhost" + candidate
		case strings.ContainsAny(candidate, "/?#") || strings.Contains(candidate, ":"):
			candidate = "http://" + candidate
		case strings.Contains(candidate, "="):
			candidate = "http://localhost/?" + candidate
		default:
			return nil, fmt.Errorf("invalid callback URL")
		}
	}

	parsedURL, err := url.Parse(candidate)
	if err != nil {
		return nil, err
	}

	query := parsedURL.Query()
	if parsedURL.Fragment != "" {
		if fragQuery, errFrag := url.ParseQuery(parsedURL.Fragment); errFrag == nil {
			for key, values := range fragQuery {
				if query.Get(key) == "" && len(values) > 0 {
					query.Set(key, values[0])
				}
			}
		}
	}

	cb := &OAuthCallback{
		Code:             strings.TrimSpace(query.Get("code")),
		State:            strings.TrimSpace(query.Get("state")),
		Error:            strings.TrimSpace(query.Get("error")),
		ErrorDescription: strings.TrimSpace(query.Get("error_description")),
	}
	if cb.Error == "" && cb.ErrorDescription != "" {
		cb.Error, cb.ErrorDescription = cb.ErrorDescription, ""
	}
	if cb.Code == "" && cb.Error == "" {
		return nil, fmt.Errorf("callback URL missing code")
	}
	return cb, nil
}
