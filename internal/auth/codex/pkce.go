// Package codex implements the ChatGPT ("Codex") loopback OAuth login: PKCE and state
// generation, the authorization URL, the single-use callback listener, the token exchange
// and extraction of identity claims from the returned ID token.
package codex

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/oauth2"
)

// verifierBytes yields an 86 character verifier once base64url encoded.
const verifierBytes = 64

// GeneratePKCECodes generates a new pair of PKCE codes as specified in RFC 7636.
// The verifier is 64 random bytes in unpadded base64url and the challenge uses the
// S256 method.
//
// crypto/rand.Read never returns an error on supported platforms; an entropy failure
// crashes the process instead of yielding a weak verifier.
func GeneratePKCECodes() PKCECodes {
	b := make([]byte, verifierBytes)
	_, _ = rand.Read(b)
	verifier := base64.RawURLEncoding.EncodeToString(b)

	return PKCECodes{
		CodeVerifier:  verifier,
		CodeChallenge: oauth2.S256ChallengeFromVerifier(verifier),
	}
}
