package codex

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// gjson paths of the claims read from an OpenAI ID token. The provider nests its
// own claims under a URL-shaped key, so the dots in it are escaped.
const (
	claimEmail     = "email"
	claimPlanType  = `https://api\.openai\.com/auth.chatgpt_plan_type`
	claimAccountID = `https://api\.openai\.com/auth.chatgpt_account_id`
)

// IDTokenClaims are the identity fields the switcher keeps from an ID token.
// Every field is empty when the token does not carry it.
type IDTokenClaims struct {
	Email     string
	PlanType  string
	AccountID string
}

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// ParseJWTToken extracts identity claims from a JWT without performing cryptographic
// signature verification. It is only meant for tokens received first-hand from the
// token endpoint over TLS. An error is returned when the token is not three segments,
// the payload is not base64url, or the payload is not a JSON object.
func ParseJWTToken(token string) (IDTokenClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return IDTokenClaims{}, fmt.Errorf("invalid JWT token format: expected 3 parts, got %d", len(parts))
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return IDTokenClaims{}, fmt.Errorf("failed to decode JWT claims: %w", err)
	}
	if !gjson.ValidBytes(payload) {
		return IDTokenClaims{}, fmt.Errorf("JWT claims are not valid JSON")
	}
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return IDTokenClaims{}, fmt.Errorf("JWT claims are not a JSON object")
	}

	return IDTokenClaims{
		Email:     stringClaim(root, claimEmail),
		PlanType:  stringClaim(root, claimPlanType),
		AccountID: stringClaim(root, claimAccountID),
	}, nil
}

// ParseIDTokenClaims is the lenient form of ParseJWTToken used by the login flow.
// Any failure yields empty claims so a login never fails on claim extraction.
func ParseIDTokenClaims(idToken string) IDTokenClaims {
	claims, err := ParseJWTToken(idToken)
	if err != nil {
		log.Debugf("failed to parse ID token claims: %v", err)
		return IDTokenClaims{}
	}
	return claims
}

func stringClaim(root gjson.Result, path string) string {
	v := root.Get(path)
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}
