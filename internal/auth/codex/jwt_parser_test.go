package codex

import (
	"encoding/base64"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJWTToken(t *testing.T) {
	token := mintIDToken(t, openAIClaims("a@b.com", "plus", "acct-1"))

	claims, err := ParseJWTToken(token)
	require.NoError(t, err)
	assert.Equal(t, IDTokenClaims{Email: "a@b.com", PlanType: "plus", AccountID: "acct-1"}, claims)
}

func TestParseJWTTokenWithoutProviderClaims(t *testing.T) {
	token := mintIDToken(t, jwt.MapClaims{"sub": "user-123"})

	claims, err := ParseJWTToken(token)
	require.NoError(t, err)
	assert.Equal(t, IDTokenClaims{}, claims)
}

func TestParseJWTTokenIgnoresNonStringClaims(t *testing.T) {
	token := mintIDToken(t, jwt.MapClaims{
		"email":                       42,
		"https://api.openai.com/auth": map[string]any{"chatgpt_plan_type": true},
	})

	claims, err := ParseJWTToken(token)
	require.NoError(t, err)
	assert.Empty(t, claims.Email)
	assert.Empty(t, claims.PlanType)
}

func TestParseJWTTokenPaddedPayload(t *testing.T) {
	payload := base64.URLEncoding.EncodeToString([]byte(`{"email":"x@y.z"}`))
	claims, err := ParseJWTToken("eyJhbGciOiJub25lIn0." + payload + ".sig")
	require.NoError(t, err)
	assert.Equal(t, "x@y.z", claims.Email)
}

func TestParseJWTTokenErrors(t *testing.T) {
	notJSON := base64.RawURLEncoding.EncodeToString([]byte("not json"))
	array := base64.RawURLEncoding.EncodeToString([]byte(`["a"]`))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"two segments", "a.b"},
		{"four segments", "a.b.c.d"},
		{"bad base64", "a.!!!.c"},
		{"not json", "a." + notJSON + ".c"},
		{"not an object", "a." + array + ".c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJWTToken(tt.token)
			assert.Error(t, err)
			assert.Equal(t, IDTokenClaims{}, ParseIDTokenClaims(tt.token))
		})
	}
}
