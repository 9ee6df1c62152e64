package misc

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base64URLAlphabet = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func TestGenerateRandomState(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		state := GenerateRandomState()
		require.Len(t, state, 43)
		assert.Regexp(t, base64URLAlphabet, state)
		_, dup := seen[state]
		require.False(t, dup, "state repeated after %d draws", i)
		seen[state] = struct{}{}
	}
}

func TestParseOAuthCallback(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  *OAuthCallback
	}{
		{"empty", "   ", nil},
		{"full url", "http://localhost:1455/auth/callback?code=abc&state=xyz", &OAuthCallback{Code: "abc", State: "xyz"}},
		{"no scheme", "localhost:1455/auth/callback?code=abc&state=xyz", &OAuthCallback{Code: "abc", State: "xyz"}},
		{"bare query", "?code=abc&state=xyz", &OAuthCallback{Code: "abc", State: "xyz"}},
		{"bare pairs", "code=abc&state=xyz", &OAuthCallback{Code: "abc", State: "xyz"}},
		{"fragment", "http://localhost/cb#code=abc&state=xyz", &OAuthCallback{Code: "abc", State: "xyz"}},
		{"error", "?error=access_denied&error_description=nope", &OAuthCallback{Error: "access_denied", ErrorDescription: "nope"}},
		{"description only", "?error_description=nope", &OAuthCallback{Error: "nope"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseOAuthCallback(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseOAuthCallbackRejectsGarbage(t *testing.T) {
	_, err := ParseOAuthCallback("hello")
	assert.Error(t, err)

	_, err = ParseOAuthCallback("?state=only")
	assert.ErrorContains(t, err, "missing code")
}

func TestOAuthCallbackQuery(t *testing.T) {
	cb := &OAuthCallback{Code: "a b", State: "s"}
	assert.Equal(t, "code=a+b&state=s", cb.Query().Encode())
}
