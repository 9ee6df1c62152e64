package codex

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// mintIDToken signs claims with a throwaway key. Signatures are never verified by the
// code under test, only the payload matters.
func mintIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return token
}

func openAIClaims(email, plan, accountID string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "user-123",
		"email": email,
		"https://api.openai.com/auth": map[string]any{
			"chatgpt_plan_type":  plan,
			"chatgpt_account_id": accountID,
		},
	}
}

// busyPort holds a loopback port open for the duration of the test.
func busyPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	return ln.Addr().(*net.TCPAddr).Port
}

func requirePortFree(t *testing.T, port int) {
	t.Helper()
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err, "port %d should be released", port)
	_ = ln.Close()
}

type fakeExchanger struct {
	calls atomic.Int32

	mu          sync.Mutex
	code        string
	redirectURI string
	verifier    string

	tokens *TokenResponse
	err    error
	// block, when set, makes the exchange wait for ctx cancellation.
	block   bool
	started chan struct{}
}

func (f *fakeExchanger) ExchangeCodeForTokens(ctx context.Context, code, redirectURI string, pkceCodes PKCECodes) (*TokenResponse, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.code, f.redirectURI, f.verifier = code, redirectURI, pkceCodes.CodeVerifier
	f.mu.Unlock()

	if f.block {
		if f.started != nil {
			close(f.started)
		}
		<-ctx.Done()
		return nil, NewAuthenticationError(ErrCodeExchangeFailed, ctx.Err())
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens, nil
}
