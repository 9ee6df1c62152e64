package codex

import (
	"errors"
	"fmt"
	"net/http"
)

// OAuthError is an error reported by the provider on the callback redirect.
type OAuthError struct {
	// Code is the OAuth error code.
	Code string `json:"error"`
	// Description is a human-readable description of the error.
	Description string `json:"error_description,omitempty"`
	// StatusCode is the HTTP status code associated with the error.
	StatusCode int `json:"-"`
}

// Error returns a string representation of the OAuth error.
func (e *OAuthError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("OAuth error %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("OAuth error: %s", e.Code)
}

// NewOAuthError creates a new OAuth error with the specified code, description, and status code.
func NewOAuthError(code, description string, statusCode int) *OAuthError {
	return &OAuthError{
		Code:        code,
		Description: description,
		StatusCode:  statusCode,
	}
}

// TokenExchangeStatusError records a non-2xx answer from the token endpoint.
type TokenExchangeStatusError struct {
	StatusCode int
	Body       string
}

func (e *TokenExchangeStatusError) Error() string {
	return fmt.Sprintf("token endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// AuthenticationError represents authentication-related errors.
// Two AuthenticationErrors match under errors.Is when their Type is equal, so a wrapped
// copy built by NewAuthenticationError still matches the sentinel it came from.
type AuthenticationError struct {
	// Type is the type of authentication error.
	Type string `json:"type"`
	// Message is a human-readable message describing the error.
	Message string `json:"message"`
	// Code is the HTTP status code associated with the error.
	Code int `json:"code"`
	// Cause is the underlying error that caused this authentication error.
	Cause error `json:"-"`
}

// Error returns a string representation of the authentication error.
func (e *AuthenticationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *AuthenticationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AuthenticationError of the same Type.
func (e *AuthenticationError) Is(target error) bool {
	t, ok := target.(*AuthenticationError)
	if !ok || t == nil {
		return false
	}
	return e.Type == t.Type
}

// Login flow error kinds.
var (
	// ErrServerStartFailed is returned when neither the preferred nor an ephemeral port could be bound.
	ErrServerStartFailed = &AuthenticationError{
		Type:    "server_start_failed",
		Message: "Failed to start OAuth callback server",
		Code:    http.StatusInternalServerError,
	}

	// ErrInvalidState represents an error for invalid OAuth state parameter.
	ErrInvalidState = &AuthenticationError{
		Type:    "invalid_state",
		Message: "OAuth state parameter is invalid",
		Code:    http.StatusBadRequest,
	}

	// ErrMissingCode is returned when the redirect carries neither an error nor a code.
	ErrMissingCode = &AuthenticationError{
		Type:    "missing_code",
		Message: "Authorization code is missing from the callback",
		Code:    http.StatusBadRequest,
	}

	// ErrCodeExchangeFailed represents an error when exchanging authorization code for tokens fails.
	ErrCodeExchangeFailed = &AuthenticationError{
		Type:    "code_exchange_failed",
		Message: "Failed to exchange authorization code for tokens",
		Code:    http.StatusBadGateway,
	}

	// ErrTokenResponseInvalid is returned when the token endpoint answers 2xx with an unusable body.
	ErrTokenResponseInvalid = &AuthenticationError{
		Type:    "invalid_token_response",
		Message: "Token endpoint returned an invalid response",
		Code:    http.StatusBadGateway,
	}

	// ErrCallbackTimeout represents an error when waiting for OAuth callback times out.
	ErrCallbackTimeout = &AuthenticationError{
		Type:    "callback_timeout",
		Message: "Timeout waiting for OAuth callback",
		Code:    http.StatusRequestTimeout,
	}

	// ErrLoginCancelled is returned when the pending login was cancelled.
	ErrLoginCancelled = &AuthenticationError{
		Type:    "login_cancelled",
		Message: "Login was cancelled",
		Code:    499,
	}

	// ErrCallbackServerFailed is returned when the callback server stops serving unexpectedly.
	ErrCallbackServerFailed = &AuthenticationError{
		Type:    "callback_server_failed",
		Message: "OAuth callback server stopped unexpectedly",
		Code:    http.StatusInternalServerError,
	}
)

// NewAuthenticationError creates a new authentication error with a cause based on a base error.
func NewAuthenticationError(baseErr *AuthenticationError, cause error) *AuthenticationError {
	return &AuthenticationError{
		Type:    baseErr.Type,
		Message: baseErr.Message,
		Code:    baseErr.Code,
		Cause:   cause,
	}
}

// IsAuthenticationError checks if an error is an authentication error.
func IsAuthenticationError(err error) bool {
	var authenticationError *AuthenticationError
	return errors.As(err, &authenticationError)
}

// IsOAuthError checks if an error is an OAuth error.
func IsOAuthError(err error) bool {
	var oAuthError *OAuthError
	return errors.As(err, &oAuthError)
}

// IsExchangeFailure reports whether err came from the token exchange step.
func IsExchangeFailure(err error) bool {
	return errors.Is(err, ErrCodeExchangeFailed) || errors.Is(err, ErrTokenResponseInvalid)
}

// GetUserFriendlyMessage returns a user-friendly error message based on the error type.
func GetUserFriendlyMessage(err error) string {
	var oauthErr *OAuthError
	if errors.As(err, &oauthErr) {
		switch oauthErr.Code {
		case "access_denied":
			return "Authentication was cancelled or denied."
		case "invalid_request":
			return "Invalid authentication request. Please try again."
		case "server_error", "temporarily_unavailable":
			return "Authentication server error. Please try again later."
		default:
			if oauthErr.Description != "" {
				return fmt.Sprintf("Authentication failed: %s", oauthErr.Description)
			}
			return fmt.Sprintf("Authentication failed: %s", oauthErr.Code)
		}
	}

	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		switch authErr.Type {
		case ErrServerStartFailed.Type:
			return "Could not start the local callback server. Check that loopback networking is available."
		case ErrInvalidState.Type:
			return "The login response did not match this login attempt. Please try again."
		case ErrMissingCode.Type:
			return "The provider did not return an authorization code. Please try again."
		case ErrCodeExchangeFailed.Type, ErrTokenResponseInvalid.Type:
			return "Could not exchange the authorization code for tokens. Please try again."
		case ErrCallbackTimeout.Type:
			return "Authentication timed out. Please try again."
		case ErrLoginCancelled.Type:
			return "Login was cancelled."
		case ErrCallbackServerFailed.Type:
			return "The local callback server stopped unexpectedly. Please try again."
		default:
			return "Authentication failed. Please try again."
		}
	}

	return "An unexpected error occurred. Please try again."
}
