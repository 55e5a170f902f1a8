package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/botflowhq/botflow/internal/auth/domain"
	"github.com/botflowhq/botflow/internal/auth/service"
	"github.com/botflowhq/botflow/pkg/httpx"
	"github.com/botflowhq/botflow/pkg/slogx"
)

// refreshCookieName is the HTTP-only cookie carrying the refresh token for
// browser clients. API clients may pass the token in the request body
// instead.
const refreshCookieName = "refreshToken"

type accountPayload struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Username      string `json:"username"`
	GivenName     string `json:"given_name,omitempty"`
	FamilyName    string `json:"family_name,omitempty"`
	Company       string `json:"company,omitempty"`
	Plan          string `json:"plan"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
	Active        bool   `json:"active"`
	CreatedAt     string `json:"created_at"`
}

type tokenResponse struct {
	Token        string         `json:"token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int64          `json:"expires_in"`
	Account      accountPayload `json:"account"`
}

func toAccountPayload(a domain.Account) accountPayload {
	return accountPayload{
		ID:            a.ID,
		Email:         a.Email,
		Username:      a.Username,
		GivenName:     a.GivenName,
		FamilyName:    a.FamilyName,
		Company:       a.Company,
		Plan:          a.Plan,
		Role:          a.Role.String(),
		EmailVerified: a.EmailVerified,
		Active:        a.Active,
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toTokenResponse(res *service.AuthResult) tokenResponse {
	return tokenResponse{
		Token:        res.Tokens.SessionToken,
		RefreshToken: res.Tokens.RefreshToken,
		TokenType:    res.Tokens.TokenType,
		ExpiresIn:    res.Tokens.ExpiresIn,
		Account:      toAccountPayload(res.Account),
	}
}

// writeAuthResult writes the token payload and mirrors the refresh token
// into the HTTP-only cookie for browser clients.
func writeAuthResult(w http.ResponseWriter, code int, res *service.AuthResult, refreshTTL time.Duration) {
	setRefreshCookie(w, res.Tokens.RefreshToken, refreshTTL)
	httpx.WriteJSON(w, code, toTokenResponse(res))
}

func setRefreshCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/v1/auth",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/v1/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// refreshTokenFromRequest prefers the body field and falls back to the
// cookie set at login.
func refreshTokenFromRequest(r *http.Request, bodyToken string) string {
	if bodyToken != "" {
		return bodyToken
	}
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// writeAuthError maps service failures onto HTTP statuses. Expected
// failures keep their specific code and a safe description; anything else
// is logged and reported as a generic server error.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
	case errors.Is(err, service.ErrAccountLocked):
		httpx.WriteError(w, http.StatusUnauthorized, "account_locked", "Account is temporarily locked due to repeated failed logins")
	case errors.Is(err, service.ErrAccountInactive):
		httpx.WriteError(w, http.StatusUnauthorized, "account_inactive", "Account has been deactivated")
	case errors.Is(err, service.ErrEmailNotVerified):
		httpx.WriteError(w, http.StatusUnauthorized, "email_not_verified", "Email address has not been verified")
	case errors.Is(err, service.ErrAccessDenied):
		httpx.WriteError(w, http.StatusForbidden, "access_denied", "Access denied")
	case errors.Is(err, service.ErrInvalidToken):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Token is invalid or expired")
	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteError(w, http.StatusBadRequest, "email_taken", "Email is already registered")
	case errors.Is(err, service.ErrUsernameTaken):
		httpx.WriteError(w, http.StatusBadRequest, "username_taken", "Username is already taken")
	case errors.Is(err, service.ErrPasswordMismatch):
		httpx.WriteError(w, http.StatusBadRequest, "password_mismatch", "Passwords do not match")
	case errors.Is(err, service.ErrWeakPassword):
		httpx.WriteError(w, http.StatusBadRequest, "weak_password", "Password does not meet requirements")
	default:
		slogx.FromContext(r.Context()).Error("unexpected auth error", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "An internal error occurred")
	}
}

func writeInvalidJSON(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Request body must be valid JSON")
}
