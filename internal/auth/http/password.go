package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/botflowhq/botflow/internal/auth/service"
	"github.com/botflowhq/botflow/pkg/httpx"
)

// ForgotPasswordHandler serves POST /v1/auth/forgot-password. The response
// is identical whether or not the email exists.
type ForgotPasswordHandler struct {
	AuthService *service.AuthService
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *ForgotPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Email is required")
		return
	}

	if err := h.AuthService.ForgotPassword(r.Context(), email); err != nil {
		writeAuthError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"detail": "If that email is registered, a reset link has been sent",
	})
}

// ResetPasswordHandler serves POST /v1/auth/reset-password.
type ResetPasswordHandler struct {
	AuthService *service.AuthService
}

type resetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *ResetPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	if strings.TrimSpace(req.Token) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Reset token is required")
		return
	}

	if err := h.AuthService.ResetPassword(r.Context(), req.Token, req.Password, req.ConfirmPassword); err != nil {
		writeAuthError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "password_reset"})
}
