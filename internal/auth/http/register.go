package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/botflowhq/botflow/internal/auth/service"
)

// RegisterHandler serves POST /v1/auth/register. A successful registration
// signs the new account in immediately.
type RegisterHandler struct {
	AuthService *service.AuthService
}

type registerRequest struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	GivenName       string `json:"given_name"`
	FamilyName      string `json:"family_name"`
	Company         string `json:"company"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	res, err := h.AuthService.Register(r.Context(), service.RegisterInput{
		Email:           strings.TrimSpace(req.Email),
		Username:        strings.TrimSpace(req.Username),
		GivenName:       strings.TrimSpace(req.GivenName),
		FamilyName:      strings.TrimSpace(req.FamilyName),
		Company:         strings.TrimSpace(req.Company),
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	writeAuthResult(w, http.StatusCreated, res, h.AuthService.RefreshTokenTTL())
}
