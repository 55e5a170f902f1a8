package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/botflowhq/botflow/internal/auth/service"
	"github.com/botflowhq/botflow/pkg/httpx"
)

// LoginHandler serves the three login endpoints. Each route binds the same
// handler with a different gate so the decision tree stays in one place.
type LoginHandler struct {
	AuthService *service.AuthService

	// Login performs the role-gated authentication for this route.
	Login func(ctx context.Context, identity, password string) (*service.AuthResult, error)
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`

	// Accepted for client compatibility; MFA is not enforced.
	TwoFactorCode string `json:"two_factor_code"`
}

// identity returns whichever of email or username the client supplied.
func (req loginRequest) identity() string {
	if v := strings.TrimSpace(req.Email); v != "" {
		return v
	}
	return strings.TrimSpace(req.Username)
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	identity := req.identity()
	if identity == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Email or username and password are required")
		return
	}

	res, err := h.Login(r.Context(), identity, req.Password)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	writeAuthResult(w, http.StatusOK, res, h.AuthService.RefreshTokenTTL())
}
