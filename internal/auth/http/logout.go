package http

import (
	"encoding/json"
	"net/http"

	"github.com/botflowhq/botflow/internal/auth/service"
	"github.com/botflowhq/botflow/pkg/httpx"
)

// LogoutHandler serves POST /v1/auth/logout. Revokes the refresh token and
// clears the cookie. Always succeeds for unknown tokens.
type LogoutHandler struct {
	AuthService *service.AuthService
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	token := refreshTokenFromRequest(r, req.RefreshToken)

	if err := h.AuthService.Logout(r.Context(), token); err != nil {
		writeAuthError(w, r, err)
		return
	}

	clearRefreshCookie(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
