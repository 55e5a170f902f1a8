package http

import (
	"encoding/json"
	"net/http"

	"github.com/botflowhq/botflow/internal/auth/service"
)

// RefreshHandler serves POST /v1/auth/refresh-token. The token comes from
// the JSON body or the refresh cookie; a successful redeem rotates it.
type RefreshHandler struct {
	AuthService *service.AuthService
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.Body != nil {
		// Body is optional when the cookie is present.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	token := refreshTokenFromRequest(r, req.RefreshToken)

	res, err := h.AuthService.Refresh(r.Context(), token)
	if err != nil {
		clearRefreshCookie(w)
		writeAuthError(w, r, err)
		return
	}

	writeAuthResult(w, http.StatusOK, res, h.AuthService.RefreshTokenTTL())
}
