package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/botflowhq/botflow/internal/auth/service"
	"github.com/botflowhq/botflow/pkg/httpx"
)

// ValidateTokenHandler serves POST /v1/auth/validate-token. Reports token
// validity as a boolean; never reveals why a token failed.
type ValidateTokenHandler struct {
	AuthService *service.AuthService
}

type validateTokenRequest struct {
	Token string `json:"token"`
}

func (h *ValidateTokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req validateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	token := strings.TrimSpace(req.Token)
	if token == "" {
		// Fall back to the Authorization header for convenience.
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]bool{
		"valid": h.AuthService.ValidateToken(token),
	})
}
