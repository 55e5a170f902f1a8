package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/botflowhq/botflow/internal/auth/service"
	"github.com/botflowhq/botflow/pkg/httpx"
	"github.com/botflowhq/botflow/pkg/slogx"
)

// BootstrapHandler serves POST /v1/bootstrap: one-time creation of the
// first super-admin account. Disabled unless a bootstrap token is
// configured.
type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

type bootstrapRequest struct {
	Email      string `json:"email"`
	Username   string `json:"username"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Password   string `json:"password"`
}

func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l := slogx.FromContext(r.Context())

	if h.BootstrapService.Token == "" {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "Bootstrap endpoint is not enabled")
		return
	}

	token := r.Header.Get("X-Bootstrap-Token")
	if token == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Bootstrap token is required in X-Bootstrap-Token header")
		return
	}

	var req bootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Username) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Email and username are required")
		return
	}

	account, err := h.BootstrapService.Bootstrap(r.Context(), token, service.BootstrapInput{
		Email:      strings.TrimSpace(req.Email),
		Username:   strings.TrimSpace(req.Username),
		GivenName:  strings.TrimSpace(req.GivenName),
		FamilyName: strings.TrimSpace(req.FamilyName),
		Password:   req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBootstrapAlready):
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "System has already been bootstrapped")
		case errors.Is(err, service.ErrBootstrapUnauthorized):
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid bootstrap token")
		case errors.Is(err, service.ErrWeakPassword):
			httpx.WriteError(w, http.StatusBadRequest, "weak_password", "Password does not meet requirements")
		default:
			l.Error("bootstrap failed", "error", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "An internal error occurred")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toAccountPayload(account))
}
