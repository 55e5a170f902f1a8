package http

import (
	"errors"
	"net/http"

	"github.com/botflowhq/botflow/internal/auth/service"
	"github.com/botflowhq/botflow/pkg/httpx"
	"github.com/botflowhq/botflow/pkg/slogx"
)

// AccountsHandler serves the authenticated profile endpoint and the
// admin-only suspend/activate operations.
type AccountsHandler struct {
	AccountService *service.AccountService
}

// HandleMe returns the authenticated account's profile.
func (h *AccountsHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	accountID := httpx.AccountIDFromContext(r.Context())
	if accountID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	account, err := h.AccountService.GetByID(r.Context(), accountID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toAccountPayload(account))
}

// HandleSuspend deactivates an account and revokes its refresh token.
func (h *AccountsHandler) HandleSuspend(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.AccountService.Suspend(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "suspended"})
}

// HandleActivate re-enables a suspended account.
func (h *AccountsHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.AccountService.Activate(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "active"})
}

func (h *AccountsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrAccountNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "Account not found")
		return
	}
	slogx.FromContext(r.Context()).Error("account operation failed", "error", err)
	httpx.WriteError(w, http.StatusInternalServerError, "server_error", "An internal error occurred")
}
