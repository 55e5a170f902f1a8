package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/botflowhq/botflow/internal/auth/domain"
	"github.com/botflowhq/botflow/internal/auth/service"
	"github.com/botflowhq/botflow/internal/auth/store/drivers/sqlite"
	"github.com/botflowhq/botflow/pkg/cryptox"
	"github.com/botflowhq/botflow/pkg/idx"
	"github.com/botflowhq/botflow/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

const testPassword = "correct horse battery"

type recordingMailer struct {
	resetCh chan string
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, _, _ string, token string) error {
	m.resetCh <- token
	return nil
}

func (m *recordingMailer) SendPasswordChangedNotice(context.Context, string, string) error {
	return nil
}

type testEnv struct {
	router *Router
	store  *sqlite.Store
	mail   *recordingMailer
	reqSeq int
}

func newTestEnv(t *testing.T, bootstrapToken string) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewSignerHS256(testKey)
	require.NoError(t, err)
	verifier, err := jwtx.NewVerifierHS256(testKey, "botflow-test", []string{"botflow"})
	require.NoError(t, err)

	mail := &recordingMailer{resetCh: make(chan string, 8)}

	authService := &service.AuthService{
		Store:    st,
		Guard:    &service.Guard{Store: st},
		Signer:   signer,
		Verifier: verifier,
		Mailer:   mail,
		Issuer:   "botflow-test",
		Audience: []string{"botflow"},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(verifier, "test", st, logger)
	router.AuthService = authService
	router.AccountService = &service.AccountService{Store: st}
	router.BootstrapService = &service.BootstrapService{Store: st, Token: bootstrapToken}
	router.ApplyRoutes()

	return &testEnv{router: router, store: st, mail: mail}
}

// do issues a JSON request against the router. Each call gets a distinct
// forwarded IP so per-IP rate limits stay out of the way.
func (e *testEnv) do(t *testing.T, method, path string, body any, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	e.reqSeq++
	req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.%d.%d", e.reqSeq/250, e.reqSeq%250))
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func seedAccount(t *testing.T, e *testEnv, role domain.Role, email, username string) domain.Account {
	t.Helper()

	hash, salt, err := cryptox.HashPassword(testPassword)
	require.NoError(t, err)

	account := domain.Account{
		ID:            idx.New().String(),
		Email:         email,
		Username:      username,
		Plan:          "free",
		PasswordHash:  hash,
		PasswordSalt:  salt,
		Role:          role,
		EmailVerified: true,
		Active:        true,
	}
	require.NoError(t, e.store.Accounts().CreateAccount(context.Background(), account))
	return account
}

func TestRegisterAndProfileFlow(t *testing.T) {
	e := newTestEnv(t, "")

	rec := e.do(t, http.MethodPost, "/v1/auth/register", map[string]string{
		"email":            "alice@example.com",
		"username":         "alice",
		"given_name":       "Alice",
		"family_name":      "Smith",
		"password":         testPassword,
		"confirm_password": testPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeJSON[tokenResponse](t, rec)
	require.NotEmpty(t, resp.Token)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, "standard", resp.Account.Role)

	t.Run("refresh cookie is set", func(t *testing.T) {
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, refreshCookieName, cookies[0].Name)
		require.Equal(t, resp.RefreshToken, cookies[0].Value)
		require.True(t, cookies[0].HttpOnly)
		require.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
	})

	t.Run("profile endpoint with session token", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/v1/accounts/me", nil, withBearer(resp.Token))
		require.Equal(t, http.StatusOK, rec.Code)

		profile := decodeJSON[accountPayload](t, rec)
		require.Equal(t, "alice@example.com", profile.Email)
	})

	t.Run("profile endpoint without token", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/v1/accounts/me", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("duplicate registration", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/v1/auth/register", map[string]string{
			"email":            "alice@example.com",
			"username":         "other",
			"password":         testPassword,
			"confirm_password": testPassword,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginEndpoints(t *testing.T) {
	e := newTestEnv(t, "")

	seedAccount(t, e, domain.RoleStandard, "user@example.com", "user")
	seedAccount(t, e, domain.RoleAdmin, "admin@example.com", "admin")
	seedAccount(t, e, domain.RoleSuperAdmin, "root@example.com", "root")

	cases := []struct {
		name     string
		path     string
		username string
		password string
		want     int
	}{
		{"standard login", "/v1/auth/login", "user", testPassword, http.StatusOK},
		{"wrong password", "/v1/auth/login", "user", "nope nope nope", http.StatusUnauthorized},
		{"unknown identity", "/v1/auth/login", "ghost", testPassword, http.StatusUnauthorized},
		{"standard blocked from admin login", "/v1/auth/admin/login", "user", testPassword, http.StatusForbidden},
		{"admin login", "/v1/auth/admin/login", "admin", testPassword, http.StatusOK},
		{"admin blocked from super-admin login", "/v1/auth/super-admin/login", "admin", testPassword, http.StatusForbidden},
		{"super-admin login", "/v1/auth/super-admin/login", "root", testPassword, http.StatusOK},
		{"missing password", "/v1/auth/login", "user", "", http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, tc.path, map[string]string{
				"username": tc.username,
				"password": tc.password,
			})
			require.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRefreshAndLogoutEndpoints(t *testing.T) {
	e := newTestEnv(t, "")
	seedAccount(t, e, domain.RoleStandard, "alice@example.com", "alice")

	login := e.do(t, http.MethodPost, "/v1/auth/login", map[string]string{
		"username": "alice", "password": testPassword,
	})
	require.Equal(t, http.StatusOK, login.Code)
	first := decodeJSON[tokenResponse](t, login)

	withRefreshCookie := func(token string) func(*http.Request) {
		return func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: refreshCookieName, Value: token})
		}
	}

	rec := e.do(t, http.MethodPost, "/v1/auth/refresh-token", nil, withRefreshCookie(first.RefreshToken))
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := decodeJSON[tokenResponse](t, rec)
	require.NotEqual(t, first.RefreshToken, rotated.RefreshToken)

	t.Run("stale token is rejected and cookie cleared", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/v1/auth/refresh-token", nil, withRefreshCookie(first.RefreshToken))
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Less(t, cookies[0].MaxAge, 0)
	})

	t.Run("body token also works", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/v1/auth/refresh-token", map[string]string{
			"refresh_token": rotated.RefreshToken,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		rotated = decodeJSON[tokenResponse](t, rec)
	})

	t.Run("logout revokes and clears", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/v1/auth/logout", nil, withRefreshCookie(rotated.RefreshToken))
		require.Equal(t, http.StatusOK, rec.Code)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Less(t, cookies[0].MaxAge, 0)

		rec = e.do(t, http.MethodPost, "/v1/auth/refresh-token", nil, withRefreshCookie(rotated.RefreshToken))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAccountAdminEndpoints(t *testing.T) {
	e := newTestEnv(t, "")

	user := seedAccount(t, e, domain.RoleStandard, "user@example.com", "user")
	seedAccount(t, e, domain.RoleAdmin, "admin@example.com", "admin")

	login := func(username string) tokenResponse {
		rec := e.do(t, http.MethodPost, "/v1/auth/login", map[string]string{
			"username": username, "password": testPassword,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		return decodeJSON[tokenResponse](t, rec)
	}

	userTokens := login("user")
	adminTokens := login("admin")

	suspendPath := "/v1/accounts/" + user.ID + "/suspend"
	activatePath := "/v1/accounts/" + user.ID + "/activate"

	t.Run("standard role cannot suspend", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, suspendPath, nil, withBearer(userTokens.Token))
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin suspends and reactivates", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, suspendPath, nil, withBearer(adminTokens.Token))
		require.Equal(t, http.StatusOK, rec.Code)

		loginRec := e.do(t, http.MethodPost, "/v1/auth/login", map[string]string{
			"username": "user", "password": testPassword,
		})
		require.Equal(t, http.StatusUnauthorized, loginRec.Code)

		rec = e.do(t, http.MethodPost, activatePath, nil, withBearer(adminTokens.Token))
		require.Equal(t, http.StatusOK, rec.Code)

		loginRec = e.do(t, http.MethodPost, "/v1/auth/login", map[string]string{
			"username": "user", "password": testPassword,
		})
		require.Equal(t, http.StatusOK, loginRec.Code)
	})

	t.Run("unknown account id", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/v1/accounts/missing/suspend", nil, withBearer(adminTokens.Token))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPasswordResetEndpoints(t *testing.T) {
	e := newTestEnv(t, "")
	seedAccount(t, e, domain.RoleStandard, "alice@example.com", "alice")

	t.Run("unknown email gets the same answer", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/v1/auth/forgot-password", map[string]string{
			"email": "ghost@example.com",
		})
		require.Equal(t, http.StatusOK, rec.Code)
	})

	rec := e.do(t, http.MethodPost, "/v1/auth/forgot-password", map[string]string{
		"email": "alice@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var token string
	select {
	case token = <-e.mail.resetCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reset token")
	}

	const newPassword = "an entirely new secret"

	t.Run("bad token", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/v1/auth/reset-password", map[string]string{
			"token": "never-issued", "password": newPassword, "confirm_password": newPassword,
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	rec = e.do(t, http.MethodPost, "/v1/auth/reset-password", map[string]string{
		"token": token, "password": newPassword, "confirm_password": newPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("new password works", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/v1/auth/login", map[string]string{
			"username": "alice", "password": newPassword,
		})
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestValidateTokenEndpoint(t *testing.T) {
	e := newTestEnv(t, "")
	seedAccount(t, e, domain.RoleStandard, "alice@example.com", "alice")

	login := e.do(t, http.MethodPost, "/v1/auth/login", map[string]string{
		"username": "alice", "password": testPassword,
	})
	require.Equal(t, http.StatusOK, login.Code)
	tokens := decodeJSON[tokenResponse](t, login)

	rec := e.do(t, http.MethodPost, "/v1/auth/validate-token", map[string]string{"token": tokens.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decodeJSON[map[string]bool](t, rec)["valid"])

	rec = e.do(t, http.MethodPost, "/v1/auth/validate-token", map[string]string{"token": "garbage"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, decodeJSON[map[string]bool](t, rec)["valid"])
}

func TestBootstrapEndpoint(t *testing.T) {
	t.Run("disabled without a configured token", func(t *testing.T) {
		e := newTestEnv(t, "")
		rec := e.do(t, http.MethodPost, "/v1/bootstrap", map[string]string{})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	e := newTestEnv(t, "bootstrap-secret")
	body := map[string]string{
		"email":    "root@example.com",
		"username": "root",
		"password": testPassword,
	}
	withToken := func(token string) func(*http.Request) {
		return func(r *http.Request) { r.Header.Set("X-Bootstrap-Token", token) }
	}

	t.Run("missing header", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/v1/bootstrap", body)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong token", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/v1/bootstrap", body, withToken("wrong"))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	rec := e.do(t, http.MethodPost, "/v1/bootstrap", body, withToken("bootstrap-secret"))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeJSON[accountPayload](t, rec)
	require.Equal(t, "superadmin", created.Role)

	t.Run("second bootstrap refused", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/v1/bootstrap", body, withToken("bootstrap-secret"))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	e := newTestEnv(t, "")

	rec := e.do(t, http.MethodGet, "/livez", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeJSON[healthResponse](t, rec).Status)

	rec = e.do(t, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeJSON[healthResponse](t, rec)
	require.Equal(t, "ok", resp.Status)
	require.NotNil(t, resp.Checks)
}

func TestLoginRateLimit(t *testing.T) {
	e := newTestEnv(t, "")
	seedAccount(t, e, domain.RoleStandard, "alice@example.com", "alice")

	sameIP := func(r *http.Request) {
		r.Header.Set("X-Forwarded-For", "192.0.2.77")
	}

	var last int
	for i := 0; i < 6; i++ {
		rec := e.do(t, http.MethodPost, "/v1/auth/login", map[string]string{
			"username": "alice", "password": "wrong password",
		}, sameIP)
		last = rec.Code
	}
	require.Equal(t, http.StatusTooManyRequests, last)
}
