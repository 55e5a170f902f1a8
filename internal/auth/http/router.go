package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/botflowhq/botflow/internal/auth/domain"
	"github.com/botflowhq/botflow/internal/auth/service"
	"github.com/botflowhq/botflow/internal/auth/store"
	"github.com/botflowhq/botflow/pkg/httpx"
	"github.com/botflowhq/botflow/pkg/jwtx"
	"github.com/botflowhq/botflow/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store            store.Store
	AuthService      *service.AuthService
	AccountService   *service.AccountService
	BootstrapService *service.BootstrapService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAccounts()
	r.registerBootstrap()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware
// chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// POST /register - strict rate limit by IP (account creation)
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(&RegisterHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// The three login routes share one handler; only the gate differs.
	// All get strict per-IP limits against credential stuffing.
	logins := map[string]*LoginHandler{
		"POST /v1/auth/login":             {AuthService: r.AuthService, Login: r.AuthService.Login},
		"POST /v1/auth/admin/login":       {AuthService: r.AuthService, Login: r.AuthService.AdminLogin},
		"POST /v1/auth/super-admin/login": {AuthService: r.AuthService, Login: r.AuthService.SuperAdminLogin},
	}
	for pattern, h := range logins {
		r.Mux.Handle(pattern, httpx.Chain(h, httpx.RateLimitByIP(httpx.StrictLimit)))
	}

	// POST /refresh-token - moderate rate limit (legitimate clients renew
	// every session expiry)
	r.Mux.Handle("POST /v1/auth/refresh-token",
		httpx.Chain(&RefreshHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(&LogoutHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// Password reset endpoints - strict limits, both can trigger email
	r.Mux.Handle("POST /v1/auth/forgot-password",
		httpx.Chain(&ForgotPasswordHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/reset-password",
		httpx.Chain(&ResetPasswordHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/validate-token",
		httpx.Chain(&ValidateTokenHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerAccounts() {
	h := &AccountsHandler{AccountService: r.AccountService}

	// GET /accounts/me - any authenticated account
	r.Mux.Handle("GET /v1/accounts/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByAccount(httpx.LenientLimit),
		),
	)

	// Suspend/activate are admin operations
	adminOnly := []httpx.Middleware{
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyRole(domain.RoleAdmin.String(), domain.RoleSuperAdmin.String()),
		httpx.RateLimitByAccount(httpx.ModerateLimit),
	}

	r.Mux.Handle("POST /v1/accounts/{id}/suspend",
		httpx.Chain(http.HandlerFunc(h.HandleSuspend), adminOnly...))
	r.Mux.Handle("POST /v1/accounts/{id}/activate",
		httpx.Chain(http.HandlerFunc(h.HandleActivate), adminOnly...))
}

func (r *Router) registerBootstrap() {
	// POST /bootstrap - strict rate limit by IP (one-time setup endpoint)
	r.Mux.Handle("POST /v1/bootstrap",
		httpx.Chain(&BootstrapHandler{BootstrapService: r.BootstrapService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
