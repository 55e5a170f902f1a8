package httpx

import "net/http"

// RequireAnyRole gates a handler to callers whose role claim is in the
// required set. Every gated surface goes through this one check rather
// than scattering role comparisons across handlers.
func RequireAnyRole(required ...string) Middleware {
	want := make(map[string]struct{}, len(required))
	for _, role := range required {
		want[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := want[roleFromCtx(r.Context())]; !ok {
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte("access denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
