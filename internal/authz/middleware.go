// Package authz wires role gating for HTTP routes. The service layer
// re-checks its own predicates; the middleware exists so unauthenticated or
// under-privileged requests are rejected before reaching handlers.
package authz

import (
	"log/slog"
	"net/http"

	"github.com/cardmint/cardmint/internal/shared"
)

// Middleware gates routes on the authenticated principal.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAuthenticated ensures a principal is present on the request.
func (m Middleware) RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shared.PrincipalFromContext(r.Context()) == nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole ensures the principal carries the given role. ADMIN passes
// USER gates; the reverse does not hold.
func (m Middleware) RequireRole(role shared.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := shared.PrincipalFromContext(r.Context())
			if p == nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if p.Role != role && !(role == shared.RoleUser && p.IsAdmin()) {
				if m.Logger != nil {
					m.Logger.Warn("role gate rejected request",
						slog.String("path", r.URL.Path),
						slog.String("required", string(role)))
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
