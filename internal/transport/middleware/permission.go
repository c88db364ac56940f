package middleware

import (
	"log/slog"
	"net/http"

	"github.com/stocklane/inventory-management/internal"
)

// RequirePermissions guards a route with a permission check against the
// principal placed in context by the auth middleware. Admins pass every
// check; everyone else needs at least one of the listed permissions.
// The denial response is uniform and says nothing about the resource.
func RequirePermissions(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := internal.UserFromContext(r.Context())
			if !ok || u == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			allowed := false
			for _, p := range permissions {
				if u.HasPermission(p) {
					allowed = true
					break
				}
			}

			if !allowed {
				slog.Warn("access denied: insufficient permissions",
					"user_id", u.ID,
					"required_permissions", permissions)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
