package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/stocklane/inventory-management/pkg/logger"
)

// RecoveryMiddleware converts handler panics into a generic 500 so one
// bad request cannot take the server down. The panic value and stack go
// to the log only, never to the client.
func RecoveryMiddleware(fallback *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				log := logger.From(r.Context())
				if log == nil {
					log = fallback
				}
				log.Error("panic recovered",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"code":500,"message":"internal server error"}`))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
