package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/stocklane/inventory-management/pkg/logger"
)

const traceHeader = "X-Trace-ID"

// RequestID assigns every request a trace id, honoring one supplied by
// an upstream proxy. The id is echoed on the response and attached to
// the context logger so all downstream log lines carry it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		w.Header().Set(traceHeader, traceID)

		ctx := logger.With(r.Context(), "trace_id", traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
