package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/stocklane/inventory-management/pkg/logger"
)

// redactedFields are request body keys whose values never reach the log.
// Matching is on the lowercased key, substring style, so variants like
// current_password or provider_token are caught too.
var redactedFields = []string{
	"password",
	"token",
	"secret",
	"authorization",
	"credential",
}

// LoggingMiddleware emits one structured line per request once the
// handler finishes. The request body is captured and redacted for
// mutating verbs only; reads are logged without a body. The logger is
// taken from the request context so the trace id set by RequestID is
// already attached.
func LoggingMiddleware(fallback *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			log := logger.From(r.Context())
			if log == nil {
				log = fallback
			}

			var body string
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
				body = captureBody(r)
			}

			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"bytes", sw.written,
				"remote_addr", r.RemoteAddr,
			}
			if r.URL.RawQuery != "" {
				attrs = append(attrs, "query", r.URL.RawQuery)
			}
			if body != "" {
				attrs = append(attrs, "body", body)
			}

			switch {
			case status >= 500:
				log.Error("request completed", attrs...)
			case status >= 400:
				log.Warn("request completed", attrs...)
			default:
				log.Info("request completed", attrs...)
			}
		})
	}
}

// statusWriter records the status code and response size without
// buffering the body.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	n, err := sw.ResponseWriter.Write(b)
	sw.written += n
	return n, err
}

// captureBody reads and restores the request body, returning a
// log-safe rendition of it.
func captureBody(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if len(raw) == 0 {
		return ""
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		// Non-JSON payloads are not worth logging verbatim.
		return "[non-json body]"
	}
	redacted, err := json.Marshal(redactValue(decoded))
	if err != nil {
		return "[unloggable body]"
	}
	return string(redacted)
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			if isRedactedKey(k) {
				out[k] = "[REDACTED]"
				continue
			}
			out[k] = redactValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = redactValue(inner)
		}
		return out
	default:
		return v
	}
}

func isRedactedKey(key string) bool {
	lower := strings.ToLower(key)
	for _, f := range redactedFields {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}
