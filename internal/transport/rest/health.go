package rest

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"
)

const dbPingTimeout = 2 * time.Second

type healthReport struct {
	Status    string         `json:"status"`
	CheckedAt time.Time      `json:"checked_at"`
	Database  databaseHealth `json:"database"`
}

type databaseHealth struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// pingHandler is the liveness probe: the process is up and serving.
func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// healthCheckHandler is the readiness probe: it pings the database and
// reports 503 when the store is unreachable.
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), dbPingTimeout)
	defer cancel()

	start := time.Now()
	pingErr := h.db.PingContext(ctx)

	report := healthReport{
		Status:    "ok",
		CheckedAt: time.Now(),
		Database: databaseHealth{
			Status:    "ok",
			LatencyMs: time.Since(start).Milliseconds(),
		},
	}

	status := http.StatusOK
	if pingErr != nil {
		report.Status = "degraded"
		report.Database.Status = "unreachable"
		report.Database.Error = pingErr.Error()
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(report)
}
