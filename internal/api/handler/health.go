package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/iconidentify/vidrelay/internal/history"
)

var startTime = time.Now()

// HealthHandler handles the ops endpoints.
type HealthHandler struct {
	store *history.Store
}

// NewHealthHandler creates a health handler backed by the delivery history.
func NewHealthHandler(store *history.Store) *HealthHandler {
	return &HealthHandler{
		store: store,
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Live handles GET /health - liveness probe.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready - readiness probe; checks the history database.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "error",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// StatsResponse combines process and delivery statistics.
type StatsResponse struct {
	UptimeSeconds int64          `json:"uptime_seconds"`
	NumGoroutines int            `json:"num_goroutines"`
	MemAllocMB    int64          `json:"mem_alloc_mb"`
	Deliveries    *history.Stats `json:"deliveries"`
}

// Stats handles GET /stats - process and delivery statistics.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, HealthResponse{
			Status:    "error",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	writeJSON(w, http.StatusOK, StatsResponse{
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		NumGoroutines: runtime.NumGoroutine(),
		MemAllocMB:    int64(m.Alloc / 1024 / 1024),
		Deliveries:    stats,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
