package handlers

import (
	"context"
	"log"
	"net/http"
)

// Pinger probes a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports store and cache health for load balancers.
// cache may be nil when Redis is not configured.
type HealthHandler struct {
	db    Pinger
	cache Pinger
}

// NewHealthHandler creates a health handler
func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// ServeHTTP handles GET /health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.db.Ping(ctx); err != nil {
		log.Printf("Health check DB failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "db": "down"})
		return
	}
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			log.Printf("Health check Redis failed: %v", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded", "db": "up", "redis": "down",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "db": "up", "redis": "up"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "db": "up", "redis": "n/a"})
}
