package handlers

import (
	"context"
	"net/http"
	"time"

	pkghttp "github.com/vibecord/storefront-auth/pkg/http"
)

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves liveness and status endpoints
type HealthHandler struct {
	db        HealthChecker
	env       string
	startedAt time.Time
}

func NewHealthHandler(db HealthChecker, env string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		env:       env,
		startedAt: time.Now(),
	}
}

// Health pings the database and reports readiness
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(r.Context()); err != nil {
		pkghttp.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "degraded",
			"database": "down",
		})
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "up",
	})
}

// Status reports process-level information
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "running",
		"env":    h.env,
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}
