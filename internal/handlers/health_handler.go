package handlers

import (
	"context"
	"net/http"

	"participa/internal/config"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler reports service health and public build information
type HealthHandler struct {
	db  HealthChecker
	app config.AppConfig
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db HealthChecker, app config.AppConfig) *HealthHandler {
	return &HealthHandler{
		db:  db,
		app: app,
	}
}

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Name     string `json:"name"`
	Version  string `json:"version"`
}

// Health checks the ledger store
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse "Store unavailable"
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "healthy",
		Database: "ok",
		Name:     h.app.Name,
		Version:  h.app.Version,
	}

	if err := h.db.HealthCheck(r.Context()); err != nil {
		resp.Status = "unhealthy"
		resp.Database = "unavailable"
		respondWithJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}
