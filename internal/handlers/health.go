package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fleetops/fleet-gateway/internal/cache"
	"github.com/fleetops/fleet-gateway/internal/database"
)

// HealthHandler reports component health.
type HealthHandler struct {
	cache cache.Cache
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(c cache.Cache) *HealthHandler {
	return &HealthHandler{cache: c}
}

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := healthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Services:  make(map[string]string),
	}

	sqlDB, err := database.DB.DB()
	if err != nil || sqlDB.Ping() != nil {
		response.Services["database"] = "unhealthy"
		response.Status = "degraded"
	} else {
		response.Services["database"] = "healthy"
	}

	if _, err := h.cache.Exists(r.Context(), "healthcheck"); err != nil {
		response.Services["cache"] = "unhealthy"
		response.Status = "degraded"
	} else {
		response.Services["cache"] = "healthy"
	}

	w.Header().Set("Content-Type", "application/json")
	if response.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(response)
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := database.DB.DB()
	if err != nil || sqlDB.Ping() != nil {
		http.Error(w, "Service not ready", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
