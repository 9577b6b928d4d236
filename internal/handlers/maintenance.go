package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/fleetops/fleet-gateway/internal/apierr"
	"github.com/fleetops/fleet-gateway/internal/middleware"
	"github.com/fleetops/fleet-gateway/internal/repository"
)

// MaintenanceHandler serves the vehicle-scoped maintenance read with its
// derived aggregates.
type MaintenanceHandler struct {
	repo *repository.MaintenanceRepository
}

// NewMaintenanceHandler creates a new maintenance handler.
func NewMaintenanceHandler(repo *repository.MaintenanceRepository) *MaintenanceHandler {
	return &MaintenanceHandler{repo: repo}
}

// ByVehicle lists all maintenance records for one vehicle. total_records and
// total_cost are computed over the returned rows, so they always match the
// sequence.
func (h *MaintenanceHandler) ByVehicle(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())

	vehicleID, err := strconv.ParseUint(chi.URLParam(r, "vehicleId"), 10, 32)
	if err != nil {
		apierr.NotFound(w, r)
		return
	}
	if ok, err := vehicleExists(r.Context(), claims.TenantID, uint(vehicleID)); err != nil || !ok {
		apierr.NotFound(w, r)
		return
	}

	records, total, totalCost, err := h.repo.ByVehicle(r.Context(), claims.TenantID, uint(vehicleID))
	if err != nil {
		log.Error().Err(err).Msg("failed to query maintenance by vehicle")
		apierr.Internal(w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":          records,
		"total_records": total,
		"total_cost":    totalCost,
	})
}
