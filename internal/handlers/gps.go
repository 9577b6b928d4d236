package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fleetops/fleet-gateway/internal/apierr"
	"github.com/fleetops/fleet-gateway/internal/middleware"
	"github.com/fleetops/fleet-gateway/internal/models"
	"github.com/fleetops/fleet-gateway/internal/repository"
	"github.com/fleetops/fleet-gateway/internal/services"
)

// GPSHandler serves the position stream: ingest, history and geofence
// alerts.
type GPSHandler struct {
	telemetry *services.TelemetryService
	gpsRepo   *repository.GPSRepository
}

// NewGPSHandler creates a new GPS handler.
func NewGPSHandler(telemetry *services.TelemetryService, gpsRepo *repository.GPSRepository) *GPSHandler {
	return &GPSHandler{telemetry: telemetry, gpsRepo: gpsRepo}
}

// Ingest appends one position to a vehicle's stream.
func (h *GPSHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())

	var pos models.GPSPosition
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		apierr.Validation(w, r, []apierr.FieldError{{Field: "body", Message: "invalid JSON"}})
		return
	}
	if errs := pos.Validate(); len(errs) > 0 {
		apierr.Validation(w, r, errs)
		return
	}
	if errs := requireVehicle(r.Context(), claims.TenantID, pos.VehicleID); len(errs) > 0 {
		apierr.Validation(w, r, errs)
		return
	}

	if err := h.telemetry.Ingest(r.Context(), claims.TenantID, &pos); err != nil {
		log.Error().Err(err).Msg("failed to ingest position")
		apierr.Internal(w, r)
		return
	}

	writeData(w, http.StatusCreated, &pos)
}

// History returns a vehicle's positions within [startTime, endTime],
// ascending by timestamp. An empty window is an empty list, not an error.
// Optional bounding box: minLat/maxLat/minLng/maxLng.
func (h *GPSHandler) History(w http.ResponseWriter, r *http.Request) {
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

	start, end, ok := parseTimeWindow(r, "startTime", "endTime")
	if !ok {
		apierr.Validation(w, r, []apierr.FieldError{
			{Field: "startTime", Message: "startTime and endTime must be RFC3339 timestamps"},
		})
		return
	}

	bbox := parseBoundingBox(r)

	points, err := h.gpsRepo.History(r.Context(), claims.TenantID, uint(vehicleID), start, end, bbox)
	if err != nil {
		log.Error().Err(err).Msg("failed to query history")
		apierr.Internal(w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  points,
		"total": len(points),
	})
}

// GeofenceAlerts returns alerts raised by one geofence within a date range.
func (h *GPSHandler) GeofenceAlerts(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())

	geofenceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apierr.NotFound(w, r)
		return
	}
	if ok, err := geofenceExists(r.Context(), claims.TenantID, geofenceID); err != nil || !ok {
		apierr.NotFound(w, r)
		return
	}

	start, end, ok := parseTimeWindow(r, "startDate", "endDate")
	if !ok {
		apierr.Validation(w, r, []apierr.FieldError{
			{Field: "startDate", Message: "startDate and endDate must be RFC3339 timestamps"},
		})
		return
	}

	alerts, err := h.gpsRepo.AlertsForGeofence(r.Context(), claims.TenantID, geofenceID, start, end)
	if err != nil {
		log.Error().Err(err).Msg("failed to query geofence alerts")
		apierr.Internal(w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  alerts,
		"total": len(alerts),
	})
}

// parseTimeWindow reads a start/end query pair. Missing values default to
// the epoch and now, so an open-ended window is valid.
func parseTimeWindow(r *http.Request, startParam, endParam string) (time.Time, time.Time, bool) {
	start := time.Unix(0, 0).UTC()
	end := time.Now().UTC()

	if v := r.URL.Query().Get(startParam); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return start, end, false
		}
		start = t
	}
	if v := r.URL.Query().Get(endParam); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return start, end, false
		}
		end = t
	}
	return start, end, true
}

func parseBoundingBox(r *http.Request) *models.BoundingBox {
	q := r.URL.Query()
	raw := [4]string{q.Get("minLat"), q.Get("maxLat"), q.Get("minLng"), q.Get("maxLng")}
	for _, v := range raw {
		if v == "" {
			return nil
		}
	}
	var vals [4]float64
	for i, v := range raw {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		vals[i] = f
	}
	return &models.BoundingBox{MinLat: vals[0], MaxLat: vals[1], MinLng: vals[2], MaxLng: vals[3]}
}
