package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fleetops/fleet-gateway/internal/apierr"
	"github.com/fleetops/fleet-gateway/internal/middleware"
	"github.com/fleetops/fleet-gateway/internal/services"
)

// ReportHandler serves the async report flow: submit returns a tracking id
// immediately; completion is observed by polling the status endpoint.
type ReportHandler struct {
	reports *services.ReportService
}

// NewReportHandler creates a new report handler.
func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

type generateReportRequest struct {
	ReportType string          `json:"report_type"`
	Parameters json.RawMessage `json:"parameters"`
}

// Generate submits a report job.
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())

	var req generateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReportType == "" {
		apierr.Validation(w, r, []apierr.FieldError{{Field: "report_type", Message: "is required"}})
		return
	}

	report, err := h.reports.Submit(r.Context(), claims.TenantID, claims.UserID, req.ReportType, req.Parameters)
	if err != nil {
		log.Error().Err(err).Msg("failed to submit report")
		apierr.Internal(w, r)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"report_id": report.ID,
		"status":    report.Status,
	})
}

// Status returns the current state of a report job.
func (h *ReportHandler) Status(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())

	reportID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apierr.NotFound(w, r)
		return
	}

	report, err := h.reports.Status(r.Context(), claims.TenantID, reportID)
	if errors.Is(err, services.ErrReportNotFound) {
		apierr.NotFound(w, r)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to get report status")
		apierr.Internal(w, r)
		return
	}

	resp := map[string]any{
		"report_id": report.ID,
		"status":    report.Status,
	}
	if report.CompletedAt != nil {
		resp["completed_at"] = report.CompletedAt
	}
	if report.Error != "" {
		resp["error"] = report.Error
	}
	if len(report.Result) > 0 {
		resp["result"] = json.RawMessage(report.Result)
	}
	writeJSON(w, http.StatusOK, resp)
}
