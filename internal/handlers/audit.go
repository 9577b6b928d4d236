package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/fleetops/fleet-gateway/internal/apierr"
	"github.com/fleetops/fleet-gateway/internal/middleware"
	"github.com/fleetops/fleet-gateway/internal/repository"
)

// AuditHandler exposes the tenant's audit trail to admins.
type AuditHandler struct {
	repo *repository.AuditRepository
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(repo *repository.AuditRepository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// List returns one page of audit log entries, newest first.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())
	p := parsePagination(r)

	logs, total, err := h.repo.GetByTenantID(r.Context(), claims.TenantID, p.Limit, (p.Page-1)*p.Limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list audit logs")
		apierr.Internal(w, r)
		return
	}

	writePage(w, logs, total, p)
}
