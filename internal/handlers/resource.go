package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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
	"github.com/fleetops/fleet-gateway/internal/webhook"
)

// IDKind selects how a resource family's path ids parse.
type IDKind int

const (
	IDUUID IDKind = iota
	IDInt
)

// Descriptor carries the per-resource differences the generic handler needs:
// naming, id parsing, the filter whitelist, and optional referential and
// uniqueness checks run before persistence.
type Descriptor[T any, P repository.Ptr[T]] struct {
	// Name is the permission resource and event prefix, e.g. "vehicle".
	Name string
	// IDKind selects integer or uuid path ids.
	IDKind IDKind
	// Filters maps allowed query parameters to columns. Anything not listed
	// is ignored, never rejected.
	Filters map[string]string
	// CheckRefs validates cross-resource references within the tenant.
	CheckRefs func(ctx context.Context, tenantID uuid.UUID, rec *T) []apierr.FieldError
	// Duplicate reports whether an equivalent record already exists.
	Duplicate func(ctx context.Context, tenantID uuid.UUID, rec *T) (bool, error)
}

// Resource is the generic CRUD handler shared by all resource families.
type Resource[T any, P repository.Ptr[T]] struct {
	desc   Descriptor[T, P]
	store  *repository.Store[T, P]
	audit  *repository.AuditRepository
	events *webhook.Dispatcher
}

// NewResource creates the handler for one resource family.
func NewResource[T any, P repository.Ptr[T]](desc Descriptor[T, P], store *repository.Store[T, P], audit *repository.AuditRepository, events *webhook.Dispatcher) *Resource[T, P] {
	return &Resource[T, P]{desc: desc, store: store, audit: audit, events: events}
}

// Register mounts the five CRUD routes with their permission gates.
func (h *Resource[T, P]) Register(authn *middleware.Authenticator) func(chi.Router) {
	return func(r chi.Router) {
		r.With(authn.RequirePermission(h.desc.Name + ":read")).Get("/", h.List)
		r.With(authn.RequirePermission(h.desc.Name + ":read")).Get("/{id}", h.Get)
		r.With(authn.RequirePermission(h.desc.Name + ":create")).Post("/", h.Create)
		r.With(authn.RequirePermission(h.desc.Name + ":update")).Put("/{id}", h.Update)
		r.With(authn.RequirePermission(h.desc.Name + ":delete")).Delete("/{id}", h.Delete)
	}
}

func (h *Resource[T, P]) parseID(raw string) (any, bool) {
	if h.desc.IDKind == IDInt {
		n, err := strconv.ParseUint(raw, 10, 32)
		return uint(n), err == nil
	}
	id, err := uuid.Parse(raw)
	return id, err == nil
}

// List returns one page of tenant records.
func (h *Resource[T, P]) List(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())
	p := parsePagination(r)

	filters := make(map[string]any)
	for param, column := range h.desc.Filters {
		if v := r.URL.Query().Get(param); v != "" {
			filters[column] = v
		}
	}

	records, total, err := h.store.List(r.Context(), claims.TenantID, repository.ListOptions{
		Page:    p.Page,
		Limit:   p.Limit,
		Filters: filters,
	})
	if err != nil {
		log.Error().Err(err).Str("resource", h.desc.Name).Msg("list failed")
		apierr.Internal(w, r)
		return
	}

	writePage(w, records, total, p)
}

// Get returns one record. Absent, soft-deleted, cross-tenant and malformed
// ids are all the same RESOURCE_NOT_FOUND.
func (h *Resource[T, P]) Get(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())

	id, ok := h.parseID(chi.URLParam(r, "id"))
	if !ok {
		apierr.NotFound(w, r)
		return
	}

	record, err := h.store.Get(r.Context(), claims.TenantID, id)
	if errors.Is(err, repository.ErrNotFound) {
		apierr.NotFound(w, r)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("resource", h.desc.Name).Msg("get failed")
		apierr.Internal(w, r)
		return
	}

	writeData(w, http.StatusOK, record)
}

// Create validates and persists a new record.
func (h *Resource[T, P]) Create(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())
	start := time.Now()

	var record T
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		apierr.Validation(w, r, []apierr.FieldError{{Field: "body", Message: "invalid JSON"}})
		return
	}

	if errs := P(&record).Validate(); len(errs) > 0 {
		apierr.Validation(w, r, errs)
		return
	}
	if h.desc.CheckRefs != nil {
		if errs := h.desc.CheckRefs(r.Context(), claims.TenantID, &record); len(errs) > 0 {
			apierr.Validation(w, r, errs)
			return
		}
	}
	if h.desc.Duplicate != nil {
		dup, err := h.desc.Duplicate(r.Context(), claims.TenantID, &record)
		if err != nil {
			log.Error().Err(err).Str("resource", h.desc.Name).Msg("duplicate check failed")
			apierr.Internal(w, r)
			return
		}
		if dup {
			apierr.Write(w, r, apierr.CodeDuplicate, h.desc.Name+" already exists", nil)
			return
		}
	}

	if err := h.store.Create(r.Context(), claims.TenantID, &record); err != nil {
		log.Error().Err(err).Str("resource", h.desc.Name).Msg("create failed")
		apierr.Internal(w, r)
		return
	}

	h.recordAudit(r, claims, "create", &record, start)
	h.events.Publish(claims.TenantID, h.desc.Name+".created", &record)
	writeData(w, http.StatusCreated, &record)
}

// Update applies a partial body: fields absent from the request keep their
// stored values. Identity and bookkeeping fields are immutable.
func (h *Resource[T, P]) Update(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())
	start := time.Now()

	id, ok := h.parseID(chi.URLParam(r, "id"))
	if !ok {
		apierr.NotFound(w, r)
		return
	}

	record, err := h.store.Get(r.Context(), claims.TenantID, id)
	if errors.Is(err, repository.ErrNotFound) {
		apierr.NotFound(w, r)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("resource", h.desc.Name).Msg("update lookup failed")
		apierr.Internal(w, r)
		return
	}

	var patch map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		apierr.Validation(w, r, []apierr.FieldError{{Field: "body", Message: "invalid JSON"}})
		return
	}
	for _, immutable := range []string{"id", "tenant_id", "created_at", "updated_at"} {
		delete(patch, immutable)
	}
	merged, err := json.Marshal(patch)
	if err != nil {
		apierr.Internal(w, r)
		return
	}
	if err := json.Unmarshal(merged, record); err != nil {
		apierr.Validation(w, r, []apierr.FieldError{{Field: "body", Message: "invalid field value"}})
		return
	}

	if errs := P(record).Validate(); len(errs) > 0 {
		apierr.Validation(w, r, errs)
		return
	}
	if h.desc.CheckRefs != nil {
		if errs := h.desc.CheckRefs(r.Context(), claims.TenantID, record); len(errs) > 0 {
			apierr.Validation(w, r, errs)
			return
		}
	}
	if h.desc.Duplicate != nil {
		dup, err := h.desc.Duplicate(r.Context(), claims.TenantID, record)
		if err != nil {
			log.Error().Err(err).Str("resource", h.desc.Name).Msg("duplicate check failed")
			apierr.Internal(w, r)
			return
		}
		if dup {
			apierr.Write(w, r, apierr.CodeDuplicate, h.desc.Name+" already exists", nil)
			return
		}
	}

	if err := h.store.Save(r.Context(), record); err != nil {
		log.Error().Err(err).Str("resource", h.desc.Name).Msg("update failed")
		apierr.Internal(w, r)
		return
	}

	h.recordAudit(r, claims, "update", record, start)
	h.events.Publish(claims.TenantID, h.desc.Name+".updated", record)
	writeData(w, http.StatusOK, record)
}

// Delete soft deletes. Deleting an absent or already-deleted id is
// RESOURCE_NOT_FOUND, never silent success.
func (h *Resource[T, P]) Delete(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())
	start := time.Now()

	id, ok := h.parseID(chi.URLParam(r, "id"))
	if !ok {
		apierr.NotFound(w, r)
		return
	}

	err := h.store.Delete(r.Context(), claims.TenantID, id)
	if errors.Is(err, repository.ErrNotFound) {
		apierr.NotFound(w, r)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("resource", h.desc.Name).Msg("delete failed")
		apierr.Internal(w, r)
		return
	}

	h.recordAudit(r, claims, "delete", nil, start)
	h.events.Publish(claims.TenantID, h.desc.Name+".deleted", map[string]any{"id": fmt.Sprint(id)})
	writeJSON(w, http.StatusOK, map[string]string{
		"message": h.desc.Name + " deleted",
	})
}

func (h *Resource[T, P]) recordAudit(r *http.Request, claims *models.JWTClaims, action string, record *T, start time.Time) {
	resourceID := chi.URLParam(r, "id")
	entry := &models.AuditLog{
		TenantID:     claims.TenantID,
		UserID:       claims.UserID,
		Action:       h.desc.Name + "." + action,
		ResourceType: h.desc.Name,
		ResourceID:   resourceID,
		IPAddress:    r.RemoteAddr,
		Status:       "success",
		Duration:     time.Since(start).Milliseconds(),
	}
	if err := h.audit.Create(r.Context(), entry); err != nil {
		log.Warn().Err(err).Msg("failed to write audit log")
	}
}
