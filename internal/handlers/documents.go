package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fleetops/fleet-gateway/internal/apierr"
	"github.com/fleetops/fleet-gateway/internal/middleware"
	"github.com/fleetops/fleet-gateway/internal/models"
	"github.com/fleetops/fleet-gateway/internal/repository"
	"github.com/fleetops/fleet-gateway/internal/services"
)

// DocumentHandler serves multipart uploads and binary downloads. Everything
// else on documents goes through the generic resource handler.
type DocumentHandler struct {
	docs      *services.DocumentService
	maxSizeMB int64
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(docs *services.DocumentService, maxSizeMB int64) *DocumentHandler {
	return &DocumentHandler{docs: docs, maxSizeMB: maxSizeMB}
}

// Upload accepts multipart form data with a "file" part and metadata fields.
// The response carries a download URL; binary content is never inlined.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())

	maxBytes := h.maxSizeMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		apierr.Validation(w, r, []apierr.FieldError{{Field: "file", Message: "invalid or oversized multipart body"}})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierr.Validation(w, r, []apierr.FieldError{{Field: "file", Message: "file part is required"}})
		return
	}
	defer file.Close()

	doc := &models.Document{
		DocumentType: r.FormValue("document_type"),
	}
	if v := r.FormValue("vehicle_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			apierr.Validation(w, r, []apierr.FieldError{{Field: "vehicle_id", Message: "must be an integer"}})
			return
		}
		vid := uint(n)
		if errs := requireVehicle(r.Context(), claims.TenantID, vid); len(errs) > 0 {
			apierr.Validation(w, r, errs)
			return
		}
		doc.VehicleID = &vid
	}
	if errs := doc.Validate(); len(errs) > 0 {
		apierr.Validation(w, r, errs)
		return
	}

	created, err := h.docs.SaveUpload(r.Context(), claims.TenantID, doc, file, header)
	if err != nil {
		log.Error().Err(err).Msg("failed to store upload")
		apierr.Internal(w, r)
		return
	}

	writeData(w, http.StatusCreated, created)
}

// Download streams the stored binary.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())

	docID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apierr.NotFound(w, r)
		return
	}

	doc, reader, err := h.docs.Open(r.Context(), claims.TenantID, docID)
	if errors.Is(err, repository.ErrNotFound) {
		apierr.NotFound(w, r)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to open document")
		apierr.Internal(w, r)
		return
	}
	defer reader.Close()

	if doc.ContentType != "" {
		w.Header().Set("Content-Type", doc.ContentType)
	}
	w.Header().Set("Content-Disposition", "attachment; filename=\""+doc.FileName+"\"")
	io.Copy(w, reader)
}
