package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleetops/fleet-gateway/internal/apierr"
)

// OCRStatus is the processing state of a document's text extraction.
type OCRStatus string

const (
	OCRProcessing OCRStatus = "processing"
	OCRCompleted  OCRStatus = "completed"
	OCRFailed     OCRStatus = "failed"
)

// Document holds metadata for an uploaded file. The binary payload lives on
// external storage; responses carry a download URL, never inline content.
type Document struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	DocumentType string    `gorm:"type:varchar(50);not null" json:"document_type"`
	FileName     string    `gorm:"type:varchar(255)" json:"file_name"`
	ContentType  string    `gorm:"type:varchar(100)" json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	StoragePath  string    `gorm:"type:varchar(500)" json:"-"`
	DownloadURL  string    `gorm:"type:varchar(500)" json:"download_url"`
	OCRStatus    OCRStatus `gorm:"type:varchar(20);default:'processing'" json:"ocr_status"`
	OCRText      string    `gorm:"type:text" json:"-"`
	VehicleID    *uint     `gorm:"index" json:"vehicle_id,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Document) TableName() string { return "documents" }

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (d *Document) SetTenantID(id uuid.UUID) { d.TenantID = id }

// Validate checks document field constraints.
func (d *Document) Validate() []apierr.FieldError {
	var errs []apierr.FieldError
	if d.DocumentType == "" {
		errs = append(errs, apierr.FieldError{Field: "document_type", Message: "is required"})
	}
	if d.OCRStatus != "" && !oneOf(string(d.OCRStatus),
		string(OCRProcessing), string(OCRCompleted), string(OCRFailed)) {
		errs = append(errs, apierr.FieldError{Field: "ocr_status", Message: "unknown status"})
	}
	return errs
}
