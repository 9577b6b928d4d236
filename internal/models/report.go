package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReportStatus is the async report lifecycle. Processing either reaches
// completed/failed or is moved to expired by the bounded timeout; there is no
// cancellation.
type ReportStatus string

const (
	ReportProcessing ReportStatus = "processing"
	ReportCompleted  ReportStatus = "completed"
	ReportFailed     ReportStatus = "failed"
	ReportExpired    ReportStatus = "expired"
)

// Report is a custom report generation job. Submission returns immediately
// with the tracking id; completion is observed by polling.
type Report struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"report_id"`
	TenantID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	RequestedBy uuid.UUID      `gorm:"type:uuid" json:"requested_by"`
	ReportType  string         `gorm:"type:varchar(50);not null" json:"report_type"`
	Parameters  datatypes.JSON `json:"parameters,omitempty"`
	Status      ReportStatus   `gorm:"type:varchar(20);default:'processing';index" json:"status"`
	Result      datatypes.JSON `json:"result,omitempty"`
	Error       string         `gorm:"type:text" json:"error,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Report) TableName() string { return "reports" }

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Terminal reports whether the job has reached a final state.
func (r *Report) Terminal() bool {
	return r.Status == ReportCompleted || r.Status == ReportFailed || r.Status == ReportExpired
}
