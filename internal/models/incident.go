package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleetops/fleet-gateway/internal/apierr"
)

// SafetyIncident records an accident or safety event involving a vehicle or
// driver.
type SafetyIncident struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	VehicleID   *uint      `gorm:"index" json:"vehicle_id,omitempty"`
	DriverID    *uuid.UUID `gorm:"type:uuid" json:"driver_id,omitempty"`
	Severity    string     `gorm:"type:varchar(20);not null" json:"severity"` // minor, moderate, major, critical
	Status      string     `gorm:"type:varchar(30);default:'reported'" json:"status"`
	Description string     `gorm:"type:text" json:"description"`
	OccurredAt  *time.Time `json:"occurred_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (SafetyIncident) TableName() string { return "safety_incidents" }

func (i *SafetyIncident) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i *SafetyIncident) SetTenantID(id uuid.UUID) { i.TenantID = id }

// Validate checks incident field constraints.
func (i *SafetyIncident) Validate() []apierr.FieldError {
	var errs []apierr.FieldError
	if !oneOf(i.Severity, "minor", "moderate", "major", "critical") {
		errs = append(errs, apierr.FieldError{Field: "severity", Message: "must be minor, moderate, major or critical"})
	}
	if i.Status != "" && !oneOf(i.Status, "reported", "under_investigation", "resolved", "closed") {
		errs = append(errs, apierr.FieldError{Field: "status", Message: "unknown status"})
	}
	return errs
}

// Inspection records a scheduled or completed vehicle inspection.
type Inspection struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	VehicleID   uint       `gorm:"not null;index" json:"vehicle_id"`
	InspectorID *uuid.UUID `gorm:"type:uuid" json:"inspector_id,omitempty"`
	Status      string     `gorm:"type:varchar(20);default:'scheduled'" json:"status"` // scheduled, passed, failed, needs_repair
	Notes       string     `gorm:"type:text" json:"notes"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Inspection) TableName() string { return "inspections" }

func (i *Inspection) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i *Inspection) SetTenantID(id uuid.UUID) { i.TenantID = id }

// Validate checks inspection field constraints.
func (i *Inspection) Validate() []apierr.FieldError {
	var errs []apierr.FieldError
	if i.VehicleID == 0 {
		errs = append(errs, apierr.FieldError{Field: "vehicle_id", Message: "is required"})
	}
	if i.Status != "" && !oneOf(i.Status, "scheduled", "passed", "failed", "needs_repair") {
		errs = append(errs, apierr.FieldError{Field: "status", Message: "unknown status"})
	}
	return errs
}
