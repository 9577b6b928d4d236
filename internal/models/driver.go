package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleetops/fleet-gateway/internal/apierr"
)

// Driver represents a licensed driver within a tenant's fleet.
type Driver struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Email         string     `gorm:"type:varchar(255);not null" json:"email"`
	FirstName     string     `gorm:"type:varchar(100)" json:"first_name"`
	LastName      string     `gorm:"type:varchar(100)" json:"last_name"`
	Phone         string     `gorm:"type:varchar(30)" json:"phone"`
	LicenseNumber string     `gorm:"type:varchar(50);not null" json:"license_number"`
	LicenseExpiry *time.Time `json:"license_expiry,omitempty"`
	IsActive      bool       `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Driver) TableName() string { return "drivers" }

func (d *Driver) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (d *Driver) SetTenantID(id uuid.UUID) { d.TenantID = id }

// Validate checks driver field constraints.
func (d *Driver) Validate() []apierr.FieldError {
	var errs []apierr.FieldError
	if !strings.Contains(d.Email, "@") || !strings.Contains(d.Email, ".") {
		errs = append(errs, apierr.FieldError{Field: "email", Message: "invalid email format"})
	}
	if d.LicenseNumber == "" {
		errs = append(errs, apierr.FieldError{Field: "license_number", Message: "is required"})
	}
	return errs
}
