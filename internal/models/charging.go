package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleetops/fleet-gateway/internal/apierr"
)

// ChargingStation represents an EV charging point operated by a tenant.
type ChargingStation struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`
	Status        string    `gorm:"type:varchar(20);default:'available'" json:"status"` // available, occupied, offline, maintenance
	PowerOutputKW float64   `json:"power_output_kw"`
	Latitude      float64   `json:"lat"`
	Longitude     float64   `json:"lng"`
	FacilityID    *uint     `json:"facility_id,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ChargingStation) TableName() string { return "charging_stations" }

func (s *ChargingStation) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *ChargingStation) SetTenantID(id uuid.UUID) { s.TenantID = id }

// Validate checks charging station field constraints.
func (s *ChargingStation) Validate() []apierr.FieldError {
	var errs []apierr.FieldError
	if s.Name == "" {
		errs = append(errs, apierr.FieldError{Field: "name", Message: "is required"})
	}
	if s.Status != "" && !oneOf(s.Status, "available", "occupied", "offline", "maintenance") {
		errs = append(errs, apierr.FieldError{Field: "status", Message: "unknown status"})
	}
	if s.PowerOutputKW < 0 {
		errs = append(errs, apierr.FieldError{Field: "power_output_kw", Message: "must not be negative"})
	}
	return errs
}

// ChargingSession represents one charge of a vehicle at a station. A session
// is active until EndTime is set.
type ChargingSession struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	StationID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"station_id"`
	VehicleID         uint       `gorm:"not null;index" json:"vehicle_id"`
	StartTime         time.Time  `gorm:"not null" json:"start_time"`
	EndTime           *time.Time `json:"end_time,omitempty"`
	StartBatteryLevel float64    `json:"start_battery_level"`
	EndBatteryLevel   *float64   `json:"end_battery_level,omitempty"`
	EnergyKWH         float64    `json:"energy_kwh"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ChargingSession) TableName() string { return "charging_sessions" }

func (s *ChargingSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.StartTime.IsZero() {
		s.StartTime = time.Now().UTC()
	}
	return nil
}

func (s *ChargingSession) SetTenantID(id uuid.UUID) { s.TenantID = id }

// IsActive reports whether the session is still in progress.
func (s *ChargingSession) IsActive() bool { return s.EndTime == nil }

// Validate checks charging session field constraints.
func (s *ChargingSession) Validate() []apierr.FieldError {
	var errs []apierr.FieldError
	if s.StationID == uuid.Nil {
		errs = append(errs, apierr.FieldError{Field: "station_id", Message: "is required"})
	}
	if s.VehicleID == 0 {
		errs = append(errs, apierr.FieldError{Field: "vehicle_id", Message: "is required"})
	}
	if s.StartBatteryLevel < 0 || s.StartBatteryLevel > 100 {
		errs = append(errs, apierr.FieldError{Field: "start_battery_level", Message: "must be between 0 and 100"})
	}
	if s.EndBatteryLevel != nil && (*s.EndBatteryLevel < 0 || *s.EndBatteryLevel > 100) {
		errs = append(errs, apierr.FieldError{Field: "end_battery_level", Message: "must be between 0 and 100"})
	}
	return errs
}
