package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/fleet-gateway/internal/apierr"
)

// GPSPosition is one point in a vehicle's position stream. The stream is
// append-only; positions are never updated or deleted.
type GPSPosition struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	VehicleID uint      `gorm:"not null;uniqueIndex:idx_vehicle_ts" json:"vehicle_id"`
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lng"`
	Speed     float64   `json:"speed"`
	Heading   float64   `json:"heading"`
	Timestamp time.Time `gorm:"not null;uniqueIndex:idx_vehicle_ts" json:"timestamp"`

	CreatedAt time.Time `json:"-"`
}

func (GPSPosition) TableName() string { return "gps_positions" }

func (p *GPSPosition) SetTenantID(id uuid.UUID) { p.TenantID = id }

// Validate checks coordinate ranges.
func (p *GPSPosition) Validate() []apierr.FieldError {
	var errs []apierr.FieldError
	if p.Latitude < -90 || p.Latitude > 90 {
		errs = append(errs, apierr.FieldError{Field: "lat", Message: "must be between -90 and 90"})
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		errs = append(errs, apierr.FieldError{Field: "lng", Message: "must be between -180 and 180"})
	}
	if p.Heading < 0 || p.Heading >= 360 {
		errs = append(errs, apierr.FieldError{Field: "heading", Message: "must be in [0, 360)"})
	}
	if p.VehicleID == 0 {
		errs = append(errs, apierr.FieldError{Field: "vehicle_id", Message: "is required"})
	}
	if p.Timestamp.IsZero() {
		errs = append(errs, apierr.FieldError{Field: "timestamp", Message: "is required"})
	}
	return errs
}

// BoundingBox is an optional spatial filter on GPS history queries.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}
