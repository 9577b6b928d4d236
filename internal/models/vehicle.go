package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleetops/fleet-gateway/internal/apierr"
)

// VehicleStatus represents the operational state of a vehicle.
type VehicleStatus string

const (
	VehicleStatusActive       VehicleStatus = "active"
	VehicleStatusMaintenance  VehicleStatus = "maintenance"
	VehicleStatusOutOfService VehicleStatus = "out_of_service"
	VehicleStatusRetired      VehicleStatus = "retired"
)

// Vehicle represents a fleet vehicle. Vehicles keep integer identifiers for
// compatibility with existing fleet integrations; every other resource uses
// uuids.
type Vehicle struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	TenantID         uuid.UUID     `gorm:"type:uuid;not null;index" json:"tenant_id"`
	VIN              string        `gorm:"type:varchar(17);not null;index" json:"vin"`
	LicensePlate     string        `gorm:"type:varchar(20)" json:"license_plate"`
	Make             string        `gorm:"type:varchar(100)" json:"make"`
	Model            string        `gorm:"type:varchar(100)" json:"model"`
	Year             int           `json:"year"`
	Status           VehicleStatus `gorm:"type:varchar(20);default:'active'" json:"status"`
	Odometer         float64       `json:"odometer"`
	FuelType         string        `gorm:"type:varchar(20)" json:"fuel_type"`
	FacilityID       *uint         `json:"facility_id,omitempty"`
	AssignedDriverID *uuid.UUID    `gorm:"type:uuid" json:"assigned_driver_id,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Vehicle) TableName() string { return "vehicles" }

func (v *Vehicle) SetTenantID(id uuid.UUID) { v.TenantID = id }

// Validate checks vehicle field constraints.
func (v *Vehicle) Validate() []apierr.FieldError {
	var errs []apierr.FieldError
	if !isVIN(v.VIN) {
		errs = append(errs, apierr.FieldError{Field: "vin", Message: "must be exactly 17 alphanumeric characters"})
	}
	if v.Year < 1900 || v.Year > 2100 {
		errs = append(errs, apierr.FieldError{Field: "year", Message: "must be between 1900 and 2100"})
	}
	if v.Status != "" && !oneOf(string(v.Status),
		string(VehicleStatusActive), string(VehicleStatusMaintenance),
		string(VehicleStatusOutOfService), string(VehicleStatusRetired)) {
		errs = append(errs, apierr.FieldError{Field: "status", Message: "unknown status"})
	}
	if v.FuelType != "" && !oneOf(v.FuelType, "gasoline", "diesel", "electric", "hybrid") {
		errs = append(errs, apierr.FieldError{Field: "fuel_type", Message: "unknown fuel type"})
	}
	if v.Odometer < 0 {
		errs = append(errs, apierr.FieldError{Field: "odometer", Message: "must not be negative"})
	}
	return errs
}

func isVIN(s string) bool {
	if len(s) != 17 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		default:
			return false
		}
	}
	return true
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func requirePositive(field string, v float64) *apierr.FieldError {
	if v <= 0 {
		return &apierr.FieldError{Field: field, Message: fmt.Sprintf("must be greater than 0, got %v", v)}
	}
	return nil
}
