package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fleetops/fleet-gateway/internal/apierr"
)

// FuelTransaction records a single fueling event for a vehicle.
type FuelTransaction struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	VehicleID      uint            `gorm:"not null;index" json:"vehicle_id"`
	Gallons        float64         `json:"gallons"`
	PricePerGallon decimal.Decimal `gorm:"type:numeric(8,3)" json:"price_per_gallon"`
	TotalCost      decimal.Decimal `gorm:"type:numeric(12,2)" json:"total_cost"`
	PaymentMethod  string          `gorm:"type:varchar(20)" json:"payment_method"`
	OdometerAtFill float64         `json:"odometer_at_fill"`
	TransactedAt   *time.Time      `json:"transacted_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (FuelTransaction) TableName() string { return "fuel_transactions" }

func (f *FuelTransaction) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.TotalCost.IsZero() {
		f.TotalCost = f.PricePerGallon.Mul(decimal.NewFromFloat(f.Gallons)).Round(2)
	}
	return nil
}

func (f *FuelTransaction) SetTenantID(id uuid.UUID) { f.TenantID = id }

// Validate checks fuel transaction field constraints.
func (f *FuelTransaction) Validate() []apierr.FieldError {
	var errs []apierr.FieldError
	if e := requirePositive("gallons", f.Gallons); e != nil {
		errs = append(errs, *e)
	}
	if !f.PricePerGallon.IsPositive() {
		errs = append(errs, apierr.FieldError{Field: "price_per_gallon", Message: "must be greater than 0"})
	}
	if f.PaymentMethod != "" && !oneOf(f.PaymentMethod, "fleet_card", "cash", "credit_card", "invoice") {
		errs = append(errs, apierr.FieldError{Field: "payment_method", Message: "unknown payment method"})
	}
	if f.VehicleID == 0 {
		errs = append(errs, apierr.FieldError{Field: "vehicle_id", Message: "is required"})
	}
	return errs
}
