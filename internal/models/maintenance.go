package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fleetops/fleet-gateway/internal/apierr"
)

// MaintenanceType classifies a maintenance record.
type MaintenanceType string

const (
	MaintenancePreventive MaintenanceType = "preventive"
	MaintenanceCorrective MaintenanceType = "corrective"
	MaintenanceInspection MaintenanceType = "inspection"
)

// MaintenanceStatus is the lifecycle state of a maintenance record.
type MaintenanceStatus string

const (
	MaintenancePending    MaintenanceStatus = "pending"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

// MaintenanceRecord represents a service event against a vehicle. The
// referenced vehicle must belong to the same tenant; the handler enforces
// this before persisting.
type MaintenanceRecord struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"tenant_id"`
	VehicleID   uint              `gorm:"not null;index" json:"vehicle_id"`
	Type        MaintenanceType   `gorm:"type:varchar(20);not null" json:"type"`
	Status      MaintenanceStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Description string            `gorm:"type:text" json:"description"`
	Cost        decimal.Decimal   `gorm:"type:numeric(12,2)" json:"cost"`
	PerformedAt *time.Time        `json:"performed_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (MaintenanceRecord) TableName() string { return "maintenance_records" }

func (m *MaintenanceRecord) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *MaintenanceRecord) SetTenantID(id uuid.UUID) { m.TenantID = id }

// Validate checks maintenance field constraints.
func (m *MaintenanceRecord) Validate() []apierr.FieldError {
	var errs []apierr.FieldError
	if !oneOf(string(m.Type),
		string(MaintenancePreventive), string(MaintenanceCorrective), string(MaintenanceInspection)) {
		errs = append(errs, apierr.FieldError{Field: "type", Message: "must be preventive, corrective or inspection"})
	}
	if m.Status != "" && !oneOf(string(m.Status),
		string(MaintenancePending), string(MaintenanceInProgress),
		string(MaintenanceCompleted), string(MaintenanceCancelled)) {
		errs = append(errs, apierr.FieldError{Field: "status", Message: "unknown status"})
	}
	if m.Cost.IsNegative() {
		errs = append(errs, apierr.FieldError{Field: "cost", Message: "must not be negative"})
	}
	if m.VehicleID == 0 {
		errs = append(errs, apierr.FieldError{Field: "vehicle_id", Message: "is required"})
	}
	return errs
}

// WorkOrderStatus is the lifecycle state of a work order.
type WorkOrderStatus string

const (
	WorkOrderOpen       WorkOrderStatus = "open"
	WorkOrderInProgress WorkOrderStatus = "in_progress"
	WorkOrderOnHold     WorkOrderStatus = "on_hold"
	WorkOrderCompleted  WorkOrderStatus = "completed"
	WorkOrderCancelled  WorkOrderStatus = "cancelled"
)

// WorkOrderPriority ranks a work order.
type WorkOrderPriority string

const (
	PriorityLow      WorkOrderPriority = "low"
	PriorityMedium   WorkOrderPriority = "medium"
	PriorityHigh     WorkOrderPriority = "high"
	PriorityCritical WorkOrderPriority = "critical"
)

// WorkOrder represents a unit of shop work, optionally tied to a vehicle.
type WorkOrder struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"tenant_id"`
	WorkOrderNumber string            `gorm:"type:varchar(50);not null" json:"work_order_number"`
	VehicleID       *uint             `gorm:"index" json:"vehicle_id,omitempty"`
	Status          WorkOrderStatus   `gorm:"type:varchar(20);default:'open'" json:"status"`
	Priority        WorkOrderPriority `gorm:"type:varchar(20);default:'medium'" json:"priority"`
	Description     string            `gorm:"type:text" json:"description"`
	AssignedTo      *uuid.UUID        `gorm:"type:uuid" json:"assigned_to,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (WorkOrder) TableName() string { return "work_orders" }

func (w *WorkOrder) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

func (w *WorkOrder) SetTenantID(id uuid.UUID) { w.TenantID = id }

// Validate checks work order field constraints.
func (w *WorkOrder) Validate() []apierr.FieldError {
	var errs []apierr.FieldError
	if w.WorkOrderNumber == "" {
		errs = append(errs, apierr.FieldError{Field: "work_order_number", Message: "is required"})
	}
	if w.Status != "" && !oneOf(string(w.Status),
		string(WorkOrderOpen), string(WorkOrderInProgress), string(WorkOrderOnHold),
		string(WorkOrderCompleted), string(WorkOrderCancelled)) {
		errs = append(errs, apierr.FieldError{Field: "status", Message: "unknown status"})
	}
	if w.Priority != "" && !oneOf(string(w.Priority),
		string(PriorityLow), string(PriorityMedium), string(PriorityHigh), string(PriorityCritical)) {
		errs = append(errs, apierr.FieldError{Field: "priority", Message: "unknown priority"})
	}
	return errs
}
