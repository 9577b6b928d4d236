package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/fleetops/fleet-gateway/internal/apierr"
	"github.com/fleetops/fleet-gateway/internal/database"
	"github.com/fleetops/fleet-gateway/internal/models"
	"github.com/fleetops/fleet-gateway/internal/repository"
)

// vehicleExists checks a tenant owns the referenced vehicle. Soft-deleted
// vehicles do not count.
func vehicleExists(ctx context.Context, tenantID uuid.UUID, vehicleID uint) (bool, error) {
	var count int64
	err := database.DB.WithContext(ctx).
		Model(&models.Vehicle{}).
		Where("tenant_id = ? AND id = ?", tenantID, vehicleID).
		Count(&count).Error
	return count > 0, err
}

// geofenceExists checks a tenant owns the referenced geofence.
func geofenceExists(ctx context.Context, tenantID uuid.UUID, geofenceID uuid.UUID) (bool, error) {
	var count int64
	err := database.DB.WithContext(ctx).
		Model(&models.Geofence{}).
		Where("tenant_id = ? AND id = ?", tenantID, geofenceID).
		Count(&count).Error
	return count > 0, err
}

func requireVehicle(ctx context.Context, tenantID uuid.UUID, vehicleID uint) []apierr.FieldError {
	ok, err := vehicleExists(ctx, tenantID, vehicleID)
	if err != nil || !ok {
		return []apierr.FieldError{{Field: "vehicle_id", Message: "vehicle not found"}}
	}
	return nil
}

// VehicleDescriptor configures the vehicles resource family.
func VehicleDescriptor() Descriptor[models.Vehicle, *models.Vehicle] {
	store := repository.NewStore[models.Vehicle, *models.Vehicle]()
	return Descriptor[models.Vehicle, *models.Vehicle]{
		Name:   "vehicle",
		IDKind: IDInt,
		Filters: map[string]string{
			"status":             "status",
			"fuel_type":          "fuel_type",
			"facility_id":        "facility_id",
			"assigned_driver_id": "assigned_driver_id",
			"make":               "make",
		},
		Duplicate: func(ctx context.Context, tenantID uuid.UUID, v *models.Vehicle) (bool, error) {
			count, err := store.CountWhere(ctx, tenantID, "vin = ? AND id <> ?", v.VIN, v.ID)
			return count > 0, err
		},
	}
}

// DriverDescriptor configures the drivers resource family.
func DriverDescriptor() Descriptor[models.Driver, *models.Driver] {
	store := repository.NewStore[models.Driver, *models.Driver]()
	return Descriptor[models.Driver, *models.Driver]{
		Name:   "driver",
		IDKind: IDUUID,
		Filters: map[string]string{
			"is_active": "is_active",
			"email":     "email",
		},
		Duplicate: func(ctx context.Context, tenantID uuid.UUID, d *models.Driver) (bool, error) {
			count, err := store.CountWhere(ctx, tenantID, "license_number = ? AND id <> ?", d.LicenseNumber, d.ID)
			return count > 0, err
		},
	}
}

// MaintenanceDescriptor configures the maintenance records resource family.
func MaintenanceDescriptor() Descriptor[models.MaintenanceRecord, *models.MaintenanceRecord] {
	return Descriptor[models.MaintenanceRecord, *models.MaintenanceRecord]{
		Name:   "maintenance",
		IDKind: IDUUID,
		Filters: map[string]string{
			"status":     "status",
			"type":       "type",
			"vehicleId":  "vehicle_id",
			"vehicle_id": "vehicle_id",
		},
		CheckRefs: func(ctx context.Context, tenantID uuid.UUID, m *models.MaintenanceRecord) []apierr.FieldError {
			return requireVehicle(ctx, tenantID, m.VehicleID)
		},
	}
}

// WorkOrderDescriptor configures the work orders resource family.
func WorkOrderDescriptor() Descriptor[models.WorkOrder, *models.WorkOrder] {
	store := repository.NewStore[models.WorkOrder, *models.WorkOrder]()
	return Descriptor[models.WorkOrder, *models.WorkOrder]{
		Name:   "workorder",
		IDKind: IDUUID,
		Filters: map[string]string{
			"status":   "status",
			"priority": "priority",
		},
		CheckRefs: func(ctx context.Context, tenantID uuid.UUID, w *models.WorkOrder) []apierr.FieldError {
			if w.VehicleID == nil {
				return nil
			}
			return requireVehicle(ctx, tenantID, *w.VehicleID)
		},
		Duplicate: func(ctx context.Context, tenantID uuid.UUID, w *models.WorkOrder) (bool, error) {
			count, err := store.CountWhere(ctx, tenantID, "work_order_number = ? AND id <> ?", w.WorkOrderNumber, w.ID)
			return count > 0, err
		},
	}
}

// FuelDescriptor configures the fuel transactions resource family.
func FuelDescriptor() Descriptor[models.FuelTransaction, *models.FuelTransaction] {
	return Descriptor[models.FuelTransaction, *models.FuelTransaction]{
		Name:   "fuel",
		IDKind: IDUUID,
		Filters: map[string]string{
			"vehicleId":      "vehicle_id",
			"vehicle_id":     "vehicle_id",
			"payment_method": "payment_method",
		},
		CheckRefs: func(ctx context.Context, tenantID uuid.UUID, f *models.FuelTransaction) []apierr.FieldError {
			return requireVehicle(ctx, tenantID, f.VehicleID)
		},
	}
}

// GeofenceDescriptor configures the geofences resource family.
func GeofenceDescriptor() Descriptor[models.Geofence, *models.Geofence] {
	return Descriptor[models.Geofence, *models.Geofence]{
		Name:   "geofence",
		IDKind: IDUUID,
		Filters: map[string]string{
			"is_active": "is_active",
		},
	}
}

// ChargingStationDescriptor configures the charging stations resource family.
func ChargingStationDescriptor() Descriptor[models.ChargingStation, *models.ChargingStation] {
	return Descriptor[models.ChargingStation, *models.ChargingStation]{
		Name:   "charging_station",
		IDKind: IDUUID,
		Filters: map[string]string{
			"status":      "status",
			"facility_id": "facility_id",
		},
	}
}

// ChargingSessionDescriptor configures the charging sessions resource family.
func ChargingSessionDescriptor() Descriptor[models.ChargingSession, *models.ChargingSession] {
	return Descriptor[models.ChargingSession, *models.ChargingSession]{
		Name:   "charging_session",
		IDKind: IDUUID,
		Filters: map[string]string{
			"vehicleId":  "vehicle_id",
			"vehicle_id": "vehicle_id",
			"station_id": "station_id",
		},
		CheckRefs: func(ctx context.Context, tenantID uuid.UUID, s *models.ChargingSession) []apierr.FieldError {
			return requireVehicle(ctx, tenantID, s.VehicleID)
		},
	}
}

// DocumentDescriptor configures the documents resource family. Creation goes
// through the multipart upload handler; the generic POST is still mounted
// for metadata-only records.
func DocumentDescriptor() Descriptor[models.Document, *models.Document] {
	return Descriptor[models.Document, *models.Document]{
		Name:   "document",
		IDKind: IDUUID,
		Filters: map[string]string{
			"document_type": "document_type",
			"ocr_status":    "ocr_status",
			"vehicleId":     "vehicle_id",
			"vehicle_id":    "vehicle_id",
		},
	}
}

// IncidentDescriptor configures the safety incidents resource family.
func IncidentDescriptor() Descriptor[models.SafetyIncident, *models.SafetyIncident] {
	return Descriptor[models.SafetyIncident, *models.SafetyIncident]{
		Name:   "incident",
		IDKind: IDUUID,
		Filters: map[string]string{
			"severity": "severity",
			"status":   "status",
		},
	}
}

// InspectionDescriptor configures the inspections resource family.
func InspectionDescriptor() Descriptor[models.Inspection, *models.Inspection] {
	return Descriptor[models.Inspection, *models.Inspection]{
		Name:   "inspection",
		IDKind: IDUUID,
		Filters: map[string]string{
			"status":     "status",
			"vehicleId":  "vehicle_id",
			"vehicle_id": "vehicle_id",
		},
		CheckRefs: func(ctx context.Context, tenantID uuid.UUID, i *models.Inspection) []apierr.FieldError {
			return requireVehicle(ctx, tenantID, i.VehicleID)
		},
	}
}

// WebhookDescriptor configures the webhook endpoints resource family.
func WebhookDescriptor() Descriptor[models.WebhookEndpoint, *models.WebhookEndpoint] {
	return Descriptor[models.WebhookEndpoint, *models.WebhookEndpoint]{
		Name:   "webhook",
		IDKind: IDUUID,
		Filters: map[string]string{
			"is_active": "is_active",
		},
	}
}
