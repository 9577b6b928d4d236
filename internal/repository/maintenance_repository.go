package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fleetops/fleet-gateway/internal/database"
	"github.com/fleetops/fleet-gateway/internal/models"
)

// MaintenanceRepository adds vehicle-scoped queries on top of the generic
// maintenance store.
type MaintenanceRepository struct{}

// NewMaintenanceRepository creates a new maintenance repository
func NewMaintenanceRepository() *MaintenanceRepository {
	return &MaintenanceRepository{}
}

// ByVehicle returns all maintenance records for a vehicle plus the derived
// aggregates. The totals are computed over the returned rows so they always
// equal the sum/count of the sequence.
func (r *MaintenanceRepository) ByVehicle(ctx context.Context, tenantID uuid.UUID, vehicleID uint) ([]models.MaintenanceRecord, int64, decimal.Decimal, error) {
	var records []models.MaintenanceRecord
	err := database.DB.WithContext(ctx).
		Where("tenant_id = ? AND vehicle_id = ?", tenantID, vehicleID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, 0, decimal.Zero, fmt.Errorf("failed to query maintenance records: %w", err)
	}

	totalCost := decimal.Zero
	for _, rec := range records {
		totalCost = totalCost.Add(rec.Cost)
	}
	return records, int64(len(records)), totalCost, nil
}
