package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/fleet-gateway/internal/database"
	"github.com/fleetops/fleet-gateway/internal/models"
)

// GPSRepository handles the append-only vehicle position stream.
type GPSRepository struct{}

// NewGPSRepository creates a new GPS repository
func NewGPSRepository() *GPSRepository {
	return &GPSRepository{}
}

// Append stores one position point.
func (r *GPSRepository) Append(ctx context.Context, pos *models.GPSPosition) error {
	if err := database.DB.WithContext(ctx).Create(pos).Error; err != nil {
		return fmt.Errorf("failed to append position: %w", err)
	}
	return nil
}

// History returns the points for a vehicle within [start, end], ascending by
// timestamp. An empty window yields an empty slice, not an error. The
// bounding box filter is optional.
func (r *GPSRepository) History(ctx context.Context, tenantID uuid.UUID, vehicleID uint, start, end time.Time, bbox *models.BoundingBox) ([]models.GPSPosition, error) {
	q := database.DB.WithContext(ctx).
		Where("tenant_id = ? AND vehicle_id = ?", tenantID, vehicleID).
		Where("timestamp >= ? AND timestamp <= ?", start, end)

	if bbox != nil {
		q = q.Where("latitude >= ? AND latitude <= ? AND longitude >= ? AND longitude <= ?",
			bbox.MinLat, bbox.MaxLat, bbox.MinLng, bbox.MaxLng)
	}

	var points []models.GPSPosition
	if err := q.Order("timestamp ASC").Find(&points).Error; err != nil {
		return nil, fmt.Errorf("failed to query position history: %w", err)
	}
	return points, nil
}

// Latest returns the most recent position for a vehicle.
func (r *GPSRepository) Latest(ctx context.Context, tenantID uuid.UUID, vehicleID uint) (*models.GPSPosition, error) {
	var pos models.GPSPosition
	err := database.DB.WithContext(ctx).
		Where("tenant_id = ? AND vehicle_id = ?", tenantID, vehicleID).
		Order("timestamp DESC").
		Limit(1).
		Find(&pos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query latest position: %w", err)
	}
	if pos.VehicleID == 0 {
		return nil, nil
	}
	return &pos, nil
}

// AppendAlert stores a geofence alert row.
func (r *GPSRepository) AppendAlert(ctx context.Context, alert *models.GeofenceAlert) error {
	if err := database.DB.WithContext(ctx).Create(alert).Error; err != nil {
		return fmt.Errorf("failed to append geofence alert: %w", err)
	}
	return nil
}

// AlertsForGeofence returns alerts for one geofence within a time range,
// newest first.
func (r *GPSRepository) AlertsForGeofence(ctx context.Context, tenantID, geofenceID uuid.UUID, start, end time.Time) ([]models.GeofenceAlert, error) {
	var alerts []models.GeofenceAlert
	err := database.DB.WithContext(ctx).
		Where("tenant_id = ? AND geofence_id = ?", tenantID, geofenceID).
		Where("timestamp >= ? AND timestamp <= ?", start, end).
		Order("timestamp DESC").
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query geofence alerts: %w", err)
	}
	return alerts, nil
}
