package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fleetops/fleet-gateway/internal/database"
	"github.com/fleetops/fleet-gateway/internal/models"
	"github.com/fleetops/fleet-gateway/internal/repository"
	"github.com/fleetops/fleet-gateway/internal/webhook"
)

// TelemetryService ingests GPS positions and evaluates geofence transitions.
type TelemetryService struct {
	gpsRepo *repository.GPSRepository
	events  *webhook.Dispatcher
}

// NewTelemetryService creates a new telemetry service
func NewTelemetryService(gpsRepo *repository.GPSRepository, events *webhook.Dispatcher) *TelemetryService {
	return &TelemetryService{gpsRepo: gpsRepo, events: events}
}

// Ingest appends a position and raises geofence alerts for any fence the
// vehicle entered or left relative to its previous position.
func (s *TelemetryService) Ingest(ctx context.Context, tenantID uuid.UUID, pos *models.GPSPosition) error {
	prev, err := s.gpsRepo.Latest(ctx, tenantID, pos.VehicleID)
	if err != nil {
		return err
	}

	pos.TenantID = tenantID
	if err := s.gpsRepo.Append(ctx, pos); err != nil {
		return err
	}

	s.evaluateGeofences(ctx, tenantID, prev, pos)
	return nil
}

func (s *TelemetryService) evaluateGeofences(ctx context.Context, tenantID uuid.UUID, prev, cur *models.GPSPosition) {
	var fences []models.Geofence
	err := database.DB.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Find(&fences).Error
	if err != nil {
		log.Warn().Err(err).Msg("failed to load geofences for evaluation")
		return
	}

	for i := range fences {
		fence := &fences[i]
		wasInside := prev != nil && fence.Contains(prev.Latitude, prev.Longitude)
		isInside := fence.Contains(cur.Latitude, cur.Longitude)

		var alertType string
		switch {
		case !wasInside && isInside && fence.AlertOnEnter:
			alertType = "enter"
		case wasInside && !isInside && fence.AlertOnExit:
			alertType = "exit"
		default:
			continue
		}

		alert := &models.GeofenceAlert{
			TenantID:   tenantID,
			GeofenceID: fence.ID,
			VehicleID:  cur.VehicleID,
			AlertType:  alertType,
			Latitude:   cur.Latitude,
			Longitude:  cur.Longitude,
			Timestamp:  cur.Timestamp,
		}
		if err := s.gpsRepo.AppendAlert(ctx, alert); err != nil {
			log.Warn().Err(err).Msg("failed to record geofence alert")
			continue
		}
		s.events.Publish(tenantID, fmt.Sprintf("geofence.%s", alertType), alert)
	}
}
