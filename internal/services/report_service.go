package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fleetops/fleet-gateway/internal/database"
	"github.com/fleetops/fleet-gateway/internal/models"
)

// ErrReportNotFound is returned when a report id is absent or cross-tenant.
var ErrReportNotFound = errors.New("report not found")

// ReportService runs the submit/poll report generation flow. Submission
// returns immediately; workers pick up processing jobs; a bounded timeout
// moves stuck jobs to expired. There is no cancellation.
type ReportService struct {
	timeout time.Duration
}

// NewReportService creates a new report service
func NewReportService(timeout time.Duration) *ReportService {
	return &ReportService{timeout: timeout}
}

// Submit records a processing job and returns its tracking id.
func (s *ReportService) Submit(ctx context.Context, tenantID, userID uuid.UUID, reportType string, params json.RawMessage) (*models.Report, error) {
	report := &models.Report{
		TenantID:    tenantID,
		RequestedBy: userID,
		ReportType:  reportType,
		Parameters:  datatypes.JSON(params),
		Status:      models.ReportProcessing,
	}
	if err := database.DB.WithContext(ctx).Create(report).Error; err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return report, nil
}

// Status returns the current state of a report within the tenant.
func (s *ReportService) Status(ctx context.Context, tenantID, reportID uuid.UUID) (*models.Report, error) {
	var report models.Report
	err := database.DB.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, reportID).
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

// Run processes pending reports until the context is cancelled.
func (s *ReportService) Run(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	sem := make(chan struct{}, workers)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.expireStale(ctx)
			ids, err := s.pendingIDs(ctx, workers)
			if err != nil {
				log.Warn().Err(err).Msg("failed to poll pending reports")
				continue
			}
			for _, id := range ids {
				sem <- struct{}{}
				go func(reportID uuid.UUID) {
					defer func() { <-sem }()
					if err := s.Process(ctx, reportID); err != nil {
						log.Warn().Err(err).Str("report_id", reportID.String()).Msg("report processing failed")
					}
				}(id)
			}
		}
	}
}

func (s *ReportService) pendingIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := database.DB.WithContext(ctx).
		Model(&models.Report{}).
		Where("status = ?", models.ReportProcessing).
		Order("created_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// Process generates one report and marks it terminal. Exported so workers
// and synchronous callers share one code path.
func (s *ReportService) Process(ctx context.Context, reportID uuid.UUID) error {
	var report models.Report
	if err := database.DB.WithContext(ctx).Where("id = ?", reportID).First(&report).Error; err != nil {
		return fmt.Errorf("failed to load report: %w", err)
	}
	if report.Terminal() {
		return nil
	}

	result, err := s.generate(ctx, &report)
	now := time.Now().UTC()
	if err != nil {
		report.Status = models.ReportFailed
		report.Error = err.Error()
	} else {
		report.Status = models.ReportCompleted
		report.Result = result
	}
	report.CompletedAt = &now

	if err := database.DB.WithContext(ctx).Save(&report).Error; err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// generate produces the report body. Fleet summary is the one concrete
// report type; unknown types fail.
func (s *ReportService) generate(ctx context.Context, report *models.Report) (datatypes.JSON, error) {
	switch report.ReportType {
	case "fleet_summary":
		return s.fleetSummary(ctx, report.TenantID)
	default:
		return nil, fmt.Errorf("unknown report type: %s", report.ReportType)
	}
}

func (s *ReportService) fleetSummary(ctx context.Context, tenantID uuid.UUID) (datatypes.JSON, error) {
	var vehicles, drivers int64
	if err := database.DB.WithContext(ctx).Model(&models.Vehicle{}).
		Where("tenant_id = ?", tenantID).Count(&vehicles).Error; err != nil {
		return nil, err
	}
	if err := database.DB.WithContext(ctx).Model(&models.Driver{}).
		Where("tenant_id = ?", tenantID).Count(&drivers).Error; err != nil {
		return nil, err
	}

	var records []models.MaintenanceRecord
	if err := database.DB.WithContext(ctx).
		Where("tenant_id = ?", tenantID).Find(&records).Error; err != nil {
		return nil, err
	}
	maintenanceCost := decimal.Zero
	for _, rec := range records {
		maintenanceCost = maintenanceCost.Add(rec.Cost)
	}

	out := map[string]any{
		"vehicles":               vehicles,
		"drivers":                drivers,
		"maintenance_records":    len(records),
		"total_maintenance_cost": maintenanceCost,
		"generated_at":           time.Now().UTC(),
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// expireStale moves jobs stuck in processing past the timeout to expired.
func (s *ReportService) expireStale(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.timeout)
	now := time.Now().UTC()
	err := database.DB.WithContext(ctx).
		Model(&models.Report{}).
		Where("status = ? AND created_at < ?", models.ReportProcessing, cutoff).
		Updates(map[string]any{"status": models.ReportExpired, "completed_at": now}).Error
	if err != nil {
		log.Warn().Err(err).Msg("failed to expire stale reports")
	}
}
