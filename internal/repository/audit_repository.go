package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fleetops/fleet-gateway/internal/database"
	"github.com/fleetops/fleet-gateway/internal/models"
)

// AuditRepository handles audit log database operations
type AuditRepository struct{}

// NewAuditRepository creates a new audit repository
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

// Create creates a new audit log entry
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if err := database.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// GetByTenantID retrieves audit logs for a tenant, newest first.
func (r *AuditRepository) GetByTenantID(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]models.AuditLog, int64, error) {
	q := database.DB.WithContext(ctx).
		Model(&models.AuditLog{}).
		Where("tenant_id = ?", tenantID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	var logs []models.AuditLog
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get audit logs: %w", err)
	}
	return logs, total, nil
}
