package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleetops/fleet-gateway/internal/apierr"
	"github.com/fleetops/fleet-gateway/internal/database"
)

// ErrNotFound is returned for lookups that match nothing within the caller's
// tenant. Cross-tenant rows are indistinguishable from absent rows.
var ErrNotFound = errors.New("record not found")

// Record is the behavior every stored resource shares.
type Record interface {
	SetTenantID(uuid.UUID)
	Validate() []apierr.FieldError
}

// Ptr constrains P to be *T implementing Record.
type Ptr[T any] interface {
	*T
	Record
}

// ListOptions carries pagination, filters and ordering for list queries.
type ListOptions struct {
	Page    int
	Limit   int
	Filters map[string]any // column -> value, already whitelisted
	Sort    string
}

// Store is a tenant-scoped repository over one resource table. The eleven
// CRUD resource families share this one implementation; per-resource
// differences live in the handler descriptors.
type Store[T any, P Ptr[T]] struct{}

// NewStore creates a store for the resource type T.
func NewStore[T any, P Ptr[T]]() *Store[T, P] {
	return &Store[T, P]{}
}

func (s *Store[T, P]) scope(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	var model T
	return database.DB.WithContext(ctx).Model(&model).Where("tenant_id = ?", tenantID)
}

// List returns one page of records plus the total count across all pages.
func (s *Store[T, P]) List(ctx context.Context, tenantID uuid.UUID, opts ListOptions) ([]T, int64, error) {
	q := s.scope(ctx, tenantID)
	for col, val := range opts.Filters {
		q = q.Where(fmt.Sprintf("%s = ?", col), val)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count records: %w", err)
	}

	sort := opts.Sort
	if sort == "" {
		sort = "created_at DESC"
	}

	var records []T
	if err := q.Order(sort).
		Limit(opts.Limit).
		Offset((opts.Page - 1) * opts.Limit).
		Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list records: %w", err)
	}
	return records, total, nil
}

// Get retrieves one record by primary key within the tenant.
func (s *Store[T, P]) Get(ctx context.Context, tenantID uuid.UUID, id any) (*T, error) {
	var record T
	err := s.scope(ctx, tenantID).Where("id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return &record, nil
}

// Create persists a new record under the tenant.
func (s *Store[T, P]) Create(ctx context.Context, tenantID uuid.UUID, record *T) error {
	P(record).SetTenantID(tenantID)
	if err := database.DB.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

// Save writes back a fetched record.
func (s *Store[T, P]) Save(ctx context.Context, record *T) error {
	if err := database.DB.WithContext(ctx).Save(record).Error; err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// Delete soft deletes a record within the tenant. A second delete of the
// same id sees ErrNotFound, which is what the idempotent-failure contract
// requires.
func (s *Store[T, P]) Delete(ctx context.Context, tenantID uuid.UUID, id any) error {
	var model T
	res := database.DB.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&model)
	if res.Error != nil {
		return fmt.Errorf("failed to delete record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountWhere counts tenant rows matching an extra condition. Used for
// duplicate checks.
func (s *Store[T, P]) CountWhere(ctx context.Context, tenantID uuid.UUID, query string, args ...any) (int64, error) {
	var count int64
	if err := s.scope(ctx, tenantID).Where(query, args...).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}
