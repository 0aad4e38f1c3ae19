package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/delivery-zones/models"
	"gorm.io/gorm"
)

// ZoneAuditLogRepositoryImpl implements ZoneAuditLogRepository interface
type ZoneAuditLogRepositoryImpl struct {
	*BaseRepository[models.ZoneAuditLog, models.ZoneAuditLogFilter]
}

// NewZoneAuditLogRepository creates a new zone audit log repository
func NewZoneAuditLogRepository(db *gorm.DB) ZoneAuditLogRepository {
	return &ZoneAuditLogRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ZoneAuditLog, models.ZoneAuditLogFilter](db),
	}
}

// ListByZone retrieves audit logs for a specific zone with pagination
func (r *ZoneAuditLogRepositoryImpl) ListByZone(ctx context.Context, zoneID uint, limit, offset int) ([]*models.ZoneAuditLog, error) {
	db := r.getDB(ctx)

	var logs []*models.ZoneAuditLog
	err := db.Where("zone_id = ?", zoneID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs by zone: %w", err)
	}

	return logs, nil
}

func (r *ZoneAuditLogRepositoryImpl) applyFilter(query *gorm.DB, filter models.ZoneAuditLogFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.AdminID != nil {
		query = query.Where("admin_id = ?", *filter.AdminID)
	}
	if filter.ZoneID != nil {
		query = query.Where("zone_id = ?", *filter.ZoneID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.Success != nil {
		query = query.Where("success = ?", *filter.Success)
	}
	if filter.RequestID != nil {
		query = query.Where("request_id = ?", *filter.RequestID)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves audit logs based on filter criteria
func (r *ZoneAuditLogRepositoryImpl) ByFilter(ctx context.Context, filter models.ZoneAuditLogFilter, orderBy string, limit, offset int) ([]*models.ZoneAuditLog, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ZoneAuditLog{}), filter)
	query = paginate(query, orderBy, "created_at DESC", limit, offset)

	var logs []*models.ZoneAuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to find audit logs: %w", err)
	}
	return logs, nil
}

// Count returns the number of audit logs matching the filter
func (r *ZoneAuditLogRepositoryImpl) Count(ctx context.Context, filter models.ZoneAuditLogFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ZoneAuditLog{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count audit logs: %w", err)
	}
	return count, nil
}

// Exists checks if any audit log matching the filter exists
func (r *ZoneAuditLogRepositoryImpl) Exists(ctx context.Context, filter models.ZoneAuditLogFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
