package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/delivery-zones/models"
	"gorm.io/gorm"
)

// DateExceptionRepositoryImpl implements DateExceptionRepository
type DateExceptionRepositoryImpl struct {
	*BaseRepository[models.DateException, models.DateExceptionFilter]
}

// NewDateExceptionRepository creates a new date exception repository
func NewDateExceptionRepository(db *gorm.DB) DateExceptionRepository {
	return &DateExceptionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.DateException, models.DateExceptionFilter](db),
	}
}

// ActiveByZoneAndDate returns the active exceptions of a zone on a YYYY-MM-DD date
func (r *DateExceptionRepositoryImpl) ActiveByZoneAndDate(ctx context.Context, zoneID uint, date string) ([]*models.DateException, error) {
	db := r.getDB(ctx)

	var rows []*models.DateException
	err := db.Where("zone_id = ? AND date = ? AND is_active = ?", zoneID, date, true).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list exceptions for zone %d on %s: %w", zoneID, date, err)
	}
	return rows, nil
}

// ByZoneDateType retrieves the unique exception of the given type on a date
func (r *DateExceptionRepositoryImpl) ByZoneDateType(ctx context.Context, zoneID uint, date, exceptionType string) (*models.DateException, error) {
	db := r.getDB(ctx)

	var row models.DateException
	err := db.Where("zone_id = ? AND date = ? AND type = ?", zoneID, date, exceptionType).Last(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find date exception: %w", err)
	}
	return &row, nil
}

func (r *DateExceptionRepositoryImpl) applyFilter(db *gorm.DB, filter models.DateExceptionFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.ZoneID != nil {
		db = db.Where("zone_id = ?", *filter.ZoneID)
	}
	if filter.Date != nil {
		db = db.Where("date = ?", *filter.Date)
	}
	if filter.DateFrom != nil {
		db = db.Where("date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		db = db.Where("date <= ?", *filter.DateTo)
	}
	if filter.Type != nil {
		db = db.Where("type = ?", *filter.Type)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	return db
}

// ByFilter retrieves exceptions based on filter criteria
func (r *DateExceptionRepositoryImpl) ByFilter(ctx context.Context, filter models.DateExceptionFilter, orderBy string, limit, offset int) ([]*models.DateException, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.DateException{}), filter)
	query = paginate(query, orderBy, "date ASC, id ASC", limit, offset)

	var rows []*models.DateException
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find date exceptions: %w", err)
	}
	return rows, nil
}

// Count returns the number of exceptions matching the filter
func (r *DateExceptionRepositoryImpl) Count(ctx context.Context, filter models.DateExceptionFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.DateException{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count date exceptions: %w", err)
	}
	return count, nil
}

// Exists checks if any exception matching the filter exists
func (r *DateExceptionRepositoryImpl) Exists(ctx context.Context, filter models.DateExceptionFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
