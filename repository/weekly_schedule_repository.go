package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/utils"
	"gorm.io/gorm"
)

// WeeklyScheduleRepositoryImpl implements WeeklyScheduleRepository
type WeeklyScheduleRepositoryImpl struct {
	*BaseRepository[models.WeeklySchedule, models.WeeklyScheduleFilter]
}

// NewWeeklyScheduleRepository creates a new weekly schedule repository
func NewWeeklyScheduleRepository(db *gorm.DB) WeeklyScheduleRepository {
	return &WeeklyScheduleRepositoryImpl{
		BaseRepository: NewBaseRepository[models.WeeklySchedule, models.WeeklyScheduleFilter](db),
	}
}

// ByZoneAndWeekday retrieves the schedule row of a zone for one weekday
func (r *WeeklyScheduleRepositoryImpl) ByZoneAndWeekday(ctx context.Context, zoneID uint, weekday int) (*models.WeeklySchedule, error) {
	db := r.getDB(ctx)

	var row models.WeeklySchedule
	err := db.Where("zone_id = ? AND weekday = ?", zoneID, weekday).Last(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find schedule: %w", err)
	}
	return &row, nil
}

func (r *WeeklyScheduleRepositoryImpl) Update(ctx context.Context, schedule *models.WeeklySchedule) error {
	schedule.UpdatedAt = utils.UTCNow()
	return r.BaseRepository.Update(ctx, schedule)
}

func (r *WeeklyScheduleRepositoryImpl) applyFilter(db *gorm.DB, filter models.WeeklyScheduleFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.ZoneID != nil {
		db = db.Where("zone_id = ?", *filter.ZoneID)
	}
	if filter.Weekday != nil {
		db = db.Where("weekday = ?", *filter.Weekday)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	return db
}

// ByFilter retrieves schedules based on filter criteria
func (r *WeeklyScheduleRepositoryImpl) ByFilter(ctx context.Context, filter models.WeeklyScheduleFilter, orderBy string, limit, offset int) ([]*models.WeeklySchedule, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.WeeklySchedule{}), filter)
	query = paginate(query, orderBy, "zone_id ASC, weekday ASC", limit, offset)

	var rows []*models.WeeklySchedule
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find schedules: %w", err)
	}
	return rows, nil
}

// Count returns the number of schedules matching the filter
func (r *WeeklyScheduleRepositoryImpl) Count(ctx context.Context, filter models.WeeklyScheduleFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.WeeklySchedule{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count schedules: %w", err)
	}
	return count, nil
}

// Exists checks if any schedule matching the filter exists
func (r *WeeklyScheduleRepositoryImpl) Exists(ctx context.Context, filter models.WeeklyScheduleFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
