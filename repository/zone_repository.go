package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ZoneRepositoryImpl implements ZoneRepository
type ZoneRepositoryImpl struct {
	*BaseRepository[models.Zone, models.ZoneFilter]
}

// NewZoneRepository creates a new zone repository
func NewZoneRepository(db *gorm.DB) ZoneRepository {
	return &ZoneRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Zone, models.ZoneFilter](db),
	}
}

// preloadActive attaches active tiers (by distance) and active schedules (by weekday)
func preloadActive(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Tiers", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("distance_from_km ASC")
		}).
		Preload("Schedules", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("weekday ASC")
		})
}

// ByName retrieves a zone by its unique name
func (r *ZoneRepositoryImpl) ByName(ctx context.Context, name string) (*models.Zone, error) {
	db := r.getDB(ctx)

	var zone models.Zone
	err := db.Where("name = ?", name).Last(&zone).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find zone by name: %w", err)
	}
	return &zone, nil
}

// LoadedByID retrieves a zone with its active tiers and schedules
func (r *ZoneRepositoryImpl) LoadedByID(ctx context.Context, id uint) (*models.Zone, error) {
	db := preloadActive(r.getDB(ctx))

	var zone models.Zone
	err := db.Last(&zone, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load zone %d: %w", id, err)
	}
	return &zone, nil
}

// LoadedByIDs retrieves zones with their active tiers and schedules, ordered by id
func (r *ZoneRepositoryImpl) LoadedByIDs(ctx context.Context, ids []uint) ([]*models.Zone, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db := preloadActive(r.getDB(ctx))

	var zones []*models.Zone
	if err := db.Where("id IN ?", ids).Order("id ASC").Find(&zones).Error; err != nil {
		return nil, fmt.Errorf("failed to load zones: %w", err)
	}
	return zones, nil
}

// ListActiveLoaded returns every active zone ordered by ascending id
func (r *ZoneRepositoryImpl) ListActiveLoaded(ctx context.Context) ([]*models.Zone, error) {
	db := preloadActive(r.getDB(ctx))

	var zones []*models.Zone
	if err := db.Where("is_active = ?", true).Order("id ASC").Find(&zones).Error; err != nil {
		return nil, fmt.Errorf("failed to list active zones: %w", err)
	}
	return zones, nil
}

// Update writes zone columns without touching tiers or schedules
func (r *ZoneRepositoryImpl) Update(ctx context.Context, zone *models.Zone) error {
	db := r.getDB(ctx)
	zone.UpdatedAt = utils.UTCNow()
	if err := db.Omit(clause.Associations).Save(zone).Error; err != nil {
		return fmt.Errorf("failed to update zone %d: %w", zone.ID, err)
	}
	return nil
}

// SetActive toggles the zone's active flag
func (r *ZoneRepositoryImpl) SetActive(ctx context.Context, id uint, active bool) error {
	db := r.getDB(ctx)
	err := db.Model(&models.Zone{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "updated_at": utils.UTCNow()}).Error
	if err != nil {
		return fmt.Errorf("failed to set zone %d active=%t: %w", id, active, err)
	}
	return nil
}

// applyFilter applies filter conditions to the GORM query
func (r *ZoneRepositoryImpl) applyFilter(db *gorm.DB, filter models.ZoneFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if len(filter.IDs) > 0 {
		db = db.Where("id IN ?", filter.IDs)
	}
	if filter.Name != nil {
		db = db.Where("name = ?", *filter.Name)
	}
	if filter.NameContains != nil {
		db = db.Where("name ILIKE ?", "%"+*filter.NameContains+"%")
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	if filter.AlwaysOpen != nil {
		db = db.Where("always_open = ?", *filter.AlwaysOpen)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return db
}

// ByFilter retrieves zones based on filter criteria
func (r *ZoneRepositoryImpl) ByFilter(ctx context.Context, filter models.ZoneFilter, orderBy string, limit, offset int) ([]*models.Zone, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Zone{}), filter)
	query = paginate(query, orderBy, "id ASC", limit, offset)

	var zones []*models.Zone
	if err := query.Find(&zones).Error; err != nil {
		return nil, fmt.Errorf("failed to find zones by filter: %w", err)
	}
	return zones, nil
}

// Count returns the number of zones matching the filter
func (r *ZoneRepositoryImpl) Count(ctx context.Context, filter models.ZoneFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Zone{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count zones: %w", err)
	}
	return count, nil
}

// Exists checks if any zone matching the filter exists
func (r *ZoneRepositoryImpl) Exists(ctx context.Context, filter models.ZoneFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
