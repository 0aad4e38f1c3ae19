package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/utils"
	"gorm.io/gorm"
)

// CostTierRepositoryImpl implements CostTierRepository
type CostTierRepositoryImpl struct {
	*BaseRepository[models.CostTier, models.CostTierFilter]
}

// NewCostTierRepository creates a new cost tier repository
func NewCostTierRepository(db *gorm.DB) CostTierRepository {
	return &CostTierRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CostTier, models.CostTierFilter](db),
	}
}

// ActiveByZone returns the zone's active tiers ordered by lower bound
func (r *CostTierRepositoryImpl) ActiveByZone(ctx context.Context, zoneID uint) ([]*models.CostTier, error) {
	db := r.getDB(ctx)

	var tiers []*models.CostTier
	err := db.Where("zone_id = ? AND is_active = ?", zoneID, true).
		Order("distance_from_km ASC").
		Find(&tiers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tiers for zone %d: %w", zoneID, err)
	}
	return tiers, nil
}

// Update writes all tier columns
func (r *CostTierRepositoryImpl) Update(ctx context.Context, tier *models.CostTier) error {
	tier.UpdatedAt = utils.UTCNow()
	return r.BaseRepository.Update(ctx, tier)
}

func (r *CostTierRepositoryImpl) applyFilter(db *gorm.DB, filter models.CostTierFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.ZoneID != nil {
		db = db.Where("zone_id = ?", *filter.ZoneID)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	return db
}

// ByFilter retrieves tiers based on filter criteria
func (r *CostTierRepositoryImpl) ByFilter(ctx context.Context, filter models.CostTierFilter, orderBy string, limit, offset int) ([]*models.CostTier, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.CostTier{}), filter)
	query = paginate(query, orderBy, "zone_id ASC, distance_from_km ASC", limit, offset)

	var tiers []*models.CostTier
	if err := query.Find(&tiers).Error; err != nil {
		return nil, fmt.Errorf("failed to find tiers: %w", err)
	}
	return tiers, nil
}

// Count returns the number of tiers matching the filter
func (r *CostTierRepositoryImpl) Count(ctx context.Context, filter models.CostTierFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.CostTier{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count tiers: %w", err)
	}
	return count, nil
}

// Exists checks if any tier matching the filter exists
func (r *CostTierRepositoryImpl) Exists(ctx context.Context, filter models.CostTierFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
