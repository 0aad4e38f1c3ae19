package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/utils"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ValidatedAddressRepositoryImpl implements ValidatedAddressRepository
type ValidatedAddressRepositoryImpl struct {
	*BaseRepository[models.ValidatedAddress, models.ValidatedAddressFilter]
}

// NewValidatedAddressRepository creates a new validated address repository
func NewValidatedAddressRepository(db *gorm.DB) ValidatedAddressRepository {
	return &ValidatedAddressRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ValidatedAddress, models.ValidatedAddressFilter](db),
	}
}

// ByAddressID retrieves the stored resolution of an external address
func (r *ValidatedAddressRepositoryImpl) ByAddressID(ctx context.Context, addressID uint) (*models.ValidatedAddress, error) {
	db := r.getDB(ctx)

	var row models.ValidatedAddress
	err := db.Where("address_id = ?", addressID).Last(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find validated address %d: %w", addressID, err)
	}
	return &row, nil
}

// Upsert inserts the row or overwrites the resolution of an existing address_id
func (r *ValidatedAddressRepositoryImpl) Upsert(ctx context.Context, address *models.ValidatedAddress) error {
	db := r.getDB(ctx)
	address.UpdatedAt = utils.UTCNow()

	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "address_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"lat", "lng", "district_id", "zone_id", "in_coverage",
			"distance_km", "cost", "eta_minutes", "last_validated_at",
			"validation_note", "updated_at",
		}),
	}).Create(address).Error
	if err != nil {
		return fmt.Errorf("failed to upsert validated address %d: %w", address.AddressID, err)
	}
	return nil
}

// ListForRevalidation returns matching rows oldest-validated first
func (r *ValidatedAddressRepositoryImpl) ListForRevalidation(ctx context.Context, filter models.ValidatedAddressFilter, limit int) ([]*models.ValidatedAddress, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ValidatedAddress{}), filter)
	query = paginate(query, "last_validated_at ASC, address_id ASC", "", limit, 0)

	var rows []*models.ValidatedAddress
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list addresses for revalidation: %w", err)
	}
	return rows, nil
}

func (r *ValidatedAddressRepositoryImpl) applyFilter(db *gorm.DB, filter models.ValidatedAddressFilter) *gorm.DB {
	if len(filter.AddressIDs) > 0 {
		ids := make([]int64, 0, len(filter.AddressIDs))
		for _, id := range filter.AddressIDs {
			ids = append(ids, int64(id))
		}
		db = db.Where("address_id = ANY(?)", pq.Array(ids))
	}
	if filter.ZoneID != nil {
		db = db.Where("zone_id = ?", *filter.ZoneID)
	}
	if filter.InCoverage != nil {
		db = db.Where("in_coverage = ?", *filter.InCoverage)
	}
	if filter.ValidatedBefore != nil {
		db = db.Where("last_validated_at < ?", *filter.ValidatedBefore)
	}
	if filter.ValidatedAfter != nil {
		db = db.Where("last_validated_at > ?", *filter.ValidatedAfter)
	}
	return db
}

// ByFilter retrieves validated addresses based on filter criteria
func (r *ValidatedAddressRepositoryImpl) ByFilter(ctx context.Context, filter models.ValidatedAddressFilter, orderBy string, limit, offset int) ([]*models.ValidatedAddress, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ValidatedAddress{}), filter)
	query = paginate(query, orderBy, "address_id ASC", limit, offset)

	var rows []*models.ValidatedAddress
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find validated addresses: %w", err)
	}
	return rows, nil
}

// Count returns the number of validated addresses matching the filter
func (r *ValidatedAddressRepositoryImpl) Count(ctx context.Context, filter models.ValidatedAddressFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ValidatedAddress{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count validated addresses: %w", err)
	}
	return count, nil
}

// Exists checks if any validated address matching the filter exists
func (r *ValidatedAddressRepositoryImpl) Exists(ctx context.Context, filter models.ValidatedAddressFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
