package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/utils"
	"gorm.io/gorm"
)

// DistrictAssignmentRepositoryImpl implements DistrictAssignmentRepository
type DistrictAssignmentRepositoryImpl struct {
	*BaseRepository[models.DistrictAssignment, models.DistrictAssignmentFilter]
}

// NewDistrictAssignmentRepository creates a new district assignment repository
func NewDistrictAssignmentRepository(db *gorm.DB) DistrictAssignmentRepository {
	return &DistrictAssignmentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.DistrictAssignment, models.DistrictAssignmentFilter](db),
	}
}

// ActiveByDistrict returns active assignments of the district pointing at active zones
func (r *DistrictAssignmentRepositoryImpl) ActiveByDistrict(ctx context.Context, districtID uint) ([]*models.DistrictAssignment, error) {
	db := r.getDB(ctx)

	var rows []*models.DistrictAssignment
	err := db.
		Joins("JOIN zones ON zones.id = district_assignments.zone_id").
		Where("district_assignments.district_id = ?", districtID).
		Where("district_assignments.is_active = ? AND zones.is_active = ?", true, true).
		Order("district_assignments.priority ASC, district_assignments.zone_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments for district %d: %w", districtID, err)
	}
	return rows, nil
}

// ByZoneAndDistrict retrieves the unique assignment of a district to a zone
func (r *DistrictAssignmentRepositoryImpl) ByZoneAndDistrict(ctx context.Context, zoneID, districtID uint) (*models.DistrictAssignment, error) {
	db := r.getDB(ctx)

	var row models.DistrictAssignment
	err := db.Where("zone_id = ? AND district_id = ?", zoneID, districtID).Last(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find district assignment: %w", err)
	}
	return &row, nil
}

// Update writes all assignment columns
func (r *DistrictAssignmentRepositoryImpl) Update(ctx context.Context, assignment *models.DistrictAssignment) error {
	assignment.UpdatedAt = utils.UTCNow()
	return r.BaseRepository.Update(ctx, assignment)
}

func (r *DistrictAssignmentRepositoryImpl) applyFilter(db *gorm.DB, filter models.DistrictAssignmentFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.ZoneID != nil {
		db = db.Where("zone_id = ?", *filter.ZoneID)
	}
	if filter.DistrictID != nil {
		db = db.Where("district_id = ?", *filter.DistrictID)
	}
	if filter.Priority != nil {
		db = db.Where("priority = ?", *filter.Priority)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	return db
}

// ByFilter retrieves district assignments based on filter criteria
func (r *DistrictAssignmentRepositoryImpl) ByFilter(ctx context.Context, filter models.DistrictAssignmentFilter, orderBy string, limit, offset int) ([]*models.DistrictAssignment, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.DistrictAssignment{}), filter)
	query = paginate(query, orderBy, "priority ASC, zone_id ASC", limit, offset)

	var rows []*models.DistrictAssignment
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find district assignments: %w", err)
	}
	return rows, nil
}

// Count returns the number of assignments matching the filter
func (r *DistrictAssignmentRepositoryImpl) Count(ctx context.Context, filter models.DistrictAssignmentFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.DistrictAssignment{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count district assignments: %w", err)
	}
	return count, nil
}

// Exists checks if any assignment matching the filter exists
func (r *DistrictAssignmentRepositoryImpl) Exists(ctx context.Context, filter models.DistrictAssignmentFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
