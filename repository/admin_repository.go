package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/delivery-zones/models"
	"gorm.io/gorm"
)

// AdminRepositoryImpl implements AdminRepository
type AdminRepositoryImpl struct {
	*BaseRepository[models.Admin, models.AdminFilter]
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &AdminRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Admin, models.AdminFilter](db),
	}
}

// ByUsername retrieves an admin by username, ignoring case and surrounding spaces
func (r *AdminRepositoryImpl) ByUsername(ctx context.Context, username string) (*models.Admin, error) {
	db := r.getDB(ctx)

	var admin models.Admin
	err := db.Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).Last(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find admin by username: %w", err)
	}
	return &admin, nil
}

// UpdateLastLogin stamps the admin's last successful login
func (r *AdminRepositoryImpl) UpdateLastLogin(ctx context.Context, adminID uint, at time.Time) error {
	db := r.getDB(ctx)
	err := db.Model(&models.Admin{}).
		Where("id = ?", adminID).
		Updates(map[string]any{"last_login_at": at, "updated_at": at}).Error
	if err != nil {
		return fmt.Errorf("failed to update last login of admin %d: %w", adminID, err)
	}
	return nil
}

func (r *AdminRepositoryImpl) applyFilter(db *gorm.DB, filter models.AdminFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Username != nil {
		db = db.Where("LOWER(username) = ?", strings.ToLower(*filter.Username))
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	return db
}

// ByFilter retrieves admins based on filter criteria
func (r *AdminRepositoryImpl) ByFilter(ctx context.Context, filter models.AdminFilter, orderBy string, limit, offset int) ([]*models.Admin, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Admin{}), filter)
	query = paginate(query, orderBy, "id ASC", limit, offset)

	var admins []*models.Admin
	if err := query.Find(&admins).Error; err != nil {
		return nil, fmt.Errorf("failed to find admins: %w", err)
	}
	return admins, nil
}

// Count returns the number of admins matching the filter
func (r *AdminRepositoryImpl) Count(ctx context.Context, filter models.AdminFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Admin{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return count, nil
}

// Exists checks if any admin matching the filter exists
func (r *AdminRepositoryImpl) Exists(ctx context.Context, filter models.AdminFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
