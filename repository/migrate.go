package repository

import (
	"fmt"

	"github.com/amirphl/delivery-zones/models"
	"gorm.io/gorm"
)

// Models lists every table owned by the service in creation order
func Models() []any {
	return []any{
		&models.Admin{},
		&models.Zone{},
		&models.DistrictAssignment{},
		&models.CostTier{},
		&models.WeeklySchedule{},
		&models.DateException{},
		&models.ValidatedAddress{},
		&models.ZoneAuditLog{},
	}
}

// AutoMigrate creates or updates the service schema
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
