// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/delivery-zones/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// ZoneRepository is the zone registry. Loaded variants attach active tiers and schedules.
type ZoneRepository interface {
	Repository[models.Zone, models.ZoneFilter]
	ByName(ctx context.Context, name string) (*models.Zone, error)
	LoadedByID(ctx context.Context, id uint) (*models.Zone, error)
	LoadedByIDs(ctx context.Context, ids []uint) ([]*models.Zone, error)
	ListActiveLoaded(ctx context.Context) ([]*models.Zone, error)
	Update(ctx context.Context, zone *models.Zone) error
	SetActive(ctx context.Context, id uint, active bool) error
}

// DistrictAssignmentRepository is the district assignment index
type DistrictAssignmentRepository interface {
	Repository[models.DistrictAssignment, models.DistrictAssignmentFilter]
	// ActiveByDistrict returns active assignments of the district whose zone is active,
	// ordered by priority then zone id.
	ActiveByDistrict(ctx context.Context, districtID uint) ([]*models.DistrictAssignment, error)
	ByZoneAndDistrict(ctx context.Context, zoneID, districtID uint) (*models.DistrictAssignment, error)
	Update(ctx context.Context, assignment *models.DistrictAssignment) error
}

// CostTierRepository defines operations for distance tiers
type CostTierRepository interface {
	Repository[models.CostTier, models.CostTierFilter]
	ActiveByZone(ctx context.Context, zoneID uint) ([]*models.CostTier, error)
	Update(ctx context.Context, tier *models.CostTier) error
}

// WeeklyScheduleRepository defines operations for weekly schedules
type WeeklyScheduleRepository interface {
	Repository[models.WeeklySchedule, models.WeeklyScheduleFilter]
	ByZoneAndWeekday(ctx context.Context, zoneID uint, weekday int) (*models.WeeklySchedule, error)
	Update(ctx context.Context, schedule *models.WeeklySchedule) error
	DeleteByID(ctx context.Context, id uint) error
}

// DateExceptionRepository defines operations for date exceptions
type DateExceptionRepository interface {
	Repository[models.DateException, models.DateExceptionFilter]
	ActiveByZoneAndDate(ctx context.Context, zoneID uint, date string) ([]*models.DateException, error)
	ByZoneDateType(ctx context.Context, zoneID uint, date, exceptionType string) (*models.DateException, error)
	DeleteByID(ctx context.Context, id uint) error
}

// ValidatedAddressRepository is the validated address store
type ValidatedAddressRepository interface {
	Repository[models.ValidatedAddress, models.ValidatedAddressFilter]
	ByAddressID(ctx context.Context, addressID uint) (*models.ValidatedAddress, error)
	Upsert(ctx context.Context, address *models.ValidatedAddress) error
	ListForRevalidation(ctx context.Context, filter models.ValidatedAddressFilter, limit int) ([]*models.ValidatedAddress, error)
}

// AdminRepository defines operations for admins
type AdminRepository interface {
	Repository[models.Admin, models.AdminFilter]
	ByUsername(ctx context.Context, username string) (*models.Admin, error)
	UpdateLastLogin(ctx context.Context, adminID uint, at time.Time) error
}

// ZoneAuditLogRepository defines operations for zone configuration audit logs
type ZoneAuditLogRepository interface {
	Repository[models.ZoneAuditLog, models.ZoneAuditLogFilter]
	ListByZone(ctx context.Context, zoneID uint, limit, offset int) ([]*models.ZoneAuditLog, error)
}

// ZoneLocker serializes configuration writes of one zone
type ZoneLocker interface {
	// LockZone blocks until the caller holds the zone's write lock for the
	// lifetime of the transaction carried by ctx.
	LockZone(ctx context.Context, zoneID uint) error
}
