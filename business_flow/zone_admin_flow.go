package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/amirphl/delivery-zones/app/dto"
	"github.com/amirphl/delivery-zones/geo"
	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/repository"
	"github.com/amirphl/delivery-zones/utils"
	"gorm.io/datatypes"
)

const (
	defaultAdminPageSize = 20
	maxAdminPageSize     = 200
)

// ZoneChangeNotifier is told about zones whose configuration changed after commit
type ZoneChangeNotifier interface {
	NotifyZoneChanged(zoneID uint)
}

// ZoneAdminFlow is the administrative write surface for zone configuration.
// Every write runs in one transaction holding the zone lock and leaves an audit row.
type ZoneAdminFlow interface {
	CreateZone(ctx context.Context, req *dto.AdminZoneRequest) (*dto.ZoneDTO, error)
	UpdateZone(ctx context.Context, zoneID uint, req *dto.AdminZoneRequest) (*dto.ZoneDTO, error)
	GetZone(ctx context.Context, zoneID uint) (*dto.ZoneDTO, error)
	ListZones(ctx context.Context, req *dto.AdminListZonesRequest) (*dto.AdminListZonesResponse, error)
	DeactivateZone(ctx context.Context, zoneID uint) (*dto.AdminMessageResponse, error)

	AssignDistrict(ctx context.Context, zoneID uint, req *dto.AdminDistrictAssignmentRequest) (*dto.DistrictAssignmentDTO, error)
	UpdateDistrictAssignment(ctx context.Context, assignmentID uint, req *dto.AdminUpdateDistrictAssignmentRequest) (*dto.DistrictAssignmentDTO, error)
	RemoveDistrictAssignment(ctx context.Context, assignmentID uint) (*dto.AdminMessageResponse, error)
	ListDistrictAssignments(ctx context.Context, zoneID uint) ([]dto.DistrictAssignmentDTO, error)

	AddTier(ctx context.Context, zoneID uint, req *dto.AdminCostTierRequest) (*dto.CostTierDTO, error)
	UpdateTier(ctx context.Context, tierID uint, req *dto.AdminCostTierRequest) (*dto.CostTierDTO, error)
	RemoveTier(ctx context.Context, tierID uint) (*dto.AdminMessageResponse, error)
	ListTiers(ctx context.Context, zoneID uint) ([]dto.CostTierDTO, error)

	AddSchedule(ctx context.Context, zoneID uint, req *dto.AdminWeeklyScheduleRequest) (*dto.WeeklyScheduleDTO, error)
	UpdateSchedule(ctx context.Context, scheduleID uint, req *dto.AdminWeeklyScheduleRequest) (*dto.WeeklyScheduleDTO, error)
	RemoveSchedule(ctx context.Context, scheduleID uint) (*dto.AdminMessageResponse, error)
	ListSchedules(ctx context.Context, zoneID uint) ([]dto.WeeklyScheduleDTO, error)

	AddException(ctx context.Context, zoneID uint, req *dto.AdminDateExceptionRequest) (*dto.DateExceptionDTO, error)
	RemoveException(ctx context.Context, exceptionID uint) (*dto.AdminMessageResponse, error)
	ListExceptions(ctx context.Context, zoneID uint, req *dto.AdminListDateExceptionsRequest) ([]dto.DateExceptionDTO, error)

	ListAuditLogs(ctx context.Context, zoneID uint, page, pageSize int) ([]dto.ZoneAuditLogDTO, error)
}

// ZoneAdminFlowImpl implements ZoneAdminFlow
type ZoneAdminFlowImpl struct {
	zoneRepo      repository.ZoneRepository
	districtRepo  repository.DistrictAssignmentRepository
	tierRepo      repository.CostTierRepository
	scheduleRepo  repository.WeeklyScheduleRepository
	exceptionRepo repository.DateExceptionRepository
	auditRepo     repository.ZoneAuditLogRepository
	txRunner      repository.TxRunner
	locker        repository.ZoneLocker
	tiers         TierCostResolver
	cache         ZoneCache
	notifier      ZoneChangeNotifier
}

func NewZoneAdminFlow(
	zoneRepo repository.ZoneRepository,
	districtRepo repository.DistrictAssignmentRepository,
	tierRepo repository.CostTierRepository,
	scheduleRepo repository.WeeklyScheduleRepository,
	exceptionRepo repository.DateExceptionRepository,
	auditRepo repository.ZoneAuditLogRepository,
	txRunner repository.TxRunner,
	locker repository.ZoneLocker,
	tiers TierCostResolver,
	cache ZoneCache,
	notifier ZoneChangeNotifier,
) ZoneAdminFlow {
	return &ZoneAdminFlowImpl{
		zoneRepo:      zoneRepo,
		districtRepo:  districtRepo,
		tierRepo:      tierRepo,
		scheduleRepo:  scheduleRepo,
		exceptionRepo: exceptionRepo,
		auditRepo:     auditRepo,
		txRunner:      txRunner,
		locker:        locker,
		tiers:         tiers,
		cache:         cache,
		notifier:      notifier,
	}
}

// zoneWrite describes one audited configuration change
type zoneWrite struct {
	action      string
	description string
	metadata    map[string]any
}

// writeZone runs fn in a transaction holding the zone lock, records the audit row in
// the same transaction, then invalidates the zone cache and notifies listeners.
func (f *ZoneAdminFlowImpl) writeZone(ctx context.Context, zoneID uint, w *zoneWrite, fn func(txCtx context.Context) error) error {
	err := f.txRunner.RunInTx(ctx, func(txCtx context.Context) error {
		if err := f.locker.LockZone(txCtx, zoneID); err != nil {
			return NewBusinessError("ZONE_LOCK_FAILED", "Failed to lock zone", err)
		}
		if err := fn(txCtx); err != nil {
			return err
		}
		return f.createAuditLog(txCtx, &zoneID, w, true, nil)
	})
	if err != nil {
		errMsg := err.Error()
		if auditErr := f.createAuditLog(ctx, &zoneID, w, false, &errMsg); auditErr != nil {
			log.Printf("failed to record failed %s audit: %v", w.action, auditErr)
		}
		return err
	}

	f.afterWrite(ctx, zoneID)
	return nil
}

func (f *ZoneAdminFlowImpl) afterWrite(ctx context.Context, zoneID uint) {
	if f.cache != nil {
		if err := f.cache.Invalidate(ctx); err != nil {
			log.Printf("failed to invalidate zone cache after change of zone %d: %v", zoneID, err)
		}
	}
	if f.notifier != nil {
		f.notifier.NotifyZoneChanged(zoneID)
	}
}

// createAuditLog creates a zone audit log entry for the acting admin
func (f *ZoneAdminFlowImpl) createAuditLog(ctx context.Context, zoneID *uint, w *zoneWrite, success bool, errorMsg *string) error {
	md := MetadataFromContext(ctx)

	audit := &models.ZoneAuditLog{
		AdminID:      md.AdminID,
		ZoneID:       zoneID,
		Action:       w.action,
		Description:  &w.description,
		Success:      utils.ToPtr(success),
		ErrorMessage: errorMsg,
	}
	if md.IPAddress != "" {
		audit.IPAddress = &md.IPAddress
	}
	if md.RequestID != "" {
		audit.RequestID = &md.RequestID
	}
	if len(w.metadata) > 0 {
		raw, err := json.Marshal(w.metadata)
		if err != nil {
			return fmt.Errorf("failed to encode audit metadata: %w", err)
		}
		audit.Metadata = datatypes.JSON(raw)
	}

	if err := f.auditRepo.Save(ctx, audit); err != nil {
		return err
	}
	return nil
}

func (f *ZoneAdminFlowImpl) CreateZone(ctx context.Context, req *dto.AdminZoneRequest) (*dto.ZoneDTO, error) {
	zone, err := zoneFromRequest(req)
	if err != nil {
		return nil, err
	}

	var created *models.Zone
	w := &zoneWrite{action: models.AuditActionZoneCreated, description: fmt.Sprintf("Zone %q created", zone.Name)}
	err = f.txRunner.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := f.zoneRepo.ByName(txCtx, zone.Name)
		if err != nil {
			return NewBusinessError("ZONE_LOOKUP_FAILED", "Failed to lookup zone", err)
		}
		if existing != nil {
			return NewBusinessError("ZONE_NAME_EXISTS", "Zone name already exists", ErrZoneNameExists)
		}
		if err := f.zoneRepo.Save(txCtx, zone); err != nil {
			return NewBusinessError("ZONE_CREATE_FAILED", "Failed to create zone", err)
		}
		if err := f.locker.LockZone(txCtx, zone.ID); err != nil {
			return NewBusinessError("ZONE_LOCK_FAILED", "Failed to lock zone", err)
		}
		created = zone
		return f.createAuditLog(txCtx, &zone.ID, w, true, nil)
	})
	if err != nil {
		errMsg := err.Error()
		if auditErr := f.createAuditLog(ctx, nil, w, false, &errMsg); auditErr != nil {
			log.Printf("failed to record failed %s audit: %v", w.action, auditErr)
		}
		return nil, err
	}

	f.afterWrite(ctx, created.ID)
	out := ToZoneDTO(*created)
	return &out, nil
}

func (f *ZoneAdminFlowImpl) UpdateZone(ctx context.Context, zoneID uint, req *dto.AdminZoneRequest) (*dto.ZoneDTO, error) {
	incoming, err := zoneFromRequest(req)
	if err != nil {
		return nil, err
	}

	var updated *models.Zone
	w := &zoneWrite{action: models.AuditActionZoneUpdated, description: fmt.Sprintf("Zone %d updated", zoneID)}
	err = f.writeZone(ctx, zoneID, w, func(txCtx context.Context) error {
		zone, err := f.mustZone(txCtx, zoneID)
		if err != nil {
			return err
		}
		if incoming.Name != zone.Name {
			other, err := f.zoneRepo.ByName(txCtx, incoming.Name)
			if err != nil {
				return NewBusinessError("ZONE_LOOKUP_FAILED", "Failed to lookup zone", err)
			}
			if other != nil && other.ID != zoneID {
				return NewBusinessError("ZONE_NAME_EXISTS", "Zone name already exists", ErrZoneNameExists)
			}
		}

		incoming.ID = zone.ID
		incoming.CreatedAt = zone.CreatedAt
		if req.IsActive == nil {
			incoming.IsActive = zone.IsActive
		}
		if err := f.zoneRepo.Update(txCtx, incoming); err != nil {
			return NewBusinessError("ZONE_UPDATE_FAILED", "Failed to update zone", err)
		}
		updated, err = f.zoneRepo.LoadedByID(txCtx, zoneID)
		if err != nil {
			return NewBusinessError("ZONE_LOOKUP_FAILED", "Failed to load zone", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := ToZoneDTO(*updated)
	return &out, nil
}

func (f *ZoneAdminFlowImpl) GetZone(ctx context.Context, zoneID uint) (*dto.ZoneDTO, error) {
	zone, err := f.zoneRepo.LoadedByID(ctx, zoneID)
	if err != nil {
		return nil, NewBusinessError("ZONE_LOOKUP_FAILED", "Failed to load zone", err)
	}
	if zone == nil {
		return nil, NewBusinessError("ZONE_NOT_FOUND", "Zone not found", ErrZoneNotFound)
	}
	out := ToZoneDTO(*zone)
	return &out, nil
}

func (f *ZoneAdminFlowImpl) ListZones(ctx context.Context, req *dto.AdminListZonesRequest) (*dto.AdminListZonesResponse, error) {
	page, pageSize, err := normalizePage(req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}

	filter := models.ZoneFilter{IsActive: req.IsActive}
	if name := strings.TrimSpace(req.NameContains); name != "" {
		filter.NameContains = &name
	}

	total, err := f.zoneRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("ZONE_LIST_FAILED", "Failed to count zones", err)
	}
	zones, err := f.zoneRepo.ByFilter(ctx, filter, "id ASC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("ZONE_LIST_FAILED", "Failed to list zones", err)
	}

	items := make([]dto.ZoneDTO, 0, len(zones))
	for _, z := range zones {
		items = append(items, ToZoneDTO(*z))
	}
	return &dto.AdminListZonesResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// DeactivateZone soft-disables a zone; zones are never hard deleted
func (f *ZoneAdminFlowImpl) DeactivateZone(ctx context.Context, zoneID uint) (*dto.AdminMessageResponse, error) {
	w := &zoneWrite{action: models.AuditActionZoneDeactivated, description: fmt.Sprintf("Zone %d deactivated", zoneID)}
	err := f.writeZone(ctx, zoneID, w, func(txCtx context.Context) error {
		if _, err := f.mustZone(txCtx, zoneID); err != nil {
			return err
		}
		if err := f.zoneRepo.SetActive(txCtx, zoneID, false); err != nil {
			return NewBusinessError("ZONE_UPDATE_FAILED", "Failed to deactivate zone", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.AdminMessageResponse{Message: "zone deactivated"}, nil
}

func (f *ZoneAdminFlowImpl) ListAuditLogs(ctx context.Context, zoneID uint, page, pageSize int) ([]dto.ZoneAuditLogDTO, error) {
	page, pageSize, err := normalizePage(page, pageSize)
	if err != nil {
		return nil, err
	}
	rows, err := f.auditRepo.ListByZone(ctx, zoneID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("AUDIT_LIST_FAILED", "Failed to list audit logs", err)
	}
	out := make([]dto.ZoneAuditLogDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToZoneAuditLogDTO(*row))
	}
	return out, nil
}

func (f *ZoneAdminFlowImpl) mustZone(ctx context.Context, zoneID uint) (*models.Zone, error) {
	zone, err := f.zoneRepo.ByID(ctx, zoneID)
	if err != nil {
		return nil, NewBusinessError("ZONE_LOOKUP_FAILED", "Failed to lookup zone", err)
	}
	if zone == nil {
		return nil, NewBusinessError("ZONE_NOT_FOUND", "Zone not found", ErrZoneNotFound)
	}
	return zone, nil
}

func normalizePage(page, pageSize int) (int, int, error) {
	if page < 0 {
		return 0, 0, NewBusinessError("INVALID_PAGE", "Invalid page", ErrInvalidPage)
	}
	if pageSize < 0 || pageSize > maxAdminPageSize {
		return 0, 0, NewBusinessError("INVALID_PAGE_SIZE", "Invalid page size", ErrInvalidPageSize)
	}
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = defaultAdminPageSize
	}
	return page, pageSize, nil
}

// zoneFromRequest validates geometry and builds an unsaved zone
func zoneFromRequest(req *dto.AdminZoneRequest) (*models.Zone, error) {
	if req == nil || strings.TrimSpace(req.Name) == "" {
		return nil, NewBusinessError("ZONE_VALIDATION_FAILED", "Zone name is required", ErrInvalidGeometry)
	}
	if req.BaseCost < 0 || req.DefaultETAMinutes < 0 ||
		(req.MinOrderAmount != nil && *req.MinOrderAmount < 0) ||
		(req.FreeShippingThreshold != nil && *req.FreeShippingThreshold < 0) {
		return nil, NewBusinessError("ZONE_VALIDATION_FAILED", "Zone amounts must not be negative", ErrNegativeAmount)
	}

	polygon := make([]models.GeoPoint, 0, len(req.Polygon))
	for _, p := range req.Polygon {
		polygon = append(polygon, models.GeoPoint{Lat: p.Lat, Lng: p.Lng})
	}
	if err := ValidateGeometry(req.CenterLat, req.CenterLng, req.RadiusKm, polygon, req.CoversEverywhere); err != nil {
		return nil, NewBusinessError("ZONE_VALIDATION_FAILED", "Zone geometry is invalid", err)
	}

	zone := &models.Zone{
		Name:                  strings.TrimSpace(req.Name),
		IsActive:              utils.ToPtr(true),
		CenterLat:             req.CenterLat,
		CenterLng:             req.CenterLng,
		RadiusKm:              req.RadiusKm,
		CoversEverywhere:      utils.ToPtr(req.CoversEverywhere),
		BaseCost:              utils.RoundMoney(req.BaseCost),
		MinOrderAmount:        req.MinOrderAmount,
		FreeShippingThreshold: req.FreeShippingThreshold,
		DefaultETAMinutes:     req.DefaultETAMinutes,
		AlwaysOpen:            utils.ToPtr(req.AlwaysOpen),
	}
	if len(polygon) > 0 {
		zone.Polygon = polygon
	}
	if req.IsActive != nil {
		zone.IsActive = utils.ToPtr(*req.IsActive)
	}
	return zone, nil
}

// ValidateGeometry accepts exactly one of a complete center+radius or a polygon,
// or no geometry at all when coversEverywhere is set.
func ValidateGeometry(centerLat, centerLng, radiusKm *float64, polygon []models.GeoPoint, coversEverywhere bool) error {
	anyCenter := centerLat != nil || centerLng != nil || radiusKm != nil
	allCenter := centerLat != nil && centerLng != nil && radiusKm != nil

	switch {
	case anyCenter && len(polygon) > 0:
		return fmt.Errorf("%w: center/radius and polygon are mutually exclusive", ErrInvalidGeometry)
	case anyCenter && !allCenter:
		return fmt.Errorf("%w: center_lat, center_lng and radius_km must be set together", ErrInvalidGeometry)
	case allCenter:
		if *radiusKm <= 0 {
			return fmt.Errorf("%w: radius must be positive", ErrInvalidGeometry)
		}
		if err := geo.ValidatePoint(geo.Point{Lat: *centerLat, Lng: *centerLng}); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
	case len(polygon) > 0:
		if err := geo.ValidatePolygon(PolygonPoints(polygon)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
	case !coversEverywhere:
		return fmt.Errorf("%w: a zone without geometry must set covers_everywhere", ErrInvalidGeometry)
	}

	if coversEverywhere && (allCenter || len(polygon) > 0) {
		return fmt.Errorf("%w: covers_everywhere is only valid without geometry", ErrInvalidGeometry)
	}
	return nil
}
