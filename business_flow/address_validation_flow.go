package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/amirphl/delivery-zones/app/dto"
	"github.com/amirphl/delivery-zones/config"
	"github.com/amirphl/delivery-zones/geo"
	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/repository"
	"github.com/amirphl/delivery-zones/utils"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"gorm.io/datatypes"
)

// RevalidationFailure is one address that could not be revalidated
type RevalidationFailure struct {
	AddressID uint
	Err       error
}

// RevalidationReport is the outcome of one batch. Ids are ascending.
type RevalidationReport struct {
	Succeeded  []uint
	Failed     []RevalidationFailure
	Changed    []uint
	StartedAt  time.Time
	FinishedAt time.Time
}

// AddressValidationFlow caches coverage resolutions of external addresses
type AddressValidationFlow interface {
	ValidateAddress(ctx context.Context, addressID uint, point geo.Point, districtID *uint) (*models.ValidatedAddress, error)
	RevalidateAddresses(ctx context.Context, filter models.ValidatedAddressFilter, limit int) (*RevalidationReport, error)
	LastReport() (*RevalidationReport, error)
	ExportLastReport(ctx context.Context) (string, []byte, error)

	Validate(ctx context.Context, req *dto.ValidateAddressRequest) (*dto.ValidatedAddressDTO, error)
	GetValidatedAddress(ctx context.Context, addressID uint) (*dto.ValidatedAddressDTO, error)
	Revalidate(ctx context.Context, req *dto.RevalidateAddressesRequest) (*dto.RevalidateAddressesResponse, error)
}

// AddressValidationFlowImpl implements AddressValidationFlow
type AddressValidationFlowImpl struct {
	quoteFlow   ShippingQuoteFlow
	addressRepo repository.ValidatedAddressRepository
	auditRepo   repository.ZoneAuditLogRepository
	rc          *redis.Client
	cacheConfig config.CacheConfig
	revalConfig config.RevalidationConfig
	clock       utils.Clock

	reportMu   sync.RWMutex
	lastReport *RevalidationReport
}

func NewAddressValidationFlow(
	quoteFlow ShippingQuoteFlow,
	addressRepo repository.ValidatedAddressRepository,
	auditRepo repository.ZoneAuditLogRepository,
	rc *redis.Client,
	cacheConfig config.CacheConfig,
	revalConfig config.RevalidationConfig,
	clock utils.Clock,
) AddressValidationFlow {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &AddressValidationFlowImpl{
		quoteFlow:   quoteFlow,
		addressRepo: addressRepo,
		auditRepo:   auditRepo,
		rc:          rc,
		cacheConfig: cacheConfig,
		revalConfig: revalConfig,
		clock:       clock,
	}
}

// ValidateAddress quotes the point with an empty order and stores the result.
// Date exceptions are ignored so the stored cost and ETA do not depend on the day of validation.
func (f *AddressValidationFlowImpl) ValidateAddress(ctx context.Context, addressID uint, point geo.Point, districtID *uint) (*models.ValidatedAddress, error) {
	if addressID == 0 {
		return nil, NewBusinessError("ADDRESS_VALIDATION_FAILED", "Address validation failed", ErrInvalidAddressID)
	}

	row, err := f.resolve(ctx, addressID, point, districtID)
	if err != nil {
		return nil, err
	}
	if err := f.addressRepo.Upsert(ctx, row); err != nil {
		return nil, NewBusinessError("ADDRESS_STORE_FAILED", "Failed to store validated address", err)
	}
	return row, nil
}

func (f *AddressValidationFlowImpl) resolve(ctx context.Context, addressID uint, point geo.Point, districtID *uint) (*models.ValidatedAddress, error) {
	now := f.clock.Now().UTC()
	quote, err := f.quoteFlow.Quote(ctx, QuoteRequest{
		Point:                point,
		DistrictID:           districtID,
		When:                 now,
		IgnoreDateExceptions: true,
	})
	if err != nil {
		return nil, err
	}

	row := &models.ValidatedAddress{
		AddressID:       addressID,
		Lat:             point.Lat,
		Lng:             point.Lng,
		DistrictID:      districtID,
		InCoverage:      quote.InCoverage,
		LastValidatedAt: now,
		UpdatedAt:       now,
	}
	if !quote.InCoverage {
		row.ValidationNote = utils.ToPtr("no active zone covers this address")
		return row, nil
	}

	row.ZoneID = quote.ZoneID
	if quote.DistanceKm != nil {
		row.DistanceKm = utils.ToPtr(utils.RoundDistance(*quote.DistanceKm))
	}
	row.Cost = utils.ToPtr(quote.Breakdown.Final)
	row.ETAMinutes = quote.ETAMinutes
	return row, nil
}

// RevalidateAddresses re-resolves stored addresses on a bounded worker pool.
// Failures of single addresses are collected; only selection and locking errors abort the batch.
func (f *AddressValidationFlowImpl) RevalidateAddresses(ctx context.Context, filter models.ValidatedAddressFilter, limit int) (*RevalidationReport, error) {
	if f.revalConfig.MaxRequestSize > 0 && len(filter.AddressIDs) > f.revalConfig.MaxRequestSize {
		return nil, NewBusinessErrorf("REVALIDATION_TOO_LARGE", "At most %d addresses can be revalidated at once", ErrRevalidationTooLarge, f.revalConfig.MaxRequestSize)
	}
	if limit <= 0 {
		limit = f.revalConfig.BatchSize
	}
	if len(filter.AddressIDs) > limit {
		limit = len(filter.AddressIDs)
	}

	release, err := lockRevalidation(ctx, f.rc, f.cacheConfig)
	if err != nil {
		return nil, err
	}
	defer release()

	report := &RevalidationReport{
		Succeeded: []uint{},
		Failed:    []RevalidationFailure{},
		Changed:   []uint{},
		StartedAt: f.clock.Now().UTC(),
	}

	rows, err := f.addressRepo.ListForRevalidation(ctx, filter, limit)
	if err != nil {
		return nil, NewBusinessError("REVALIDATION_SELECT_FAILED", "Failed to select addresses for revalidation", err)
	}

	if len(filter.AddressIDs) > 0 {
		found := make(map[uint]bool, len(rows))
		for _, row := range rows {
			found[row.AddressID] = true
		}
		for _, id := range filter.AddressIDs {
			if !found[id] {
				report.Failed = append(report.Failed, RevalidationFailure{AddressID: id, Err: ErrAddressNotFound})
				found[id] = true
			}
		}
	}

	var limiter *rate.Limiter
	if f.revalConfig.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(f.revalConfig.RatePerSecond), 1)
	}
	workers := f.revalConfig.Workers
	if workers <= 0 {
		workers = 1
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(workers)
	for _, row := range rows {
		g.Go(func() error {
			changed, err := f.revalidateOne(ctx, limiter, row)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed = append(report.Failed, RevalidationFailure{AddressID: row.AddressID, Err: err})
				return nil
			}
			report.Succeeded = append(report.Succeeded, row.AddressID)
			if changed {
				report.Changed = append(report.Changed, row.AddressID)
			}
			return nil
		})
	}
	_ = g.Wait()

	sortIDs(report.Succeeded)
	sortIDs(report.Changed)
	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i].AddressID < report.Failed[j].AddressID })
	report.FinishedAt = f.clock.Now().UTC()

	f.reportMu.Lock()
	f.lastReport = report
	f.reportMu.Unlock()

	f.recordRevalidationAudit(ctx, filter, report)
	return report, nil
}

func (f *AddressValidationFlowImpl) revalidateOne(ctx context.Context, limiter *rate.Limiter, previous *models.ValidatedAddress) (bool, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return false, err
		}
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	row, err := f.resolve(ctx, previous.AddressID, geo.Point{Lat: previous.Lat, Lng: previous.Lng}, previous.DistrictID)
	if err != nil {
		return false, err
	}
	if err := f.addressRepo.Upsert(ctx, row); err != nil {
		return false, fmt.Errorf("failed to store address %d: %w", previous.AddressID, err)
	}
	return !previous.SameResolution(row), nil
}

func (f *AddressValidationFlowImpl) recordRevalidationAudit(ctx context.Context, filter models.ValidatedAddressFilter, report *RevalidationReport) {
	if f.auditRepo == nil {
		return
	}
	md := MetadataFromContext(ctx)
	meta := map[string]any{
		"succeeded": len(report.Succeeded),
		"failed":    len(report.Failed),
		"changed":   len(report.Changed),
	}
	if filter.ZoneID != nil {
		meta["zone_id"] = *filter.ZoneID
	}
	raw, _ := json.Marshal(meta)

	audit := &models.ZoneAuditLog{
		AdminID:     md.AdminID,
		ZoneID:      filter.ZoneID,
		Action:      models.AuditActionAddressRevalidated,
		Description: utils.ToPtr(fmt.Sprintf("Revalidated %d addresses, %d failed", len(report.Succeeded), len(report.Failed))),
		Metadata:    datatypes.JSON(raw),
		Success:     utils.ToPtr(len(report.Failed) == 0),
	}
	if md.IPAddress != "" {
		audit.IPAddress = &md.IPAddress
	}
	if md.RequestID != "" {
		audit.RequestID = &md.RequestID
	}
	if err := f.auditRepo.Save(ctx, audit); err != nil {
		log.Printf("failed to record revalidation audit: %v", err)
	}
}

func (f *AddressValidationFlowImpl) LastReport() (*RevalidationReport, error) {
	f.reportMu.RLock()
	defer f.reportMu.RUnlock()
	if f.lastReport == nil {
		return nil, NewBusinessError("NO_REVALIDATION_REPORT", "No revalidation has run yet", ErrNoRevalidationReport)
	}
	return f.lastReport, nil
}

// ExportLastReport renders the last batch as a workbook with Succeeded and Failed sheets
func (f *AddressValidationFlowImpl) ExportLastReport(ctx context.Context) (string, []byte, error) {
	report, err := f.LastReport()
	if err != nil {
		return "", nil, err
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	changed := make(map[uint]bool, len(report.Changed))
	for _, id := range report.Changed {
		changed[id] = true
	}

	succeededSheet := "Succeeded"
	xl.SetSheetName(xl.GetSheetName(0), succeededSheet)
	header := []string{"address_id", "changed", "zone_id", "in_coverage", "cost", "eta_minutes", "last_validated_at"}
	_ = xl.SetSheetRow(succeededSheet, "A1", &header)

	stored := map[uint]*models.ValidatedAddress{}
	if len(report.Succeeded) > 0 {
		rows, err := f.addressRepo.ByFilter(ctx, models.ValidatedAddressFilter{AddressIDs: report.Succeeded}, "address_id ASC", 0, 0)
		if err != nil {
			return "", nil, NewBusinessError("FETCH_ADDRESSES_FAILED", "Failed to fetch validated addresses", err)
		}
		for _, row := range rows {
			stored[row.AddressID] = row
		}
	}

	for ri, id := range report.Succeeded {
		record := []string{strconv.FormatUint(uint64(id), 10), strconv.FormatBool(changed[id]), "", "", "", "", ""}
		if row, ok := stored[id]; ok {
			if row.ZoneID != nil {
				record[2] = strconv.FormatUint(uint64(*row.ZoneID), 10)
			}
			record[3] = strconv.FormatBool(row.InCoverage)
			if row.Cost != nil {
				record[4] = strconv.FormatFloat(*row.Cost, 'f', 2, 64)
			}
			if row.ETAMinutes != nil {
				record[5] = strconv.Itoa(*row.ETAMinutes)
			}
			record[6] = row.LastValidatedAt.UTC().Format(time.RFC3339)
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(succeededSheet, cellRef, &record)
	}

	failedSheet := "Failed"
	if _, err := xl.NewSheet(failedSheet); err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to create sheet", err)
	}
	failedHeader := []string{"address_id", "error"}
	_ = xl.SetSheetRow(failedSheet, "A1", &failedHeader)
	for ri, failure := range report.Failed {
		record := []string{strconv.FormatUint(uint64(failure.AddressID), 10), failure.Err.Error()}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(failedSheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	filename := fmt.Sprintf("address_revalidation_%s.xlsx", report.StartedAt.UTC().Format("20060102T150405Z"))
	return filename, buf.Bytes(), nil
}

func (f *AddressValidationFlowImpl) Validate(ctx context.Context, req *dto.ValidateAddressRequest) (*dto.ValidatedAddressDTO, error) {
	if req == nil || req.Lat == nil || req.Lng == nil {
		return nil, NewBusinessError("ADDRESS_VALIDATION_FAILED", "Address validation failed", ErrInvalidCoordinate)
	}
	row, err := f.ValidateAddress(ctx, req.AddressID, geo.Point{Lat: *req.Lat, Lng: *req.Lng}, req.DistrictID)
	if err != nil {
		return nil, err
	}
	out := ToValidatedAddressDTO(*row)
	return &out, nil
}

func (f *AddressValidationFlowImpl) GetValidatedAddress(ctx context.Context, addressID uint) (*dto.ValidatedAddressDTO, error) {
	row, err := f.addressRepo.ByAddressID(ctx, addressID)
	if err != nil {
		return nil, NewBusinessError("FETCH_ADDRESS_FAILED", "Failed to fetch validated address", err)
	}
	if row == nil {
		return nil, NewBusinessError("ADDRESS_NOT_FOUND", "Address not found", ErrAddressNotFound)
	}
	out := ToValidatedAddressDTO(*row)
	return &out, nil
}

func (f *AddressValidationFlowImpl) Revalidate(ctx context.Context, req *dto.RevalidateAddressesRequest) (*dto.RevalidateAddressesResponse, error) {
	filter := models.ValidatedAddressFilter{
		AddressIDs: req.AddressIDs,
		ZoneID:     req.ZoneID,
		InCoverage: req.InCoverage,
	}
	if req.ValidatedBefore != "" {
		before, err := time.Parse(time.RFC3339, req.ValidatedBefore)
		if err != nil {
			return nil, NewBusinessError("REVALIDATION_VALIDATION_FAILED", "Revalidation validation failed", ErrInvalidRevalidateTime)
		}
		filter.ValidatedBefore = &before
	}

	report, err := f.RevalidateAddresses(ctx, filter, req.Limit)
	if err != nil {
		return nil, err
	}
	return ToRevalidateAddressesResponse(report), nil
}

func ToRevalidateAddressesResponse(report *RevalidationReport) *dto.RevalidateAddressesResponse {
	failed := make([]dto.RevalidationFailureDTO, 0, len(report.Failed))
	for _, failure := range report.Failed {
		failed = append(failed, dto.RevalidationFailureDTO{AddressID: failure.AddressID, Error: failure.Err.Error()})
	}
	return &dto.RevalidateAddressesResponse{
		Succeeded:  report.Succeeded,
		Failed:     failed,
		Changed:    report.Changed,
		StartedAt:  report.StartedAt.Format(time.RFC3339),
		FinishedAt: report.FinishedAt.Format(time.RFC3339),
	}
}

func sortIDs(ids []uint) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
