package businessflow

import (
	"context"
	"time"

	"github.com/amirphl/delivery-zones/app/dto"
	"github.com/amirphl/delivery-zones/geo"
	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/repository"
	"github.com/amirphl/delivery-zones/utils"
)

// QuoteRequest is the order context of a shipping quote. When is mandatory.
// IgnoreDateExceptions evaluates the zone's standing rules only, so cost and ETA
// depend on the coordinate alone and not on the calendar date of When.
type QuoteRequest struct {
	Point                geo.Point
	DistrictID           *uint
	WeightKg             float64
	OrderAmount          float64
	When                 time.Time
	IgnoreDateExceptions bool
}

// CostBreakdown shows how the final cost was composed
type CostBreakdown struct {
	Base             float64
	TierAddition     float64
	DistrictOverride *float64
	SpecialCost      *float64
	Final            float64
}

// Quote is the transient shipping quote. An uncovered point has InCoverage=false and nothing else set.
type Quote struct {
	InCoverage        bool
	ZoneID            *uint
	ZoneName          string
	ResolvedBy        string
	DistanceKm        *float64
	Breakdown         CostBreakdown
	FreeShipping      bool
	Available         bool
	UnavailableReason string
	ETAMinutes        *int
	ETAMinMinutes     *int
}

// ShippingQuoteFlow composes coverage, tier cost, schedule and order context into a quote
type ShippingQuoteFlow interface {
	Quote(ctx context.Context, req QuoteRequest) (*Quote, error)
	GetShippingQuote(ctx context.Context, req *dto.ShippingQuoteRequest) (*dto.ShippingQuoteResponse, error)
}

// ShippingQuoteFlowImpl implements ShippingQuoteFlow
type ShippingQuoteFlowImpl struct {
	resolver      GeoResolver
	tiers         TierCostResolver
	schedules     ScheduleResolver
	exceptionRepo repository.DateExceptionRepository
	location      *time.Location
}

// NewShippingQuoteFlow creates a quote flow. Schedules are evaluated in location.
func NewShippingQuoteFlow(
	resolver GeoResolver,
	tiers TierCostResolver,
	schedules ScheduleResolver,
	exceptionRepo repository.DateExceptionRepository,
	location *time.Location,
) ShippingQuoteFlow {
	if location == nil {
		location = time.UTC
	}
	return &ShippingQuoteFlowImpl{
		resolver:      resolver,
		tiers:         tiers,
		schedules:     schedules,
		exceptionRepo: exceptionRepo,
		location:      location,
	}
}

func (f *ShippingQuoteFlowImpl) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	if req.WeightKg < 0 || req.OrderAmount < 0 {
		return nil, NewBusinessError("QUOTE_VALIDATION_FAILED", "Quote validation failed", ErrNegativeAmount)
	}
	if req.When.IsZero() {
		return nil, NewBusinessError("QUOTE_VALIDATION_FAILED", "Quote validation failed", ErrQuoteTimeRequired)
	}

	res, err := f.resolver.Resolve(ctx, req.Point, req.DistrictID)
	if err != nil {
		return nil, err
	}
	if !res.Covered {
		return &Quote{InCoverage: false}, nil
	}
	zone := res.Zone

	distance := 0.0
	if zone.HasCenter() {
		distance, err = geo.Distance(geo.Point{Lat: *zone.CenterLat, Lng: *zone.CenterLng}, req.Point)
		if err != nil {
			return nil, NewBusinessError("INVALID_COORDINATE", "Coordinate out of range", err)
		}
	}

	tier := f.tiers.AdditionalCost(zone, distance)

	var districtOverride *float64
	districtExtra := 0
	if res.Assignment != nil {
		districtOverride = res.Assignment.CostOverride
		districtExtra = utils.Deref(res.Assignment.ExtraTimeMinutes)
	}

	// The larger of the competing additions applies; they are never summed
	addition := tier.Addition
	if districtOverride != nil && *districtOverride > addition {
		addition = *districtOverride
	}

	breakdown := CostBreakdown{
		Base:             zone.BaseCost,
		TierAddition:     tier.Addition,
		DistrictOverride: districtOverride,
		Final:            utils.RoundMoney(zone.BaseCost + addition),
	}

	freeShipping := false
	if zone.FreeShippingThreshold != nil && req.OrderAmount >= *zone.FreeShippingThreshold &&
		(zone.MinOrderAmount == nil || req.OrderAmount >= *zone.MinOrderAmount) {
		freeShipping = true
		breakdown.Final = 0
	}

	when := req.When.In(f.location)
	var exceptions []*models.DateException
	if !req.IgnoreDateExceptions {
		exceptions, err = f.exceptionRepo.ActiveByZoneAndDate(ctx, zone.ID, utils.DateOf(when))
		if err != nil {
			return nil, NewBusinessError("EXCEPTION_LOOKUP_FAILED", "Failed to load date exceptions", err)
		}
	}
	availability := f.schedules.IsAvailable(zone, exceptions, when)

	if availability.SpecialCost != nil {
		breakdown.SpecialCost = availability.SpecialCost
		breakdown.Final = utils.RoundMoney(*availability.SpecialCost)
		freeShipping = breakdown.Final == 0
	}

	eta := zone.DefaultETAMinutes + tier.ExtraMinutes + districtExtra
	var etaMin *int
	if availability.ETAMax != nil {
		eta = *availability.ETAMax
		etaMin = availability.ETAMin
	} else if availability.ETAMin != nil {
		eta = *availability.ETAMin
	}

	zoneID := zone.ID
	return &Quote{
		InCoverage:        true,
		ZoneID:            &zoneID,
		ZoneName:          zone.Name,
		ResolvedBy:        res.ResolvedBy,
		DistanceKm:        &distance,
		Breakdown:         breakdown,
		FreeShipping:      freeShipping,
		Available:         availability.Available,
		UnavailableReason: availability.Reason,
		ETAMinutes:        &eta,
		ETAMinMinutes:     etaMin,
	}, nil
}

func (f *ShippingQuoteFlowImpl) GetShippingQuote(ctx context.Context, req *dto.ShippingQuoteRequest) (*dto.ShippingQuoteResponse, error) {
	if req == nil || req.Lat == nil || req.Lng == nil {
		return nil, NewBusinessError("QUOTE_VALIDATION_FAILED", "Quote validation failed", ErrInvalidCoordinate)
	}

	if req.RequestedAt == "" {
		return nil, NewBusinessError("QUOTE_VALIDATION_FAILED", "Quote validation failed", ErrQuoteTimeRequired)
	}
	when, err := time.Parse(time.RFC3339, req.RequestedAt)
	if err != nil {
		return nil, NewBusinessError("QUOTE_VALIDATION_FAILED", "Quote validation failed", ErrInvalidQuoteTime)
	}

	quote, err := f.Quote(ctx, QuoteRequest{
		Point:       geo.Point{Lat: *req.Lat, Lng: *req.Lng},
		DistrictID:  req.DistrictID,
		WeightKg:    req.WeightKg,
		OrderAmount: req.OrderAmount,
		When:        when,
	})
	if err != nil {
		return nil, err
	}
	return ToShippingQuoteResponse(quote), nil
}

func ToShippingQuoteResponse(q *Quote) *dto.ShippingQuoteResponse {
	if !q.InCoverage {
		return &dto.ShippingQuoteResponse{InCoverage: false}
	}
	return &dto.ShippingQuoteResponse{
		InCoverage: true,
		ZoneID:     q.ZoneID,
		ZoneName:   q.ZoneName,
		ResolvedBy: q.ResolvedBy,
		DistanceKm: q.DistanceKm,
		Cost:       q.Breakdown.Final,
		Breakdown: &dto.CostBreakdownDTO{
			Base:             q.Breakdown.Base,
			TierAddition:     q.Breakdown.TierAddition,
			DistrictOverride: q.Breakdown.DistrictOverride,
			SpecialCost:      q.Breakdown.SpecialCost,
			Final:            q.Breakdown.Final,
		},
		FreeShipping:      q.FreeShipping,
		Available:         q.Available,
		UnavailableReason: q.UnavailableReason,
		ETAMinutes:        q.ETAMinutes,
		ETAMinMinutes:     q.ETAMinMinutes,
	}
}
