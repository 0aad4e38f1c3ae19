package businessflow

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/amirphl/delivery-zones/app/dto"
	"github.com/amirphl/delivery-zones/geo"
	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	limaCenter = geo.Point{Lat: -12.10, Lng: -77.03}
	// 2026-10-19 is a Monday
	mondayNoon = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
)

const kmPerDegreeLat = utils.EarthRadiusKm * math.Pi / 180

func northOf(p geo.Point, km float64) geo.Point {
	return geo.Point{Lat: p.Lat + km/kmPerDegreeLat, Lng: p.Lng}
}

type quoteHarness struct {
	zones      *fakeZoneRepo
	tiers      *fakeTierRepo
	schedules  *fakeScheduleRepo
	districts  *fakeDistrictRepo
	exceptions *fakeExceptionRepo
	cache      *uncachedZones
	catchAll   bool
	location   *time.Location
	clock      utils.Clock
}

func newQuoteHarness() *quoteHarness {
	tiers := newFakeTierRepo()
	schedules := newFakeScheduleRepo()
	zones := newFakeZoneRepo(tiers, schedules)
	districts := newFakeDistrictRepo()
	districts.zones = zones
	return &quoteHarness{
		zones:      zones,
		tiers:      tiers,
		schedules:  schedules,
		districts:  districts,
		exceptions: newFakeExceptionRepo(),
		cache:      &uncachedZones{repo: zones},
		location:   time.UTC,
		clock:      utils.FixedClock{At: mondayNoon},
	}
}

func (h *quoteHarness) flow() ShippingQuoteFlow {
	resolver := NewGeoResolver(h.cache, h.districts, h.catchAll)
	return NewShippingQuoteFlow(resolver, NewTierCostResolver(), NewScheduleResolver(), h.exceptions, h.location)
}

func (h *quoteHarness) radiusZone(t *testing.T, name string, center geo.Point, radiusKm, baseCost float64) *models.Zone {
	t.Helper()
	zone := &models.Zone{
		Name:              name,
		IsActive:          utils.ToPtr(true),
		CenterLat:         utils.ToPtr(center.Lat),
		CenterLng:         utils.ToPtr(center.Lng),
		RadiusKm:          utils.ToPtr(radiusKm),
		BaseCost:          baseCost,
		DefaultETAMinutes: 60,
		AlwaysOpen:        utils.ToPtr(true),
	}
	require.NoError(t, h.zones.Save(context.Background(), zone))
	return zone
}

func (h *quoteHarness) tier(t *testing.T, zoneID uint, from, to, cost float64, extra *int) {
	t.Helper()
	require.NoError(t, h.tiers.Save(context.Background(), &models.CostTier{
		ZoneID: zoneID, DistanceFromKm: from, DistanceToKm: to, AdditionalCost: cost,
		ExtraTimeMinutes: extra, IsActive: utils.ToPtr(true),
	}))
}

func (h *quoteHarness) assign(t *testing.T, zoneID, districtID uint, priority int, override *float64, extra *int) {
	t.Helper()
	require.NoError(t, h.districts.Save(context.Background(), &models.DistrictAssignment{
		ZoneID: zoneID, DistrictID: districtID, Priority: priority,
		CostOverride: override, ExtraTimeMinutes: extra, IsActive: utils.ToPtr(true),
	}))
}

func (h *quoteHarness) exception(t *testing.T, ex *models.DateException) {
	t.Helper()
	if ex.IsActive == nil {
		ex.IsActive = utils.ToPtr(true)
	}
	require.NoError(t, h.exceptions.Save(context.Background(), ex))
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := utils.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestShippingQuoteScenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("point beyond the radius is not covered", func(t *testing.T) {
		h := newQuoteHarness()
		h.radiusZone(t, "Z", limaCenter, 10, 10)

		q, err := h.flow().Quote(ctx, QuoteRequest{Point: northOf(limaCenter, 12), When: mondayNoon})
		require.NoError(t, err)
		assert.False(t, q.InCoverage)
		assert.Nil(t, q.ZoneID)
		assert.Nil(t, q.ETAMinutes)
	})

	t.Run("tier surcharge follows the distance", func(t *testing.T) {
		h := newQuoteHarness()
		z := h.radiusZone(t, "Z", limaCenter, 10, 10)
		h.tier(t, z.ID, 0, 6, 0, nil)
		h.tier(t, z.ID, 6, 15, 5, utils.ToPtr(15))

		near, err := h.flow().Quote(ctx, QuoteRequest{Point: northOf(limaCenter, 5), When: mondayNoon})
		require.NoError(t, err)
		require.True(t, near.InCoverage)
		assert.Equal(t, z.ID, *near.ZoneID)
		assert.InDelta(t, 5.0, *near.DistanceKm, 0.001)
		assert.Equal(t, 10.0, near.Breakdown.Final)
		assert.Equal(t, 0.0, near.Breakdown.TierAddition)
		assert.Equal(t, 60, *near.ETAMinutes)

		far, err := h.flow().Quote(ctx, QuoteRequest{Point: northOf(limaCenter, 7), When: mondayNoon})
		require.NoError(t, err)
		assert.Equal(t, 15.0, far.Breakdown.Final)
		assert.Equal(t, 5.0, far.Breakdown.TierAddition)
		assert.Equal(t, 75, *far.ETAMinutes)
	})

	t.Run("order above the threshold ships free", func(t *testing.T) {
		h := newQuoteHarness()
		z := h.radiusZone(t, "Z", limaCenter, 10, 10)
		z.FreeShippingThreshold = utils.ToPtr(150.0)
		require.NoError(t, h.zones.Update(ctx, z))

		q, err := h.flow().Quote(ctx, QuoteRequest{Point: northOf(limaCenter, 2), OrderAmount: 200, When: mondayNoon})
		require.NoError(t, err)
		assert.True(t, q.FreeShipping)
		assert.Equal(t, 0.0, q.Breakdown.Final)
		assert.Equal(t, 10.0, q.Breakdown.Base)

		q, err = h.flow().Quote(ctx, QuoteRequest{Point: northOf(limaCenter, 2), OrderAmount: 100, When: mondayNoon})
		require.NoError(t, err)
		assert.False(t, q.FreeShipping)
		assert.Equal(t, 10.0, q.Breakdown.Final)
	})

	t.Run("free shipping also requires the minimum order", func(t *testing.T) {
		h := newQuoteHarness()
		z := h.radiusZone(t, "Z", limaCenter, 10, 10)
		z.FreeShippingThreshold = utils.ToPtr(150.0)
		z.MinOrderAmount = utils.ToPtr(300.0)
		require.NoError(t, h.zones.Update(ctx, z))

		q, err := h.flow().Quote(ctx, QuoteRequest{Point: limaCenter, OrderAmount: 200, When: mondayNoon})
		require.NoError(t, err)
		assert.False(t, q.FreeShipping)
		assert.Equal(t, 10.0, q.Breakdown.Final)
	})

	t.Run("unavailable exception closes a scheduled monday", func(t *testing.T) {
		h := newQuoteHarness()
		z := h.radiusZone(t, "Z", limaCenter, 10, 10)
		z.AlwaysOpen = utils.ToPtr(false)
		require.NoError(t, h.zones.Update(ctx, z))
		require.NoError(t, h.schedules.Save(ctx, &models.WeeklySchedule{
			ZoneID: z.ID, Weekday: int(time.Monday), StartTime: utils.ToPtr("09:00"), EndTime: utils.ToPtr("18:00"),
			FullDay: utils.ToPtr(false), IsActive: utils.ToPtr(true),
		}))

		q, err := h.flow().Quote(ctx, QuoteRequest{Point: limaCenter, When: mondayNoon})
		require.NoError(t, err)
		assert.True(t, q.Available)

		h.exception(t, &models.DateException{ZoneID: z.ID, Date: mustDate(t, "2026-10-19"), Type: models.DateExceptionUnavailable, Reason: utils.ToPtr("holiday")})

		q, err = h.flow().Quote(ctx, QuoteRequest{Point: limaCenter, When: mondayNoon})
		require.NoError(t, err)
		assert.True(t, q.InCoverage)
		assert.False(t, q.Available)
		assert.Equal(t, "holiday", q.UnavailableReason)
	})
}

func TestShippingQuoteDistrictPrecedence(t *testing.T) {
	ctx := context.Background()
	h := newQuoteHarness()
	geometryZone := h.radiusZone(t, "Geometry", limaCenter, 10, 10)
	districtZone := h.radiusZone(t, "District", northOf(limaCenter, 100), 1, 20)
	fallbackZone := h.radiusZone(t, "Fallback", northOf(limaCenter, 200), 1, 30)

	h.assign(t, fallbackZone.ID, 7, 2, nil, nil)
	h.assign(t, districtZone.ID, 7, 1, nil, utils.ToPtr(10))

	t.Run("assignment wins over geometry", func(t *testing.T) {
		q, err := h.flow().Quote(ctx, QuoteRequest{Point: limaCenter, DistrictID: utils.ToPtr(uint(7)), When: mondayNoon})
		require.NoError(t, err)
		assert.Equal(t, districtZone.ID, *q.ZoneID)
		assert.Equal(t, ResolvedByDistrict, q.ResolvedBy)
		assert.Equal(t, 70, *q.ETAMinutes)
	})

	t.Run("unknown district falls back to geometry", func(t *testing.T) {
		q, err := h.flow().Quote(ctx, QuoteRequest{Point: limaCenter, DistrictID: utils.ToPtr(uint(99)), When: mondayNoon})
		require.NoError(t, err)
		assert.Equal(t, geometryZone.ID, *q.ZoneID)
		assert.Equal(t, ResolvedByGeometry, q.ResolvedBy)
	})

	t.Run("deactivated zone drops its assignment", func(t *testing.T) {
		require.NoError(t, h.zones.SetActive(ctx, districtZone.ID, false))
		defer func() { require.NoError(t, h.zones.SetActive(ctx, districtZone.ID, true)) }()

		q, err := h.flow().Quote(ctx, QuoteRequest{Point: limaCenter, DistrictID: utils.ToPtr(uint(7)), When: mondayNoon})
		require.NoError(t, err)
		assert.Equal(t, fallbackZone.ID, *q.ZoneID)
	})

	t.Run("equal priority picks the lowest zone id", func(t *testing.T) {
		h.assign(t, fallbackZone.ID, 8, 2, nil, nil)
		h.assign(t, districtZone.ID, 8, 2, nil, nil)

		q, err := h.flow().Quote(ctx, QuoteRequest{Point: limaCenter, DistrictID: utils.ToPtr(uint(8)), When: mondayNoon})
		require.NoError(t, err)
		assert.Equal(t, districtZone.ID, *q.ZoneID)
	})
}

func TestShippingQuoteDistrictOverride(t *testing.T) {
	ctx := context.Background()
	h := newQuoteHarness()
	z := h.radiusZone(t, "Z", limaCenter, 10, 10)
	h.tier(t, z.ID, 0, 10, 5, nil)
	h.assign(t, z.ID, 1, 1, utils.ToPtr(8.0), nil)
	h.assign(t, z.ID, 2, 1, utils.ToPtr(3.0), nil)

	tests := []struct {
		name     string
		district uint
		final    float64
	}{
		{name: "override larger than tier replaces it", district: 1, final: 18},
		{name: "tier larger than override is kept", district: 2, final: 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := h.flow().Quote(ctx, QuoteRequest{Point: northOf(limaCenter, 3), DistrictID: &tt.district, When: mondayNoon})
			require.NoError(t, err)
			assert.Equal(t, tt.final, q.Breakdown.Final)
			assert.Equal(t, 5.0, q.Breakdown.TierAddition)
			require.NotNil(t, q.Breakdown.DistrictOverride)
		})
	}
}

func TestShippingQuoteExceptions(t *testing.T) {
	ctx := context.Background()
	monday := mustDate(t, "2026-10-19")

	t.Run("unavailable beats always open", func(t *testing.T) {
		h := newQuoteHarness()
		z := h.radiusZone(t, "Z", limaCenter, 10, 10)
		h.exception(t, &models.DateException{ZoneID: z.ID, Date: monday, Type: models.DateExceptionUnavailable})

		q, err := h.flow().Quote(ctx, QuoteRequest{Point: limaCenter, When: mondayNoon})
		require.NoError(t, err)
		assert.False(t, q.Available)
		assert.Equal(t, "zone unavailable on 2026-10-19", q.UnavailableReason)
	})

	t.Run("exception on another date is ignored", func(t *testing.T) {
		h := newQuoteHarness()
		z := h.radiusZone(t, "Z", limaCenter, 10, 10)
		h.exception(t, &models.DateException{ZoneID: z.ID, Date: mustDate(t, "2026-10-20"), Type: models.DateExceptionUnavailable})

		q, err := h.flow().Quote(ctx, QuoteRequest{Point: limaCenter, When: mondayNoon})
		require.NoError(t, err)
		assert.True(t, q.Available)
	})

	t.Run("special cost replaces the computed cost", func(t *testing.T) {
		h := newQuoteHarness()
		z := h.radiusZone(t, "Z", limaCenter, 10, 10)
		h.exception(t, &models.DateException{ZoneID: z.ID, Date: monday, Type: models.DateExceptionSpecialCost, Amount: utils.ToPtr(4.5)})

		q, err := h.flow().Quote(ctx, QuoteRequest{Point: limaCenter, When: mondayNoon})
		require.NoError(t, err)
		assert.Equal(t, 4.5, q.Breakdown.Final)
		assert.Equal(t, 4.5, *q.Breakdown.SpecialCost)
		assert.False(t, q.FreeShipping)
	})

	t.Run("zero special cost is free shipping", func(t *testing.T) {
		h := newQuoteHarness()
		z := h.radiusZone(t, "Z", limaCenter, 10, 10)
		h.exception(t, &models.DateException{ZoneID: z.ID, Date: monday, Type: models.DateExceptionSpecialCost, Amount: utils.ToPtr(0.0)})

		q, err := h.flow().Quote(ctx, QuoteRequest{Point: limaCenter, When: mondayNoon})
		require.NoError(t, err)
		assert.True(t, q.FreeShipping)
		assert.Equal(t, 0.0, q.Breakdown.Final)
	})

	t.Run("special time window overrides the eta", func(t *testing.T) {
		h := newQuoteHarness()
		z := h.radiusZone(t, "Z", limaCenter, 10, 10)
		h.exception(t, &models.DateException{ZoneID: z.ID, Date: monday, Type: models.DateExceptionSpecialTimeWindow,
			MinMinutes: utils.ToPtr(90), MaxMinutes: utils.ToPtr(180)})

		q, err := h.flow().Quote(ctx, QuoteRequest{Point: limaCenter, When: mondayNoon})
		require.NoError(t, err)
		assert.Equal(t, 180, *q.ETAMinutes)
		assert.Equal(t, 90, *q.ETAMinMinutes)
	})

	t.Run("special hours replace the weekly window", func(t *testing.T) {
		h := newQuoteHarness()
		z := h.radiusZone(t, "Z", limaCenter, 10, 10)
		z.AlwaysOpen = utils.ToPtr(false)
		require.NoError(t, h.zones.Update(ctx, z))
		require.NoError(t, h.schedules.Save(ctx, &models.WeeklySchedule{
			ZoneID: z.ID, Weekday: int(time.Monday), FullDay: utils.ToPtr(true), IsActive: utils.ToPtr(true),
		}))
		h.exception(t, &models.DateException{ZoneID: z.ID, Date: monday, Type: models.DateExceptionSpecialHours,
			StartTime: utils.ToPtr("14:00"), EndTime: utils.ToPtr("16:00")})

		q, err := h.flow().Quote(ctx, QuoteRequest{Point: limaCenter, When: mondayNoon})
		require.NoError(t, err)
		assert.False(t, q.Available)

		q, err = h.flow().Quote(ctx, QuoteRequest{Point: limaCenter, When: mondayNoon.Add(3 * time.Hour)})
		require.NoError(t, err)
		assert.True(t, q.Available)
	})

	t.Run("exception lookup failure surfaces", func(t *testing.T) {
		h := newQuoteHarness()
		h.radiusZone(t, "Z", limaCenter, 10, 10)
		h.exceptions.err = assert.AnError

		_, err := h.flow().Quote(ctx, QuoteRequest{Point: limaCenter, When: mondayNoon})
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestShippingQuoteScheduleTimezone(t *testing.T) {
	ctx := context.Background()
	h := newQuoteHarness()
	h.location = time.FixedZone("UTC-5", -5*3600)
	z := h.radiusZone(t, "Z", limaCenter, 10, 10)
	z.AlwaysOpen = utils.ToPtr(false)
	require.NoError(t, h.zones.Update(ctx, z))
	require.NoError(t, h.schedules.Save(ctx, &models.WeeklySchedule{
		ZoneID: z.ID, Weekday: int(time.Monday), StartTime: utils.ToPtr("09:00"), EndTime: utils.ToPtr("18:00"),
		FullDay: utils.ToPtr(false), IsActive: utils.ToPtr(true),
	}))

	// 02:00 UTC Monday is still Sunday evening five hours west
	q, err := h.flow().Quote(ctx, QuoteRequest{Point: limaCenter, When: time.Date(2026, 10, 19, 2, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.False(t, q.Available)
	assert.Equal(t, "closed on Sunday", q.UnavailableReason)

	// 22:00 UTC Monday is 17:00 local
	q, err = h.flow().Quote(ctx, QuoteRequest{Point: limaCenter, When: time.Date(2026, 10, 19, 22, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.True(t, q.Available)
}

func TestShippingQuoteGeometryKinds(t *testing.T) {
	ctx := context.Background()

	t.Run("polygon zone quotes with zero distance", func(t *testing.T) {
		h := newQuoteHarness()
		zone := &models.Zone{
			Name: "Square", IsActive: utils.ToPtr(true), AlwaysOpen: utils.ToPtr(true), BaseCost: 7, DefaultETAMinutes: 30,
			Polygon: []models.GeoPoint{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 1, Lng: 1}, {Lat: 1, Lng: 0}},
		}
		require.NoError(t, h.zones.Save(ctx, zone))

		q, err := h.flow().Quote(ctx, QuoteRequest{Point: geo.Point{Lat: 0.5, Lng: 0.5}, When: mondayNoon})
		require.NoError(t, err)
		require.True(t, q.InCoverage)
		assert.Equal(t, 0.0, *q.DistanceKm)
		assert.Equal(t, 7.0, q.Breakdown.Final)

		q, err = h.flow().Quote(ctx, QuoteRequest{Point: geo.Point{Lat: 1.5, Lng: 0.5}, When: mondayNoon})
		require.NoError(t, err)
		assert.False(t, q.InCoverage)
	})

	t.Run("geometry-less zone needs an explicit opt in", func(t *testing.T) {
		h := newQuoteHarness()
		zone := &models.Zone{Name: "Anywhere", IsActive: utils.ToPtr(true), AlwaysOpen: utils.ToPtr(true), BaseCost: 3}
		require.NoError(t, h.zones.Save(ctx, zone))

		q, err := h.flow().Quote(ctx, QuoteRequest{Point: limaCenter, When: mondayNoon})
		require.NoError(t, err)
		assert.False(t, q.InCoverage)

		h.catchAll = true
		q, err = h.flow().Quote(ctx, QuoteRequest{Point: limaCenter, When: mondayNoon})
		require.NoError(t, err)
		assert.True(t, q.InCoverage)

		h.catchAll = false
		zone.CoversEverywhere = utils.ToPtr(true)
		require.NoError(t, h.zones.Update(ctx, zone))
		q, err = h.flow().Quote(ctx, QuoteRequest{Point: limaCenter, When: mondayNoon})
		require.NoError(t, err)
		assert.True(t, q.InCoverage)
	})

	t.Run("lowest zone id wins among overlapping geometries", func(t *testing.T) {
		h := newQuoteHarness()
		first := h.radiusZone(t, "First", limaCenter, 10, 10)
		h.radiusZone(t, "Second", limaCenter, 20, 5)

		q, err := h.flow().Quote(ctx, QuoteRequest{Point: northOf(limaCenter, 1), When: mondayNoon})
		require.NoError(t, err)
		assert.Equal(t, first.ID, *q.ZoneID)
	})
}

func TestShippingQuoteValidation(t *testing.T) {
	ctx := context.Background()
	h := newQuoteHarness()
	h.radiusZone(t, "Z", limaCenter, 10, 10)
	flow := h.flow()

	tests := []struct {
		name string
		req  QuoteRequest
		want error
	}{
		{name: "latitude out of range", req: QuoteRequest{Point: geo.Point{Lat: 91}, When: mondayNoon}, want: ErrInvalidCoordinate},
		{name: "longitude out of range", req: QuoteRequest{Point: geo.Point{Lng: -181}, When: mondayNoon}, want: ErrInvalidCoordinate},
		{name: "negative weight", req: QuoteRequest{Point: limaCenter, WeightKg: -1, When: mondayNoon}, want: ErrNegativeAmount},
		{name: "negative order amount", req: QuoteRequest{Point: limaCenter, OrderAmount: -5, When: mondayNoon}, want: ErrNegativeAmount},
		{name: "missing time", req: QuoteRequest{Point: limaCenter}, want: ErrQuoteTimeRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := flow.Quote(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, q)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestShippingQuoteProperties(t *testing.T) {
	ctx := context.Background()
	h := newQuoteHarness()
	z := h.radiusZone(t, "Z", limaCenter, 30, 10)
	h.tier(t, z.ID, 0, 5, 0, nil)
	h.tier(t, z.ID, 5, 10, 2.5, nil)
	h.tier(t, z.ID, 10, 20, 6, nil)
	h.tier(t, z.ID, 20, 30, 9.75, nil)
	flow := h.flow()

	t.Run("same inputs give the same quote", func(t *testing.T) {
		req := QuoteRequest{Point: northOf(limaCenter, 12.3), OrderAmount: 40, When: mondayNoon}
		a, err := flow.Quote(ctx, req)
		require.NoError(t, err)
		b, err := flow.Quote(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("cost never decreases with distance", func(t *testing.T) {
		previous := -1.0
		for km := 0.0; km < 30; km += 0.5 {
			q, err := flow.Quote(ctx, QuoteRequest{Point: northOf(limaCenter, km), When: mondayNoon})
			require.NoError(t, err)
			require.True(t, q.InCoverage, "km=%v", km)
			assert.GreaterOrEqual(t, q.Breakdown.Final, previous, "km=%v", km)
			previous = q.Breakdown.Final
		}
	})
}

func TestGetShippingQuote(t *testing.T) {
	ctx := context.Background()
	h := newQuoteHarness()
	z := h.radiusZone(t, "Z", limaCenter, 10, 10)
	flow := h.flow()

	t.Run("requires an explicit time", func(t *testing.T) {
		_, err := flow.GetShippingQuote(ctx, &dto.ShippingQuoteRequest{Lat: &limaCenter.Lat, Lng: &limaCenter.Lng})
		assert.ErrorIs(t, err, ErrQuoteTimeRequired)
		assert.True(t, IsValidation(err))
	})

	t.Run("quotes at the requested time", func(t *testing.T) {
		resp, err := flow.GetShippingQuote(ctx, &dto.ShippingQuoteRequest{Lat: &limaCenter.Lat, Lng: &limaCenter.Lng, RequestedAt: "2026-10-19T12:00:00Z"})
		require.NoError(t, err)
		assert.True(t, resp.InCoverage)
		assert.Equal(t, z.ID, *resp.ZoneID)
		assert.Equal(t, "Z", resp.ZoneName)
		assert.Equal(t, 10.0, resp.Cost)
		require.NotNil(t, resp.Breakdown)
		assert.True(t, resp.Available)
	})

	t.Run("rejects a malformed time", func(t *testing.T) {
		_, err := flow.GetShippingQuote(ctx, &dto.ShippingQuoteRequest{Lat: &limaCenter.Lat, Lng: &limaCenter.Lng, RequestedAt: "monday"})
		assert.ErrorIs(t, err, ErrInvalidQuoteTime)
	})

	t.Run("missing coordinates", func(t *testing.T) {
		_, err := flow.GetShippingQuote(ctx, &dto.ShippingQuoteRequest{})
		assert.ErrorIs(t, err, ErrInvalidCoordinate)
	})

	t.Run("uncovered response carries nothing else", func(t *testing.T) {
		far := northOf(limaCenter, 50)
		resp, err := flow.GetShippingQuote(ctx, &dto.ShippingQuoteRequest{Lat: &far.Lat, Lng: &far.Lng, RequestedAt: "2026-10-19T12:00:00Z"})
		require.NoError(t, err)
		assert.Equal(t, &dto.ShippingQuoteResponse{InCoverage: false}, resp)
	})
}
