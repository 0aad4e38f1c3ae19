package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/amirphl/delivery-zones/app/dto"
	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adminHarness struct {
	zones      *fakeZoneRepo
	tiers      *fakeTierRepo
	schedules  *fakeScheduleRepo
	districts  *fakeDistrictRepo
	exceptions *fakeExceptionRepo
	audits     *fakeAuditRepo
	tx         *directTx
	locker     *recordingLocker
	cache      *uncachedZones
	notifier   *recordingNotifier
	flow       ZoneAdminFlow
}

func newAdminHarness() *adminHarness {
	h := &adminHarness{
		tiers:      newFakeTierRepo(),
		schedules:  newFakeScheduleRepo(),
		districts:  newFakeDistrictRepo(),
		exceptions: newFakeExceptionRepo(),
		audits:     newFakeAuditRepo(),
		tx:         &directTx{},
		locker:     &recordingLocker{},
		notifier:   &recordingNotifier{},
	}
	h.zones = newFakeZoneRepo(h.tiers, h.schedules)
	h.districts.zones = h.zones
	h.cache = &uncachedZones{repo: h.zones}
	h.flow = NewZoneAdminFlow(h.zones, h.districts, h.tiers, h.schedules, h.exceptions, h.audits,
		h.tx, h.locker, NewTierCostResolver(), h.cache, h.notifier)
	return h
}

func radiusRequest(name string) *dto.AdminZoneRequest {
	return &dto.AdminZoneRequest{
		Name:              name,
		CenterLat:         utils.ToPtr(-12.1),
		CenterLng:         utils.ToPtr(-77.03),
		RadiusKm:          utils.ToPtr(10.0),
		BaseCost:          10,
		DefaultETAMinutes: 45,
		AlwaysOpen:        true,
	}
}

func (h *adminHarness) createZone(t *testing.T, name string) uint {
	t.Helper()
	zone, err := h.flow.CreateZone(context.Background(), radiusRequest(name))
	require.NoError(t, err)
	return zone.ID
}

func businessCode(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func TestZoneAdminCreateZone(t *testing.T) {
	ctx := context.Background()

	t.Run("creates, audits, locks and notifies", func(t *testing.T) {
		h := newAdminHarness()
		zone, err := h.flow.CreateZone(ctx, radiusRequest("Miraflores"))
		require.NoError(t, err)
		assert.NotZero(t, zone.ID)
		assert.True(t, zone.IsActive)
		assert.Equal(t, []uint{zone.ID}, h.locker.locked)
		assert.Equal(t, []uint{zone.ID}, h.notifier.changed)
		assert.Equal(t, 1, h.cache.invalidated)
		assert.Equal(t, []string{models.AuditActionZoneCreated}, h.audits.actions())
	})

	t.Run("duplicate name is a conflict with a failed audit row", func(t *testing.T) {
		h := newAdminHarness()
		h.createZone(t, "Miraflores")

		_, err := h.flow.CreateZone(ctx, radiusRequest("Miraflores"))
		assert.True(t, IsZoneNameExists(err))
		assert.True(t, IsConflict(err))

		rows := h.audits.all(nil)
		require.Len(t, rows, 2)
		assert.False(t, utils.IsTrue(rows[1].Success))
		assert.NotNil(t, rows[1].ErrorMessage)
	})

	tests := []struct {
		name string
		req  *dto.AdminZoneRequest
		want error
	}{
		{
			name: "center and polygon together",
			req: &dto.AdminZoneRequest{Name: "Z", CenterLat: utils.ToPtr(0.0), CenterLng: utils.ToPtr(0.0), RadiusKm: utils.ToPtr(1.0),
				Polygon: []dto.GeoPointDTO{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 1, Lng: 1}}},
			want: ErrInvalidGeometry,
		},
		{
			name: "incomplete center",
			req:  &dto.AdminZoneRequest{Name: "Z", CenterLat: utils.ToPtr(0.0), RadiusKm: utils.ToPtr(1.0)},
			want: ErrInvalidGeometry,
		},
		{
			name: "non-positive radius",
			req:  &dto.AdminZoneRequest{Name: "Z", CenterLat: utils.ToPtr(0.0), CenterLng: utils.ToPtr(0.0), RadiusKm: utils.ToPtr(0.0)},
			want: ErrInvalidGeometry,
		},
		{
			name: "no geometry without covers_everywhere",
			req:  &dto.AdminZoneRequest{Name: "Z"},
			want: ErrInvalidGeometry,
		},
		{
			name: "covers_everywhere with geometry",
			req:  &dto.AdminZoneRequest{Name: "Z", CenterLat: utils.ToPtr(0.0), CenterLng: utils.ToPtr(0.0), RadiusKm: utils.ToPtr(1.0), CoversEverywhere: true},
			want: ErrInvalidGeometry,
		},
		{
			name: "negative base cost",
			req:  &dto.AdminZoneRequest{Name: "Z", CoversEverywhere: true, BaseCost: -1},
			want: ErrNegativeAmount,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newAdminHarness()
			_, err := h.flow.CreateZone(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidation(err))
			assert.Empty(t, h.audits.actions())
		})
	}

	t.Run("geometry-less zone with covers_everywhere", func(t *testing.T) {
		h := newAdminHarness()
		zone, err := h.flow.CreateZone(ctx, &dto.AdminZoneRequest{Name: "Nationwide", CoversEverywhere: true, BaseCost: 25})
		require.NoError(t, err)
		assert.True(t, zone.CoversEverywhere)
		assert.Nil(t, zone.RadiusKm)
	})
}

func TestZoneAdminUpdateAndDeactivate(t *testing.T) {
	ctx := context.Background()
	h := newAdminHarness()
	first := h.createZone(t, "First")
	second := h.createZone(t, "Second")

	t.Run("rename onto another zone conflicts", func(t *testing.T) {
		_, err := h.flow.UpdateZone(ctx, second, radiusRequest("First"))
		assert.True(t, IsZoneNameExists(err))
	})

	t.Run("update keeps the active flag", func(t *testing.T) {
		req := radiusRequest("First")
		req.BaseCost = 12.3456
		zone, err := h.flow.UpdateZone(ctx, first, req)
		require.NoError(t, err)
		assert.Equal(t, 12.35, zone.BaseCost)
		assert.True(t, zone.IsActive)
	})

	t.Run("unknown zone", func(t *testing.T) {
		_, err := h.flow.UpdateZone(ctx, 999, radiusRequest("Other"))
		assert.True(t, IsZoneNotFound(err))
	})

	t.Run("deactivate hides the zone from listing filters", func(t *testing.T) {
		_, err := h.flow.DeactivateZone(ctx, second)
		require.NoError(t, err)

		zone, err := h.flow.GetZone(ctx, second)
		require.NoError(t, err)
		assert.False(t, zone.IsActive)

		list, err := h.flow.ListZones(ctx, &dto.AdminListZonesRequest{IsActive: utils.ToPtr(true)})
		require.NoError(t, err)
		assert.Equal(t, int64(1), list.Total)
		assert.Equal(t, first, list.Items[0].ID)
		assert.Equal(t, 20, list.PageSize)
	})

	t.Run("page size is bounded", func(t *testing.T) {
		_, err := h.flow.ListZones(ctx, &dto.AdminListZonesRequest{PageSize: 500})
		assert.ErrorIs(t, err, ErrInvalidPageSize)
	})

	t.Run("audit log lists newest first", func(t *testing.T) {
		logs, err := h.flow.ListAuditLogs(ctx, second, 1, 10)
		require.NoError(t, err)
		require.NotEmpty(t, logs)
		assert.Equal(t, models.AuditActionZoneDeactivated, logs[0].Action)
	})
}

func TestZoneAdminTiers(t *testing.T) {
	ctx := context.Background()
	h := newAdminHarness()
	zoneID := h.createZone(t, "Z")

	first, err := h.flow.AddTier(ctx, zoneID, &dto.AdminCostTierRequest{DistanceFromKm: 0, DistanceToKm: 5, AdditionalCost: 0})
	require.NoError(t, err)

	t.Run("overlapping range is rejected", func(t *testing.T) {
		_, err := h.flow.AddTier(ctx, zoneID, &dto.AdminCostTierRequest{DistanceFromKm: 4, DistanceToKm: 8, AdditionalCost: 3})
		assert.True(t, IsOverlappingTier(err))
		assert.Equal(t, "OVERLAPPING_TIER", businessCode(err))
	})

	t.Run("adjacent range is accepted", func(t *testing.T) {
		_, err := h.flow.AddTier(ctx, zoneID, &dto.AdminCostTierRequest{DistanceFromKm: 5, DistanceToKm: 8, AdditionalCost: 3})
		require.NoError(t, err)
	})

	t.Run("inverted range is invalid", func(t *testing.T) {
		_, err := h.flow.AddTier(ctx, zoneID, &dto.AdminCostTierRequest{DistanceFromKm: 9, DistanceToKm: 9})
		assert.ErrorIs(t, err, ErrInvalidTierRange)
	})

	t.Run("update can move its own range", func(t *testing.T) {
		tier, err := h.flow.UpdateTier(ctx, first.ID, &dto.AdminCostTierRequest{DistanceFromKm: 0, DistanceToKm: 4.5, AdditionalCost: 1})
		require.NoError(t, err)
		assert.Equal(t, 4.5, tier.DistanceToKm)
	})

	t.Run("update onto a neighbour overlaps", func(t *testing.T) {
		_, err := h.flow.UpdateTier(ctx, first.ID, &dto.AdminCostTierRequest{DistanceFromKm: 0, DistanceToKm: 6})
		assert.True(t, IsOverlappingTier(err))
	})

	t.Run("removed tier frees its range", func(t *testing.T) {
		_, err := h.flow.RemoveTier(ctx, first.ID)
		require.NoError(t, err)

		_, err = h.flow.AddTier(ctx, zoneID, &dto.AdminCostTierRequest{DistanceFromKm: 0, DistanceToKm: 5, AdditionalCost: 2})
		require.NoError(t, err)

		tiers, err := h.flow.ListTiers(ctx, zoneID)
		require.NoError(t, err)
		assert.Len(t, tiers, 3)
	})

	t.Run("tier on unknown zone", func(t *testing.T) {
		_, err := h.flow.AddTier(ctx, 999, &dto.AdminCostTierRequest{DistanceFromKm: 0, DistanceToKm: 1})
		assert.True(t, IsZoneNotFound(err))
	})
}

func TestZoneAdminDistricts(t *testing.T) {
	ctx := context.Background()
	h := newAdminHarness()
	zoneID := h.createZone(t, "Z")

	assignment, err := h.flow.AssignDistrict(ctx, zoneID, &dto.AdminDistrictAssignmentRequest{DistrictID: 15, Priority: 1})
	require.NoError(t, err)

	t.Run("assigning twice conflicts", func(t *testing.T) {
		_, err := h.flow.AssignDistrict(ctx, zoneID, &dto.AdminDistrictAssignmentRequest{DistrictID: 15, Priority: 2})
		assert.True(t, IsDuplicateDistrictAssignment(err))
	})

	t.Run("priority must be 1 to 3", func(t *testing.T) {
		_, err := h.flow.AssignDistrict(ctx, zoneID, &dto.AdminDistrictAssignmentRequest{DistrictID: 16, Priority: 4})
		assert.ErrorIs(t, err, ErrInvalidPriority)
	})

	t.Run("district id is required", func(t *testing.T) {
		_, err := h.flow.AssignDistrict(ctx, zoneID, &dto.AdminDistrictAssignmentRequest{Priority: 1})
		assert.ErrorIs(t, err, ErrInvalidDistrict)
	})

	t.Run("update changes override", func(t *testing.T) {
		updated, err := h.flow.UpdateDistrictAssignment(ctx, assignment.ID, &dto.AdminUpdateDistrictAssignmentRequest{Priority: 2, CostOverride: utils.ToPtr(4.0)})
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Priority)
		assert.Equal(t, 4.0, *updated.CostOverride)
	})

	t.Run("remove deactivates", func(t *testing.T) {
		_, err := h.flow.RemoveDistrictAssignment(ctx, assignment.ID)
		require.NoError(t, err)

		rows, err := h.flow.ListDistrictAssignments(ctx, zoneID)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.False(t, rows[0].IsActive)

		active, err := h.districts.ActiveByDistrict(ctx, 15)
		require.NoError(t, err)
		assert.Empty(t, active)
	})

	t.Run("unknown assignment", func(t *testing.T) {
		_, err := h.flow.RemoveDistrictAssignment(ctx, 999)
		assert.True(t, IsNotFound(err))
	})
}

func TestZoneAdminSchedules(t *testing.T) {
	ctx := context.Background()
	h := newAdminHarness()
	zoneID := h.createZone(t, "Z")

	monday, err := h.flow.AddSchedule(ctx, zoneID, &dto.AdminWeeklyScheduleRequest{Weekday: 1, StartTime: utils.ToPtr("09:00"), EndTime: utils.ToPtr("18:00")})
	require.NoError(t, err)
	_, err = h.flow.AddSchedule(ctx, zoneID, &dto.AdminWeeklyScheduleRequest{Weekday: 2, FullDay: true})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  *dto.AdminWeeklyScheduleRequest
		want error
	}{
		{name: "duplicate weekday", req: &dto.AdminWeeklyScheduleRequest{Weekday: 1, FullDay: true}, want: ErrDuplicateScheduleEntry},
		{name: "weekday out of range", req: &dto.AdminWeeklyScheduleRequest{Weekday: 7, FullDay: true}, want: ErrInvalidWeekday},
		{name: "end before start", req: &dto.AdminWeeklyScheduleRequest{Weekday: 3, StartTime: utils.ToPtr("18:00"), EndTime: utils.ToPtr("09:00")}, want: ErrInvalidTimeWindow},
		{name: "missing window", req: &dto.AdminWeeklyScheduleRequest{Weekday: 3}, want: ErrInvalidTimeWindow},
		{name: "malformed clock", req: &dto.AdminWeeklyScheduleRequest{Weekday: 3, StartTime: utils.ToPtr("9am"), EndTime: utils.ToPtr("18:00")}, want: ErrInvalidTimeWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.flow.AddSchedule(ctx, zoneID, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("moving onto a taken weekday conflicts", func(t *testing.T) {
		_, err := h.flow.UpdateSchedule(ctx, monday.ID, &dto.AdminWeeklyScheduleRequest{Weekday: 2, FullDay: true})
		assert.ErrorIs(t, err, ErrDuplicateScheduleEntry)
	})

	t.Run("remove deletes the row", func(t *testing.T) {
		_, err := h.flow.RemoveSchedule(ctx, monday.ID)
		require.NoError(t, err)

		rows, err := h.flow.ListSchedules(ctx, zoneID)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 2, rows[0].Weekday)

		_, err = h.flow.AddSchedule(ctx, zoneID, &dto.AdminWeeklyScheduleRequest{Weekday: 1, FullDay: true})
		assert.NoError(t, err)
	})
}

func TestZoneAdminExceptions(t *testing.T) {
	ctx := context.Background()
	h := newAdminHarness()
	zoneID := h.createZone(t, "Z")

	holiday, err := h.flow.AddException(ctx, zoneID, &dto.AdminDateExceptionRequest{Date: "2026-12-25", Type: models.DateExceptionUnavailable, Reason: utils.ToPtr("Christmas")})
	require.NoError(t, err)
	assert.Equal(t, "2026-12-25", holiday.Date)

	tests := []struct {
		name string
		req  *dto.AdminDateExceptionRequest
		want error
	}{
		{name: "same date and type", req: &dto.AdminDateExceptionRequest{Date: "2026-12-25", Type: models.DateExceptionUnavailable}, want: ErrDuplicateExceptionEntry},
		{name: "malformed date", req: &dto.AdminDateExceptionRequest{Date: "25/12/2026", Type: models.DateExceptionUnavailable}, want: ErrInvalidDate},
		{name: "unknown type", req: &dto.AdminDateExceptionRequest{Date: "2026-12-26", Type: "closed"}, want: ErrInvalidExceptionType},
		{name: "unavailable with amount", req: &dto.AdminDateExceptionRequest{Date: "2026-12-26", Type: models.DateExceptionUnavailable, Amount: utils.ToPtr(1.0)}, want: ErrInvalidExceptionPayload},
		{name: "special cost without amount", req: &dto.AdminDateExceptionRequest{Date: "2026-12-26", Type: models.DateExceptionSpecialCost}, want: ErrInvalidExceptionPayload},
		{name: "special hours inverted", req: &dto.AdminDateExceptionRequest{Date: "2026-12-26", Type: models.DateExceptionSpecialHours, StartTime: utils.ToPtr("15:00"), EndTime: utils.ToPtr("10:00")}, want: ErrInvalidTimeWindow},
		{name: "time window min above max", req: &dto.AdminDateExceptionRequest{Date: "2026-12-26", Type: models.DateExceptionSpecialTimeWindow, MinMinutes: utils.ToPtr(90), MaxMinutes: utils.ToPtr(30)}, want: ErrInvalidExceptionPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.flow.AddException(ctx, zoneID, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("different type on the same date is allowed", func(t *testing.T) {
		_, err := h.flow.AddException(ctx, zoneID, &dto.AdminDateExceptionRequest{Date: "2026-12-25", Type: models.DateExceptionSpecialCost, Amount: utils.ToPtr(0.0)})
		require.NoError(t, err)
	})

	t.Run("list filters by date range", func(t *testing.T) {
		_, err := h.flow.AddException(ctx, zoneID, &dto.AdminDateExceptionRequest{Date: "2027-01-01", Type: models.DateExceptionUnavailable})
		require.NoError(t, err)

		rows, err := h.flow.ListExceptions(ctx, zoneID, &dto.AdminListDateExceptionsRequest{DateFrom: "2026-12-01", DateTo: "2026-12-31"})
		require.NoError(t, err)
		assert.Len(t, rows, 2)

		_, err = h.flow.ListExceptions(ctx, zoneID, &dto.AdminListDateExceptionsRequest{DateFrom: "december"})
		assert.ErrorIs(t, err, ErrInvalidDate)
	})

	t.Run("remove deletes the row", func(t *testing.T) {
		_, err := h.flow.RemoveException(ctx, holiday.ID)
		require.NoError(t, err)

		_, err = h.flow.RemoveException(ctx, holiday.ID)
		assert.True(t, IsNotFound(err))
	})
}

func TestZoneAdminLockFailure(t *testing.T) {
	ctx := context.Background()
	h := newAdminHarness()
	zoneID := h.createZone(t, "Z")
	h.locker.err = errors.New("lock timeout")
	notified := len(h.notifier.changed)

	_, err := h.flow.AddTier(ctx, zoneID, &dto.AdminCostTierRequest{DistanceFromKm: 0, DistanceToKm: 1})
	assert.Equal(t, "ZONE_LOCK_FAILED", businessCode(err))
	assert.Len(t, h.notifier.changed, notified)

	tiers, _ := h.tiers.ActiveByZone(ctx, zoneID)
	assert.Empty(t, tiers)
}
