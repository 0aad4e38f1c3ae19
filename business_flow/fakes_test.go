package businessflow

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/utils"
)

// memRepo is an in-memory stand-in for the gorm BaseRepository used by flow tests
type memRepo[T any, F any] struct {
	mu      sync.Mutex
	rows    map[uint]*T
	nextID  uint
	idOf    func(*T) *uint
	match   func(F, *T) bool
	saveErr error
}

func newMemRepo[T any, F any](idOf func(*T) *uint, match func(F, *T) bool) *memRepo[T, F] {
	return &memRepo[T, F]{rows: map[uint]*T{}, idOf: idOf, match: match}
}

func (r *memRepo[T, F]) ByID(ctx context.Context, id uint) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	c := *row
	return &c, nil
}

func (r *memRepo[T, F]) all(pred func(*T) bool) []*T {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uint, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := []*T{}
	for _, id := range ids {
		row := r.rows[id]
		if pred == nil || pred(row) {
			c := *row
			out = append(out, &c)
		}
	}
	return out
}

func (r *memRepo[T, F]) ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error) {
	out := r.all(func(row *T) bool { return r.match(filter, row) })
	if offset > 0 {
		if offset >= len(out) {
			return []*T{}, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo[T, F]) Save(ctx context.Context, entity *T) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.idOf(entity)
	if *id == 0 {
		r.nextID++
		*id = r.nextID
	} else if *id > r.nextID {
		r.nextID = *id
	}
	c := *entity
	r.rows[*id] = &c
	return nil
}

func (r *memRepo[T, F]) SaveBatch(ctx context.Context, entities []*T) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *memRepo[T, F]) Update(ctx context.Context, entity *T) error {
	return r.Save(ctx, entity)
}

func (r *memRepo[T, F]) DeleteByID(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *memRepo[T, F]) Count(ctx context.Context, filter F) (int64, error) {
	rows, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *memRepo[T, F]) Exists(ctx context.Context, filter F) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func ptrMatches[V comparable](want *V, got V) bool {
	return want == nil || *want == got
}

// Zones

type fakeZoneRepo struct {
	*memRepo[models.Zone, models.ZoneFilter]
	tiers     *fakeTierRepo
	schedules *fakeScheduleRepo
}

func newFakeZoneRepo(tiers *fakeTierRepo, schedules *fakeScheduleRepo) *fakeZoneRepo {
	return &fakeZoneRepo{
		memRepo: newMemRepo(func(z *models.Zone) *uint { return &z.ID }, func(f models.ZoneFilter, z *models.Zone) bool {
			return ptrMatches(f.ID, z.ID) && ptrMatches(f.Name, z.Name) &&
				(f.IsActive == nil || *f.IsActive == utils.IsTrue(z.IsActive))
		}),
		tiers:     tiers,
		schedules: schedules,
	}
}

func (r *fakeZoneRepo) Save(ctx context.Context, zone *models.Zone) error {
	tiers, schedules := zone.Tiers, zone.Schedules
	zone.Tiers, zone.Schedules = nil, nil
	err := r.memRepo.Save(ctx, zone)
	for i := range tiers {
		tiers[i].ZoneID = zone.ID
		_ = r.tiers.Save(ctx, &tiers[i])
	}
	for i := range schedules {
		schedules[i].ZoneID = zone.ID
		_ = r.schedules.Save(ctx, &schedules[i])
	}
	zone.Tiers, zone.Schedules = tiers, schedules
	return err
}

func (r *fakeZoneRepo) ByName(ctx context.Context, name string) (*models.Zone, error) {
	rows := r.all(func(z *models.Zone) bool { return z.Name == name })
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *fakeZoneRepo) load(ctx context.Context, z *models.Zone) *models.Zone {
	tiers, _ := r.tiers.ActiveByZone(ctx, z.ID)
	for _, t := range tiers {
		z.Tiers = append(z.Tiers, *t)
	}
	for _, s := range r.schedules.all(func(s *models.WeeklySchedule) bool {
		return s.ZoneID == z.ID && utils.IsTrue(s.IsActive)
	}) {
		z.Schedules = append(z.Schedules, *s)
	}
	return z
}

func (r *fakeZoneRepo) LoadedByID(ctx context.Context, id uint) (*models.Zone, error) {
	z, _ := r.ByID(ctx, id)
	if z == nil {
		return nil, nil
	}
	return r.load(ctx, z), nil
}

func (r *fakeZoneRepo) LoadedByIDs(ctx context.Context, ids []uint) ([]*models.Zone, error) {
	var out []*models.Zone
	for _, id := range ids {
		if z, _ := r.LoadedByID(ctx, id); z != nil {
			out = append(out, z)
		}
	}
	return out, nil
}

func (r *fakeZoneRepo) ListActiveLoaded(ctx context.Context) ([]*models.Zone, error) {
	var out []*models.Zone
	for _, z := range r.all(func(z *models.Zone) bool { return utils.IsTrue(z.IsActive) }) {
		out = append(out, r.load(ctx, z))
	}
	return out, nil
}

func (r *fakeZoneRepo) Update(ctx context.Context, zone *models.Zone) error {
	c := *zone
	c.Tiers, c.Schedules = nil, nil
	return r.memRepo.Save(ctx, &c)
}

func (r *fakeZoneRepo) SetActive(ctx context.Context, id uint, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if z, ok := r.rows[id]; ok {
		z.IsActive = utils.ToPtr(active)
	}
	return nil
}

// uncachedZones reads straight from the zone repository
type uncachedZones struct {
	repo        *fakeZoneRepo
	err         error
	invalidated int
}

func (c *uncachedZones) ActiveZones(ctx context.Context) ([]*models.Zone, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.repo.ListActiveLoaded(ctx)
}

func (c *uncachedZones) Invalidate(ctx context.Context) error {
	c.invalidated++
	return nil
}

// District assignments

type fakeDistrictRepo struct {
	*memRepo[models.DistrictAssignment, models.DistrictAssignmentFilter]
	zones *fakeZoneRepo
}

func newFakeDistrictRepo() *fakeDistrictRepo {
	return &fakeDistrictRepo{memRepo: newMemRepo(func(a *models.DistrictAssignment) *uint { return &a.ID },
		func(f models.DistrictAssignmentFilter, a *models.DistrictAssignment) bool {
			return ptrMatches(f.ZoneID, a.ZoneID) && ptrMatches(f.DistrictID, a.DistrictID) &&
				(f.IsActive == nil || *f.IsActive == utils.IsTrue(a.IsActive))
		})}
}

func (r *fakeDistrictRepo) ActiveByDistrict(ctx context.Context, districtID uint) ([]*models.DistrictAssignment, error) {
	rows := r.all(func(a *models.DistrictAssignment) bool {
		if a.DistrictID != districtID || !utils.IsTrue(a.IsActive) {
			return false
		}
		if r.zones != nil {
			z, _ := r.zones.ByID(ctx, a.ZoneID)
			return z != nil && utils.IsTrue(z.IsActive)
		}
		return true
	})
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Priority != rows[j].Priority {
			return rows[i].Priority < rows[j].Priority
		}
		return rows[i].ZoneID < rows[j].ZoneID
	})
	return rows, nil
}

func (r *fakeDistrictRepo) ByZoneAndDistrict(ctx context.Context, zoneID, districtID uint) (*models.DistrictAssignment, error) {
	rows := r.all(func(a *models.DistrictAssignment) bool { return a.ZoneID == zoneID && a.DistrictID == districtID })
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Tiers

type fakeTierRepo struct {
	*memRepo[models.CostTier, models.CostTierFilter]
}

func newFakeTierRepo() *fakeTierRepo {
	return &fakeTierRepo{memRepo: newMemRepo(func(t *models.CostTier) *uint { return &t.ID },
		func(f models.CostTierFilter, t *models.CostTier) bool {
			return ptrMatches(f.ID, t.ID) && ptrMatches(f.ZoneID, t.ZoneID) &&
				(f.IsActive == nil || *f.IsActive == utils.IsTrue(t.IsActive))
		})}
}

func (r *fakeTierRepo) ActiveByZone(ctx context.Context, zoneID uint) ([]*models.CostTier, error) {
	rows := r.all(func(t *models.CostTier) bool { return t.ZoneID == zoneID && utils.IsTrue(t.IsActive) })
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].DistanceFromKm < rows[j].DistanceFromKm })
	return rows, nil
}

// Schedules

type fakeScheduleRepo struct {
	*memRepo[models.WeeklySchedule, models.WeeklyScheduleFilter]
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{memRepo: newMemRepo(func(s *models.WeeklySchedule) *uint { return &s.ID },
		func(f models.WeeklyScheduleFilter, s *models.WeeklySchedule) bool {
			return ptrMatches(f.ZoneID, s.ZoneID) && ptrMatches(f.Weekday, s.Weekday)
		})}
}

func (r *fakeScheduleRepo) ByZoneAndWeekday(ctx context.Context, zoneID uint, weekday int) (*models.WeeklySchedule, error) {
	rows := r.all(func(s *models.WeeklySchedule) bool { return s.ZoneID == zoneID && s.Weekday == weekday })
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Date exceptions

type fakeExceptionRepo struct {
	*memRepo[models.DateException, models.DateExceptionFilter]
	err error
}

func newFakeExceptionRepo() *fakeExceptionRepo {
	return &fakeExceptionRepo{memRepo: newMemRepo(func(e *models.DateException) *uint { return &e.ID },
		func(f models.DateExceptionFilter, e *models.DateException) bool {
			key := e.DateKey()
			return ptrMatches(f.ZoneID, e.ZoneID) && ptrMatches(f.Type, e.Type) &&
				(f.DateFrom == nil || key >= *f.DateFrom) && (f.DateTo == nil || key <= *f.DateTo)
		})}
}

func (r *fakeExceptionRepo) ActiveByZoneAndDate(ctx context.Context, zoneID uint, date string) ([]*models.DateException, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.all(func(e *models.DateException) bool {
		return e.ZoneID == zoneID && e.DateKey() == date && utils.IsTrue(e.IsActive)
	}), nil
}

func (r *fakeExceptionRepo) ByZoneDateType(ctx context.Context, zoneID uint, date, exceptionType string) (*models.DateException, error) {
	rows := r.all(func(e *models.DateException) bool {
		return e.ZoneID == zoneID && e.DateKey() == date && e.Type == exceptionType
	})
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Validated addresses

type fakeAddressRepo struct {
	*memRepo[models.ValidatedAddress, models.ValidatedAddressFilter]
	failUpsert map[uint]bool
}

func newFakeAddressRepo() *fakeAddressRepo {
	return &fakeAddressRepo{
		memRepo: newMemRepo(func(a *models.ValidatedAddress) *uint { return &a.ID },
			func(f models.ValidatedAddressFilter, a *models.ValidatedAddress) bool {
				if len(f.AddressIDs) > 0 {
					found := false
					for _, id := range f.AddressIDs {
						found = found || id == a.AddressID
					}
					if !found {
						return false
					}
				}
				return (f.ZoneID == nil || (a.ZoneID != nil && *a.ZoneID == *f.ZoneID)) &&
					ptrMatches(f.InCoverage, a.InCoverage) &&
					(f.ValidatedBefore == nil || a.LastValidatedAt.Before(*f.ValidatedBefore))
			}),
		failUpsert: map[uint]bool{},
	}
}

func (r *fakeAddressRepo) ByAddressID(ctx context.Context, addressID uint) (*models.ValidatedAddress, error) {
	rows := r.all(func(a *models.ValidatedAddress) bool { return a.AddressID == addressID })
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *fakeAddressRepo) Upsert(ctx context.Context, address *models.ValidatedAddress) error {
	if r.failUpsert[address.AddressID] {
		return errors.New("connection reset")
	}
	if existing, _ := r.ByAddressID(ctx, address.AddressID); existing != nil {
		address.ID = existing.ID
	}
	return r.Save(ctx, address)
}

func (r *fakeAddressRepo) ListForRevalidation(ctx context.Context, filter models.ValidatedAddressFilter, limit int) ([]*models.ValidatedAddress, error) {
	rows, _ := r.ByFilter(ctx, filter, "", 0, 0)
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].LastValidatedAt.Equal(rows[j].LastValidatedAt) {
			return rows[i].LastValidatedAt.Before(rows[j].LastValidatedAt)
		}
		return rows[i].AddressID < rows[j].AddressID
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// Audit log

type fakeAuditRepo struct {
	*memRepo[models.ZoneAuditLog, models.ZoneAuditLogFilter]
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{memRepo: newMemRepo(func(a *models.ZoneAuditLog) *uint { return &a.ID },
		func(f models.ZoneAuditLogFilter, a *models.ZoneAuditLog) bool {
			return ptrMatches(f.Action, a.Action) &&
				(f.ZoneID == nil || (a.ZoneID != nil && *a.ZoneID == *f.ZoneID))
		})}
}

func (r *fakeAuditRepo) ListByZone(ctx context.Context, zoneID uint, limit, offset int) ([]*models.ZoneAuditLog, error) {
	rows, _ := r.ByFilter(ctx, models.ZoneAuditLogFilter{ZoneID: &zoneID}, "", 0, 0)
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r *fakeAuditRepo) actions() []string {
	var out []string
	for _, row := range r.all(nil) {
		out = append(out, row.Action)
	}
	return out
}

// Admins

type fakeAdminRepo struct {
	*memRepo[models.Admin, models.AdminFilter]
	lastLogin map[uint]time.Time
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{
		memRepo: newMemRepo(func(a *models.Admin) *uint { return &a.ID }, func(f models.AdminFilter, a *models.Admin) bool {
			return ptrMatches(f.Username, a.Username)
		}),
		lastLogin: map[uint]time.Time{},
	}
}

func (r *fakeAdminRepo) ByUsername(ctx context.Context, username string) (*models.Admin, error) {
	rows := r.all(func(a *models.Admin) bool { return a.Username == username })
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *fakeAdminRepo) UpdateLastLogin(ctx context.Context, adminID uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastLogin[adminID] = at
	return nil
}

// Transactions and locks

type directTx struct{ runs int }

func (d *directTx) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	d.runs++
	return fn(ctx)
}

type recordingLocker struct {
	mu     sync.Mutex
	locked []uint
	err    error
}

func (l *recordingLocker) LockZone(ctx context.Context, zoneID uint) error {
	if l.err != nil {
		return l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked = append(l.locked, zoneID)
	return nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	changed []uint
}

func (n *recordingNotifier) NotifyZoneChanged(zoneID uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, zoneID)
}
