package businessflow

import (
	"context"
	"sort"

	"github.com/amirphl/delivery-zones/geo"
	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/repository"
	"github.com/amirphl/delivery-zones/utils"
)

// Resolution methods
const (
	ResolvedByDistrict = "district"
	ResolvedByGeometry = "geometry"
)

// Resolution is the outcome of coverage resolution. Covered=false is a normal result.
type Resolution struct {
	Covered    bool
	Zone       *models.Zone
	Assignment *models.DistrictAssignment
	ResolvedBy string
}

// GeoResolver picks the zone serving a point
type GeoResolver interface {
	Resolve(ctx context.Context, point geo.Point, districtID *uint) (*Resolution, error)
}

// GeoResolverImpl resolves explicit district assignments first, then geometry
type GeoResolverImpl struct {
	zones            ZoneCache
	districtRepo     repository.DistrictAssignmentRepository
	implicitCatchAll bool
}

func NewGeoResolver(zones ZoneCache, districtRepo repository.DistrictAssignmentRepository, implicitCatchAll bool) GeoResolver {
	return &GeoResolverImpl{
		zones:            zones,
		districtRepo:     districtRepo,
		implicitCatchAll: implicitCatchAll,
	}
}

func (r *GeoResolverImpl) Resolve(ctx context.Context, point geo.Point, districtID *uint) (*Resolution, error) {
	if err := geo.ValidatePoint(point); err != nil {
		return nil, NewBusinessError("INVALID_COORDINATE", "Coordinate out of range", err)
	}

	active, err := r.zones.ActiveZones(ctx)
	if err != nil {
		return nil, NewBusinessError("ZONE_LOOKUP_FAILED", "Failed to load active zones", err)
	}

	if districtID != nil {
		assignments, err := r.districtRepo.ActiveByDistrict(ctx, *districtID)
		if err != nil {
			return nil, NewBusinessError("DISTRICT_LOOKUP_FAILED", "Failed to load district assignments", err)
		}
		if res := resolveByDistrict(assignments, active); res != nil {
			return res, nil
		}
	}

	for _, zone := range active {
		matched, err := ZoneContains(zone, point, r.implicitCatchAll)
		if err != nil {
			return nil, NewBusinessError("INVALID_COORDINATE", "Coordinate out of range", err)
		}
		if matched {
			return &Resolution{Covered: true, Zone: zone, ResolvedBy: ResolvedByGeometry}, nil
		}
	}

	return &Resolution{Covered: false}, nil
}

// resolveByDistrict picks the lowest priority assignment, breaking ties by lowest zone id.
// Assignments whose zone is not in the active set are skipped.
func resolveByDistrict(assignments []*models.DistrictAssignment, active []*models.Zone) *Resolution {
	if len(assignments) == 0 {
		return nil
	}
	byID := make(map[uint]*models.Zone, len(active))
	for _, z := range active {
		byID[z.ID] = z
	}

	candidates := make([]*models.DistrictAssignment, 0, len(assignments))
	for _, a := range assignments {
		if !utils.IsTrue(a.IsActive) {
			continue
		}
		if _, ok := byID[a.ZoneID]; ok {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority < candidates[j].Priority
		}
		return candidates[i].ZoneID < candidates[j].ZoneID
	})

	winner := candidates[0]
	return &Resolution{
		Covered:    true,
		Zone:       byID[winner.ZoneID],
		Assignment: winner,
		ResolvedBy: ResolvedByDistrict,
	}
}

// ZoneContains tests the zone's geometry against point.
// A zone without geometry matches only when it covers everywhere or catchAll is set.
func ZoneContains(zone *models.Zone, point geo.Point, catchAll bool) (bool, error) {
	switch {
	case zone.HasCenter():
		center := geo.Point{Lat: *zone.CenterLat, Lng: *zone.CenterLng}
		return geo.WithinRadius(center, point, *zone.RadiusKm)
	case zone.HasPolygon():
		return geo.ContainsPoint(PolygonPoints(zone.Polygon), point), nil
	default:
		return utils.IsTrue(zone.CoversEverywhere) || catchAll, nil
	}
}

// PolygonPoints converts stored vertices to geo points
func PolygonPoints(vertices []models.GeoPoint) []geo.Point {
	points := make([]geo.Point, len(vertices))
	for i, v := range vertices {
		points[i] = geo.Point{Lat: v.Lat, Lng: v.Lng}
	}
	return points
}
