package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/amirphl/delivery-zones/utils"
)

// ErrInvalidPolygon is returned for polygons with fewer than three vertices or invalid vertices
var ErrInvalidPolygon = errors.New("invalid polygon")

// boundaryEpsilon is the tolerance, in degrees, for treating a point as lying on an edge
const boundaryEpsilon = 1e-9

// ValidatePolygon checks vertex count and every vertex coordinate
func ValidatePolygon(vertices []Point) error {
	if len(vertices) < utils.MinPolygonPoints {
		return fmt.Errorf("%w: need at least %d points, got %d", ErrInvalidPolygon, utils.MinPolygonPoints, len(vertices))
	}
	for i, v := range vertices {
		if err := ValidatePoint(v); err != nil {
			return fmt.Errorf("%w: vertex %d: %v", ErrInvalidPolygon, i, err)
		}
	}
	return nil
}

// ContainsPoint reports whether p lies inside the polygon using ray casting on a
// planar lat/lng projection. Points on an edge or vertex count as inside.
// The polygon may be open or closed (first vertex repeated at the end).
func ContainsPoint(vertices []Point, p Point) bool {
	n := len(vertices)
	if n < utils.MinPolygonPoints {
		return false
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := vertices[i], vertices[j]

		if onSegment(a, b, p) {
			return true
		}

		// Edge straddles the horizontal ray through p
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			crossLng := a.Lng + (p.Lat-a.Lat)*(b.Lng-a.Lng)/(b.Lat-a.Lat)
			if p.Lng < crossLng {
				inside = !inside
			}
		}
	}
	return inside
}

func onSegment(a, b, p Point) bool {
	cross := (p.Lat-a.Lat)*(b.Lng-a.Lng) - (p.Lng-a.Lng)*(b.Lat-a.Lat)
	if math.Abs(cross) > boundaryEpsilon {
		return false
	}
	return p.Lat >= math.Min(a.Lat, b.Lat)-boundaryEpsilon &&
		p.Lat <= math.Max(a.Lat, b.Lat)+boundaryEpsilon &&
		p.Lng >= math.Min(a.Lng, b.Lng)-boundaryEpsilon &&
		p.Lng <= math.Max(a.Lng, b.Lng)+boundaryEpsilon
}
