// Package geo implements the great-circle distance and point-in-polygon tests used for zone coverage.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/amirphl/delivery-zones/utils"
)

// ErrInvalidCoordinate is returned for latitudes outside [-90,90] or longitudes outside [-180,180]
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Point is a WGS84 coordinate in degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ValidatePoint rejects out-of-range and NaN coordinates
func ValidatePoint(p Point) error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.Abs(p.Lat) > 90 || math.Abs(p.Lng) > 180 {
		return fmt.Errorf("%w: lat=%v lng=%v", ErrInvalidCoordinate, p.Lat, p.Lng)
	}
	return nil
}

// Distance returns the haversine distance between a and b in kilometers
func Distance(a, b Point) (float64, error) {
	if err := ValidatePoint(a); err != nil {
		return 0, err
	}
	if err := ValidatePoint(b); err != nil {
		return 0, err
	}

	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Clamp to guard against floating point drift above 1 for antipodal points
	h = math.Min(1, math.Max(0, h))

	return 2 * utils.EarthRadiusKm * math.Asin(math.Sqrt(h)), nil
}

// WithinRadius reports whether p is within radiusKm of center (inclusive)
func WithinRadius(center, p Point, radiusKm float64) (bool, error) {
	d, err := Distance(center, p)
	if err != nil {
		return false, err
	}
	return d <= radiusKm, nil
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
