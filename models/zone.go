// Package models contains domain entities for delivery-zone coverage and shipping quotes
package models

import (
	"time"

	"gorm.io/datatypes"
)

// GeoPoint is a polygon vertex stored inside the zone's jsonb polygon column
type GeoPoint struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Zone is a delivery service area.
// Geometry is either center+radius or a polygon; a zone with neither only
// matches points when CoversEverywhere is set.
// Table: zones
type Zone struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:255;not null;uniqueIndex:uk_zones_name" json:"name"`
	IsActive *bool  `gorm:"default:true;index:idx_zones_is_active" json:"is_active"`

	CenterLat        *float64                      `gorm:"type:numeric(9,6)" json:"center_lat,omitempty"`
	CenterLng        *float64                      `gorm:"type:numeric(9,6)" json:"center_lng,omitempty"`
	RadiusKm         *float64                      `gorm:"type:numeric(8,3)" json:"radius_km,omitempty"`
	Polygon          datatypes.JSONSlice[GeoPoint] `gorm:"type:jsonb" json:"polygon,omitempty"`
	CoversEverywhere *bool                         `gorm:"default:false" json:"covers_everywhere"`

	BaseCost              float64  `gorm:"type:numeric(12,2);not null;default:0" json:"base_cost"`
	MinOrderAmount        *float64 `gorm:"type:numeric(12,2)" json:"min_order_amount,omitempty"`
	FreeShippingThreshold *float64 `gorm:"type:numeric(12,2)" json:"free_shipping_threshold,omitempty"`
	DefaultETAMinutes     int      `gorm:"not null;default:0" json:"default_eta_minutes"`
	AlwaysOpen            *bool    `gorm:"default:false" json:"always_open"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_zones_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	// Loaded explicitly by the repository; never lazily
	Tiers     []CostTier       `gorm:"foreignKey:ZoneID" json:"tiers,omitempty"`
	Schedules []WeeklySchedule `gorm:"foreignKey:ZoneID" json:"schedules,omitempty"`
}

func (Zone) TableName() string {
	return "zones"
}

// HasCenter reports whether the zone has a complete radius geometry
func (z *Zone) HasCenter() bool {
	return z.CenterLat != nil && z.CenterLng != nil && z.RadiusKm != nil
}

// HasPolygon reports whether the zone has a polygon geometry
func (z *Zone) HasPolygon() bool {
	return len(z.Polygon) > 0
}

// HasGeometry reports whether the zone has any geometry at all
func (z *Zone) HasGeometry() bool {
	return z.HasCenter() || z.HasPolygon()
}

// ZoneFilter represents filter criteria for zone queries
type ZoneFilter struct {
	ID            *uint
	IDs           []uint
	Name          *string
	NameContains  *string
	IsActive      *bool
	AlwaysOpen    *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
