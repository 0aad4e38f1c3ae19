package models

import "time"

// CostTier is a distance-range surcharge rule. The range is [DistanceFromKm, DistanceToKm).
// Active tiers of the same zone never overlap.
// Table: cost_tiers
type CostTier struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	ZoneID           uint    `gorm:"not null;index:idx_cost_tiers_zone_id" json:"zone_id"`
	DistanceFromKm   float64 `gorm:"type:numeric(8,3);not null" json:"distance_from_km"`
	DistanceToKm     float64 `gorm:"type:numeric(8,3);not null" json:"distance_to_km"`
	AdditionalCost   float64 `gorm:"type:numeric(12,2);not null;default:0" json:"additional_cost"`
	ExtraTimeMinutes *int    `json:"extra_time_minutes,omitempty"`
	IsActive         *bool   `gorm:"default:true;index:idx_cost_tiers_is_active" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (CostTier) TableName() string {
	return "cost_tiers"
}

// Contains reports whether distanceKm falls into [from, to)
func (t *CostTier) Contains(distanceKm float64) bool {
	return t.DistanceFromKm <= distanceKm && distanceKm < t.DistanceToKm
}

// Overlaps reports whether the two half-open ranges intersect
func (t *CostTier) Overlaps(other *CostTier) bool {
	return t.DistanceFromKm < other.DistanceToKm && other.DistanceFromKm < t.DistanceToKm
}

// CostTierFilter represents filter criteria for cost tier queries
type CostTierFilter struct {
	ID       *uint
	ZoneID   *uint
	IsActive *bool
}
