package dto

// ShippingQuoteRequest asks for cost, availability and ETA of a delivery to a coordinate.
// RequestedAt is the RFC3339 instant the delivery is wanted at.
type ShippingQuoteRequest struct {
	Lat         *float64 `json:"lat" validate:"required,gte=-90,lte=90" example:"-12.1"`
	Lng         *float64 `json:"lng" validate:"required,gte=-180,lte=180" example:"-77.03"`
	DistrictID  *uint    `json:"district_id,omitempty" validate:"omitempty,gt=0" example:"12"`
	WeightKg    float64  `json:"weight_kg" validate:"gte=0" example:"2.5"`
	OrderAmount float64  `json:"order_amount" validate:"gte=0" example:"120"`
	RequestedAt string   `json:"requested_at" validate:"required" example:"2026-03-16T10:00:00Z"`
}

type CostBreakdownDTO struct {
	Base             float64  `json:"base"`
	TierAddition     float64  `json:"tier_addition"`
	DistrictOverride *float64 `json:"district_override,omitempty"`
	SpecialCost      *float64 `json:"special_cost,omitempty"`
	Final            float64  `json:"final"`
}

type ShippingQuoteResponse struct {
	InCoverage        bool              `json:"in_coverage"`
	ZoneID            *uint             `json:"zone_id,omitempty"`
	ZoneName          string            `json:"zone_name,omitempty"`
	ResolvedBy        string            `json:"resolved_by,omitempty" example:"geometry"`
	DistanceKm        *float64          `json:"distance_km,omitempty"`
	Cost              float64           `json:"cost"`
	Breakdown         *CostBreakdownDTO `json:"breakdown,omitempty"`
	FreeShipping      bool              `json:"free_shipping"`
	Available         bool              `json:"available"`
	UnavailableReason string            `json:"unavailable_reason,omitempty"`
	ETAMinutes        *int              `json:"eta_minutes,omitempty"`
	ETAMinMinutes     *int              `json:"eta_min_minutes,omitempty"`
}
