package dto

type GeoPointDTO struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// AdminZoneRequest creates or fully replaces a zone's attributes.
// Geometry is either center+radius or polygon; neither requires covers_everywhere.
type AdminZoneRequest struct {
	Name                  string        `json:"name" validate:"required,min=1,max=255"`
	CenterLat             *float64      `json:"center_lat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	CenterLng             *float64      `json:"center_lng,omitempty" validate:"omitempty,gte=-180,lte=180"`
	RadiusKm              *float64      `json:"radius_km,omitempty" validate:"omitempty,gt=0"`
	Polygon               []GeoPointDTO `json:"polygon,omitempty" validate:"omitempty,min=3,dive"`
	CoversEverywhere      bool          `json:"covers_everywhere"`
	BaseCost              float64       `json:"base_cost" validate:"gte=0"`
	MinOrderAmount        *float64      `json:"min_order_amount,omitempty" validate:"omitempty,gte=0"`
	FreeShippingThreshold *float64      `json:"free_shipping_threshold,omitempty" validate:"omitempty,gte=0"`
	DefaultETAMinutes     int           `json:"default_eta_minutes" validate:"gte=0"`
	AlwaysOpen            bool          `json:"always_open"`
	IsActive              *bool         `json:"is_active,omitempty"`
}

type AdminListZonesRequest struct {
	NameContains string `query:"name"`
	IsActive     *bool  `query:"is_active"`
	Page         int    `query:"page" validate:"omitempty,gte=1"`
	PageSize     int    `query:"page_size" validate:"omitempty,gte=1,lte=200"`
}

type CostTierDTO struct {
	ID               uint    `json:"id"`
	ZoneID           uint    `json:"zone_id"`
	DistanceFromKm   float64 `json:"distance_from_km"`
	DistanceToKm     float64 `json:"distance_to_km"`
	AdditionalCost   float64 `json:"additional_cost"`
	ExtraTimeMinutes *int    `json:"extra_time_minutes,omitempty"`
	IsActive         bool    `json:"is_active"`
}

type WeeklyScheduleDTO struct {
	ID        uint    `json:"id"`
	ZoneID    uint    `json:"zone_id"`
	Weekday   int     `json:"weekday"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	FullDay   bool    `json:"full_day"`
	IsActive  bool    `json:"is_active"`
}

type ZoneDTO struct {
	ID                    uint                `json:"id"`
	Name                  string              `json:"name"`
	IsActive              bool                `json:"is_active"`
	CenterLat             *float64            `json:"center_lat,omitempty"`
	CenterLng             *float64            `json:"center_lng,omitempty"`
	RadiusKm              *float64            `json:"radius_km,omitempty"`
	Polygon               []GeoPointDTO       `json:"polygon,omitempty"`
	CoversEverywhere      bool                `json:"covers_everywhere"`
	BaseCost              float64             `json:"base_cost"`
	MinOrderAmount        *float64            `json:"min_order_amount,omitempty"`
	FreeShippingThreshold *float64            `json:"free_shipping_threshold,omitempty"`
	DefaultETAMinutes     int                 `json:"default_eta_minutes"`
	AlwaysOpen            bool                `json:"always_open"`
	Tiers                 []CostTierDTO       `json:"tiers,omitempty"`
	Schedules             []WeeklyScheduleDTO `json:"schedules,omitempty"`
	CreatedAt             string              `json:"created_at"`
	UpdatedAt             string              `json:"updated_at"`
}

type AdminListZonesResponse struct {
	Items    []ZoneDTO `json:"items"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

type AdminDistrictAssignmentRequest struct {
	DistrictID       uint     `json:"district_id" validate:"required,gt=0"`
	Priority         int      `json:"priority" validate:"required,oneof=1 2 3"`
	CostOverride     *float64 `json:"cost_override,omitempty" validate:"omitempty,gte=0"`
	ExtraTimeMinutes *int     `json:"extra_time_minutes,omitempty" validate:"omitempty,gte=0"`
}

type AdminUpdateDistrictAssignmentRequest struct {
	Priority         int      `json:"priority" validate:"required,oneof=1 2 3"`
	CostOverride     *float64 `json:"cost_override,omitempty" validate:"omitempty,gte=0"`
	ExtraTimeMinutes *int     `json:"extra_time_minutes,omitempty" validate:"omitempty,gte=0"`
	IsActive         *bool    `json:"is_active,omitempty"`
}

type DistrictAssignmentDTO struct {
	ID               uint     `json:"id"`
	ZoneID           uint     `json:"zone_id"`
	DistrictID       uint     `json:"district_id"`
	Priority         int      `json:"priority"`
	CostOverride     *float64 `json:"cost_override,omitempty"`
	ExtraTimeMinutes *int     `json:"extra_time_minutes,omitempty"`
	IsActive         bool     `json:"is_active"`
}

type AdminCostTierRequest struct {
	DistanceFromKm   float64 `json:"distance_from_km" validate:"gte=0"`
	DistanceToKm     float64 `json:"distance_to_km" validate:"gtfield=DistanceFromKm"`
	AdditionalCost   float64 `json:"additional_cost" validate:"gte=0"`
	ExtraTimeMinutes *int    `json:"extra_time_minutes,omitempty" validate:"omitempty,gte=0"`
	IsActive         *bool   `json:"is_active,omitempty"`
}

type AdminWeeklyScheduleRequest struct {
	Weekday   int     `json:"weekday" validate:"gte=0,lte=6"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	FullDay   bool    `json:"full_day"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

type AdminDateExceptionRequest struct {
	Date       string   `json:"date" validate:"required" example:"2026-03-16"`
	Type       string   `json:"type" validate:"required,oneof=unavailable special_hours special_cost special_time_window"`
	StartTime  *string  `json:"start_time,omitempty"`
	EndTime    *string  `json:"end_time,omitempty"`
	Amount     *float64 `json:"amount,omitempty" validate:"omitempty,gte=0"`
	MinMinutes *int     `json:"min_minutes,omitempty" validate:"omitempty,gte=0"`
	MaxMinutes *int     `json:"max_minutes,omitempty" validate:"omitempty,gte=0"`
	Reason     *string  `json:"reason,omitempty" validate:"omitempty,max=1000"`
}

type DateExceptionDTO struct {
	ID         uint     `json:"id"`
	ZoneID     uint     `json:"zone_id"`
	Date       string   `json:"date"`
	Type       string   `json:"type"`
	StartTime  *string  `json:"start_time,omitempty"`
	EndTime    *string  `json:"end_time,omitempty"`
	Amount     *float64 `json:"amount,omitempty"`
	MinMinutes *int     `json:"min_minutes,omitempty"`
	MaxMinutes *int     `json:"max_minutes,omitempty"`
	Reason     *string  `json:"reason,omitempty"`
	IsActive   bool     `json:"is_active"`
}

type AdminListDateExceptionsRequest struct {
	DateFrom string `query:"from"`
	DateTo   string `query:"to"`
}

type ZoneAuditLogDTO struct {
	ID          uint   `json:"id"`
	AdminID     *uint  `json:"admin_id,omitempty"`
	ZoneID      *uint  `json:"zone_id,omitempty"`
	Action      string `json:"action"`
	Description string `json:"description,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
	Success     bool   `json:"success"`
	CreatedAt   string `json:"created_at"`
}

type AdminMessageResponse struct {
	Message string `json:"message"`
}
