package dto

type ValidateAddressRequest struct {
	AddressID  uint     `json:"address_id" validate:"required,gt=0" example:"1001"`
	Lat        *float64 `json:"lat" validate:"required,gte=-90,lte=90" example:"-12.1"`
	Lng        *float64 `json:"lng" validate:"required,gte=-180,lte=180" example:"-77.03"`
	DistrictID *uint    `json:"district_id,omitempty" validate:"omitempty,gt=0"`
}

type ValidatedAddressDTO struct {
	AddressID       uint     `json:"address_id"`
	Lat             float64  `json:"lat"`
	Lng             float64  `json:"lng"`
	DistrictID      *uint    `json:"district_id,omitempty"`
	ZoneID          *uint    `json:"zone_id,omitempty"`
	InCoverage      bool     `json:"in_coverage"`
	DistanceKm      *float64 `json:"distance_km,omitempty"`
	Cost            *float64 `json:"cost,omitempty"`
	ETAMinutes      *int     `json:"eta_minutes,omitempty"`
	LastValidatedAt string   `json:"last_validated_at"`
	ValidationNote  string   `json:"validation_note,omitempty"`
}

// RevalidateAddressesRequest selects previously validated addresses.
// An empty request revalidates up to Limit of the stalest rows.
type RevalidateAddressesRequest struct {
	AddressIDs      []uint `json:"address_ids,omitempty" validate:"omitempty,dive,gt=0"`
	ZoneID          *uint  `json:"zone_id,omitempty" validate:"omitempty,gt=0"`
	InCoverage      *bool  `json:"in_coverage,omitempty"`
	ValidatedBefore string `json:"validated_before,omitempty" example:"2026-03-01T00:00:00Z"`
	Limit           int    `json:"limit,omitempty" validate:"omitempty,gt=0"`
}

type RevalidationFailureDTO struct {
	AddressID uint   `json:"address_id"`
	Error     string `json:"error"`
}

type RevalidateAddressesResponse struct {
	Succeeded  []uint                   `json:"succeeded"`
	Failed     []RevalidationFailureDTO `json:"failed"`
	Changed    []uint                   `json:"changed"`
	StartedAt  string                   `json:"started_at"`
	FinishedAt string                   `json:"finished_at"`
}
