package models

import "time"

// ValidatedAddress caches the last coverage/cost resolution of an external address.
// Rows are overwritten on revalidation, never versioned.
// Table: validated_addresses
type ValidatedAddress struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	AddressID       uint      `gorm:"not null;uniqueIndex:uk_validated_addresses_address_id" json:"address_id"`
	Lat             float64   `gorm:"type:numeric(9,6);not null" json:"lat"`
	Lng             float64   `gorm:"type:numeric(9,6);not null" json:"lng"`
	DistrictID      *uint     `gorm:"index:idx_validated_addresses_district_id" json:"district_id,omitempty"`
	ZoneID          *uint     `gorm:"index:idx_validated_addresses_zone_id" json:"zone_id,omitempty"`
	InCoverage      bool      `gorm:"not null;default:false;index:idx_validated_addresses_in_coverage" json:"in_coverage"`
	DistanceKm      *float64  `gorm:"type:numeric(8,3)" json:"distance_km,omitempty"`
	Cost            *float64  `gorm:"type:numeric(12,2)" json:"cost,omitempty"`
	ETAMinutes      *int      `json:"eta_minutes,omitempty"`
	LastValidatedAt time.Time `gorm:"not null;index:idx_validated_addresses_last_validated_at" json:"last_validated_at"`
	ValidationNote  *string   `gorm:"type:text" json:"validation_note,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (ValidatedAddress) TableName() string {
	return "validated_addresses"
}

// SameResolution reports whether two rows resolved to the same zone, cost and ETA
func (v *ValidatedAddress) SameResolution(other *ValidatedAddress) bool {
	return v.InCoverage == other.InCoverage &&
		equalPtr(v.ZoneID, other.ZoneID) &&
		equalPtr(v.DistanceKm, other.DistanceKm) &&
		equalPtr(v.Cost, other.Cost) &&
		equalPtr(v.ETAMinutes, other.ETAMinutes)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ValidatedAddressFilter selects addresses for listing and batch revalidation
type ValidatedAddressFilter struct {
	AddressIDs      []uint
	ZoneID          *uint
	InCoverage      *bool
	ValidatedBefore *time.Time
	ValidatedAfter  *time.Time
}
