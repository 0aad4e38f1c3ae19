// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"time"

	"github.com/amirphl/delivery-zones/app/dto"
	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/utils"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds client information recorded in the zone audit log
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
	AdminID   *uint  `json:"admin_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetAdminID sets the acting admin
func (cm *ClientMetadata) SetAdminID(adminID uint) {
	cm.AdminID = &adminID
}

// MetadataFromContext builds ClientMetadata from the request-scoped context values
func MetadataFromContext(ctx context.Context) *ClientMetadata {
	md := &ClientMetadata{}
	if v, ok := ctx.Value(utils.IPAddressKey).(string); ok {
		md.IPAddress = v
	}
	if v, ok := ctx.Value(utils.UserAgentKey).(string); ok {
		md.UserAgent = v
	}
	if v, ok := ctx.Value(utils.RequestIDKey).(string); ok {
		md.RequestID = v
	}
	if v, ok := ctx.Value(utils.AdminIDKey).(uint); ok {
		md.AdminID = &v
	}
	return md
}

func ToAdminDTOModel(admin models.Admin) dto.AdminDTO {
	return dto.AdminDTO{
		ID:        admin.ID,
		UUID:      admin.UUID.String(),
		Username:  admin.Username,
		IsActive:  admin.IsActive,
		CreatedAt: admin.CreatedAt.Format(time.RFC3339),
	}
}

func ToAdminSessionDTO(accessToken, refreshToken string, ttl time.Duration, now time.Time) dto.AdminSessionDTO {
	return dto.AdminSessionDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(ttl.Seconds()),
		TokenType:    "Bearer",
		CreatedAt:    now.Format(time.RFC3339),
	}
}

func ToZoneDTO(zone models.Zone) dto.ZoneDTO {
	out := dto.ZoneDTO{
		ID:                    zone.ID,
		Name:                  zone.Name,
		IsActive:              utils.IsTrue(zone.IsActive),
		CenterLat:             zone.CenterLat,
		CenterLng:             zone.CenterLng,
		RadiusKm:              zone.RadiusKm,
		CoversEverywhere:      utils.IsTrue(zone.CoversEverywhere),
		BaseCost:              zone.BaseCost,
		MinOrderAmount:        zone.MinOrderAmount,
		FreeShippingThreshold: zone.FreeShippingThreshold,
		DefaultETAMinutes:     zone.DefaultETAMinutes,
		AlwaysOpen:            utils.IsTrue(zone.AlwaysOpen),
		CreatedAt:             zone.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             zone.UpdatedAt.Format(time.RFC3339),
	}
	for _, p := range zone.Polygon {
		out.Polygon = append(out.Polygon, dto.GeoPointDTO{Lat: p.Lat, Lng: p.Lng})
	}
	for _, t := range zone.Tiers {
		out.Tiers = append(out.Tiers, ToCostTierDTO(t))
	}
	for _, s := range zone.Schedules {
		out.Schedules = append(out.Schedules, ToWeeklyScheduleDTO(s))
	}
	return out
}

func ToCostTierDTO(tier models.CostTier) dto.CostTierDTO {
	return dto.CostTierDTO{
		ID:               tier.ID,
		ZoneID:           tier.ZoneID,
		DistanceFromKm:   tier.DistanceFromKm,
		DistanceToKm:     tier.DistanceToKm,
		AdditionalCost:   tier.AdditionalCost,
		ExtraTimeMinutes: tier.ExtraTimeMinutes,
		IsActive:         utils.IsTrue(tier.IsActive),
	}
}

func ToWeeklyScheduleDTO(row models.WeeklySchedule) dto.WeeklyScheduleDTO {
	return dto.WeeklyScheduleDTO{
		ID:        row.ID,
		ZoneID:    row.ZoneID,
		Weekday:   row.Weekday,
		StartTime: row.StartTime,
		EndTime:   row.EndTime,
		FullDay:   utils.IsTrue(row.FullDay),
		IsActive:  utils.IsTrue(row.IsActive),
	}
}

func ToDistrictAssignmentDTO(row models.DistrictAssignment) dto.DistrictAssignmentDTO {
	return dto.DistrictAssignmentDTO{
		ID:               row.ID,
		ZoneID:           row.ZoneID,
		DistrictID:       row.DistrictID,
		Priority:         row.Priority,
		CostOverride:     row.CostOverride,
		ExtraTimeMinutes: row.ExtraTimeMinutes,
		IsActive:         utils.IsTrue(row.IsActive),
	}
}

func ToDateExceptionDTO(row models.DateException) dto.DateExceptionDTO {
	return dto.DateExceptionDTO{
		ID:         row.ID,
		ZoneID:     row.ZoneID,
		Date:       row.DateKey(),
		Type:       row.Type,
		StartTime:  row.StartTime,
		EndTime:    row.EndTime,
		Amount:     row.Amount,
		MinMinutes: row.MinMinutes,
		MaxMinutes: row.MaxMinutes,
		Reason:     row.Reason,
		IsActive:   utils.IsTrue(row.IsActive),
	}
}

func ToValidatedAddressDTO(row models.ValidatedAddress) dto.ValidatedAddressDTO {
	return dto.ValidatedAddressDTO{
		AddressID:       row.AddressID,
		Lat:             row.Lat,
		Lng:             row.Lng,
		DistrictID:      row.DistrictID,
		ZoneID:          row.ZoneID,
		InCoverage:      row.InCoverage,
		DistanceKm:      row.DistanceKm,
		Cost:            row.Cost,
		ETAMinutes:      row.ETAMinutes,
		LastValidatedAt: row.LastValidatedAt.UTC().Format(time.RFC3339),
		ValidationNote:  utils.Deref(row.ValidationNote),
	}
}

func ToZoneAuditLogDTO(row models.ZoneAuditLog) dto.ZoneAuditLogDTO {
	return dto.ZoneAuditLogDTO{
		ID:          row.ID,
		AdminID:     row.AdminID,
		ZoneID:      row.ZoneID,
		Action:      row.Action,
		Description: utils.Deref(row.Description),
		RequestID:   utils.Deref(row.RequestID),
		Success:     !row.IsFailed(),
		CreatedAt:   row.CreatedAt.Format(time.RFC3339),
	}
}
