package businessflow

import (
	"context"
	"fmt"

	"github.com/amirphl/delivery-zones/app/dto"
	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/utils"
)

func (f *ZoneAdminFlowImpl) AssignDistrict(ctx context.Context, zoneID uint, req *dto.AdminDistrictAssignmentRequest) (*dto.DistrictAssignmentDTO, error) {
	if req == nil || req.DistrictID == 0 {
		return nil, NewBusinessError("DISTRICT_VALIDATION_FAILED", "District id is required", ErrInvalidDistrict)
	}
	if err := validatePriority(req.Priority); err != nil {
		return nil, err
	}
	if err := validateOptionalAmounts(req.CostOverride, req.ExtraTimeMinutes); err != nil {
		return nil, err
	}

	assignment := &models.DistrictAssignment{
		ZoneID:           zoneID,
		DistrictID:       req.DistrictID,
		Priority:         req.Priority,
		CostOverride:     req.CostOverride,
		ExtraTimeMinutes: req.ExtraTimeMinutes,
		IsActive:         utils.ToPtr(true),
	}

	w := &zoneWrite{
		action:      models.AuditActionDistrictAssigned,
		description: fmt.Sprintf("District %d assigned to zone %d", req.DistrictID, zoneID),
		metadata:    map[string]any{"district_id": req.DistrictID, "priority": req.Priority},
	}
	err := f.writeZone(ctx, zoneID, w, func(txCtx context.Context) error {
		if _, err := f.mustZone(txCtx, zoneID); err != nil {
			return err
		}
		existing, err := f.districtRepo.ByZoneAndDistrict(txCtx, zoneID, req.DistrictID)
		if err != nil {
			return NewBusinessError("DISTRICT_LOOKUP_FAILED", "Failed to lookup district assignment", err)
		}
		if existing != nil {
			return NewBusinessError("DUPLICATE_DISTRICT_ASSIGNMENT", "District already assigned to zone", ErrDuplicateDistrictAssignment)
		}
		if err := f.districtRepo.Save(txCtx, assignment); err != nil {
			return NewBusinessError("DISTRICT_ASSIGN_FAILED", "Failed to assign district", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := ToDistrictAssignmentDTO(*assignment)
	return &out, nil
}

func (f *ZoneAdminFlowImpl) UpdateDistrictAssignment(ctx context.Context, assignmentID uint, req *dto.AdminUpdateDistrictAssignmentRequest) (*dto.DistrictAssignmentDTO, error) {
	if req == nil {
		return nil, NewBusinessError("DISTRICT_VALIDATION_FAILED", "District assignment validation failed", ErrInvalidPriority)
	}
	if err := validatePriority(req.Priority); err != nil {
		return nil, err
	}
	if err := validateOptionalAmounts(req.CostOverride, req.ExtraTimeMinutes); err != nil {
		return nil, err
	}

	current, err := f.mustDistrictAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	w := &zoneWrite{
		action:      models.AuditActionDistrictUpdated,
		description: fmt.Sprintf("District assignment %d updated", assignmentID),
		metadata:    map[string]any{"assignment_id": assignmentID, "priority": req.Priority},
	}
	var updated *models.DistrictAssignment
	err = f.writeZone(ctx, current.ZoneID, w, func(txCtx context.Context) error {
		row, err := f.mustDistrictAssignment(txCtx, assignmentID)
		if err != nil {
			return err
		}
		row.Priority = req.Priority
		row.CostOverride = req.CostOverride
		row.ExtraTimeMinutes = req.ExtraTimeMinutes
		if req.IsActive != nil {
			row.IsActive = utils.ToPtr(*req.IsActive)
		}
		if err := f.districtRepo.Update(txCtx, row); err != nil {
			return NewBusinessError("DISTRICT_UPDATE_FAILED", "Failed to update district assignment", err)
		}
		updated = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := ToDistrictAssignmentDTO(*updated)
	return &out, nil
}

// RemoveDistrictAssignment deactivates the assignment so its history stays queryable
func (f *ZoneAdminFlowImpl) RemoveDistrictAssignment(ctx context.Context, assignmentID uint) (*dto.AdminMessageResponse, error) {
	current, err := f.mustDistrictAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	w := &zoneWrite{
		action:      models.AuditActionDistrictRemoved,
		description: fmt.Sprintf("District %d removed from zone %d", current.DistrictID, current.ZoneID),
		metadata:    map[string]any{"assignment_id": assignmentID},
	}
	err = f.writeZone(ctx, current.ZoneID, w, func(txCtx context.Context) error {
		row, err := f.mustDistrictAssignment(txCtx, assignmentID)
		if err != nil {
			return err
		}
		row.IsActive = utils.ToPtr(false)
		if err := f.districtRepo.Update(txCtx, row); err != nil {
			return NewBusinessError("DISTRICT_UPDATE_FAILED", "Failed to remove district assignment", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.AdminMessageResponse{Message: "district assignment removed"}, nil
}

func (f *ZoneAdminFlowImpl) ListDistrictAssignments(ctx context.Context, zoneID uint) ([]dto.DistrictAssignmentDTO, error) {
	if _, err := f.mustZone(ctx, zoneID); err != nil {
		return nil, err
	}
	rows, err := f.districtRepo.ByFilter(ctx, models.DistrictAssignmentFilter{ZoneID: &zoneID}, "district_id ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("DISTRICT_LIST_FAILED", "Failed to list district assignments", err)
	}
	out := make([]dto.DistrictAssignmentDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToDistrictAssignmentDTO(*row))
	}
	return out, nil
}

func (f *ZoneAdminFlowImpl) mustDistrictAssignment(ctx context.Context, id uint) (*models.DistrictAssignment, error) {
	row, err := f.districtRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("DISTRICT_LOOKUP_FAILED", "Failed to lookup district assignment", err)
	}
	if row == nil {
		return nil, NewBusinessError("DISTRICT_ASSIGNMENT_NOT_FOUND", "District assignment not found", ErrDistrictAssignmentNotFound)
	}
	return row, nil
}

func (f *ZoneAdminFlowImpl) AddTier(ctx context.Context, zoneID uint, req *dto.AdminCostTierRequest) (*dto.CostTierDTO, error) {
	tier, err := tierFromRequest(req)
	if err != nil {
		return nil, err
	}
	tier.ZoneID = zoneID

	w := &zoneWrite{
		action:      models.AuditActionTierCreated,
		description: fmt.Sprintf("Tier [%g,%g) added to zone %d", tier.DistanceFromKm, tier.DistanceToKm, zoneID),
		metadata:    map[string]any{"from_km": tier.DistanceFromKm, "to_km": tier.DistanceToKm, "additional_cost": tier.AdditionalCost},
	}
	err = f.writeZone(ctx, zoneID, w, func(txCtx context.Context) error {
		if _, err := f.mustZone(txCtx, zoneID); err != nil {
			return err
		}
		if err := f.checkTierDisjoint(txCtx, zoneID, tier); err != nil {
			return err
		}
		if err := f.tierRepo.Save(txCtx, tier); err != nil {
			return NewBusinessError("TIER_CREATE_FAILED", "Failed to create tier", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := ToCostTierDTO(*tier)
	return &out, nil
}

func (f *ZoneAdminFlowImpl) UpdateTier(ctx context.Context, tierID uint, req *dto.AdminCostTierRequest) (*dto.CostTierDTO, error) {
	incoming, err := tierFromRequest(req)
	if err != nil {
		return nil, err
	}
	current, err := f.mustTier(ctx, tierID)
	if err != nil {
		return nil, err
	}

	w := &zoneWrite{
		action:      models.AuditActionTierUpdated,
		description: fmt.Sprintf("Tier %d set to [%g,%g)", tierID, incoming.DistanceFromKm, incoming.DistanceToKm),
		metadata:    map[string]any{"tier_id": tierID, "additional_cost": incoming.AdditionalCost},
	}
	var updated *models.CostTier
	err = f.writeZone(ctx, current.ZoneID, w, func(txCtx context.Context) error {
		row, err := f.mustTier(txCtx, tierID)
		if err != nil {
			return err
		}
		row.DistanceFromKm = incoming.DistanceFromKm
		row.DistanceToKm = incoming.DistanceToKm
		row.AdditionalCost = incoming.AdditionalCost
		row.ExtraTimeMinutes = incoming.ExtraTimeMinutes
		if req.IsActive != nil {
			row.IsActive = incoming.IsActive
		}
		if err := f.checkTierDisjoint(txCtx, row.ZoneID, row); err != nil {
			return err
		}
		if err := f.tierRepo.Update(txCtx, row); err != nil {
			return NewBusinessError("TIER_UPDATE_FAILED", "Failed to update tier", err)
		}
		updated = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := ToCostTierDTO(*updated)
	return &out, nil
}

// RemoveTier deactivates the tier; the range becomes free for new tiers
func (f *ZoneAdminFlowImpl) RemoveTier(ctx context.Context, tierID uint) (*dto.AdminMessageResponse, error) {
	current, err := f.mustTier(ctx, tierID)
	if err != nil {
		return nil, err
	}

	w := &zoneWrite{
		action:      models.AuditActionTierRemoved,
		description: fmt.Sprintf("Tier %d removed from zone %d", tierID, current.ZoneID),
		metadata:    map[string]any{"tier_id": tierID},
	}
	err = f.writeZone(ctx, current.ZoneID, w, func(txCtx context.Context) error {
		row, err := f.mustTier(txCtx, tierID)
		if err != nil {
			return err
		}
		row.IsActive = utils.ToPtr(false)
		if err := f.tierRepo.Update(txCtx, row); err != nil {
			return NewBusinessError("TIER_UPDATE_FAILED", "Failed to remove tier", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.AdminMessageResponse{Message: "tier removed"}, nil
}

func (f *ZoneAdminFlowImpl) ListTiers(ctx context.Context, zoneID uint) ([]dto.CostTierDTO, error) {
	if _, err := f.mustZone(ctx, zoneID); err != nil {
		return nil, err
	}
	rows, err := f.tierRepo.ByFilter(ctx, models.CostTierFilter{ZoneID: &zoneID}, "distance_from_km ASC, id ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("TIER_LIST_FAILED", "Failed to list tiers", err)
	}
	out := make([]dto.CostTierDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToCostTierDTO(*row))
	}
	return out, nil
}

// checkTierDisjoint must run under the zone lock so concurrent writers see each other's tiers
func (f *ZoneAdminFlowImpl) checkTierDisjoint(ctx context.Context, zoneID uint, candidate *models.CostTier) error {
	existing, err := f.tierRepo.ActiveByZone(ctx, zoneID)
	if err != nil {
		return NewBusinessError("TIER_LOOKUP_FAILED", "Failed to load tiers", err)
	}
	if err := f.tiers.CheckDisjoint(existing, candidate); err != nil {
		if IsOverlappingTier(err) {
			return NewBusinessError("OVERLAPPING_TIER", "Tier overlaps an existing tier", err)
		}
		return NewBusinessError("TIER_VALIDATION_FAILED", "Tier range is invalid", err)
	}
	return nil
}

func (f *ZoneAdminFlowImpl) mustTier(ctx context.Context, id uint) (*models.CostTier, error) {
	row, err := f.tierRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("TIER_LOOKUP_FAILED", "Failed to lookup tier", err)
	}
	if row == nil {
		return nil, NewBusinessError("TIER_NOT_FOUND", "Tier not found", ErrTierNotFound)
	}
	return row, nil
}

func tierFromRequest(req *dto.AdminCostTierRequest) (*models.CostTier, error) {
	if req == nil || req.DistanceFromKm < 0 || req.DistanceToKm <= req.DistanceFromKm {
		return nil, NewBusinessError("TIER_VALIDATION_FAILED", "Tier range is invalid", ErrInvalidTierRange)
	}
	if err := validateOptionalAmounts(&req.AdditionalCost, req.ExtraTimeMinutes); err != nil {
		return nil, err
	}
	tier := &models.CostTier{
		DistanceFromKm:   req.DistanceFromKm,
		DistanceToKm:     req.DistanceToKm,
		AdditionalCost:   utils.RoundMoney(req.AdditionalCost),
		ExtraTimeMinutes: req.ExtraTimeMinutes,
		IsActive:         utils.ToPtr(true),
	}
	if req.IsActive != nil {
		tier.IsActive = utils.ToPtr(*req.IsActive)
	}
	return tier, nil
}

func validatePriority(priority int) error {
	if priority < models.DistrictPriorityHigh || priority > models.DistrictPriorityLow {
		return NewBusinessError("DISTRICT_VALIDATION_FAILED", "Priority must be 1, 2 or 3", ErrInvalidPriority)
	}
	return nil
}

func validateOptionalAmounts(amount *float64, minutes *int) error {
	if (amount != nil && *amount < 0) || (minutes != nil && *minutes < 0) {
		return NewBusinessError("VALIDATION_FAILED", "Amounts must not be negative", ErrNegativeAmount)
	}
	return nil
}
