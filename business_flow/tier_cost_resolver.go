package businessflow

import (
	"fmt"

	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/utils"
)

// TierCost is the surcharge selected for a distance
type TierCost struct {
	Addition     float64
	ExtraMinutes int
	TierID       *uint
}

// TierCostResolver selects distance surcharges and guards tier disjointness
type TierCostResolver interface {
	AdditionalCost(zone *models.Zone, distanceKm float64) TierCost
	CheckDisjoint(existing []*models.CostTier, candidate *models.CostTier) error
}

type TierCostResolverImpl struct{}

func NewTierCostResolver() TierCostResolver {
	return &TierCostResolverImpl{}
}

// AdditionalCost returns the active tier containing distanceKm, or zero when none does
func (r *TierCostResolverImpl) AdditionalCost(zone *models.Zone, distanceKm float64) TierCost {
	for i := range zone.Tiers {
		tier := &zone.Tiers[i]
		if !utils.IsTrue(tier.IsActive) || !tier.Contains(distanceKm) {
			continue
		}
		return TierCost{
			Addition:     tier.AdditionalCost,
			ExtraMinutes: utils.Deref(tier.ExtraTimeMinutes),
			TierID:       &tier.ID,
		}
	}
	return TierCost{}
}

// CheckDisjoint fails with ErrOverlappingTier when candidate intersects an active tier.
// A tier with the candidate's own id is ignored so updates can move their range.
func (r *TierCostResolverImpl) CheckDisjoint(existing []*models.CostTier, candidate *models.CostTier) error {
	if candidate.DistanceFromKm < 0 || candidate.DistanceToKm <= candidate.DistanceFromKm {
		return ErrInvalidTierRange
	}
	if !utils.IsTrue(candidate.IsActive) {
		return nil
	}
	for _, tier := range existing {
		if candidate.ID != 0 && tier.ID == candidate.ID {
			continue
		}
		if !utils.IsTrue(tier.IsActive) {
			continue
		}
		if candidate.Overlaps(tier) {
			return fmt.Errorf("%w: [%g,%g) intersects tier %d [%g,%g)", ErrOverlappingTier,
				candidate.DistanceFromKm, candidate.DistanceToKm, tier.ID, tier.DistanceFromKm, tier.DistanceToKm)
		}
	}
	return nil
}
