package businessflow

import (
	"context"
	"fmt"
	"os"

	"github.com/amirphl/delivery-zones/app/dto"
	"github.com/amirphl/delivery-zones/repository"
	"github.com/goccy/go-yaml"
)

// ZoneSeedFile is the YAML layout of a zone seed file
type ZoneSeedFile struct {
	Zones []ZoneSeed `yaml:"zones"`
}

type ZoneSeed struct {
	Name                  string            `yaml:"name"`
	Center                *dto.GeoPointDTO  `yaml:"center"`
	RadiusKm              *float64          `yaml:"radius_km"`
	Polygon               []dto.GeoPointDTO `yaml:"polygon"`
	CoversEverywhere      bool              `yaml:"covers_everywhere"`
	BaseCost              float64           `yaml:"base_cost"`
	MinOrderAmount        *float64          `yaml:"min_order_amount"`
	FreeShippingThreshold *float64          `yaml:"free_shipping_threshold"`
	DefaultETAMinutes     int               `yaml:"default_eta_minutes"`
	AlwaysOpen            bool              `yaml:"always_open"`
	Tiers                 []TierSeed        `yaml:"tiers"`
	Schedules             []ScheduleSeed    `yaml:"schedules"`
	Districts             []DistrictSeed    `yaml:"districts"`
}

type TierSeed struct {
	FromKm           float64 `yaml:"from_km"`
	ToKm             float64 `yaml:"to_km"`
	AdditionalCost   float64 `yaml:"additional_cost"`
	ExtraTimeMinutes *int    `yaml:"extra_time_minutes"`
}

type ScheduleSeed struct {
	Weekday int     `yaml:"weekday"`
	Start   *string `yaml:"start"`
	End     *string `yaml:"end"`
	FullDay bool    `yaml:"full_day"`
}

type DistrictSeed struct {
	DistrictID       uint     `yaml:"district_id"`
	Priority         int      `yaml:"priority"`
	CostOverride     *float64 `yaml:"cost_override"`
	ExtraTimeMinutes *int     `yaml:"extra_time_minutes"`
}

// SeedResult lists zone names created and skipped by a seed run
type SeedResult struct {
	Created []string
	Skipped []string
}

// ZoneSeeder imports zones that do not exist yet through the admin flow, so seeds pass the same checks as API writes
type ZoneSeeder struct {
	zoneRepo  repository.ZoneRepository
	adminFlow ZoneAdminFlow
}

func NewZoneSeeder(zoneRepo repository.ZoneRepository, adminFlow ZoneAdminFlow) *ZoneSeeder {
	return &ZoneSeeder{zoneRepo: zoneRepo, adminFlow: adminFlow}
}

// ParseZoneSeed decodes a YAML seed document
func ParseZoneSeed(data []byte) (*ZoneSeedFile, error) {
	var file ZoneSeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse zone seed: %w", err)
	}
	return &file, nil
}

// SeedFromFile reads path and seeds its zones
func (s *ZoneSeeder) SeedFromFile(ctx context.Context, path string) (*SeedResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read zone seed %s: %w", path, err)
	}
	file, err := ParseZoneSeed(data)
	if err != nil {
		return nil, err
	}
	return s.Seed(ctx, file)
}

// Seed creates each zone whose name is not taken, then its tiers, schedules and districts
func (s *ZoneSeeder) Seed(ctx context.Context, file *ZoneSeedFile) (*SeedResult, error) {
	result := &SeedResult{}
	for _, seed := range file.Zones {
		existing, err := s.zoneRepo.ByName(ctx, seed.Name)
		if err != nil {
			return result, fmt.Errorf("failed to lookup zone %q: %w", seed.Name, err)
		}
		if existing != nil {
			result.Skipped = append(result.Skipped, seed.Name)
			continue
		}
		if err := s.seedZone(ctx, seed); err != nil {
			return result, fmt.Errorf("failed to seed zone %q: %w", seed.Name, err)
		}
		result.Created = append(result.Created, seed.Name)
	}
	return result, nil
}

func (s *ZoneSeeder) seedZone(ctx context.Context, seed ZoneSeed) error {
	req := &dto.AdminZoneRequest{
		Name:                  seed.Name,
		RadiusKm:              seed.RadiusKm,
		Polygon:               seed.Polygon,
		CoversEverywhere:      seed.CoversEverywhere,
		BaseCost:              seed.BaseCost,
		MinOrderAmount:        seed.MinOrderAmount,
		FreeShippingThreshold: seed.FreeShippingThreshold,
		DefaultETAMinutes:     seed.DefaultETAMinutes,
		AlwaysOpen:            seed.AlwaysOpen,
	}
	if seed.Center != nil {
		req.CenterLat = &seed.Center.Lat
		req.CenterLng = &seed.Center.Lng
	}

	zone, err := s.adminFlow.CreateZone(ctx, req)
	if err != nil {
		return err
	}

	for _, t := range seed.Tiers {
		_, err := s.adminFlow.AddTier(ctx, zone.ID, &dto.AdminCostTierRequest{
			DistanceFromKm:   t.FromKm,
			DistanceToKm:     t.ToKm,
			AdditionalCost:   t.AdditionalCost,
			ExtraTimeMinutes: t.ExtraTimeMinutes,
		})
		if err != nil {
			return err
		}
	}
	for _, sc := range seed.Schedules {
		_, err := s.adminFlow.AddSchedule(ctx, zone.ID, &dto.AdminWeeklyScheduleRequest{
			Weekday:   sc.Weekday,
			StartTime: sc.Start,
			EndTime:   sc.End,
			FullDay:   sc.FullDay,
		})
		if err != nil {
			return err
		}
	}
	for _, d := range seed.Districts {
		_, err := s.adminFlow.AssignDistrict(ctx, zone.ID, &dto.AdminDistrictAssignmentRequest{
			DistrictID:       d.DistrictID,
			Priority:         d.Priority,
			CostOverride:     d.CostOverride,
			ExtraTimeMinutes: d.ExtraTimeMinutes,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
