package testing

import (
	"fmt"
	"math/rand"

	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TestAdminPassword is the plain password of admins created by CreateTestAdmin
const TestAdminPassword = "TestPass123!"

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestAdmin creates an active admin with TestAdminPassword
func (tf *TestFixtures) CreateTestAdmin() (*models.Admin, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(TestAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.Admin{
		UUID:         uuid.New(),
		Username:     fmt.Sprintf("admin_%d", rand.Intn(100000000)),
		PasswordHash: string(hashedPassword),
		IsActive:     utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create test admin: %w", err)
	}
	return admin, nil
}

// CreateRadiusZone creates an active always-open zone centred at (lat, lng)
func (tf *TestFixtures) CreateRadiusZone(name string, lat, lng, radiusKm, baseCost float64) (*models.Zone, error) {
	zone := &models.Zone{
		Name:              name,
		IsActive:          utils.ToPtr(true),
		CenterLat:         &lat,
		CenterLng:         &lng,
		RadiusKm:          &radiusKm,
		BaseCost:          baseCost,
		DefaultETAMinutes: 60,
		AlwaysOpen:        utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(zone).Error; err != nil {
		return nil, fmt.Errorf("failed to create test zone %s: %w", name, err)
	}
	return zone, nil
}

// CreatePolygonZone creates an active always-open polygon zone
func (tf *TestFixtures) CreatePolygonZone(name string, vertices []models.GeoPoint, baseCost float64) (*models.Zone, error) {
	zone := &models.Zone{
		Name:              name,
		IsActive:          utils.ToPtr(true),
		Polygon:           vertices,
		BaseCost:          baseCost,
		DefaultETAMinutes: 60,
		AlwaysOpen:        utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(zone).Error; err != nil {
		return nil, fmt.Errorf("failed to create test zone %s: %w", name, err)
	}
	return zone, nil
}

// CreateTier creates an active tier on the zone
func (tf *TestFixtures) CreateTier(zoneID uint, from, to, addition float64) (*models.CostTier, error) {
	tier := &models.CostTier{
		ZoneID:         zoneID,
		DistanceFromKm: from,
		DistanceToKm:   to,
		AdditionalCost: addition,
		IsActive:       utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(tier).Error; err != nil {
		return nil, fmt.Errorf("failed to create test tier: %w", err)
	}
	return tier, nil
}

// AssignDistrict creates an active district assignment
func (tf *TestFixtures) AssignDistrict(zoneID, districtID uint, priority int) (*models.DistrictAssignment, error) {
	row := &models.DistrictAssignment{
		ZoneID:     zoneID,
		DistrictID: districtID,
		Priority:   priority,
		IsActive:   utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(row).Error; err != nil {
		return nil, fmt.Errorf("failed to create test district assignment: %w", err)
	}
	return row, nil
}
