package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestCostTierRanges(t *testing.T) {
	tier := &CostTier{DistanceFromKm: 6, DistanceToKm: 15}

	t.Run("Contains", func(t *testing.T) {
		assert.False(t, tier.Contains(5.999))
		assert.True(t, tier.Contains(6))
		assert.True(t, tier.Contains(14.999))
		assert.False(t, tier.Contains(15))
	})

	t.Run("Overlaps", func(t *testing.T) {
		tests := []struct {
			name     string
			from, to float64
			want     bool
		}{
			{name: "adjacent below", from: 0, to: 6, want: false},
			{name: "adjacent above", from: 15, to: 20, want: false},
			{name: "inside", from: 7, to: 8, want: true},
			{name: "straddles start", from: 5, to: 7, want: true},
			{name: "straddles end", from: 14, to: 30, want: true},
			{name: "covers", from: 0, to: 100, want: true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				other := &CostTier{DistanceFromKm: tt.from, DistanceToKm: tt.to}
				assert.Equal(t, tt.want, tier.Overlaps(other))
				assert.Equal(t, tt.want, other.Overlaps(tier))
			})
		}
	})
}

func TestZoneGeometry(t *testing.T) {
	radius := &Zone{CenterLat: ptr(-12.1), CenterLng: ptr(-77.03), RadiusKm: ptr(10.0)}
	assert.True(t, radius.HasCenter())
	assert.False(t, radius.HasPolygon())
	assert.True(t, radius.HasGeometry())

	partial := &Zone{CenterLat: ptr(-12.1)}
	assert.False(t, partial.HasCenter())
	assert.False(t, partial.HasGeometry())

	poly := &Zone{Polygon: []GeoPoint{{0, 0}, {0, 1}, {1, 1}}}
	assert.True(t, poly.HasPolygon())
	assert.True(t, poly.HasGeometry())

	assert.False(t, (&Zone{}).HasGeometry())
}

func TestValidatedAddressSameResolution(t *testing.T) {
	a := &ValidatedAddress{ZoneID: ptr(uint(1)), InCoverage: true, Cost: ptr(15.0), ETAMinutes: ptr(40), DistanceKm: ptr(8.0)}
	b := &ValidatedAddress{ZoneID: ptr(uint(1)), InCoverage: true, Cost: ptr(15.0), ETAMinutes: ptr(40), DistanceKm: ptr(8.0)}
	assert.True(t, a.SameResolution(b))

	b.Cost = ptr(10.0)
	assert.False(t, a.SameResolution(b))

	uncovered := &ValidatedAddress{}
	assert.True(t, uncovered.SameResolution(&ValidatedAddress{}))
	assert.False(t, uncovered.SameResolution(a))
}
