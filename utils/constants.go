package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for admin access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for admin refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// Geo constants
const (
	// EarthRadiusKm is the mean earth radius used by the haversine distance
	EarthRadiusKm = 6371.0

	// MinPolygonPoints is the minimum number of vertices of a coverage polygon
	MinPolygonPoints = 3
)

// Cache and lock keys (prefixed with CACHE_REDIS_PREFIX at runtime)
const (
	ActiveZonesCacheKey = "zones:active"

	// RevalidationLockKey guards batch revalidation across replicas
	RevalidationLockKey = "revalidation:lock"
	RevalidationLockTTL = 5 * time.Minute
)

// Request-scoped context keys
type ContextKey string

const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	AdminIDKey    ContextKey = "admin_id"
)
