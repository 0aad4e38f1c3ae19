package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/amirphl/delivery-zones/config"
	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/repository"
	"github.com/amirphl/delivery-zones/utils"
	"github.com/redis/go-redis/v9"
)

// ZoneCache serves the fully loaded active zone list
type ZoneCache interface {
	ActiveZones(ctx context.Context) ([]*models.Zone, error)
	Invalidate(ctx context.Context) error
}

// RedisZoneCache caches ZoneRepository.ListActiveLoaded as JSON in Redis.
// A nil client disables caching.
type RedisZoneCache struct {
	zoneRepo    repository.ZoneRepository
	rc          *redis.Client
	cacheConfig config.CacheConfig
}

func NewZoneCache(zoneRepo repository.ZoneRepository, rc *redis.Client, cacheConfig config.CacheConfig) ZoneCache {
	return &RedisZoneCache{
		zoneRepo:    zoneRepo,
		rc:          rc,
		cacheConfig: cacheConfig,
	}
}

func redisKey(cfg config.CacheConfig, key string) string {
	return cfg.RedisPrefix + key
}

func (c *RedisZoneCache) ttl() time.Duration {
	if c.cacheConfig.ZonesTTL > 0 {
		return c.cacheConfig.ZonesTTL
	}
	return c.cacheConfig.DefaultTTL
}

func (c *RedisZoneCache) ActiveZones(ctx context.Context) ([]*models.Zone, error) {
	if c.rc == nil {
		return c.zoneRepo.ListActiveLoaded(ctx)
	}

	key := redisKey(c.cacheConfig, utils.ActiveZonesCacheKey)
	raw, err := c.rc.Get(ctx, key).Bytes()
	if err == nil {
		var zones []*models.Zone
		if err := json.Unmarshal(raw, &zones); err == nil {
			return zones, nil
		}
		log.Printf("zone cache: dropping undecodable entry %s", key)
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("zone cache: get %s failed: %v", key, err)
	}

	zones, err := c.zoneRepo.ListActiveLoaded(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(zones); err == nil {
		if err := c.rc.Set(ctx, key, payload, c.ttl()).Err(); err != nil {
			log.Printf("zone cache: set %s failed: %v", key, err)
		}
	}
	return zones, nil
}

func (c *RedisZoneCache) Invalidate(ctx context.Context) error {
	if c.rc == nil {
		return nil
	}
	return c.rc.Del(ctx, redisKey(c.cacheConfig, utils.ActiveZonesCacheKey)).Err()
}
