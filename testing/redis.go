package testing

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/amirphl/delivery-zones/config"
	"github.com/redis/go-redis/v9"
)

// ErrNoTestRedis is returned by SetupTestRedis when no Redis server is reachable
var ErrNoTestRedis = fmt.Errorf("test redis unavailable")

// TestRedis is a Redis client scoped to a unique key prefix
type TestRedis struct {
	Client *redis.Client
	Cache  config.CacheConfig
}

// SetupTestRedis connects to TEST_REDIS_URL (database 15 of a local server by default)
// and hands out a prefix no other test run shares.
func SetupTestRedis() (*TestRedis, error) {
	opt, err := redis.ParseURL(getEnv("TEST_REDIS_URL", "redis://localhost:6379/15"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTestRedis, err)
	}
	opt.DialTimeout = time.Second

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrNoTestRedis, err)
	}

	return &TestRedis{
		Client: client,
		Cache: config.CacheConfig{
			RedisPrefix: fmt.Sprintf("zones_test_%d_%d:", time.Now().UnixNano(), rand.Intn(10000)),
			DefaultTTL:  time.Minute,
		},
	}, nil
}

// Key returns key under the test prefix
func (r *TestRedis) Key(key string) string {
	return r.Cache.RedisPrefix + key
}

// Teardown deletes every key under the test prefix and closes the client
func (r *TestRedis) Teardown() error {
	ctx := context.Background()
	var keys []string
	iter := r.Client.Scan(ctx, 0, r.Cache.RedisPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		if err := r.Client.Del(ctx, keys...).Err(); err != nil {
			return err
		}
	}
	return r.Client.Close()
}
