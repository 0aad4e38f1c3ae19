package businessflow

import (
	"context"
	"sync"

	"github.com/amirphl/delivery-zones/config"
	"github.com/amirphl/delivery-zones/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	revalidationMutex sync.Mutex

	// Deletes the lock only while it still holds the caller's token
	releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
)

// lockRevalidation admits one batch per process and, when Redis is configured,
// one batch across replicas. The returned func releases both locks. A Redis lock
// that expired and was taken by another replica is left untouched on release.
func lockRevalidation(ctx context.Context, rc *redis.Client, cacheConfig config.CacheConfig) (func(), error) {
	if !revalidationMutex.TryLock() {
		return nil, NewBusinessError("REVALIDATION_LOCK_BUSY", "Another revalidation is running", ErrRevalidationLockBusy)
	}
	if rc == nil {
		return revalidationMutex.Unlock, nil
	}

	lockKey := redisKey(cacheConfig, utils.RevalidationLockKey)
	token := uuid.NewString()
	ok, err := rc.SetNX(ctx, lockKey, token, utils.RevalidationLockTTL).Result()
	if err != nil {
		revalidationMutex.Unlock()
		return nil, NewBusinessError("REVALIDATION_LOCK_FAILED", "Failed to acquire revalidation lock", err)
	}
	if !ok {
		revalidationMutex.Unlock()
		return nil, NewBusinessError("REVALIDATION_LOCK_BUSY", "Another replica is revalidating addresses", ErrRevalidationLockBusy)
	}
	return func() {
		_ = releaseLockScript.Run(context.Background(), rc, []string{lockKey}, token).Err()
		revalidationMutex.Unlock()
	}, nil
}
