package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Zone lock keys carry zoneLockNamespace in the top 16 bits and the zone id
// in the remaining 48, so they stay clear of other advisory lock users.
const (
	zoneLockNamespace int64 = 0x5a4f
	zoneLockIDBits          = 48
	maxLockableZoneID       = uint64(1)<<zoneLockIDBits - 1
)

var (
	ErrNoTransaction     = errors.New("zone lock requires a transaction in context")
	ErrZoneIDNotLockable = errors.New("zone id does not fit the advisory lock key")
)

// AdvisoryZoneLocker takes a transaction-scoped Postgres advisory lock per zone
type AdvisoryZoneLocker struct{}

func NewZoneLocker() ZoneLocker {
	return &AdvisoryZoneLocker{}
}

// ZoneLockKey returns the bigint advisory lock key of a zone
func ZoneLockKey(zoneID uint) (int64, error) {
	if uint64(zoneID) > maxLockableZoneID {
		return 0, fmt.Errorf("%w: %d", ErrZoneIDNotLockable, zoneID)
	}
	return zoneLockNamespace<<zoneLockIDBits | int64(zoneID), nil
}

func (l *AdvisoryZoneLocker) LockZone(ctx context.Context, zoneID uint) error {
	tx, ok := ctx.Value(TxContextKey).(*gorm.DB)
	if !ok || tx == nil {
		return ErrNoTransaction
	}
	key, err := ZoneLockKey(zoneID)
	if err != nil {
		return err
	}
	if err := tx.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", key).Error; err != nil {
		return fmt.Errorf("failed to lock zone %d: %w", zoneID, err)
	}
	return nil
}
