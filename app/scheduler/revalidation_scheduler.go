// Package scheduler runs background jobs of the delivery zone service
package scheduler

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/amirphl/delivery-zones/app/middleware"
	businessflow "github.com/amirphl/delivery-zones/business_flow"
	"github.com/amirphl/delivery-zones/config"
	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/utils"
)

const zoneTriggerBuffer = 256

// Revalidator is the part of the address flow the scheduler drives
type Revalidator interface {
	RevalidateAddresses(ctx context.Context, filter models.ValidatedAddressFilter, limit int) (*businessflow.RevalidationReport, error)
}

// RevalidationScheduler periodically revalidates stale addresses and the addresses of changed zones
type RevalidationScheduler struct {
	flow         Revalidator
	logger       *log.Logger
	clock        utils.Clock
	interval     time.Duration
	staleAfter   time.Duration
	batchSize    int
	onZoneChange bool

	triggers chan uint
}

func NewRevalidationScheduler(flow Revalidator, cfg config.RevalidationConfig, logger *log.Logger, clock utils.Clock) *RevalidationScheduler {
	if logger == nil {
		logger = log.Default()
	}
	if clock == nil {
		clock = utils.SystemClock{}
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &RevalidationScheduler{
		flow:         flow,
		logger:       logger,
		clock:        clock,
		interval:     interval,
		staleAfter:   cfg.StaleAfter,
		batchSize:    cfg.BatchSize,
		onZoneChange: cfg.OnZoneChange,
		triggers:     make(chan uint, zoneTriggerBuffer),
	}
}

// NotifyZoneChanged queues revalidation of the zone's addresses. It never blocks.
func (s *RevalidationScheduler) NotifyZoneChanged(zoneID uint) {
	if !s.onZoneChange || zoneID == 0 {
		return
	}
	select {
	case s.triggers <- zoneID:
	default:
		s.logger.Printf("revalidation: trigger queue full, dropping zone %d (next stale sweep covers it)", zoneID)
	}
}

// Start launches the scheduler loop in a background goroutine and returns a stop function
func (s *RevalidationScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			case zoneID := <-s.triggers:
				s.revalidateZones(ctx, s.drainTriggers(zoneID))
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// runOnce revalidates addresses whose last validation is older than staleAfter
func (s *RevalidationScheduler) runOnce(ctx context.Context) {
	filter := models.ValidatedAddressFilter{}
	if s.staleAfter > 0 {
		filter.ValidatedBefore = utils.ToPtr(s.clock.Now().UTC().Add(-s.staleAfter))
	}
	s.run(ctx, "stale sweep", filter)
}

// drainTriggers collects queued zone ids without blocking, deduplicated and sorted
func (s *RevalidationScheduler) drainTriggers(first uint) []uint {
	seen := map[uint]struct{}{first: {}}
	for {
		select {
		case id := <-s.triggers:
			seen[id] = struct{}{}
		default:
			ids := make([]uint, 0, len(seen))
			for id := range seen {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			return ids
		}
	}
}

// revalidateZones revalidates the addresses of each changed zone, then the uncovered
// addresses, which a grown zone may now cover. Addresses moved between two other
// zones are left to the stale sweep.
func (s *RevalidationScheduler) revalidateZones(ctx context.Context, zoneIDs []uint) {
	for _, zoneID := range zoneIDs {
		if ctx.Err() != nil {
			return
		}
		s.run(ctx, "zone change", models.ValidatedAddressFilter{ZoneID: utils.ToPtr(zoneID)})
	}
	if ctx.Err() != nil {
		return
	}
	s.run(ctx, "zone change (uncovered)", models.ValidatedAddressFilter{InCoverage: utils.ToPtr(false)})
}

func (s *RevalidationScheduler) run(ctx context.Context, reason string, filter models.ValidatedAddressFilter) {
	report, err := s.flow.RevalidateAddresses(ctx, filter, s.batchSize)
	if err != nil {
		if businessflow.IsRevalidationLockBusy(err) {
			s.logger.Printf("revalidation: %s skipped, another run holds the lock", reason)
			return
		}
		s.logger.Printf("revalidation: %s failed: %v", reason, err)
		return
	}

	changed := len(report.Changed)
	middleware.RecordRevalidation(changed, len(report.Succeeded)-changed, len(report.Failed))
	middleware.ObserveRevalidationRun(report.FinishedAt.Sub(report.StartedAt))
	if len(report.Succeeded)+len(report.Failed) == 0 {
		return
	}
	s.logger.Printf("revalidation: %s done succeeded=%d changed=%d failed=%d took=%s",
		reason, len(report.Succeeded), changed, len(report.Failed), report.FinishedAt.Sub(report.StartedAt))
	for _, failure := range report.Failed {
		s.logger.Printf("revalidation: address %d failed: %v", failure.AddressID, failure.Err)
	}
}
