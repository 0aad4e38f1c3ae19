package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	businessflow "github.com/amirphl/delivery-zones/business_flow"
	"github.com/amirphl/delivery-zones/config"
	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRevalidator struct {
	mu      sync.Mutex
	filters []models.ValidatedAddressFilter
	limits  []int
	err     error
	calls   chan struct{}
}

func (r *recordingRevalidator) RevalidateAddresses(ctx context.Context, filter models.ValidatedAddressFilter, limit int) (*businessflow.RevalidationReport, error) {
	r.mu.Lock()
	r.filters = append(r.filters, filter)
	r.limits = append(r.limits, limit)
	r.mu.Unlock()
	if r.calls != nil {
		r.calls <- struct{}{}
	}
	if r.err != nil {
		return nil, r.err
	}
	return &businessflow.RevalidationReport{
		Succeeded: []uint{1, 2},
		Changed:   []uint{2},
		Failed:    []businessflow.RevalidationFailure{{AddressID: 3, Err: errors.New("boom")}},
	}, nil
}

func newTestScheduler(flow Revalidator, cfg config.RevalidationConfig) (*RevalidationScheduler, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	clock := utils.FixedClock{At: time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)}
	return NewRevalidationScheduler(flow, cfg, logger, clock), &buf
}

func TestRevalidationScheduler_StaleSweep(t *testing.T) {
	flow := &recordingRevalidator{}
	s, buf := newTestScheduler(flow, config.RevalidationConfig{StaleAfter: 24 * time.Hour, BatchSize: 50})

	s.runOnce(context.Background())

	require.Len(t, flow.filters, 1)
	require.NotNil(t, flow.filters[0].ValidatedBefore)
	assert.Equal(t, time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC), *flow.filters[0].ValidatedBefore)
	assert.Nil(t, flow.filters[0].ZoneID)
	assert.Equal(t, 50, flow.limits[0])
	assert.Contains(t, buf.String(), "succeeded=2 changed=1 failed=1")
	assert.Contains(t, buf.String(), "address 3 failed: boom")
}

func TestRevalidationScheduler_LockBusy(t *testing.T) {
	flow := &recordingRevalidator{err: businessflow.NewBusinessError("REVALIDATION_BUSY", "busy", businessflow.ErrRevalidationLockBusy)}
	s, buf := newTestScheduler(flow, config.RevalidationConfig{})

	s.runOnce(context.Background())

	require.Len(t, flow.filters, 1)
	assert.Nil(t, flow.filters[0].ValidatedBefore)
	assert.Contains(t, buf.String(), "skipped")
}

func TestRevalidationScheduler_ZoneTriggers(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s, _ := newTestScheduler(&recordingRevalidator{}, config.RevalidationConfig{OnZoneChange: false})
		s.NotifyZoneChanged(4)
		assert.Len(t, s.triggers, 0)
	})

	t.Run("deduplicates and sorts", func(t *testing.T) {
		flow := &recordingRevalidator{}
		s, _ := newTestScheduler(flow, config.RevalidationConfig{OnZoneChange: true})
		s.NotifyZoneChanged(7)
		s.NotifyZoneChanged(3)
		s.NotifyZoneChanged(7)
		s.NotifyZoneChanged(0)

		first := <-s.triggers
		ids := s.drainTriggers(first)
		assert.Equal(t, []uint{3, 7}, ids)

		s.revalidateZones(context.Background(), ids)
		require.Len(t, flow.filters, 3)
		assert.Equal(t, uint(3), *flow.filters[0].ZoneID)
		assert.Equal(t, uint(7), *flow.filters[1].ZoneID)
		require.NotNil(t, flow.filters[2].InCoverage)
		assert.False(t, *flow.filters[2].InCoverage)
	})

	t.Run("full queue does not block", func(t *testing.T) {
		s, buf := newTestScheduler(&recordingRevalidator{}, config.RevalidationConfig{OnZoneChange: true})
		for i := 0; i < zoneTriggerBuffer+5; i++ {
			s.NotifyZoneChanged(uint(i + 1))
		}
		assert.Len(t, s.triggers, zoneTriggerBuffer)
		assert.Contains(t, buf.String(), "trigger queue full")
	})
}

func TestRevalidationScheduler_StartProcessesTriggers(t *testing.T) {
	flow := &recordingRevalidator{calls: make(chan struct{}, 8)}
	s, _ := newTestScheduler(flow, config.RevalidationConfig{Interval: time.Hour, OnZoneChange: true})

	stop := s.Start(context.Background())
	s.NotifyZoneChanged(9)

	for i := 0; i < 2; i++ {
		select {
		case <-flow.calls:
		case <-time.After(2 * time.Second):
			t.Fatal("scheduler did not revalidate the changed zone")
		}
	}
	stop()

	flow.mu.Lock()
	defer flow.mu.Unlock()
	require.GreaterOrEqual(t, len(flow.filters), 2)
	assert.Equal(t, uint(9), *flow.filters[0].ZoneID)
}
