// Package service provides the business logic layer (use cases):
// snapshot lifecycle, ledger aggregation, transaction approvals,
// donation receipts, and session handling.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/jeongsim/accounting-api/internal/domain"
	"github.com/jeongsim/accounting-api/internal/infra/observability"
	"github.com/jeongsim/accounting-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var snapshotTracer = otel.Tracer("service/snapshot")

const snapshotKey = "snapshot"

// SnapshotService owns the cached application snapshot. Reads go
// through the TTL cache; concurrent refreshes collapse into a single
// backend fetch. When the backend is unreachable the demo dataset is
// served instead, so the API keeps answering read requests.
type SnapshotService struct {
	fetcher port.SnapshotFetcher
	cache   port.Cache[*domain.AppData]
	metrics *observability.Metrics
	logger  *zap.Logger

	group singleflight.Group

	mu        sync.RWMutex
	connected bool
}

// NewSnapshotService creates a new snapshot service.
func NewSnapshotService(fetcher port.SnapshotFetcher, cache port.Cache[*domain.AppData], metrics *observability.Metrics, logger *zap.Logger) *SnapshotService {
	return &SnapshotService{
		fetcher: fetcher,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// Snapshot returns the current application snapshot. Cache hits are
// served directly; on a miss the backend is fetched once regardless of
// how many requests arrive concurrently. A failed fetch falls back to
// the demo dataset and flips the connected flag off.
func (s *SnapshotService) Snapshot(ctx context.Context) (*domain.AppData, error) {
	ctx, span := snapshotTracer.Start(ctx, "SnapshotService.Snapshot")
	defer span.End()

	if data, ok := s.cache.Get(snapshotKey); ok {
		s.metrics.IncrCacheHit(snapshotKey)
		return data, nil
	}
	s.metrics.IncrCacheMiss(snapshotKey)

	v, err, _ := s.group.Do(snapshotKey, func() (any, error) {
		start := time.Now()
		data, err := s.fetcher.FetchSnapshot(ctx)
		s.metrics.RecordRequestDuration("snapshot_fetch", time.Since(start))
		if err != nil {
			s.logger.Warn("snapshot fetch failed, serving demo data", zap.Error(err))
			s.metrics.IncrExternalError("snapshot")
			s.metrics.IncrSnapshotFallback()
			s.setConnected(false)
			return domain.DemoData(), nil
		}
		s.setConnected(true)
		s.cache.Set(snapshotKey, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.AppData), nil
}

// Refresh drops the cached snapshot and fetches a fresh one.
func (s *SnapshotService) Refresh(ctx context.Context) (*domain.AppData, error) {
	ctx, span := snapshotTracer.Start(ctx, "SnapshotService.Refresh")
	defer span.End()

	s.cache.Delete(snapshotKey)
	return s.Snapshot(ctx)
}

// Reconcile re-fetches the snapshot from the backend without the demo
// fallback: after a burst of fire-and-forget writes the operator calls
// this to confirm the sheet actually absorbed them. An error here means
// the backend truly could not be read.
func (s *SnapshotService) Reconcile(ctx context.Context) (*domain.AppData, error) {
	ctx, span := snapshotTracer.Start(ctx, "SnapshotService.Reconcile")
	defer span.End()

	data, err := s.fetcher.FetchSnapshot(ctx)
	if err != nil {
		s.metrics.IncrExternalError("snapshot")
		s.setConnected(false)
		return nil, err
	}
	s.setConnected(true)
	s.cache.Set(snapshotKey, data)
	s.logger.Info("snapshot reconciled",
		zap.Int("transactions", len(data.Transactions)),
		zap.Int("donations", len(data.Donations)),
	)
	return data, nil
}

// Connected reports whether the last backend fetch succeeded. False
// means reads are being served from the demo dataset.
func (s *SnapshotService) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *SnapshotService) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}

// Mutate applies an optimistic local edit to the cached snapshot so
// reads reflect a write before the next backend fetch. A cold cache is
// loaded first; in demo mode nothing is cached, so the edit is simply
// dropped along with the rest of the demo session. The cached value is
// never modified in place: aggregation reads may still hold it.
func (s *SnapshotService) Mutate(ctx context.Context, fn func(d *domain.AppData)) {
	if _, ok := s.cache.Get(snapshotKey); !ok {
		if _, err := s.Snapshot(ctx); err != nil {
			return
		}
	}
	cur, ok := s.cache.Get(snapshotKey)
	if !ok {
		return
	}
	clone := *cur
	clone.Transactions = append([]domain.Transaction(nil), cur.Transactions...)
	clone.Donations = append([]domain.DonationRecord(nil), cur.Donations...)
	fn(&clone)
	s.cache.Set(snapshotKey, &clone)
}
