// Package billsearch keeps the bill search index in step with the bill store and answers searches.
package billsearch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hyperjump/billsync/internal/eventbus"
	"github.com/hyperjump/billsync/internal/index"
	"github.com/hyperjump/billsync/internal/indexer"
	"github.com/hyperjump/billsync/internal/metrics"
	"github.com/hyperjump/billsync/internal/models"
	"github.com/hyperjump/billsync/internal/storage"
)

const (
	// DefaultBatchSize is the number of bill ids fetched per page during a rebuild.
	DefaultBatchSize = 1000
	// DefaultFetchWorkers bounds concurrent bill loads within one rebuild page.
	DefaultFetchWorkers = 8
)

// Service is the bill index engine: incremental updates, rebuilds, clears and searches.
type Service struct {
	store   storage.BillStore
	index   index.BillIndex
	bus     *eventbus.Bus
	updater *indexer.Updater
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time

	batchSize    int
	fetchWorkers int
	defaultLimit int
	maxLimit     int
	lockPath     string

	indexing   atomic.Bool
	rebuilding atomic.Bool

	// lifecycle serializes rebuilds and clears.
	lifecycle    sync.Mutex
	rebuildGroup singleflight.Group

	mu          sync.Mutex
	sub         *eventbus.Subscription
	baseCtx     context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	lastRebuild *RebuildReport
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics records updates, rebuilds and searches.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock replaces time.Now, which decides the last session a rebuild visits.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithBatchSize sets the rebuild page size.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithFetchWorkers bounds concurrent bill loads during a rebuild.
func WithFetchWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fetchWorkers = n
		}
	}
}

// WithSearchLimits sets the page size used when no cursor is given and the largest page allowed.
func WithSearchLimits(defaultLimit, maxLimit int) Option {
	return func(s *Service) {
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
		if maxLimit >= 0 {
			s.maxLimit = maxLimit
		}
	}
}

// WithRebuildLock sets the file used to keep two processes from rebuilding the same index.
// It must not live inside the index directory, which is removed when the index is cleared.
func WithRebuildLock(path string) Option {
	return func(s *Service) { s.lockPath = path }
}

// WithIndexingEnabled sets the initial state of the indexing switch (default on).
func WithIndexingEnabled(enabled bool) Option {
	return func(s *Service) { s.indexing.Store(enabled) }
}

// NewService wires the engine. bus may be nil when no event delivery is needed.
func NewService(store storage.BillStore, idx index.BillIndex, bus *eventbus.Bus, opts ...Option) *Service {
	s := &Service{
		store:        store,
		index:        idx,
		bus:          bus,
		logger:       zap.NewNop(),
		now:          time.Now,
		batchSize:    DefaultBatchSize,
		fetchWorkers: DefaultFetchWorkers,
		defaultLimit: models.LimitOffsetTen.Limit,
	}
	s.indexing.Store(true)
	for _, opt := range opts {
		opt(s)
	}
	s.updater = indexer.NewUpdater(idx, s.indexing.Load,
		indexer.WithLogger(s.logger.Named("updater")),
		indexer.WithMetrics(s.metrics))
	return s
}

// SetIndexingEnabled flips the administrative indexing switch.
func (s *Service) SetIndexingEnabled(enabled bool) {
	if s.indexing.Swap(enabled) != enabled {
		s.logger.Info("indexing switch changed", zap.Bool("enabled", enabled))
	}
}

// IndexingEnabled reports the indexing switch.
func (s *Service) IndexingEnabled() bool {
	return s.indexing.Load()
}

// UpdateIndex applies one bill to the index.
func (s *Service) UpdateIndex(ctx context.Context, bill *models.Bill) error {
	return s.updater.Apply(ctx, bill)
}

// UpdateIndexBatch applies a collection of bills to the index.
func (s *Service) UpdateIndexBatch(ctx context.Context, bills []*models.Bill) (indexer.BatchResult, error) {
	return s.updater.ApplyBatch(ctx, bills)
}

// Status summarizes the index and store.
type Status struct {
	IndexedBills    uint64         `json:"indexed_bills"`
	StoredBills     int64          `json:"stored_bills"`
	IndexingEnabled bool           `json:"indexing_enabled"`
	Rebuilding      bool           `json:"rebuilding"`
	Subscribed      bool           `json:"subscribed"`
	LastRebuild     *RebuildReport `json:"last_rebuild,omitempty"`
}

// Status reports counts and switches. A missing index counts as zero documents.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	st := &Status{
		IndexingEnabled: s.indexing.Load(),
		Rebuilding:      s.rebuilding.Load(),
	}
	n, err := s.index.DocCount()
	if err != nil && !errors.Is(err, index.ErrIndexMissing) {
		return nil, err
	}
	st.IndexedBills = n
	if st.StoredBills, err = s.store.CountBills(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	st.Subscribed = s.sub != nil
	if s.lastRebuild != nil {
		r := *s.lastRebuild
		st.LastRebuild = &r
	}
	s.mu.Unlock()
	return st, nil
}

// Start subscribes the engine to the bus. Bill events go through the updater; a rebuild event
// that names the bill index starts a rebuild in the background. ctx bounds that background work.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bus == nil || s.sub != nil {
		return
	}
	s.baseCtx, s.cancel = context.WithCancel(ctx)
	s.sub = s.bus.Subscribe("bill-index", s.handleEvent)
	s.logger.Info("bill index engine subscribed to events")
}

// Stop unsubscribes from the bus and waits for background rebuilds to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub == nil {
		return
	}
	sub.Unsubscribe()
	s.wg.Wait()
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
}

func (s *Service) handleEvent(env eventbus.Envelope) {
	ctx := s.baseCtx
	log := s.logger.With(zap.String("event", eventbus.Name(env.Event)), zap.String("event_id", env.ID.String()))
	s.metrics.ObserveEvent(eventbus.Name(env.Event))

	switch ev := env.Event.(type) {
	case eventbus.BillUpdateEvent:
		if ev.Bill == nil {
			return
		}
		if err := s.updater.Apply(ctx, ev.Bill); err != nil {
			log.Error("failed to apply bill update", zap.String("bill", ev.Bill.ID.String()), zap.Error(err))
		}
	case eventbus.BulkBillUpdateEvent:
		if _, err := s.updater.ApplyBatch(ctx, ev.Bills); err != nil {
			log.Error("failed to apply bulk bill update", zap.Int("bills", len(ev.Bills)), zap.Error(err))
		}
	case eventbus.RebuildIndexEvent:
		if !ev.Affects(eventbus.IndexBill) {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			report, err := s.RebuildIndex(ctx)
			if err != nil {
				log.Error("requested index rebuild failed", zap.Error(err))
				return
			}
			log.Info("requested index rebuild finished", zap.Int("indexed", report.Indexed))
		}()
	}
}
