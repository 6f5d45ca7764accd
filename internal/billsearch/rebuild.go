package billsearch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/billsync/internal/metrics"
	"github.com/hyperjump/billsync/internal/models"
	"github.com/hyperjump/billsync/internal/storage"
)

// RebuildReport describes one completed rebuild.
type RebuildReport struct {
	StartedAt time.Time            `json:"started_at"`
	Duration  time.Duration        `json:"duration"`
	Sessions  []models.SessionYear `json:"sessions"`
	// Fetches counts id pages requested from the store, including the empty page ending each session.
	Fetches    int  `json:"fetches"`
	Bills      int  `json:"bills"`
	Indexed    int  `json:"indexed"`
	Deleted    int  `json:"deleted"`
	Missing    int  `json:"missing"`
	EmptyStore bool `json:"empty_store"`
}

// ClearIndex deletes the index and recreates it empty. It waits for a running rebuild to finish.
func (s *Service) ClearIndex(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return s.clearIndex(ctx)
}

func (s *Service) clearIndex(ctx context.Context) error {
	if err := s.index.DeleteIndex(ctx); err != nil {
		return fmt.Errorf("failed to delete index: %w", err)
	}
	if err := s.index.CreateIndex(ctx); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	s.logger.Info("bill index cleared")
	return nil
}

// RebuildIndex clears the index and repopulates it from the store, session by session, from the
// earliest session in the store through the current one. Concurrent callers in this process share
// one run; a rebuild held by another process makes it fail with ErrRebuildInProgress.
// A failure part way leaves the index with whatever pages were applied.
//
// Once started, a rebuild runs to completion regardless of ctx. Cancelling ctx only stops this
// caller from waiting and returns ctx.Err().
func (s *Service) RebuildIndex(ctx context.Context) (RebuildReport, error) {
	runCtx := context.WithoutCancel(ctx)
	ch := s.rebuildGroup.DoChan("rebuild", func() (interface{}, error) {
		return s.rebuild(runCtx)
	})
	select {
	case res := <-ch:
		report, _ := res.Val.(RebuildReport)
		return report, res.Err
	case <-ctx.Done():
		return RebuildReport{}, ctx.Err()
	}
}

func (s *Service) rebuild(ctx context.Context) (report RebuildReport, err error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	report.StartedAt = s.now()
	release, err := s.lockRebuild()
	if err != nil {
		s.metrics.ObserveRebuild(metrics.OutcomeBusy, 0)
		return report, err
	}
	defer release()

	s.rebuilding.Store(true)
	defer s.rebuilding.Store(false)

	start := time.Now()
	defer func() {
		report.Duration = time.Since(start)
		outcome := metrics.OutcomeSuccess
		switch {
		case err != nil:
			outcome = metrics.OutcomeFailed
		case report.EmptyStore:
			outcome = metrics.OutcomeEmpty
		}
		s.metrics.ObserveRebuild(outcome, report.Duration)
		s.metrics.AddMissing(report.Missing)
		if err == nil {
			s.mu.Lock()
			r := report
			s.lastRebuild = &r
			s.mu.Unlock()
		}
	}()

	s.logger.Info("rebuilding bill index", zap.Bool("indexing_enabled", s.indexing.Load()))
	if err = s.clearIndex(ctx); err != nil {
		return report, err
	}

	sessions, ok, err := s.store.ActiveSessionRange(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to read active sessions: %w", err)
	}
	if !ok {
		report.EmptyStore = true
		s.logger.Info("no active sessions in bill store, nothing to rebuild")
		return report, nil
	}

	last := models.CurrentSession(s.now())
	for session := sessions.Lower; session <= last; session = session.Next() {
		if err = s.rebuildSession(ctx, session, &report); err != nil {
			return report, err
		}
		report.Sessions = append(report.Sessions, session)
	}

	s.logger.Info("bill index rebuilt",
		zap.Int("sessions", len(report.Sessions)),
		zap.Int("bills", report.Bills),
		zap.Int("indexed", report.Indexed),
		zap.Int("deleted", report.Deleted),
		zap.Int("missing", report.Missing))
	return report, nil
}

func (s *Service) rebuildSession(ctx context.Context, session models.SessionYear, report *RebuildReport) error {
	limOff := models.LimitOffset{Limit: s.batchSize}
	for {
		ids, err := s.store.BillIDs(ctx, session, limOff)
		if err != nil {
			return fmt.Errorf("failed to list bills for session %s: %w", session, err)
		}
		report.Fetches++
		if len(ids) == 0 {
			return nil
		}
		bills, err := s.fetchBills(ctx, ids)
		if err != nil {
			return err
		}
		report.Bills += len(ids)
		report.Missing += len(ids) - len(bills)

		res, err := s.updater.ApplyBatch(ctx, bills)
		if err != nil {
			return fmt.Errorf("failed to index session %s (%s): %w", session, limOff, err)
		}
		report.Indexed += res.Indexed
		report.Deleted += res.Deleted
		s.logger.Debug("rebuilt bill page",
			zap.Stringer("session", session),
			zap.Int("offset", limOff.Offset),
			zap.Int("bills", len(bills)))
		limOff = limOff.Next()
	}
}

// fetchBills loads every id in parallel, keeping the order of ids. Bills that cannot be found
// are logged and left out.
func (s *Service) fetchBills(ctx context.Context, ids []models.BaseBillID) ([]*models.Bill, error) {
	loaded := make([]*models.Bill, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fetchWorkers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			bill, err := s.store.GetBill(gctx, id)
			if errors.Is(err, storage.ErrBillNotFound) {
				s.logger.Warn("bill listed by store but not found, skipping", zap.String("bill", id.String()))
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to load bill %s: %w", id, err)
			}
			loaded[i] = bill
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	bills := loaded[:0]
	for _, b := range loaded {
		if b != nil {
			bills = append(bills, b)
		}
	}
	return bills, nil
}

// lockRebuild takes the cross-process rebuild lock, if one is configured.
func (s *Service) lockRebuild() (func(), error) {
	if s.lockPath == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	fl := flock.New(s.lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire rebuild lock: %w", err)
	}
	if !locked {
		return nil, ErrRebuildInProgress
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			s.logger.Warn("failed to release rebuild lock", zap.Error(err))
		}
	}, nil
}
