// Package indexer propagates bill changes into the search index.
package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/billsync/internal/index"
	"github.com/hyperjump/billsync/internal/metrics"
	"github.com/hyperjump/billsync/internal/models"
)

// Updater applies single or batched bill changes to the index. Eligible bills are upserted,
// ineligible ones are deleted. When the enabled switch reports false, nothing reaches the index.
type Updater struct {
	index   index.BillIndex
	enabled func() bool
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// UpdaterOption configures an Updater.
type UpdaterOption func(*Updater)

// WithLogger sets a logger for update counts.
func WithLogger(l *zap.Logger) UpdaterOption {
	return func(u *Updater) { u.logger = l }
}

// WithMetrics records indexed and deleted counts.
func WithMetrics(m *metrics.Metrics) UpdaterOption {
	return func(u *Updater) { u.metrics = m }
}

// BatchResult counts what a batch did to the index.
type BatchResult struct {
	Indexed int `json:"indexed"`
	Deleted int `json:"deleted"`
}

// NewUpdater creates an updater writing to idx. A nil enabled func means always enabled.
func NewUpdater(idx index.BillIndex, enabled func() bool, opts ...UpdaterOption) *Updater {
	if enabled == nil {
		enabled = func() bool { return true }
	}
	u := &Updater{
		index:   idx,
		enabled: enabled,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Enabled reports the current state of the indexing switch.
func (u *Updater) Enabled() bool {
	return u.enabled()
}

// Apply upserts an eligible bill or deletes an ineligible one. A nil bill is ignored.
func (u *Updater) Apply(ctx context.Context, bill *models.Bill) error {
	if !u.enabled() {
		u.logger.Debug("indexing disabled, skipping bill update")
		return nil
	}
	if bill == nil {
		return nil
	}
	if IsBillIndexable(bill) {
		if err := u.index.Upsert(ctx, bill); err != nil {
			return fmt.Errorf("failed to index bill %s: %w", bill.ID, err)
		}
		u.metrics.AddIndexed(1)
		u.logger.Info("indexed bill", zap.String("bill", bill.ID.String()))
		return nil
	}
	if err := u.index.Delete(ctx, bill.ID); err != nil {
		return fmt.Errorf("failed to remove bill %s from index: %w", bill.ID, err)
	}
	u.metrics.AddDeleted(1)
	u.logger.Info("removed ineligible bill from index", zap.String("bill", bill.ID.String()))
	return nil
}

// ApplyBatch partitions bills by eligibility, upserts the eligible ones in one batch and deletes
// the rest in another. Nil entries are skipped.
func (u *Updater) ApplyBatch(ctx context.Context, bills []*models.Bill) (BatchResult, error) {
	var res BatchResult
	if !u.enabled() {
		u.logger.Debug("indexing disabled, skipping bulk bill update", zap.Int("bills", len(bills)))
		return res, nil
	}
	if len(bills) == 0 {
		return res, nil
	}

	eligible, ineligible := Partition(bills)

	if len(eligible) > 0 {
		if err := u.index.UpsertBatch(ctx, eligible); err != nil {
			return res, fmt.Errorf("failed to index %d bills: %w", len(eligible), err)
		}
		res.Indexed = len(eligible)
		u.metrics.AddIndexed(res.Indexed)
	}
	if len(ineligible) > 0 {
		if err := u.index.DeleteBatch(ctx, ineligible); err != nil {
			return res, fmt.Errorf("failed to remove %d bills from index: %w", len(ineligible), err)
		}
		res.Deleted = len(ineligible)
		u.metrics.AddDeleted(res.Deleted)
	}
	u.logger.Info("applied bill batch to index",
		zap.Int("indexed", res.Indexed),
		zap.Int("deleted", res.Deleted))
	return res, nil
}

// Partition splits bills into the eligible bills and the ids of the ineligible ones.
// Both subsets are always computed; nil entries belong to neither.
func Partition(bills []*models.Bill) (eligible []*models.Bill, ineligible []models.BaseBillID) {
	for _, b := range bills {
		if b == nil {
			continue
		}
		if IsBillIndexable(b) {
			eligible = append(eligible, b)
		} else {
			ineligible = append(ineligible, b.ID)
		}
	}
	return eligible, ineligible
}
