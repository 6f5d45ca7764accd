// Package storage defines the canonical bill store that the search index is kept in sync with.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/billsync/internal/models"
)

// ErrBillNotFound is returned (wrapped) when a bill id has no record.
var ErrBillNotFound = errors.New("bill not found")

// BillStore is the system of record for bills.
type BillStore interface {
	// ActiveSessionRange returns the lowest and highest sessions holding bills.
	// ok is false when the store is empty.
	ActiveSessionRange(ctx context.Context) (r models.SessionRange, ok bool, err error)
	// BillIDs returns at most limOff.Limit ids of the session, ordered by print number.
	BillIDs(ctx context.Context, session models.SessionYear, limOff models.LimitOffset) ([]models.BaseBillID, error)
	GetBill(ctx context.Context, id models.BaseBillID) (*models.Bill, error)

	PutBill(ctx context.Context, bill *models.Bill) error
	PutBills(ctx context.Context, bills []*models.Bill) error
	DeleteBill(ctx context.Context, id models.BaseBillID) error
	CountBills(ctx context.Context) (int64, error)

	Close() error
}
