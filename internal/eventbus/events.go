// Package eventbus delivers bill change notifications and rebuild requests from producers to subscribers.
package eventbus

import (
	"time"

	"github.com/google/uuid"

	"github.com/hyperjump/billsync/internal/models"
)

// SearchIndex names one of the search indexes a rebuild request can target.
type SearchIndex string

const (
	IndexBill       SearchIndex = "bill"
	IndexAgenda     SearchIndex = "agenda"
	IndexCalendar   SearchIndex = "calendar"
	IndexTranscript SearchIndex = "transcript"
	IndexLaw        SearchIndex = "law"
)

// Event is any notification carried by the bus.
type Event interface {
	eventName() string
}

// BillUpdateEvent signals that one bill changed in the canonical store.
type BillUpdateEvent struct {
	Bill *models.Bill
}

// BulkBillUpdateEvent signals that a batch of bills changed.
type BulkBillUpdateEvent struct {
	Bills []*models.Bill
}

// RebuildIndexEvent requests a full rebuild of the named indexes.
type RebuildIndexEvent struct {
	Indexes []SearchIndex
}

// Affects reports whether the event targets idx.
func (e RebuildIndexEvent) Affects(idx SearchIndex) bool {
	for _, i := range e.Indexes {
		if i == idx {
			return true
		}
	}
	return false
}

func (BillUpdateEvent) eventName() string     { return "bill_update" }
func (BulkBillUpdateEvent) eventName() string { return "bulk_bill_update" }
func (RebuildIndexEvent) eventName() string   { return "rebuild_index" }

// Name returns a short label for the event kind, used in logs and metrics.
func Name(ev Event) string {
	if ev == nil {
		return "unknown"
	}
	return ev.eventName()
}

// Envelope wraps a published event with its id and publish time.
type Envelope struct {
	ID          uuid.UUID
	PublishedAt time.Time
	Event       Event
}
