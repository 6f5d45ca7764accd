package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/hyperjump/billsync/internal/models"
)

func publishedBill(printNo string, session int) *models.Bill {
	return &models.Bill{
		ID:    models.NewBaseBillID(printNo, session),
		Title: "An act relating to " + printNo,
		Amendments: []models.BillAmendment{
			{Version: "", Published: true, Text: "text of " + printNo},
		},
	}
}

func TestSQLiteStorage_CRUD(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSQLiteStorage(filepath.Join(dir, "bills.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	bill := publishedBill("S100", 2021)
	bill.Sponsor = "SMITH"
	if err := store.PutBill(ctx, bill); err != nil {
		t.Fatal(err)
	}
	if bill.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}

	got, err := store.GetBill(ctx, bill.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != bill.Title || got.Sponsor != "SMITH" {
		t.Errorf("got %+v", got)
	}
	if !got.IsBaseVersionPublished() {
		t.Error("amendments should round-trip through storage")
	}

	bill.Title = "Updated"
	if err := store.PutBill(ctx, bill); err != nil {
		t.Fatal(err)
	}
	got, err = store.GetBill(ctx, bill.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Updated" {
		t.Errorf("cached bill not invalidated on update: title=%q", got.Title)
	}

	n, err := store.CountBills(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("CountBills = %d, want 1", n)
	}

	if err := store.DeleteBill(ctx, bill.ID); err != nil {
		t.Fatal(err)
	}
	_, err = store.GetBill(ctx, bill.ID)
	if !errors.Is(err, ErrBillNotFound) {
		t.Errorf("expected ErrBillNotFound after delete, got %v", err)
	}
}

func TestSQLiteStorage_GetBillReturnsCopy(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	bill := publishedBill("S1", 2021)
	if err := store.PutBill(ctx, bill); err != nil {
		t.Fatal(err)
	}
	first, _ := store.GetBill(ctx, bill.ID)
	first.Title = "mutated"
	first.Amendments[0].Published = false

	second, err := store.GetBill(ctx, bill.ID)
	if err != nil {
		t.Fatal(err)
	}
	if second.Title == "mutated" || !second.IsBaseVersionPublished() {
		t.Error("mutating a returned bill must not affect the cache")
	}
}

func TestSQLiteStorage_ActiveSessionRange(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	if _, ok, err := store.ActiveSessionRange(ctx); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v, want ok=false", ok, err)
	}

	bills := []*models.Bill{publishedBill("S1", 2017), publishedBill("S2", 2021), publishedBill("A3", 2019)}
	if err := store.PutBills(ctx, bills); err != nil {
		t.Fatal(err)
	}
	r, ok, err := store.ActiveSessionRange(ctx)
	if err != nil || !ok {
		t.Fatalf("ActiveSessionRange: ok=%v err=%v", ok, err)
	}
	if r.Lower != 2017 || r.Upper != 2021 {
		t.Errorf("range = %+v, want 2017..2021", r)
	}
}

func TestSQLiteStorage_BillIDsPaging(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	var bills []*models.Bill
	for i := 0; i < 25; i++ {
		bills = append(bills, publishedBill(fmt.Sprintf("S%03d", i), 2021))
	}
	bills = append(bills, publishedBill("S999", 2023))
	if err := store.PutBills(ctx, bills); err != nil {
		t.Fatal(err)
	}

	seen := make(map[models.BaseBillID]bool)
	limOff := models.LimitOffset{Limit: 10}
	fetches := 0
	for {
		ids, err := store.BillIDs(ctx, 2021, limOff)
		if err != nil {
			t.Fatal(err)
		}
		fetches++
		if len(ids) == 0 {
			break
		}
		for _, id := range ids {
			if seen[id] {
				t.Errorf("id %s visited twice", id)
			}
			seen[id] = true
			if id.Session != 2021 {
				t.Errorf("id %s from wrong session", id)
			}
		}
		limOff = limOff.Next()
	}
	if len(seen) != 25 {
		t.Errorf("visited %d ids, want 25", len(seen))
	}
	if fetches != 4 {
		t.Errorf("fetches = %d, want 3 pages + 1 empty", fetches)
	}
}

func TestSQLiteStorage_PutBillRequiresID(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if err := store.PutBill(context.Background(), &models.Bill{Title: "no id"}); err == nil {
		t.Error("expected error for bill without id")
	}
}

func TestSQLiteStorage_WriteDuringReadIsNotCachedStale(t *testing.T) {
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "bills.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	draft := publishedBill("S100", 2021)
	draft.Amendments[0].Published = false
	if err := store.PutBill(ctx, draft); err != nil {
		t.Fatal(err)
	}

	// The write lands after the read scanned the old row but before it fills the cache.
	wrote := false
	store.afterRead = func() {
		if wrote {
			return
		}
		wrote = true
		if err := store.PutBill(ctx, publishedBill("S100", 2021)); err != nil {
			t.Error(err)
		}
	}
	old, err := store.GetBill(ctx, draft.ID)
	if err != nil {
		t.Fatal(err)
	}
	if old.IsBaseVersionPublished() {
		t.Fatal("first read should see the row as it was when scanned")
	}
	store.afterRead = nil

	got, err := store.GetBill(ctx, draft.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsBaseVersionPublished() {
		t.Error("read after the write returned the stale cached bill")
	}
}

func TestSQLiteStorage_NormalizesSession(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	bill := publishedBill("s7", 2021)
	bill.ID = models.BaseBillID{PrintNo: "s7", Session: 2022}
	if err := store.PutBill(ctx, bill); err != nil {
		t.Fatal(err)
	}
	if bill.ID != models.NewBaseBillID("S7", 2021) {
		t.Errorf("id after put = %+v, want S7-2021", bill.ID)
	}
	ids, err := store.BillIDs(ctx, 2021, models.LimitOffset{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0].String() != "S7-2021" {
		t.Errorf("session 2021 ids = %v", ids)
	}
	if _, err := store.GetBill(ctx, models.BaseBillID{PrintNo: "S7", Session: 2022}); err != nil {
		t.Errorf("lookup by even year: %v", err)
	}
	if err := store.DeleteBill(ctx, models.BaseBillID{PrintNo: "s7", Session: 2022}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetBill(ctx, bill.ID); !errors.Is(err, ErrBillNotFound) {
		t.Errorf("after delete: %v, want ErrBillNotFound", err)
	}
}
