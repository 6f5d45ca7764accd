package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/billsync/internal/models"
)

func testBill(printNo string, session int, title string) *models.Bill {
	return &models.Bill{
		ID:    models.NewBaseBillID(printNo, session),
		Title: title,
		Amendments: []models.BillAmendment{
			{Version: "", Published: true, Text: "Text of " + title},
		},
	}
}

func search(t *testing.T, idx *BleveIndex, text string, filter *models.SessionYear) *Response {
	t.Helper()
	q, err := ParseQueryString(text)
	if err != nil {
		t.Fatalf("ParseQueryString(%q): %v", text, err)
	}
	req := &Request{Query: q, LimitOffset: models.LimitOffsetHundred}
	if filter != nil {
		req.PostFilter = SessionFilter(*filter)
	}
	resp, err := idx.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	return resp
}

func TestBleveIndex_UpsertIsIdempotent(t *testing.T) {
	idx, err := NewBleveIndex("")
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	defer func() {
		_ = idx.Close()
	}()
	ctx := context.Background()

	bill := testBill("S100", 2021, "Budget appropriations")
	for i := 0; i < 2; i++ {
		if err := idx.Upsert(ctx, bill); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	n, err := idx.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("DocCount = %d after upserting the same bill twice, want 1", n)
	}
	resp := search(t, idx, "budget", nil)
	if resp.Total != 1 || resp.Hits[0].ID != "S100-2021" {
		t.Errorf("unexpected hits: %+v", resp)
	}
}

func TestBleveIndex_SessionFilter(t *testing.T) {
	idx, err := NewBleveIndex("")
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	bills := []*models.Bill{
		testBill("S1", 2019, "Highway budget"),
		testBill("S2", 2021, "School budget"),
		testBill("S3", 2021, "Parks"),
	}
	if err := idx.UpsertBatch(ctx, bills); err != nil {
		t.Fatal(err)
	}

	session := models.SessionYear(2021)
	resp := search(t, idx, "budget", &session)
	if resp.Total != 1 || resp.Hits[0].ID != "S2-2021" {
		t.Errorf("filtered search: %+v", resp)
	}

	all, err := idx.Search(ctx, &Request{Query: MatchAll(), PostFilter: SessionFilter(session), LimitOffset: models.LimitOffsetTen})
	if err != nil {
		t.Fatal(err)
	}
	if all.Total != 2 {
		t.Errorf("session 2021 match-all total = %d, want 2", all.Total)
	}
}

func TestBleveIndex_DeleteToleratesAbsent(t *testing.T) {
	idx, err := NewBleveIndex("")
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	bill := testBill("S1", 2021, "onlyinone")
	if err := idx.Upsert(ctx, bill); err != nil {
		t.Fatal(err)
	}
	if err := idx.Delete(ctx, bill.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := idx.Delete(ctx, bill.ID); err != nil {
		t.Errorf("deleting an absent bill should succeed, got %v", err)
	}
	if err := idx.DeleteBatch(ctx, []models.BaseBillID{bill.ID, models.NewBaseBillID("X9", 2021)}); err != nil {
		t.Errorf("DeleteBatch with absent ids: %v", err)
	}
	if resp := search(t, idx, "onlyinone", nil); resp.Total != 0 {
		t.Errorf("expected 0 results after delete, got %d", resp.Total)
	}
}

func TestBleveIndex_DeleteAndRecreate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index")
	idx, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	if err := idx.Upsert(ctx, testBill("S1", 2021, "before")); err != nil {
		t.Fatal(err)
	}
	if err := idx.DeleteIndex(ctx); err != nil {
		t.Fatalf("DeleteIndex: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("index directory should be removed, stat err = %v", err)
	}
	if err := idx.Upsert(ctx, testBill("S2", 2021, "x")); !errors.Is(err, ErrIndexMissing) {
		t.Errorf("Upsert on deleted index: got %v, want ErrIndexMissing", err)
	}
	if err := idx.DeleteIndex(ctx); err != nil {
		t.Errorf("second DeleteIndex should be a no-op, got %v", err)
	}
	if err := idx.CreateIndex(ctx); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	n, err := idx.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("recreated index should be empty, got %d docs", n)
	}
}

func TestBleveIndex_ReopenExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "index")
	idx1, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := idx1.Upsert(ctx, testBill("S1", 2021, "persistentword")); err != nil {
		t.Fatal(err)
	}
	if err := idx1.Close(); err != nil {
		t.Fatal(err)
	}

	idx2, err := NewBleveIndex(path)
	if err != nil {
		t.Fatalf("NewBleveIndex (open existing): %v", err)
	}
	defer idx2.Close()
	if resp := search(t, idx2, "persistentword", nil); resp.Total != 1 {
		t.Errorf("reopened index: got %d results, want 1", resp.Total)
	}
}

func TestBleveIndex_PagingAndSort(t *testing.T) {
	idx, err := NewBleveIndex("")
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	var bills []*models.Bill
	for _, p := range []string{"S5", "S1", "S4", "S2", "S3"} {
		bills = append(bills, testBill(p, 2021, "tax"))
	}
	if err := idx.UpsertBatch(ctx, bills); err != nil {
		t.Fatal(err)
	}
	req := &Request{Query: MatchAll(), Sort: []string{"printNo"}, LimitOffset: models.LimitOffset{Limit: 2, Offset: 2}}
	resp, err := idx.Search(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 5 {
		t.Errorf("Total = %d, want 5", resp.Total)
	}
	if len(resp.Hits) != 2 || resp.Hits[0].ID != "S3-2021" || resp.Hits[1].ID != "S4-2021" {
		t.Errorf("page 2 = %+v, want S3, S4", resp.Hits)
	}
}

func TestParseQueryString(t *testing.T) {
	if _, err := ParseQueryString("budget*"); err != nil {
		t.Errorf("budget* should parse: %v", err)
	}
	if _, err := ParseQueryString(`title:-budget*`); !errors.Is(err, ErrQueryParse) {
		t.Errorf("malformed query: got %v, want ErrQueryParse", err)
	}
}

func TestNewBillDoc(t *testing.T) {
	bill := testBill("s7", 2022, "Title")
	bill.Amendments = append(bill.Amendments, models.BillAmendment{Version: "A", Published: true, Text: "amended"})
	doc := NewBillDoc(bill)
	if doc.ID != "S7-2021" || doc.Session != 2021 || doc.PrintNo != "S7" {
		t.Errorf("unexpected projection: %+v", doc)
	}
	if doc.Version != "A" || doc.Text != "amended" {
		t.Errorf("projection should carry the active amendment, got version=%q text=%q", doc.Version, doc.Text)
	}
}
