// Package index provides the bill search index: the projection of bills held by the search backend.
package index

import (
	"context"
	"errors"
	"time"

	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/billsync/internal/models"
	"github.com/hyperjump/billsync/pkg/utils"
)

var (
	// ErrQueryParse marks a query string the backend cannot parse.
	ErrQueryParse = errors.New("query parse failure")
	// ErrIndexMissing is returned when the index was deleted and not recreated.
	ErrIndexMissing = errors.New("index does not exist")
)

// BillIndex is the search backend holding one BillDoc per bill id.
type BillIndex interface {
	CreateIndex(ctx context.Context) error
	DeleteIndex(ctx context.Context) error

	Upsert(ctx context.Context, bill *models.Bill) error
	UpsertBatch(ctx context.Context, bills []*models.Bill) error
	// Delete and DeleteBatch treat ids that are not indexed as success.
	Delete(ctx context.Context, id models.BaseBillID) error
	DeleteBatch(ctx context.Context, ids []models.BaseBillID) error

	Search(ctx context.Context, req *Request) (*Response, error)
	DocCount() (uint64, error)
	Close() error
}

// Request is a translated search: a backend query, an optional filter and paging.
type Request struct {
	Query blevequery.Query
	// PostFilter restricts matches without contributing to the query text. Optional.
	PostFilter  blevequery.Query
	Sort        []string
	LimitOffset models.LimitOffset
}

// Hit is a matching document id with its score.
type Hit struct {
	ID    string
	Score float64
}

// Response holds one page of hits and the total match count.
type Response struct {
	Hits  []Hit
	Total uint64
	Took  time.Duration
}

// BillDoc is the indexed projection of a bill.
type BillDoc struct {
	ID          string    `json:"id"`
	PrintNo     string    `json:"printNo"`
	Session     float64   `json:"session"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Sponsor     string    `json:"sponsor"`
	Status      string    `json:"status"`
	Version     string    `json:"version"`
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"publishedAt"`
}

// NewBillDoc projects a bill into its indexed form.
func NewBillDoc(bill *models.Bill) *BillDoc {
	doc := &BillDoc{
		ID:      bill.ID.String(),
		PrintNo: bill.ID.PrintNo,
		Session: float64(bill.ID.Session),
		Title:   utils.CollapseWhitespace(bill.Title),
		Summary: utils.CollapseWhitespace(bill.Summary),
		Sponsor: bill.Sponsor,
		Status:  bill.Status,
	}
	if active, ok := bill.ActiveAmendment(); ok {
		doc.Version = active.Version
		doc.Text = utils.CollapseWhitespace(active.Text)
		if active.PublishedAt != nil {
			doc.PublishedAt = *active.PublishedAt
		}
	}
	return doc
}
