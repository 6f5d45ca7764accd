package index

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"github.com/hyperjump/billsync/internal/models"
)

const billDocType = "bill"

// BleveIndex implements BillIndex using Bleve. The underlying index can be deleted and recreated
// while the BleveIndex value stays in use; operations between the two fail with ErrIndexMissing.
type BleveIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	logger *zap.Logger
}

// BleveOption configures a BleveIndex.
type BleveOption func(*BleveIndex)

// WithLogger sets a logger for index lifecycle events.
func WithLogger(l *zap.Logger) BleveOption {
	return func(b *BleveIndex) { b.logger = l }
}

// NewBleveIndex opens the Bleve index at path, creating it if it does not exist.
// An empty path keeps the index in memory.
func NewBleveIndex(path string, opts ...BleveOption) (*BleveIndex, error) {
	b := &BleveIndex{path: path, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			idx, openErr := bleve.Open(path)
			if openErr != nil {
				return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
			}
			b.index = idx
			return b, nil
		}
	}
	idx, err := b.newIndex()
	if err != nil {
		return nil, err
	}
	b.index = idx
	return b, nil
}

// Path returns the on-disk location of the index, or "" for an in-memory index.
func (b *BleveIndex) Path() string {
	return b.path
}

func (b *BleveIndex) newIndex() (bleve.Index, error) {
	im := newBillMapping()
	var (
		idx bleve.Index
		err error
	)
	if b.path == "" {
		idx, err = bleve.NewMemOnly(im)
	} else {
		idx, err = bleve.New(b.path, im)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return idx, nil
}

func newBillMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", text)
	docMapping.AddFieldMappingsAt("summary", text)
	docMapping.AddFieldMappingsAt("text", text)
	docMapping.AddFieldMappingsAt("sponsor", text)

	kw := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("id", kw)
	docMapping.AddFieldMappingsAt("printNo", kw)
	docMapping.AddFieldMappingsAt("status", kw)
	docMapping.AddFieldMappingsAt("version", kw)

	docMapping.AddFieldMappingsAt("session", bleve.NewNumericFieldMapping())
	docMapping.AddFieldMappingsAt("publishedAt", bleve.NewDateTimeFieldMapping())

	im.AddDocumentMapping(billDocType, docMapping)
	im.DefaultType = billDocType
	im.DefaultMapping = docMapping
	return im
}

// CreateIndex creates an empty index. It is a no-op when the index already exists.
func (b *BleveIndex) CreateIndex(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.index != nil {
		return nil
	}
	idx, err := b.newIndex()
	if err != nil {
		return err
	}
	b.index = idx
	b.logger.Info("bill index created", zap.String("path", b.path))
	return nil
}

// DeleteIndex closes the index and removes its files. Deleting a missing index is a no-op.
func (b *BleveIndex) DeleteIndex(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.index == nil {
		return nil
	}
	if err := b.index.Close(); err != nil {
		return fmt.Errorf("failed to close Bleve index: %w", err)
	}
	b.index = nil
	if b.path != "" {
		if err := os.RemoveAll(b.path); err != nil {
			return fmt.Errorf("failed to remove Bleve index: %w", err)
		}
	}
	b.logger.Info("bill index deleted", zap.String("path", b.path))
	return nil
}

// Upsert indexes the bill's projection, replacing any previous entry with the same id.
func (b *BleveIndex) Upsert(ctx context.Context, bill *models.Bill) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.index == nil {
		return ErrIndexMissing
	}
	doc := NewBillDoc(bill)
	if err := b.index.Index(doc.ID, doc); err != nil {
		return fmt.Errorf("failed to index bill %s: %w", doc.ID, err)
	}
	return nil
}

// UpsertBatch indexes all bills in one Bleve batch.
func (b *BleveIndex) UpsertBatch(ctx context.Context, bills []*models.Bill) error {
	if len(bills) == 0 {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.index == nil {
		return ErrIndexMissing
	}
	batch := b.index.NewBatch()
	for _, bill := range bills {
		doc := NewBillDoc(bill)
		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("failed to index bill %s: %w", doc.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}
	return nil
}

// Delete removes a bill from the index.
func (b *BleveIndex) Delete(ctx context.Context, id models.BaseBillID) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.index == nil {
		return ErrIndexMissing
	}
	if err := b.index.Delete(id.String()); err != nil {
		return fmt.Errorf("failed to delete bill %s: %w", id, err)
	}
	return nil
}

// DeleteBatch removes bills from the index in one Bleve batch.
func (b *BleveIndex) DeleteBatch(ctx context.Context, ids []models.BaseBillID) error {
	if len(ids) == 0 {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.index == nil {
		return ErrIndexMissing
	}
	batch := b.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id.String())
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

// Search executes req. A post filter is applied as a conjunction with the query.
func (b *BleveIndex) Search(ctx context.Context, req *Request) (*Response, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.index == nil {
		return nil, ErrIndexMissing
	}
	q := req.Query
	if q == nil {
		q = bleve.NewMatchAllQuery()
	}
	if req.PostFilter != nil {
		q = bleve.NewConjunctionQuery(q, req.PostFilter)
	}
	sr := bleve.NewSearchRequestOptions(q, req.LimitOffset.Limit, req.LimitOffset.Offset, false)
	if len(req.Sort) > 0 {
		sr.SortBy(req.Sort)
	}
	results, err := b.index.SearchInContext(ctx, sr)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := &Response{
		Hits:  make([]Hit, len(results.Hits)),
		Total: results.Total,
		Took:  results.Took,
	}
	for i, hit := range results.Hits {
		out.Hits[i] = Hit{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// DocCount returns the number of indexed bills.
func (b *BleveIndex) DocCount() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.index == nil {
		return 0, ErrIndexMissing
	}
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.index == nil {
		return nil
	}
	err := b.index.Close()
	b.index = nil
	return err
}

// ParseQueryString builds a query-string query, failing with ErrQueryParse on bad syntax.
func ParseQueryString(text string) (blevequery.Query, error) {
	q := bleve.NewQueryStringQuery(text)
	if _, err := q.Parse(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryParse, err)
	}
	return q, nil
}

// SessionFilter matches bills of exactly one session.
func SessionFilter(session models.SessionYear) blevequery.Query {
	v := float64(session)
	inclusive := true
	q := bleve.NewNumericRangeInclusiveQuery(&v, &v, &inclusive, &inclusive)
	q.SetField("session")
	return q
}

// MatchAll matches every indexed bill.
func MatchAll() blevequery.Query {
	return bleve.NewMatchAllQuery()
}
