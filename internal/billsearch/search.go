package billsearch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"github.com/hyperjump/billsync/internal/index"
	"github.com/hyperjump/billsync/internal/models"
	"github.com/hyperjump/billsync/internal/storage"
)

// Search call shapes, used as the metrics "kind" label.
const (
	kindSession     = "session"
	kindText        = "text"
	kindTextSession = "text_session"
)

// sortFields are the index fields a caller may sort on.
var sortFields = map[string]bool{
	"session":     true,
	"printNo":     true,
	"status":      true,
	"version":     true,
	"publishedAt": true,
	"_score":      true,
	"_id":         true,
}

// ParseSort translates "field:ASC,field2:DESC" into index sort keys. The order defaults to ASC.
// An empty expression yields nil, which ranks by descending score.
func ParseSort(expr string) ([]string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	var keys []string
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, order, _ := strings.Cut(part, ":")
		field = strings.TrimSpace(field)
		if !sortFields[field] {
			return nil, fmt.Errorf("cannot sort on %q", field)
		}
		switch strings.ToUpper(strings.TrimSpace(order)) {
		case "", "ASC":
			keys = append(keys, field)
		case "DESC":
			keys = append(keys, "-"+field)
		default:
			return nil, fmt.Errorf("invalid sort order %q for %s", order, field)
		}
	}
	return keys, nil
}

// SearchBySession returns every indexed bill of one session.
func (s *Service) SearchBySession(ctx context.Context, session models.SessionYear, sort string, limOff *models.LimitOffset) (*models.SearchResults, error) {
	return s.search(ctx, kindSession, "", &session, sort, limOff)
}

// SearchByText runs a query-string search across all sessions.
func (s *Service) SearchByText(ctx context.Context, text, sort string, limOff *models.LimitOffset) (*models.SearchResults, error) {
	return s.search(ctx, kindText, text, nil, sort, limOff)
}

// SearchByTextAndSession runs a query-string search restricted to one session.
func (s *Service) SearchByTextAndSession(ctx context.Context, text string, session models.SessionYear, sort string, limOff *models.LimitOffset) (*models.SearchResults, error) {
	return s.search(ctx, kindTextSession, text, &session, sort, limOff)
}

func (s *Service) search(ctx context.Context, kind, text string, session *models.SessionYear, sort string, limOff *models.LimitOffset) (res *models.SearchResults, err error) {
	startTime := time.Now()
	defer func() {
		outcome := "ok"
		var se *SearchError
		if errors.As(err, &se) {
			outcome = se.Kind.String() + "_error"
		}
		s.metrics.ObserveSearch(kind, outcome)
	}()

	page := s.page(limOff)
	keys, err := ParseSort(sort)
	if err != nil {
		return nil, parseError(text, err)
	}

	req := &index.Request{Sort: keys, LimitOffset: page}
	if kind == kindSession {
		req.Query = index.MatchAll()
	} else {
		var q blevequery.Query
		if q, err = index.ParseQueryString(text); err != nil {
			return nil, parseError(text, err)
		}
		req.Query = q
	}
	if session != nil {
		req.PostFilter = index.SessionFilter(*session)
	}

	resp, err := s.index.Search(ctx, req)
	if err != nil {
		s.logger.Warn("bill search failed", zap.String("kind", kind), zap.String("query", text), zap.Error(err))
		return nil, backendError(text, err)
	}

	res = &models.SearchResults{
		Results:     make([]*models.SearchResult, 0, len(resp.Hits)),
		Total:       resp.Total,
		LimitOffset: page,
		Query:       text,
	}
	for i, hit := range resp.Hits {
		id, perr := models.ParseBaseBillID(hit.ID)
		if perr != nil {
			return nil, backendError(text, fmt.Errorf("index returned unknown document id: %w", perr))
		}
		res.Results = append(res.Results, &models.SearchResult{
			ID:    id,
			Score: hit.Score,
			Rank:  page.Offset + i + 1,
		})
	}
	res.QueryTime = time.Since(startTime).Milliseconds()
	return res, nil
}

func (s *Service) page(limOff *models.LimitOffset) models.LimitOffset {
	page := models.LimitOffset{Limit: s.defaultLimit}
	if limOff != nil {
		page = *limOff
	}
	if page.Limit <= 0 {
		page.Limit = s.defaultLimit
	}
	if page.Offset < 0 {
		page.Offset = 0
	}
	return page.Capped(s.maxLimit)
}

// LoadBills fills each result's Bill from the store. Results whose bill has since been removed from
// the store keep a nil Bill.
func (s *Service) LoadBills(ctx context.Context, results *models.SearchResults) error {
	for _, r := range results.Results {
		bill, err := s.store.GetBill(ctx, r.ID)
		if errors.Is(err, storage.ErrBillNotFound) {
			s.logger.Debug("search hit missing from store", zap.String("bill", r.ID.String()))
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load bill %s: %w", r.ID, err)
		}
		r.Bill = bill
	}
	return nil
}
