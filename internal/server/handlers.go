package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/billsync/internal/billsearch"
	"github.com/hyperjump/billsync/internal/eventbus"
	"github.com/hyperjump/billsync/internal/models"
	"github.com/hyperjump/billsync/internal/storage"
)

const maxBodyBytes = 32 << 20

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term := strings.TrimSpace(q.Get("term"))
	sort := q.Get("sort")

	var session *models.SessionYear
	if v := q.Get("session"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil || year <= 0 {
			s.respondError(w, http.StatusBadRequest, "invalid session")
			return
		}
		sy := models.NewSessionYear(year)
		session = &sy
	}
	limOff, err := parseLimitOffset(q.Get("limit"), q.Get("offset"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if term == "" && session == nil {
		s.respondError(w, http.StatusBadRequest, "term or session is required")
		return
	}

	ctx := r.Context()
	s.logger.Debug("search request", zap.String("term", term), zap.Any("session", session), zap.String("sort", sort))
	var res *models.SearchResults
	switch {
	case term == "":
		res, err = s.service.SearchBySession(ctx, *session, sort, limOff)
	case session == nil:
		res, err = s.service.SearchByText(ctx, term, sort, limOff)
	default:
		res, err = s.service.SearchByTextAndSession(ctx, term, *session, sort, limOff)
	}
	if err != nil {
		s.respondSearchError(w, err)
		return
	}
	if full, _ := strconv.ParseBool(q.Get("full")); full {
		if err := s.service.LoadBills(ctx, res); err != nil {
			s.logger.Error("loading bills for search results failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) respondSearchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billsearch.ErrQueryParse):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, billsearch.ErrSearchBackend):
		s.logger.Error("search backend failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
	default:
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// parseLimitOffset returns nil when neither value is given, leaving the page size to the service.
func parseLimitOffset(limit, offset string) (*models.LimitOffset, error) {
	if limit == "" && offset == "" {
		return nil, nil
	}
	lo := models.LimitOffset{}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid limit %q", limit)
		}
		lo.Limit = n
	}
	if offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid offset %q", offset)
		}
		lo.Offset = n
	}
	return &lo, nil
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseBaseBillID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	bill, err := s.store.GetBill(r.Context(), id)
	if errors.Is(err, storage.ErrBillNotFound) {
		s.respondError(w, http.StatusNotFound, "bill not found")
		return
	}
	if err != nil {
		s.logger.Error("get bill failed", zap.String("bill", id.String()), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, bill)
}

type billsRequest struct {
	Bills []*models.Bill `json:"bills"`
}

// decodeBills accepts a single bill object or {"bills": [...]}, normalizing every id.
func decodeBills(body io.Reader) ([]*models.Bill, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(io.LimitReader(body, maxBodyBytes)).Decode(&raw); err != nil {
		return nil, errors.New("invalid request body")
	}
	var bills []*models.Bill
	var batch billsRequest
	if err := json.Unmarshal(raw, &batch); err == nil && batch.Bills != nil {
		bills = batch.Bills
	} else {
		var single models.Bill
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, errors.New("invalid request body")
		}
		bills = []*models.Bill{&single}
	}
	if len(bills) == 0 {
		return nil, errors.New("no bills in request")
	}
	for i, b := range bills {
		if b == nil || b.ID.IsZero() || b.ID.Session <= 0 {
			return nil, fmt.Errorf("bill %d: id with print_no and session is required", i)
		}
		b.ID = models.NewBaseBillID(b.ID.PrintNo, int(b.ID.Session))
	}
	return bills, nil
}

// handlePutBills stores bills in the canonical store and announces the change on the bus.
// The index catches up asynchronously.
func (s *Server) handlePutBills(w http.ResponseWriter, r *http.Request) {
	bills, err := decodeBills(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.PutBills(r.Context(), bills); err != nil {
		s.logger.Error("storing bills failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var env eventbus.Envelope
	if len(bills) == 1 {
		env = s.bus.Publish(eventbus.BillUpdateEvent{Bill: bills[0]})
	} else {
		env = s.bus.Publish(eventbus.BulkBillUpdateEvent{Bills: bills})
	}
	s.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"stored":   len(bills),
		"event_id": env.ID.String(),
	})
}

// handleUpdateIndex applies bills to the index directly, bypassing the store and the bus.
func (s *Server) handleUpdateIndex(w http.ResponseWriter, r *http.Request) {
	bills, err := decodeBills(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx := r.Context()
	if len(bills) == 1 {
		if err := s.service.UpdateIndex(ctx, bills[0]); err != nil {
			s.logger.Error("index update failed", zap.Error(err))
			s.respondError(w, http.StatusBadGateway, err.Error())
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"bills":            1,
			"indexing_enabled": s.service.IndexingEnabled(),
		})
		return
	}
	res, err := s.service.UpdateIndexBatch(ctx, bills)
	if err != nil {
		s.logger.Error("bulk index update failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"bills":            len(bills),
		"indexed":          res.Indexed,
		"deleted":          res.Deleted,
		"indexing_enabled": s.service.IndexingEnabled(),
	})
}

// handleRebuild requests a rebuild through the bus, or runs it in the request with ?wait=true.
func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		report, err := s.service.RebuildIndex(r.Context())
		if errors.Is(err, billsearch.ErrRebuildInProgress) {
			s.respondError(w, http.StatusConflict, err.Error())
			return
		}
		if err != nil {
			s.logger.Error("rebuild failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.respondJSON(w, http.StatusOK, report)
		return
	}
	env := s.bus.Publish(eventbus.RebuildIndexEvent{Indexes: []eventbus.SearchIndex{eventbus.IndexBill}})
	s.respondJSON(w, http.StatusAccepted, map[string]string{
		"status":   "rebuild requested",
		"event_id": env.ID.String(),
	})
}

func (s *Server) handleClearIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ClearIndex(r.Context()); err != nil {
		s.logger.Error("clear index failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.service.Status(r.Context())
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"status": st,
	}
	if s.config != nil {
		resp["config"] = map[string]interface{}{
			"database_path":      s.config.Storage.DatabasePath,
			"index_path":         s.config.Storage.IndexPath,
			"rebuild_batch_size": s.config.Indexing.RebuildBatchSize,
			"max_limit":          s.config.Search.MaxLimit,
		}
		if diskBytes, err := storage.DiskUsageBytes(s.config.Storage.DatabasePath, s.config.Storage.IndexPath); err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	if s.bus != nil {
		resp["subscribers"] = s.bus.Subscribers()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
