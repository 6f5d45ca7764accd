package models

// SearchResult is a single bill hit.
type SearchResult struct {
	ID    BaseBillID `json:"id"`
	Score float64    `json:"score"`
	Rank  int        `json:"rank"`
	// Bill is filled only when the caller asked for full records.
	Bill *Bill `json:"bill,omitempty"`
}

// SearchResults is one page of hits plus the total number of matches.
type SearchResults struct {
	Results     []*SearchResult `json:"results"`
	Total       uint64          `json:"total"`
	LimitOffset LimitOffset     `json:"limit_offset"`
	QueryTime   int64           `json:"query_time_ms"`
	Query       string          `json:"query,omitempty"`
}

// IDs returns the bill ids in result order.
func (r *SearchResults) IDs() []BaseBillID {
	ids := make([]BaseBillID, len(r.Results))
	for i, res := range r.Results {
		ids[i] = res.ID
	}
	return ids
}
