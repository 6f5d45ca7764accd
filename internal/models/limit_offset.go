package models

import "fmt"

// LimitOffset is an immutable paging cursor. Offset is 0-based.
type LimitOffset struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

var (
	LimitOffsetTen      = LimitOffset{Limit: 10}
	LimitOffsetHundred  = LimitOffset{Limit: 100}
	LimitOffsetThousand = LimitOffset{Limit: 1000}
)

// NewLimitOffset returns a cursor, rejecting non-positive limits and negative offsets.
func NewLimitOffset(limit, offset int) (LimitOffset, error) {
	if limit <= 0 {
		return LimitOffset{}, fmt.Errorf("limit must be positive, got %d", limit)
	}
	if offset < 0 {
		return LimitOffset{}, fmt.Errorf("offset must not be negative, got %d", offset)
	}
	return LimitOffset{Limit: limit, Offset: offset}, nil
}

// Next returns the cursor for the following page.
func (lo LimitOffset) Next() LimitOffset {
	return LimitOffset{Limit: lo.Limit, Offset: lo.Offset + lo.Limit}
}

// Capped returns a copy whose limit does not exceed max. A max of 0 means no cap.
func (lo LimitOffset) Capped(max int) LimitOffset {
	if max > 0 && lo.Limit > max {
		lo.Limit = max
	}
	return lo
}

func (lo LimitOffset) String() string {
	return fmt.Sprintf("limit=%d offset=%d", lo.Limit, lo.Offset)
}
