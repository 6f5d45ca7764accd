package billsearch

import (
	"errors"
	"fmt"

	"github.com/hyperjump/billsync/internal/index"
)

var (
	// ErrQueryParse is matched by search errors caused by malformed query syntax.
	ErrQueryParse = index.ErrQueryParse
	// ErrSearchBackend is matched by search errors caused by the index itself.
	ErrSearchBackend = errors.New("search backend failure")
	// ErrRebuildInProgress is returned when another process holds the rebuild lock.
	ErrRebuildInProgress = errors.New("index rebuild already in progress")
)

// ErrorKind classifies a failed search.
type ErrorKind int

const (
	// KindParse means the caller's query could not be parsed; the caller can fix it.
	KindParse ErrorKind = iota + 1
	// KindBackend means the index failed; the caller may retry.
	KindBackend
)

func (k ErrorKind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindBackend:
		return "backend"
	default:
		return "unknown"
	}
}

// SearchError is returned by every search entry point on failure.
type SearchError struct {
	Kind  ErrorKind
	Query string
	Err   error
}

func (e *SearchError) Error() string {
	if e.Kind == KindParse {
		return fmt.Sprintf("invalid search query %q: %v", e.Query, e.Err)
	}
	return fmt.Sprintf("search failed for query %q: %v", e.Query, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// Is matches ErrQueryParse or ErrSearchBackend according to Kind.
func (e *SearchError) Is(target error) bool {
	switch target {
	case ErrQueryParse:
		return e.Kind == KindParse
	case ErrSearchBackend:
		return e.Kind == KindBackend
	}
	return false
}

func parseError(query string, err error) *SearchError {
	return &SearchError{Kind: KindParse, Query: query, Err: err}
}

func backendError(query string, err error) *SearchError {
	if errors.Is(err, index.ErrQueryParse) {
		return parseError(query, err)
	}
	return &SearchError{Kind: KindBackend, Query: query, Err: err}
}
