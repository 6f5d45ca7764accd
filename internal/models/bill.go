// Package models defines core data structures for bills, sessions, paging and search results.
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BaseBillID identifies a bill independently of its amendment version.
type BaseBillID struct {
	PrintNo string      `json:"print_no"`
	Session SessionYear `json:"session"`
}

// NewBaseBillID normalizes the print number (upper case, trimmed) and the session year.
func NewBaseBillID(printNo string, session int) BaseBillID {
	return BaseBillID{
		PrintNo: strings.ToUpper(strings.TrimSpace(printNo)),
		Session: NewSessionYear(session),
	}
}

// String returns the canonical "S1234-2021" form used as the index key.
func (id BaseBillID) String() string {
	return fmt.Sprintf("%s-%d", id.PrintNo, id.Session.StartYear())
}

// IsZero reports whether the id has no print number.
func (id BaseBillID) IsZero() bool {
	return id.PrintNo == ""
}

// ParseBaseBillID parses the "S1234-2021" form produced by String.
func ParseBaseBillID(s string) (BaseBillID, error) {
	i := strings.LastIndex(s, "-")
	if i <= 0 || i == len(s)-1 {
		return BaseBillID{}, fmt.Errorf("invalid bill id %q: expected PRINTNO-SESSION", s)
	}
	year, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return BaseBillID{}, fmt.Errorf("invalid bill id %q: session: %w", s, err)
	}
	return NewBaseBillID(s[:i], year), nil
}

// BillAmendment is one version of a bill's text. Version "" is the base version.
type BillAmendment struct {
	Version     string     `json:"version"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Text        string     `json:"text,omitempty"`
}

// Bill is the canonical record held by the bill store.
type Bill struct {
	ID         BaseBillID      `json:"id"`
	Title      string          `json:"title"`
	Summary    string          `json:"summary,omitempty"`
	Sponsor    string          `json:"sponsor,omitempty"`
	Status     string          `json:"status,omitempty"`
	Amendments []BillAmendment `json:"amendments,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// BaseAmendment returns the base version, if the bill has one.
func (b *Bill) BaseAmendment() (BillAmendment, bool) {
	for _, a := range b.Amendments {
		if a.Version == "" {
			return a, true
		}
	}
	return BillAmendment{}, false
}

// IsBaseVersionPublished reports whether the base version exists and has been published.
func (b *Bill) IsBaseVersionPublished() bool {
	base, ok := b.BaseAmendment()
	return ok && base.Published
}

// ActiveAmendment returns the published amendment with the highest version letter.
// Falls back to the base version when nothing is published.
func (b *Bill) ActiveAmendment() (BillAmendment, bool) {
	var (
		active BillAmendment
		found  bool
	)
	for _, a := range b.Amendments {
		if !a.Published {
			continue
		}
		if !found || a.Version > active.Version {
			active = a
			found = true
		}
	}
	if found {
		return active, true
	}
	return b.BaseAmendment()
}
