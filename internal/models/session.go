package models

import (
	"strconv"
	"time"
)

// SessionYear is a two-year legislative session, identified by its odd start year.
type SessionYear int

// NewSessionYear returns the session containing year. Even years map to the preceding odd year.
func NewSessionYear(year int) SessionYear {
	if year%2 == 0 {
		year--
	}
	return SessionYear(year)
}

// CurrentSession returns the session containing now.
func CurrentSession(now time.Time) SessionYear {
	return NewSessionYear(now.Year())
}

// StartYear is the first calendar year of the session.
func (s SessionYear) StartYear() int { return int(s) }

// EndYear is the last calendar year of the session.
func (s SessionYear) EndYear() int { return int(s) + 1 }

// Next returns the following session.
func (s SessionYear) Next() SessionYear { return s + 2 }

// Contains reports whether year falls within the session.
func (s SessionYear) Contains(year int) bool {
	return year >= s.StartYear() && year <= s.EndYear()
}

func (s SessionYear) String() string {
	return strconv.Itoa(int(s))
}

// SessionRange is an inclusive range of sessions.
type SessionRange struct {
	Lower SessionYear `json:"lower"`
	Upper SessionYear `json:"upper"`
}

// Contains reports whether s lies within the range.
func (r SessionRange) Contains(s SessionYear) bool {
	return s >= r.Lower && s <= r.Upper
}
