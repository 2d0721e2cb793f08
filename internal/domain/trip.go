// Package domain contains the core data types for the tripstitch itinerary
// engine. This package has no dependencies beyond uuid and is imported by
// every other internal package (localtime, itinerary, repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trip is the top-level aggregate: a titled, date-bounded journey that owns
// segments. StartDate and EndDate are inclusive calendar dates stored at UTC
// midnight — the trip's span is a calendar concept with no timezone of its
// own. Invariant: StartDate <= EndDate.
//
// The date range is widened automatically (boundary extension) when a new
// booking falls outside it, or by explicit edit.
type Trip struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CoversDate reports whether d (compared at calendar-date granularity)
// falls within the trip's inclusive date range.
func (t Trip) CoversDate(d time.Time) bool {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	start := time.Date(t.StartDate.Year(), t.StartDate.Month(), t.StartDate.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(t.EndDate.Year(), t.EndDate.Month(), t.EndDate.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(start) && !day.After(end)
}
