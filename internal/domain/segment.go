package domain

import (
	"time"

	"github.com/google/uuid"
)

// SegmentType categorizes a segment by what the traveller is doing in it.
type SegmentType string

const (
	SegmentStay   SegmentType = "Stay"
	SegmentTravel SegmentType = "Travel"
	SegmentTour   SegmentType = "Tour"
	SegmentOther  SegmentType = "Other"
)

// Valid reports whether t is one of the known segment types.
func (t SegmentType) Valid() bool {
	switch t {
	case SegmentStay, SegmentTravel, SegmentTour, SegmentOther:
		return true
	}
	return false
}

// Place is a named location with optional resolved coordinates and timezone.
// Coordinates and Zone start out nil/empty and are filled in by enrichment;
// a Place with only a Name is always acceptable.
type Place struct {
	Name string   `json:"name"`
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
	Zone string   `json:"zone,omitempty"`
}

// Segment is a time-bounded container within a trip (e.g. "3 days in Kyoto"
// or "Flight to Tokyo") holding one or more reservations.
//
// Order is the 0-based display ordinal, unique within a trip. Orders need not
// be gap-free but must preserve the relative sequence; structural changes
// re-sequence them atomically.
//
// WallStart/WallEnd are authoritative for display. UTCStart/UTCEnd are
// derived instants used for matching and sorting; nil until a wall clock is
// set. Invariant: UTCStart <= UTCEnd when both are present.
type Segment struct {
	ID        uuid.UUID   `json:"id"`
	TripID    uuid.UUID   `json:"trip_id"`
	Name      string      `json:"name"`
	Order     int         `json:"order"`
	Type      SegmentType `json:"type"`
	Start     Place       `json:"start"`
	End       Place       `json:"end"`
	WallStart WallClock   `json:"wall_start"`
	WallEnd   WallClock   `json:"wall_end"`
	UTCStart  *time.Time  `json:"utc_start,omitempty"`
	UTCEnd    *time.Time  `json:"utc_end,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Window returns the segment's UTC window and whether both bounds are known.
func (s Segment) Window() (start, end time.Time, ok bool) {
	if s.UTCStart == nil || s.UTCEnd == nil {
		return time.Time{}, time.Time{}, false
	}
	return *s.UTCStart, *s.UTCEnd, true
}
