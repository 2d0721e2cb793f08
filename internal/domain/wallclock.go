package domain

// WallClock is the authoritative local-time representation persisted on every
// timestamped entity. Date is a "2006-01-02" calendar date as the traveller
// reads it; Clock is an optional "15:04" or "15:04:05" time of day (empty for
// date-only events); Zone is the IANA timezone identifier for that leg, empty
// until resolved.
//
// Wall-clock fields are the source of truth for anything shown to a user and
// are never rewritten by enrichment. The derived UTC instant (stored
// alongside, see Segment and Reservation) is the source of truth for sorting,
// filtering, and overlap computations, and is recomputed whenever the zone
// becomes known.
type WallClock struct {
	Date  string `json:"date"`
	Clock string `json:"clock,omitempty"`
	Zone  string `json:"zone,omitempty"`
}

// IsZero reports whether the wall clock carries no date at all.
func (w WallClock) IsZero() bool {
	return w.Date == ""
}

// HasZone reports whether the timezone for this wall clock is known.
// When false, any derived UTC instant is the flagged naive approximation.
func (w WallClock) HasZone() bool {
	return w.Zone != ""
}
