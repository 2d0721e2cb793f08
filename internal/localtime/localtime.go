// Package localtime implements the wall-clock/UTC time model: pure
// conversions between (local date, local time, IANA zone) triples and UTC
// instants. No external calls happen here.
//
// Wall-clock fields are what the traveller reads and are authoritative for
// display. The UTC instant is always derived from them and is authoritative
// for sorting and overlap computations. When the zone is not yet known, the
// derived instant is a naive interpretation of the local values (no offset
// applied) — an accepted approximation corrected later by enrichment,
// without ever touching the wall-clock fields.
package localtime

import (
	"fmt"
	"time"

	"github.com/pkeller/tripstitch/internal/domain"
)

// Layouts accepted for wall-clock fields.
const (
	DateLayout      = "2006-01-02"
	ClockLayout     = "15:04"
	ClockLayoutLong = "15:04:05"
)

// ParseDate validates a "2006-01-02" calendar date string.
// The returned time is at UTC midnight of that date.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: date is required", domain.ErrValidation)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", domain.ErrValidation, s)
	}
	return t, nil
}

// ParseClock validates a "15:04" or "15:04:05" time-of-day string and
// returns its components. An empty string is valid (date-only event) and
// yields ok=false.
func ParseClock(s string) (hour, min, sec int, ok bool, err error) {
	if s == "" {
		return 0, 0, 0, false, nil
	}
	t, perr := time.Parse(ClockLayoutLong, s)
	if perr != nil {
		t, perr = time.Parse(ClockLayout, s)
	}
	if perr != nil {
		return 0, 0, 0, false, fmt.Errorf("%w: invalid time %q, want HH:MM", domain.ErrValidation, s)
	}
	return t.Hour(), t.Minute(), t.Second(), true, nil
}

// ToUTC converts a local calendar date plus optional time-of-day in the given
// IANA zone to a UTC instant.
//
// When clock is empty the time defaults to 00:01:00, or 23:59:59 when
// endOfDay is true, so date-only spans still order sensibly. When zone is
// empty or unknown, the local values are interpreted naively as UTC — callers
// persist this as the flagged approximation and let enrichment correct it.
func ToUTC(date, clock, zone string, endOfDay bool) (time.Time, error) {
	day, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}

	hour, min, sec, hasClock, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	if !hasClock {
		if endOfDay {
			hour, min, sec = 23, 59, 59
		} else {
			hour, min, sec = 0, 1, 0
		}
	}

	loc := time.UTC
	if zone != "" {
		if l, lerr := time.LoadLocation(zone); lerr == nil {
			loc = l
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, sec, 0, loc).UTC(), nil
}

// FromUTC converts a UTC instant back to wall-clock date and time strings in
// the given zone. An empty or unknown zone reads the instant as UTC, the
// inverse of ToUTC's naive fallback.
func FromUTC(t time.Time, zone string) (date, clock string) {
	loc := time.UTC
	if zone != "" {
		if l, err := time.LoadLocation(zone); err == nil {
			loc = l
		}
	}
	local := t.In(loc)
	return local.Format(DateLayout), local.Format(ClockLayoutLong)
}

// Instant derives the UTC instant for a wall clock, applying the same
// defaulting and naive-fallback rules as ToUTC. It returns the zero time for
// a wall clock with no date.
func Instant(w domain.WallClock, endOfDay bool) (time.Time, error) {
	if w.IsZero() {
		return time.Time{}, fmt.Errorf("%w: date is required", domain.ErrValidation)
	}
	return ToUTC(w.Date, w.Clock, w.Zone, endOfDay)
}

// Validate checks a wall clock's date and time fields, naming the offending
// field in the error. Zone is not checked: unknown zones degrade to the
// naive interpretation rather than being rejected.
func Validate(w domain.WallClock, field string) error {
	if _, err := ParseDate(w.Date); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if _, _, _, _, err := ParseClock(w.Clock); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}
