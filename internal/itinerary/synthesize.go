package itinerary

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkeller/tripstitch/internal/domain"
)

// Category places a candidate window relative to the trip's calendar range.
type Category string

const (
	// CategoryOutbound means the candidate ends on or before the trip start.
	CategoryOutbound Category = "outbound"
	// CategoryInTrip means the candidate falls inside the trip range.
	CategoryInTrip Category = "in-trip"
	// CategoryReturn means the candidate begins on or after the trip end.
	CategoryReturn Category = "return"
)

// Proposal is the synthesizer's answer when no existing segment matched: a
// new segment to create, plus any trip boundary extension required to cover
// it. ExtendStart/ExtendEnd are nil when the trip range already covers the
// candidate window.
type Proposal struct {
	Name          string
	Type          domain.SegmentType
	Category      Category
	StartLocation string
	EndLocation   string
	StartTime     time.Time
	EndTime       time.Time
	ExtendStart   *time.Time
	ExtendEnd     *time.Time
	Reason        string
}

// NeedsExtension reports whether applying this proposal must widen the
// trip's date range.
func (p Proposal) NeedsExtension() bool {
	return p.ExtendStart != nil || p.ExtendEnd != nil
}

// Categorize buckets a candidate window against trip bounds at calendar-date
// granularity: arriving on or before the trip start is outbound travel,
// departing on or after the trip end is the return, everything else is
// in-trip.
func Categorize(start, end time.Time, trip domain.Trip) Category {
	arrivalDay := dayOf(end)
	departureDay := dayOf(start)
	tripStart := dayOf(trip.StartDate)
	tripEnd := dayOf(trip.EndDate)

	if !arrivalDay.After(tripStart) {
		return CategoryOutbound
	}
	if !departureDay.Before(tripEnd) {
		return CategoryReturn
	}
	return CategoryInTrip
}

// Propose synthesizes a segment for a cluster that matched nothing. The name
// is deterministic from the kind and locations; the segment spans exactly the
// cluster's window. When the window extends past the trip's calendar bounds
// the proposal carries the widened dates — the orchestrator applies the
// extension and re-sequences segment order atomically.
//
// Propose never fails: geocoding and zone resolution happen later, in
// enrichment, so a proposal is always location-names-only.
func Propose(c Cluster, kind domain.ReservationKind, trip domain.Trip) Proposal {
	category := Categorize(c.StartTime, c.EndTime, trip)

	p := Proposal{
		Type:          segmentTypeFor(kind),
		Category:      category,
		StartLocation: c.StartLocation,
		EndLocation:   c.EndLocation,
		StartTime:     c.StartTime,
		EndTime:       c.EndTime,
		Name:          proposalName(c, kind, category),
		Reason:        fmt.Sprintf("no segment matched; synthesized for %s %s", strings.ToLower(string(kind)), category),
	}

	if start := dayOf(c.StartTime); start.Before(dayOf(trip.StartDate)) {
		p.ExtendStart = &start
	}
	if end := dayOf(c.EndTime); end.After(dayOf(trip.EndDate)) {
		p.ExtendEnd = &end
	}
	return p
}

// proposalName derives a deterministic segment name from the kind, the
// cluster's locations, and its position relative to the trip.
func proposalName(c Cluster, kind domain.ReservationKind, category Category) string {
	destination := cityOf(c.EndLocation)
	if destination == "" {
		destination = cityOf(c.StartLocation)
	}

	switch kind {
	case domain.KindFlight, domain.KindTrain, domain.KindCarRental:
		switch category {
		case CategoryOutbound:
			return "Travel to " + destination
		case CategoryReturn:
			return "Return to " + destination
		default:
			return travelVerb(kind) + " to " + destination
		}
	case domain.KindHotel:
		return "Stay in " + cityOf(c.StartLocation)
	default:
		// Same-day activities and dining are named for the city alone.
		return cityOf(c.StartLocation)
	}
}

func travelVerb(kind domain.ReservationKind) string {
	switch kind {
	case domain.KindFlight:
		return "Flight"
	case domain.KindTrain:
		return "Train"
	default:
		return "Drive"
	}
}

// segmentTypeFor maps a booking kind to the segment type a synthesized
// segment should carry.
func segmentTypeFor(kind domain.ReservationKind) domain.SegmentType {
	switch kind {
	case domain.KindFlight, domain.KindTrain, domain.KindCarRental:
		return domain.SegmentTravel
	case domain.KindHotel:
		return domain.SegmentStay
	case domain.KindActivity:
		return domain.SegmentTour
	default:
		return domain.SegmentOther
	}
}

// cityOf extracts the leading city token from a location string like
// "Kyoto, Japan".
func cityOf(location string) string {
	return strings.TrimSpace(strings.SplitN(location, ",", 2)[0])
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
