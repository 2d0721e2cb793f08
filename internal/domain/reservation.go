package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReservationKind identifies what sort of bookable item a reservation is.
// Multi-leg kinds (Flight, Train) are clustered before segment assignment;
// the rest are assigned as single items.
type ReservationKind string

const (
	KindFlight     ReservationKind = "Flight"
	KindTrain      ReservationKind = "Train"
	KindHotel      ReservationKind = "Hotel"
	KindCarRental  ReservationKind = "CarRental"
	KindRestaurant ReservationKind = "Restaurant"
	KindActivity   ReservationKind = "Activity"
	KindGeneric    ReservationKind = "Generic"
)

// Valid reports whether k is one of the known reservation kinds.
func (k ReservationKind) Valid() bool {
	switch k {
	case KindFlight, KindTrain, KindHotel, KindCarRental, KindRestaurant, KindActivity, KindGeneric:
		return true
	}
	return false
}

// MultiLeg reports whether bookings of this kind arrive as ordered legs
// (connecting flights, train journeys) that must be clustered by time gap
// before segment assignment.
func (k ReservationKind) MultiLeg() bool {
	return k == KindFlight || k == KindTrain
}

// ReservationStatus is the lifecycle state of a reservation.
// StatusDraft marks items persisted despite a processing failure so a human
// can repair them — batch assignment never silently drops an item.
type ReservationStatus string

const (
	StatusDraft     ReservationStatus = "Draft"
	StatusPending   ReservationStatus = "Pending"
	StatusConfirmed ReservationStatus = "Confirmed"
	StatusCancelled ReservationStatus = "Cancelled"
)

// Reservation is a single bookable item (flight, hotel stay, restaurant
// booking) belonging to exactly one segment.
//
// WallStart and WallEnd are authoritative local times; their zones may differ
// (a flight departs in one zone and arrives in another). UTCStart/UTCEnd are
// derived and rewritten in place by enrichment once zones resolve — the
// reservation row itself is never replaced or duplicated.
//
// ErrorNote carries the original failure text for Draft rows created by the
// batch path; empty otherwise.
type Reservation struct {
	ID                 uuid.UUID         `json:"id"`
	SegmentID          uuid.UUID         `json:"segment_id"`
	Kind               ReservationKind   `json:"kind"`
	Status             ReservationStatus `json:"status"`
	Name               string            `json:"name"`
	Vendor             string            `json:"vendor,omitempty"`
	ConfirmationNumber string            `json:"confirmation_number,omitempty"`
	Cost               *float64          `json:"cost,omitempty"`
	Currency           string            `json:"currency,omitempty"`
	ContactInfo        string            `json:"contact_info,omitempty"`
	StartLocation      string            `json:"start_location,omitempty"`
	EndLocation        string            `json:"end_location,omitempty"`
	WallStart          WallClock         `json:"wall_start"`
	WallEnd            WallClock         `json:"wall_end"`
	UTCStart           *time.Time        `json:"utc_start,omitempty"`
	UTCEnd             *time.Time        `json:"utc_end,omitempty"`
	ImageURL           string            `json:"image_url,omitempty"`
	ImageIsCustom      bool              `json:"image_is_custom,omitempty"`
	ErrorNote          string            `json:"error_note,omitempty"`
	Metadata           Metadata          `json:"metadata,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}
