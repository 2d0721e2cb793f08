package domain

// Metadata is the kind-specific detail block attached to a reservation,
// modelled as a tagged union: at most one member is non-nil, keyed by the
// reservation's kind. Stored as JSONB; omitempty keeps absent members out of
// the persisted document entirely.
type Metadata struct {
	Flight    *FlightMetadata    `json:"flight,omitempty"`
	Hotel     *HotelMetadata     `json:"hotel,omitempty"`
	Transport *TransportMetadata `json:"transport,omitempty"`
	Dining    *DiningMetadata    `json:"dining,omitempty"`
}

// IsZero reports whether no member of the union is populated.
func (m Metadata) IsZero() bool {
	return m.Flight == nil && m.Hotel == nil && m.Transport == nil && m.Dining == nil
}

// FlightMetadata holds flight-specific booking details.
type FlightMetadata struct {
	FlightNumber     string `json:"flight_number,omitempty"`
	AirlineCode      string `json:"airline_code,omitempty"`
	Cabin            string `json:"cabin,omitempty"`
	SeatNumber       string `json:"seat_number,omitempty"`
	OperatedBy       string `json:"operated_by,omitempty"`
	ETicketNumber    string `json:"eticket_number,omitempty"`
	DepartureAirport string `json:"departure_airport,omitempty"`
	ArrivalAirport   string `json:"arrival_airport,omitempty"`
}

// HotelMetadata holds stay-specific booking details.
type HotelMetadata struct {
	RoomType     string `json:"room_type,omitempty"`
	GuestCount   int    `json:"guest_count,omitempty"`
	CheckInTime  string `json:"check_in_time,omitempty"`
	CheckOutTime string `json:"check_out_time,omitempty"`
}

// TransportMetadata holds details shared by ground-transport kinds
// (car rentals, trains, transfers).
type TransportMetadata struct {
	PickupLocation string `json:"pickup_location,omitempty"`
	ReturnLocation string `json:"return_location,omitempty"`
	VehicleClass   string `json:"vehicle_class,omitempty"`
	TrainNumber    string `json:"train_number,omitempty"`
	CoachAndSeat   string `json:"coach_and_seat,omitempty"`
}

// DiningMetadata holds restaurant-booking details.
type DiningMetadata struct {
	PartySize int    `json:"party_size,omitempty"`
	Cuisine   string `json:"cuisine,omitempty"`
}
