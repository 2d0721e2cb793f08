package handler

import (
	"net/http"

	"github.com/pkeller/tripstitch/internal/domain"
)

// reservationRequest is the wire shape for a reservation update. The derived
// UTC instants are not accepted from clients; they are recomputed from the
// wall clocks by the service layer.
type reservationRequest struct {
	Kind               string           `json:"kind"`
	Status             string           `json:"status"`
	Name               string           `json:"name"`
	Vendor             string           `json:"vendor"`
	ConfirmationNumber string           `json:"confirmation_number"`
	Cost               *float64         `json:"cost"`
	Currency           string           `json:"currency"`
	ContactInfo        string           `json:"contact_info"`
	StartLocation      string           `json:"start_location"`
	EndLocation        string           `json:"end_location"`
	WallStart          domain.WallClock `json:"wall_start"`
	WallEnd            domain.WallClock `json:"wall_end"`
	ImageURL           string           `json:"image_url"`
	ImageIsCustom      bool             `json:"image_is_custom"`
	Metadata           domain.Metadata  `json:"metadata"`
}

func (req reservationRequest) toDomain(existing domain.Reservation) domain.Reservation {
	res := existing
	res.Kind = domain.ReservationKind(req.Kind)
	res.Status = domain.ReservationStatus(req.Status)
	res.Name = req.Name
	res.Vendor = req.Vendor
	res.ConfirmationNumber = req.ConfirmationNumber
	res.Cost = req.Cost
	res.Currency = req.Currency
	res.ContactInfo = req.ContactInfo
	res.StartLocation = req.StartLocation
	res.EndLocation = req.EndLocation
	res.WallStart = req.WallStart
	res.WallEnd = req.WallEnd
	res.ImageURL = req.ImageURL
	res.ImageIsCustom = req.ImageIsCustom
	res.ErrorNote = ""
	res.Metadata = req.Metadata
	return res
}

// GetReservation handles GET /reservations/{reservationID}.
func (s *Server) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "reservationID")
	if err != nil {
		respondBadRequest(w, "invalid reservation id")
		return
	}

	res, err := s.reservations.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// UpdateReservation handles PUT /reservations/{reservationID}. A full
// replace of the mutable fields; updating a Draft row with valid data is how
// a batch failure gets repaired.
func (s *Server) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "reservationID")
	if err != nil {
		respondBadRequest(w, "invalid reservation id")
		return
	}

	var req reservationRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	existing, err := s.reservations.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	updated, err := s.reservations.Update(r.Context(), req.toDomain(existing))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteReservation handles DELETE /reservations/{reservationID}.
func (s *Server) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "reservationID")
	if err != nil {
		respondBadRequest(w, "invalid reservation id")
		return
	}

	if err := s.reservations.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EnrichReservation handles POST /reservations/{reservationID}/enrich.
// Enrichment runs in the background; progress lands in the enrichment log.
func (s *Server) EnrichReservation(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "reservationID")
	if err != nil {
		respondBadRequest(w, "invalid reservation id")
		return
	}

	s.enricher.ScheduleReservation(id)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// GetReservationEnrichmentLog handles GET /reservations/{reservationID}/enrichment-log.
func (s *Server) GetReservationEnrichmentLog(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "reservationID")
	if err != nil {
		respondBadRequest(w, "invalid reservation id")
		return
	}

	logs, err := s.enricher.ReservationLog(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if logs == nil {
		logs = []domain.EnrichmentLog{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": logs})
}
