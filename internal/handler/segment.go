package handler

import (
	"net/http"

	"github.com/pkeller/tripstitch/internal/domain"
)

// ListSegmentReservations handles GET /segments/{segmentID}/reservations.
func (s *Server) ListSegmentReservations(w http.ResponseWriter, r *http.Request) {
	segmentID, err := uuidParam(r, "segmentID")
	if err != nil {
		respondBadRequest(w, "invalid segment id")
		return
	}

	reservations, err := s.reservations.ListBySegment(r.Context(), segmentID)
	if err != nil {
		respondError(w, err)
		return
	}
	if reservations == nil {
		reservations = []domain.Reservation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": reservations})
}

// EnrichSegment handles POST /segments/{segmentID}/enrich. Enrichment runs
// in the background; the response only acknowledges the request.
func (s *Server) EnrichSegment(w http.ResponseWriter, r *http.Request) {
	segmentID, err := uuidParam(r, "segmentID")
	if err != nil {
		respondBadRequest(w, "invalid segment id")
		return
	}

	s.enricher.ScheduleSegment(segmentID)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
