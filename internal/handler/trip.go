package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pkeller/tripstitch/internal/domain"
	"github.com/pkeller/tripstitch/internal/localtime"
)

// tripRequest is the wire shape for creating or updating a trip. Dates are
// "YYYY-MM-DD" calendar dates.
type tripRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Notes     string `json:"notes"`
}

func (req tripRequest) toDomain(id uuid.UUID) (domain.Trip, error) {
	start, err := localtime.ParseDate(req.StartDate)
	if err != nil {
		return domain.Trip{}, err
	}
	var end time.Time
	if req.EndDate != "" {
		if end, err = localtime.ParseDate(req.EndDate); err != nil {
			return domain.Trip{}, err
		}
	} else {
		end = start
	}
	return domain.Trip{
		ID:        id,
		Name:      req.Name,
		StartDate: start,
		EndDate:   end,
		Notes:     req.Notes,
	}, nil
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req tripRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	trip, err := req.toDomain(uuid.Nil)
	if err != nil {
		respondError(w, err)
		return
	}

	created, err := s.trips.Create(r.Context(), trip)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListTrips handles GET /trips. Optional ?page= and ?limit= query
// parameters page through the list; out-of-range values fall back to
// defaults rather than erroring.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.trips.List(r.Context(), pageParams(r))
	if err != nil {
		respondError(w, err)
		return
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": trips})
}

// GetTrip handles GET /trips/{tripID}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "tripID")
	if err != nil {
		respondBadRequest(w, "invalid trip id")
		return
	}

	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// UpdateTrip handles PUT /trips/{tripID}.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "tripID")
	if err != nil {
		respondBadRequest(w, "invalid trip id")
		return
	}

	var req tripRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	trip, err := req.toDomain(id)
	if err != nil {
		respondError(w, err)
		return
	}

	updated, err := s.trips.Update(r.Context(), trip)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteTrip handles DELETE /trips/{tripID}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "tripID")
	if err != nil {
		respondBadRequest(w, "invalid trip id")
		return
	}

	if err := s.trips.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTripSegments handles GET /trips/{tripID}/segments.
func (s *Server) ListTripSegments(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "tripID")
	if err != nil {
		respondBadRequest(w, "invalid trip id")
		return
	}

	segments, err := s.trips.Segments(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if segments == nil {
		segments = []domain.Segment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": segments})
}
