package handler

import (
	"net/http"

	"github.com/pkeller/tripstitch/internal/domain"
	"github.com/pkeller/tripstitch/internal/service"
)

// assignLeg is the wire shape for one hop of a multi-leg booking.
type assignLeg struct {
	Start         domain.WallClock `json:"start"`
	End           domain.WallClock `json:"end"`
	StartLocation string           `json:"start_location"`
	EndLocation   string           `json:"end_location"`
	StartCode     string           `json:"start_code"`
	EndCode       string           `json:"end_code"`
	Metadata      domain.Metadata  `json:"metadata"`
}

// assignItem is the wire shape for one booking to assign.
type assignItem struct {
	Kind               string           `json:"kind"`
	Name               string           `json:"name"`
	Vendor             string           `json:"vendor"`
	ConfirmationNumber string           `json:"confirmation_number"`
	Cost               *float64         `json:"cost"`
	Currency           string           `json:"currency"`
	ContactInfo        string           `json:"contact_info"`
	Location           string           `json:"location"`
	EndLocation        string           `json:"end_location"`
	Start              domain.WallClock `json:"start"`
	End                domain.WallClock `json:"end"`
	Legs               []assignLeg      `json:"legs"`
	ImageURL           string           `json:"image_url"`
	Metadata           domain.Metadata  `json:"metadata"`
}

func (a assignItem) toService() service.Item {
	item := service.Item{
		Kind:               domain.ReservationKind(a.Kind),
		Name:               a.Name,
		Vendor:             a.Vendor,
		ConfirmationNumber: a.ConfirmationNumber,
		Cost:               a.Cost,
		Currency:           a.Currency,
		ContactInfo:        a.ContactInfo,
		Location:           a.Location,
		EndLocation:        a.EndLocation,
		Start:              a.Start,
		End:                a.End,
		ImageURL:           a.ImageURL,
		Metadata:           a.Metadata,
	}
	for _, leg := range a.Legs {
		item.Legs = append(item.Legs, service.ItemLeg{
			Start:         leg.Start,
			End:           leg.End,
			StartLocation: leg.StartLocation,
			EndLocation:   leg.EndLocation,
			StartCode:     leg.StartCode,
			EndCode:       leg.EndCode,
			Metadata:      leg.Metadata,
		})
	}
	return item
}

type assignRequest struct {
	Item       assignItem `json:"item"`
	Synthesize bool       `json:"synthesize"`
}

type assignBatchRequest struct {
	Items      []assignItem `json:"items"`
	Synthesize bool         `json:"synthesize"`
}

// AssignItem handles POST /trips/{tripID}/assign.
// 200 with the assignment result on success; 409 when nothing matched and
// synthesis was not requested.
func (s *Server) AssignItem(w http.ResponseWriter, r *http.Request) {
	tripID, err := uuidParam(r, "tripID")
	if err != nil {
		respondBadRequest(w, "invalid trip id")
		return
	}

	var req assignRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	result, err := s.assigner.AssignItem(r.Context(), tripID, req.Item.toService(), service.Options{Synthesize: req.Synthesize})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// AssignBatch handles POST /trips/{tripID}/assign/batch.
// Always 200 when the batch itself ran: per-item failures are reported in
// the result rows, not as an HTTP error.
func (s *Server) AssignBatch(w http.ResponseWriter, r *http.Request) {
	tripID, err := uuidParam(r, "tripID")
	if err != nil {
		respondBadRequest(w, "invalid trip id")
		return
	}

	var req assignBatchRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if len(req.Items) == 0 {
		respondBadRequest(w, "items must not be empty")
		return
	}

	items := make([]service.Item, len(req.Items))
	for i, item := range req.Items {
		items[i] = item.toService()
	}

	result, err := s.assigner.AssignBatch(r.Context(), tripID, items, service.Options{Synthesize: req.Synthesize})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
