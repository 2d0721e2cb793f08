package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkeller/tripstitch/internal/domain"
	"github.com/pkeller/tripstitch/internal/service"
)

func hotelItemBody(synthesize bool) map[string]any {
	return map[string]any{
		"item": map[string]any{
			"kind":     "Hotel",
			"name":     "Park Hyatt Tokyo",
			"location": "Tokyo, Japan",
			"start":    map[string]any{"date": "2026-04-02", "clock": "15:00"},
			"end":      map[string]any{"date": "2026-04-05", "clock": "11:00"},
		},
		"synthesize": synthesize,
	}
}

// ---- POST /trips/{tripID}/assign -------------------------------------------

func TestAssignItem_200(t *testing.T) {
	tripID := uuid.New()
	segmentID := uuid.New()
	assigner := &mockAssigner{
		assignItem: func(_ context.Context, gotTrip uuid.UUID, item service.Item, opts service.Options) (service.AssignResult, error) {
			assert.Equal(t, tripID, gotTrip)
			assert.Equal(t, domain.KindHotel, item.Kind)
			assert.Equal(t, "Park Hyatt Tokyo", item.Name)
			assert.Equal(t, "2026-04-02", item.Start.Date)
			assert.True(t, opts.Synthesize)
			return service.AssignResult{
				Trip: domain.Trip{ID: tripID},
				Items: []service.ItemResult{{
					Status:      service.ItemAssigned,
					SegmentID:   segmentID,
					SegmentName: "Tokyo",
					Score:       85,
				}},
			}, nil
		},
	}

	body := jsonBody(t, hotelItemBody(true))
	req := httptest.NewRequest(http.MethodPost, "/trips/"+tripID.String()+"/assign", body)
	rec := httptest.NewRecorder()

	newHTTPHandler(nil, nil, assigner, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp service.AssignResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, service.ItemAssigned, resp.Items[0].Status)
	assert.Equal(t, "Tokyo", resp.Items[0].SegmentName)
}

func TestAssignItem_409_NeedsManual(t *testing.T) {
	assigner := &mockAssigner{
		assignItem: func(_ context.Context, _ uuid.UUID, _ service.Item, _ service.Options) (service.AssignResult, error) {
			return service.AssignResult{}, fmt.Errorf("service.AssignmentService.AssignItem: %w", domain.ErrNeedsManualAssignment)
		},
	}

	body := jsonBody(t, hotelItemBody(false))
	req := httptest.NewRequest(http.MethodPost, "/trips/"+uuid.NewString()+"/assign", body)
	rec := httptest.NewRecorder()

	newHTTPHandler(nil, nil, assigner, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "needs_manual_assignment", resp.Error.Code)
}

func TestAssignItem_422_BadKind(t *testing.T) {
	assigner := &mockAssigner{
		assignItem: func(_ context.Context, _ uuid.UUID, _ service.Item, _ service.Options) (service.AssignResult, error) {
			return service.AssignResult{}, fmt.Errorf("%w: unknown kind \"Boat\"", domain.ErrValidation)
		},
	}

	body := jsonBody(t, map[string]any{
		"item": map[string]any{"kind": "Boat", "name": "Ferry"},
	})
	req := httptest.NewRequest(http.MethodPost, "/trips/"+uuid.NewString()+"/assign", body)
	rec := httptest.NewRecorder()

	newHTTPHandler(nil, nil, assigner, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAssignItem_400_BadBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/trips/"+uuid.NewString()+"/assign", jsonBody(t, map[string]any{"wrong": true}))
	rec := httptest.NewRecorder()

	newHTTPHandler(nil, nil, &mockAssigner{}, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---- POST /trips/{tripID}/assign/batch -------------------------------------

func TestAssignBatch_200_ReportsPerItem(t *testing.T) {
	tripID := uuid.New()
	assigner := &mockAssigner{
		assignBatch: func(_ context.Context, gotTrip uuid.UUID, items []service.Item, opts service.Options) (service.AssignResult, error) {
			assert.Equal(t, tripID, gotTrip)
			require.Len(t, items, 2)
			assert.Equal(t, domain.KindFlight, items[0].Kind)
			require.Len(t, items[0].Legs, 1)
			assert.Equal(t, "SFO", items[0].Legs[0].StartCode)
			assert.False(t, opts.Synthesize)
			return service.AssignResult{
				Trip: domain.Trip{ID: tripID},
				Items: []service.ItemResult{
					{Index: 0, Status: service.ItemAssigned},
					{Index: 1, Status: service.ItemDraft, Error: "invalid date \"someday\""},
				},
			}, nil
		},
	}

	body := jsonBody(t, map[string]any{
		"items": []map[string]any{
			{
				"kind": "Flight",
				"name": "NH 107",
				"legs": []map[string]any{{
					"start":          map[string]any{"date": "2026-04-01", "clock": "18:30"},
					"end":            map[string]any{"date": "2026-04-02", "clock": "22:45"},
					"start_location": "San Francisco",
					"end_location":   "Tokyo",
					"start_code":     "SFO",
					"end_code":       "HND",
				}},
			},
			{
				"kind":  "Hotel",
				"name":  "Somewhere",
				"start": map[string]any{"date": "someday"},
			},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/trips/"+tripID.String()+"/assign/batch", body)
	rec := httptest.NewRecorder()

	newHTTPHandler(nil, nil, assigner, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp service.AssignResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Items, 2)
	assert.Equal(t, service.ItemDraft, resp.Items[1].Status)
	assert.Contains(t, resp.Items[1].Error, "someday")
}

func TestAssignBatch_400_EmptyItems(t *testing.T) {
	body := jsonBody(t, map[string]any{"items": []map[string]any{}})
	req := httptest.NewRequest(http.MethodPost, "/trips/"+uuid.NewString()+"/assign/batch", body)
	rec := httptest.NewRecorder()

	newHTTPHandler(nil, nil, &mockAssigner{}, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignBatch_404_TripMissing(t *testing.T) {
	assigner := &mockAssigner{
		assignBatch: func(_ context.Context, _ uuid.UUID, _ []service.Item, _ service.Options) (service.AssignResult, error) {
			return service.AssignResult{}, fmt.Errorf("service.AssignmentService.AssignBatch: %w", domain.ErrNotFound)
		},
	}

	body := jsonBody(t, map[string]any{
		"items": []map[string]any{{"kind": "Hotel", "name": "Somewhere"}},
	})
	req := httptest.NewRequest(http.MethodPost, "/trips/"+uuid.NewString()+"/assign/batch", body)
	rec := httptest.NewRecorder()

	newHTTPHandler(nil, nil, assigner, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
