package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkeller/tripstitch/internal/domain"
	"github.com/pkeller/tripstitch/internal/handler"
	"github.com/pkeller/tripstitch/internal/service"
)

// mockTripServicer is a test double for handler.TripServicer.
// Set only the method fields your test needs.
type mockTripServicer struct {
	create   func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID  func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	list     func(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, error)
	update   func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	delete   func(ctx context.Context, id uuid.UUID) error
	segments func(ctx context.Context, tripID uuid.UUID) ([]domain.Segment, error)
}

func (m *mockTripServicer) Create(ctx context.Context, t domain.Trip) (domain.Trip, error) {
	return m.create(ctx, t)
}
func (m *mockTripServicer) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripServicer) List(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, error) {
	return m.list(ctx, p)
}
func (m *mockTripServicer) Update(ctx context.Context, t domain.Trip) (domain.Trip, error) {
	return m.update(ctx, t)
}
func (m *mockTripServicer) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}
func (m *mockTripServicer) Segments(ctx context.Context, tripID uuid.UUID) ([]domain.Segment, error) {
	return m.segments(ctx, tripID)
}

var _ handler.TripServicer = (*mockTripServicer)(nil)

type mockReservationServicer struct {
	getByID       func(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	listBySegment func(ctx context.Context, segmentID uuid.UUID) ([]domain.Reservation, error)
	update        func(ctx context.Context, res domain.Reservation) (domain.Reservation, error)
	delete        func(ctx context.Context, id uuid.UUID) error
}

func (m *mockReservationServicer) GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	return m.getByID(ctx, id)
}
func (m *mockReservationServicer) ListBySegment(ctx context.Context, segmentID uuid.UUID) ([]domain.Reservation, error) {
	return m.listBySegment(ctx, segmentID)
}
func (m *mockReservationServicer) Update(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	return m.update(ctx, res)
}
func (m *mockReservationServicer) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

var _ handler.ReservationServicer = (*mockReservationServicer)(nil)

type mockAssigner struct {
	assignItem  func(ctx context.Context, tripID uuid.UUID, item service.Item, opts service.Options) (service.AssignResult, error)
	assignBatch func(ctx context.Context, tripID uuid.UUID, items []service.Item, opts service.Options) (service.AssignResult, error)
}

func (m *mockAssigner) AssignItem(ctx context.Context, tripID uuid.UUID, item service.Item, opts service.Options) (service.AssignResult, error) {
	return m.assignItem(ctx, tripID, item, opts)
}
func (m *mockAssigner) AssignBatch(ctx context.Context, tripID uuid.UUID, items []service.Item, opts service.Options) (service.AssignResult, error) {
	return m.assignBatch(ctx, tripID, items, opts)
}

var _ handler.Assigner = (*mockAssigner)(nil)

type mockEnricher struct {
	scheduleReservation func(id uuid.UUID)
	scheduleSegment     func(id uuid.UUID)
	reservationLog      func(ctx context.Context, id uuid.UUID) ([]domain.EnrichmentLog, error)
}

func (m *mockEnricher) ScheduleReservation(id uuid.UUID) { m.scheduleReservation(id) }
func (m *mockEnricher) ScheduleSegment(id uuid.UUID)     { m.scheduleSegment(id) }
func (m *mockEnricher) ReservationLog(ctx context.Context, id uuid.UUID) ([]domain.EnrichmentLog, error) {
	return m.reservationLog(ctx, id)
}

var _ handler.Enricher = (*mockEnricher)(nil)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given mocks into the full router,
// mirroring how main.go wires it in production. Pass nil for dependencies
// the test will not touch.
func newHTTPHandler(trips handler.TripServicer, reservations handler.ReservationServicer, assigner handler.Assigner, enricher handler.Enricher) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return handler.NewServer(trips, reservations, assigner, enricher, log).Routes(nil)
}

func tripFixture() domain.Trip {
	return domain.Trip{
		ID:        uuid.New(),
		Name:      "Japan 2026",
		StartDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 4, 14, 0, 0, 0, 0, time.UTC),
		Notes:     "cherry blossom season",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func reservationFixture() domain.Reservation {
	return domain.Reservation{
		ID:        uuid.New(),
		SegmentID: uuid.New(),
		Kind:      domain.KindHotel,
		Status:    domain.StatusConfirmed,
		Name:      "Park Hyatt Tokyo",
		WallStart: domain.WallClock{Date: "2026-04-02", Clock: "15:00", Zone: "Asia/Tokyo"},
		WallEnd:   domain.WallClock{Date: "2026-04-05", Clock: "11:00", Zone: "Asia/Tokyo"},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func dateStr(t time.Time) string {
	return t.Format("2006-01-02")
}
