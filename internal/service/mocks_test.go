package service_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkeller/tripstitch/internal/domain"
	"github.com/pkeller/tripstitch/internal/geo"
	"github.com/pkeller/tripstitch/internal/jobs"
	"github.com/pkeller/tripstitch/internal/repo"
	"github.com/pkeller/tripstitch/internal/service"
)

// Hand-written test doubles: each method is a function field, so a test sets
// only the methods it needs. No mock generation library required.

type mockTripRepo struct {
	create      func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID     func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	list        func(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, error)
	update      func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	extendDates func(ctx context.Context, id uuid.UUID, start, end time.Time) (domain.Trip, error)
	delete      func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) List(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, error) {
	return m.list(ctx, p)
}
func (m *mockTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.update(ctx, trip)
}
func (m *mockTripRepo) ExtendDates(ctx context.Context, id uuid.UUID, start, end time.Time) (domain.Trip, error) {
	return m.extendDates(ctx, id, start, end)
}
func (m *mockTripRepo) Delete(ctx context.Context, id uuid.UUID) error { return m.delete(ctx, id) }

var _ repo.TripRepo = (*mockTripRepo)(nil)

type mockSegmentRepo struct {
	create     func(ctx context.Context, seg domain.Segment) (domain.Segment, error)
	insertAt   func(ctx context.Context, seg domain.Segment) (domain.Segment, error)
	getByID    func(ctx context.Context, id uuid.UUID) (domain.Segment, error)
	listByTrip func(ctx context.Context, tripID uuid.UUID) ([]domain.Segment, error)
	update     func(ctx context.Context, seg domain.Segment) (domain.Segment, error)
	delete     func(ctx context.Context, id uuid.UUID) error
}

func (m *mockSegmentRepo) Create(ctx context.Context, seg domain.Segment) (domain.Segment, error) {
	return m.create(ctx, seg)
}
func (m *mockSegmentRepo) InsertAt(ctx context.Context, seg domain.Segment) (domain.Segment, error) {
	return m.insertAt(ctx, seg)
}
func (m *mockSegmentRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Segment, error) {
	return m.getByID(ctx, id)
}
func (m *mockSegmentRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Segment, error) {
	return m.listByTrip(ctx, tripID)
}
func (m *mockSegmentRepo) Update(ctx context.Context, seg domain.Segment) (domain.Segment, error) {
	return m.update(ctx, seg)
}
func (m *mockSegmentRepo) Delete(ctx context.Context, id uuid.UUID) error { return m.delete(ctx, id) }

var _ repo.SegmentRepo = (*mockSegmentRepo)(nil)

type mockReservationRepo struct {
	create          func(ctx context.Context, res domain.Reservation) (domain.Reservation, error)
	getByID         func(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	listBySegment   func(ctx context.Context, segmentID uuid.UUID) ([]domain.Reservation, error)
	update          func(ctx context.Context, res domain.Reservation) (domain.Reservation, error)
	setDerivedTimes func(ctx context.Context, id uuid.UUID, startZone, endZone string, utcStart, utcEnd *time.Time) error
	setImage        func(ctx context.Context, id uuid.UUID, url string) error
	delete          func(ctx context.Context, id uuid.UUID) error
}

func (m *mockReservationRepo) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	return m.create(ctx, res)
}
func (m *mockReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	return m.getByID(ctx, id)
}
func (m *mockReservationRepo) ListBySegment(ctx context.Context, segmentID uuid.UUID) ([]domain.Reservation, error) {
	return m.listBySegment(ctx, segmentID)
}
func (m *mockReservationRepo) Update(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	return m.update(ctx, res)
}
func (m *mockReservationRepo) SetDerivedTimes(ctx context.Context, id uuid.UUID, startZone, endZone string, utcStart, utcEnd *time.Time) error {
	return m.setDerivedTimes(ctx, id, startZone, endZone, utcStart, utcEnd)
}
func (m *mockReservationRepo) SetImage(ctx context.Context, id uuid.UUID, url string) error {
	return m.setImage(ctx, id, url)
}
func (m *mockReservationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

var _ repo.ReservationRepo = (*mockReservationRepo)(nil)

type mockEnrichmentLogRepo struct {
	insert       func(ctx context.Context, entry domain.EnrichmentLog) (domain.EnrichmentLog, error)
	listByEntity func(ctx context.Context, entityType domain.EnrichmentEntity, entityID uuid.UUID) ([]domain.EnrichmentLog, error)
}

func (m *mockEnrichmentLogRepo) Insert(ctx context.Context, entry domain.EnrichmentLog) (domain.EnrichmentLog, error) {
	return m.insert(ctx, entry)
}
func (m *mockEnrichmentLogRepo) ListByEntity(ctx context.Context, entityType domain.EnrichmentEntity, entityID uuid.UUID) ([]domain.EnrichmentLog, error) {
	return m.listByEntity(ctx, entityType, entityID)
}

var _ repo.EnrichmentLogRepo = (*mockEnrichmentLogRepo)(nil)

type mockImageQueueRepo struct {
	enqueue     func(ctx context.Context, job domain.ImageJob) (domain.ImageJob, error)
	nextWaiting func(ctx context.Context) (domain.ImageJob, error)
	setStatus   func(ctx context.Context, id uuid.UUID, status domain.ImageJobStatus, notes string) error
	listPending func(ctx context.Context) ([]domain.ImageJob, error)
}

func (m *mockImageQueueRepo) Enqueue(ctx context.Context, job domain.ImageJob) (domain.ImageJob, error) {
	return m.enqueue(ctx, job)
}
func (m *mockImageQueueRepo) NextWaiting(ctx context.Context) (domain.ImageJob, error) {
	return m.nextWaiting(ctx)
}
func (m *mockImageQueueRepo) SetStatus(ctx context.Context, id uuid.UUID, status domain.ImageJobStatus, notes string) error {
	return m.setStatus(ctx, id, status, notes)
}
func (m *mockImageQueueRepo) ListPending(ctx context.Context) ([]domain.ImageJob, error) {
	return m.listPending(ctx)
}

var _ repo.ImageQueueRepo = (*mockImageQueueRepo)(nil)

type mockGeocoder struct {
	geocode func(ctx context.Context, text string) (geo.Location, error)
}

func (m *mockGeocoder) Geocode(ctx context.Context, text string) (geo.Location, error) {
	return m.geocode(ctx, text)
}

type mockZoneResolver struct {
	resolve func(lat, lng float64) (string, error)
}

func (m *mockZoneResolver) Resolve(lat, lng float64) (string, error) { return m.resolve(lat, lng) }

type mockPhotoSearcher struct {
	search func(ctx context.Context, text string) (string, error)
}

func (m *mockPhotoSearcher) Search(ctx context.Context, text string) (string, error) {
	return m.search(ctx, text)
}

// syncSubmitter runs submitted tasks inline so tests observe their effects
// without sleeping.
type syncSubmitter struct {
	errs []error
}

func (s *syncSubmitter) Submit(name string, fn jobs.Task) {
	if err := fn(context.Background()); err != nil {
		s.errs = append(s.errs, err)
	}
}

var _ service.Submitter = (*syncSubmitter)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
