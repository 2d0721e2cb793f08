// Package handler implements the HTTP handlers for the tripstitch API.
// All handlers are methods on Server; methods are split into domain-specific
// files (health.go, trip.go, assign.go, ...) but share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/pkeller/tripstitch/internal/domain"
	"github.com/pkeller/tripstitch/internal/middleware"
	"github.com/pkeller/tripstitch/internal/service"
	"github.com/pkeller/tripstitch/spec"
)

// maxBodyBytes bounds request bodies; batch uploads are the largest payloads.
const maxBodyBytes = 1 << 20

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	List(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, error)
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Segments(ctx context.Context, tripID uuid.UUID) ([]domain.Segment, error)
}

// ReservationServicer defines the reservation operations the handlers use.
type ReservationServicer interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	ListBySegment(ctx context.Context, segmentID uuid.UUID) ([]domain.Reservation, error)
	Update(ctx context.Context, res domain.Reservation) (domain.Reservation, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Assigner places bookings into trips.
type Assigner interface {
	AssignItem(ctx context.Context, tripID uuid.UUID, item service.Item, opts service.Options) (service.AssignResult, error)
	AssignBatch(ctx context.Context, tripID uuid.UUID, items []service.Item, opts service.Options) (service.AssignResult, error)
}

// Enricher schedules enrichment and serves the audit log.
type Enricher interface {
	ScheduleReservation(id uuid.UUID)
	ScheduleSegment(id uuid.UUID)
	ReservationLog(ctx context.Context, id uuid.UUID) ([]domain.EnrichmentLog, error)
}

// Server holds the handler dependencies for all API endpoints.
type Server struct {
	trips        TripServicer
	reservations ReservationServicer
	assigner     Assigner
	enricher     Enricher
	log          *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(trips TripServicer, reservations ReservationServicer, assigner Assigner, enricher Enricher, log *slog.Logger) *Server {
	return &Server{
		trips:        trips,
		reservations: reservations,
		assigner:     assigner,
		enricher:     enricher,
		log:          log,
	}
}

// Routes builds the full router: middleware stack plus every endpoint.
func (s *Server) Routes(corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewSlogLogger(s.log))
	r.Use(middleware.NewCORSHandler(corsOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxBodyBytes))

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(spec.OpenAPI)
	})

	r.Route("/trips", func(r chi.Router) {
		r.Post("/", s.CreateTrip)
		r.Get("/", s.ListTrips)
		r.Route("/{tripID}", func(r chi.Router) {
			r.Get("/", s.GetTrip)
			r.Put("/", s.UpdateTrip)
			r.Delete("/", s.DeleteTrip)
			r.Get("/segments", s.ListTripSegments)
			r.Post("/assign", s.AssignItem)
			r.Post("/assign/batch", s.AssignBatch)
		})
	})

	r.Route("/segments/{segmentID}", func(r chi.Router) {
		r.Get("/reservations", s.ListSegmentReservations)
		r.Post("/enrich", s.EnrichSegment)
	})

	r.Route("/reservations/{reservationID}", func(r chi.Router) {
		r.Get("/", s.GetReservation)
		r.Put("/", s.UpdateReservation)
		r.Delete("/", s.DeleteReservation)
		r.Post("/enrich", s.EnrichReservation)
		r.Get("/enrichment-log", s.GetReservationEnrichmentLog)
	})

	return r
}
