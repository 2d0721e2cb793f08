package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkeller/tripstitch/internal/domain"
	"github.com/pkeller/tripstitch/internal/geo"
	"github.com/pkeller/tripstitch/internal/jobs"
	"github.com/pkeller/tripstitch/internal/localtime"
	"github.com/pkeller/tripstitch/internal/repo"
)

// Geocoder resolves free-text place names to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, text string) (geo.Location, error)
}

// ZoneResolver maps coordinates to an IANA timezone name.
type ZoneResolver interface {
	Resolve(lat, lng float64) (string, error)
}

// PhotoSearcher finds a representative photo URL for a place name.
type PhotoSearcher interface {
	Search(ctx context.Context, text string) (string, error)
}

// Submitter schedules background work; satisfied by *jobs.Runner. Tests
// substitute a synchronous implementation.
type Submitter interface {
	Submit(name string, fn jobs.Task)
}

// EnrichmentService fills in what the traveller didn't type: coordinates,
// timezones, recomputed UTC instants, and photos. Every step is best-effort
// and idempotent — a failed or partial run can simply be repeated — and
// every step writes an outcome row to the enrichment log.
//
// Wall-clock fields are never modified here; only derived data is written.
type EnrichmentService struct {
	reservations repo.ReservationRepo
	segments     repo.SegmentRepo
	logs         repo.EnrichmentLogRepo
	queue        repo.ImageQueueRepo
	geocoder     Geocoder
	zones        ZoneResolver
	photos       PhotoSearcher
	runner       Submitter
	log          *slog.Logger
}

func NewEnrichmentService(
	reservations repo.ReservationRepo,
	segments repo.SegmentRepo,
	logs repo.EnrichmentLogRepo,
	queue repo.ImageQueueRepo,
	geocoder Geocoder,
	zones ZoneResolver,
	photos PhotoSearcher,
	runner Submitter,
	log *slog.Logger,
) *EnrichmentService {
	return &EnrichmentService{
		reservations: reservations,
		segments:     segments,
		logs:         logs,
		queue:        queue,
		geocoder:     geocoder,
		zones:        zones,
		photos:       photos,
		runner:       runner,
		log:          log,
	}
}

var _ Scheduler = (*EnrichmentService)(nil)

// ScheduleReservation queues reservation enrichment and returns immediately.
func (s *EnrichmentService) ScheduleReservation(id uuid.UUID) {
	s.runner.Submit("enrich-reservation "+id.String(), func(ctx context.Context) error {
		return s.EnrichReservationNow(ctx, id)
	})
}

// ScheduleSegment queues segment enrichment and returns immediately.
func (s *EnrichmentService) ScheduleSegment(id uuid.UUID) {
	s.runner.Submit("enrich-segment "+id.String(), func(ctx context.Context) error {
		return s.EnrichSegmentNow(ctx, id)
	})
}

// EnrichReservationNow runs the full reservation pipeline synchronously:
// resolve missing zones from the endpoint locations, recompute the derived
// UTC instants, then find a photo (queueing image generation as a fallback).
// Collaborator failures degrade the affected step and are logged; only a
// missing reservation or a failed write is an error.
func (s *EnrichmentService) EnrichReservationNow(ctx context.Context, id uuid.UUID) error {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service.EnrichmentService.EnrichReservationNow: %w", err)
	}

	startZone := s.resolveZone(ctx, domain.EntityReservation, res.ID, res.Name, res.WallStart.Zone, res.StartLocation)
	endZone := s.resolveZone(ctx, domain.EntityReservation, res.ID, res.Name, res.WallEnd.Zone, res.EndLocation)

	var utcStart, utcEnd *time.Time
	if !res.WallStart.IsZero() {
		if t, err := localtime.ToUTC(res.WallStart.Date, res.WallStart.Clock, startZone, false); err == nil {
			utcStart = &t
		}
	}
	if !res.WallEnd.IsZero() {
		if t, err := localtime.ToUTC(res.WallEnd.Date, res.WallEnd.Clock, endZone, res.WallEnd.Clock == ""); err == nil {
			utcEnd = &t
		}
	}

	if err := s.reservations.SetDerivedTimes(ctx, res.ID, startZone, endZone, utcStart, utcEnd); err != nil {
		return fmt.Errorf("service.EnrichmentService.EnrichReservationNow: %w", err)
	}

	if res.ImageURL == "" && !res.ImageIsCustom {
		s.findImage(ctx, res)
	}

	return nil
}

// EnrichSegmentNow resolves the segment's endpoint places (coordinates and
// zone) and recomputes its UTC window.
func (s *EnrichmentService) EnrichSegmentNow(ctx context.Context, id uuid.UUID) error {
	seg, err := s.segments.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service.EnrichmentService.EnrichSegmentNow: %w", err)
	}

	seg.Start = s.resolvePlace(ctx, domain.EntitySegment, seg.ID, seg.Name, seg.Start)
	seg.End = s.resolvePlace(ctx, domain.EntitySegment, seg.ID, seg.Name, seg.End)

	if seg.WallStart.Zone == "" {
		seg.WallStart.Zone = seg.Start.Zone
	}
	if seg.WallEnd.Zone == "" {
		seg.WallEnd.Zone = seg.End.Zone
	}

	if !seg.WallStart.IsZero() {
		if t, err := localtime.Instant(seg.WallStart, false); err == nil {
			seg.UTCStart = &t
		}
	}
	if !seg.WallEnd.IsZero() {
		if t, err := localtime.Instant(seg.WallEnd, seg.WallEnd.Clock == ""); err == nil {
			seg.UTCEnd = &t
		}
	}

	if _, err := s.segments.Update(ctx, seg); err != nil {
		return fmt.Errorf("service.EnrichmentService.EnrichSegmentNow: %w", err)
	}
	return nil
}

// resolveZone returns the zone to use for one endpoint: the existing zone if
// already known, else geocode + coordinate lookup. Empty on any failure, so
// the derived times fall back to the naive approximation.
func (s *EnrichmentService) resolveZone(ctx context.Context, entity domain.EnrichmentEntity, id uuid.UUID, name, existing, location string) string {
	if existing != "" {
		return existing
	}
	if location == "" {
		return ""
	}

	loc, err := s.geocoder.Geocode(ctx, location)
	if err != nil {
		s.logStep(ctx, entity, id, name, "geocode", location, "geocode", statusFor(err), err, "")
		return ""
	}
	s.logStep(ctx, entity, id, name, "geocode", location, "geocode", domain.EnrichSuccess, nil, "")

	zone, err := s.zones.Resolve(loc.Lat, loc.Lng)
	if err != nil {
		s.logStep(ctx, entity, id, name, "timezone", location, "tzf", statusFor(err), err, "")
		return ""
	}
	s.logStep(ctx, entity, id, name, "timezone", location, "tzf", domain.EnrichSuccess, nil, "")
	return zone
}

// resolvePlace fills a place's missing coordinates and zone.
func (s *EnrichmentService) resolvePlace(ctx context.Context, entity domain.EnrichmentEntity, id uuid.UUID, name string, place domain.Place) domain.Place {
	if place.Name == "" {
		return place
	}

	if place.Lat == nil || place.Lng == nil {
		loc, err := s.geocoder.Geocode(ctx, place.Name)
		if err != nil {
			s.logStep(ctx, entity, id, name, "geocode", place.Name, "geocode", statusFor(err), err, "")
			return place
		}
		s.logStep(ctx, entity, id, name, "geocode", place.Name, "geocode", domain.EnrichSuccess, nil, "")
		place.Lat, place.Lng = &loc.Lat, &loc.Lng
	}

	if place.Zone == "" {
		zone, err := s.zones.Resolve(*place.Lat, *place.Lng)
		if err != nil {
			s.logStep(ctx, entity, id, name, "timezone", place.Name, "tzf", statusFor(err), err, "")
			return place
		}
		s.logStep(ctx, entity, id, name, "timezone", place.Name, "tzf", domain.EnrichSuccess, nil, "")
		place.Zone = zone
	}

	return place
}

// findImage looks up a photo for the reservation; when the provider has
// none, a generation job is queued instead (deduplicated per entity).
func (s *EnrichmentService) findImage(ctx context.Context, res domain.Reservation) {
	query := res.Name
	if res.EndLocation != "" {
		query = res.Name + " " + res.EndLocation
	}

	url, err := s.photos.Search(ctx, query)
	switch {
	case err == nil:
		if err := s.reservations.SetImage(ctx, res.ID, url); err != nil {
			s.log.Warn("set image failed", slog.String("reservation_id", res.ID.String()), slog.String("error", err.Error()))
			return
		}
		s.logStep(ctx, domain.EntityReservation, res.ID, res.Name, "photo_search", query, "places", domain.EnrichSuccess, nil, url)

	case errors.Is(err, domain.ErrNotFound):
		s.logStep(ctx, domain.EntityReservation, res.ID, res.Name, "photo_search", query, "places", domain.EnrichNoResults, err, "")
		_, qErr := s.queue.Enqueue(ctx, domain.ImageJob{
			EntityType: domain.EntityReservation,
			EntityID:   res.ID,
			Prompt:     imagePrompt(res),
		})
		if qErr != nil {
			s.log.Warn("image queue enqueue failed", slog.String("reservation_id", res.ID.String()), slog.String("error", qErr.Error()))
		}

	default:
		s.logStep(ctx, domain.EntityReservation, res.ID, res.Name, "photo_search", query, "places", statusFor(err), err, "")
	}
}

// logStep records one enrichment outcome. Log writes are themselves
// best-effort; a failure to log never fails the pipeline.
func (s *EnrichmentService) logStep(
	ctx context.Context,
	entity domain.EnrichmentEntity,
	id uuid.UUID,
	name, step, query, source string,
	status domain.EnrichmentStatus,
	cause error,
	photoURL string,
) {
	entry := domain.EnrichmentLog{
		EntityType: entity,
		EntityID:   id,
		EntityName: name,
		Step:       step,
		Query:      query,
		Source:     source,
		Status:     status,
		PhotoURL:   photoURL,
	}
	if cause != nil {
		entry.ErrorDetail = cause.Error()
	}
	if _, err := s.logs.Insert(ctx, entry); err != nil {
		s.log.Warn("enrichment log write failed", slog.String("step", step), slog.String("error", err.Error()))
	}
}

// ReservationLog returns the enrichment history for a reservation.
func (s *EnrichmentService) ReservationLog(ctx context.Context, id uuid.UUID) ([]domain.EnrichmentLog, error) {
	if _, err := s.reservations.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("service.EnrichmentService.ReservationLog: %w", err)
	}
	return s.logs.ListByEntity(ctx, domain.EntityReservation, id)
}

func statusFor(err error) domain.EnrichmentStatus {
	switch {
	case err == nil:
		return domain.EnrichSuccess
	case errors.Is(err, domain.ErrNotFound):
		return domain.EnrichNoResults
	case errors.Is(err, context.DeadlineExceeded):
		return domain.EnrichTimeout
	default:
		return domain.EnrichAPIError
	}
}

func imagePrompt(res domain.Reservation) string {
	location := res.EndLocation
	if location == "" {
		location = res.StartLocation
	}
	if location == "" {
		return fmt.Sprintf("Travel illustration for %q", res.Name)
	}
	return fmt.Sprintf("Travel illustration for %q in %s", res.Name, location)
}
