package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkeller/tripstitch/internal/domain"
	"github.com/pkeller/tripstitch/internal/localtime"
	"github.com/pkeller/tripstitch/internal/repo"
)

// ReservationService implements direct reservation operations: reads,
// manual edits, and deletes. Creation normally goes through the
// AssignmentService; Update is how a user repairs a Draft row.
type ReservationService struct {
	reservations repo.ReservationRepo
	segments     repo.SegmentRepo
}

func NewReservationService(reservations repo.ReservationRepo, segments repo.SegmentRepo) *ReservationService {
	return &ReservationService{reservations: reservations, segments: segments}
}

func (s *ReservationService) GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	return s.reservations.GetByID(ctx, id)
}

// ListBySegment returns the segment's reservations, confirming the segment
// exists first.
func (s *ReservationService) ListBySegment(ctx context.Context, segmentID uuid.UUID) ([]domain.Reservation, error) {
	if _, err := s.segments.GetByID(ctx, segmentID); err != nil {
		return nil, fmt.Errorf("service.ReservationService.ListBySegment: %w", err)
	}
	return s.reservations.ListBySegment(ctx, segmentID)
}

// Update validates and overwrites a reservation's mutable fields. Repairing
// a Draft is a plain update that also sets a real status and clears the
// error note.
func (s *ReservationService) Update(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	if !res.Kind.Valid() {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Update: %w: unknown kind %q", domain.ErrValidation, res.Kind)
	}
	if strings.TrimSpace(res.Name) == "" {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Update: %w: name is required", domain.ErrValidation)
	}
	if err := localtime.Validate(res.WallStart, "start"); err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Update: %w", err)
	}
	// End-less reservations (an open-ended restaurant booking) stay legal
	// through edits; only a present-but-malformed end is rejected.
	if !res.WallEnd.IsZero() {
		if err := localtime.Validate(res.WallEnd, "end"); err != nil {
			return domain.Reservation{}, fmt.Errorf("service.ReservationService.Update: %w", err)
		}
	}

	// Keep derived instants in line with the edited wall clocks.
	res.UTCStart, res.UTCEnd = nil, nil
	if !res.WallStart.IsZero() {
		if t, err := localtime.Instant(res.WallStart, false); err == nil {
			res.UTCStart = &t
		}
	}
	if !res.WallEnd.IsZero() {
		if t, err := localtime.Instant(res.WallEnd, res.WallEnd.Clock == ""); err == nil {
			res.UTCEnd = &t
		}
	}

	return s.reservations.Update(ctx, res)
}

func (s *ReservationService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.reservations.Delete(ctx, id)
}
