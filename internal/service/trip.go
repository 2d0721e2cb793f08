// Package service contains the business logic for the tripstitch API.
// Services validate inputs, enforce business rules, and orchestrate repo and
// collaborator calls. No SQL lives here — services depend on repo
// interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkeller/tripstitch/internal/domain"
	"github.com/pkeller/tripstitch/internal/repo"
)

// TripService implements business logic for trip operations.
type TripService struct {
	trips    repo.TripRepo
	segments repo.SegmentRepo
}

func NewTripService(trips repo.TripRepo, segments repo.SegmentRepo) *TripService {
	return &TripService{trips: trips, segments: segments}
}

// Create validates and persists a new trip.
func (s *TripService) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return s.trips.Create(ctx, trip)
}

func (s *TripService) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return s.trips.GetByID(ctx, id)
}

func (s *TripService) List(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, error) {
	return s.trips.List(ctx, p)
}

// Update validates and updates an existing trip. Shrinking the date range is
// allowed here — explicit edits are the user's call, unlike automatic
// boundary extension which only ever widens.
func (s *TripService) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	return s.trips.Update(ctx, trip)
}

func (s *TripService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.trips.Delete(ctx, id)
}

// Segments returns the trip's segments in display order, confirming the
// trip exists first so a bogus trip ID is a 404 rather than an empty list.
func (s *TripService) Segments(ctx context.Context, tripID uuid.UUID) ([]domain.Segment, error) {
	if _, err := s.trips.GetByID(ctx, tripID); err != nil {
		return nil, fmt.Errorf("service.TripService.Segments: %w", err)
	}
	return s.segments.ListByTrip(ctx, tripID)
}

func validateTrip(trip domain.Trip) error {
	if strings.TrimSpace(trip.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if trip.StartDate.IsZero() || trip.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", domain.ErrValidation)
	}
	if trip.EndDate.Before(trip.StartDate) {
		return fmt.Errorf("%w: end_date must not precede start_date", domain.ErrValidation)
	}
	return nil
}
