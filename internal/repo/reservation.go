package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkeller/tripstitch/internal/domain"
)

// ReservationRepo defines the persistence operations for reservations.
//
// SetDerivedTimes and SetImage exist so the enrichment pipeline can rewrite
// only derived fields in place. The traveller-entered wall-clock values are
// never touched by those methods.
type ReservationRepo interface {
	Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error)

	// GetByID returns domain.ErrNotFound if no reservation with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error)

	// ListBySegment returns the segment's reservations ordered by UTC start,
	// nulls last, then creation time.
	ListBySegment(ctx context.Context, segmentID uuid.UUID) ([]domain.Reservation, error)

	// Update overwrites the mutable fields of a reservation.
	Update(ctx context.Context, res domain.Reservation) (domain.Reservation, error)

	// SetDerivedTimes overwrites the wall-clock zones and recomputed UTC
	// instants only, leaving every traveller-entered field untouched.
	SetDerivedTimes(ctx context.Context, id uuid.UUID, startZone, endZone string, utcStart, utcEnd *time.Time) error

	// SetImage sets the looked-up image URL unless the user has pinned a
	// custom image; in that case it is a no-op, not an error.
	SetImage(ctx context.Context, id uuid.UUID, url string) error

	// Delete returns domain.ErrNotFound if the reservation does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgReservationRepo struct {
	db db
}

func NewReservationRepo(db db) ReservationRepo {
	return &pgReservationRepo{db: db}
}

const reservationColumns = `
	id, segment_id, kind, status, name, vendor, confirmation_number,
	cost, currency, contact_info, start_location, end_location,
	wall_start_date, wall_start_clock, wall_start_zone,
	wall_end_date, wall_end_clock, wall_end_zone,
	utc_start, utc_end, image_url, image_is_custom, error_note,
	metadata, created_at, updated_at`

func reservationArgs(res domain.Reservation) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":                  res.ID,
		"segment_id":          res.SegmentID,
		"kind":                res.Kind,
		"status":              res.Status,
		"name":                res.Name,
		"vendor":              res.Vendor,
		"confirmation_number": res.ConfirmationNumber,
		"cost":                res.Cost,
		"currency":            res.Currency,
		"contact_info":        res.ContactInfo,
		"start_location":      res.StartLocation,
		"end_location":        res.EndLocation,
		"wall_start_date":     res.WallStart.Date,
		"wall_start_clock":    res.WallStart.Clock,
		"wall_start_zone":     res.WallStart.Zone,
		"wall_end_date":       res.WallEnd.Date,
		"wall_end_clock":      res.WallEnd.Clock,
		"wall_end_zone":       res.WallEnd.Zone,
		"utc_start":           res.UTCStart,
		"utc_end":             res.UTCEnd,
		"image_url":           res.ImageURL,
		"image_is_custom":     res.ImageIsCustom,
		"error_note":          res.ErrorNote,
		"metadata":            res.Metadata,
	}
}

func (r *pgReservationRepo) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	const q = `
		INSERT INTO reservations (
			segment_id, kind, status, name, vendor, confirmation_number,
			cost, currency, contact_info, start_location, end_location,
			wall_start_date, wall_start_clock, wall_start_zone,
			wall_end_date, wall_end_clock, wall_end_zone,
			utc_start, utc_end, image_url, image_is_custom, error_note, metadata
		) VALUES (
			@segment_id, @kind, @status, @name, @vendor, @confirmation_number,
			@cost, @currency, @contact_info, @start_location, @end_location,
			@wall_start_date, @wall_start_clock, @wall_start_zone,
			@wall_end_date, @wall_end_clock, @wall_end_zone,
			@utc_start, @utc_end, @image_url, @image_is_custom, @error_note, @metadata
		)
		RETURNING ` + reservationColumns

	result, err := scanReservation(r.db.QueryRow(ctx, q, reservationArgs(res)))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = @id`

	result, err := scanReservation(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgReservationRepo) ListBySegment(ctx context.Context, segmentID uuid.UUID) ([]domain.Reservation, error) {
	const q = `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE segment_id = @segment_id
		ORDER BY utc_start NULLS LAST, created_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"segment_id": segmentID})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListBySegment: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ReservationRepo.ListBySegment: scan: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListBySegment: rows: %w", err)
	}

	return out, nil
}

func (r *pgReservationRepo) Update(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	const q = `
		UPDATE reservations
		SET kind                = @kind,
		    status              = @status,
		    name                = @name,
		    vendor              = @vendor,
		    confirmation_number = @confirmation_number,
		    cost                = @cost,
		    currency            = @currency,
		    contact_info        = @contact_info,
		    start_location      = @start_location,
		    end_location        = @end_location,
		    wall_start_date     = @wall_start_date,
		    wall_start_clock    = @wall_start_clock,
		    wall_start_zone     = @wall_start_zone,
		    wall_end_date       = @wall_end_date,
		    wall_end_clock      = @wall_end_clock,
		    wall_end_zone       = @wall_end_zone,
		    utc_start           = @utc_start,
		    utc_end             = @utc_end,
		    image_url           = @image_url,
		    image_is_custom     = @image_is_custom,
		    error_note          = @error_note,
		    metadata            = @metadata,
		    updated_at          = now()
		WHERE id = @id
		RETURNING ` + reservationColumns

	result, err := scanReservation(r.db.QueryRow(ctx, q, reservationArgs(res)))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgReservationRepo) SetDerivedTimes(ctx context.Context, id uuid.UUID, startZone, endZone string, utcStart, utcEnd *time.Time) error {
	const q = `
		UPDATE reservations
		SET wall_start_zone = @start_zone,
		    wall_end_zone   = @end_zone,
		    utc_start       = @utc_start,
		    utc_end         = @utc_end,
		    updated_at      = now()
		WHERE id = @id`

	args := pgx.NamedArgs{
		"id":         id,
		"start_zone": startZone,
		"end_zone":   endZone,
		"utc_start":  utcStart,
		"utc_end":    utcEnd,
	}

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("repo.ReservationRepo.SetDerivedTimes: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ReservationRepo.SetDerivedTimes: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgReservationRepo) SetImage(ctx context.Context, id uuid.UUID, url string) error {
	const q = `
		UPDATE reservations
		SET image_url = @image_url, updated_at = now()
		WHERE id = @id AND NOT image_is_custom`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "image_url": url}); err != nil {
		return fmt.Errorf("repo.ReservationRepo.SetImage: %w", err)
	}
	return nil
}

func (r *pgReservationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM reservations WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.ReservationRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ReservationRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanReservation(s scanner) (domain.Reservation, error) {
	var (
		res   domain.Reservation
		id    pgtype.UUID
		segID pgtype.UUID
	)

	err := s.Scan(
		&id, &segID, &res.Kind, &res.Status, &res.Name, &res.Vendor, &res.ConfirmationNumber,
		&res.Cost, &res.Currency, &res.ContactInfo, &res.StartLocation, &res.EndLocation,
		&res.WallStart.Date, &res.WallStart.Clock, &res.WallStart.Zone,
		&res.WallEnd.Date, &res.WallEnd.Clock, &res.WallEnd.Zone,
		&res.UTCStart, &res.UTCEnd, &res.ImageURL, &res.ImageIsCustom, &res.ErrorNote,
		&res.Metadata, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Reservation{}, domain.ErrNotFound
		}
		return domain.Reservation{}, err
	}

	res.ID = uuid.UUID(id.Bytes)
	res.SegmentID = uuid.UUID(segID.Bytes)
	return res, nil
}
