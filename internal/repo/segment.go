package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkeller/tripstitch/internal/domain"
)

// SegmentRepo defines the persistence operations for segments.
//
// Ordering is managed here: InsertAt and Delete shift sibling sort_order
// values inside a single transaction, so a crash can never leave a trip with
// a half-applied resequence.
type SegmentRepo interface {
	// Create appends a segment at the end of its trip's ordering (the
	// segment's Order field is ignored and assigned max+1).
	Create(ctx context.Context, seg domain.Segment) (domain.Segment, error)

	// InsertAt inserts a segment at the exact Order it carries, shifting
	// every sibling at that position or later up by one. Insertion and
	// shift commit atomically.
	InsertAt(ctx context.Context, seg domain.Segment) (domain.Segment, error)

	// GetByID returns domain.ErrNotFound if no segment with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Segment, error)

	// ListByTrip returns the trip's segments in display order.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Segment, error)

	// Update overwrites the mutable fields of a segment (everything except
	// trip_id and sort_order) and returns the updated record.
	Update(ctx context.Context, seg domain.Segment) (domain.Segment, error)

	// Delete removes a segment and closes the ordering gap it leaves,
	// atomically. Reservations cascade.
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgSegmentRepo struct {
	db db
}

func NewSegmentRepo(db db) SegmentRepo {
	return &pgSegmentRepo{db: db}
}

const segmentColumns = `
	id, trip_id, name, sort_order, seg_type,
	start_name, start_lat, start_lng, start_zone,
	end_name, end_lat, end_lng, end_zone,
	wall_start_date, wall_start_clock, wall_start_zone,
	wall_end_date, wall_end_clock, wall_end_zone,
	utc_start, utc_end, created_at, updated_at`

func segmentArgs(seg domain.Segment) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":               seg.ID,
		"trip_id":          seg.TripID,
		"name":             seg.Name,
		"sort_order":       seg.Order,
		"seg_type":         seg.Type,
		"start_name":       seg.Start.Name,
		"start_lat":        seg.Start.Lat,
		"start_lng":        seg.Start.Lng,
		"start_zone":       seg.Start.Zone,
		"end_name":         seg.End.Name,
		"end_lat":          seg.End.Lat,
		"end_lng":          seg.End.Lng,
		"end_zone":         seg.End.Zone,
		"wall_start_date":  seg.WallStart.Date,
		"wall_start_clock": seg.WallStart.Clock,
		"wall_start_zone":  seg.WallStart.Zone,
		"wall_end_date":    seg.WallEnd.Date,
		"wall_end_clock":   seg.WallEnd.Clock,
		"wall_end_zone":    seg.WallEnd.Zone,
		"utc_start":        seg.UTCStart,
		"utc_end":          seg.UTCEnd,
	}
}

const insertSegmentSQL = `
	INSERT INTO segments (
		trip_id, name, sort_order, seg_type,
		start_name, start_lat, start_lng, start_zone,
		end_name, end_lat, end_lng, end_zone,
		wall_start_date, wall_start_clock, wall_start_zone,
		wall_end_date, wall_end_clock, wall_end_zone,
		utc_start, utc_end
	) VALUES (
		@trip_id, @name, @sort_order, @seg_type,
		@start_name, @start_lat, @start_lng, @start_zone,
		@end_name, @end_lat, @end_lng, @end_zone,
		@wall_start_date, @wall_start_clock, @wall_start_zone,
		@wall_end_date, @wall_end_clock, @wall_end_zone,
		@utc_start, @utc_end
	)
	RETURNING ` + segmentColumns

func (r *pgSegmentRepo) Create(ctx context.Context, seg domain.Segment) (domain.Segment, error) {
	const next = `SELECT COALESCE(MAX(sort_order) + 1, 0) FROM segments WHERE trip_id = @trip_id`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("repo.SegmentRepo.Create: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx, next, pgx.NamedArgs{"trip_id": seg.TripID}).Scan(&seg.Order); err != nil {
		return domain.Segment{}, fmt.Errorf("repo.SegmentRepo.Create: next order: %w", err)
	}

	result, err := scanSegment(tx.QueryRow(ctx, insertSegmentSQL, segmentArgs(seg)))
	if err != nil {
		return domain.Segment{}, fmt.Errorf("repo.SegmentRepo.Create: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Segment{}, fmt.Errorf("repo.SegmentRepo.Create: commit: %w", err)
	}
	return result, nil
}

func (r *pgSegmentRepo) InsertAt(ctx context.Context, seg domain.Segment) (domain.Segment, error) {
	const shift = `
		UPDATE segments
		SET sort_order = sort_order + 1, updated_at = now()
		WHERE trip_id = @trip_id AND sort_order >= @sort_order`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("repo.SegmentRepo.InsertAt: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	args := pgx.NamedArgs{"trip_id": seg.TripID, "sort_order": seg.Order}
	if _, err := tx.Exec(ctx, shift, args); err != nil {
		return domain.Segment{}, fmt.Errorf("repo.SegmentRepo.InsertAt: shift: %w", err)
	}

	result, err := scanSegment(tx.QueryRow(ctx, insertSegmentSQL, segmentArgs(seg)))
	if err != nil {
		return domain.Segment{}, fmt.Errorf("repo.SegmentRepo.InsertAt: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Segment{}, fmt.Errorf("repo.SegmentRepo.InsertAt: commit: %w", err)
	}
	return result, nil
}

func (r *pgSegmentRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Segment, error) {
	const q = `SELECT ` + segmentColumns + ` FROM segments WHERE id = @id`

	result, err := scanSegment(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Segment{}, fmt.Errorf("repo.SegmentRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgSegmentRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Segment, error) {
	const q = `SELECT ` + segmentColumns + ` FROM segments WHERE trip_id = @trip_id ORDER BY sort_order`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.SegmentRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	var segs []domain.Segment
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.SegmentRepo.ListByTrip: scan: %w", err)
		}
		segs = append(segs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.SegmentRepo.ListByTrip: rows: %w", err)
	}

	return segs, nil
}

func (r *pgSegmentRepo) Update(ctx context.Context, seg domain.Segment) (domain.Segment, error) {
	const q = `
		UPDATE segments
		SET name             = @name,
		    seg_type         = @seg_type,
		    start_name       = @start_name,
		    start_lat        = @start_lat,
		    start_lng        = @start_lng,
		    start_zone       = @start_zone,
		    end_name         = @end_name,
		    end_lat          = @end_lat,
		    end_lng          = @end_lng,
		    end_zone         = @end_zone,
		    wall_start_date  = @wall_start_date,
		    wall_start_clock = @wall_start_clock,
		    wall_start_zone  = @wall_start_zone,
		    wall_end_date    = @wall_end_date,
		    wall_end_clock   = @wall_end_clock,
		    wall_end_zone    = @wall_end_zone,
		    utc_start        = @utc_start,
		    utc_end          = @utc_end,
		    updated_at       = now()
		WHERE id = @id
		RETURNING ` + segmentColumns

	result, err := scanSegment(r.db.QueryRow(ctx, q, segmentArgs(seg)))
	if err != nil {
		return domain.Segment{}, fmt.Errorf("repo.SegmentRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgSegmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const del = `
		DELETE FROM segments
		WHERE id = @id
		RETURNING trip_id, sort_order`
	const closeGap = `
		UPDATE segments
		SET sort_order = sort_order - 1, updated_at = now()
		WHERE trip_id = @trip_id AND sort_order > @sort_order`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.SegmentRepo.Delete: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		tripID pgtype.UUID
		order  int
	)
	if err := tx.QueryRow(ctx, del, pgx.NamedArgs{"id": id}).Scan(&tripID, &order); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("repo.SegmentRepo.Delete: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("repo.SegmentRepo.Delete: %w", err)
	}

	args := pgx.NamedArgs{"trip_id": uuid.UUID(tripID.Bytes), "sort_order": order}
	if _, err := tx.Exec(ctx, closeGap, args); err != nil {
		return fmt.Errorf("repo.SegmentRepo.Delete: close gap: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.SegmentRepo.Delete: commit: %w", err)
	}
	return nil
}

func scanSegment(s scanner) (domain.Segment, error) {
	var (
		seg    domain.Segment
		id     pgtype.UUID
		tripID pgtype.UUID
	)

	err := s.Scan(
		&id, &tripID, &seg.Name, &seg.Order, &seg.Type,
		&seg.Start.Name, &seg.Start.Lat, &seg.Start.Lng, &seg.Start.Zone,
		&seg.End.Name, &seg.End.Lat, &seg.End.Lng, &seg.End.Zone,
		&seg.WallStart.Date, &seg.WallStart.Clock, &seg.WallStart.Zone,
		&seg.WallEnd.Date, &seg.WallEnd.Clock, &seg.WallEnd.Zone,
		&seg.UTCStart, &seg.UTCEnd, &seg.CreatedAt, &seg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Segment{}, domain.ErrNotFound
		}
		return domain.Segment{}, err
	}

	seg.ID = uuid.UUID(id.Bytes)
	seg.TripID = uuid.UUID(tripID.Bytes)
	return seg, nil
}
