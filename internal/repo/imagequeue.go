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

// ImageQueueRepo manages the generated-image work queue. The API service
// only enqueues; NextWaiting, SetStatus and ListPending are the claim and
// complete surface for the image-generation worker, which runs as a
// separate process against the same database.
type ImageQueueRepo interface {
	// Enqueue records that an entity needs a generated image. If a waiting
	// or in-progress job already exists for the entity, its prompt and notes
	// are refreshed instead of inserting a duplicate; the dedup is enforced
	// by a partial unique index, so concurrent enqueues cannot race past it.
	Enqueue(ctx context.Context, job domain.ImageJob) (domain.ImageJob, error)

	// NextWaiting claims the oldest waiting job, flipping it to in_progress.
	// Returns domain.ErrNotFound when the queue is empty.
	NextWaiting(ctx context.Context) (domain.ImageJob, error)

	// SetStatus moves a job to a terminal or retry state.
	SetStatus(ctx context.Context, id uuid.UUID, status domain.ImageJobStatus, notes string) error

	// ListPending returns waiting and in-progress jobs, oldest first.
	ListPending(ctx context.Context) ([]domain.ImageJob, error)
}

type pgImageQueueRepo struct {
	db db
}

func NewImageQueueRepo(db db) ImageQueueRepo {
	return &pgImageQueueRepo{db: db}
}

const imageJobColumns = `id, entity_type, entity_id, prompt, status, notes, created_at, updated_at`

func (r *pgImageQueueRepo) Enqueue(ctx context.Context, job domain.ImageJob) (domain.ImageJob, error) {
	const q = `
		INSERT INTO image_queue (entity_type, entity_id, prompt, status, notes)
		VALUES (@entity_type, @entity_id, @prompt, 'waiting', @notes)
		ON CONFLICT (entity_type, entity_id) WHERE status IN ('waiting', 'in_progress')
		DO UPDATE SET prompt = EXCLUDED.prompt, notes = EXCLUDED.notes, updated_at = now()
		RETURNING ` + imageJobColumns

	args := pgx.NamedArgs{
		"entity_type": job.EntityType,
		"entity_id":   job.EntityID,
		"prompt":      job.Prompt,
		"notes":       job.Notes,
	}

	result, err := scanImageJob(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.ImageJob{}, fmt.Errorf("repo.ImageQueueRepo.Enqueue: %w", err)
	}
	return result, nil
}

func (r *pgImageQueueRepo) NextWaiting(ctx context.Context) (domain.ImageJob, error) {
	const q = `
		UPDATE image_queue
		SET status = 'in_progress', updated_at = now()
		WHERE id = (
			SELECT id FROM image_queue
			WHERE status = 'waiting'
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + imageJobColumns

	result, err := scanImageJob(r.db.QueryRow(ctx, q))
	if err != nil {
		return domain.ImageJob{}, fmt.Errorf("repo.ImageQueueRepo.NextWaiting: %w", err)
	}
	return result, nil
}

func (r *pgImageQueueRepo) SetStatus(ctx context.Context, id uuid.UUID, status domain.ImageJobStatus, notes string) error {
	const q = `
		UPDATE image_queue
		SET status = @status, notes = @notes, updated_at = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "status": status, "notes": notes})
	if err != nil {
		return fmt.Errorf("repo.ImageQueueRepo.SetStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ImageQueueRepo.SetStatus: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgImageQueueRepo) ListPending(ctx context.Context) ([]domain.ImageJob, error) {
	const q = `
		SELECT ` + imageJobColumns + `
		FROM image_queue
		WHERE status IN ('waiting', 'in_progress')
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.ImageQueueRepo.ListPending: %w", err)
	}
	defer rows.Close()

	var out []domain.ImageJob
	for rows.Next() {
		job, err := scanImageJob(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ImageQueueRepo.ListPending: scan: %w", err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ImageQueueRepo.ListPending: rows: %w", err)
	}

	return out, nil
}

func scanImageJob(s scanner) (domain.ImageJob, error) {
	var (
		job      domain.ImageJob
		id       pgtype.UUID
		entityID pgtype.UUID
	)

	err := s.Scan(
		&id, &job.EntityType, &entityID, &job.Prompt, &job.Status,
		&job.Notes, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ImageJob{}, domain.ErrNotFound
		}
		return domain.ImageJob{}, err
	}

	job.ID = uuid.UUID(id.Bytes)
	job.EntityID = uuid.UUID(entityID.Bytes)
	return job, nil
}
