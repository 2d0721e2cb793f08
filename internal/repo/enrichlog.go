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

// EnrichmentLogRepo is append-mostly: the pipeline only inserts, the list
// method serves the audit endpoint.
type EnrichmentLogRepo interface {
	Insert(ctx context.Context, entry domain.EnrichmentLog) (domain.EnrichmentLog, error)

	// ListByEntity returns the entity's log entries, most recent first.
	ListByEntity(ctx context.Context, entityType domain.EnrichmentEntity, entityID uuid.UUID) ([]domain.EnrichmentLog, error)
}

type pgEnrichmentLogRepo struct {
	db db
}

func NewEnrichmentLogRepo(db db) EnrichmentLogRepo {
	return &pgEnrichmentLogRepo{db: db}
}

const enrichLogColumns = `
	id, entity_type, entity_id, entity_name, step, query, source,
	status, error_detail, photo_url, created_at`

func (r *pgEnrichmentLogRepo) Insert(ctx context.Context, entry domain.EnrichmentLog) (domain.EnrichmentLog, error) {
	const q = `
		INSERT INTO enrichment_logs (
			entity_type, entity_id, entity_name, step, query, source,
			status, error_detail, photo_url
		) VALUES (
			@entity_type, @entity_id, @entity_name, @step, @query, @source,
			@status, @error_detail, @photo_url
		)
		RETURNING ` + enrichLogColumns

	args := pgx.NamedArgs{
		"entity_type":  entry.EntityType,
		"entity_id":    entry.EntityID,
		"entity_name":  entry.EntityName,
		"step":         entry.Step,
		"query":        entry.Query,
		"source":       entry.Source,
		"status":       entry.Status,
		"error_detail": entry.ErrorDetail,
		"photo_url":    entry.PhotoURL,
	}

	result, err := scanEnrichmentLog(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.EnrichmentLog{}, fmt.Errorf("repo.EnrichmentLogRepo.Insert: %w", err)
	}
	return result, nil
}

func (r *pgEnrichmentLogRepo) ListByEntity(ctx context.Context, entityType domain.EnrichmentEntity, entityID uuid.UUID) ([]domain.EnrichmentLog, error) {
	const q = `
		SELECT ` + enrichLogColumns + `
		FROM enrichment_logs
		WHERE entity_type = @entity_type AND entity_id = @entity_id
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"entity_type": entityType, "entity_id": entityID})
	if err != nil {
		return nil, fmt.Errorf("repo.EnrichmentLogRepo.ListByEntity: %w", err)
	}
	defer rows.Close()

	var out []domain.EnrichmentLog
	for rows.Next() {
		entry, err := scanEnrichmentLog(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.EnrichmentLogRepo.ListByEntity: scan: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.EnrichmentLogRepo.ListByEntity: rows: %w", err)
	}

	return out, nil
}

func scanEnrichmentLog(s scanner) (domain.EnrichmentLog, error) {
	var (
		entry    domain.EnrichmentLog
		id       pgtype.UUID
		entityID pgtype.UUID
	)

	err := s.Scan(
		&id, &entry.EntityType, &entityID, &entry.EntityName, &entry.Step,
		&entry.Query, &entry.Source, &entry.Status, &entry.ErrorDetail,
		&entry.PhotoURL, &entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.EnrichmentLog{}, domain.ErrNotFound
		}
		return domain.EnrichmentLog{}, err
	}

	entry.ID = uuid.UUID(id.Bytes)
	entry.EntityID = uuid.UUID(entityID.Bytes)
	return entry, nil
}
