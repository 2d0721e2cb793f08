package domain

import (
	"time"

	"github.com/google/uuid"
)

// EnrichmentStatus classifies the outcome of one enrichment step.
type EnrichmentStatus string

const (
	EnrichSuccess   EnrichmentStatus = "success"
	EnrichNoResults EnrichmentStatus = "no_results"
	EnrichAPIError  EnrichmentStatus = "api_error"
	EnrichTimeout   EnrichmentStatus = "timeout"
)

// EnrichmentEntity names the kind of record an enrichment or image-queue
// row refers to.
type EnrichmentEntity string

const (
	EntityTrip        EnrichmentEntity = "trip"
	EntitySegment     EnrichmentEntity = "segment"
	EntityReservation EnrichmentEntity = "reservation"
)

// EnrichmentLog is one structured outcome record written per enrichment step,
// regardless of which branch was taken. It exists for observability only and
// is never read back by the pipeline itself.
type EnrichmentLog struct {
	ID          uuid.UUID        `json:"id"`
	EntityType  EnrichmentEntity `json:"entity_type"`
	EntityID    uuid.UUID        `json:"entity_id"`
	EntityName  string           `json:"entity_name"`
	Step        string           `json:"step"`
	Query       string           `json:"query,omitempty"`
	Source      string           `json:"source,omitempty"`
	Status      EnrichmentStatus `json:"status"`
	ErrorDetail string           `json:"error_detail,omitempty"`
	PhotoURL    string           `json:"photo_url,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ImageJobStatus is the lifecycle state of a generated-image queue entry.
type ImageJobStatus string

const (
	ImageJobWaiting    ImageJobStatus = "waiting"
	ImageJobInProgress ImageJobStatus = "in_progress"
	ImageJobCompleted  ImageJobStatus = "completed"
	ImageJobFailed     ImageJobStatus = "failed"
)

// ImageJob is a queued request to generate a representative image for an
// entity when photo search found nothing. At most one waiting/in-progress
// job exists per entity — re-enrichment updates the pending job rather than
// enqueuing a duplicate.
type ImageJob struct {
	ID         uuid.UUID        `json:"id"`
	EntityType EnrichmentEntity `json:"entity_type"`
	EntityID   uuid.UUID        `json:"entity_id"`
	Prompt     string           `json:"prompt"`
	Status     ImageJobStatus   `json:"status"`
	Notes      string           `json:"notes,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}
