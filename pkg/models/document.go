// Package models defines core data models for the document clustering engine
package models

import (
	"time"

	"github.com/google/uuid"
)

// Document represents a processed document as seen by the clustering engine.
// Documents are created and updated by the external ingestion system; this
// engine only reads documents whose status is StatusCompleted.
type Document struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Title     string    `json:"title" db:"title"`
	Type      *string   `json:"type,omitempty" db:"doc_type"`
	Summary   *string   `json:"summary,omitempty" db:"summary"`
	Status    string    `json:"status" db:"status"`
	KeyPoints []string  `json:"key_points,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Chunk represents one embedded chunk of a document. A document may have
// zero, one, or many chunks; only documents with at least one embedded chunk
// are eligible for clustering or similarity queries.
type Chunk struct {
	ID         uuid.UUID `json:"id" db:"id"`
	DocumentID uuid.UUID `json:"document_id" db:"document_id"`
	ChunkIndex int       `json:"chunk_index" db:"chunk_index"`
	Content    string    `json:"content" db:"content"`

	// Embedding is the fixed-length vector for this chunk. Nil when the
	// chunk has not been embedded yet.
	Embedding []float32 `json:"-" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ChunkWithDocument is the row shape returned by the document store: one
// chunk joined to its owning document, filtered server-side to completed
// documents.
type ChunkWithDocument struct {
	Chunk    Chunk    `json:"chunk"`
	Document Document `json:"document"`
}

// Document processing status
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)
