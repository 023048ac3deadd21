// Package repository provides the document store contract consumed by the
// clustering engine, plus its Postgres implementation.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/docmesh/docmesh/pkg/models"
)

// DocumentStore is the read/write contract between the clustering engine
// and the persistence layer. Reads are filtered server-side to completed
// documents; writes are limited to the optional replace-all cluster
// persistence described by the engine's concurrency model.
type DocumentStore interface {
	// FetchChunksWithDocuments returns every chunk of every completed
	// document in the tenant, each joined to its owning document.
	FetchChunksWithDocuments(ctx context.Context, tenantID uuid.UUID) ([]models.ChunkWithDocument, error)

	// FetchDocuments returns every completed document in the tenant,
	// including key points, without chunk data. Used by topic detection.
	FetchDocuments(ctx context.Context, tenantID uuid.UUID) ([]models.Document, error)

	// ReplaceClusters atomically replaces all persisted clusters for the
	// tenant with the given set. Last writer wins.
	ReplaceClusters(ctx context.Context, tenantID uuid.UUID, clusters []models.Cluster) error
}
