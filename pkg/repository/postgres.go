package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/docmesh/docmesh/pkg/common"
	"github.com/docmesh/docmesh/pkg/models"
	"github.com/docmesh/docmesh/pkg/observability"
)

// PostgresStore implements DocumentStore backed by Postgres. Chunk
// embeddings are stored in a pgvector column and travel over the wire in
// pgvector text format.
type PostgresStore struct {
	db     *sqlx.DB
	logger observability.Logger
}

// NewPostgresStore creates a new Postgres-backed document store
func NewPostgresStore(db *sqlx.DB, logger observability.Logger) *PostgresStore {
	if logger == nil {
		logger = observability.NewStandardLogger("document_store")
	}
	return &PostgresStore{
		db:     db,
		logger: logger,
	}
}

type chunkDocumentRow struct {
	ChunkID    uuid.UUID      `db:"chunk_id"`
	DocumentID uuid.UUID      `db:"document_id"`
	ChunkIndex int            `db:"chunk_index"`
	Content    string         `db:"content"`
	Embedding  sql.NullString `db:"embedding"`
	TenantID   uuid.UUID      `db:"tenant_id"`
	Title      string         `db:"title"`
	DocType    sql.NullString `db:"doc_type"`
	Summary    sql.NullString `db:"summary"`
	Status     string         `db:"status"`
}

type documentRow struct {
	ID        uuid.UUID      `db:"id"`
	TenantID  uuid.UUID      `db:"tenant_id"`
	Title     string         `db:"title"`
	DocType   sql.NullString `db:"doc_type"`
	Summary   sql.NullString `db:"summary"`
	Status    string         `db:"status"`
	KeyPoints pq.StringArray `db:"key_points"`
}

// FetchChunksWithDocuments implements DocumentStore.FetchChunksWithDocuments
func (s *PostgresStore) FetchChunksWithDocuments(ctx context.Context, tenantID uuid.UUID) ([]models.ChunkWithDocument, error) {
	query := `SELECT c.id AS chunk_id, c.document_id, c.chunk_index, c.content, c.embedding::text AS embedding,
                     d.tenant_id, d.title, d.doc_type, d.summary, d.status
              FROM chunks c
              JOIN documents d ON d.id = c.document_id
              WHERE d.tenant_id = $1 AND d.status = $2
              ORDER BY c.document_id, c.chunk_index`

	var rows []chunkDocumentRow
	if err := s.db.SelectContext(ctx, &rows, query, tenantID, models.StatusCompleted); err != nil {
		return nil, fmt.Errorf("failed to fetch chunks: %w", err)
	}

	result := make([]models.ChunkWithDocument, 0, len(rows))
	for _, row := range rows {
		var embedding []float32
		if row.Embedding.Valid && row.Embedding.String != "" {
			parsed, err := common.ParseVectorFromPgVector(row.Embedding.String)
			if err != nil {
				// One bad vector must not sink the whole corpus
				s.logger.Warn("Skipping unparseable embedding", map[string]interface{}{
					"chunk_id": row.ChunkID.String(),
					"error":    err.Error(),
				})
			} else {
				embedding = parsed
			}
		}

		result = append(result, models.ChunkWithDocument{
			Chunk: models.Chunk{
				ID:         row.ChunkID,
				DocumentID: row.DocumentID,
				ChunkIndex: row.ChunkIndex,
				Content:    row.Content,
				Embedding:  embedding,
			},
			Document: models.Document{
				ID:       row.DocumentID,
				TenantID: row.TenantID,
				Title:    row.Title,
				Type:     nullableString(row.DocType),
				Summary:  nullableString(row.Summary),
				Status:   row.Status,
			},
		})
	}

	return result, nil
}

// FetchDocuments implements DocumentStore.FetchDocuments
func (s *PostgresStore) FetchDocuments(ctx context.Context, tenantID uuid.UUID) ([]models.Document, error) {
	query := `SELECT id, tenant_id, title, doc_type, summary, status, key_points
              FROM documents
              WHERE tenant_id = $1 AND status = $2
              ORDER BY id`

	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, query, tenantID, models.StatusCompleted); err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}

	docs := make([]models.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, models.Document{
			ID:        row.ID,
			TenantID:  row.TenantID,
			Title:     row.Title,
			Type:      nullableString(row.DocType),
			Summary:   nullableString(row.Summary),
			Status:    row.Status,
			KeyPoints: row.KeyPoints,
		})
	}

	return docs, nil
}

// ReplaceClusters implements DocumentStore.ReplaceClusters
func (s *PostgresStore) ReplaceClusters(ctx context.Context, tenantID uuid.UUID, clusters []models.Cluster) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			s.logger.Error("Failed to roll back cluster replace", map[string]interface{}{
				"tenant_id": tenantID.String(),
				"error":     rbErr.Error(),
			})
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_clusters WHERE tenant_id = $1`, tenantID); err != nil {
		return fmt.Errorf("failed to delete existing clusters: %w", err)
	}

	insert := `INSERT INTO document_clusters
               (id, tenant_id, name, description, keywords, document_ids, confidence, color, icon, created_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for _, cluster := range clusters {
		memberIDs := make([]string, len(cluster.DocumentIDs))
		for i, id := range cluster.DocumentIDs {
			memberIDs[i] = id.String()
		}

		createdAt := cluster.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}

		if _, err := tx.ExecContext(ctx, insert,
			cluster.ID,
			tenantID,
			cluster.Name,
			cluster.Description,
			pq.Array(cluster.Keywords),
			pq.Array(memberIDs),
			cluster.Confidence,
			cluster.Color,
			cluster.Icon,
			createdAt,
		); err != nil {
			return fmt.Errorf("failed to insert cluster %s: %w", cluster.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cluster replace: %w", err)
	}

	return nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
