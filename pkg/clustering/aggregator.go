// Package clustering implements embedding-based document grouping: chunk
// aggregation, pairwise similarity, and union-find component extraction.
// Everything here is pure computation over data already in memory; I/O and
// labeling live in the service layer.
package clustering

import (
	"github.com/google/uuid"

	"github.com/docmesh/docmesh/pkg/models"
)

// AggregateDocumentVectors collapses chunk-level embeddings into one
// representative vector per document. The first embedded chunk encountered
// for a document wins; later chunks are ignored. Stable identity matters
// more than centroid quality here, so no averaging is done. Documents with
// no embedded chunk are excluded from the result.
func AggregateDocumentVectors(chunks []models.ChunkWithDocument) map[uuid.UUID]models.DocumentVector {
	vectors := make(map[uuid.UUID]models.DocumentVector)

	for _, row := range chunks {
		if len(row.Chunk.Embedding) == 0 {
			continue
		}
		if _, ok := vectors[row.Document.ID]; ok {
			continue
		}

		vectors[row.Document.ID] = models.DocumentVector{
			DocumentID: row.Document.ID,
			Title:      row.Document.Title,
			Type:       row.Document.Type,
			Summary:    row.Document.Summary,
			Embedding:  row.Chunk.Embedding,
		}
	}

	return vectors
}
