package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentVector is the in-memory working representation of one eligible
// document: a single representative embedding plus the lightweight metadata
// the labeler needs. It is derived per invocation and never persisted.
type DocumentVector struct {
	DocumentID uuid.UUID `json:"document_id"`
	Title      string    `json:"title"`
	Type       *string   `json:"type,omitempty"`
	Summary    *string   `json:"summary,omitempty"`
	Embedding  []float32 `json:"-"`
}

// SimilarityPair is an unordered pair of documents with their cosine
// similarity score. Pairs below the configured threshold are never emitted.
type SimilarityPair struct {
	DocumentA  uuid.UUID `json:"document_a"`
	DocumentB  uuid.UUID `json:"document_b"`
	Similarity float64   `json:"similarity"`
}

// Cluster is one group of related documents produced by a clustering run.
type Cluster struct {
	ID          string      `json:"id"`
	TenantID    uuid.UUID   `json:"tenant_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Keywords    []string    `json:"keywords"`
	DocumentIDs []uuid.UUID `json:"document_ids"`
	Confidence  float64     `json:"confidence"`
	Color       string      `json:"color"`
	Icon        string      `json:"icon"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ClusteringStats summarizes one clustering run.
type ClusteringStats struct {
	Total          int `json:"total"`
	ClusteredCount int `json:"clustered_count"`
	ClusterCount   int `json:"cluster_count"`
}

// ClusteringResult is the full output of ClusterDocuments. A result with
// zero clusters and a populated Unclustered list is valid; it means the
// corpus was too small or too dissimilar, not that the run failed.
type ClusteringResult struct {
	Clusters    []Cluster       `json:"clusters"`
	Unclustered []uuid.UUID     `json:"unclustered"`
	Stats       ClusteringStats `json:"stats"`
}

// SimilarDocument is one entry in the ranked output of FindSimilarDocuments.
type SimilarDocument struct {
	DocumentID uuid.UUID `json:"document_id"`
	Title      string    `json:"title"`
	Similarity float64   `json:"similarity"`
}

// Topic is a coarse declared-type bucket with extracted keyword fragments.
// Topics are independent of embedding-based clusters.
type Topic struct {
	Name          string   `json:"topic"`
	DocumentCount int      `json:"document_count"`
	Keywords      []string `json:"keywords"`
}
