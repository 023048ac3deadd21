package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/docmesh/docmesh/pkg/common"
	"github.com/docmesh/docmesh/pkg/models"
	"github.com/docmesh/docmesh/pkg/observability"
	"github.com/docmesh/docmesh/pkg/repository"
)

// SimilarityOptions are the tuning knobs for one similarity query.
type SimilarityOptions struct {
	Limit     int
	Threshold float64
}

// DefaultSimilarityOptions returns the standard tuning knobs.
func DefaultSimilarityOptions() SimilarityOptions {
	return SimilarityOptions{
		Limit:     5,
		Threshold: 0.7,
	}
}

func (o SimilarityOptions) withDefaults() SimilarityOptions {
	defaults := DefaultSimilarityOptions()
	if o.Limit <= 0 {
		o.Limit = defaults.Limit
	}
	if o.Threshold <= 0 {
		o.Threshold = defaults.Threshold
	}
	return o
}

// SimilarityService ranks a tenant's documents by similarity to a target
// document.
type SimilarityService struct {
	store   repository.DocumentStore
	logger  observability.Logger
	metrics observability.MetricsClient
}

// NewSimilarityService creates a new similarity query service
func NewSimilarityService(store repository.DocumentStore, logger observability.Logger, metrics observability.MetricsClient) *SimilarityService {
	if logger == nil {
		logger = observability.NewStandardLogger("similarity_service")
	}
	if metrics == nil {
		metrics = observability.NewNoopMetricsClient()
	}
	return &SimilarityService{
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

// FindSimilarDocuments ranks all other completed, embedded documents in the
// tenant by similarity to the target and returns the top matches above the
// threshold. The target's vector is its first embedded chunk; candidates
// score on their best-matching chunk, because retrieval wants the closest
// match rather than the stable identity the clustering aggregator uses.
//
// Returns ErrDocumentNotFound when the target has no embedded chunk. An
// empty result is not an error.
func (s *SimilarityService) FindSimilarDocuments(ctx context.Context, documentID, tenantID uuid.UUID, opts SimilarityOptions) ([]models.SimilarDocument, error) {
	opts = opts.withDefaults()
	start := time.Now()

	chunks, err := s.store.FetchChunksWithDocuments(ctx, tenantID)
	if err != nil {
		s.metrics.RecordOperation("similarity_service", "find_similar", false, time.Since(start).Seconds(), nil)
		return nil, errors.Wrap(err, "failed to load tenant corpus")
	}

	var targetVector []float32
	type candidate struct {
		title      string
		similarity float64
	}
	candidates := make(map[uuid.UUID]*candidate)

	for _, row := range chunks {
		if row.Document.ID == documentID {
			// First embedded chunk is the target's representative vector
			if targetVector == nil && len(row.Chunk.Embedding) > 0 {
				targetVector = row.Chunk.Embedding
			}
			continue
		}
		if len(row.Chunk.Embedding) == 0 {
			continue
		}
		if _, ok := candidates[row.Document.ID]; !ok {
			// Cosine similarity can be negative, so start below its range
			candidates[row.Document.ID] = &candidate{title: row.Document.Title, similarity: -2}
		}
	}

	if targetVector == nil {
		s.metrics.RecordOperation("similarity_service", "find_similar", false, time.Since(start).Seconds(), nil)
		return nil, errors.Wrapf(ErrDocumentNotFound, "document %s has no embedded chunk", documentID)
	}

	// Best-chunk-match per candidate document
	for _, row := range chunks {
		if row.Document.ID == documentID || len(row.Chunk.Embedding) == 0 {
			continue
		}
		score := common.CosineSimilarity(targetVector, row.Chunk.Embedding)
		if c := candidates[row.Document.ID]; c != nil && score > c.similarity {
			c.similarity = score
		}
	}

	results := make([]models.SimilarDocument, 0, len(candidates))
	for id, c := range candidates {
		if c.similarity >= opts.Threshold {
			results = append(results, models.SimilarDocument{
				DocumentID: id,
				Title:      c.title,
				Similarity: c.similarity,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].DocumentID.String() < results[j].DocumentID.String()
	})

	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	s.metrics.RecordOperation("similarity_service", "find_similar", true, time.Since(start).Seconds(), nil)
	return results, nil
}
