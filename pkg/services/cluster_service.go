package services

import (
	"context"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"github.com/docmesh/docmesh/pkg/cache"
	"github.com/docmesh/docmesh/pkg/clustering"
	"github.com/docmesh/docmesh/pkg/labeling"
	"github.com/docmesh/docmesh/pkg/models"
	"github.com/docmesh/docmesh/pkg/observability"
	"github.com/docmesh/docmesh/pkg/repository"
)

// ClusterOptions are the tuning knobs for one clustering run.
type ClusterOptions struct {
	// MinSize is the smallest surviving cluster; groups below it are
	// reported as unclustered.
	MinSize int
	// MaxClusters caps the number of returned clusters; excess groups are
	// truncated by descending size, never merged.
	MaxClusters int
	// Threshold is the minimum cosine similarity for two documents to be
	// linked.
	Threshold float64
	// Persist writes the result back through the document store
	// (last-writer-wins replace-all for the tenant).
	Persist bool
	// Refresh bypasses the result cache and recomputes.
	Refresh bool
}

// DefaultClusterOptions returns the standard tuning knobs.
func DefaultClusterOptions() ClusterOptions {
	return ClusterOptions{
		MinSize:     2,
		MaxClusters: 10,
		Threshold:   0.7,
	}
}

func (o ClusterOptions) withDefaults() ClusterOptions {
	defaults := DefaultClusterOptions()
	if o.MinSize <= 0 {
		o.MinSize = defaults.MinSize
	}
	if o.MaxClusters <= 0 {
		o.MaxClusters = defaults.MaxClusters
	}
	if o.Threshold <= 0 {
		o.Threshold = defaults.Threshold
	}
	return o
}

// ClusterService runs the full clustering pipeline: fetch, aggregate, pair,
// union, label, assemble.
type ClusterService struct {
	store   repository.DocumentStore
	labeler labeling.Generator
	cache   *cache.ClusterCache
	breaker *gobreaker.CircuitBreaker
	logger  observability.Logger
	metrics observability.MetricsClient
}

// NewClusterService creates a new cluster service. The labeler and cache
// may be nil; a nil labeler means every cluster gets the deterministic
// fallback label, and a nil cache disables result caching.
func NewClusterService(
	store repository.DocumentStore,
	labeler labeling.Generator,
	resultCache *cache.ClusterCache,
	logger observability.Logger,
	metrics observability.MetricsClient,
) *ClusterService {
	if logger == nil {
		logger = observability.NewStandardLogger("cluster_service")
	}
	if metrics == nil {
		metrics = observability.NewNoopMetricsClient()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "label_generator",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &ClusterService{
		store:   store,
		labeler: labeler,
		cache:   resultCache,
		breaker: breaker,
		logger:  logger,
		metrics: metrics,
	}
}

// ClusterDocuments groups the tenant's completed, embedded documents into
// topic clusters. A corpus smaller than MinSize yields a valid empty result
// with every document reported unclustered; label generator failures
// degrade to fallback labels and never fail the run.
func (s *ClusterService) ClusterDocuments(ctx context.Context, tenantID uuid.UUID, opts ClusterOptions) (*models.ClusteringResult, error) {
	opts = opts.withDefaults()
	start := time.Now()

	var cacheKey string
	if s.cache != nil {
		cacheKey = s.cache.Key(tenantID, opts.MinSize, opts.MaxClusters, opts.Threshold)
		if !opts.Refresh {
			if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != nil {
				s.metrics.RecordCounter("cluster_cache_hit", 1, nil)
				return cached, nil
			}
			s.metrics.RecordCounter("cluster_cache_miss", 1, nil)
		}
	}

	chunks, err := s.store.FetchChunksWithDocuments(ctx, tenantID)
	if err != nil {
		s.metrics.RecordOperation("cluster_service", "cluster_documents", false, time.Since(start).Seconds(), nil)
		return nil, errors.Wrap(err, "failed to load tenant corpus")
	}

	vectors := clustering.AggregateDocumentVectors(chunks)
	docIDs := sortedVectorIDs(vectors)

	result := &models.ClusteringResult{
		Clusters:    []models.Cluster{},
		Unclustered: []uuid.UUID{},
		Stats:       models.ClusteringStats{Total: len(docIDs)},
	}

	if len(docIDs) < opts.MinSize {
		result.Unclustered = docIDs
		s.logger.Info("Corpus below minimum cluster size", map[string]interface{}{
			"tenant_id": tenantID.String(),
			"documents": len(docIDs),
			"min_size":  opts.MinSize,
		})
		s.metrics.RecordOperation("cluster_service", "cluster_documents", true, time.Since(start).Seconds(), nil)
		return result, nil
	}

	pairs := clustering.BuildSimilarityPairs(vectors, opts.Threshold)
	groups := clustering.BuildClusterGroups(docIDs, pairs, opts.MinSize, opts.MaxClusters)

	now := time.Now()
	clustered := make(map[uuid.UUID]bool)
	for ordinal, members := range groups {
		memberDocs := make([]models.DocumentVector, len(members))
		for i, id := range members {
			memberDocs[i] = vectors[id]
			clustered[id] = true
		}

		label := s.labelCluster(ctx, memberDocs, ordinal)

		result.Clusters = append(result.Clusters, models.Cluster{
			ID:          clustering.NewClusterID(now, ordinal),
			TenantID:    tenantID,
			Name:        label.Name,
			Description: label.Description,
			Keywords:    label.Keywords,
			DocumentIDs: members,
			Confidence:  label.Confidence,
			Color:       clustering.ClusterColor(ordinal),
			Icon:        clustering.ClusterIcon(ordinal),
			CreatedAt:   now,
		})
	}

	for _, id := range docIDs {
		if !clustered[id] {
			result.Unclustered = append(result.Unclustered, id)
		}
	}
	result.Stats.ClusteredCount = len(clustered)
	result.Stats.ClusterCount = len(result.Clusters)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, result); err != nil {
			s.logger.Warn("Failed to cache clustering result", map[string]interface{}{
				"tenant_id": tenantID.String(),
				"error":     err.Error(),
			})
		}
	}

	if opts.Persist {
		if err := s.store.ReplaceClusters(ctx, tenantID, result.Clusters); err != nil {
			s.metrics.RecordOperation("cluster_service", "cluster_documents", false, time.Since(start).Seconds(), nil)
			return nil, errors.Wrap(err, "failed to persist clusters")
		}
	}

	s.logger.Info("Clustering run complete", map[string]interface{}{
		"tenant_id":   tenantID.String(),
		"total":       result.Stats.Total,
		"clustered":   result.Stats.ClusteredCount,
		"clusters":    result.Stats.ClusterCount,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	s.metrics.RecordOperation("cluster_service", "cluster_documents", true, time.Since(start).Seconds(), nil)

	return result, nil
}

// labelCluster asks the generator for a label, retrying transient failures
// with bounded exponential backoff behind a circuit breaker. Any terminal
// failure degrades to the deterministic fallback; labeling must never fail
// a clustering run.
func (s *ClusterService) labelCluster(ctx context.Context, documents []models.DocumentVector, ordinal int) labeling.Label {
	if s.labeler == nil {
		return labeling.FallbackLabel(ordinal)
	}

	generated, err := s.breaker.Execute(func() (interface{}, error) {
		bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)

		var label *labeling.Label
		retryErr := backoff.Retry(func() error {
			var callErr error
			label, callErr = s.labeler.GenerateLabel(ctx, documents)
			return callErr
		}, bo)

		return label, retryErr
	})
	if err != nil {
		s.logger.Warn("Label generation degraded to fallback", map[string]interface{}{
			"ordinal": ordinal,
			"members": len(documents),
			"error":   err.Error(),
		})
		s.metrics.RecordCounter("label_generation_fallback", 1, nil)
		return labeling.FallbackLabel(ordinal)
	}

	label, ok := generated.(*labeling.Label)
	if !ok || label == nil {
		return labeling.FallbackLabel(ordinal)
	}
	return *label
}

func sortedVectorIDs(vectors map[uuid.UUID]models.DocumentVector) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(vectors))
	for id := range vectors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}
