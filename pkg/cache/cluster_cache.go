// Package cache provides a Redis-backed read-through cache for clustering
// results. Clustering a tenant is O(n²) plus one labeling call per cluster,
// so repeated reads between recomputes are served from here.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/docmesh/docmesh/pkg/models"
	"github.com/docmesh/docmesh/pkg/observability"
)

// ClusterCache stores one ClusteringResult per tenant and option set.
type ClusterCache struct {
	client *redis.Client
	ttl    time.Duration
	logger observability.Logger
}

// NewClusterCache creates a new cluster result cache
func NewClusterCache(client *redis.Client, ttl time.Duration, logger observability.Logger) *ClusterCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if logger == nil {
		logger = observability.NewStandardLogger("cluster_cache")
	}
	return &ClusterCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Key builds the cache key for a tenant and its tuning knobs. Different
// knob values cache independently.
func (c *ClusterCache) Key(tenantID uuid.UUID, minSize, maxClusters int, threshold float64) string {
	return fmt.Sprintf("docmesh:clusters:%s:%d:%d:%.4f", tenantID, minSize, maxClusters, threshold)
}

// Get returns the cached result for the key, or (nil, nil) on a miss.
// Redis errors are logged and reported as misses so a cache outage only
// costs recomputation.
func (c *ClusterCache) Get(ctx context.Context, key string) (*models.ClusteringResult, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		c.logger.Warn("Cluster cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, nil
	}

	var result models.ClusteringResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("Discarding undecodable cluster cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		_ = c.client.Del(ctx, key).Err()
		return nil, nil
	}

	return &result, nil
}

// Set stores the result under the key with the configured TTL.
func (c *ClusterCache) Set(ctx context.Context, key string, result *models.ClusteringResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode clustering result: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cluster cache: %w", err)
	}

	return nil
}

// InvalidateTenant drops every cached result for the tenant.
func (c *ClusterCache) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error {
	pattern := fmt.Sprintf("docmesh:clusters:%s:*", tenantID)

	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cluster cache keys: %w", err)
	}

	return nil
}
