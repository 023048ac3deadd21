// Package api exposes the clustering engine's operations over HTTP.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/docmesh/docmesh/pkg/observability"
	"github.com/docmesh/docmesh/pkg/services"
)

// Handler routes HTTP requests to the clustering, similarity, and topic
// services.
type Handler struct {
	clusters   *services.ClusterService
	similarity *services.SimilarityService
	topics     *services.TopicService
	logger     observability.Logger
}

// NewHandler creates a new API handler
func NewHandler(
	clusters *services.ClusterService,
	similarity *services.SimilarityService,
	topics *services.TopicService,
	logger observability.Logger,
) *Handler {
	if logger == nil {
		logger = observability.NewStandardLogger("api")
	}
	return &Handler{
		clusters:   clusters,
		similarity: similarity,
		topics:     topics,
		logger:     logger,
	}
}

// RegisterRoutes attaches the API routes to the router
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/tenants/:tenant_id/clusters", h.ClusterDocuments)
		v1.GET("/tenants/:tenant_id/documents/:document_id/similar", h.FindSimilarDocuments)
		v1.GET("/tenants/:tenant_id/topics", h.DetectTopics)
	}
}

// Health reports service liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ClusterDocuments runs a clustering pass for the tenant.
// Tuning knobs arrive as query parameters: min_size, max_clusters,
// threshold, persist, refresh.
func (h *Handler) ClusterDocuments(c *gin.Context) {
	tenantID, ok := parseUUIDParam(c, "tenant_id")
	if !ok {
		return
	}

	opts := services.DefaultClusterOptions()
	opts.MinSize = intQuery(c, "min_size", opts.MinSize)
	opts.MaxClusters = intQuery(c, "max_clusters", opts.MaxClusters)
	opts.Threshold = floatQuery(c, "threshold", opts.Threshold)
	opts.Persist = boolQuery(c, "persist")
	opts.Refresh = boolQuery(c, "refresh")

	result, err := h.clusters.ClusterDocuments(c.Request.Context(), tenantID, opts)
	if err != nil {
		h.logger.Error("Clustering request failed", map[string]interface{}{
			"tenant_id": tenantID.String(),
			"error":     err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "clustering failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// FindSimilarDocuments ranks the tenant's documents by similarity to one
// target document. Knobs: limit, threshold.
func (h *Handler) FindSimilarDocuments(c *gin.Context) {
	tenantID, ok := parseUUIDParam(c, "tenant_id")
	if !ok {
		return
	}
	documentID, ok := parseUUIDParam(c, "document_id")
	if !ok {
		return
	}

	opts := services.DefaultSimilarityOptions()
	opts.Limit = intQuery(c, "limit", opts.Limit)
	opts.Threshold = floatQuery(c, "threshold", opts.Threshold)

	results, err := h.similarity.FindSimilarDocuments(c.Request.Context(), documentID, tenantID, opts)
	if err != nil {
		if errors.Is(err, services.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found or not embedded"})
			return
		}
		h.logger.Error("Similarity request failed", map[string]interface{}{
			"tenant_id":   tenantID.String(),
			"document_id": documentID.String(),
			"error":       err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "similarity query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// DetectTopics surfaces dominant declared-type topics for the tenant.
// Knobs: max_topics.
func (h *Handler) DetectTopics(c *gin.Context) {
	tenantID, ok := parseUUIDParam(c, "tenant_id")
	if !ok {
		return
	}

	maxTopics := intQuery(c, "max_topics", 10)

	topics, err := h.topics.DetectTopics(c.Request.Context(), tenantID, maxTopics)
	if err != nil {
		h.logger.Error("Topic request failed", map[string]interface{}{
			"tenant_id": tenantID.String(),
			"error":     err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "topic detection failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func floatQuery(c *gin.Context, name string, fallback float64) float64 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}

func boolQuery(c *gin.Context, name string) bool {
	value, err := strconv.ParseBool(c.Query(name))
	return err == nil && value
}
