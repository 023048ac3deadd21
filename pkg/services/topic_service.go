package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/docmesh/docmesh/pkg/models"
	"github.com/docmesh/docmesh/pkg/observability"
	"github.com/docmesh/docmesh/pkg/repository"
)

// generalTopic is the bucket for documents with no declared type.
const generalTopic = "General"

// Per-bucket keyword extraction limits
const (
	maxKeywordsPerTopic   = 5
	maxTokensPerKeyPoint  = 3
	minKeywordTokenLength = 5
	defaultMaxTopics      = 10
)

// TopicService surfaces dominant topics across a tenant's corpus by
// grouping documents on their declared type. It is a frequency heuristic
// over stored key points, independent of the embedding-based clustering
// path.
type TopicService struct {
	store   repository.DocumentStore
	logger  observability.Logger
	metrics observability.MetricsClient
}

// NewTopicService creates a new topic detection service
func NewTopicService(store repository.DocumentStore, logger observability.Logger, metrics observability.MetricsClient) *TopicService {
	if logger == nil {
		logger = observability.NewStandardLogger("topic_service")
	}
	if metrics == nil {
		metrics = observability.NewNoopMetricsClient()
	}
	return &TopicService{
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

// DetectTopics buckets the tenant's completed documents by declared type
// and extracts up to five keyword fragments per bucket from key points.
// Buckets are returned by descending document count, capped at maxTopics.
func (s *TopicService) DetectTopics(ctx context.Context, tenantID uuid.UUID, maxTopics int) ([]models.Topic, error) {
	if maxTopics <= 0 {
		maxTopics = defaultMaxTopics
	}
	start := time.Now()

	docs, err := s.store.FetchDocuments(ctx, tenantID)
	if err != nil {
		s.metrics.RecordOperation("topic_service", "detect_topics", false, time.Since(start).Seconds(), nil)
		return nil, errors.Wrap(err, "failed to load tenant documents")
	}

	buckets := make(map[string][]models.Document)
	for _, doc := range docs {
		name := generalTopic
		if doc.Type != nil && *doc.Type != "" {
			name = *doc.Type
		}
		buckets[name] = append(buckets[name], doc)
	}

	topics := make([]models.Topic, 0, len(buckets))
	for name, members := range buckets {
		topics = append(topics, models.Topic{
			Name:          name,
			DocumentCount: len(members),
			Keywords:      extractKeywords(members),
		})
	}

	sort.SliceStable(topics, func(i, j int) bool {
		if topics[i].DocumentCount != topics[j].DocumentCount {
			return topics[i].DocumentCount > topics[j].DocumentCount
		}
		return topics[i].Name < topics[j].Name
	})

	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}

	s.metrics.RecordOperation("topic_service", "detect_topics", true, time.Since(start).Seconds(), nil)
	return topics, nil
}

// extractKeywords scans the documents' key points for frequent fragments:
// lowercase, whitespace-split, tokens longer than four characters, at most
// three tokens per key point, deduplicated, capped per topic. Insertion
// order is kept so the output is deterministic.
func extractKeywords(docs []models.Document) []string {
	keywords := make([]string, 0, maxKeywordsPerTopic)
	seen := make(map[string]bool)

	for _, doc := range docs {
		for _, keyPoint := range doc.KeyPoints {
			taken := 0
			for _, token := range strings.Fields(strings.ToLower(keyPoint)) {
				if taken >= maxTokensPerKeyPoint {
					break
				}
				if len(token) < minKeywordTokenLength {
					continue
				}
				taken++
				if seen[token] {
					continue
				}
				seen[token] = true
				keywords = append(keywords, token)
				if len(keywords) >= maxKeywordsPerTopic {
					return keywords
				}
			}
		}
	}

	return keywords
}
