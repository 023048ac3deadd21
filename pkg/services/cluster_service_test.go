package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/docmesh/docmesh/pkg/labeling"
	"github.com/docmesh/docmesh/pkg/models"
	"github.com/docmesh/docmesh/pkg/observability"
	"github.com/docmesh/docmesh/pkg/repository"
)

// stubLabeler returns a canned label for every cluster.
type stubLabeler struct {
	label labeling.Label
	calls int
}

func (s *stubLabeler) GenerateLabel(ctx context.Context, documents []models.DocumentVector) (*labeling.Label, error) {
	s.calls++
	label := s.label
	return &label, nil
}

// failingLabeler fails every call.
type failingLabeler struct {
	mu    sync.Mutex
	calls int
}

func (f *failingLabeler) GenerateLabel(ctx context.Context, documents []models.DocumentVector) (*labeling.Label, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil, fmt.Errorf("label backend unavailable")
}

func corpusRow(tenantID, docID uuid.UUID, title string, embedding []float32) models.ChunkWithDocument {
	return models.ChunkWithDocument{
		Chunk: models.Chunk{
			ID:         uuid.New(),
			DocumentID: docID,
			Embedding:  embedding,
		},
		Document: models.Document{
			ID:       docID,
			TenantID: tenantID,
			Title:    title,
			Status:   models.StatusCompleted,
		},
	}
}

// scenarioCorpus builds 5 documents: 3 with near-identical vectors and 2
// unrelated to everything.
func scenarioCorpus(tenantID uuid.UUID) ([]models.ChunkWithDocument, []uuid.UUID, []uuid.UUID) {
	related := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	unrelated := []uuid.UUID{uuid.New(), uuid.New()}

	rows := []models.ChunkWithDocument{
		corpusRow(tenantID, related[0], "billing march", []float32{1, 0, 0}),
		corpusRow(tenantID, related[1], "billing april", []float32{0.98, 0.2, 0}),
		corpusRow(tenantID, related[2], "billing may", []float32{0.97, 0.24, 0}),
		corpusRow(tenantID, unrelated[0], "hiking notes", []float32{0, 1, 0}),
		corpusRow(tenantID, unrelated[1], "recipe ideas", []float32{0, 0, 1}),
	}

	return rows, related, unrelated
}

func newClusterService(store repository.DocumentStore, labeler labeling.Generator) *ClusterService {
	return NewClusterService(store, labeler, nil, observability.NewNoopLogger(), observability.NewNoopMetricsClient())
}

func TestClusterDocumentsScenarioA(t *testing.T) {
	tenantID := uuid.New()
	rows, related, unrelated := scenarioCorpus(tenantID)

	store := &repository.MockDocumentStore{}
	store.On("FetchChunksWithDocuments", mock.Anything, tenantID).Return(rows, nil)

	labeler := &stubLabeler{label: labeling.Label{Name: "Billing", Description: "Invoices", Keywords: []string{"billing"}, Confidence: 0.9}}
	svc := newClusterService(store, labeler)

	result, err := svc.ClusterDocuments(context.Background(), tenantID, ClusterOptions{MinSize: 2, MaxClusters: 10, Threshold: 0.7})
	require.NoError(t, err)

	require.Len(t, result.Clusters, 1)
	assert.ElementsMatch(t, related, result.Clusters[0].DocumentIDs)
	assert.ElementsMatch(t, unrelated, result.Unclustered)

	assert.Equal(t, models.ClusteringStats{Total: 5, ClusteredCount: 3, ClusterCount: 1}, result.Stats)
	assert.Equal(t, "Billing", result.Clusters[0].Name)
	assert.Equal(t, 0.9, result.Clusters[0].Confidence)
	assert.NotEmpty(t, result.Clusters[0].Color)
	assert.NotEmpty(t, result.Clusters[0].Icon)
	assert.Equal(t, 1, labeler.calls)
}

func TestClusterDocumentsScenarioB(t *testing.T) {
	tenantID := uuid.New()
	docID := uuid.New()
	rows := []models.ChunkWithDocument{
		corpusRow(tenantID, docID, "lonely", []float32{1, 0, 0}),
	}

	store := &repository.MockDocumentStore{}
	store.On("FetchChunksWithDocuments", mock.Anything, tenantID).Return(rows, nil)

	svc := newClusterService(store, nil)

	result, err := svc.ClusterDocuments(context.Background(), tenantID, DefaultClusterOptions())
	require.NoError(t, err)

	assert.Empty(t, result.Clusters)
	assert.Equal(t, []uuid.UUID{docID}, result.Unclustered)
	assert.Equal(t, models.ClusteringStats{Total: 1, ClusteredCount: 0, ClusterCount: 0}, result.Stats)
}

func TestClusterDocumentsScenarioD(t *testing.T) {
	// Label generator fails on every call: clusters still come back with
	// fallback names in ordinal order.
	tenantID := uuid.New()

	groupA := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	groupB := []uuid.UUID{uuid.New(), uuid.New()}
	rows := []models.ChunkWithDocument{
		corpusRow(tenantID, groupA[0], "a1", []float32{1, 0, 0}),
		corpusRow(tenantID, groupA[1], "a2", []float32{0.99, 0.1, 0}),
		corpusRow(tenantID, groupA[2], "a3", []float32{0.98, 0.15, 0}),
		corpusRow(tenantID, groupB[0], "b1", []float32{0, 1, 0}),
		corpusRow(tenantID, groupB[1], "b2", []float32{0, 0.99, 0.1}),
	}

	store := &repository.MockDocumentStore{}
	store.On("FetchChunksWithDocuments", mock.Anything, tenantID).Return(rows, nil)

	labeler := &failingLabeler{}
	svc := newClusterService(store, labeler)

	result, err := svc.ClusterDocuments(context.Background(), tenantID, ClusterOptions{MinSize: 2, MaxClusters: 10, Threshold: 0.7})
	require.NoError(t, err)

	require.Len(t, result.Clusters, 2)
	assert.Equal(t, "Collection 1", result.Clusters[0].Name)
	assert.Equal(t, "Collection 2", result.Clusters[1].Name)
	for _, cluster := range result.Clusters {
		assert.Equal(t, 0.5, cluster.Confidence)
		assert.Empty(t, cluster.Keywords)
	}
	assert.Positive(t, labeler.calls)
}

func TestClusterDocumentsDeterministicMembership(t *testing.T) {
	tenantID := uuid.New()
	rows, _, _ := scenarioCorpus(tenantID)

	store := &repository.MockDocumentStore{}
	store.On("FetchChunksWithDocuments", mock.Anything, tenantID).Return(rows, nil)

	svc := newClusterService(store, nil)
	opts := ClusterOptions{MinSize: 2, MaxClusters: 10, Threshold: 0.7}

	first, err := svc.ClusterDocuments(context.Background(), tenantID, opts)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := svc.ClusterDocuments(context.Background(), tenantID, opts)
		require.NoError(t, err)
		require.Len(t, again.Clusters, len(first.Clusters))
		for j := range first.Clusters {
			assert.Equal(t, first.Clusters[j].DocumentIDs, again.Clusters[j].DocumentIDs)
		}
		assert.Equal(t, first.Unclustered, again.Unclustered)
	}
}

func TestClusterDocumentsThresholdMonotonicity(t *testing.T) {
	tenantID := uuid.New()

	// Fan of vectors with progressively weaker links to the first one
	ids := make([]uuid.UUID, 6)
	vectors := [][]float32{
		{1, 0, 0},
		{0.95, 0.3, 0},
		{0.8, 0.6, 0},
		{0.6, 0.8, 0},
		{0.3, 0.95, 0},
		{0, 1, 0},
	}
	rows := make([]models.ChunkWithDocument, len(vectors))
	for i := range vectors {
		ids[i] = uuid.New()
		rows[i] = corpusRow(tenantID, ids[i], fmt.Sprintf("doc-%d", i), vectors[i])
	}

	store := &repository.MockDocumentStore{}
	store.On("FetchChunksWithDocuments", mock.Anything, tenantID).Return(rows, nil)

	svc := newClusterService(store, nil)

	previous := len(ids) + 1
	for _, threshold := range []float64{0.5, 0.7, 0.85, 0.95, 0.999} {
		result, err := svc.ClusterDocuments(context.Background(), tenantID, ClusterOptions{MinSize: 2, MaxClusters: 10, Threshold: threshold})
		require.NoError(t, err)
		assert.LessOrEqual(t, result.Stats.ClusteredCount, previous, "threshold %v", threshold)
		previous = result.Stats.ClusteredCount
	}
}

func TestClusterDocumentsSizeFloorAndCap(t *testing.T) {
	tenantID := uuid.New()

	// Four tight pairs, nothing linking the pairs together
	var rows []models.ChunkWithDocument
	bases := [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
	for i, base := range bases {
		near := make([]float32, len(base))
		copy(near, base)
		near[(i+1)%4] = 0.05
		rows = append(rows,
			corpusRow(tenantID, uuid.New(), fmt.Sprintf("pair-%d-a", i), base),
			corpusRow(tenantID, uuid.New(), fmt.Sprintf("pair-%d-b", i), near),
		)
	}

	store := &repository.MockDocumentStore{}
	store.On("FetchChunksWithDocuments", mock.Anything, tenantID).Return(rows, nil)

	svc := newClusterService(store, nil)

	result, err := svc.ClusterDocuments(context.Background(), tenantID, ClusterOptions{MinSize: 2, MaxClusters: 3, Threshold: 0.7})
	require.NoError(t, err)

	assert.LessOrEqual(t, len(result.Clusters), 3)
	for _, cluster := range result.Clusters {
		assert.GreaterOrEqual(t, len(cluster.DocumentIDs), 2)
	}
}

func TestClusterDocumentsDisjointMembership(t *testing.T) {
	tenantID := uuid.New()
	rows, _, _ := scenarioCorpus(tenantID)

	store := &repository.MockDocumentStore{}
	store.On("FetchChunksWithDocuments", mock.Anything, tenantID).Return(rows, nil)

	svc := newClusterService(store, nil)

	result, err := svc.ClusterDocuments(context.Background(), tenantID, ClusterOptions{MinSize: 2, MaxClusters: 10, Threshold: 0.3})
	require.NoError(t, err)

	seen := make(map[uuid.UUID]bool)
	for _, cluster := range result.Clusters {
		for _, id := range cluster.DocumentIDs {
			assert.False(t, seen[id], "document %s in more than one cluster", id)
			seen[id] = true
		}
	}
}

func TestClusterDocumentsPersist(t *testing.T) {
	tenantID := uuid.New()
	rows, _, _ := scenarioCorpus(tenantID)

	store := &repository.MockDocumentStore{}
	store.On("FetchChunksWithDocuments", mock.Anything, tenantID).Return(rows, nil)
	store.On("ReplaceClusters", mock.Anything, tenantID, mock.AnythingOfType("[]models.Cluster")).Return(nil)

	svc := newClusterService(store, nil)

	_, err := svc.ClusterDocuments(context.Background(), tenantID, ClusterOptions{MinSize: 2, MaxClusters: 10, Threshold: 0.7, Persist: true})
	require.NoError(t, err)

	store.AssertCalled(t, "ReplaceClusters", mock.Anything, tenantID, mock.AnythingOfType("[]models.Cluster"))
}

func TestClusterDocumentsStoreFailure(t *testing.T) {
	tenantID := uuid.New()

	store := &repository.MockDocumentStore{}
	store.On("FetchChunksWithDocuments", mock.Anything, tenantID).Return(nil, assert.AnError)

	svc := newClusterService(store, nil)

	_, err := svc.ClusterDocuments(context.Background(), tenantID, DefaultClusterOptions())
	assert.Error(t, err)
}
