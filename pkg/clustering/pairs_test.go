package clustering

import (
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docmesh/docmesh/pkg/models"
)

func vectorSet(embeddings ...[]float32) (map[uuid.UUID]models.DocumentVector, []uuid.UUID) {
	vectors := make(map[uuid.UUID]models.DocumentVector, len(embeddings))
	ids := make([]uuid.UUID, 0, len(embeddings))
	for _, e := range embeddings {
		id := uuid.New()
		vectors[id] = models.DocumentVector{DocumentID: id, Embedding: e}
		ids = append(ids, id)
	}
	return vectors, ids
}

func TestBuildSimilarityPairs(t *testing.T) {
	vectors, ids := vectorSet(
		[]float32{1, 0, 0},
		[]float32{0.99, 0.01, 0},
		[]float32{0, 1, 0},
	)

	pairs := BuildSimilarityPairs(vectors, 0.7)

	// Only the two near-identical vectors clear the threshold
	require.Len(t, pairs, 1)
	assert.Greater(t, pairs[0].Similarity, 0.99)

	got := []uuid.UUID{pairs[0].DocumentA, pairs[0].DocumentB}
	want := []uuid.UUID{ids[0], ids[1]}
	assert.ElementsMatch(t, want, got)
}

func TestBuildSimilarityPairsNoSelfPairs(t *testing.T) {
	vectors, _ := vectorSet(
		[]float32{1, 1, 0},
		[]float32{1, 1, 0},
	)

	pairs := BuildSimilarityPairs(vectors, 0.0)

	require.Len(t, pairs, 1)
	assert.NotEqual(t, pairs[0].DocumentA, pairs[0].DocumentB)
}

func TestBuildSimilarityPairsSortedByScore(t *testing.T) {
	vectors, _ := vectorSet(
		[]float32{1, 0, 0},
		[]float32{0.9, 0.1, 0},
		[]float32{0.5, 0.5, 0},
	)

	pairs := BuildSimilarityPairs(vectors, 0.1)

	require.NotEmpty(t, pairs)
	sorted := sort.SliceIsSorted(pairs, func(i, j int) bool {
		return pairs[i].Similarity > pairs[j].Similarity
	})
	assert.True(t, sorted)
}

func TestBuildSimilarityPairsThresholdMonotonicity(t *testing.T) {
	vectors, _ := vectorSet(
		[]float32{1, 0, 0},
		[]float32{0.9, 0.4, 0},
		[]float32{0.5, 0.8, 0},
		[]float32{0, 1, 0},
	)

	previous := len(BuildSimilarityPairs(vectors, 0.0))
	for _, threshold := range []float64{0.3, 0.6, 0.8, 0.95, 1.0} {
		count := len(BuildSimilarityPairs(vectors, threshold))
		assert.LessOrEqual(t, count, previous, "threshold %v", threshold)
		previous = count
	}
}

func TestBuildSimilarityPairsDeterministic(t *testing.T) {
	vectors, _ := vectorSet(
		[]float32{1, 0, 0},
		[]float32{0.9, 0.1, 0},
		[]float32{0.8, 0.2, 0},
		[]float32{0.7, 0.3, 0},
	)

	first := BuildSimilarityPairs(vectors, 0.5)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, BuildSimilarityPairs(vectors, 0.5))
	}
}
