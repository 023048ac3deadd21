package clustering

import (
	"sort"

	"github.com/google/uuid"

	"github.com/docmesh/docmesh/pkg/common"
	"github.com/docmesh/docmesh/pkg/models"
)

// BuildSimilarityPairs computes all pairwise cosine similarities over the
// aggregated document vectors and keeps pairs at or above threshold. The
// comparison is exhaustive O(n²), which is fine for the corpora this engine
// targets (hundreds to low thousands of documents per tenant). Documents
// are never paired with themselves.
//
// Pairs are returned sorted by descending similarity, ties broken by
// ascending id pair, so downstream processing is reproducible for identical
// input.
func BuildSimilarityPairs(vectors map[uuid.UUID]models.DocumentVector, threshold float64) []models.SimilarityPair {
	ids := sortedIDs(vectors)

	var pairs []models.SimilarityPair
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			score := common.CosineSimilarity(vectors[ids[i]].Embedding, vectors[ids[j]].Embedding)
			if score >= threshold {
				pairs = append(pairs, models.SimilarityPair{
					DocumentA:  ids[i],
					DocumentB:  ids[j],
					Similarity: score,
				})
			}
		}
	}

	sort.SliceStable(pairs, func(a, b int) bool {
		if pairs[a].Similarity != pairs[b].Similarity {
			return pairs[a].Similarity > pairs[b].Similarity
		}
		if pairs[a].DocumentA != pairs[b].DocumentA {
			return pairs[a].DocumentA.String() < pairs[b].DocumentA.String()
		}
		return pairs[a].DocumentB.String() < pairs[b].DocumentB.String()
	})

	return pairs
}

// sortedIDs returns the map keys in ascending UUID order. Map iteration
// order is randomized in Go, so every deterministic path sorts first.
func sortedIDs(vectors map[uuid.UUID]models.DocumentVector) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(vectors))
	for id := range vectors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}
