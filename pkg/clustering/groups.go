package clustering

import (
	"sort"

	"github.com/google/uuid"

	"github.com/docmesh/docmesh/pkg/models"
)

// BuildClusterGroups unions documents connected by similarity pairs and
// returns the surviving groups as member-id lists, largest first, capped at
// maxClusters. Groups smaller than minSize are dropped; when the whole
// corpus is smaller than minSize no group can survive and the result is
// empty. Union-find guarantees the returned groups are disjoint.
//
// Pairs are processed in the order given; BuildSimilarityPairs already
// sorts them by descending score, which keeps any instrumentation of the
// merge sequence reproducible. Connectivity itself does not depend on order.
func BuildClusterGroups(docIDs []uuid.UUID, pairs []models.SimilarityPair, minSize, maxClusters int) [][]uuid.UUID {
	if minSize < 1 {
		minSize = 1
	}
	if len(docIDs) < minSize {
		return nil
	}

	// Dense remap of document ids to arena indexes
	index := make(map[uuid.UUID]int, len(docIDs))
	for i, id := range docIDs {
		index[id] = i
	}

	uf := newUnionFind(len(docIDs))
	for _, pair := range pairs {
		a, okA := index[pair.DocumentA]
		b, okB := index[pair.DocumentB]
		if !okA || !okB {
			continue
		}
		uf.union(a, b)
	}

	byRoot := make(map[int][]uuid.UUID)
	for i, id := range docIDs {
		root := uf.find(i)
		byRoot[root] = append(byRoot[root], id)
	}

	groups := make([][]uuid.UUID, 0, len(byRoot))
	for _, members := range byRoot {
		if len(members) < minSize {
			continue
		}
		sort.Slice(members, func(i, j int) bool {
			return members[i].String() < members[j].String()
		})
		groups = append(groups, members)
	}

	// Largest first; equal sizes ordered by smallest member id so repeated
	// runs over the same corpus produce the same truncation.
	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i]) != len(groups[j]) {
			return len(groups[i]) > len(groups[j])
		}
		return groups[i][0].String() < groups[j][0].String()
	})

	if maxClusters > 0 && len(groups) > maxClusters {
		groups = groups[:maxClusters]
	}

	return groups
}
