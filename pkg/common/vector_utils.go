// Package common provides vector math primitives shared by the clustering,
// similarity, and storage layers.
package common

import (
	"fmt"
	"math"
	"strings"
)

// CosineSimilarity calculates the cosine similarity between two vectors.
// Returns 0 when the vectors have different lengths, are empty, or either
// has zero magnitude; a zero score is the correct "no similarity" signal
// for every downstream consumer, so these cases are guarded, not raised.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	if len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// DotProduct calculates the dot product of two vectors
func DotProduct(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}

	return sum
}

// NormalizeVectorL2 normalizes a vector using L2 normalization (Euclidean norm)
func NormalizeVectorL2(vector []float32) []float32 {
	var sum float32
	for _, v := range vector {
		sum += v * v
	}
	norm := float32(math.Sqrt(float64(sum)))

	// Avoid division by zero
	if norm < 1e-10 {
		return vector
	}

	normalized := make([]float32, len(vector))
	for i, v := range vector {
		normalized[i] = v / norm
	}

	return normalized
}

// FormatVectorForPgVector formats a float32 array as a pgvector string
// Format: [0.1,0.2,0.3,...,0.n]
func FormatVectorForPgVector(vector []float32) string {
	if len(vector) == 0 {
		return "[]"
	}

	var result strings.Builder
	result.WriteString("[")

	for i, v := range vector {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(fmt.Sprintf("%f", v))
	}

	result.WriteString("]")
	return result.String()
}

// ParseVectorFromPgVector parses a pgvector string into a float32 array.
// Handles both array formats: {0.1,0.2,0.3} and [0.1,0.2,0.3]
func ParseVectorFromPgVector(vectorStr string) ([]float32, error) {
	vectorStr = strings.TrimPrefix(vectorStr, "[")
	vectorStr = strings.TrimPrefix(vectorStr, "{")
	vectorStr = strings.TrimSuffix(vectorStr, "]")
	vectorStr = strings.TrimSuffix(vectorStr, "}")

	if vectorStr == "" {
		return []float32{}, nil
	}

	parts := strings.Split(vectorStr, ",")
	result := make([]float32, len(parts))

	for i, part := range parts {
		part = strings.TrimSpace(part)
		var f float64
		_, err := fmt.Sscanf(part, "%f", &f)
		if err != nil {
			return nil, fmt.Errorf("failed to parse vector component '%s': %w", part, err)
		}
		result[i] = float32(f)
	}

	return result, nil
}
