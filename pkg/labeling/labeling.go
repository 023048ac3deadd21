// Package labeling turns a cluster's documents into a human-readable name,
// description, and keyword set via an external generative service. The
// generator sits behind a narrow interface so the clustering pipeline never
// depends on a concrete provider, and a deterministic fallback guarantees
// that a failed label call never fails a clustering run.
package labeling

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/docmesh/docmesh/pkg/models"
)

// maxSummaryLength bounds how much of each document summary goes into the
// labeling prompt.
const maxSummaryLength = 200

// Label is the structured output of one labeling call.
type Label struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Confidence  float64  `json:"confidence"`
}

// Generator produces a label for one cluster of documents. Implementations
// may fail or return malformed output; callers must recover with
// FallbackLabel.
type Generator interface {
	GenerateLabel(ctx context.Context, documents []models.DocumentVector) (*Label, error)
}

// FallbackLabel is the deterministic label used when the generator is
// unavailable or returns unusable output. The ordinal is the cluster's
// zero-based position within its run.
func FallbackLabel(ordinal int) Label {
	return Label{
		Name:        fmt.Sprintf("Collection %d", ordinal+1),
		Description: "A group of related documents",
		Keywords:    []string{},
		Confidence:  0.5,
	}
}

// TruncateSummary bounds a summary to maxSummaryLength characters for
// prompt construction.
func TruncateSummary(summary string) string {
	if len(summary) <= maxSummaryLength {
		return summary
	}
	return summary[:maxSummaryLength]
}

// BuildPrompt renders the labeling instruction for a cluster's documents.
func BuildPrompt(documents []models.DocumentVector) string {
	var b strings.Builder
	b.WriteString("You are labeling a cluster of related documents.\n")
	b.WriteString("Documents in this cluster:\n")

	for i, doc := range documents {
		docType := "unknown"
		if doc.Type != nil && *doc.Type != "" {
			docType = *doc.Type
		}
		summary := ""
		if doc.Summary != nil {
			summary = TruncateSummary(*doc.Summary)
		}
		b.WriteString(fmt.Sprintf("%d. title: %s | type: %s | summary: %s\n", i+1, doc.Title, docType, summary))
	}

	b.WriteString("\nRespond with only a JSON object of this exact shape:\n")
	b.WriteString(`{"name": "short cluster name", "description": "one sentence", "keywords": ["k1", "k2"], "confidence": 0.0}`)
	b.WriteString("\nConfidence is how cohesive the cluster is, between 0 and 1.")

	return b.String()
}

// ParseLabel extracts a Label from raw generator output. The reply must
// contain a JSON object with at least a non-empty name; anything else is an
// error so the caller can fall back.
func ParseLabel(raw string) (*Label, error) {
	// Models wrap JSON in prose or code fences often enough that we cut the
	// outermost object out before unmarshaling.
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in label reply")
	}

	var label Label
	if err := json.Unmarshal([]byte(raw[start:end+1]), &label); err != nil {
		return nil, fmt.Errorf("failed to parse label reply: %w", err)
	}

	if strings.TrimSpace(label.Name) == "" {
		return nil, fmt.Errorf("label reply has no name")
	}

	if label.Confidence < 0 || label.Confidence > 1 {
		label.Confidence = 0.5
	}
	if label.Keywords == nil {
		label.Keywords = []string{}
	}

	return &label, nil
}
