package search

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"papermind/internal/chunker"
)

var (
	ErrNoCandidates           = errors.New("no candidate vectors to search")
	ErrDimensionMismatch      = errors.New("vector dimension mismatch")
	ErrCandidateCountMismatch = errors.New("passages and vectors length mismatch")
)

// Result is one ranked passage with its cosine similarity to the query.
type Result struct {
	Passage chunker.Passage `json:"passage"`
	Score   float64         `json:"score"`
}

// Search ranks passages by cosine similarity between query and the vector at
// the same position, and returns at most topK of them from best to worst.
// Equal scores keep ascending passage order.
func Search(query []float32, passages []chunker.Passage, vectors [][]float32, topK int) ([]Result, error) {
	if len(vectors) == 0 {
		return nil, ErrNoCandidates
	}
	if len(passages) != len(vectors) {
		return nil, fmt.Errorf("%w: %d passages, %d vectors", ErrCandidateCountMismatch, len(passages), len(vectors))
	}
	for i, v := range vectors {
		if len(v) != len(query) {
			return nil, fmt.Errorf("%w: query has %d dimensions, candidate %d has %d", ErrDimensionMismatch, len(query), i, len(v))
		}
	}
	if topK <= 0 {
		return []Result{}, nil
	}

	scored := make([]Result, len(vectors))
	for i := range vectors {
		scored[i] = Result{Passage: passages[i], Score: CosineSimilarity(query, vectors[i])}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK > len(scored) {
		topK = len(scored)
	}
	return scored[:topK], nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either vector has zero magnitude or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
