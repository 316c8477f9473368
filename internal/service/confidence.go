package service

import "math"

// Relevance converts one cosine similarity into an integer percentage.
// Embedding spaces that permit negative similarities are clamped at zero so
// a citation never reports a negative relevance.
func Relevance(similarity float64) int {
	return int(math.Round(clamp01(similarity) * 100))
}

// Confidence aggregates the similarity scores of exactly the chunks included
// in the final context into a single 0-100 value: the rounded mean. Pure and
// side-effect free; an empty input yields zero.
func Confidence(similarities []float64) int {
	if len(similarities) == 0 {
		return 0
	}

	var sum float64
	for _, s := range similarities {
		sum += clamp01(s)
	}

	return int(math.Round(sum / float64(len(similarities)) * 100))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
