package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfidence_MeanOfIncludedChunks(t *testing.T) {
	// Only the chunks that survived ranking count: with a per-source cap of
	// two the 0.40 chunk is excluded, so confidence is the mean of the rest.
	assert.Equal(t, 88, Confidence([]float64{0.91, 0.85}))
}

func TestConfidence_TwoSources(t *testing.T) {
	assert.Equal(t, 90, Confidence([]float64{0.95, 0.85}))
}

func TestConfidence_Empty(t *testing.T) {
	assert.Equal(t, 0, Confidence(nil))
}

func TestConfidence_ClampsNegatives(t *testing.T) {
	assert.Equal(t, 25, Confidence([]float64{-0.5, 1.0, 0.5, 0.0}))
}

func TestConfidence_ClampsAboveOne(t *testing.T) {
	assert.Equal(t, 100, Confidence([]float64{1.2, 1.0}))
}

func TestRelevance(t *testing.T) {
	assert.Equal(t, 91, Relevance(0.914))
	assert.Equal(t, 0, Relevance(-0.3))
	assert.Equal(t, 100, Relevance(1.7))
	assert.Equal(t, 50, Relevance(0.5))
}
