package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagelearn/sagefeed/internal/domain"
)

func TestCosineSimilarity_IdenticalVectors(t *testing.T) {
	a := []float32{1, 2, 3}
	sim, err := CosineSimilarity(a, a)

	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestCosineSimilarity_OrthogonalVectors(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})

	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-9)
}

func TestCosineSimilarity_OppositeVectors(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0}, []float32{-1, 0})

	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-9)
}

func TestCosineSimilarity_DimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2})

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	sim, err := CosineSimilarity([]float32{0, 0}, []float32{1, 2})

	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)
}

func testDoc(id string) *domain.SourceDocument {
	return &domain.SourceDocument{
		ID:     id,
		Title:  "Doc " + id,
		Status: domain.ProcessingStatusCompleted,
	}
}

// chunkWithSim builds a chunk whose cosine similarity against the unit query
// vector {1, 0} equals the given value.
func chunkWithSim(docID string, index int, sim float64) domain.Chunk {
	other := 1 - sim*sim
	if other < 0 {
		other = 0
	}
	return domain.Chunk{
		DocumentID: docID,
		ChunkIndex: index,
		Content:    "content",
		Embedding:  []float32{float32(sim), float32(math.Sqrt(other))},
		PageNumber: 1,
	}
}

func TestRankAcrossSources_PerSourceCap(t *testing.T) {
	query := []float32{1, 0}
	docs := []*domain.SourceDocument{testDoc("a")}
	fetch := func(ctx context.Context, documentID string) ([]domain.Chunk, error) {
		return []domain.Chunk{
			chunkWithSim("a", 0, 0.91),
			chunkWithSim("a", 1, 0.40),
			chunkWithSim("a", 2, 0.85),
		}, nil
	}

	ranked, err := rankAcrossSources(context.Background(), query, docs, fetch, SearchConfig{
		PerSourceLimit: 2,
		GlobalLimit:    5,
	})

	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.InDelta(t, 0.91, ranked[0].Similarity, 1e-6)
	assert.InDelta(t, 0.85, ranked[1].Similarity, 1e-6)
}

func TestRankAcrossSources_GlobalCapAcrossDocuments(t *testing.T) {
	query := []float32{1, 0}
	docs := []*domain.SourceDocument{testDoc("a"), testDoc("b")}
	fetch := func(ctx context.Context, documentID string) ([]domain.Chunk, error) {
		if documentID == "a" {
			return []domain.Chunk{
				chunkWithSim("a", 0, 0.95),
				chunkWithSim("a", 1, 0.70),
			}, nil
		}
		return []domain.Chunk{
			chunkWithSim("b", 0, 0.85),
			chunkWithSim("b", 1, 0.60),
		}, nil
	}

	ranked, err := rankAcrossSources(context.Background(), query, docs, fetch, SearchConfig{
		PerSourceLimit: 1,
		GlobalLimit:    2,
	})

	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "a", ranked[0].Chunk.DocumentID)
	assert.Equal(t, "b", ranked[1].Chunk.DocumentID)
	assert.InDelta(t, 0.95, ranked[0].Similarity, 1e-6)
	assert.InDelta(t, 0.85, ranked[1].Similarity, 1e-6)
}

func TestRankAcrossSources_NoPerSourceCap(t *testing.T) {
	query := []float32{1, 0}
	docs := []*domain.SourceDocument{testDoc("a")}
	fetch := func(ctx context.Context, documentID string) ([]domain.Chunk, error) {
		return []domain.Chunk{
			chunkWithSim("a", 0, 0.2),
			chunkWithSim("a", 1, 0.4),
			chunkWithSim("a", 2, 0.6),
		}, nil
	}

	ranked, err := rankAcrossSources(context.Background(), query, docs, fetch, SearchConfig{
		PerSourceLimit: 0,
		GlobalLimit:    10,
	})

	require.NoError(t, err)
	assert.Len(t, ranked, 3)
}

func TestRankAcrossSources_EmptyPool(t *testing.T) {
	query := []float32{1, 0}
	docs := []*domain.SourceDocument{testDoc("a")}
	fetch := func(ctx context.Context, documentID string) ([]domain.Chunk, error) {
		return nil, nil
	}

	ranked, err := rankAcrossSources(context.Background(), query, docs, fetch, DefaultSearchConfig())

	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestRankAcrossSources_FetchError(t *testing.T) {
	query := []float32{1, 0}
	docs := []*domain.SourceDocument{testDoc("a"), testDoc("b")}
	fetchErr := errors.New("connection reset")
	fetch := func(ctx context.Context, documentID string) ([]domain.Chunk, error) {
		if documentID == "b" {
			return nil, fetchErr
		}
		return []domain.Chunk{chunkWithSim("a", 0, 0.9)}, nil
	}

	_, err := rankAcrossSources(context.Background(), query, docs, fetch, DefaultSearchConfig())

	assert.ErrorIs(t, err, fetchErr)
}

func TestRankAcrossSources_DimensionMismatchSurfaces(t *testing.T) {
	query := []float32{1, 0}
	docs := []*domain.SourceDocument{testDoc("a")}
	fetch := func(ctx context.Context, documentID string) ([]domain.Chunk, error) {
		return []domain.Chunk{{DocumentID: "a", Content: "x", Embedding: []float32{1, 2, 3}, PageNumber: 1}}, nil
	}

	_, err := rankAcrossSources(context.Background(), query, docs, fetch, DefaultSearchConfig())

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}
