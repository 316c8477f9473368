package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/sagelearn/sagefeed/internal/domain"
)

const (
	// DefaultPerSourceLimit caps how many chunks one document may contribute
	// to the pre-global-sort pool, so a single source cannot dominate the
	// final context.
	DefaultPerSourceLimit = 3
	// DefaultGlobalLimit is the global top-K kept after re-sorting the
	// per-source survivors.
	DefaultGlobalLimit = 5
)

// SearchConfig controls the two-pass ranking.
type SearchConfig struct {
	// PerSourceLimit is the per-document top-N. Zero or negative disables
	// the cap, degrading to one flat ranking across all chunks.
	PerSourceLimit int
	// GlobalLimit is the final top-K.
	GlobalLimit int
}

// DefaultSearchConfig returns the default ranking configuration.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		PerSourceLimit: DefaultPerSourceLimit,
		GlobalLimit:    DefaultGlobalLimit,
	}
}

// ScoredChunk is one ranked retrieval candidate carrying its owning-document
// metadata, resolved at query time rather than stored per chunk.
type ScoredChunk struct {
	Chunk      domain.Chunk
	Document   *domain.SourceDocument
	Similarity float64
}

// CosineSimilarity computes the cosine of the angle between two vectors:
// dot product divided by the product of their L2 norms. Vectors must share
// dimensionality; a mismatch is a usage error, never silently tolerated.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", domain.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// ChunkFetcher loads the stored chunks of one completed document.
type ChunkFetcher func(ctx context.Context, documentID string) ([]domain.Chunk, error)

// rankAcrossSources runs the two-pass ranking: per document, fetch its chunks
// and keep its own top-N by cosine similarity (one goroutine per document,
// since scoring document A never depends on document B); then pool the
// survivors in document enumeration order, re-sort stably by similarity
// descending, and keep the global top-K. An empty pool returns an empty
// ranking; the caller decides how to surface it.
func rankAcrossSources(
	ctx context.Context,
	query []float32,
	docs []*domain.SourceDocument,
	fetch ChunkFetcher,
	cfg SearchConfig,
) ([]ScoredChunk, error) {
	if len(docs) == 0 {
		return []ScoredChunk{}, nil
	}

	perSource := make([][]ScoredChunk, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	for i, doc := range docs {
		g.Go(func() error {
			chunks, err := fetch(gctx, doc.ID)
			if err != nil {
				return err
			}
			scored, err := scoreChunks(query, doc, chunks)
			if err != nil {
				return err
			}
			perSource[i] = topN(scored, cfg.PerSourceLimit)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Pool survivors in enumeration order so equal similarities keep a
	// deterministic order under the stable sort.
	pooled := make([]ScoredChunk, 0, len(docs)*max(cfg.PerSourceLimit, 1))
	for _, scored := range perSource {
		pooled = append(pooled, scored...)
	}

	sortBySimilarity(pooled)
	if cfg.GlobalLimit > 0 && len(pooled) > cfg.GlobalLimit {
		pooled = pooled[:cfg.GlobalLimit]
	}
	return pooled, nil
}

func scoreChunks(query []float32, doc *domain.SourceDocument, chunks []domain.Chunk) ([]ScoredChunk, error) {
	scored := make([]ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		sim, err := CosineSimilarity(query, chunk.Embedding)
		if err != nil {
			return nil, fmt.Errorf("document %s chunk %d: %w", doc.ID, chunk.ChunkIndex, err)
		}
		scored = append(scored, ScoredChunk{Chunk: chunk, Document: doc, Similarity: sim})
	}
	return scored, nil
}

// topN keeps the n most similar chunks of a single document. n <= 0 keeps
// everything (flat ranking).
func topN(scored []ScoredChunk, n int) []ScoredChunk {
	sortBySimilarity(scored)
	if n > 0 && len(scored) > n {
		scored = scored[:n]
	}
	return scored
}

func sortBySimilarity(scored []ScoredChunk) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
}
