package service

import (
	"context"
	"strings"

	"github.com/sagelearn/sagefeed/internal/domain"
	"github.com/sagelearn/sagefeed/internal/telemetry"
)

const citationExcerptMaxChars = 220

// FeedbackRepositoryInterface defines the repository interface for retrieval
type FeedbackRepositoryInterface interface {
	ListCompletedBySkill(ctx context.Context, skillID string) ([]*domain.SourceDocument, error)
	GetChunksByDocument(ctx context.Context, documentID string) ([]domain.Chunk, error)
}

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// GenerationClient defines the interface for feedback generation
type GenerationClient interface {
	GenerateFeedback(ctx context.Context, system, prompt string) (string, error)
}

// FeedbackService runs the synchronous query pipeline: embed the student
// response, rank chunks across the skill's completed sources, assemble a
// grounded prompt, generate feedback, and score confidence.
type FeedbackService struct {
	repo       FeedbackRepositoryInterface
	embedding  EmbeddingClient
	generation GenerationClient
	searchCfg  SearchConfig
}

// NewFeedbackService creates a new FeedbackService instance
func NewFeedbackService(
	repo FeedbackRepositoryInterface,
	embedding EmbeddingClient,
	generation GenerationClient,
) *FeedbackService {
	return NewFeedbackServiceWithConfig(repo, embedding, generation, DefaultSearchConfig())
}

// NewFeedbackServiceWithConfig creates a new FeedbackService with explicit ranking configuration
func NewFeedbackServiceWithConfig(
	repo FeedbackRepositoryInterface,
	embedding EmbeddingClient,
	generation GenerationClient,
	searchCfg SearchConfig,
) *FeedbackService {
	return &FeedbackService{
		repo:       repo,
		embedding:  embedding,
		generation: generation,
		searchCfg:  searchCfg,
	}
}

// Evaluate runs one feedback query end to end. Every failure is terminal for
// the request: partial retrieval work is never returned as success.
func (s *FeedbackService) Evaluate(ctx context.Context, query domain.FeedbackQuery) (*domain.FeedbackResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "FeedbackService.Evaluate", telemetry.SpanAttributes{
		SkillID:   query.SkillID,
		Operation: "evaluate",
	})
	defer span.End()

	if err := domain.ValidateFeedbackQuery(&query); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid feedback query", err)
	}

	// The retrieval pool is exactly the completed documents linked to the
	// skill. No sources means no provider call is made at all.
	docs, err := s.repo.ListCompletedBySkill(ctx, query.SkillID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if len(docs) == 0 {
		return nil, domain.ErrNoEligibleSources
	}

	queryVector, err := s.embedding.GenerateEmbedding(ctx, query.StudentResponse)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	ranked, err := rankAcrossSources(ctx, queryVector, docs, s.repo.GetChunksByDocument, s.searchCfg)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if len(ranked) == 0 {
		// Sources exist but their chunk lists were empty; distinct from
		// having no eligible sources so callers can give different guidance.
		return nil, domain.ErrNoRelevantContent
	}

	prompt := buildFeedbackPrompt(query, ranked)
	feedback, err := s.generation.GenerateFeedback(ctx, feedbackSystemInstruction, prompt)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return &domain.FeedbackResult{
		Feedback:   feedback,
		Sources:    buildCitations(ranked),
		Confidence: Confidence(similarities(ranked)),
	}, nil
}

func buildCitations(ranked []ScoredChunk) []domain.SourceCitation {
	citations := make([]domain.SourceCitation, 0, len(ranked))
	for _, sc := range ranked {
		citations = append(citations, domain.SourceCitation{
			Title:     sc.Document.Title,
			Author:    sc.Document.Authors,
			Excerpt:   makeExcerpt(sc.Chunk.Content),
			Page:      sc.Chunk.PageNumber,
			Relevance: Relevance(sc.Similarity),
		})
	}
	return citations
}

func similarities(ranked []ScoredChunk) []float64 {
	sims := make([]float64, 0, len(ranked))
	for _, sc := range ranked {
		sims = append(sims, sc.Similarity)
	}
	return sims
}

func makeExcerpt(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if len(clean) <= citationExcerptMaxChars {
		return clean
	}
	return clean[:citationExcerptMaxChars-3] + "..."
}
