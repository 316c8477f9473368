package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sagelearn/sagefeed/internal/domain"
	"github.com/sagelearn/sagefeed/internal/extract"
	"github.com/sagelearn/sagefeed/internal/telemetry"
)

// IngestionDocumentRepository defines the repository interface for the
// ingestion state machine.
type IngestionDocumentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.SourceDocument, error)
	// TransitionStatus performs a guarded status update: it only succeeds if
	// the document is still in the expected state, and increments the
	// document's generation counter. Returns ErrStaleTransition otherwise.
	TransitionStatus(ctx context.Context, id string, from, to domain.ProcessingStatus, errMsg string) (*domain.SourceDocument, error)
	// CompleteWithChunks atomically replaces the document's chunk set and
	// transitions processing -> completed, guarded by the generation counter
	// so a stale run cannot clobber a newer one. The previous chunk set is
	// only touched inside this single transaction.
	CompleteWithChunks(ctx context.Context, id string, generation int64, chunks []domain.Chunk) error
}

// ObjectFetcher fetches the original uploaded bytes by storage key.
type ObjectFetcher interface {
	GetObjectBytes(ctx context.Context, key string) ([]byte, error)
}

// IngestionService runs the per-document ingestion pipeline: fetch the PDF,
// extract text, chunk it, embed every chunk, and persist the result through
// the processing-status state machine.
type IngestionService struct {
	repo      IngestionDocumentRepository
	store     ObjectFetcher
	embedding EmbeddingClient
	chunkCfg  ChunkConfig
}

// NewIngestionService creates a new IngestionService instance
func NewIngestionService(
	repo IngestionDocumentRepository,
	store ObjectFetcher,
	embedding EmbeddingClient,
) *IngestionService {
	return &IngestionService{
		repo:      repo,
		store:     store,
		embedding: embedding,
		chunkCfg:  DefaultChunkConfig(),
	}
}

// IngestDocument processes one pending document. Called by the background
// worker; each run owns its document exclusively through the guarded
// pending -> processing transition, so a concurrent re-submission cannot race
// an in-flight run.
func (s *IngestionService) IngestDocument(ctx context.Context, documentID string) error {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.IngestDocument", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "ingest",
	})
	defer span.End()

	doc, err := s.repo.TransitionStatus(ctx, documentID,
		domain.ProcessingStatusPending, domain.ProcessingStatusProcessing, "")
	if err != nil {
		if errors.Is(err, domain.ErrStaleTransition) {
			// Another run already claimed this document; nothing to do.
			return nil
		}
		return err
	}

	data, err := s.store.GetObjectBytes(ctx, doc.StorageKey)
	if err != nil {
		return s.markFailed(ctx, doc, fmt.Errorf("fetch stored object: %w", err))
	}

	pages, err := extract.PDF(data)
	if err != nil {
		return s.markFailed(ctx, doc, err)
	}

	// An empty source is a valid (if useless) state: the document completes
	// with zero chunks rather than failing.
	drafts := chunkPages(pages, s.chunkCfg)

	chunks := make([]domain.Chunk, 0, len(drafts))
	for i, draft := range drafts {
		embedding, err := s.embedding.GenerateEmbedding(ctx, draft.Content)
		if err != nil {
			return s.markFailed(ctx, doc, fmt.Errorf("embed chunk %d: %w", i, err))
		}
		chunks = append(chunks, domain.Chunk{
			DocumentID: doc.ID,
			ChunkIndex: i,
			Content:    draft.Content,
			Embedding:  embedding,
			PageNumber: draft.Page,
		})
	}

	if err := s.repo.CompleteWithChunks(ctx, doc.ID, doc.Generation, chunks); err != nil {
		span.SetError(err)
		return fmt.Errorf("persist chunks for document %s: %w", doc.ID, err)
	}

	return nil
}

// ResetForRetry moves a failed document back to pending so a retry attempt
// can claim it again. A document that already moved on is left alone.
func (s *IngestionService) ResetForRetry(ctx context.Context, documentID string) error {
	_, err := s.repo.TransitionStatus(ctx, documentID,
		domain.ProcessingStatusFailed, domain.ProcessingStatusPending, "")
	if errors.Is(err, domain.ErrStaleTransition) {
		return nil
	}
	return err
}

// markFailed transitions the document to failed without touching any chunk
// set persisted by an earlier successful run.
func (s *IngestionService) markFailed(ctx context.Context, doc *domain.SourceDocument, cause error) error {
	if _, terr := s.repo.TransitionStatus(ctx, doc.ID,
		domain.ProcessingStatusProcessing, domain.ProcessingStatusFailed, cause.Error()); terr != nil {
		return fmt.Errorf("mark document %s failed: %w (ingestion error: %v)", doc.ID, terr, cause)
	}
	return fmt.Errorf("ingest document %s: %w", doc.ID, cause)
}
