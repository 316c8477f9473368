package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sagelearn/sagefeed/internal/domain"
)

// MockIngestionDocumentRepository is a mock implementation of IngestionDocumentRepository
type MockIngestionDocumentRepository struct {
	mock.Mock
}

func (m *MockIngestionDocumentRepository) GetByID(ctx context.Context, id string) (*domain.SourceDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SourceDocument), args.Error(1)
}

func (m *MockIngestionDocumentRepository) TransitionStatus(ctx context.Context, id string, from, to domain.ProcessingStatus, errMsg string) (*domain.SourceDocument, error) {
	args := m.Called(ctx, id, from, to, errMsg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SourceDocument), args.Error(1)
}

func (m *MockIngestionDocumentRepository) CompleteWithChunks(ctx context.Context, id string, generation int64, chunks []domain.Chunk) error {
	args := m.Called(ctx, id, generation, chunks)
	return args.Error(0)
}

// MockObjectFetcher is a mock implementation of ObjectFetcher
type MockObjectFetcher struct {
	mock.Mock
}

func (m *MockObjectFetcher) GetObjectBytes(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func processingDoc(id string) *domain.SourceDocument {
	return &domain.SourceDocument{
		ID:         id,
		Title:      "Doc " + id,
		StorageKey: "inst-1/" + id + "/source.pdf",
		Status:     domain.ProcessingStatusProcessing,
		Generation: 3,
	}
}

func TestIngestionService_IngestDocument_StaleClaimIsSkipped(t *testing.T) {
	repo := new(MockIngestionDocumentRepository)
	store := new(MockObjectFetcher)
	embedding := new(MockEmbeddingClient)
	svc := NewIngestionService(repo, store, embedding)

	repo.On("TransitionStatus", mock.Anything, "doc-1",
		domain.ProcessingStatusPending, domain.ProcessingStatusProcessing, "").
		Return(nil, domain.ErrStaleTransition)

	err := svc.IngestDocument(context.Background(), "doc-1")

	require.NoError(t, err)
	store.AssertNotCalled(t, "GetObjectBytes", mock.Anything, mock.Anything)
}

func TestIngestionService_IngestDocument_FetchFailureMarksFailed(t *testing.T) {
	repo := new(MockIngestionDocumentRepository)
	store := new(MockObjectFetcher)
	embedding := new(MockEmbeddingClient)
	svc := NewIngestionService(repo, store, embedding)

	doc := processingDoc("doc-1")
	repo.On("TransitionStatus", mock.Anything, "doc-1",
		domain.ProcessingStatusPending, domain.ProcessingStatusProcessing, "").
		Return(doc, nil)
	store.On("GetObjectBytes", mock.Anything, doc.StorageKey).
		Return(nil, errors.New("object missing"))
	repo.On("TransitionStatus", mock.Anything, "doc-1",
		domain.ProcessingStatusProcessing, domain.ProcessingStatusFailed, mock.MatchedBy(func(msg string) bool {
			return msg != ""
		})).
		Return(doc, nil)

	err := svc.IngestDocument(context.Background(), "doc-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "object missing")
	repo.AssertExpectations(t)
	embedding.AssertNotCalled(t, "GenerateEmbedding", mock.Anything, mock.Anything)
}

func TestIngestionService_IngestDocument_UnparseablePDFMarksFailed(t *testing.T) {
	repo := new(MockIngestionDocumentRepository)
	store := new(MockObjectFetcher)
	embedding := new(MockEmbeddingClient)
	svc := NewIngestionService(repo, store, embedding)

	doc := processingDoc("doc-1")
	repo.On("TransitionStatus", mock.Anything, "doc-1",
		domain.ProcessingStatusPending, domain.ProcessingStatusProcessing, "").
		Return(doc, nil)
	store.On("GetObjectBytes", mock.Anything, doc.StorageKey).
		Return([]byte("definitely not a pdf"), nil)
	repo.On("TransitionStatus", mock.Anything, "doc-1",
		domain.ProcessingStatusProcessing, domain.ProcessingStatusFailed, mock.MatchedBy(func(msg string) bool {
			return msg != ""
		})).
		Return(doc, nil)

	err := svc.IngestDocument(context.Background(), "doc-1")

	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeUnprocessable, domainErr.Code)
	repo.AssertNotCalled(t, "CompleteWithChunks", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestionService_IngestDocument_MarkFailedFailure(t *testing.T) {
	repo := new(MockIngestionDocumentRepository)
	store := new(MockObjectFetcher)
	embedding := new(MockEmbeddingClient)
	svc := NewIngestionService(repo, store, embedding)

	doc := processingDoc("doc-1")
	repo.On("TransitionStatus", mock.Anything, "doc-1",
		domain.ProcessingStatusPending, domain.ProcessingStatusProcessing, "").
		Return(doc, nil)
	store.On("GetObjectBytes", mock.Anything, doc.StorageKey).
		Return(nil, errors.New("object missing"))
	repo.On("TransitionStatus", mock.Anything, "doc-1",
		domain.ProcessingStatusProcessing, domain.ProcessingStatusFailed, mock.Anything).
		Return(nil, domain.ErrStaleTransition)

	err := svc.IngestDocument(context.Background(), "doc-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "mark document doc-1 failed")
}

func TestIngestionService_ResetForRetry(t *testing.T) {
	repo := new(MockIngestionDocumentRepository)
	svc := NewIngestionService(repo, new(MockObjectFetcher), new(MockEmbeddingClient))

	doc := processingDoc("doc-1")
	repo.On("TransitionStatus", mock.Anything, "doc-1",
		domain.ProcessingStatusFailed, domain.ProcessingStatusPending, "").
		Return(doc, nil)

	err := svc.ResetForRetry(context.Background(), "doc-1")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestIngestionService_ResetForRetry_DocumentMovedOn(t *testing.T) {
	repo := new(MockIngestionDocumentRepository)
	svc := NewIngestionService(repo, new(MockObjectFetcher), new(MockEmbeddingClient))

	repo.On("TransitionStatus", mock.Anything, "doc-1",
		domain.ProcessingStatusFailed, domain.ProcessingStatusPending, "").
		Return(nil, domain.ErrStaleTransition)

	err := svc.ResetForRetry(context.Background(), "doc-1")

	assert.NoError(t, err)
}
