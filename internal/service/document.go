package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sagelearn/sagefeed/internal/domain"
	"github.com/sagelearn/sagefeed/internal/telemetry"
)

// StorageClientInterface defines the object storage operations the document
// lifecycle needs. Stored originals are never mutated.
type StorageClientInterface interface {
	GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error)
	GetObjectBytes(ctx context.Context, key string) ([]byte, error)
	HeadObject(ctx context.Context, key string) (*ObjectMetadata, error)
}

// ObjectMetadata contains metadata about a stored object
type ObjectMetadata struct {
	ContentLength int64
	ContentType   string
	ETag          string
}

// DocumentRepositoryInterface defines the repository interface for source documents
type DocumentRepositoryInterface interface {
	Create(ctx context.Context, d *domain.SourceDocument) error
	GetByID(ctx context.Context, id string) (*domain.SourceDocument, error)
	ListByInstitution(ctx context.Context, institutionID string) ([]*domain.SourceDocument, error)
	TransitionStatus(ctx context.Context, id string, from, to domain.ProcessingStatus, errMsg string) (*domain.SourceDocument, error)
}

// IngestionJobRepositoryInterface defines the repository interface for ingestion jobs
type IngestionJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.IngestionJob) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// DocumentService handles the source-document lifecycle: presigned upload,
// record creation, status reads, and re-submission for processing.
type DocumentService struct {
	docRepo       DocumentRepositoryInterface
	jobRepo       IngestionJobRepositoryInterface
	storageClient StorageClientInterface
	uuidGen       UUIDGenerator
}

// NewDocumentService creates a new DocumentService instance
func NewDocumentService(
	docRepo DocumentRepositoryInterface,
	jobRepo IngestionJobRepositoryInterface,
	storageClient StorageClientInterface,
) *DocumentService {
	return &DocumentService{
		docRepo:       docRepo,
		jobRepo:       jobRepo,
		storageClient: storageClient,
		uuidGen:       &DefaultUUIDGenerator{},
	}
}

// NewDocumentServiceWithUUIDGen creates a new DocumentService with a custom UUID generator (for testing)
func NewDocumentServiceWithUUIDGen(
	docRepo DocumentRepositoryInterface,
	jobRepo IngestionJobRepositoryInterface,
	storageClient StorageClientInterface,
	uuidGen UUIDGenerator,
) *DocumentService {
	return &DocumentService{
		docRepo:       docRepo,
		jobRepo:       jobRepo,
		storageClient: storageClient,
		uuidGen:       uuidGen,
	}
}

// InitUploadInput represents the input for initiating a document upload
type InitUploadInput struct {
	InstitutionID string
	Filename      string
}

// InitUploadResult carries the presigned URL for the caller to PUT the PDF to
type InitUploadResult struct {
	DocumentID string
	StorageKey string
	UploadURL  string
}

// InitUpload generates a presigned upload URL for a new source document
func (s *DocumentService) InitUpload(ctx context.Context, input InitUploadInput) (*InitUploadResult, error) {
	documentID := s.uuidGen.NewString()
	storageKey := buildStorageKey(input.InstitutionID, documentID, input.Filename)

	uploadURL, err := s.storageClient.GenerateUploadURL(ctx, storageKey, "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to generate upload URL: %w", err)
	}

	return &InitUploadResult{
		DocumentID: documentID,
		StorageKey: storageKey,
		UploadURL:  uploadURL,
	}, nil
}

// CompleteUploadInput represents the input for completing a document upload
type CompleteUploadInput struct {
	DocumentID      string
	InstitutionID   string
	Title           string
	Authors         string
	PublicationYear int
	StorageKey      string
}

// CompleteUpload verifies the uploaded object, creates the pending document
// record, and queues its ingestion job.
func (s *DocumentService) CompleteUpload(ctx context.Context, input CompleteUploadInput) (*domain.SourceDocument, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.CompleteUpload", telemetry.SpanAttributes{
		InstitutionID: input.InstitutionID,
		DocumentID:    input.DocumentID,
		Operation:     "complete_upload",
	})
	defer span.End()

	if _, err := s.storageClient.HeadObject(ctx, input.StorageKey); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeNotFound,
			"pending document upload not found", err)
	}

	now := time.Now().UTC()
	doc := domain.NewSourceDocument(input.DocumentID, input.InstitutionID,
		input.Title, input.Authors, input.PublicationYear, input.StorageKey, now)

	if err := domain.ValidateSourceDocument(doc); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid source document", err)
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	job := domain.NewIngestionJob(s.uuidGen.NewString(), doc.ID, now)
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}

	return doc, nil
}

// GetByID retrieves a source document by ID
func (s *DocumentService) GetByID(ctx context.Context, id string) (*domain.SourceDocument, error) {
	return s.docRepo.GetByID(ctx, id)
}

// ListByInstitution retrieves all source documents for an institution
func (s *DocumentService) ListByInstitution(ctx context.Context, institutionID string) ([]*domain.SourceDocument, error) {
	return s.docRepo.ListByInstitution(ctx, institutionID)
}

// Reprocess re-submits a completed or failed document for ingestion: the
// guarded transition back to pending plus a fresh job. A document that is
// pending or processing cannot be re-submitted.
func (s *DocumentService) Reprocess(ctx context.Context, documentID string) (*domain.SourceDocument, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Reprocess", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "reprocess",
	})
	defer span.End()

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(doc.Status, domain.ProcessingStatusPending) {
		return nil, domain.ErrInvalidTransition
	}

	doc, err = s.docRepo.TransitionStatus(ctx, documentID, doc.Status, domain.ProcessingStatusPending, "")
	if err != nil {
		return nil, err
	}

	job := domain.NewIngestionJob(s.uuidGen.NewString(), documentID, time.Now().UTC())
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}

	return doc, nil
}

func buildStorageKey(institutionID, documentID, filename string) string {
	return fmt.Sprintf("%s/%s/%s", institutionID, documentID, filename)
}
