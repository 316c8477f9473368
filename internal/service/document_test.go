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

// MockDocumentRepository is a mock implementation of DocumentRepositoryInterface
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, d *domain.SourceDocument) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id string) (*domain.SourceDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SourceDocument), args.Error(1)
}

func (m *MockDocumentRepository) ListByInstitution(ctx context.Context, institutionID string) ([]*domain.SourceDocument, error) {
	args := m.Called(ctx, institutionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SourceDocument), args.Error(1)
}

func (m *MockDocumentRepository) TransitionStatus(ctx context.Context, id string, from, to domain.ProcessingStatus, errMsg string) (*domain.SourceDocument, error) {
	args := m.Called(ctx, id, from, to, errMsg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SourceDocument), args.Error(1)
}

// MockIngestionJobRepository is a mock implementation of IngestionJobRepositoryInterface
type MockIngestionJobRepository struct {
	mock.Mock
}

func (m *MockIngestionJobRepository) Create(ctx context.Context, job *domain.IngestionJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// MockStorageClient is a mock implementation of StorageClientInterface
type MockStorageClient struct {
	mock.Mock
}

func (m *MockStorageClient) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	args := m.Called(ctx, key, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockStorageClient) GetObjectBytes(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStorageClient) HeadObject(ctx context.Context, key string) (*ObjectMetadata, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ObjectMetadata), args.Error(1)
}

// MockUUIDGenerator is a mock UUID generator returning a fixed sequence
type MockUUIDGenerator struct {
	uuids []string
	index int
}

func (m *MockUUIDGenerator) NewString() string {
	id := m.uuids[m.index]
	m.index++
	return id
}

func newDocumentService(docRepo *MockDocumentRepository, jobRepo *MockIngestionJobRepository, storage *MockStorageClient, uuids ...string) *DocumentService {
	return NewDocumentServiceWithUUIDGen(docRepo, jobRepo, storage, &MockUUIDGenerator{uuids: uuids})
}

func TestDocumentService_InitUpload(t *testing.T) {
	storage := new(MockStorageClient)
	svc := newDocumentService(new(MockDocumentRepository), new(MockIngestionJobRepository), storage, "doc-id-123")

	storage.On("GenerateUploadURL", mock.Anything, "inst-1/doc-id-123/syllabus.pdf", "application/pdf").
		Return("https://storage.example.com/presigned", nil)

	result, err := svc.InitUpload(context.Background(), InitUploadInput{
		InstitutionID: "inst-1",
		Filename:      "syllabus.pdf",
	})

	require.NoError(t, err)
	assert.Equal(t, "doc-id-123", result.DocumentID)
	assert.Equal(t, "inst-1/doc-id-123/syllabus.pdf", result.StorageKey)
	assert.Equal(t, "https://storage.example.com/presigned", result.UploadURL)
	storage.AssertExpectations(t)
}

func TestDocumentService_InitUpload_PresignFailure(t *testing.T) {
	storage := new(MockStorageClient)
	svc := newDocumentService(new(MockDocumentRepository), new(MockIngestionJobRepository), storage, "doc-id-123")

	storage.On("GenerateUploadURL", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("endpoint unreachable"))

	_, err := svc.InitUpload(context.Background(), InitUploadInput{
		InstitutionID: "inst-1",
		Filename:      "syllabus.pdf",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate upload URL")
}

func TestDocumentService_CompleteUpload(t *testing.T) {
	docRepo := new(MockDocumentRepository)
	jobRepo := new(MockIngestionJobRepository)
	storage := new(MockStorageClient)
	svc := newDocumentService(docRepo, jobRepo, storage, "job-id-456")

	storage.On("HeadObject", mock.Anything, "inst-1/doc-1/syllabus.pdf").
		Return(&ObjectMetadata{ContentLength: 1024, ContentType: "application/pdf"}, nil)
	docRepo.On("Create", mock.Anything, mock.MatchedBy(func(d *domain.SourceDocument) bool {
		return d.ID == "doc-1" && d.Status == domain.ProcessingStatusPending
	})).Return(nil)
	jobRepo.On("Create", mock.Anything, mock.MatchedBy(func(j *domain.IngestionJob) bool {
		return j.ID == "job-id-456" && j.DocumentID == "doc-1" && j.Status == domain.IngestionJobStatusPending
	})).Return(nil)

	doc, err := svc.CompleteUpload(context.Background(), CompleteUploadInput{
		DocumentID:      "doc-1",
		InstitutionID:   "inst-1",
		Title:           "Course Syllabus",
		Authors:         "Nguyen, T.",
		PublicationYear: 2024,
		StorageKey:      "inst-1/doc-1/syllabus.pdf",
	})

	require.NoError(t, err)
	assert.Equal(t, "Course Syllabus", doc.Title)
	assert.Equal(t, domain.ProcessingStatusPending, doc.Status)
	docRepo.AssertExpectations(t)
	jobRepo.AssertExpectations(t)
}

func TestDocumentService_CompleteUpload_ObjectMissing(t *testing.T) {
	storage := new(MockStorageClient)
	docRepo := new(MockDocumentRepository)
	svc := newDocumentService(docRepo, new(MockIngestionJobRepository), storage, "job-id-456")

	storage.On("HeadObject", mock.Anything, mock.Anything).
		Return(nil, errors.New("404"))

	_, err := svc.CompleteUpload(context.Background(), CompleteUploadInput{
		DocumentID:    "doc-1",
		InstitutionID: "inst-1",
		Title:         "Course Syllabus",
		StorageKey:    "inst-1/doc-1/syllabus.pdf",
	})

	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeNotFound, domainErr.Code)
	docRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDocumentService_CompleteUpload_InvalidMetadata(t *testing.T) {
	storage := new(MockStorageClient)
	svc := newDocumentService(new(MockDocumentRepository), new(MockIngestionJobRepository), storage, "job-id-456")

	storage.On("HeadObject", mock.Anything, mock.Anything).
		Return(&ObjectMetadata{ContentLength: 1024}, nil)

	_, err := svc.CompleteUpload(context.Background(), CompleteUploadInput{
		DocumentID:    "doc-1",
		InstitutionID: "inst-1",
		Title:         "", // required
		StorageKey:    "inst-1/doc-1/syllabus.pdf",
	})

	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
}

func TestDocumentService_Reprocess_FromFailed(t *testing.T) {
	docRepo := new(MockDocumentRepository)
	jobRepo := new(MockIngestionJobRepository)
	svc := newDocumentService(docRepo, jobRepo, new(MockStorageClient), "job-id-789")

	failed := testDoc("doc-1")
	failed.Status = domain.ProcessingStatusFailed
	pending := testDoc("doc-1")
	pending.Status = domain.ProcessingStatusPending

	docRepo.On("GetByID", mock.Anything, "doc-1").Return(failed, nil)
	docRepo.On("TransitionStatus", mock.Anything, "doc-1",
		domain.ProcessingStatusFailed, domain.ProcessingStatusPending, "").
		Return(pending, nil)
	jobRepo.On("Create", mock.Anything, mock.MatchedBy(func(j *domain.IngestionJob) bool {
		return j.DocumentID == "doc-1"
	})).Return(nil)

	doc, err := svc.Reprocess(context.Background(), "doc-1")

	require.NoError(t, err)
	assert.Equal(t, domain.ProcessingStatusPending, doc.Status)
	docRepo.AssertExpectations(t)
	jobRepo.AssertExpectations(t)
}

func TestDocumentService_Reprocess_WhileProcessing(t *testing.T) {
	docRepo := new(MockDocumentRepository)
	jobRepo := new(MockIngestionJobRepository)
	svc := newDocumentService(docRepo, jobRepo, new(MockStorageClient), "job-id-789")

	inFlight := testDoc("doc-1")
	inFlight.Status = domain.ProcessingStatusProcessing
	docRepo.On("GetByID", mock.Anything, "doc-1").Return(inFlight, nil)

	_, err := svc.Reprocess(context.Background(), "doc-1")

	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	jobRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDocumentService_Reprocess_NotFound(t *testing.T) {
	docRepo := new(MockDocumentRepository)
	svc := newDocumentService(docRepo, new(MockIngestionJobRepository), new(MockStorageClient), "job-id-789")

	docRepo.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrDocumentNotFound)

	_, err := svc.Reprocess(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}
