package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sagelearn/sagefeed/internal/domain"
)

// MockSkillService is a mock implementation of SkillService
type MockSkillService struct {
	mock.Mock
}

func (m *MockSkillService) LinkSource(ctx context.Context, skillID, documentID string) (*domain.SkillSourceLink, error) {
	args := m.Called(ctx, skillID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SkillSourceLink), args.Error(1)
}

func (m *MockSkillService) UnlinkSource(ctx context.Context, skillID, documentID string) error {
	args := m.Called(ctx, skillID, documentID)
	return args.Error(0)
}

func (m *MockSkillService) ListSources(ctx context.Context, skillID string) ([]*domain.SourceDocument, error) {
	args := m.Called(ctx, skillID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SourceDocument), args.Error(1)
}

func TestSkillHandler_LinkSource(t *testing.T) {
	svc := new(MockSkillService)
	handler := NewSkillHandler(svc)

	svc.On("LinkSource", mock.Anything, "skill-1", "doc-1").Return(&domain.SkillSourceLink{
		SkillID:    "skill-1",
		DocumentID: "doc-1",
		CreatedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}, nil)

	body, _ := json.Marshal(LinkSourceRequest{DocumentID: "doc-1"})
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/skills/skill-1/sources", bytes.NewReader(body)), "skillID", "skill-1")
	rec := httptest.NewRecorder()
	handler.LinkSource(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data SkillLinkResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "skill-1", resp.Data.SkillID)
	assert.Equal(t, "doc-1", resp.Data.DocumentID)
	assert.Equal(t, "2025-06-01T12:00:00Z", resp.Data.CreatedAt)
}

func TestSkillHandler_LinkSource_Duplicate(t *testing.T) {
	svc := new(MockSkillService)
	handler := NewSkillHandler(svc)

	svc.On("LinkSource", mock.Anything, "skill-1", "doc-1").
		Return(nil, domain.ErrSkillLinkAlreadyExists)

	body, _ := json.Marshal(LinkSourceRequest{DocumentID: "doc-1"})
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/skills/skill-1/sources", bytes.NewReader(body)), "skillID", "skill-1")
	rec := httptest.NewRecorder()
	handler.LinkSource(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSkillHandler_LinkSource_MissingDocumentID(t *testing.T) {
	svc := new(MockSkillService)
	handler := NewSkillHandler(svc)

	body, _ := json.Marshal(LinkSourceRequest{})
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/skills/skill-1/sources", bytes.NewReader(body)), "skillID", "skill-1")
	rec := httptest.NewRecorder()
	handler.LinkSource(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "LinkSource", mock.Anything, mock.Anything, mock.Anything)
}

func TestSkillHandler_UnlinkSource(t *testing.T) {
	svc := new(MockSkillService)
	handler := NewSkillHandler(svc)

	svc.On("UnlinkSource", mock.Anything, "skill-1", "doc-1").Return(nil)

	req := withURLParams(httptest.NewRequest(http.MethodDelete, "/skills/skill-1/sources/doc-1", nil),
		map[string]string{"skillID": "skill-1", "documentID": "doc-1"})
	rec := httptest.NewRecorder()
	handler.UnlinkSource(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestSkillHandler_ListSources(t *testing.T) {
	svc := new(MockSkillService)
	handler := NewSkillHandler(svc)

	svc.On("ListSources", mock.Anything, "skill-1").
		Return([]*domain.SourceDocument{sampleDocument()}, nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/skills/skill-1/sources", nil), "skillID", "skill-1")
	rec := httptest.NewRecorder()
	handler.ListSources(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []DocumentResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Organic Chemistry", resp.Data[0].Title)
}
