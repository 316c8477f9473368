package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sagelearn/sagefeed/internal/api"
	"github.com/sagelearn/sagefeed/internal/domain"
	"github.com/sagelearn/sagefeed/internal/service"
)

type DocumentService interface {
	InitUpload(ctx context.Context, input service.InitUploadInput) (*service.InitUploadResult, error)
	CompleteUpload(ctx context.Context, input service.CompleteUploadInput) (*domain.SourceDocument, error)
	GetByID(ctx context.Context, id string) (*domain.SourceDocument, error)
	ListByInstitution(ctx context.Context, institutionID string) ([]*domain.SourceDocument, error)
	Reprocess(ctx context.Context, documentID string) (*domain.SourceDocument, error)
}

type DocumentHandler struct {
	svc DocumentService
}

func NewDocumentHandler(svc DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type InitUploadRequest struct {
	InstitutionID string `json:"institution_id"`
	Filename      string `json:"filename"`
}

type InitUploadResponse struct {
	DocumentID string `json:"document_id"`
	StorageKey string `json:"storage_key"`
	UploadURL  string `json:"upload_url"`
}

type CompleteUploadRequest struct {
	DocumentID      string `json:"document_id"`
	InstitutionID   string `json:"institution_id"`
	Title           string `json:"title"`
	Authors         string `json:"authors,omitempty"`
	PublicationYear int    `json:"publication_year,omitempty"`
	StorageKey      string `json:"storage_key"`
}

type DocumentResponse struct {
	ID              string `json:"id"`
	InstitutionID   string `json:"institution_id"`
	Title           string `json:"title"`
	Authors         string `json:"authors,omitempty"`
	PublicationYear int    `json:"publication_year,omitempty"`
	Status          string `json:"status"`
	ChunkCount      int    `json:"chunk_count"`
	Error           string `json:"error,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func documentToResponse(d *domain.SourceDocument) *DocumentResponse {
	return &DocumentResponse{
		ID:              d.ID,
		InstitutionID:   d.InstitutionID,
		Title:           d.Title,
		Authors:         d.Authors,
		PublicationYear: d.PublicationYear,
		Status:          string(d.Status),
		ChunkCount:      d.ChunkCount,
		Error:           d.Error,
		CreatedAt:       d.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:       d.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *DocumentHandler) InitUpload(w http.ResponseWriter, r *http.Request) {
	var req InitUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.InstitutionID == "" {
		api.Error(w, http.StatusBadRequest, "institution_id is required")
		return
	}
	if req.Filename == "" {
		api.Error(w, http.StatusBadRequest, "filename is required")
		return
	}

	result, err := h.svc.InitUpload(r.Context(), service.InitUploadInput{
		InstitutionID: req.InstitutionID,
		Filename:      req.Filename,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, InitUploadResponse{
		DocumentID: result.DocumentID,
		StorageKey: result.StorageKey,
		UploadURL:  result.UploadURL,
	})
}

func (h *DocumentHandler) CompleteUpload(w http.ResponseWriter, r *http.Request) {
	var req CompleteUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.DocumentID == "" {
		api.Error(w, http.StatusBadRequest, "document_id is required")
		return
	}
	if req.InstitutionID == "" {
		api.Error(w, http.StatusBadRequest, "institution_id is required")
		return
	}
	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.StorageKey == "" {
		api.Error(w, http.StatusBadRequest, "storage_key is required")
		return
	}

	doc, err := h.svc.CompleteUpload(r.Context(), service.CompleteUploadInput{
		DocumentID:      req.DocumentID,
		InstitutionID:   req.InstitutionID,
		Title:           req.Title,
		Authors:         req.Authors,
		PublicationYear: req.PublicationYear,
		StorageKey:      req.StorageKey,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, documentToResponse(doc))
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	doc, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, documentToResponse(doc))
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	institutionID := r.URL.Query().Get("institution_id")
	if institutionID == "" {
		api.Error(w, http.StatusBadRequest, "institution_id is required")
		return
	}

	docs, err := h.svc.ListByInstitution(r.Context(), institutionID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*DocumentResponse, 0, len(docs))
	for _, d := range docs {
		resp = append(resp, documentToResponse(d))
	}

	api.Success(w, http.StatusOK, resp)
}

func (h *DocumentHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	doc, err := h.svc.Reprocess(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, documentToResponse(doc))
}
