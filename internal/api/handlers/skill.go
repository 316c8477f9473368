package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sagelearn/sagefeed/internal/api"
	"github.com/sagelearn/sagefeed/internal/domain"
)

type SkillService interface {
	LinkSource(ctx context.Context, skillID, documentID string) (*domain.SkillSourceLink, error)
	UnlinkSource(ctx context.Context, skillID, documentID string) error
	ListSources(ctx context.Context, skillID string) ([]*domain.SourceDocument, error)
}

type SkillHandler struct {
	svc SkillService
}

func NewSkillHandler(svc SkillService) *SkillHandler {
	return &SkillHandler{svc: svc}
}

type LinkSourceRequest struct {
	DocumentID string `json:"document_id"`
}

type SkillLinkResponse struct {
	SkillID    string `json:"skill_id"`
	DocumentID string `json:"document_id"`
	CreatedAt  string `json:"created_at"`
}

func (h *SkillHandler) LinkSource(w http.ResponseWriter, r *http.Request) {
	skillID := chi.URLParam(r, "skillID")
	if skillID == "" {
		api.Error(w, http.StatusBadRequest, "skillID is required")
		return
	}

	var req LinkSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DocumentID == "" {
		api.Error(w, http.StatusBadRequest, "document_id is required")
		return
	}

	link, err := h.svc.LinkSource(r.Context(), skillID, req.DocumentID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, SkillLinkResponse{
		SkillID:    link.SkillID,
		DocumentID: link.DocumentID,
		CreatedAt:  link.CreatedAt.Format("2006-01-02T15:04:05Z"),
	})
}

func (h *SkillHandler) UnlinkSource(w http.ResponseWriter, r *http.Request) {
	skillID := chi.URLParam(r, "skillID")
	documentID := chi.URLParam(r, "documentID")
	if skillID == "" || documentID == "" {
		api.Error(w, http.StatusBadRequest, "skillID and documentID are required")
		return
	}

	if err := h.svc.UnlinkSource(r.Context(), skillID, documentID); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}

func (h *SkillHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	skillID := chi.URLParam(r, "skillID")
	if skillID == "" {
		api.Error(w, http.StatusBadRequest, "skillID is required")
		return
	}

	docs, err := h.svc.ListSources(r.Context(), skillID)
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
