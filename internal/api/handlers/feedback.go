package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sagelearn/sagefeed/internal/api"
	"github.com/sagelearn/sagefeed/internal/domain"
)

type FeedbackService interface {
	Evaluate(ctx context.Context, query domain.FeedbackQuery) (*domain.FeedbackResult, error)
}

type FeedbackHandler struct {
	svc FeedbackService
}

func NewFeedbackHandler(svc FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{svc: svc}
}

type FeedbackRequest struct {
	StudentResponse string `json:"student_response"`
	SkillID         string `json:"skill_id"`
	Question        string `json:"question"`
	Context         string `json:"context,omitempty"`
}

type CitationResponse struct {
	Title     string `json:"title"`
	Author    string `json:"author,omitempty"`
	Excerpt   string `json:"excerpt"`
	Page      int    `json:"page"`
	Relevance int    `json:"relevance"`
}

type FeedbackResponse struct {
	Feedback   string             `json:"feedback"`
	Sources    []CitationResponse `json:"sources"`
	Confidence int                `json:"confidence"`
}

func (h *FeedbackHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.StudentResponse == "" {
		api.Error(w, http.StatusBadRequest, "student_response is required")
		return
	}
	if req.SkillID == "" {
		api.Error(w, http.StatusBadRequest, "skill_id is required")
		return
	}
	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	result, err := h.svc.Evaluate(r.Context(), domain.FeedbackQuery{
		StudentResponse: req.StudentResponse,
		SkillID:         req.SkillID,
		Question:        req.Question,
		Context:         req.Context,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	sources := make([]CitationResponse, 0, len(result.Sources))
	for _, s := range result.Sources {
		sources = append(sources, CitationResponse{
			Title:     s.Title,
			Author:    s.Author,
			Excerpt:   s.Excerpt,
			Page:      s.Page,
			Relevance: s.Relevance,
		})
	}

	api.Success(w, http.StatusOK, FeedbackResponse{
		Feedback:   result.Feedback,
		Sources:    sources,
		Confidence: result.Confidence,
	})
}
