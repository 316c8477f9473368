package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sagelearn/sagefeed/internal/api"
	"github.com/sagelearn/sagefeed/internal/api/handlers"
	"github.com/sagelearn/sagefeed/internal/api/middleware"
)

type RouterConfig struct {
	DocumentHandler *handlers.DocumentHandler
	SkillHandler    *handlers.SkillHandler
	FeedbackHandler *handlers.FeedbackHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/documents", func(r chi.Router) {
		r.Post("/init", cfg.DocumentHandler.InitUpload)
		r.Post("/complete", cfg.DocumentHandler.CompleteUpload)
		r.Get("/", cfg.DocumentHandler.List)
		r.Get("/{id}", cfg.DocumentHandler.Get)
		r.Post("/{id}/reprocess", cfg.DocumentHandler.Reprocess)
	})

	r.Route("/skills/{skillID}/sources", func(r chi.Router) {
		r.Post("/", cfg.SkillHandler.LinkSource)
		r.Get("/", cfg.SkillHandler.ListSources)
		r.Delete("/{documentID}", cfg.SkillHandler.UnlinkSource)
	})

	r.Post("/feedback", cfg.FeedbackHandler.Evaluate)

	return r
}
