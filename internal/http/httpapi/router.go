package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"mimino/internal/http/handlers"
	"mimino/internal/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(app.Cfg.AllowedOrigins),
		middleware.Locale(app.Cfg.DefaultLocale),
		middleware.RateLimit(app.Cfg.RateLimitPerMin, time.Minute, "/v1/previews/"),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/stats", app.StatsDashboard)
	r.Get("/v1/previews/{preview_id}", app.PreviewGet)

	r.Route("/v1/editor", func(r chi.Router) {
		r.Post("/image", app.EditorSelect)
		r.Post("/generate", app.EditorGenerate)
		r.Get("/state", app.EditorState)
	})

	r.Route("/v1/video", func(r chi.Router) {
		r.Post("/image", app.VideoSelect)
		r.Post("/generate", app.VideoGenerate)
		r.Get("/state", app.VideoState)
		r.Post("/refund", app.VideoRefund)
		r.Post("/select-key", app.VideoSelectKey)
	})

	r.Route("/v1/chat", func(r chi.Router) {
		r.Post("/messages", app.ChatSend)
		r.Get("/messages", app.ChatHistory)
		r.Post("/reset", app.ChatReset)
	})

	r.Route("/v1/credits", func(r chi.Router) {
		r.Get("/", app.CreditsGet)
		r.Post("/purchase", app.CreditsPurchase)
	})

	return r
}
