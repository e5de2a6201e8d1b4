package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/videostream/internal/httpserver/deps"
	"github.com/MrSnakeDoc/videostream/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/videostream/internal/httpserver/mw"
)

func init() { Register(registerVideos) }

func registerVideos(r chi.Router, d deps.Deps) {
	r.Route("/api/videos", func(r chi.Router) {
		if d.RateLimitBurst > 0 {
			r.Use(mw.RateLimit(mw.RateLimitConfig{
				Burst:             d.RateLimitBurst,
				RefillPerIPPerMin: d.RateLimitPerMin,
				MaxEntries:        10_000,
				TrustProxy:        d.TrustProxy,
			}))
		}

		r.Get("/", handlers.ListVideos(d))
		r.Post("/", handlers.CreateVideo(d))
		r.Get("/search", handlers.SearchVideos(d))
		r.Get("/{id}", handlers.GetVideo(d))
		r.Delete("/{id}", handlers.DeleteVideo(d))
	})
}
