package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/kbase/internal/httpserver/deps"
	"github.com/MrSnakeDoc/kbase/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/kbase/internal/httpserver/mw"
)

func init() { Register(registerEntries) }

func registerEntries(r chi.Router, d deps.Deps) {
	// one limiter shared by every write route
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateLimitBurst,
		RefillPerIPPerMin: d.RateLimitPerMinute,
		MaxEntries:        10000,
		TrustProxy:        d.TrustProxy,
	})

	r.Route("/api/categories/{category}/entries", func(r chi.Router) {
		r.Use(guard(d)...)
		r.Get("/", handlers.ListEntries(d))
		r.With(limit).Post("/", handlers.CreateEntry(d))
		r.Get("/{id}", handlers.GetEntry(d))
		r.With(limit).Put("/{id}", handlers.UpdateEntry(d))
		r.With(limit).Delete("/{id}", handlers.DeleteEntry(d))
	})
}
