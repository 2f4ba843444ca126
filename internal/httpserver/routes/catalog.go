package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/kbase/internal/httpserver/deps"
	"github.com/MrSnakeDoc/kbase/internal/httpserver/handlers"
)

func init() { Register(registerCatalog) }

func registerCatalog(r chi.Router, d deps.Deps) {
	api := r.With(guard(d)...)
	api.Get("/api/categories", handlers.Categories(d))
	api.Get("/api/catalog", handlers.Catalog(d))
}
